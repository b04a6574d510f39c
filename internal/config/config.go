package config

import (
	"os"

	"codeberg.org/halvard/affinityctl/internal/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultInterval        = 2  // refresh tick, seconds
	DefaultAutoPinInterval = 1  // auto-pin tick, seconds
	DefaultThreshold       = 100.0
	DefaultDuration        = 10 // consecutive overload ticks before pinning
	DefaultCommandTimeout  = 5  // seconds for external topology/sensor commands
	DefaultLogLevel        = "info"
	DefaultTelemetryDB     = "/var/lib/affinityctl/telemetry.db"

	configName = "affinityctl"
	configType = "toml"
	configPath = "/etc"
	configEnv  = "AFFINITYCTL_CONFIG"
)

type Config struct {
	Interval        int     `mapstructure:"interval"`
	AutoPinInterval int     `mapstructure:"autopin-interval"`
	Threshold       float64 `mapstructure:"threshold"`
	Duration        int     `mapstructure:"duration"`
	CommandTimeout  int     `mapstructure:"command-timeout"`
	Telemetry       bool    `mapstructure:"telemetry"`
	TelemetryDB     string  `mapstructure:"database"`
	LogLevel        string  `mapstructure:"log-level"`
	Debug           bool    `mapstructure:"debug"`
	Verbose         bool    `mapstructure:"verbose"`
	PinPID          int     `mapstructure:"pin"`
	PinSocket       int     `mapstructure:"socket"`
}

// Load assembles configuration from defaults, the TOML config file and
// command line flags, in increasing order of precedence.
func Load() (*Config, error) {
	errFactory := errors.New()

	fs := pflag.NewFlagSet(configName, pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.Int("interval", DefaultInterval, "Seconds between refresh ticks")
	fs.Int("autopin-interval", DefaultAutoPinInterval, "Seconds between auto-pin ticks")
	fs.Float64("threshold", DefaultThreshold, "CPU usage percentage counted as overload")
	fs.Int("duration", DefaultDuration, "Consecutive overload ticks required before pinning")
	fs.Int("command-timeout", DefaultCommandTimeout, "Timeout in seconds for external commands")
	fs.Bool("telemetry", false, "Enable telemetry collection")
	fs.String("database", DefaultTelemetryDB, "Path to the telemetry database")
	fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	fs.Bool("debug", false, "Enable debugging mode")
	fs.Bool("verbose", false, "Enable verbose logging")
	fs.Int("pin", 0, "Pin the given PID once and exit")
	fs.Int("socket", 0, "Target socket for --pin")

	// Unknown flags (e.g. the test harness's own) are tolerated; the flag
	// layer is best effort on top of file and defaults.
	_ = fs.Parse(os.Args[1:])

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	if path := os.Getenv(configEnv); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath(configPath)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, errFactory.WithMessage(errors.ErrReadConfig, "Failed to read config file").
				WithData(err.Error())
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	applyLogLevel(config)

	return config, nil
}

// Validate checks the loaded configuration for values the control loop
// cannot run with.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}
	if c.AutoPinInterval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.AutoPinInterval)
	}
	if c.Duration <= 0 {
		return errFactory.WithData(errors.ErrInvalidArgument, "duration must be positive")
	}
	if c.Threshold <= 0 {
		return errFactory.WithData(errors.ErrInvalidArgument, "threshold must be positive")
	}
	if c.CommandTimeout <= 0 {
		return errFactory.WithData(errors.ErrInvalidArgument, "command timeout must be positive")
	}
	if !isValidLogLevel(c.LogLevel) {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	return nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warning", "error":
		return true
	default:
		return false
	}
}

func applyLogLevel(c *Config) {
	switch {
	case c.Debug:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case c.Verbose:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	default:
		switch c.LogLevel {
		case "debug":
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		case "info":
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		case "warning":
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
		case "error":
			zerolog.SetGlobalLevel(zerolog.ErrorLevel)
		}
	}
}
