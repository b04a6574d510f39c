// Package settings persists the operator-facing toggles (pause and
// auto-pin) across restarts. The file lives in the user's config
// directory; a missing or corrupt file never prevents startup.
package settings

import (
	"os"
	"path/filepath"

	"codeberg.org/halvard/affinityctl/internal/errors"
	"codeberg.org/halvard/affinityctl/internal/logger"
	"github.com/spf13/viper"
)

const (
	fileName = "settings.toml"
	dirName  = "affinityctl"
	dirPerm  = 0o755
)

// Settings holds the persisted toggles.
type Settings struct {
	Pause     bool `mapstructure:"pause"`
	AutoHeavy bool `mapstructure:"auto_heavy"`
}

// Default returns the settings used when no file exists.
func Default() Settings {
	return Settings{}
}

// Path returns the per-user settings file path.
func Path() (string, error) {
	errFactory := errors.New()

	base, err := os.UserConfigDir()
	if err != nil {
		return "", errFactory.Wrap(errors.ErrInternal, err)
	}

	return filepath.Join(base, dirName, fileName), nil
}

// Load reads the settings file. Absence or corruption degrades to
// defaults rather than failing startup.
func Load() Settings {
	path, err := Path()
	if err != nil {
		logger.Debug().Err(err).Msg("No user config directory, using default settings")
		return Default()
	}

	return LoadFrom(path)
}

// LoadFrom reads settings from an explicit path.
func LoadFrom(path string) Settings {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetDefault("pause", false)
	v.SetDefault("auto_heavy", false)

	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("path", path).Msg("Unreadable settings file, using defaults")
		}
		return Default()
	}

	s := Settings{}
	if err := v.Unmarshal(&s); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Corrupt settings file, using defaults")
		return Default()
	}

	return s
}

// Save writes the settings file, creating the directory if needed.
func Save(s Settings) error {
	path, err := Path()
	if err != nil {
		return err
	}

	return SaveTo(s, path)
}

// SaveTo writes settings to an explicit path.
func SaveTo(s Settings, path string) error {
	errFactory := errors.New()

	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.Set("pause", s.Pause)
	v.Set("auto_heavy", s.AutoHeavy)

	if err := v.WriteConfigAs(path); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}
