package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/halvard/affinityctl/internal/affinity"
	"codeberg.org/halvard/affinityctl/internal/config"
	"codeberg.org/halvard/affinityctl/internal/engine"
	"codeberg.org/halvard/affinityctl/internal/errors"
	"codeberg.org/halvard/affinityctl/internal/logger"
	"codeberg.org/halvard/affinityctl/internal/pid"
	"codeberg.org/halvard/affinityctl/internal/proc"
	"codeberg.org/halvard/affinityctl/internal/sensors"
	"codeberg.org/halvard/affinityctl/internal/settings"
	"codeberg.org/halvard/affinityctl/internal/telemetry"
	"codeberg.org/halvard/affinityctl/internal/topology"
)

var (
	cfg       *config.Config
	eng       *engine.Engine
	collector telemetry.Collector
)

// sensorSampler binds the configured command timeout to the sensor read.
type sensorSampler struct {
	timeout time.Duration
}

func (s sensorSampler) Read(ctx context.Context) sensors.Sample {
	return sensors.Read(ctx, s.timeout)
}

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())
	logger.Debug().Msg("Config loaded")
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	commandTimeout := time.Duration(cfg.CommandTimeout) * time.Second
	topo := topology.Discover(ctx, commandTimeout)

	eng = engine.New(
		topo,
		sensorSampler{timeout: commandTimeout},
		proc.NewLister(),
		affinity.NewController(),
		engine.Config{Threshold: cfg.Threshold, Duration: cfg.Duration},
	)

	// One-shot manual pin: never touches the auto-pinned set.
	if cfg.PinPID > 0 {
		if err := eng.ManualPin(cfg.PinPID, cfg.PinSocket); err != nil {
			logger.Error().Err(err).
				Int("pid", cfg.PinPID).
				Int("socket", cfg.PinSocket).
				Msg("Manual pin failed")
			os.Exit(1)
		}
		return
	}

	if err := pid.Write(); err != nil {
		if errors.HasCode(err, errors.ErrAlreadyRunning) {
			logger.Fatal().Msg("Another instance is already running")
		}
		logger.Warn().Err(err).Msg("Failed to write PID file")
	}
	defer func() {
		if err := pid.Remove(); err != nil {
			logger.Warn().Err(err).Msg("Failed to remove PID file")
		}
	}()

	persisted := settings.Load()
	eng.SetPaused(persisted.Pause)
	eng.SetAutoPin(persisted.AutoHeavy)

	var err error
	collector, err = telemetry.NewService(telemetry.Config{
		DBPath:       cfg.TelemetryDB,
		BatchSize:    32,
		BatchTimeout: 30,
		Enabled:      cfg.Telemetry,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize telemetry")
	}

	go handleSignals(cancel)

	if err := loop(ctx); err != nil {
		logger.Error().Err(err).Msg("error in main loop")
	}
	cleanup()
}

// loop drives both periodic activities from a single goroutine, so the
// engine's shared state is only ever touched sequentially.
func loop(ctx context.Context) error {
	errFactory := errors.New()

	if cfg.Interval <= 0 || cfg.AutoPinInterval <= 0 {
		return errFactory.New(errors.ErrInvalidInterval)
	}

	refreshTicker := time.NewTicker(time.Duration(cfg.Interval) * time.Second)
	defer refreshTicker.Stop()
	autoPinTicker := time.NewTicker(time.Duration(cfg.AutoPinInterval) * time.Second)
	defer autoPinTicker.Stop()

	if eng.AutoPinEnabled() {
		logger.Info().
			Float64("threshold", cfg.Threshold).
			Int("duration", cfg.Duration).
			Msg("Auto-pin active: sustained-overload processes move to the cooler socket")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-refreshTicker.C:
			status := eng.Refresh(ctx)
			logStatus(status)
			recordStatus(ctx, status)
		case <-autoPinTicker.C:
			eng.AutoPinTick(ctx)
		}
	}
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func cleanup() {
	if err := settings.Save(settings.Settings{
		Pause:     eng.Paused(),
		AutoHeavy: eng.AutoPinEnabled(),
	}); err != nil {
		logger.Warn().Err(err).Msg("Failed to save settings")
	}

	if collector != nil {
		if err := collector.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close telemetry")
		}
	}

	logger.Info().Msg("Exiting...")
}

func logStatus(status engine.Status) {
	if cfg.Debug {
		event := logger.Debug().
			Int("cooler_socket", status.CoolerSocket).
			Str("thermal_state", string(status.Thermal)).
			Int("process_count", len(status.Processes)).
			Int("autopinned_count", len(status.AutoPinned)).
			Uint64("pins_total", status.TotalPins).
			Bool("paused", eng.Paused()).
			Bool("auto_pin", eng.AutoPinEnabled())

		for _, socket := range status.Sample.Sockets() {
			event = event.Float64(fmt.Sprintf("temp_socket_%d", socket), status.Sample[socket])
		}
		for i, load := range status.CoreLoads {
			if i >= 4 {
				break // top busy cores only
			}
			event = event.Float64(fmt.Sprintf("core_%d_load", load.Core), load.Load)
		}
		event.Msg("")
	} else if cfg.Verbose {
		maxTemp, hasTemp := status.Sample.Max()
		event := logger.Info().
			Int("cooler_socket", status.CoolerSocket).
			Str("thermal_state", string(status.Thermal)).
			Int("autopinned_count", len(status.AutoPinned))
		if hasTemp {
			event = event.Float64("max_temp", maxTemp)
		}
		event.Msg("")
	}
}

func recordStatus(ctx context.Context, status engine.Status) {
	maxTemp, hasTemp := status.Sample.Max()
	snapshot := &telemetry.Snapshot{
		Timestamp:    time.Now(),
		CoolerSocket: status.CoolerSocket,
		MaxTemp:      maxTemp,
		HasTemp:      hasTemp,
		Thermal:      string(status.Thermal),
		Processes:    len(status.Processes),
		AutoPinned:   len(status.AutoPinned),
		TotalPins:    status.TotalPins,
		State: telemetry.StateMetrics{
			Paused:  eng.Paused(),
			AutoPin: eng.AutoPinEnabled(),
		},
	}

	if err := collector.Record(ctx, snapshot); err != nil {
		logger.Warn().Err(err).Msg("Failed to record telemetry")
	}
}
