package telemetry

import (
	"context"
	"time"
)

// Collector records per-tick engine state.
type Collector interface {
	Record(ctx context.Context, snapshot *Snapshot) error
	Close() error
}

// Repository defines the interface for telemetry storage.
type Repository interface {
	Record(snapshot *Snapshot) error
	Close() error
}

// Snapshot is one refresh tick's recorded state.
type Snapshot struct {
	Timestamp    time.Time
	CoolerSocket int // -1 when unknown
	MaxTemp      float64
	HasTemp      bool
	Thermal      string
	Processes    int
	AutoPinned   int
	TotalPins    uint64
	State        StateMetrics
}

// StateMetrics carries the operator toggles at record time.
type StateMetrics struct {
	Paused  bool
	AutoPin bool
}
