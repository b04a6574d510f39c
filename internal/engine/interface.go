package engine

import (
	"context"

	"codeberg.org/halvard/affinityctl/internal/proc"
	"codeberg.org/halvard/affinityctl/internal/sensors"
)

// Pinner applies and queries OS-level CPU affinity masks by pid.
type Pinner interface {
	Pin(pid int, cores []int) error
	Get(pid int) ([]int, error)
}

// Sampler reads the current per-socket package temperatures.
type Sampler interface {
	Read(ctx context.Context) sensors.Sample
}

// Lister enumerates running processes with their current utilization.
type Lister interface {
	List(ctx context.Context) []proc.Snapshot
}

// ThermalState is the coarse classification of the hottest package
// temperature, for the status surface.
type ThermalState string

const (
	ThermalIdle ThermalState = "idle" // no temperature data
	ThermalCool ThermalState = "cool"
	ThermalWarm ThermalState = "warm"
	ThermalHot  ThermalState = "hot"
)

const (
	coolMaxTemperature = 55.0
	warmMaxTemperature = 70.0
)

// ClassifyThermal maps the hottest sampled temperature to a state.
func ClassifyThermal(sample sensors.Sample) ThermalState {
	max, ok := sample.Max()
	if !ok {
		return ThermalIdle
	}

	switch {
	case max <= coolMaxTemperature:
		return ThermalCool
	case max <= warmMaxTemperature:
		return ThermalWarm
	default:
		return ThermalHot
	}
}

// Status is the read-only view the engine hands to presentation and
// telemetry after each refresh.
type Status struct {
	Sample       sensors.Sample
	CoolerSocket int // UnknownSocket when no data
	Thermal      ThermalState
	Processes    []proc.Snapshot
	CoreLoads    []proc.CoreLoad
	AutoPinned   []int32
	TotalPins    uint64
}
