// Package engine owns the thermal-aware auto-pin control loop state:
// the overload tracker, the auto-pinned set and the cooler-socket
// designation. All mutation happens from the single goroutine that
// drives the two ticks, so the engine carries no locks.
package engine

import (
	"context"
	"sort"

	"codeberg.org/halvard/affinityctl/internal/errors"
	"codeberg.org/halvard/affinityctl/internal/logger"
	"codeberg.org/halvard/affinityctl/internal/proc"
	"codeberg.org/halvard/affinityctl/internal/sensors"
	"codeberg.org/halvard/affinityctl/internal/topology"
)

// UnknownSocket marks the cooler-socket designation when no
// temperature data is available.
const UnknownSocket = -1

// Config carries the fixed control constants.
type Config struct {
	Threshold float64 // CPU% above which a tick counts as overload
	Duration  int     // consecutive overload ticks required before pinning
}

// Engine is constructed once at startup and owns all mutable loop state.
type Engine struct {
	topo    topology.Map
	sampler Sampler
	lister  Lister
	pinner  Pinner
	cfg     Config

	tracker      *Tracker
	autoPinned   map[int32]bool
	coolerSocket int

	paused      bool
	autoPin     bool
	totalPins   uint64
	lastSample  sensors.Sample
	lastThermal ThermalState
	lastProcs   []proc.Snapshot
	lastLoads   []proc.CoreLoad
}

func New(topo topology.Map, sampler Sampler, lister Lister, pinner Pinner, cfg Config) *Engine {
	return &Engine{
		topo:         topo,
		sampler:      sampler,
		lister:       lister,
		pinner:       pinner,
		cfg:          cfg,
		tracker:      NewTracker(cfg.Threshold),
		autoPinned:   make(map[int32]bool),
		coolerSocket: UnknownSocket,
		lastSample:   sensors.Sample{},
		lastThermal:  ThermalIdle,
	}
}

// SetPaused toggles the refresh tick. Idempotent; takes effect at the
// start of the next tick.
func (e *Engine) SetPaused(paused bool) {
	e.paused = paused
}

func (e *Engine) Paused() bool {
	return e.paused
}

// SetAutoPin toggles the auto-pin tick.
func (e *Engine) SetAutoPin(enabled bool) {
	e.autoPin = enabled
}

func (e *Engine) AutoPinEnabled() bool {
	return e.autoPin
}

// Topology returns the startup topology the engine was built with.
func (e *Engine) Topology() topology.Map {
	return e.topo
}

// Refresh runs one refresh tick: sample temperatures, select the
// coolest socket, re-pin the auto-pinned set when the designation
// changed, and rebuild the presentation snapshots.
func (e *Engine) Refresh(ctx context.Context) Status {
	if e.paused {
		return e.Status()
	}

	sample := e.sampler.Read(ctx)
	newCooler := e.SelectCooler(sample)

	if newCooler != e.coolerSocket {
		old := e.coolerSocket
		if old != UnknownSocket && newCooler != UnknownSocket {
			logger.Info().
				Int("old_socket", old).
				Int("new_socket", newCooler).
				Msg("Cooler socket changed, re-pinning auto-managed processes")
			e.repinSweep(newCooler)
		}
		e.coolerSocket = newCooler
	}

	thermal := ClassifyThermal(sample)
	if thermal != e.lastThermal {
		logger.Info().
			Str("state", string(thermal)).
			Msg("Thermal state changed")
	}

	e.lastSample = sample
	e.lastThermal = thermal
	e.lastLoads = proc.CoreLoads(ctx)
	e.lastProcs = e.lister.List(ctx)

	return e.Status()
}

// AutoPinTick runs one auto-pin tick and returns the number of pins
// applied. Inactive unless the auto-pin flag is set.
func (e *Engine) AutoPinTick(ctx context.Context) int {
	if !e.autoPin {
		return 0
	}

	target := e.coolerSocket
	if target == UnknownSocket {
		if !e.topo.HasSocket(0) {
			return 0
		}
		target = 0
	}

	cores, ok := e.topo.Cores(target)
	if !ok || len(cores) == 0 {
		return 0
	}

	snapshots := e.lister.List(ctx)
	seen := make(map[int32]bool, len(snapshots))
	pinned := 0

	for _, snap := range snapshots {
		seen[snap.PID] = true

		count := e.tracker.Observe(snap.PID, snap.CPU)
		if count < e.cfg.Duration {
			continue
		}

		err := e.pinner.Pin(int(snap.PID), cores)
		switch {
		case err == nil:
			logger.Info().
				Int32("pid", snap.PID).
				Str("name", snap.Name).
				Float64("cpu", snap.CPU).
				Int("socket", target).
				Msg("Auto-pinned overloaded process")
			e.tracker.Reset(snap.PID)
			e.autoPinned[snap.PID] = true
			e.totalPins++
			pinned++
		case errors.IsProcessGone(err):
			e.tracker.Forget(snap.PID)
			seen[snap.PID] = false
		case errors.IsPermissionDenied(err):
			// Counter stays at the threshold so the pin is retried on
			// the next qualifying tick.
			logger.Warn().
				Int32("pid", snap.PID).
				Str("name", snap.Name).
				Msg("Auto-pin rejected by OS, will retry")
		default:
			logger.Warn().Int32("pid", snap.PID).Err(err).Msg("Auto-pin failed")
		}
	}

	e.tracker.Retain(seen)
	for pid := range e.autoPinned {
		if !seen[pid] {
			delete(e.autoPinned, pid)
		}
	}

	return pinned
}

// ManualPin pins a user-selected pid to the given socket. Manual pins
// never enter the auto-pinned set and are never auto-relocated.
func (e *Engine) ManualPin(pid int, socket int) error {
	errFactory := errors.New()

	cores, ok := e.topo.Cores(socket)
	if !ok || len(cores) == 0 {
		return errFactory.WithData(errors.ErrUnknownSocket, socket)
	}

	if err := e.pinner.Pin(pid, cores); err != nil {
		return err
	}

	logger.Info().Int("pid", pid).Int("socket", socket).Msg("Manually pinned process")

	return nil
}

// SelectCooler picks the socket with the lowest sampled temperature,
// ties broken by smallest socket id. An empty sample yields socket 0
// when the topology has one, else UnknownSocket.
func (e *Engine) SelectCooler(sample sensors.Sample) int {
	if len(sample) == 0 {
		if e.topo.HasSocket(0) {
			return 0
		}
		return UnknownSocket
	}

	best := UnknownSocket
	bestTemp := 0.0
	for _, socket := range sample.Sockets() {
		if best == UnknownSocket || sample[socket] < bestTemp {
			best = socket
			bestTemp = sample[socket]
		}
	}

	return best
}

// CoolerSocket returns the current designation.
func (e *Engine) CoolerSocket() int {
	return e.coolerSocket
}

// AutoPinnedPIDs returns the auto-pinned set, ascending.
func (e *Engine) AutoPinnedPIDs() []int32 {
	pids := make([]int32, 0, len(e.autoPinned))
	for pid := range e.autoPinned {
		pids = append(pids, pid)
	}
	sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })

	return pids
}

// Status returns the read-only view of the last refresh.
func (e *Engine) Status() Status {
	return Status{
		Sample:       e.lastSample,
		CoolerSocket: e.coolerSocket,
		Thermal:      e.lastThermal,
		Processes:    e.lastProcs,
		CoreLoads:    e.lastLoads,
		AutoPinned:   e.AutoPinnedPIDs(),
		TotalPins:    e.totalPins,
	}
}

// repinSweep moves every auto-pinned pid onto the new cooler socket's
// core set. Gone processes leave the set; other failures keep the pid
// for the next sweep.
func (e *Engine) repinSweep(newSocket int) {
	cores, ok := e.topo.Cores(newSocket)
	if !ok || len(cores) == 0 {
		return
	}

	for _, pid := range e.AutoPinnedPIDs() {
		err := e.pinner.Pin(int(pid), cores)
		switch {
		case err == nil:
			logger.Info().
				Int32("pid", pid).
				Int("socket", newSocket).
				Msg("Re-pinned process to cooler socket")
		case errors.IsProcessGone(err):
			delete(e.autoPinned, pid)
			e.tracker.Forget(pid)
		default:
			logger.Warn().Int32("pid", pid).Err(err).Msg("Re-pin failed, keeping pid for next sweep")
		}
	}
}
