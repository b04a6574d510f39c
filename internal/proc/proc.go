// Package proc builds per-tick snapshots of running processes and
// per-core load. Utilization is measured since the previous snapshot of
// the same pid, so the lister keeps process handles alive across ticks.
package proc

import (
	"context"
	"sort"

	"codeberg.org/halvard/affinityctl/internal/logger"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// Snapshot is the ephemeral per-process view of one tick.
type Snapshot struct {
	PID      int32
	Name     string
	Username string
	CPU      float64 // percent of one core; >100 means more than one core busy
	Affinity []int
}

// CoreLoad is one logical core's utilization at the last refresh.
type CoreLoad struct {
	Core int
	Load float64
}

// Lister enumerates processes. Handles are cached per pid so CPU
// percentages are deltas between consecutive List calls; handles for
// vanished pids are dropped at the end of every call.
type Lister struct {
	handles map[int32]*process.Process
}

func NewLister() *Lister {
	return &Lister{handles: make(map[int32]*process.Process)}
}

// List returns a snapshot per running process, sorted by CPU usage
// descending. Processes that vanish mid-enumeration are skipped.
func (l *Lister) List(ctx context.Context) []Snapshot {
	pids, err := process.PidsWithContext(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Process enumeration failed")
		return nil
	}

	seen := make(map[int32]bool, len(pids))
	snapshots := make([]Snapshot, 0, len(pids))

	for _, pid := range pids {
		p, ok := l.handles[pid]
		if !ok {
			p, err = process.NewProcessWithContext(ctx, pid)
			if err != nil {
				continue
			}
			l.handles[pid] = p
		}
		seen[pid] = true

		usage, err := p.PercentWithContext(ctx, 0)
		if err != nil {
			continue
		}

		snap := Snapshot{PID: pid, CPU: usage}
		if name, err := p.NameWithContext(ctx); err == nil {
			snap.Name = name
		}
		if user, err := p.UsernameWithContext(ctx); err == nil {
			snap.Username = user
		}
		if mask, err := p.CPUAffinityWithContext(ctx); err == nil {
			snap.Affinity = toInts(mask)
		}

		snapshots = append(snapshots, snap)
	}

	for pid := range l.handles {
		if !seen[pid] {
			delete(l.handles, pid)
		}
	}

	sort.SliceStable(snapshots, func(i, j int) bool {
		return snapshots[i].CPU > snapshots[j].CPU
	})

	return snapshots
}

// CoreLoads returns the busy cores since the previous call, sorted by
// load descending. Idle cores are omitted.
func CoreLoads(ctx context.Context) []CoreLoad {
	percents, err := cpu.PercentWithContext(ctx, 0, true)
	if err != nil {
		logger.Debug().Err(err).Msg("Per-core load query failed")
		return nil
	}

	loads := make([]CoreLoad, 0, len(percents))
	for core, load := range percents {
		if load > 0 {
			loads = append(loads, CoreLoad{Core: core, Load: load})
		}
	}

	sort.SliceStable(loads, func(i, j int) bool {
		return loads[i].Load > loads[j].Load
	})

	return loads
}

func toInts(mask []int32) []int {
	cores := make([]int, len(mask))
	for i, c := range mask {
		cores[i] = int(c)
	}

	return cores
}
