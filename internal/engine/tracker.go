package engine

// Tracker keeps per-pid consecutive-overload counters. A tick at or
// below the threshold resets that pid's counter to zero; counters are
// created lazily on first observation.
type Tracker struct {
	threshold float64
	counts    map[int32]int
}

func NewTracker(threshold float64) *Tracker {
	return &Tracker{
		threshold: threshold,
		counts:    make(map[int32]int),
	}
}

// Observe folds one utilization reading into pid's counter and returns
// the post-update count.
func (t *Tracker) Observe(pid int32, usage float64) int {
	if usage > t.threshold {
		t.counts[pid]++
	} else {
		t.counts[pid] = 0
	}

	return t.counts[pid]
}

// Reset zeroes pid's counter, keeping the entry.
func (t *Tracker) Reset(pid int32) {
	t.counts[pid] = 0
}

// Forget drops pid's entry entirely.
func (t *Tracker) Forget(pid int32) {
	delete(t.counts, pid)
}

// Retain prunes entries for pids absent from the given set, so dead
// pids do not accumulate unboundedly.
func (t *Tracker) Retain(seen map[int32]bool) {
	for pid := range t.counts {
		if !seen[pid] {
			delete(t.counts, pid)
		}
	}
}

// Len returns the number of tracked pids.
func (t *Tracker) Len() int {
	return len(t.counts)
}
