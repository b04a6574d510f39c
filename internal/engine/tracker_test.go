package engine_test

import (
	"testing"

	"codeberg.org/halvard/affinityctl/internal/engine"
	"github.com/stretchr/testify/assert"
)

func TestTrackerMonotonicity(t *testing.T) {
	tracker := engine.NewTracker(100.0)

	for i := 1; i <= 15; i++ {
		assert.Equal(t, i, tracker.Observe(42, 150.0), "tick %d", i)
	}
}

func TestTrackerResetAtOrBelowThreshold(t *testing.T) {
	tracker := engine.NewTracker(100.0)

	tracker.Observe(42, 150.0)
	tracker.Observe(42, 150.0)

	// Exactly at threshold does not count as overload.
	assert.Equal(t, 0, tracker.Observe(42, 100.0))
	assert.Equal(t, 1, tracker.Observe(42, 150.0), "counter restarts from one")
}

func TestTrackerIndependentPIDs(t *testing.T) {
	tracker := engine.NewTracker(100.0)

	tracker.Observe(1, 150.0)
	tracker.Observe(1, 150.0)
	assert.Equal(t, 1, tracker.Observe(2, 150.0))
	assert.Equal(t, 3, tracker.Observe(1, 150.0))
}

func TestTrackerRetain(t *testing.T) {
	tracker := engine.NewTracker(100.0)

	tracker.Observe(1, 150.0)
	tracker.Observe(2, 150.0)
	tracker.Retain(map[int32]bool{2: true})

	assert.Equal(t, 1, tracker.Len())
	assert.Equal(t, 1, tracker.Observe(1, 150.0), "pruned pid restarts from scratch")
}
