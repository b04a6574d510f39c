//go:build linux

package proc_test

import (
	"context"
	"os"
	"testing"

	"codeberg.org/halvard/affinityctl/internal/logger"
	"codeberg.org/halvard/affinityctl/internal/proc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init(false, false, false)
	os.Exit(m.Run())
}

func TestListIncludesSelf(t *testing.T) {
	lister := proc.NewLister()

	snapshots := lister.List(context.Background())
	require.NotEmpty(t, snapshots)

	self := int32(os.Getpid())
	found := false
	for _, snap := range snapshots {
		if snap.PID == self {
			found = true
			assert.NotEmpty(t, snap.Name)
			break
		}
	}
	assert.True(t, found, "own pid missing from the snapshot")
}

func TestListSortedByCPUDescending(t *testing.T) {
	lister := proc.NewLister()

	// Second call so percentages are deltas, not the first-call zeroes.
	lister.List(context.Background())
	snapshots := lister.List(context.Background())
	require.NotEmpty(t, snapshots)

	for i := 1; i < len(snapshots); i++ {
		assert.GreaterOrEqual(t, snapshots[i-1].CPU, snapshots[i].CPU)
	}
}

func TestCoreLoadsSortedDescending(t *testing.T) {
	proc.CoreLoads(context.Background())
	loads := proc.CoreLoads(context.Background())

	for i := 1; i < len(loads); i++ {
		assert.GreaterOrEqual(t, loads[i-1].Load, loads[i].Load)
	}
	for _, load := range loads {
		assert.Greater(t, load.Load, 0.0, "idle cores omitted")
	}
}
