//go:build linux

// Package affinity reads and writes the OS-level CPU affinity mask of a
// process. Failures are classified so callers can distinguish a process
// that exited (drop bookkeeping) from a denied change (report and
// continue); neither aborts the control loop.
package affinity

import (
	"sort"

	"codeberg.org/halvard/affinityctl/internal/errors"
	"golang.org/x/sys/unix"
)

// cpuSetSize mirrors the kernel's CPU_SETSIZE (1024), the number of
// cores representable in a unix.CPUSet; x/sys/unix does not export it.
const cpuSetSize = 1024

// Controller applies and queries affinity masks by pid.
type Controller struct{}

func NewController() *Controller {
	return &Controller{}
}

// Pin sets the affinity mask of pid to exactly the given core set.
func (*Controller) Pin(pid int, cores []int) error {
	errFactory := errors.New()

	if len(cores) == 0 {
		return errFactory.WithMessage(errors.ErrInvalidArgument, "empty core set")
	}

	var set unix.CPUSet
	set.Zero()
	for _, core := range cores {
		if core < 0 || core >= cpuSetSize {
			return errFactory.WithData(errors.ErrInvalidArgument, core)
		}
		set.Set(core)
	}

	if err := unix.SchedSetaffinity(pid, &set); err != nil {
		return classify(pid, err)
	}

	return nil
}

// Get returns the current affinity core set of pid, ascending.
func (*Controller) Get(pid int) ([]int, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(pid, &set); err != nil {
		return nil, classify(pid, err)
	}

	cores := make([]int, 0, set.Count())
	for core := 0; core < cpuSetSize; core++ {
		if set.IsSet(core) {
			cores = append(cores, core)
		}
	}
	sort.Ints(cores)

	return cores, nil
}

func classify(pid int, err error) error {
	errFactory := errors.New()

	switch {
	case errors.Is(err, unix.ESRCH):
		return errFactory.WithData(errors.ErrProcessGone, pid)
	case errors.Is(err, unix.EPERM), errors.Is(err, unix.EACCES):
		return errFactory.WithData(errors.ErrPermissionDenied, pid)
	default:
		return errFactory.Wrap(errors.ErrAffinityFailed, err)
	}
}
