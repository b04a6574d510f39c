// Package topology discovers which logical cores belong to which
// physical CPU socket. Discovery runs once at startup; the resulting
// map is treated as read-only by everything downstream.
package topology

import (
	"context"
	"os/exec"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"codeberg.org/halvard/affinityctl/internal/errors"
	"codeberg.org/halvard/affinityctl/internal/logger"
	"github.com/shirou/gopsutil/v3/cpu"
)

const (
	lscpuCommand = "lscpu"
	lscpuArg     = "--extended"

	coreColumn   = "CPU"
	socketColumn = "SOCKET"
)

// Map assigns each socket id its ascending, deduplicated core id list.
type Map map[int][]int

// Sockets returns the known socket ids in ascending order.
func (m Map) Sockets() []int {
	sockets := make([]int, 0, len(m))
	for s := range m {
		sockets = append(sockets, s)
	}
	sort.Ints(sockets)

	return sockets
}

// Cores returns the core set of the given socket.
func (m Map) Cores(socket int) ([]int, bool) {
	cores, ok := m[socket]
	return cores, ok
}

// HasSocket reports whether the socket exists in the topology.
func (m Map) HasSocket(socket int) bool {
	_, ok := m[socket]
	return ok
}

// TotalCores returns the number of logical cores across all sockets.
func (m Map) TotalCores() int {
	total := 0
	for _, cores := range m {
		total += len(cores)
	}

	return total
}

func (m Map) String() string {
	var b strings.Builder
	for i, s := range m.Sockets() {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString("socket ")
		b.WriteString(strconv.Itoa(s))
		b.WriteString(": ")
		for j, c := range m[s] {
			if j > 0 {
				b.WriteString(",")
			}
			b.WriteString(strconv.Itoa(c))
		}
	}

	return b.String()
}

// Discover queries the system topology. It never fails: when the
// external query is unavailable or unparseable it degrades to a single
// synthetic socket covering every logical core.
func Discover(ctx context.Context, timeout time.Duration) Map {
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := exec.CommandContext(cmdCtx, lscpuCommand, lscpuArg).Output()
	if err != nil {
		errFactory := errors.New()
		logger.Warn().
			Err(errFactory.Wrap(errors.ErrTopologyUnavailable, err)).
			Msg("Topology query failed, assuming a single socket")
		return singleSocketFallback()
	}

	m, err := Parse(string(out))
	if err != nil {
		logger.Warn().Err(err).Msg("Topology report unusable, assuming a single socket")
		return singleSocketFallback()
	}

	logger.Info().Str("topology", m.String()).Msg("Discovered CPU topology")

	return m
}

// Parse reads the tabular topology report. The core and socket columns
// are located by header name, independent of order; extra columns are
// ignored. Rows that are short or not parseable as integers are
// skipped. An unusable header is an error so the caller can fall back.
func Parse(report string) (Map, error) {
	errFactory := errors.New()

	lines := strings.Split(strings.TrimSpace(report), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return nil, errFactory.WithMessage(errors.ErrTopologyUnavailable, "empty topology report")
	}

	coreIdx, socketIdx := -1, -1
	for i, col := range strings.Fields(lines[0]) {
		switch strings.ToUpper(col) {
		case coreColumn:
			coreIdx = i
		case socketColumn:
			socketIdx = i
		}
	}
	if coreIdx < 0 || socketIdx < 0 {
		return nil, errFactory.WithMessage(errors.ErrTopologyUnavailable, "topology header lacks core or socket column")
	}

	m := Map{}
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if len(fields) <= coreIdx || len(fields) <= socketIdx {
			continue
		}

		core, err := strconv.Atoi(fields[coreIdx])
		if err != nil {
			continue
		}
		socket, err := strconv.Atoi(fields[socketIdx])
		if err != nil {
			continue
		}

		m[socket] = append(m[socket], core)
	}

	if len(m) == 0 {
		return nil, errFactory.WithMessage(errors.ErrTopologyUnavailable, "no parseable topology rows")
	}

	for s := range m {
		sort.Ints(m[s])
		m[s] = dedupeSorted(m[s])
	}

	return m, nil
}

func singleSocketFallback() Map {
	count := logicalCoreCount()
	cores := make([]int, count)
	for i := range cores {
		cores[i] = i
	}

	return Map{0: cores}
}

func logicalCoreCount() int {
	if count, err := cpu.Counts(true); err == nil && count > 0 {
		return count
	}

	return runtime.NumCPU()
}

func dedupeSorted(values []int) []int {
	if len(values) < 2 {
		return values
	}

	out := values[:1]
	for _, v := range values[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}

	return out
}
