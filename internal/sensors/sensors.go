// Package sensors reads per-socket CPU package temperatures from the
// lm-sensors reporting tool. Only package ids 0 and 1 are recognized by
// the marker text; machines with more sockets report no temperature for
// the extra ones. This is a known limitation of the label scan.
package sensors

import (
	"context"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"time"

	"codeberg.org/halvard/affinityctl/internal/errors"
	"codeberg.org/halvard/affinityctl/internal/logger"
)

const (
	sensorsCommand = "sensors"

	packageMarker0 = "Package id 0:"
	packageMarker1 = "Package id 1:"

	degreeCelsius = "°C"
)

// Sample maps socket ids to package temperatures in °C. An empty sample
// means "unknown", never "zero everywhere".
type Sample map[int]float64

// Sockets returns the sampled socket ids in ascending order.
func (s Sample) Sockets() []int {
	sockets := make([]int, 0, len(s))
	for id := range s {
		sockets = append(sockets, id)
	}
	sort.Ints(sockets)

	return sockets
}

// Max returns the hottest sampled temperature, if any.
func (s Sample) Max() (float64, bool) {
	if len(s) == 0 {
		return 0, false
	}

	max := 0.0
	first := true
	for _, t := range s {
		if first || t > max {
			max = t
			first = false
		}
	}

	return max, true
}

// Read invokes the sensor tool and parses its report. When the tool is
// missing or fails, the sample is empty and the loop carries on.
func Read(ctx context.Context, timeout time.Duration) Sample {
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := exec.CommandContext(cmdCtx, sensorsCommand).Output()
	if err != nil {
		errFactory := errors.New()
		logger.Debug().
			Err(errFactory.Wrap(errors.ErrSensorsUnavailable, err)).
			Msg("Sensor query failed, temperatures unknown")
		return Sample{}
	}

	return Parse(string(out))
}

// Parse scans the free-text sensor report. A package marker arms the
// scanner for one socket; the first +NN.N°C value at or after the
// marker is recorded for it, then the marker is cleared so each socket
// is read at most once per sample. Malformed values only clear the
// marker, they never fail the whole sample.
func Parse(report string) Sample {
	sample := Sample{}
	currentSocket := -1

	for _, line := range strings.Split(report, "\n") {
		line = strings.TrimSpace(line)

		if strings.Contains(line, packageMarker0) {
			currentSocket = 0
		} else if strings.Contains(line, packageMarker1) {
			currentSocket = 1
		}

		if currentSocket < 0 {
			continue
		}
		if !strings.Contains(line, "+") || !strings.Contains(line, degreeCelsius) {
			continue
		}

		value, ok := extractTemperature(line)
		if ok {
			sample[currentSocket] = value
		}
		currentSocket = -1
	}

	return sample
}

func extractTemperature(line string) (float64, bool) {
	_, after, found := strings.Cut(line, "+")
	if !found {
		return 0, false
	}

	raw, _, found := strings.Cut(after, degreeCelsius)
	if !found {
		return 0, false
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}

	return value, true
}
