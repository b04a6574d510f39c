package sensors_test

import (
	"testing"

	"codeberg.org/halvard/affinityctl/internal/sensors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dualPackageReport = `coretemp-isa-0000
Adapter: ISA adapter
Package id 0:  +46.0°C  (high = +80.0°C, crit = +100.0°C)
Core 0:        +43.0°C  (high = +80.0°C, crit = +100.0°C)
Core 1:        +44.0°C  (high = +80.0°C, crit = +100.0°C)

coretemp-isa-0001
Adapter: ISA adapter
Package id 1:  +39.5°C  (high = +80.0°C, crit = +100.0°C)
Core 0:        +38.0°C  (high = +80.0°C, crit = +100.0°C)
`

func TestParseDualPackage(t *testing.T) {
	sample := sensors.Parse(dualPackageReport)

	require.Len(t, sample, 2)
	assert.InDelta(t, 46.0, sample[0], 0.001)
	assert.InDelta(t, 39.5, sample[1], 0.001)
}

func TestParseRecordsEachSocketOnce(t *testing.T) {
	// Core lines after the package line must not overwrite the reading.
	sample := sensors.Parse(dualPackageReport)
	assert.InDelta(t, 46.0, sample[0], 0.001, "core temps after the marker ignored")
}

func TestParseMarkerOnSeparateLine(t *testing.T) {
	report := "Package id 0:\ntemp1: +52.0°C\n"
	sample := sensors.Parse(report)

	require.Len(t, sample, 1)
	assert.InDelta(t, 52.0, sample[0], 0.001)
}

func TestParseMalformedValueClearsMarker(t *testing.T) {
	report := `Package id 0: +garbage°C
temp1: +41.0°C
Package id 1: +37.0°C
`
	sample := sensors.Parse(report)

	_, ok := sample[0]
	assert.False(t, ok, "malformed reading skipped, marker cleared")
	assert.InDelta(t, 37.0, sample[1], 0.001, "later lines still parsed")
}

func TestParseEmptyReport(t *testing.T) {
	assert.Empty(t, sensors.Parse(""))
	assert.Empty(t, sensors.Parse("Adapter: ISA adapter\ntemp1: +41.0°C\n"))
}

func TestSampleMax(t *testing.T) {
	sample := sensors.Sample{0: 46.0, 1: 39.5}
	max, ok := sample.Max()
	require.True(t, ok)
	assert.InDelta(t, 46.0, max, 0.001)

	_, ok = sensors.Sample{}.Max()
	assert.False(t, ok)
}

func TestSampleSockets(t *testing.T) {
	sample := sensors.Sample{1: 39.5, 0: 46.0}
	assert.Equal(t, []int{0, 1}, sample.Sockets())
}
