package topology_test

import (
	"testing"

	"codeberg.org/halvard/affinityctl/internal/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dualSocketReport = `CPU NODE SOCKET CORE L1d:L1i:L2:L3 ONLINE
0   0    0      0    0:0:0:0       yes
1   0    0      1    1:1:1:0       yes
2   1    1      2    2:2:2:1       yes
3   1    1      3    3:3:3:1       yes
`

func TestParseDualSocket(t *testing.T) {
	m, err := topology.Parse(dualSocketReport)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, m.Sockets())
	cores0, ok := m.Cores(0)
	require.True(t, ok)
	assert.Equal(t, []int{0, 1}, cores0)
	cores1, ok := m.Cores(1)
	require.True(t, ok)
	assert.Equal(t, []int{2, 3}, cores1)
	assert.Equal(t, 4, m.TotalCores())
}

func TestParseColumnsLocatedByHeader(t *testing.T) {
	// Socket column first, extra columns interleaved.
	report := `SOCKET NODE CPU ONLINE
1      1    6   yes
0      0    2   yes
1      1    4   yes
`
	m, err := topology.Parse(report)
	require.NoError(t, err)

	cores1, _ := m.Cores(1)
	assert.Equal(t, []int{4, 6}, cores1, "cores sorted ascending")
	cores0, _ := m.Cores(0)
	assert.Equal(t, []int{2}, cores0)
}

func TestParseLowercaseHeader(t *testing.T) {
	report := "cpu socket\n0 0\n1 0\n"
	m, err := topology.Parse(report)
	require.NoError(t, err)
	assert.True(t, m.HasSocket(0))
}

func TestParseSkipsShortAndMalformedRows(t *testing.T) {
	report := `CPU NODE SOCKET
0   0    0
1
- 0 0
2   0    x
3   0    0
`
	m, err := topology.Parse(report)
	require.NoError(t, err)

	cores, _ := m.Cores(0)
	assert.Equal(t, []int{0, 3}, cores, "short and malformed rows skipped without affecting others")
}

func TestParseDeduplicatesCores(t *testing.T) {
	report := "CPU SOCKET\n0 0\n0 0\n1 0\n"
	m, err := topology.Parse(report)
	require.NoError(t, err)

	cores, _ := m.Cores(0)
	assert.Equal(t, []int{0, 1}, cores)
}

func TestParseUnusableHeader(t *testing.T) {
	_, err := topology.Parse("FOO BAR\n0 0\n")
	require.Error(t, err)

	_, err = topology.Parse("")
	require.Error(t, err)
}

func TestParseNoUsableRows(t *testing.T) {
	_, err := topology.Parse("CPU SOCKET\nx y\n")
	require.Error(t, err)
}
