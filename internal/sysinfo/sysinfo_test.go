package sysinfo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollectReturnsNonZeroTotal(t *testing.T) {
	snap := Collect()
	require.Greater(t, snap.TotalMemoryBytes, uint64(0))
}
