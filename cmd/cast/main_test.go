package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRowRangeConvertsOneBasedInclusiveToZeroBasedHalfOpen(t *testing.T) {
	lo, hi, err := parseRowRange("5000..5001")
	require.NoError(t, err)
	require.Equal(t, uint64(4999), lo)
	require.Equal(t, uint64(5001), hi)
}

func TestParseRowRangeSingleRow(t *testing.T) {
	lo, hi, err := parseRowRange("1..1")
	require.NoError(t, err)
	require.Equal(t, uint64(0), lo)
	require.Equal(t, uint64(1), hi)
}

func TestParseRowRangeRejectsBadInput(t *testing.T) {
	for _, s := range []string{"", "5", "0..5", "10..5", "a..b"} {
		_, _, err := parseRowRange(s)
		require.Errorf(t, err, "expected error for %q", s)
	}
}
