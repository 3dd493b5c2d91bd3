package memutils_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/osmem/memutils"
)

func TestAlignUp(t *testing.T) {
	require.Equal(t, 0, memutils.AlignUp(0, 8))
	require.Equal(t, 8, memutils.AlignUp(1, 8))
	require.Equal(t, 8, memutils.AlignUp(8, 8))
	require.Equal(t, 16, memutils.AlignUp(9, 8))
	require.Equal(t, 4096, memutils.AlignUp(4095, 4096))
}

func TestAlignDown(t *testing.T) {
	require.Equal(t, 0, memutils.AlignDown(7, 8))
	require.Equal(t, 8, memutils.AlignDown(15, 8))
	require.Equal(t, 4096, memutils.AlignDown(8191, 4096))
}

func TestCheckPow2(t *testing.T) {
	require.NoError(t, memutils.CheckPow2(4096, "page size"))
	require.NoError(t, memutils.CheckPow2(uint(1), "one"))

	err := memutils.CheckPow2(12, "page size")
	require.Error(t, err)
	require.True(t, errors.Is(err, memutils.PowerOfTwoError))
	require.Contains(t, err.Error(), "page size is 12")

	require.Error(t, memutils.CheckPow2(0, "zero"))
}

func TestCheckAligned(t *testing.T) {
	require.NoError(t, memutils.CheckAligned(uintptr(64), 8, "address"))

	err := memutils.CheckAligned(uintptr(65), 8, "address")
	require.True(t, errors.Is(err, memutils.AlignmentError))
}

func TestAlignUintptr(t *testing.T) {
	require.Equal(t, uintptr(0x1008), memutils.AlignUp(uintptr(0x1001), 8))
	require.Equal(t, uintptr(0x1000), memutils.AlignDown(uintptr(0x1fff), 0x1000))
}
