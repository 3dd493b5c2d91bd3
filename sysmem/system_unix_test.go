//go:build unix

package sysmem_test

import (
	"testing"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/osmem/sysmem"
)

func TestUnixArenaGrowsAcrossPages(t *testing.T) {
	grants := sysmem.NewUnixGrants(sysmem.UnixOptions{ReserveSize: 1 << 20})
	defer func() {
		require.NoError(t, grants.Close())
	}()

	first, err := grants.ExtendArena(100)
	require.NoError(t, err)

	// Touch every byte of a range that straddles several pages
	second, err := grants.ExtendArena(3 * 4096)
	require.NoError(t, err)
	require.Equal(t, uintptr(first)+100, uintptr(second))

	region := unsafe.Slice((*byte)(second), 3*4096)
	for i := range region {
		region[i] = byte(i)
	}
	require.Equal(t, byte(5), region[5])
	require.Equal(t, 100+3*4096, grants.ArenaSize())

	_, err = grants.ExtendArena(1 << 20)
	require.True(t, errors.Is(err, sysmem.ErrOutOfMemory))
}

func TestUnixMapUnmap(t *testing.T) {
	grants := sysmem.NewUnixGrants(sysmem.UnixOptions{})
	defer func() {
		require.NoError(t, grants.Close())
	}()

	addr, err := grants.Map(200032)
	require.NoError(t, err)
	require.Equal(t, 1, grants.MappingCount())

	region := unsafe.Slice((*byte)(addr), 200032)
	require.Zero(t, region[0])
	require.Zero(t, region[200031])
	region[200031] = 1

	require.True(t, errors.Is(grants.Unmap(addr, 100), sysmem.ErrUnknownMapping))
	require.NoError(t, grants.Unmap(addr, 200032))
	require.Equal(t, 0, grants.MappingCount())
}
