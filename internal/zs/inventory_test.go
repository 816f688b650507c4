package zs_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/testutil"
	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/zs"
)

func TestInventory_Checksums(t *testing.T) {
	fsmgr := testutil.NewMockFilesystemManager()
	small := []byte("hello world")
	large := bytes.Repeat([]byte("0123456789abcdef"), 1000) // 16000 bytes
	fsmgr.AddFile("/data/small.csv", small)
	fsmgr.AddFile("/data/large.zip", large)
	fsmgr.AddFile("/data/empty.csv", nil)

	records, err := zs.Inventory(fsmgr, []string{"/data/small.csv", "/data/large.zip", "/data/empty.csv"})
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "5eb63bbbe01eeed093cb22bb8f5acdc3", records["small.csv"].Checksum)
	assert.Equal(t, zs.MD5Hex(large), records["large.zip"].Checksum)
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", records["empty.csv"].Checksum)

	assert.Equal(t, int64(16000), records["large.zip"].Size)
	assert.Equal(t, "/data", records["large.zip"].LocalPath)
	assert.Equal(t, "/data/large.zip", records["large.zip"].FullPath())
}

func TestInventory_ReadsInChunks(t *testing.T) {
	fsmgr := testutil.NewMockFilesystemManager()
	fsmgr.AddFile("/data/big.bin", bytes.Repeat([]byte{7}, 3*zs.ChunkSize+10))

	_, err := zs.Inventory(fsmgr, []string{"/data/big.bin"})
	require.NoError(t, err)

	reads := fsmgr.ReadSizes("/data/big.bin")
	require.NotEmpty(t, reads)
	for _, n := range reads {
		assert.Equal(t, zs.ChunkSize, n)
	}
	// Four reads return data, the last one returns EOF.
	assert.Len(t, reads, 5)
}

func TestInventory_DuplicateNames(t *testing.T) {
	fsmgr := testutil.NewMockFilesystemManager()
	fsmgr.AddFile("/a/eia860-2020.zip", []byte("one"))
	fsmgr.AddFile("/b/eia860-2020.zip", []byte("two"))

	_, err := zs.Inventory(fsmgr, []string{"/a/eia860-2020.zip", "/b/eia860-2020.zip"})
	require.Error(t, err)

	var dup *zs.DuplicateNameError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "eia860-2020.zip", dup.Filename)
	assert.Equal(t, "/a", dup.First)
	assert.Equal(t, "/b", dup.Second)
	assert.ErrorIs(t, err, zs.ErrDuplicateName)

	assert.Equal(t, 0, fsmgr.Opens("/b/eia860-2020.zip"), "second file must not be read")
}

func TestInventory_Errors(t *testing.T) {
	fsmgr := testutil.NewMockFilesystemManager()
	fsmgr.AddDirectory("/data")

	tests := []struct {
		name  string
		paths []string
		want  string
	}{
		{name: "missing file", paths: []string{"/data/missing.zip"}, want: "not found"},
		{name: "directory", paths: []string{"/data"}, want: "directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := zs.Inventory(fsmgr, tt.paths)
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.want), err.Error())
		})
	}
}

func TestInventory_MediaType(t *testing.T) {
	fsmgr := testutil.NewMockFilesystemManager()
	fsmgr.AddFile("/data/real.zip", append([]byte("PK\x03\x04"), make([]byte, 64)...))
	fsmgr.AddFile("/data/table.csv", []byte("a,b\n1,2\n"))

	records, err := zs.Inventory(fsmgr, []string{"/data/real.zip", "/data/table.csv"})
	require.NoError(t, err)

	assert.Equal(t, "application/zip", records["real.zip"].MediaType)
	assert.True(t, strings.HasPrefix(records["table.csv"].MediaType, "text/"), records["table.csv"].MediaType)
}
