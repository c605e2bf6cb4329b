package cif

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFilePlain(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "components.cif")
	require.NoError(t, os.WriteFile(path, []byte(sampleCCD), 0o600))

	blocks, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "ATP", blocks[0].Name)
}

func TestReadFileGzip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "components.cif.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(sampleCCD))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	blocks, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "GLY", blocks[1].Name)
}

func TestReadFileZstd(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "components.cif.zst")
	f, err := os.Create(path)
	require.NoError(t, err)
	enc, err := zstd.NewWriter(f)
	require.NoError(t, err)
	_, err = enc.Write([]byte(sampleCCD))
	require.NoError(t, err)
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	blocks, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
}

func TestReadFileMissing(t *testing.T) {
	t.Parallel()

	_, err := ReadFile(filepath.Join(t.TempDir(), "absent.cif"))
	require.Error(t, err)
}

func TestReadFileCorruptGzip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "truncated.cif.gz")
	require.NoError(t, os.WriteFile(path, []byte("not gzip data"), 0o600))

	_, err := ReadFile(path)
	require.Error(t, err)
}
