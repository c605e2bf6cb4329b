package chemdict

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Stream order deliberately differs from sorted order so truncation-order
// tests can tell the two apart.
const testPrimaryCIF = `data_B
_chem_comp.id B
_chem_comp.name 'component b'
data_C
_chem_comp.id C
_chem_comp.name 'component c'
data_A
_chem_comp.id A
_chem_comp.name 'component a'
`

const testSupplementaryCIF = `data_PRDCC_B
_chem_comp.id B
_chem_comp.name 'bird override of b'
data_D
_chem_comp.id D
_chem_comp.name 'component d'
`

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// testOpts returns options for a provider reading local source files into a
// fresh cache directory.
func testOpts(t *testing.T, extra ...Option) []Option {
	t.Helper()
	opts := []Option{
		WithPrimary(writeSource(t, "components.cif", testPrimaryCIF)),
		WithSupplementary(writeSource(t, "prdcc-all.cif", testSupplementaryCIF)),
		WithCacheDir(t.TempDir()),
	}
	return append(opts, extra...)
}

func TestProviderFreshBuild(t *testing.T) {
	t.Parallel()

	p, err := New(context.Background(), testOpts(t)...)
	require.NoError(t, err)

	assert.True(t, p.Valid(0))
	assert.True(t, p.Valid(4))
	assert.False(t, p.Valid(5))
	assert.Equal(t, []string{"A", "B", "C", "D"}, p.Store().Keys())
	assert.Empty(t, p.Warnings())
	assert.FileExists(t, p.ArtifactPath())
	assert.Positive(t, p.EstimateSize())
}

func TestProviderLastWriteWins(t *testing.T) {
	t.Parallel()

	p, err := New(context.Background(), testOpts(t)...)
	require.NoError(t, err)

	// B appears in both archives; the supplementary record, processed
	// second, is the one retained.
	b, ok := p.Get("B")
	require.True(t, ok)
	assert.Equal(t, "bird override of b", b.Category("chem_comp").Value(0, "name"))
}

func TestProviderIdempotentReload(t *testing.T) {
	t.Parallel()

	opts := testOpts(t)
	p1, err := New(context.Background(), opts...)
	require.NoError(t, err)

	// Corrupt the fetched copies; a cache hit must not parse them.
	dir := filepath.Dir(p1.ArtifactPath())
	for _, name := range []string{"components.cif", "prdcc-all.cif"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("garbage"), 0o600))
	}

	p2, err := New(context.Background(), opts...)
	require.NoError(t, err)
	assert.Equal(t, p1.Store().Keys(), p2.Store().Keys())
	assert.Equal(t, p1.Store(), p2.Store())
}

func TestProviderFilter(t *testing.T) {
	t.Parallel()

	p, err := New(context.Background(), testOpts(t, WithFilterIDs("A", "D", "ZZZ"))...)
	require.NoError(t, err)

	// Key set is the filter intersected with what exists unfiltered.
	assert.Equal(t, []string{"A", "D"}, p.Store().Keys())
}

func TestProviderLimitFreshKeepsStreamOrder(t *testing.T) {
	t.Parallel()

	p, err := New(context.Background(), testOpts(t, WithMoleculeLimit(2))...)
	require.NoError(t, err)

	// The first two records read, not the two smallest keys.
	assert.Equal(t, []string{"B", "C"}, p.Store().Keys())
}

func TestProviderLimitReloadKeepsSortedKeys(t *testing.T) {
	t.Parallel()

	opts := testOpts(t)
	full, err := New(context.Background(), opts...)
	require.NoError(t, err)
	require.Equal(t, 4, full.Len())

	// A cache hit truncates by ascending sorted key, observably different
	// from the fresh-build stream-order selection above.
	p, err := New(context.Background(), append(opts, WithMoleculeLimit(2))...)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, p.Store().Keys())
}

func TestProviderNoCacheRebuilds(t *testing.T) {
	t.Parallel()

	opts := testOpts(t)
	full, err := New(context.Background(), opts...)
	require.NoError(t, err)
	require.Equal(t, 4, full.Len())

	// With caching disabled the existing artifact is ignored and the filter
	// applies to a fresh build.
	p, err := New(context.Background(), append(opts, WithUseCache(false), WithFilterIDs("C"))...)
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, p.Store().Keys())
}

func TestProviderJSONArtifactRoundTrip(t *testing.T) {
	t.Parallel()

	opts := testOpts(t, WithArtifactFormat("json"))
	p1, err := New(context.Background(), opts...)
	require.NoError(t, err)
	assert.Equal(t, ".json", filepath.Ext(p1.ArtifactPath()))

	p2, err := New(context.Background(), opts...)
	require.NoError(t, err)
	assert.Equal(t, p1.Store(), p2.Store())
}

func TestProviderGetMiss(t *testing.T) {
	t.Parallel()

	p, err := New(context.Background(), testOpts(t)...)
	require.NoError(t, err)

	b, ok := p.Get("UNKNOWNID")
	assert.False(t, ok)
	assert.Nil(t, b)
}

func TestProviderFetchFailureDegrades(t *testing.T) {
	t.Parallel()

	p, err := New(context.Background(),
		WithPrimary(filepath.Join(t.TempDir(), "absent.cif")),
		WithSupplementary(""),
		WithCacheDir(t.TempDir()),
	)
	require.NoError(t, err)

	// Degraded but valid: empty store, warnings recorded, undersized per
	// any minimum count.
	assert.True(t, p.Valid(0))
	assert.False(t, p.Valid(1))
	assert.NotEmpty(t, p.Warnings())
	assert.Equal(t, 0, p.Len())
}

func TestProviderStrictPartialParse(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(),
		WithPrimary(filepath.Join(t.TempDir(), "absent.cif")),
		WithSupplementary(""),
		WithCacheDir(t.TempDir()),
		WithStrict(true),
	)
	require.ErrorIs(t, err, ErrPartialParse)
}

func TestProviderSerializeFailureNonFatal(t *testing.T) {
	t.Parallel()

	cacheDir := t.TempDir()
	// A directory at the artifact path makes the write fail.
	require.NoError(t, os.Mkdir(filepath.Join(cacheDir, "cc-data.cbor"), 0o700))

	opts := []Option{
		WithPrimary(writeSource(t, "components.cif", testPrimaryCIF)),
		WithSupplementary(""),
		WithCacheDir(cacheDir),
	}
	p, err := New(context.Background(), opts...)
	require.NoError(t, err)

	// The in-memory store is still usable for this process.
	assert.Equal(t, []string{"A", "B", "C"}, p.Store().Keys())

	_, err = New(context.Background(), append(opts, WithStrict(true))...)
	require.ErrorIs(t, err, ErrSerializeFailed)
}

func TestProviderCorruptArtifactRebuilds(t *testing.T) {
	t.Parallel()

	opts := testOpts(t)
	p1, err := New(context.Background(), opts...)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(p1.ArtifactPath(), []byte("corrupt"), 0o600))

	p2, err := New(context.Background(), opts...)
	require.NoError(t, err)
	assert.Equal(t, p1.Store().Keys(), p2.Store().Keys())
}

func TestProviderConfigValidation(t *testing.T) {
	t.Parallel()

	cases := map[string][]Option{
		"empty primary":  {WithPrimary("")},
		"empty prefix":   {WithCachePrefix("")},
		"empty dir":      {WithCacheDir("")},
		"negative limit": {WithMoleculeLimit(-1)},
	}
	for name, opts := range cases {
		opts := opts
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := New(context.Background(), opts...)
			require.Error(t, err)
		})
	}
}

func TestProviderCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(ctx, testOpts(t)...)
	require.ErrorIs(t, err, context.Canceled)
}
