package radtk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/COMBINE-lab/radtk/internal/fs"
	"github.com/COMBINE-lab/radtk/radfile"
)

func TestCatSingleInputIsIdentity(t *testing.T) {
	dir := t.TempDir()
	in := makeRAD(t, dir, "a.rad", makeRecords(9, 0), 4)
	out := filepath.Join(dir, "out.rad")

	require.NoError(t, Cat(CatOptions{Inputs: []string{in}, Output: out}))

	want, err := os.ReadFile(in)
	require.NoError(t, err)
	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, want, got, "single-input cat must be byte-identical")
}

func TestCatConcatenatesInOrder(t *testing.T) {
	dir := t.TempDir()
	recsA := makeRecords(5, 0)
	recsB := makeRecords(7, 1000)
	a := makeRAD(t, dir, "a.rad", recsA, 2)
	b := makeRAD(t, dir, "b.rad", recsB, 3)
	out := filepath.Join(dir, "out.rad")

	require.NoError(t, Cat(CatOptions{Inputs: []string{a, b}, Output: out}))

	got := readRecords(t, out)
	require.Len(t, got, 12)
	assert.Equal(t, recsA, got[:5])
	assert.Equal(t, recsB, got[5:])

	// One header, chunk boundaries preserved, aggregate count patched.
	cr, err := radfile.Open(nil, out)
	require.NoError(t, err)
	defer cr.Close()
	assert.Equal(t, testPrelude().RefNames, cr.Prelude().RefNames)
	assert.Equal(t, uint64(3+3), cr.Prelude().NumChunks)
	assert.Equal(t, []uint32{2, 2, 1, 3, 3, 1}, chunkCounts(t, out))
}

func TestCatThreeFilesKeepsSequence(t *testing.T) {
	dir := t.TempDir()
	all := makeRecords(10, 0)
	a := makeRAD(t, dir, "a.rad", all[:3], 2)
	b := makeRAD(t, dir, "b.rad", all[3:4], 2)
	c := makeRAD(t, dir, "c.rad", all[4:], 2)
	out := filepath.Join(dir, "out.rad")

	require.NoError(t, Cat(CatOptions{Inputs: []string{a, b, c}, Output: out}))
	assert.Equal(t, all, readRecords(t, out))
}

func TestCatIncompatibleWritesNothing(t *testing.T) {
	dir := t.TempDir()
	a := makeRAD(t, dir, "a.rad", makeRecords(3, 0), 2)

	other := testPrelude()
	other.RefNames = []string{"chr1", "chrX"}
	bPath := filepath.Join(dir, "b.rad")
	writeRAD(t, bPath, other, makeRecords(3, 0), 2)

	out := filepath.Join(dir, "out.rad")
	err := Cat(CatOptions{Inputs: []string{a, bPath}, Output: out})

	var ie *IncompatibleError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, bPath, ie.Path)
	var mm *radfile.MismatchError
	require.ErrorAs(t, err, &mm)
	assert.Equal(t, "reference set", mm.Field)

	_, statErr := os.Stat(out)
	assert.ErrorIs(t, statErr, os.ErrNotExist, "failure must precede output creation")
}

func TestCatPermutedSchemaIsIncompatible(t *testing.T) {
	dir := t.TempDir()
	a := makeRAD(t, dir, "a.rad", makeRecords(2, 0), 2)

	other := testPrelude()
	other.ReadTags[0], other.ReadTags[1] = other.ReadTags[1], other.ReadTags[0]
	bPath := filepath.Join(dir, "b.rad")
	w, err := radfile.Create(nil, bPath, other, testFileTags(t, other))
	require.NoError(t, err)
	require.NoError(t, w.Finalize())

	err = Cat(CatOptions{Inputs: []string{a, bPath}, Output: filepath.Join(dir, "out.rad")})
	var mm *radfile.MismatchError
	require.ErrorAs(t, err, &mm)
	assert.Equal(t, "read tag schema", mm.Field)
}

func TestCatNoInputs(t *testing.T) {
	err := Cat(CatOptions{Output: filepath.Join(t.TempDir(), "out.rad")})
	assert.ErrorIs(t, err, ErrNoInputs)
}

func TestCatMissingInput(t *testing.T) {
	dir := t.TempDir()
	err := Cat(CatOptions{
		Inputs: []string{filepath.Join(dir, "nope.rad")},
		Output: filepath.Join(dir, "out.rad"),
	})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCatCorruptInputAborts(t *testing.T) {
	dir := t.TempDir()
	a := makeRAD(t, dir, "a.rad", makeRecords(4, 0), 2)

	data, err := os.ReadFile(a)
	require.NoError(t, err)
	bad := filepath.Join(dir, "bad.rad")
	require.NoError(t, os.WriteFile(bad, data[:len(data)-3], 0644))

	err = Cat(CatOptions{Inputs: []string{a, bad}, Output: filepath.Join(dir, "out.rad")})
	require.Error(t, err)
	assert.True(t, IsCorrupt(err))
}

func TestCatWriteFailureSurfaces(t *testing.T) {
	dir := t.TempDir()
	a := makeRAD(t, dir, "a.rad", makeRecords(8, 0), 2)

	faulty := fs.NewFaultyFS(nil)
	faulty.FailWritesTo = "out.rad"
	faulty.FailAfterBytes = 16

	err := Cat(CatOptions{
		Inputs: []string{a},
		Output: filepath.Join(dir, "out.rad"),
		FS:     faulty,
	})
	assert.ErrorIs(t, err, fs.ErrInjected)
}
