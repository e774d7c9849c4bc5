package radtk

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type viewDoc struct {
	Header  *headerJSON  `json:"header"`
	Records []recordJSON `json:"records"`
}

func renderToBuffer(t *testing.T, opts ViewOptions) []byte {
	t.Helper()
	var buf bytes.Buffer
	opts.Writer = &buf
	require.NoError(t, View(opts))
	return buf.Bytes()
}

func TestViewRendersWholeFile(t *testing.T) {
	dir := t.TempDir()
	in := makeRAD(t, dir, "in.rad", makeRecords(9, 0), 2)

	out := renderToBuffer(t, ViewOptions{Input: in})
	require.True(t, json.Valid(out), "view output must be one valid JSON document")

	var doc viewDoc
	require.NoError(t, json.Unmarshal(out, &doc))
	require.NotNil(t, doc.Header)
	assert.Equal(t, []string{"chr1", "chr2"}, doc.Header.Refs)
	assert.Equal(t, 2, doc.Header.RefCount)
	assert.Equal(t, uint64(5), doc.Header.NumChunks)
	require.Len(t, doc.Header.FileTags, 1)
	assert.Equal(t, "cblen", doc.Header.FileTags[0].Name)
	assert.Equal(t, float64(16), doc.Header.FileTags[0].Value)

	require.Len(t, doc.Records, 9)
	for i, rec := range doc.Records {
		assert.Equal(t, uint64(i), rec.Index, "record order matches input order")
	}
	// Alignment refs resolve through the reference set.
	require.NotEmpty(t, doc.Records[2].Alignments)
	assert.Equal(t, "chr1", doc.Records[2].Alignments[0].Ref)
}

func TestViewDeterminism(t *testing.T) {
	dir := t.TempDir()
	in := makeRAD(t, dir, "in.rad", makeRecords(20, 7), 3)

	first := renderToBuffer(t, ViewOptions{Input: in})
	second := renderToBuffer(t, ViewOptions{Input: in})
	assert.Equal(t, first, second)
}

func TestViewNoHeader(t *testing.T) {
	dir := t.TempDir()
	in := makeRAD(t, dir, "in.rad", makeRecords(3, 0), 2)

	out := renderToBuffer(t, ViewOptions{Input: in, NoHeader: true})
	require.True(t, json.Valid(out))

	var doc viewDoc
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Nil(t, doc.Header)
	assert.Len(t, doc.Records, 3)
}

func TestViewEmptyFile(t *testing.T) {
	dir := t.TempDir()
	in := makeRAD(t, dir, "in.rad", nil, 2)

	out := renderToBuffer(t, ViewOptions{Input: in})
	require.True(t, json.Valid(out))

	var doc viewDoc
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Empty(t, doc.Records)
}

func TestViewToFile(t *testing.T) {
	dir := t.TempDir()
	in := makeRAD(t, dir, "in.rad", makeRecords(4, 0), 2)
	outPath := filepath.Join(dir, "out.json")

	require.NoError(t, View(ViewOptions{Input: in, Output: outPath}))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestViewGzipOutput(t *testing.T) {
	dir := t.TempDir()
	in := makeRAD(t, dir, "in.rad", makeRecords(4, 0), 2)
	outPath := filepath.Join(dir, "out.json.gz")

	require.NoError(t, View(ViewOptions{Input: in, Output: outPath}))

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close()
	gz, err := pgzip.NewReader(f)
	require.NoError(t, err)
	defer gz.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(gz)
	require.NoError(t, err)
	assert.True(t, json.Valid(buf.Bytes()))

	plain := renderToBuffer(t, ViewOptions{Input: in})
	assert.Equal(t, plain, buf.Bytes())
}

func TestViewCorruptInputFailsWholeRender(t *testing.T) {
	dir := t.TempDir()
	in := makeRAD(t, dir, "in.rad", makeRecords(6, 0), 2)

	data, err := os.ReadFile(in)
	require.NoError(t, err)
	bad := filepath.Join(dir, "bad.rad")
	require.NoError(t, os.WriteFile(bad, data[:len(data)-2], 0644))

	var buf bytes.Buffer
	err = View(ViewOptions{Input: bad, Writer: &buf})
	require.Error(t, err)
	assert.True(t, IsCorrupt(err))
}
