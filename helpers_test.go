package radtk

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/COMBINE-lab/radtk/radfile"
)

func testPrelude() *radfile.Prelude {
	return &radfile.Prelude{
		RefNames: []string{"chr1", "chr2"},
		FileTags: radfile.TagSchema{{Name: "cblen", Type: radfile.TagU16}},
		ReadTags: radfile.TagSchema{{Name: "bc", Type: radfile.TagU64}, {Name: "len", Type: radfile.TagU16}},
		AlnTags:  radfile.TagSchema{{Name: "pos", Type: radfile.TagU32}},
	}
}

func testFileTags(t *testing.T, p *radfile.Prelude) *radfile.TagMap {
	t.Helper()
	tm, err := radfile.NewTagMap(p.FileTags, []radfile.TagValue{radfile.U16Value(16)})
	require.NoError(t, err)
	return tm
}

// makeRecords builds n distinct records with varying alignment counts.
func makeRecords(n int, seed uint64) []*radfile.Record {
	records := make([]*radfile.Record, 0, n)
	for i := 0; i < n; i++ {
		rec := &radfile.Record{
			Tags: []radfile.TagValue{
				radfile.U64Value(seed + uint64(i)),
				radfile.U16Value(uint16(100 + i)),
			},
		}
		for a := 0; a < i%3; a++ {
			rec.Alignments = append(rec.Alignments, radfile.Alignment{
				RefID: uint32(a % 2),
				Tags:  []radfile.TagValue{radfile.U32Value(uint32(i*10 + a))},
			})
		}
		records = append(records, rec)
	}
	return records
}

// writeRAD writes records to path, chunked at chunkSize records.
func writeRAD(t *testing.T, path string, p *radfile.Prelude, records []*radfile.Record, chunkSize int) {
	t.Helper()
	w, err := radfile.Create(nil, path, p, testFileTags(t, p))
	require.NoError(t, err)
	b := radfile.NewChunkBuilder(chunkSize)
	var buf bytes.Buffer
	for _, rec := range records {
		buf.Reset()
		rec.Encode(&buf)
		b.Add(buf.Bytes())
		if b.Full() {
			require.NoError(t, b.Flush(w))
		}
	}
	require.NoError(t, b.Flush(w))
	require.NoError(t, w.Finalize())
}

// makeRAD writes a fresh RAD file into dir and returns its path.
func makeRAD(t *testing.T, dir, name string, records []*radfile.Record, chunkSize int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	writeRAD(t, path, testPrelude(), records, chunkSize)
	return path
}

// readRecords reads back every record of a RAD file in order.
func readRecords(t *testing.T, path string) []*radfile.Record {
	t.Helper()
	cr, err := radfile.Open(nil, path)
	require.NoError(t, err)
	defer cr.Close()

	var records []*radfile.Record
	it := cr.Records()
	for {
		rec, err := it.Next()
		if err == io.EOF {
			return records
		}
		require.NoError(t, err)
		records = append(records, rec)
	}
}

// chunkCounts returns the per-chunk record counts of a RAD file.
func chunkCounts(t *testing.T, path string) []uint32 {
	t.Helper()
	cr, err := radfile.Open(nil, path)
	require.NoError(t, err)
	defer cr.Close()

	var counts []uint32
	for {
		c, err := cr.Next()
		if err == io.EOF {
			return counts
		}
		require.NoError(t, err)
		counts = append(counts, c.NumRecords)
	}
}
