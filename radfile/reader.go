package radfile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/COMBINE-lab/radtk/internal/fs"
)

// CorruptError reports a truncated or malformed chunk with enough context
// to locate the bad data.
type CorruptError struct {
	Path   string
	Chunk  int   // zero-based index of the offending chunk
	Offset int64 // file offset at which the chunk starts
	cause  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt RAD file %s: chunk %d at offset %d: %v", e.Path, e.Chunk, e.Offset, e.cause)
}

func (e *CorruptError) Unwrap() error { return e.cause }

var errTrailingData = errors.New("trailing data after final declared chunk")

// ChunkSource produces a finite sequence of chunks. Next returns io.EOF
// after the last chunk. Concatenation, splitting and rendering consume
// this interface rather than a concrete reader so that alternate sources
// can be substituted.
type ChunkSource interface {
	Next() (*Chunk, error)
}

// ChunkReader reads a RAD file as a lazy sequence of chunks. It parses
// the prelude and file-level tag values at open time and afterwards holds
// at most one chunk in memory.
type ChunkReader struct {
	f        fs.File
	r        *bufio.Reader
	path     string
	prelude  *Prelude
	fileTags *TagMap

	read   uint64 // chunks consumed so far
	offset int64  // file offset of the next chunk
}

// Open opens a RAD file and parses its prelude. If fsys is nil the local
// file system is used.
func Open(fsys fs.FileSystem, path string) (*ChunkReader, error) {
	if fsys == nil {
		fsys = fs.Default
	}
	f, err := fsys.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	cr, err := newChunkReader(f, path)
	if err != nil {
		f.Close()
		return nil, err
	}
	return cr, nil
}

func newChunkReader(f fs.File, path string) (*ChunkReader, error) {
	br := bufio.NewReaderSize(f, 256*1024)
	cr := &ChunkReader{f: f, r: br, path: path}

	prelude, err := ReadPrelude(br)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	tagMap, err := readTagMap(br, prelude.FileTags)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cr.prelude = prelude
	cr.fileTags = tagMap

	var body bytes.Buffer
	if err := prelude.Write(&body); err != nil {
		return nil, err
	}
	if err := tagMap.WriteValues(&body); err != nil {
		return nil, err
	}
	cr.offset = int64(body.Len())
	return cr, nil
}

// Prelude returns the file's header. The returned value is owned by the
// reader; writers must Clone it.
func (cr *ChunkReader) Prelude() *Prelude { return cr.prelude }

// FileTags returns the decoded file-level tag values.
func (cr *ChunkReader) FileTags() *TagMap { return cr.fileTags }

// Path returns the path the reader was opened with.
func (cr *ChunkReader) Path() string { return cr.path }

// Offset returns the file offset of the next unread chunk. Useful for
// byte-granular progress reporting.
func (cr *ChunkReader) Offset() int64 { return cr.offset }

// Next returns the next chunk, or io.EOF once the declared chunk count
// has been consumed. A truncated or malformed chunk, or trailing bytes
// past the final chunk, yield a *CorruptError.
func (cr *ChunkReader) Next() (*Chunk, error) {
	if cr.read >= cr.prelude.NumChunks {
		if _, err := cr.r.Peek(1); err == nil {
			return nil, cr.corrupt(errTrailingData)
		}
		return nil, io.EOF
	}
	c, err := readChunk(cr.r)
	if err != nil {
		return nil, cr.corrupt(err)
	}
	cr.read++
	cr.offset += int64(c.NumBytes())
	return c, nil
}

func (cr *ChunkReader) corrupt(cause error) *CorruptError {
	return &CorruptError{Path: cr.path, Chunk: int(cr.read), Offset: cr.offset, cause: cause}
}

// Records returns a record-granular view over the remaining chunks.
// The iterator shares the reader's position; interleaving Next calls on
// both views is not supported.
func (cr *ChunkReader) Records() *RecordIterator {
	return &RecordIterator{cr: cr}
}

// Close closes the underlying file.
func (cr *ChunkReader) Close() error { return cr.f.Close() }

// RecordIterator decomposes a chunk stream into individual records, one
// chunk buffered at a time.
type RecordIterator struct {
	cr        *ChunkReader
	cur       cursor
	remaining uint32 // records left in the buffered chunk
	index     uint64 // records consumed across chunks
}

// Index returns how many records have been consumed so far.
func (it *RecordIterator) Index() uint64 { return it.index }

func (it *RecordIterator) fill() error {
	for it.remaining == 0 {
		c, err := it.cr.Next()
		if err != nil {
			return err
		}
		if c.NumRecords == 0 && len(c.Payload) > 0 {
			return it.cr.corrupt(fmt.Errorf("chunk declares 0 records but carries %d payload bytes", len(c.Payload)))
		}
		it.cur = cursor{buf: c.Payload}
		it.remaining = c.NumRecords
	}
	return nil
}

// Next decodes and returns the next record, or io.EOF at end of stream.
func (it *RecordIterator) Next() (*Record, error) {
	rec, _, err := it.next()
	return rec, err
}

// NextBytes returns the serialized bytes of the next record. The record
// is still fully decoded to validate it and find its extent; the returned
// slice aliases the current chunk buffer and is valid until the next call.
func (it *RecordIterator) NextBytes() ([]byte, error) {
	_, raw, err := it.next()
	return raw, err
}

func (it *RecordIterator) next() (*Record, []byte, error) {
	if err := it.fill(); err != nil {
		return nil, nil, err
	}
	start := it.cur.pos
	rec, err := decodeRecord(&it.cur, it.cr.prelude)
	if err != nil {
		return nil, nil, it.recordCorrupt(err)
	}
	it.remaining--
	if it.remaining == 0 && it.cur.remaining() > 0 {
		return nil, nil, it.recordCorrupt(fmt.Errorf("%d bytes left after final record in chunk", it.cur.remaining()))
	}
	it.index++
	return rec, it.cur.buf[start:it.cur.pos], nil
}

func (it *RecordIterator) recordCorrupt(cause error) *CorruptError {
	// The buffered chunk was already consumed from the reader, so the
	// reader's bookkeeping points one chunk past it.
	return &CorruptError{
		Path:   it.cr.path,
		Chunk:  int(it.cr.read) - 1,
		Offset: it.cr.offset,
		cause:  fmt.Errorf("record %d: %w", it.index, cause),
	}
}
