package radfile

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/COMBINE-lab/radtk/internal/fs"
)

// Writer writes a RAD file: prelude, file-level tag values, then chunks.
// The prelude's chunk count is emitted as a placeholder and patched with
// the real count on Finalize, so callers need not know it up front.
type Writer struct {
	f    fs.File
	w    *bufio.Writer
	path string

	prelude   *Prelude
	countOff  int64
	chunks    uint64
	records   uint64
	finalized bool
}

// Create creates (or truncates) a RAD file at path and writes the given
// prelude and file-level tag values. The prelude is cloned; the caller's
// copy is not modified. If fsys is nil the local file system is used.
func Create(fsys fs.FileSystem, path string, p *Prelude, tags *TagMap) (*Writer, error) {
	if fsys == nil {
		fsys = fs.Default
	}
	f, err := fsys.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}
	w := &Writer{
		f:       f,
		w:       bufio.NewWriterSize(f, 256*1024),
		path:    path,
		prelude: p.Clone(),
	}
	w.prelude.NumChunks = 0
	w.countOff = w.prelude.numChunksOffset()
	if err := w.prelude.Write(w.w); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing prelude to %s: %w", path, err)
	}
	if err := tags.WriteValues(w.w); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing file tags to %s: %w", path, err)
	}
	return w, nil
}

// Path returns the output path.
func (w *Writer) Path() string { return w.path }

// WriteChunk appends one chunk verbatim.
func (w *Writer) WriteChunk(c *Chunk) error {
	if _, err := c.WriteTo(w.w); err != nil {
		return fmt.Errorf("writing chunk to %s: %w", w.path, err)
	}
	w.chunks++
	w.records += uint64(c.NumRecords)
	return nil
}

// ChunksWritten returns the number of chunks appended so far.
func (w *Writer) ChunksWritten() uint64 { return w.chunks }

// RecordsWritten returns the number of records appended so far.
func (w *Writer) RecordsWritten() uint64 { return w.records }

// Finalize flushes buffered chunks, patches the prelude's chunk count to
// the number actually written, syncs and closes the file. The Writer is
// unusable afterwards.
func (w *Writer) Finalize() error {
	if w.finalized {
		return os.ErrClosed
	}
	w.finalized = true
	if err := w.w.Flush(); err != nil {
		w.f.Close()
		return fmt.Errorf("flushing %s: %w", w.path, err)
	}
	if _, err := w.f.Seek(w.countOff, io.SeekStart); err != nil {
		w.f.Close()
		return fmt.Errorf("patching chunk count in %s: %w", w.path, err)
	}
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], w.chunks)
	if _, err := w.f.Write(scratch[:]); err != nil {
		w.f.Close()
		return fmt.Errorf("patching chunk count in %s: %w", w.path, err)
	}
	if err := w.f.Sync(); err != nil {
		w.f.Close()
		return fmt.Errorf("syncing %s: %w", w.path, err)
	}
	return w.f.Close()
}

// Abort closes the underlying file without finalizing. The partially
// written output is left in place; callers decide whether to keep it.
func (w *Writer) Abort() error {
	if w.finalized {
		return nil
	}
	w.finalized = true
	return w.f.Close()
}

// ChunkBuilder accumulates serialized records into an in-progress chunk
// and emits it once the target record count is reached. It is the
// re-chunking accumulator: output chunk boundaries are independent of the
// boundaries the records were read under.
type ChunkBuilder struct {
	target int
	buf    bytes.Buffer
	n      uint32
}

// DefaultChunkRecords is the default target record count per output chunk.
const DefaultChunkRecords = 4096

// NewChunkBuilder creates a builder that emits chunks of up to target
// records. A non-positive target falls back to DefaultChunkRecords.
func NewChunkBuilder(target int) *ChunkBuilder {
	if target <= 0 {
		target = DefaultChunkRecords
	}
	return &ChunkBuilder{target: target}
}

// Add appends one serialized record to the in-progress chunk.
func (b *ChunkBuilder) Add(raw []byte) {
	b.buf.Write(raw)
	b.n++
}

// Len returns the record count of the in-progress chunk.
func (b *ChunkBuilder) Len() int { return int(b.n) }

// Full reports whether the in-progress chunk has reached its target.
func (b *ChunkBuilder) Full() bool { return int(b.n) >= b.target }

// Flush writes the in-progress chunk to w and resets the builder. An
// empty builder flushes nothing: chunks are never empty.
func (b *ChunkBuilder) Flush(w *Writer) error {
	if b.n == 0 {
		return nil
	}
	c := &Chunk{NumRecords: b.n, Payload: b.buf.Bytes()}
	if err := w.WriteChunk(c); err != nil {
		return err
	}
	b.buf.Reset()
	b.n = 0
	return nil
}
