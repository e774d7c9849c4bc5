package radtk

import (
	"fmt"
	"io"

	"github.com/COMBINE-lab/radtk/internal/fs"
	"github.com/COMBINE-lab/radtk/radfile"
)

// SplitOptions configures a split.
type SplitOptions struct {
	// Input is the RAD file to partition.
	Input string
	// OutputPrefix names the outputs: <prefix>_0, <prefix>_1, ...
	OutputPrefix string

	// Exactly one of NumFiles and RecordsPerFile must be positive.
	NumFiles       int
	RecordsPerFile int

	// ChunkRecords is the target record count per output chunk.
	// Non-positive selects radfile.DefaultChunkRecords.
	ChunkRecords int

	FS       fs.FileSystem
	Logger   *Logger
	Progress Progress
}

// outputName returns the deterministic name of the i-th output file.
func (o *SplitOptions) outputName(i int) string {
	return fmt.Sprintf("%s_%d", o.OutputPrefix, i)
}

// Split partitions the input's records into near-equal contiguous parts.
//
// A first streaming pass counts records from the chunk headers; the
// second pass assigns records to outputs in strict input order, each
// output holding per_file = ceil(total/N) records except the last, which
// takes the remainder. Records are re-chunked at ChunkRecords per chunk,
// independent of the input's chunk boundaries. If the input holds fewer
// records than the requested file count, fewer files are produced; empty
// files are never written. Returns the paths written, in index order.
func Split(opts SplitOptions) ([]string, error) {
	rt := newRuntime(opts.FS, opts.Logger, opts.Progress)

	if (opts.NumFiles > 0) == (opts.RecordsPerFile > 0) {
		return nil, fmt.Errorf("%w: exactly one of NumFiles and RecordsPerFile must be positive", ErrInvalidTarget)
	}

	total, err := countRecords(rt.fsys, opts.Input)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		rt.logger.Warn("input holds no records; nothing to split", "input", opts.Input)
		return nil, nil
	}

	perFile := uint64(opts.RecordsPerFile)
	if opts.NumFiles > 0 {
		perFile = ceilDiv(total, uint64(opts.NumFiles))
	}
	nFiles := int(ceilDiv(total, perFile))

	cr, err := radfile.Open(rt.fsys, opts.Input)
	if err != nil {
		return nil, err
	}
	defer cr.Close()
	records := cr.Records()

	rt.progress.Start(int64(total))
	defer rt.progress.Done()

	paths := make([]string, 0, nFiles)
	for i := 0; i < nFiles; i++ {
		share := perFile
		if i == nFiles-1 {
			share = total - perFile*uint64(nFiles-1)
		}
		path := opts.outputName(i)
		if err := writeShare(rt, cr, records, path, share, opts.ChunkRecords); err != nil {
			rt.logger.LogSplit(opts.OutputPrefix, 0, 0, err)
			return nil, err
		}
		paths = append(paths, path)
	}

	rt.logger.LogSplit(opts.OutputPrefix, nFiles, total, nil)
	return paths, nil
}

// writeShare streams exactly share records from the iterator into one
// output file, re-chunked at the target chunk size.
func writeShare(rt runtime, cr *radfile.ChunkReader, records *radfile.RecordIterator, path string, share uint64, chunkRecords int) error {
	w, err := radfile.Create(rt.fsys, path, cr.Prelude(), cr.FileTags())
	if err != nil {
		return err
	}
	builder := radfile.NewChunkBuilder(chunkRecords)
	for n := uint64(0); n < share; n++ {
		raw, err := records.NextBytes()
		if err != nil {
			if err == io.EOF {
				err = fmt.Errorf("input ended %d records early: %w", share-n, io.ErrUnexpectedEOF)
			}
			w.Abort()
			return err
		}
		builder.Add(raw)
		if builder.Full() {
			if err := builder.Flush(w); err != nil {
				w.Abort()
				return err
			}
		}
		rt.progress.Add(1)
	}
	if err := builder.Flush(w); err != nil {
		w.Abort()
		return err
	}
	return w.Finalize()
}

// countRecords sums the record counts declared by the input's chunk
// headers in one streaming pass.
func countRecords(fsys fs.FileSystem, path string) (uint64, error) {
	cr, err := radfile.Open(fsys, path)
	if err != nil {
		return 0, err
	}
	defer cr.Close()

	var total uint64
	for {
		c, err := cr.Next()
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return 0, err
		}
		total += uint64(c.NumRecords)
	}
}

func ceilDiv(a, b uint64) uint64 { return (a + b - 1) / b }
