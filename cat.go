package radtk

import (
	"fmt"
	"io"

	"github.com/COMBINE-lab/radtk/internal/fs"
	"github.com/COMBINE-lab/radtk/radfile"
)

// CatOptions configures a concatenation.
type CatOptions struct {
	// Inputs are the RAD files to concatenate, in output order.
	Inputs []string
	// Output is the RAD file to write.
	Output string

	// FS, Logger and Progress are injected side-channels; nil selects
	// the local file system, a silent logger and no progress reporting.
	FS       fs.FileSystem
	Logger   *Logger
	Progress Progress
}

// Cat concatenates the input RAD files into one output file.
//
// All inputs are opened and their preludes checked for structural
// compatibility before the output is created, so an incompatibility
// writes nothing. Chunks are then forwarded verbatim in input order
// (no re-chunking) and the output's chunk count is patched at the end.
// A failure after the output is created leaves a partial file in place;
// callers must treat a returned error as "discard the output".
func Cat(opts CatOptions) error {
	rt := newRuntime(opts.FS, opts.Logger, opts.Progress)

	if len(opts.Inputs) == 0 {
		return ErrNoInputs
	}
	if len(opts.Inputs) == 1 {
		rt.logger.Warn("concatenating a single input; output will be an identical copy",
			"input", opts.Inputs[0], "output", opts.Output)
	}

	readers := make([]*radfile.ChunkReader, 0, len(opts.Inputs))
	defer func() {
		for _, r := range readers {
			r.Close()
		}
	}()

	var totalBytes int64
	for _, path := range opts.Inputs {
		cr, err := radfile.Open(rt.fsys, path)
		if err != nil {
			return err
		}
		readers = append(readers, cr)
		if fi, err := rt.fsys.Stat(path); err == nil {
			totalBytes += fi.Size()
		}
	}

	first := readers[0]
	for i, cr := range readers[1:] {
		if err := first.Prelude().CompatibleWith(cr.Prelude()); err != nil {
			return &IncompatibleError{
				Path:  opts.Inputs[i+1],
				First: opts.Inputs[0],
				cause: err,
			}
		}
	}
	rt.logger.Info("all inputs have compatible preludes", "inputs", len(readers))

	w, err := radfile.Create(rt.fsys, opts.Output, first.Prelude(), first.FileTags())
	if err != nil {
		return err
	}

	rt.progress.Start(totalBytes)
	defer rt.progress.Done()

	for _, cr := range readers {
		if err := forwardChunks(cr, w, rt.progress); err != nil {
			w.Abort()
			rt.logger.LogCat(opts.Output, len(readers), 0, err)
			return err
		}
		rt.logger.Info("forwarded record chunks",
			"input", cr.Path(), "output", opts.Output)
	}

	if err := w.Finalize(); err != nil {
		rt.logger.LogCat(opts.Output, len(readers), 0, err)
		return err
	}
	rt.logger.LogCat(opts.Output, len(readers), w.ChunksWritten(), nil)
	return nil
}

// forwardChunks copies a reader's remaining chunks to w verbatim.
func forwardChunks(cr *radfile.ChunkReader, w *radfile.Writer, progress Progress) error {
	for {
		c, err := cr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := w.WriteChunk(c); err != nil {
			return fmt.Errorf("forwarding chunks from %s: %w", cr.Path(), err)
		}
		progress.Add(int64(c.NumBytes()))
	}
}
