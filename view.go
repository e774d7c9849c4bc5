package radtk

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/pgzip"

	"github.com/COMBINE-lab/radtk/internal/fs"
	"github.com/COMBINE-lab/radtk/radfile"
)

// ViewOptions configures a render.
type ViewOptions struct {
	// Input is the RAD file to render.
	Input string
	// Output is the destination path; empty writes to stdout. A path
	// ending in ".gz" is gzip-compressed.
	Output string
	// NoHeader skips the header block and renders only the records.
	NoHeader bool

	// Writer overrides Output when non-nil (used by tests and callers
	// embedding the rendering elsewhere).
	Writer io.Writer

	FS     fs.FileSystem
	Logger *Logger
}

type tagDescJSON struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type tagValueJSON struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

type headerJSON struct {
	IsPaired    bool           `json:"is_paired"`
	RefCount    int            `json:"ref_count"`
	Refs        []string       `json:"refs"`
	NumChunks   uint64         `json:"num_chunks"`
	FileTagDesc []tagDescJSON  `json:"file_tag_desc"`
	ReadTagDesc []tagDescJSON  `json:"read_tag_desc"`
	AlnTagDesc  []tagDescJSON  `json:"aln_tag_desc"`
	FileTags    []tagValueJSON `json:"file_tags"`
}

type alignmentJSON struct {
	Ref   string         `json:"ref"`
	RefID uint32         `json:"ref_id"`
	Tags  []tagValueJSON `json:"tags,omitempty"`
}

type recordJSON struct {
	Index      uint64          `json:"index"`
	Tags       []tagValueJSON  `json:"tags"`
	Alignments []alignmentJSON `json:"alignments"`
}

// View renders the input RAD file as one JSON document: the header block
// (unless NoHeader), then every record in input order. Records are
// written incrementally, so arbitrarily large files render in bounded
// memory. Output is deterministic for a given input.
func View(opts ViewOptions) error {
	rt := newRuntime(opts.FS, opts.Logger, nil)

	cr, err := radfile.Open(rt.fsys, opts.Input)
	if err != nil {
		return err
	}
	defer cr.Close()

	out, closeOut, err := openViewOutput(rt.fsys, opts)
	if err != nil {
		return err
	}

	records, err := render(cr, out, opts.NoHeader)
	if err != nil {
		closeOut()
		rt.logger.LogView(opts.Input, records, err)
		return err
	}
	if err := closeOut(); err != nil {
		rt.logger.LogView(opts.Input, records, err)
		return err
	}
	rt.logger.LogView(opts.Input, records, nil)
	return nil
}

// openViewOutput resolves the destination writer. The returned close
// function flushes and closes whatever was opened.
func openViewOutput(fsys fs.FileSystem, opts ViewOptions) (io.Writer, func() error, error) {
	var sink io.Writer
	var closers []io.Closer

	switch {
	case opts.Writer != nil:
		sink = opts.Writer
	case opts.Output == "":
		sink = os.Stdout
	default:
		f, err := fsys.OpenFile(opts.Output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return nil, nil, err
		}
		sink = f
		closers = append(closers, f)
	}

	if opts.Writer == nil && strings.HasSuffix(opts.Output, ".gz") {
		gz := pgzip.NewWriter(sink)
		sink = gz
		closers = append([]io.Closer{gz}, closers...)
	}

	bw := bufio.NewWriterSize(sink, 64*1024)
	closeOut := func() error {
		err := bw.Flush()
		for _, c := range closers {
			if cerr := c.Close(); err == nil {
				err = cerr
			}
		}
		return err
	}
	return bw, closeOut, nil
}

// render streams the document to out and returns the record count.
func render(cr *radfile.ChunkReader, out io.Writer, noHeader bool) (uint64, error) {
	if _, err := io.WriteString(out, "{\n"); err != nil {
		return 0, err
	}
	if !noHeader {
		hdr := buildHeaderJSON(cr)
		b, err := json.Marshal(hdr)
		if err != nil {
			return 0, err
		}
		if _, err := fmt.Fprintf(out, "\"header\": %s,\n", b); err != nil {
			return 0, err
		}
	}
	if _, err := io.WriteString(out, "\"records\": [\n"); err != nil {
		return 0, err
	}

	prelude := cr.Prelude()
	records := cr.Records()
	var count uint64
	for {
		rec, err := records.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, err
		}
		rj := recordJSON{
			Index:      count,
			Tags:       tagValues(prelude.ReadTags, rec.Tags),
			Alignments: make([]alignmentJSON, 0, len(rec.Alignments)),
		}
		for _, a := range rec.Alignments {
			rj.Alignments = append(rj.Alignments, alignmentJSON{
				Ref:   prelude.RefNames[a.RefID],
				RefID: a.RefID,
				Tags:  tagValues(prelude.AlnTags, a.Tags),
			})
		}
		b, err := json.Marshal(rj)
		if err != nil {
			return count, err
		}
		if count > 0 {
			if _, err := io.WriteString(out, ",\n"); err != nil {
				return count, err
			}
		}
		if _, err := out.Write(b); err != nil {
			return count, err
		}
		count++
	}

	if _, err := io.WriteString(out, "\n]\n}\n"); err != nil {
		return count, err
	}
	return count, nil
}

func buildHeaderJSON(cr *radfile.ChunkReader) headerJSON {
	p := cr.Prelude()
	hdr := headerJSON{
		IsPaired:    p.IsPaired,
		RefCount:    len(p.RefNames),
		Refs:        p.RefNames,
		NumChunks:   p.NumChunks,
		FileTagDesc: tagDescs(p.FileTags),
		ReadTagDesc: tagDescs(p.ReadTags),
		AlnTagDesc:  tagDescs(p.AlnTags),
		FileTags:    tagValues(p.FileTags, cr.FileTags().Values()),
	}
	return hdr
}

func tagDescs(schema radfile.TagSchema) []tagDescJSON {
	out := make([]tagDescJSON, 0, len(schema))
	for _, td := range schema {
		out = append(out, tagDescJSON{Name: td.Name, Type: td.Type.String()})
	}
	return out
}

func tagValues(schema radfile.TagSchema, values []radfile.TagValue) []tagValueJSON {
	out := make([]tagValueJSON, 0, len(values))
	for i, v := range values {
		out = append(out, tagValueJSON{Name: schema[i].Name, Value: v.Interface()})
	}
	return out
}
