// Command radtk manipulates RAD files: cat, split and view.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"code.cloudfoundry.org/bytefmt"

	"github.com/COMBINE-lab/radtk"
)

// overwrite at build time:
// -ldflags="-X 'main.Version=someversion'"
var Version = "dev"

const usage = `usage: radtk <command> [flags]

commands:
  cat    concatenate the records of compatible RAD files
  split  partition a RAD file into near-equal parts
  view   render a RAD file as JSON text

run 'radtk <command> -h' for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "cat":
		err = runCat(os.Args[2:])
	case "split":
		err = runSplit(os.Args[2:])
	case "view":
		err = runView(os.Args[2:])
	case "version", "-v", "--version":
		fmt.Println(Version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "radtk: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(quiet bool) *radtk.Logger {
	if quiet {
		return radtk.NoopLogger()
	}
	return radtk.NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// logInputSize logs a file's size in human-readable form, like the other
// sequencing tools around radtk do.
func logInputSize(logger *radtk.Logger, path string) {
	fi, err := os.Stat(path)
	if err != nil {
		logger.Warn("could not stat input", "input", path, "error", err)
		return
	}
	logger.Info("input file", "path", path, "size", bytefmt.ByteSize(uint64(fi.Size())))
}

func runCat(args []string) error {
	fs := flag.NewFlagSet("cat", flag.ExitOnError)
	inputs := fs.String("i", "", "','-separated list of input RAD files (required)")
	output := fs.String("o", "", "output RAD file (required)")
	quiet := fs.Bool("q", false, "suppress log output")
	fs.Parse(args)

	if *inputs == "" || *output == "" {
		fs.Usage()
		os.Exit(2)
	}
	logger := newLogger(*quiet)
	paths := strings.Split(*inputs, ",")
	for _, p := range paths {
		logInputSize(logger, p)
	}
	return radtk.Cat(radtk.CatOptions{
		Inputs:   paths,
		Output:   *output,
		Logger:   logger,
		Progress: newProgress(logger, *quiet, "bytes"),
	})
}

func runSplit(args []string) error {
	fs := flag.NewFlagSet("split", flag.ExitOnError)
	input := fs.String("i", "", "input RAD file (required)")
	prefix := fs.String("o", "", "output prefix; files are named <prefix>_0, <prefix>_1, ... (required)")
	numFiles := fs.Int("n", 0, "number of output files")
	perFile := fs.Int("r", 0, "records per output file (alternative to -n)")
	chunkRecords := fs.Int("chunk-records", 0, "records per output chunk (0 = default)")
	quiet := fs.Bool("q", false, "suppress log output and progress")
	fs.Parse(args)

	if *input == "" || *prefix == "" {
		fs.Usage()
		os.Exit(2)
	}
	logger := newLogger(*quiet)
	logInputSize(logger, *input)
	paths, err := radtk.Split(radtk.SplitOptions{
		Input:          *input,
		OutputPrefix:   *prefix,
		NumFiles:       *numFiles,
		RecordsPerFile: *perFile,
		ChunkRecords:   *chunkRecords,
		Logger:         logger,
		Progress:       newProgress(logger, *quiet, "records"),
	})
	if err != nil {
		return err
	}
	logger.Info("generated output RAD files", "count", len(paths))
	return nil
}

func runView(args []string) error {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	input := fs.String("i", "", "input RAD file (required)")
	output := fs.String("o", "", "output file; empty writes to stdout, '.gz' suffix compresses")
	noHeader := fs.Bool("no-header", false, "skip the header block; render records only")
	quiet := fs.Bool("q", false, "suppress log output")
	fs.Parse(args)

	if *input == "" {
		fs.Usage()
		os.Exit(2)
	}
	logger := newLogger(*quiet)
	if *output != "" {
		logInputSize(logger, *input)
	}
	return radtk.View(radtk.ViewOptions{
		Input:    *input,
		Output:   *output,
		NoHeader: *noHeader,
		Logger:   logger,
	})
}

// logProgress reports coarse progress through the logger: every ~10% of
// a known total, and a final summary on Done.
type logProgress struct {
	logger *radtk.Logger
	unit   string
	total  int64
	done   int64
	step   int64
	next   int64
}

func newProgress(logger *radtk.Logger, quiet bool, unit string) radtk.Progress {
	if quiet {
		return radtk.NopProgress{}
	}
	return &logProgress{logger: logger, unit: unit}
}

func (p *logProgress) Start(total int64) {
	p.total = total
	if total > 0 {
		p.step = total / 10
		if p.step == 0 {
			p.step = 1
		}
		p.next = p.step
	}
}

func (p *logProgress) Add(n int64) {
	p.done += n
	if p.total > 0 && p.done >= p.next {
		p.logger.Info("progress", p.unit, p.done, "total", p.total)
		for p.next <= p.done {
			p.next += p.step
		}
	}
}

func (p *logProgress) Done() {
	p.logger.Info("finished", p.unit, p.done)
}
