package radtk

import "github.com/COMBINE-lab/radtk/internal/fs"

// runtime bundles the injected side-channels shared by every operation:
// file system access, logging and progress reporting. Zero values select
// safe defaults (local FS, silent logger, no progress).
type runtime struct {
	fsys     fs.FileSystem
	logger   *Logger
	progress Progress
}

func (r runtime) normalize() runtime {
	if r.fsys == nil {
		r.fsys = fs.Default
	}
	if r.logger == nil {
		r.logger = NoopLogger()
	}
	if r.progress == nil {
		r.progress = NopProgress{}
	}
	return r
}

func newRuntime(fsys fs.FileSystem, logger *Logger, progress Progress) runtime {
	return runtime{fsys: fsys, logger: logger, progress: progress}.normalize()
}
