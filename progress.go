package radtk

// Progress is an injected observer for long-running operations. The core
// components report byte counts through it and never touch a terminal;
// presentation is the caller's concern.
type Progress interface {
	// Start announces the expected total, or a negative value when the
	// total is unknown.
	Start(total int64)
	// Add reports n more units processed.
	Add(n int64)
	// Done marks the operation finished (successfully or not).
	Done()
}

// NopProgress is a Progress that does nothing.
type NopProgress struct{}

func (NopProgress) Start(int64) {}
func (NopProgress) Add(int64)   {}
func (NopProgress) Done()       {}
