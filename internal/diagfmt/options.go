package diagfmt

import "emberc/internal/diag"

// Describer names the node and pin an anchor points at, for output that
// reads better than raw ids. It returns "" when the anchor is unknown.
type Describer func(diag.Anchor) string

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color bool
	// Width wraps messages to this many terminal columns, 0 disables it.
	Width     int
	ShowNotes bool
	ShowFixes bool
	// Summary appends an error/warning count line.
	Summary  bool
	Describe Describer
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	Max          int // caps the output, not the Bag
	IncludeNotes bool
	IncludeFixes bool
	Describe     Describer
}
