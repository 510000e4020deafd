package diag

import "fmt"

// Anchor locates a diagnostic in a script graph. Node and Pin are ids
// local to the graph; zero means absent.
type Anchor struct {
	Graph string
	Node  uint32
	Pin   uint32
}

// IsZero reports an anchor that points nowhere.
func (a Anchor) IsZero() bool { return a.Node == 0 && a.Pin == 0 }

func (a Anchor) String() string {
	switch {
	case a.Node == 0:
		return a.Graph
	case a.Pin == 0:
		return fmt.Sprintf("%s#%d", a.Graph, a.Node)
	}
	return fmt.Sprintf("%s#%d:%d", a.Graph, a.Node, a.Pin)
}

type Note struct {
	Anchor Anchor
	Msg    string
}

// Fix is a suggested manual correction shown next to the diagnostic.
type Fix struct {
	Title string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  Anchor
	Notes    []Note
	Fixes    []Fix
}
