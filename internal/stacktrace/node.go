package stacktrace

// Node is one segment of a chained trace. It is a closed union: a trace
// flattened to plain text, a captured snapshot, or a pair of segments from
// two boundary crossings. Nodes are immutable; chaining allocates a new Pair
// around the existing node instead of modifying it.
type Node interface {
	node()
}

// Text is a trace that was flattened to plain text before it reached this
// package, typically by a cross-boundary copy of the error object.
type Text string

// Captured wraps a snapshot recorded at a single boundary crossing.
type Captured struct {
	Snap *Snapshot
}

// Pair chains two trace segments. Newer is always the most recently captured
// side; rendering always emits newer before older.
type Pair struct {
	Newer Node
	Older Node
}

func (Text) node()     {}
func (Captured) node() {}
func (Pair) node()     {}
