package stacktrace

import "strings"

// BoundaryMarker is the line inserted between two chained trace segments.
const BoundaryMarker = "\n    at (<isolated boundary>)"

// Render flattens a trace tree to display text. There is no caching: every
// call re-walks the full tree. Traces are attached far more often than they
// are read, and an uncached render keeps reads honest about the tree they
// see, so this stays a full recomputation on purpose.
func Render(n Node) string {
	switch n := n.(type) {
	case Text:
		s := string(n)
		// Already-rendered continuation fragments start with indentation;
		// return them untouched so they are never trimmed twice.
		if strings.HasPrefix(s, "    ") {
			return s
		}
		// Drop the leading message line; callers print the message
		// themselves.
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			// No trace, just a message.
			return ""
		}
		return s[i:]
	case Captured:
		return n.Snap.Format()
	case Pair:
		return Render(n.Newer) + BoundaryMarker + Render(n.Older)
	default:
		return ""
	}
}
