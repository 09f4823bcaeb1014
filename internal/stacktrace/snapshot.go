package stacktrace

import (
	"fmt"
	"strings"
)

// Snapshot is an immutable capture of one guest call stack, innermost frame
// first. The frames are copied at capture time and never aliased afterwards.
type Snapshot struct {
	frames []Frame
}

// Capture copies frames out of a transient representation into an owned
// Snapshot. It must be called synchronously, while the frames are still
// valid; the transient slice can be reused or dropped afterwards.
func Capture(frames []Frame) *Snapshot {
	owned := make([]Frame, len(frames))
	copy(owned, frames)
	return &Snapshot{frames: owned}
}

// FrameCount returns the number of captured frames.
func (s *Snapshot) FrameCount() int {
	return len(s.frames)
}

// Format renders the snapshot as display text, one line per frame, each
// starting with "\n    at ". Formatting is pure: identical snapshots always
// format identically.
func (s *Snapshot) Format() string {
	var b strings.Builder
	for _, f := range s.frames {
		if f.IsEval {
			if f.ScriptID == NoScriptID {
				fmt.Fprintf(&b, "\n    at [eval]:%d:%d", f.Line, f.Column)
			} else {
				// The unbalanced "(" matches what guest runtimes emit for
				// eval frames with a backing script; consumers depend on it.
				fmt.Fprintf(&b, "\n    at [eval] (%s:%d:%d", f.ScriptName, f.Line, f.Column)
			}
		} else if f.FunctionName == "" {
			fmt.Fprintf(&b, "\n    at %s:%d:%d", f.ScriptName, f.Line, f.Column)
		} else {
			fmt.Fprintf(&b, "\n    at %s (%s:%d:%d)", f.FunctionName, f.ScriptName, f.Line, f.Column)
		}
	}
	return b.String()
}
