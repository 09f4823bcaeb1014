package stackparse

import (
	"fmt"
	"log"

	gosourcemap "github.com/go-sourcemap/sourcemap"

	"github.com/yousuf/tracebox/internal/stacktrace"
)

// Remap maps frames through a source map so the trace points at the sources
// the guest author wrote instead of the bundled script. Frames the map cannot
// resolve are kept as-is.
func Remap(sourceMap string, frames []stacktrace.Frame) ([]stacktrace.Frame, error) {
	consumer, err := gosourcemap.Parse("", []byte(sourceMap))
	if err != nil {
		return nil, fmt.Errorf("failed to parse source map: %w", err)
	}

	mapped := make([]stacktrace.Frame, len(frames))
	for i, frame := range frames {
		mapped[i] = remapFrame(consumer, frame)
		if mapped[i] == frame && frame.Line > 0 && frame.ScriptName != "native" {
			log.Printf("Warning: no source map entry for %s:%d:%d",
				frame.ScriptName, frame.Line, frame.Column)
		}
	}
	return mapped, nil
}

// remapFrame maps a single frame to its original position. The source map
// consumer expects a 1-indexed line and a 0-indexed column.
func remapFrame(consumer *gosourcemap.Consumer, frame stacktrace.Frame) stacktrace.Frame {
	if frame.Line <= 0 || frame.ScriptName == "native" {
		return frame
	}

	file, functionName, line, col, ok := consumer.Source(frame.Line, frame.Column-1)
	if !ok || file == "" || line <= 0 {
		return frame
	}

	frame.ScriptName = file
	frame.Line = line
	frame.Column = col + 1 // back to 1-indexed
	if functionName != "" {
		frame.FunctionName = functionName
	}
	return frame
}
