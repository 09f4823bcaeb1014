package stackparse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/yousuf/tracebox/internal/stacktrace"
)

// textScriptID marks an eval frame whose backing script is named in the text
// but whose numeric id is not recoverable from it. Any non-zero value keeps
// the frame formatting as "eval with script".
const textScriptID = -1

var (
	evalBarePattern   = regexp.MustCompile(`^at\s+\[eval\]:(\d+):(\d+)$`)
	evalScriptPattern = regexp.MustCompile(`^at\s+\[eval\]\s+\((.+?):(\d+):(\d+)\)?$`)
	nativePattern     = regexp.MustCompile(`^at\s+(.+?)\s+\(native\)$`)
	namedPattern      = regexp.MustCompile(`^at\s+(.+?)\s+\((.+?):(\d+):(\d+)\)$`)
	barePattern       = regexp.MustCompile(`^(?:at\s+)?(.+?):(\d+):(\d+)$`)
)

// ParseTrace parses a flattened textual stack trace into frames, skipping
// lines it cannot interpret (including the leading message line).
func ParseTrace(trace string) []stacktrace.Frame {
	lines := strings.Split(trace, "\n")
	frames := make([]stacktrace.Frame, 0, len(lines))

	for _, line := range lines {
		if frame, ok := ParseLine(line); ok {
			frames = append(frames, frame)
		}
	}
	return frames
}

// ParseLine parses a single stack trace line. Handled shapes:
//   - at functionName (file:line:column)
//   - at file:line:column
//   - at [eval]:line:column
//   - at [eval] (file:line:column
//   - at functionName (native)
func ParseLine(line string) (stacktrace.Frame, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return stacktrace.Frame{}, false
	}

	if m := evalBarePattern.FindStringSubmatch(trimmed); m != nil {
		lineNum, _ := strconv.Atoi(m[1])
		colNum, _ := strconv.Atoi(m[2])
		return stacktrace.Frame{
			IsEval: true,
			Line:   lineNum,
			Column: colNum,
		}, true
	}

	if m := evalScriptPattern.FindStringSubmatch(trimmed); m != nil {
		lineNum, _ := strconv.Atoi(m[2])
		colNum, _ := strconv.Atoi(m[3])
		return stacktrace.Frame{
			ScriptName: m[1],
			IsEval:     true,
			ScriptID:   textScriptID,
			Line:       lineNum,
			Column:     colNum,
		}, true
	}

	if m := nativePattern.FindStringSubmatch(trimmed); m != nil {
		return stacktrace.Frame{
			FunctionName: m[1],
			ScriptName:   "native",
		}, true
	}

	if m := namedPattern.FindStringSubmatch(trimmed); m != nil {
		lineNum, _ := strconv.Atoi(m[3])
		colNum, _ := strconv.Atoi(m[4])
		return stacktrace.Frame{
			FunctionName: m[1],
			ScriptName:   m[2],
			Line:         lineNum,
			Column:       colNum,
		}, true
	}

	if m := barePattern.FindStringSubmatch(trimmed); m != nil {
		lineNum, _ := strconv.Atoi(m[2])
		colNum, _ := strconv.Atoi(m[3])
		return stacktrace.Frame{
			ScriptName: m[1],
			Line:       lineNum,
			Column:     colNum,
		}, true
	}

	return stacktrace.Frame{}, false
}
