package sandbox

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/yousuf/tracebox/internal/errobj"
	"github.com/yousuf/tracebox/internal/stacktrace"
)

// testSandbox builds a sandbox whose guest calls are scripted by tests
// instead of a wasm module.
func testSandbox(maxDepth int) *Sandbox {
	return &Sandbox{
		ctx:      context.Background(),
		traces:   stacktrace.NewRegistry(),
		maxDepth: maxDepth,
		timeout:  time.Second,
		pending:  make(map[string]*errobj.Object),
	}
}

func TestExecuteCodeSuccess(t *testing.T) {
	sb := testSandbox(2)
	sb.call = func(code string) (*GuestResult, error) {
		return &GuestResult{Result: `{"ok":true}`}, nil
	}

	result, err := sb.ExecuteCode("run()", "")
	if err != nil {
		t.Fatalf("ExecuteCode failed: %v", err)
	}
	if result != `{"ok":true}` {
		t.Errorf("result = %q; want {\"ok\":true}", result)
	}
}

func TestExecuteCodeSingleLayerFailure(t *testing.T) {
	sb := testSandbox(2)
	sb.call = func(code string) (*GuestResult, error) {
		return &GuestResult{Error: &GuestError{
			Name:    "Error",
			Message: "boom",
			Frames:  []stacktrace.Frame{{ScriptName: "a.js", FunctionName: "f", Line: 3, Column: 7}},
		}}, nil
	}

	_, err := sb.ExecuteCode("run()", "")
	if err == nil {
		t.Fatal("ExecuteCode succeeded on guest failure")
	}
	want := "Error: boom\n    at f (a.js:3:7)"
	if !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q; want it to contain %q", err, want)
	}
	if strings.Contains(err.Error(), stacktrace.BoundaryMarker) {
		t.Errorf("single crossing produced a boundary marker: %q", err)
	}
}

func TestNestedFailureChainsAcrossLayers(t *testing.T) {
	sb := testSandbox(3)

	innerFrames := []stacktrace.Frame{{ScriptName: "inner.js", FunctionName: "thrower", Line: 9, Column: 5}}
	outerFrames := []stacktrace.Frame{{ScriptName: "outer.js", FunctionName: "rethrow", Line: 2, Column: 1}}

	sb.call = func(code string) (*GuestResult, error) {
		switch code {
		case "outer":
			// The outer guest runs the inner layer through the host, then
			// rethrows the nested error, echoing its token.
			resp := sb.handleNestedRun("inner")
			if resp.Error == nil {
				t.Fatal("nested run unexpectedly succeeded")
			}
			return &GuestResult{Error: &GuestError{
				Name:    resp.Error.Name,
				Message: resp.Error.Message,
				Frames:  outerFrames,
				Token:   resp.Error.Token,
			}}, nil
		case "inner":
			return &GuestResult{Error: &GuestError{
				Name:    "TypeError",
				Message: "x is not a function",
				Frames:  innerFrames,
			}}, nil
		default:
			return nil, fmt.Errorf("unexpected code %q", code)
		}
	}

	_, err := sb.ExecuteCode("outer", "")
	if err == nil {
		t.Fatal("ExecuteCode succeeded on nested failure")
	}

	want := "TypeError: x is not a function" +
		stacktrace.Capture(outerFrames).Format() +
		stacktrace.BoundaryMarker +
		stacktrace.Capture(innerFrames).Format()
	if !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q; want it to contain %q", err, want)
	}
}

func TestNestedTextOnlyStackBecomesOlderSegment(t *testing.T) {
	sb := testSandbox(3)

	outerFrames := []stacktrace.Frame{{ScriptName: "outer.js", FunctionName: "rethrow", Line: 2, Column: 1}}
	flattened := "TypeError: x is not a function\n    at foo:1:1"

	sb.call = func(code string) (*GuestResult, error) {
		switch code {
		case "outer":
			resp := sb.handleNestedRun("inner")
			return &GuestResult{Error: &GuestError{
				Name:    resp.Error.Name,
				Message: resp.Error.Message,
				Frames:  outerFrames,
				Token:   resp.Error.Token,
			}}, nil
		case "inner":
			// The inner layer lost its structured trace; only flattened
			// text survived.
			return &GuestResult{Error: &GuestError{
				Name:    "TypeError",
				Message: "x is not a function",
				Stack:   flattened,
			}}, nil
		default:
			return nil, fmt.Errorf("unexpected code %q", code)
		}
	}

	_, err := sb.ExecuteCode("outer", "")
	if err == nil {
		t.Fatal("ExecuteCode succeeded on nested failure")
	}

	want := stacktrace.Capture(outerFrames).Format() +
		stacktrace.BoundaryMarker +
		"\n    at foo:1:1"
	if !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q; want it to contain %q", err, want)
	}
}

func TestThreeLayersProduceTwoMarkers(t *testing.T) {
	sb := testSandbox(4)

	frames := func(script string) []stacktrace.Frame {
		return []stacktrace.Frame{{ScriptName: script, FunctionName: "f", Line: 1, Column: 1}}
	}

	sb.call = func(code string) (*GuestResult, error) {
		switch code {
		case "layer0", "layer1":
			next := "layer1"
			if code == "layer1" {
				next = "layer2"
			}
			resp := sb.handleNestedRun(next)
			return &GuestResult{Error: &GuestError{
				Name:    resp.Error.Name,
				Message: resp.Error.Message,
				Frames:  frames(code + ".js"),
				Token:   resp.Error.Token,
			}}, nil
		case "layer2":
			return &GuestResult{Error: &GuestError{
				Name:    "Error",
				Message: "boom",
				Frames:  frames("layer2.js"),
			}}, nil
		default:
			return nil, fmt.Errorf("unexpected code %q", code)
		}
	}

	_, err := sb.ExecuteCode("layer0", "")
	if err == nil {
		t.Fatal("ExecuteCode succeeded on nested failure")
	}

	if n := strings.Count(err.Error(), stacktrace.BoundaryMarker); n != 2 {
		t.Errorf("got %d boundary markers for 3 crossings, want 2:\n%s", n, err)
	}
	// Most recent layer first.
	out := err.Error()
	if strings.Index(out, "layer0.js") > strings.Index(out, "layer2.js") {
		t.Errorf("layers rendered oldest-first:\n%s", out)
	}
}

func TestNestedDepthLimit(t *testing.T) {
	sb := testSandbox(1)
	sb.call = func(code string) (*GuestResult, error) {
		t.Fatal("guest should not run past the depth limit")
		return nil, nil
	}

	resp := sb.handleNestedRun("inner")
	if resp.Error == nil {
		t.Fatal("nested run past depth limit succeeded")
	}
	if resp.Error.Name != "RangeError" {
		t.Errorf("error name = %q; want RangeError", resp.Error.Name)
	}
}

func TestTakePendingConsumesToken(t *testing.T) {
	sb := testSandbox(2)
	sb.call = func(code string) (*GuestResult, error) {
		return &GuestResult{Error: &GuestError{Name: "Error", Message: "boom"}}, nil
	}

	resp := sb.handleNestedRun("inner")
	if resp.Error == nil || resp.Error.Token == "" {
		t.Fatalf("expected parked error with token, got %+v", resp)
	}

	if got := sb.takePending(resp.Error.Token); got == nil {
		t.Fatal("takePending did not find the parked error")
	}
	if got := sb.takePending(resp.Error.Token); got != nil {
		t.Fatal("token usable twice")
	}
	if got := sb.takePending(""); got != nil {
		t.Fatal("empty token resolved to an object")
	}
}
