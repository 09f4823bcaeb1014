package sandbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	extism "github.com/extism/go-sdk"

	"github.com/yousuf/tracebox/internal/config"
	"github.com/yousuf/tracebox/internal/errobj"
	"github.com/yousuf/tracebox/internal/stackparse"
	"github.com/yousuf/tracebox/internal/stacktrace"
)

// Sandbox provides a WebAssembly execution environment for guest code. Each
// execution layer is an isolation boundary: when a guest error crosses out of
// a layer, the sandbox chains the trace captured on that side onto the error
// object, so the final stack shows every layer it travelled through.
//
// A Sandbox executes synchronously on one goroutine; only the parked-error
// table is shared with host-function callbacks and guarded.
type Sandbox struct {
	ctx          context.Context
	manifest     extism.Manifest
	pluginConfig extism.PluginConfig
	traces       *stacktrace.Registry
	maxDepth     int
	timeout      time.Duration

	// call runs one guest invocation. Production wires callPlugin; tests
	// substitute a scripted guest.
	call func(code string) (*GuestResult, error)

	// depth is the current nesting layer, maintained around nested runs.
	depth int

	mu      sync.Mutex
	pending map[string]*errobj.Object
	seq     int
}

// NewSandbox creates a new sandbox instance backed by the guest runtime
// module at cfg.WasmPath.
func NewSandbox(ctx context.Context, cfg *config.Config, traces *stacktrace.Registry) (*Sandbox, error) {
	if _, err := os.Stat(cfg.WasmPath); err != nil {
		return nil, fmt.Errorf("guest runtime module not found: %w", err)
	}

	sb := &Sandbox{
		ctx: ctx,
		manifest: extism.Manifest{
			Wasm: []extism.Wasm{
				extism.WasmFile{
					Path: cfg.WasmPath,
				},
			},
		},
		pluginConfig: extism.PluginConfig{
			EnableWasi: true,
		},
		traces:   traces,
		maxDepth: cfg.MaxNestingDepth,
		timeout:  time.Duration(cfg.ExecTimeoutSeconds) * time.Second,
		pending:  make(map[string]*errobj.Object),
	}
	sb.call = sb.callPlugin
	return sb, nil
}

// ExecuteCode runs guest code at the top isolation layer. On guest failure
// the returned error carries the full chained stack, read through the error
// object's stack accessor. sourceMap, when non-empty, remaps guest frames to
// original sources before they are captured.
func (s *Sandbox) ExecuteCode(code, sourceMap string) (string, error) {
	out, err := s.call(code)
	if err != nil {
		return "", err
	}
	if out.Error == nil {
		return out.Result, nil
	}

	errObj := s.liftFailure(out.Error, sourceMap)
	if stack, ok := stacktrace.RenderedStack(errObj); ok {
		return "", fmt.Errorf("guest execution failed\n%s", stack)
	}
	msg, _ := errObj.Get("message")
	return "", fmt.Errorf("guest execution failed: %s: %s",
		errObj.ConstructorName(), errobj.ToText(msg))
}

// liftFailure turns a guest error report into an error object and records
// the boundary crossing. A token resumes the object parked when the error
// left a nested layer; otherwise a fresh object is built. Structured frames
// are chained; a text-only stack is kept as a plain property for the next
// boundary to pick up as an already-flattened trace.
func (s *Sandbox) liftFailure(ge *GuestError, sourceMap string) *errobj.Object {
	errObj := s.takePending(ge.Token)
	if errObj == nil {
		errObj = errobj.NewError(ge.Name, ge.Message)
	}

	frames := ge.Frames
	if sourceMap != "" && len(frames) > 0 {
		mapped, err := stackparse.Remap(sourceMap, frames)
		if err != nil {
			log.Printf("Failed to remap guest frames: %v", err)
		} else {
			frames = mapped
		}
	}

	if len(frames) > 0 {
		s.traces.Chain(errObj, stacktrace.Capture(frames))
	} else if ge.Stack != "" && !s.traces.Seen(errObj) {
		errObj.Set("stack", ge.Stack)
	}
	return errObj
}

// handleNestedRun executes one nested layer on behalf of the runNested host
// function and translates the outcome into the guest-facing response.
func (s *Sandbox) handleNestedRun(code string) *nestedRunResponse {
	if s.depth+1 >= s.maxDepth {
		return &nestedRunResponse{
			Error: &GuestError{
				Name:    "RangeError",
				Message: fmt.Sprintf("nesting depth limit of %d exceeded", s.maxDepth),
			},
		}
	}

	s.depth++
	out, err := s.call(code)
	s.depth--

	if err != nil {
		return &nestedRunResponse{
			Error: &GuestError{
				Name:    "Error",
				Message: err.Error(),
			},
		}
	}
	if out.Error == nil {
		return &nestedRunResponse{Result: out.Result}
	}

	// The error is crossing out of the nested layer: chain its trace now and
	// park the object so the next layer's rethrow resumes the same chain.
	errObj := s.liftFailure(out.Error, "")
	token := s.park(errObj)
	msg, _ := errObj.Get("message")
	return &nestedRunResponse{
		Error: &GuestError{
			Name:    errObj.ConstructorName(),
			Message: errobj.ToText(msg),
			Token:   token,
		},
	}
}

// park stores an in-flight error object and returns the token the outer
// guest must echo to resume it.
func (s *Sandbox) park(errObj *errobj.Object) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	token := strconv.Itoa(s.seq)
	s.pending[token] = errObj
	return token
}

// takePending resumes a parked error object, removing it from the table.
func (s *Sandbox) takePending(token string) *errobj.Object {
	if token == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	errObj := s.pending[token]
	delete(s.pending, token)
	return errObj
}

// callPlugin runs one guest invocation in a fresh plugin instance. Each
// layer gets its own instance so nested runs never re-enter a running
// module, and the per-call context bounds execution time.
func (s *Sandbox) callPlugin(code string) (*GuestResult, error) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	hostFunctions := []extism.HostFunction{
		createRunNestedHostFunc(s),
	}

	plugin, err := extism.NewPlugin(ctx, s.manifest, s.pluginConfig, hostFunctions)
	if err != nil {
		return nil, fmt.Errorf("failed to create plugin: %w", err)
	}
	defer plugin.Close(ctx)

	exit, output, err := plugin.Call("run", []byte(code))
	if err != nil {
		return nil, fmt.Errorf("plugin execution failed: %w", err)
	}
	if exit != 0 {
		return nil, fmt.Errorf("plugin exited with code %d", exit)
	}

	var result GuestResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal output: %w", err)
	}
	return &result, nil
}
