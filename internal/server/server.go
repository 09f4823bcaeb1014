package server

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/yousuf/tracebox/internal/sandbox"
	"github.com/yousuf/tracebox/internal/session"
	"github.com/yousuf/tracebox/internal/stackparse"
	"github.com/yousuf/tracebox/internal/stacktrace"
)

// ExecuteCodeArgs represents the arguments for the execute_code tool
type ExecuteCodeArgs struct {
	Code      string `json:"code" jsonschema:"Guest code to execute in the sandbox"`
	SourceMap string `json:"sourceMap,omitempty" jsonschema:"Optional source map used to remap guest stack frames to original sources"`
}

// RenderTraceArgs represents the arguments for the render_trace tool
type RenderTraceArgs struct {
	Stack     string `json:"stack" jsonschema:"Flattened textual stack trace to re-render"`
	SourceMap string `json:"sourceMap,omitempty" jsonschema:"Optional source map used to remap the parsed frames"`
}

// NewMcpServer creates and configures the MCP server
func NewMcpServer(sessionMgr *session.Manager) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "tracebox",
		Version: "1.0.0",
	}, &mcp.ServerOptions{
		Instructions: `
Sandboxed Code Execution with Chained Stack Traces

Tracebox runs guest code inside an isolated wasm sandbox. Guest code can run
further code in nested sandbox layers through the runNested host function.
When an error propagates out of one or more layers, its stack keeps the full
causal chain: the innermost trace first, then one "at (<isolated boundary>)"
marker per crossing, then each outer trace, newest to oldest.

Available Tools:
1. "execute_code" - Execute guest code; failures return the chained stack
2. "render_trace" - Re-render a flattened textual stack trace

Notes:
- The chained stack is rendered on demand from the traces captured at each
  boundary; it is never cached
- Pass a source map to remap bundled positions to original sources
- Execution timeout and nesting depth limit come from server configuration
`,
	})

	server.AddReceivingMiddleware(createSessionInjectionMiddleware(sessionMgr))
	server.AddReceivingMiddleware(createLoggingMiddleware())

	// Register execute_code tool
	mcp.AddTool(server, &mcp.Tool{
		Name: "execute_code",
		Description: `Execute guest code in a sandboxed environment.

The code runs in an isolated wasm layer. It may call runNested(code) to run
further code in a deeper isolation layer. If the code fails, the tool returns
the error's full stack: every isolation boundary the error crossed appears as
an "at (<isolated boundary>)" line between the trace segments captured on
each side, newest segment first.
`,
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ExecuteCodeArgs) (*mcp.CallToolResult, any, error) {
		sessionCtx, err := getSessionFromContext(ctx)
		if err != nil {
			return nil, nil, err
		}

		sb, err := sandbox.NewSandbox(ctx, sessionMgr.Config(), sessionCtx.Traces)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create sandbox: %w", err)
		}

		result, err := sb.ExecuteCode(args.Code, args.SourceMap)
		if err != nil {
			return nil, nil, fmt.Errorf("execution failed: %w", err)
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: result},
			},
		}, nil, nil
	})

	// Register render_trace tool
	mcp.AddTool(server, &mcp.Tool{
		Name:        "render_trace",
		Description: "Parse a flattened textual stack trace and re-render it as canonical frame lines, optionally remapping positions through a source map.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args RenderTraceArgs) (*mcp.CallToolResult, any, error) {
		frames := stackparse.ParseTrace(args.Stack)
		if len(frames) == 0 {
			return nil, nil, fmt.Errorf("no stack frames found in input")
		}

		if args.SourceMap != "" {
			mapped, err := stackparse.Remap(args.SourceMap, frames)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to remap trace: %w", err)
			}
			frames = mapped
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: stacktrace.Capture(frames).Format()},
			},
		}, nil, nil
	})

	return server
}
