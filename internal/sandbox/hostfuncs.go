package sandbox

import (
	"context"
	"encoding/json"

	extism "github.com/extism/go-sdk"
)

// createRunNestedHostFunc creates the host function guests call to execute
// code in a nested isolation layer.
func createRunNestedHostFunc(sb *Sandbox) extism.HostFunction {
	return extism.NewHostFunctionWithStack(
		"runNested",
		func(ctx context.Context, plugin *extism.CurrentPlugin, stack []uint64) {
			offset := stack[0]
			inputData, err := plugin.ReadBytes(offset)
			if err != nil {
				plugin.Logf(extism.LogLevelError, "Failed to read input: %v", err)
				stack[0] = 0
				return
			}

			var req nestedRunRequest
			if err := json.Unmarshal(inputData, &req); err != nil {
				plugin.Logf(extism.LogLevelError, "Failed to parse nested run request: %v", err)
				writeNestedResponse(plugin, stack, &nestedRunResponse{
					Error: &GuestError{
						Name:    "SyntaxError",
						Message: "invalid nested run request",
					},
				})
				return
			}

			plugin.Logf(extism.LogLevelInfo, "Running nested layer at depth %d", sb.depth+1)

			writeNestedResponse(plugin, stack, sb.handleNestedRun(req.Code))
		},
		[]extism.ValueType{extism.ValueTypeI64}, // input: offset to nested run request JSON
		[]extism.ValueType{extism.ValueTypeI64}, // output: offset to response JSON
	)
}

// writeNestedResponse marshals the response into plugin memory and places the
// offset on the return stack.
func writeNestedResponse(plugin *extism.CurrentPlugin, stack []uint64, resp *nestedRunResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		plugin.Logf(extism.LogLevelError, "Failed to marshal nested run response: %v", err)
		stack[0] = 0
		return
	}

	offset, err := plugin.WriteBytes(data)
	if err != nil {
		plugin.Logf(extism.LogLevelError, "Failed to write response: %v", err)
		stack[0] = 0
		return
	}
	stack[0] = offset
}
