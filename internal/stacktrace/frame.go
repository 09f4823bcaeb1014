package stacktrace

// NoScriptID marks a frame whose script has no id. Real script ids assigned
// by the guest runtime start at 1.
const NoScriptID = 0

// Frame is one call-stack entry as reported by the guest runtime.
type Frame struct {
	ScriptName   string `json:"scriptName,omitempty"`
	FunctionName string `json:"functionName,omitempty"`
	Line         int    `json:"line"`
	Column       int    `json:"column"`
	IsEval       bool   `json:"isEval,omitempty"`
	ScriptID     int    `json:"scriptId,omitempty"`
}
