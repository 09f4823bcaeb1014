package sandbox

import "github.com/yousuf/tracebox/internal/stacktrace"

// GuestResult is the envelope the guest runtime returns from its exported
// "run" function: either a JSON-encoded result or an error report.
type GuestResult struct {
	Result string      `json:"result,omitempty"`
	Error  *GuestError `json:"error,omitempty"`
}

// GuestError describes a guest-side failure. Frames carry the structured
// stack at the point the error left the guest; Stack is the flattened text
// fallback for errors that lost their structured trace (for example after a
// value copy). Token identifies an error previously parked by the host when
// it crossed out of a nested layer; a guest that rethrows a nested error
// must echo the token so the host can keep chaining onto the same object.
type GuestError struct {
	Name    string             `json:"name,omitempty"`
	Message string             `json:"message,omitempty"`
	Frames  []stacktrace.Frame `json:"frames,omitempty"`
	Stack   string             `json:"stack,omitempty"`
	Token   string             `json:"token,omitempty"`
}

// nestedRunRequest is the payload the guest sends to the runNested host
// function.
type nestedRunRequest struct {
	Code string `json:"code"`
}

// nestedRunResponse is the host's reply to a nested run: the nested result,
// or an error report whose token the outer guest echoes on rethrow.
type nestedRunResponse struct {
	Result string      `json:"result,omitempty"`
	Error  *GuestError `json:"error,omitempty"`
}
