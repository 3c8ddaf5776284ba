package core

import (
	"fmt"
)

// TransportError is a network, timeout or non-throttling HTTP failure talking to an upstream.
type TransportError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Cause      error
}

func (e *TransportError) Error() string {
	switch {
	case e.Cause != nil && e.StatusCode != 0:
		return fmt.Sprintf("transport: %s: HTTP %d: %v", e.URL, e.StatusCode, e.Cause)
	case e.Cause != nil:
		return fmt.Sprintf("transport: %s: %v", e.URL, e.Cause)
	default:
		return fmt.Sprintf("transport: %s: HTTP %d", e.URL, e.StatusCode)
	}
}

func (e *TransportError) Unwrap() error { return e.Cause }

// UpstreamDataError is a response whose shape could not be decoded.
type UpstreamDataError struct {
	Source string
	Cause  error
}

func (e *UpstreamDataError) Error() string {
	return fmt.Sprintf("%s: unexpected response: %v", e.Source, e.Cause)
}

func (e *UpstreamDataError) Unwrap() error { return e.Cause }

// ResolutionFailure means a multi-hop lookup could not find an intermediate
// identifier. Message is meant for the end user.
type ResolutionFailure struct {
	Hop     string
	Subject string
	Message string
}

func (e *ResolutionFailure) Error() string {
	return e.Message
}

// ToolExecutionError wraps any failure raised while running a capability.
type ToolExecutionError struct {
	Tool  string
	Cause error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("Error executing %s: %v", e.Tool, e.Cause)
}

func (e *ToolExecutionError) Unwrap() error { return e.Cause }
