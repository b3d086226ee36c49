package a2a

import "fmt"

// TransportError is an HTTP-level failure: a non-200 status or a failed
// connection. It terminates the caller's current operation; there is no
// automatic retry.
type TransportError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport error: %v", e.Err)
	}
	body := e.Body
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("transport error: HTTP %d: %s", e.StatusCode, body)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError is a well-formed HTTP response that does not carry the
// expected A2A shape: an error object, or a missing result.
type ProtocolError struct {
	Message string
	RPC     *RPCError
}

func (e *ProtocolError) Error() string {
	if e.RPC != nil {
		return fmt.Sprintf("protocol error: %s", e.RPC.Message)
	}
	return fmt.Sprintf("protocol error: %s", e.Message)
}
