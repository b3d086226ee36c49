package a2a

import "encoding/json"

// ============================================================================
// JSON-RPC 2.0 ENVELOPE
// ============================================================================

// Request is a JSON-RPC 2.0 request. Metadata rides at the envelope level,
// outside params: it carries transport concerns (trace correlation) rather
// than method arguments.
type Request struct {
	JSONRPC  string           `json:"jsonrpc"`
	ID       any              `json:"id"`
	Method   string           `json:"method"`
	Params   json.RawMessage  `json:"params,omitempty"`
	Metadata *RequestMetadata `json:"metadata,omitempty"`
}

// RequestMetadata carries out-of-band correlation fields. Unknown fields
// are tolerated and ignored.
type RequestMetadata struct {
	ThreadID string `json:"thread_id,omitempty"`
}

// Response is a JSON-RPC 2.0 response. Exactly one of Result and Error is
// set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *RPCError) Error() string { return e.Message }

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Method names served and called by this module.
const (
	MethodMessageSend = "message/send"
	MethodTasksGet    = "tasks/get"
)
