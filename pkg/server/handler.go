package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/agentwire/crosstalk/pkg/a2a"
	"github.com/agentwire/crosstalk/pkg/session"
)

func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.sendError(w, nil, a2a.CodeParseError, "Failed to read request body")
		return
	}
	defer r.Body.Close()

	var rpcReq a2a.Request
	if err := json.Unmarshal(body, &rpcReq); err != nil {
		s.sendError(w, nil, a2a.CodeParseError, "Invalid JSON")
		return
	}

	if rpcReq.JSONRPC != "2.0" {
		s.sendError(w, rpcReq.ID, a2a.CodeInvalidRequest, "Invalid JSON-RPC version")
		return
	}

	s.logger.Debug("JSON-RPC request",
		"agent", s.agent.Name(),
		"method", rpcReq.Method,
		"id", rpcReq.ID)

	result, rpcErr := s.handleMethod(r.Context(), rpcReq.Method, rpcReq.Params)
	if rpcErr != nil {
		s.sendError(w, rpcReq.ID, rpcErr.Code, rpcErr.Message)
		return
	}

	s.sendResult(w, rpcReq.ID, result)
}

func (s *Server) handleMethod(ctx context.Context, method string, params json.RawMessage) (interface{}, *a2a.RPCError) {
	switch method {
	case a2a.MethodMessageSend:
		return s.handleMessageSend(ctx, params)
	case a2a.MethodTasksGet:
		return s.handleTasksGet(ctx, params)
	default:
		return nil, &a2a.RPCError{Code: a2a.CodeMethodNotFound, Message: "method not found: " + method}
	}
}

func (s *Server) handleMessageSend(ctx context.Context, params json.RawMessage) (interface{}, *a2a.RPCError) {
	var sendParams a2a.MessageSendParams
	if err := json.Unmarshal(params, &sendParams); err != nil {
		return nil, &a2a.RPCError{Code: a2a.CodeInvalidParams, Message: "invalid message/send params: " + err.Error()}
	}
	if len(sendParams.Message.Parts) == 0 {
		return nil, &a2a.RPCError{Code: a2a.CodeInvalidParams, Message: "message has no parts"}
	}

	task, err := s.agent.HandleMessage(ctx, sendParams.Message)
	if err != nil {
		s.logger.Error("Agent failed to handle message",
			"agent", s.agent.Name(),
			"error", err)
		return nil, &a2a.RPCError{Code: a2a.CodeInternalError, Message: err.Error()}
	}

	return task, nil
}

func (s *Server) handleTasksGet(ctx context.Context, params json.RawMessage) (interface{}, *a2a.RPCError) {
	var queryParams a2a.TaskQueryParams
	if err := json.Unmarshal(params, &queryParams); err != nil {
		return nil, &a2a.RPCError{Code: a2a.CodeInvalidParams, Message: "invalid tasks/get params: " + err.Error()}
	}
	if queryParams.ID == "" {
		return nil, &a2a.RPCError{Code: a2a.CodeInvalidParams, Message: "task id is required"}
	}

	task, err := s.store.Task(queryParams.ID)
	if err != nil {
		if errors.Is(err, session.ErrTaskNotFound) {
			return nil, &a2a.RPCError{Code: a2a.CodeInvalidParams, Message: "task not found: " + queryParams.ID}
		}
		return nil, &a2a.RPCError{Code: a2a.CodeInternalError, Message: err.Error()}
	}

	return task, nil
}

func (s *Server) sendResult(w http.ResponseWriter, id any, result interface{}) {
	raw, err := json.Marshal(result)
	if err != nil {
		s.sendError(w, id, a2a.CodeInternalError, "failed to encode result")
		return
	}
	_ = json.NewEncoder(w).Encode(a2a.Response{
		JSONRPC: "2.0",
		ID:      id,
		Result:  raw,
	})
}

func (s *Server) sendError(w http.ResponseWriter, id any, code int, message string) {
	_ = json.NewEncoder(w).Encode(a2a.Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &a2a.RPCError{Code: code, Message: message},
	})
}
