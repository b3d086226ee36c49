package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// A2A CLIENT - JSON-RPC over HTTP POST
// ============================================================================

// Client calls A2A endpoints with JSON-RPC message/send requests.
type Client struct {
	httpClient *http.Client
	auth       *AuthCredentials
}

// AuthCredentials contains authentication information for outbound calls.
type AuthCredentials struct {
	Type         string // "bearer", "apiKey"
	Token        string
	APIKey       string
	APIKeyHeader string // defaults to "X-API-Key"
}

// ClientConfig configures the A2A client.
type ClientConfig struct {
	Timeout time.Duration
	Auth    *AuthCredentials
}

// NewClient creates an A2A client. A nil config uses a 60 second timeout
// and no authentication.
func NewClient(cfg *ClientConfig) *Client {
	if cfg == nil {
		cfg = &ClientConfig{}
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		auth:       cfg.Auth,
	}
}

// SendMessage posts a message/send request to endpointURL and returns the
// resulting task. threadID, when non-empty, is attached as
// metadata.thread_id on the envelope for trace correlation.
//
// Failures map onto the protocol taxonomy: connection failures and non-200
// statuses return a TransportError; a body with an error object or without
// a result returns a ProtocolError. Neither is retried.
func (c *Client) SendMessage(ctx context.Context, endpointURL string, message Message, threadID string) (*Task, error) {
	params, err := json.Marshal(MessageSendParams{Message: message})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}

	rpcReq := Request{
		JSONRPC: "2.0",
		ID:      uuid.New().String(),
		Method:  MethodMessageSend,
		Params:  params,
	}
	if threadID != "" {
		rpcReq.Metadata = &RequestMetadata{ThreadID: threadID}
	}

	result, err := c.call(ctx, endpointURL, rpcReq)
	if err != nil {
		return nil, err
	}

	var task Task
	if err := json.Unmarshal(result, &task); err != nil {
		return nil, &ProtocolError{Message: fmt.Sprintf("malformed task in result: %v", err)}
	}
	return &task, nil
}

// GetTask fetches a previously produced task by id via tasks/get.
func (c *Client) GetTask(ctx context.Context, endpointURL string, taskID string) (*Task, error) {
	params, err := json.Marshal(TaskQueryParams{ID: taskID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}

	result, err := c.call(ctx, endpointURL, Request{
		JSONRPC: "2.0",
		ID:      uuid.New().String(),
		Method:  MethodTasksGet,
		Params:  params,
	})
	if err != nil {
		return nil, err
	}

	var task Task
	if err := json.Unmarshal(result, &task); err != nil {
		return nil, &ProtocolError{Message: fmt.Sprintf("malformed task in result: %v", err)}
	}
	return &task, nil
}

// DiscoverAgent fetches an endpoint's agent card.
// GET {endpoint}/.well-known/agent-card.json
func (c *Client) DiscoverAgent(ctx context.Context, endpointURL string) (*AgentCard, error) {
	cardURL := joinURL(endpointURL, "/.well-known/agent-card.json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cardURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &TransportError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var card AgentCard
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return nil, fmt.Errorf("failed to decode agent card: %w", err)
	}
	return &card, nil
}

// call posts one JSON-RPC request and returns the raw result payload.
func (c *Client) call(ctx context.Context, endpointURL string, rpcReq Request) (json.RawMessage, error) {
	body, err := json.Marshal(rpcReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	c.setAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &TransportError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var rpcResp Response
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, &ProtocolError{Message: fmt.Sprintf("malformed response body: %v", err)}
	}

	if rpcResp.Error != nil {
		return nil, &ProtocolError{RPC: rpcResp.Error}
	}
	if len(rpcResp.Result) == 0 {
		return nil, &ProtocolError{Message: "response missing 'result' key"}
	}
	return rpcResp.Result, nil
}

func (c *Client) setAuthHeaders(req *http.Request) {
	if c.auth == nil {
		return
	}

	switch c.auth.Type {
	case "bearer":
		if c.auth.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.auth.Token)
		}
	case "apiKey":
		header := c.auth.APIKeyHeader
		if header == "" {
			header = "X-API-Key"
		}
		if c.auth.APIKey != "" {
			req.Header.Set(header, c.auth.APIKey)
		}
	}
}

func joinURL(base, path string) string {
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	return base + path
}
