// Package rpc posts call_tool requests to a JSON-RPC 2.0 endpoint and
// classifies whatever comes back.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"mcpgate/config"
)

const (
	MethodCallTool = "call_tool"
	DefaultTimeout = 30 * time.Second

	contentTypeJSON = "application/json"
	acceptHeader    = "application/json, text/event-stream"
)

// Request is the JSON-RPC envelope sent for every tool call.
type Request struct {
	JSONRPC string     `json:"jsonrpc"`
	ID      string     `json:"id"`
	Method  string     `json:"method"`
	Params  CallParams `json:"params"`
}

type CallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// NewRequest builds a call_tool envelope. A nil argument map is sent as {}.
func NewRequest(id, toolName string, arguments map[string]any) Request {
	if arguments == nil {
		arguments = map[string]any{}
	}
	return Request{
		JSONRPC: mcptypes.JSONRPC_VERSION,
		ID:      id,
		Method:  MethodCallTool,
		Params: CallParams{
			Name:      toolName,
			Arguments: arguments,
		},
	}
}

type Client struct {
	endpoint   string
	httpClient *http.Client
	newID      func() string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client (30s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithIDFunc replaces the uuid request id generator.
func WithIDFunc(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.newID = fn
		}
	}
}

func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		newID:      func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// CallTool sends one call_tool request and never returns a Go error: every
// failure is folded into an Error response so the caller can render it.
func (c *Client) CallTool(ctx context.Context, toolName string, arguments map[string]any) Response {
	req := NewRequest(c.newID(), toolName, arguments)

	payload, err := json.Marshal(req)
	if err != nil {
		return ErrorResponse(fmt.Sprintf("failed to encode request: %v", err))
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[rpc] POST %s id=%s tool=%s", c.endpoint, req.ID, toolName)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return ErrorResponse(err.Error())
	}
	httpReq.Header.Set("Content-Type", contentTypeJSON)
	httpReq.Header.Set("Accept", acceptHeader)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[rpc] id=%s transport error after %v: %v", req.ID, time.Since(start), err)
		}
		return ErrorResponse(err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ErrorResponse(fmt.Sprintf("failed to read response: %v", err))
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[rpc] id=%s status=%d bytes=%d in %v", req.ID, resp.StatusCode, len(body), time.Since(start))
	}

	if resp.StatusCode != http.StatusOK {
		return ErrorResponse(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)))
	}

	return Decode(resp.Header.Get("Content-Type"), body)
}
