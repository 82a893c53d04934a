// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/pizzahunt/internal/api"
	"github.com/tomtom215/pizzahunt/internal/models"
	"github.com/tomtom215/pizzahunt/internal/queue"
	syncpkg "github.com/tomtom215/pizzahunt/internal/sync"
)

// AgentError is an error envelope returned by the agent's local API.
type AgentError struct {
	HTTPStatus int
	Code       string
	Message    string
}

func (e *AgentError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("agent returned HTTP %d: %s", e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// exitCode maps agent error codes to CLI exit codes.
func (e *AgentError) exitCode() int {
	switch e.Code {
	case "VALIDATION_ERROR", "INVALID_JSON":
		return ExitUsage
	case "STORAGE_UNAVAILABLE", "REMOTE_UNREACHABLE":
		return ExitUnavailable
	default:
		return ExitFailure
	}
}

// agentEnvelope mirrors models.APIResponse with the payload left raw.
type agentEnvelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Message  string           `json:"message"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

// AgentClient calls a running agent over its loopback API.
type AgentClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAgentClient creates a client for the agent at baseURL.
func NewAgentClient(baseURL string, timeout time.Duration) *AgentClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &AgentClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// do sends body (if any) and decodes the envelope's data into out.
func (c *AgentClient) do(ctx context.Context, method, path string, body, out interface{}) (*agentEnvelope, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ExitError{
			Code:    ExitUnavailable,
			Message: fmt.Sprintf("agent not reachable at %s (is `pizzahunt agent` running?)", c.baseURL),
			Err:     err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read agent response: %w", err)
	}

	var env agentEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &ExitError{
			Code:    ExitFailure,
			Message: "unexpected agent response",
			Err:     &AgentError{HTTPStatus: resp.StatusCode, Message: strings.TrimSpace(string(raw))},
		}
	}
	if resp.StatusCode >= 400 || env.Status == models.StatusError {
		agentErr := &AgentError{HTTPStatus: resp.StatusCode, Message: env.Message}
		if env.Error != nil {
			agentErr.Code = env.Error.Code
			agentErr.Message = env.Error.Message
		}
		return nil, &ExitError{Code: agentErr.exitCode(), Message: "agent request failed", Err: agentErr}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("failed to decode agent data: %w", err)
		}
	}
	return &env, nil
}

// CreateOutcome is the agent's answer to a create.
type CreateOutcome struct {
	Outcome        string        `json:"outcome"`
	Pizza          *models.Pizza `json:"pizza,omitempty"`
	LocalID        uint64        `json:"localId,omitempty"`
	IdempotencyKey string        `json:"idempotencyKey"`
}

// CreatePizza submits input through the agent's write interceptor.
func (c *AgentClient) CreatePizza(ctx context.Context, input models.PizzaInput) (CreateOutcome, error) {
	var out CreateOutcome
	_, err := c.do(ctx, http.MethodPost, api.AgentPizzasPath, input, &out)
	return out, err
}

// Sync runs one sync attempt.
func (c *AgentClient) Sync(ctx context.Context) (syncpkg.Result, error) {
	var out syncpkg.Result
	_, err := c.do(ctx, http.MethodPost, api.AgentSyncPath, nil, &out)
	return out, err
}

// Status fetches the agent status.
func (c *AgentClient) Status(ctx context.Context) (api.AgentStatus, error) {
	var out api.AgentStatus
	_, err := c.do(ctx, http.MethodGet, api.AgentStatusPath, nil, &out)
	return out, err
}

// ListQueue returns the pending records oldest first.
func (c *AgentClient) ListQueue(ctx context.Context) ([]queue.Record, error) {
	var out []queue.Record
	_, err := c.do(ctx, http.MethodGet, api.AgentQueuePath, nil, &out)
	return out, err
}

// PurgeQueue drops every pending record and returns how many were removed.
func (c *AgentClient) PurgeQueue(ctx context.Context) (int, error) {
	var out struct {
		Purged int `json:"purged"`
	}
	_, err := c.do(ctx, http.MethodDelete, api.AgentQueuePath, nil, &out)
	return out.Purged, err
}

// SetConnectivity overrides the agent's connectivity signal.
func (c *AgentClient) SetConnectivity(ctx context.Context, online bool) (bool, error) {
	var out struct {
		Online bool `json:"online"`
	}
	_, err := c.do(ctx, http.MethodPost, api.AgentConnectivityPath, map[string]bool{"online": online}, &out)
	return out.Online, err
}
