// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

/*
Package remote is the HTTP client for the remote pizza write endpoint.

Both create paths post to POST /api/pizzas: CreateOne sends a single object
for direct online writes, SubmitBatch sends a JSON array for queue replay.

Every call is paced by a token bucket limiter and wrapped in a circuit
breaker. Only transport failures and 5xx responses count against the
breaker; a 4xx rejection means the endpoint is healthy and said no.

Errors are classified into three sentinels:
  - ErrTransportFailure: dial, timeout, canceled, or breaker open
  - ErrRemoteRejected: non-2xx status, or a 2xx body with "status":"error" or a message
  - ErrNotFound: 404 (also matches ErrRemoteRejected)
*/
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/pizzahunt/internal/breaker"
	"github.com/tomtom215/pizzahunt/internal/logging"
	"github.com/tomtom215/pizzahunt/internal/metrics"
	"github.com/tomtom215/pizzahunt/internal/models"
)

// PizzasPath is the create endpoint for single and batch writes.
const PizzasPath = "/api/pizzas"

// IdempotencyHeader carries the client key on single creates.
const IdempotencyHeader = "Idempotency-Key"

// maxErrorBodySize bounds how much of a response is read.
const maxErrorBodySize = 64 * 1024

var (
	// ErrRemoteRejected means the endpoint answered but did not accept the write.
	ErrRemoteRejected = errors.New("remote rejected write")

	// ErrTransportFailure means no usable answer was received.
	ErrTransportFailure = errors.New("remote transport failure")

	// ErrNotFound is a 404 from the endpoint.
	ErrNotFound = fmt.Errorf("%w: not found", ErrRemoteRejected)

	// errServerFault marks 5xx responses so the breaker counts them.
	errServerFault = errors.New("server fault")
)

// Config holds remote client settings.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	UserAgent         string
	Breaker           breaker.Config
}

// DefaultConfig returns client defaults for a local server.
func DefaultConfig() Config {
	return Config{
		BaseURL:           "http://localhost:3001",
		Timeout:           30 * time.Second,
		RequestsPerSecond: 10,
		Burst:             5,
		UserAgent:         "pizzahunt-agent/1.0",
		Breaker:           breaker.DefaultConfig(),
	}
}

// Client talks to the remote write endpoint. It is safe for concurrent use.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *breaker.Breaker
}

// NewClient validates cfg and builds a client.
func NewClient(cfg Config) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid remote base URL %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	bcfg := cfg.Breaker
	if bcfg.MinRequests == 0 && bcfg.FailureRatio == 0 {
		bcfg = breaker.DefaultConfig()
	}
	bcfg.IsSuccessful = countsAsSuccess

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, burst),
		breaker:    breaker.New("remote-pizzas", bcfg),
	}, nil
}

// BreakerState exposes the circuit breaker state for health reporting.
func (c *Client) BreakerState() string {
	return c.breaker.State()
}

func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	return !errors.Is(err, ErrTransportFailure) && !errors.Is(err, errServerFault)
}

// CreateOne posts a single pizza and returns the created entity.
func (c *Client) CreateOne(ctx context.Context, input models.PizzaInput) (models.Pizza, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return models.Pizza{}, fmt.Errorf("marshal pizza: %w", err)
	}

	var pizza models.Pizza
	start := time.Now()
	err = c.post(ctx, body, input.IdempotencyKey, &pizza)
	metrics.RecordRemoteRequest("create_one", Classify(err), time.Since(start))
	if err != nil {
		return models.Pizza{}, err
	}
	return pizza, nil
}

// SubmitBatch posts the payloads as one JSON array. The outcome is always
// carried in the Result tag, never in the shape of the response.
func (c *Client) SubmitBatch(ctx context.Context, payloads []json.RawMessage) Result {
	if payloads == nil {
		payloads = []json.RawMessage{}
	}
	body, err := json.Marshal(payloads)
	if err != nil {
		return Err(fmt.Errorf("%w: marshal batch: %w", ErrRemoteRejected, err))
	}

	var pizzas []models.Pizza
	start := time.Now()
	err = c.post(ctx, body, "", &pizzas)
	metrics.RecordRemoteRequest("submit_batch", Classify(err), time.Since(start))
	if err != nil {
		return Err(err)
	}
	return Ok(pizzas)
}

func (c *Client) post(ctx context.Context, body []byte, idempotencyKey string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %w", ErrTransportFailure, err)
	}

	err := c.breaker.Execute(func() error {
		return c.doPost(ctx, body, idempotencyKey, out)
	})
	if errors.Is(err, breaker.ErrRejected) {
		return fmt.Errorf("%w: %w", ErrTransportFailure, err)
	}
	return err
}

// envelope mirrors models.APIResponse with a deferred Data field.
type envelope struct {
	Status  string           `json:"status"`
	Data    json.RawMessage  `json:"data"`
	Message string           `json:"message"`
	Error   *models.APIError `json:"error"`
}

func (c *Client) doPost(ctx context.Context, body []byte, idempotencyKey string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+PizzasPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: create request: %w", ErrTransportFailure, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if idempotencyKey != "" {
		req.Header.Set(IdempotencyHeader, idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransportFailure, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize*16))
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrTransportFailure, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, describe(&env, raw))
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %w: status %d: %s", ErrRemoteRejected, errServerFault, resp.StatusCode, describe(&env, raw))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%w: status %d: %s", ErrRemoteRejected, resp.StatusCode, describe(&env, raw))
	case decodeErr != nil:
		return fmt.Errorf("%w: malformed response: %w", ErrRemoteRejected, decodeErr)
	case env.Status == models.StatusError || env.Message != "" || env.Error != nil:
		// A 2xx can still carry an application error.
		logging.Warn().Int("status", resp.StatusCode).Str("message", describe(&env, raw)).
			Msg("Remote returned an error body with a success status")
		return fmt.Errorf("%w: %s", ErrRemoteRejected, describe(&env, raw))
	}

	if len(env.Data) == 0 {
		return fmt.Errorf("%w: response has no data", ErrRemoteRejected)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: unexpected data shape: %w", ErrRemoteRejected, err)
	}
	return nil
}

func describe(env *envelope, raw []byte) string {
	switch {
	case env.Message != "":
		return env.Message
	case env.Error != nil && env.Error.Message != "":
		return env.Error.Message
	}
	if len(raw) > maxErrorBodySize {
		return string(raw[:maxErrorBodySize]) + "\n... (truncated)"
	}
	if len(raw) == 0 {
		return "(empty body)"
	}
	return string(raw)
}

// Classify maps an error to the label used in metrics and logs.
func Classify(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrRemoteRejected):
		return "rejected"
	default:
		return "transport"
	}
}
