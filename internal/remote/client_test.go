// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

package remote

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/pizzahunt/internal/models"
)

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.BaseURL = url
	cfg.Timeout = 2 * time.Second
	cfg.RequestsPerSecond = 0
	c, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func TestCreateOneSuccess(t *testing.T) {
	t.Parallel()

	var gotKey, gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != PizzasPath {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotKey = r.Header.Get(IdempotencyHeader)
		gotAgent = r.Header.Get("User-Agent")

		var in models.PizzaInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("decode body: %v", err)
		}
		writeJSON(t, w, http.StatusCreated, models.APIResponse{
			Status: models.StatusSuccess,
			Data:   models.Pizza{ID: "remote-1", PizzaName: in.PizzaName, CreatedBy: in.CreatedBy, Size: "Large"},
		})
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	pizza, err := c.CreateOne(context.Background(), models.PizzaInput{
		PizzaName:      "Margherita",
		CreatedBy:      "lernantino",
		IdempotencyKey: "1f0e4c7a-4b9e-4d53-9d8a-3a5e0b7c2d11",
	})
	if err != nil {
		t.Fatalf("CreateOne failed: %v", err)
	}
	if pizza.ID != "remote-1" || pizza.PizzaName != "Margherita" {
		t.Errorf("unexpected pizza %+v", pizza)
	}
	if gotKey != "1f0e4c7a-4b9e-4d53-9d8a-3a5e0b7c2d11" {
		t.Errorf("idempotency header = %q", gotKey)
	}
	if gotAgent != DefaultConfig().UserAgent {
		t.Errorf("user agent = %q", gotAgent)
	}
}

func TestSubmitBatchSendsArray(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var batch []models.PizzaInput
		if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
			t.Errorf("expected JSON array body: %v", err)
		}
		created := make([]models.Pizza, len(batch))
		for i, in := range batch {
			created[i] = models.Pizza{ID: in.PizzaName + "-id", PizzaName: in.PizzaName}
		}
		writeJSON(t, w, http.StatusCreated, models.APIResponse{Status: models.StatusSuccess, Data: created})
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	res := c.SubmitBatch(context.Background(), []json.RawMessage{
		json.RawMessage(`{"pizzaName":"a","createdBy":"x"}`),
		json.RawMessage(`{"pizzaName":"b","createdBy":"y"}`),
	})
	if !res.IsOk() {
		t.Fatalf("expected Ok, got %v", res.Err())
	}
	if len(res.Pizzas()) != 2 || res.Pizzas()[1].ID != "b-id" {
		t.Errorf("unexpected pizzas %+v", res.Pizzas())
	}
}

func TestSubmitBatchClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		label   string
	}{
		{"error body with 200", http.StatusOK, `{"message":"Pizza validation failed"}`, ErrRemoteRejected, "rejected"},
		{"status error with 200", http.StatusOK, `{"status":"error","error":{"code":"X","message":"no"}}`, ErrRemoteRejected, "rejected"},
		{"bad request", http.StatusBadRequest, `{"status":"error","message":"bad"}`, ErrRemoteRejected, "rejected"},
		{"server error", http.StatusInternalServerError, `oops`, ErrRemoteRejected, "rejected"},
		{"not found", http.StatusNotFound, `{"message":"No pizza found with this id!"}`, ErrNotFound, "not_found"},
		{"malformed 200", http.StatusOK, `not json`, ErrRemoteRejected, "rejected"},
		{"success without data", http.StatusOK, `{"status":"success"}`, ErrRemoteRejected, "rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.Copy(io.Discard, r.Body)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			res := newTestClient(t, server.URL).SubmitBatch(context.Background(), []json.RawMessage{json.RawMessage(`{}`)})
			if res.IsOk() {
				t.Fatal("expected Err result")
			}
			if !errors.Is(res.Err(), tt.wantErr) {
				t.Errorf("error %v does not match %v", res.Err(), tt.wantErr)
			}
			if got := Classify(res.Err()); got != tt.label {
				t.Errorf("Classify = %q, want %q", got, tt.label)
			}
		})
	}
}

func TestTransportFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c := newTestClient(t, url)
	_, err := c.CreateOne(context.Background(), models.PizzaInput{PizzaName: "a", CreatedBy: "b"})
	if !errors.Is(err, ErrTransportFailure) {
		t.Fatalf("expected ErrTransportFailure, got %v", err)
	}
	if Classify(err) != "transport" {
		t.Errorf("Classify = %q", Classify(err))
	}
}

func TestCanceledContextIsTransportFailure(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res := newTestClient(t, server.URL).SubmitBatch(ctx, []json.RawMessage{json.RawMessage(`{}`)})
	if !errors.Is(res.Err(), ErrTransportFailure) {
		t.Fatalf("expected ErrTransportFailure, got %v", res.Err())
	}
}

func TestRejectionsDoNotOpenBreaker(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":"error","message":"invalid"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	for i := 0; i < 20; i++ {
		_, _ = c.CreateOne(context.Background(), models.PizzaInput{PizzaName: "a", CreatedBy: "b"})
	}
	if c.BreakerState() != "closed" {
		t.Errorf("breaker state = %s, want closed", c.BreakerState())
	}
	if calls.Load() != 20 {
		t.Errorf("server calls = %d, want 20", calls.Load())
	}
}

func TestServerFaultsOpenBreaker(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	for i := 0; i < 10; i++ {
		_, _ = c.CreateOne(context.Background(), models.PizzaInput{PizzaName: "a", CreatedBy: "b"})
	}
	if c.BreakerState() != "open" {
		t.Fatalf("breaker state = %s, want open", c.BreakerState())
	}

	_, err := c.CreateOne(context.Background(), models.PizzaInput{PizzaName: "a", CreatedBy: "b"})
	if !errors.Is(err, ErrTransportFailure) {
		t.Errorf("open breaker should surface as transport failure, got %v", err)
	}
	if calls.Load() != 10 {
		t.Errorf("server calls = %d, want 10", calls.Load())
	}
}

func TestNewClientRejectsBadURL(t *testing.T) {
	t.Parallel()

	for _, u := range []string{"", "localhost:3001", "://bad"} {
		cfg := DefaultConfig()
		cfg.BaseURL = u
		if _, err := NewClient(cfg); err == nil {
			t.Errorf("expected error for base URL %q", u)
		}
	}
}

func TestResult(t *testing.T) {
	t.Parallel()

	ok := Ok([]models.Pizza{{ID: "1"}})
	if !ok.IsOk() || ok.Err() != nil || len(ok.Pizzas()) != 1 {
		t.Errorf("unexpected Ok result %+v", ok)
	}

	failed := Err(nil)
	if failed.IsOk() || failed.Err() == nil {
		t.Error("Err(nil) must still be a failure")
	}
}
