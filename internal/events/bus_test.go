// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

package events

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/tomtom215/pizzahunt/internal/config"
	"github.com/tomtom215/pizzahunt/internal/logging"
	"github.com/tomtom215/pizzahunt/internal/models"
)

// roundTrip runs the consumer and keeps publishing until the first event
// arrives, since subscription happens asynchronously.
func roundTrip(t *testing.T, bus *Bus) Event {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan Event, 16)
	go func() {
		_ = bus.Serve(ctx, func(_ context.Context, e Event) error {
			received <- e
			return nil
		})
	}()

	pizza := models.Pizza{ID: "p-1", PizzaName: "Margherita", Toppings: []string{"basil"}}
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.After(20 * time.Second)

	for {
		select {
		case e := <-received:
			return e
		case <-ticker.C:
			if err := bus.Publish(ctx, NewPizzaEvent(PizzaCreated, pizza)); err != nil {
				t.Fatalf("Publish() error = %v", err)
			}
		case <-deadline:
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestBus_GoChannelRoundTrip(t *testing.T) {
	bus, err := NewBus(&config.NATSConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewBus() error = %v", err)
	}
	defer bus.Close()

	if bus.Backend() != "gochannel" {
		t.Errorf("Backend() = %q, want gochannel", bus.Backend())
	}

	e := roundTrip(t, bus)
	if e.Type != PizzaCreated || e.PizzaID != "p-1" {
		t.Errorf("received %+v", e)
	}
	if e.Pizza == nil || e.Pizza.PizzaName != "Margherita" {
		t.Errorf("pizza payload = %+v", e.Pizza)
	}
}

func TestBus_EmbeddedNATSRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("starts an embedded NATS server")
	}

	bus, err := NewBus(&config.NATSConfig{
		Enabled:        true,
		EmbeddedServer: true,
		URL:            "nats://127.0.0.1:0",
		StoreDir:       t.TempDir(),
		MaxMemory:      64 << 20,
		MaxStore:       128 << 20,
		CloseTimeout:   5 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewBus() error = %v", err)
	}
	defer bus.Close()

	if bus.Backend() != "nats" {
		t.Errorf("Backend() = %q, want nats", bus.Backend())
	}

	e := roundTrip(t, bus)
	if e.Type != PizzaCreated {
		t.Errorf("Type = %q, want %q", e.Type, PizzaCreated)
	}
}

func TestBus_PublishAfterClose(t *testing.T) {
	bus, err := NewBus(&config.NATSConfig{})
	if err != nil {
		t.Fatalf("NewBus() error = %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	err = bus.Publish(context.Background(), NewPizzaEvent(PizzaDeleted, models.Pizza{ID: "x"}))
	if !errors.Is(err, ErrBusClosed) {
		t.Errorf("Publish() after Close error = %v, want ErrBusClosed", err)
	}
}

func TestUnmarshal(t *testing.T) {
	e := NewCommentEvent(ReplyAdded, models.Comment{ID: "c-1", PizzaID: "p-1"})
	data, err := e.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got.CommentID != "c-1" || got.PizzaID != "p-1" || got.Comment == nil {
		t.Errorf("Unmarshal() = %+v", got)
	}

	if _, err := Unmarshal([]byte(`{"id":"x"}`)); err == nil {
		t.Error("expected error for event without type")
	}
	if _, err := Unmarshal([]byte(`not json`)); err == nil {
		t.Error("expected error for malformed payload")
	}
}

func TestLoggerAdapter(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewLoggerAdapterFrom(logging.NewTestLogger(&buf))

	adapter.With(watermill.LogFields{"topic": Topic}).
		Error("publish failed", errors.New("boom"), watermill.LogFields{"attempt": 2})

	out := buf.String()
	for _, want := range []string{`"topic":"pizza_events"`, `"attempt":2`, `"error":"boom"`, `publish failed`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %s missing %s", out, want)
		}
	}
}

func TestListenAddr(t *testing.T) {
	tests := []struct {
		url      string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		{"nats://127.0.0.1:4222", "127.0.0.1", 4222, false},
		{"nats://0.0.0.0:0", "0.0.0.0", 0, false},
		{"nats://localhost", "localhost", 4222, false},
		{"nats://localhost:abc", "", 0, true},
	}
	for _, tt := range tests {
		host, port, err := listenAddr(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("listenAddr(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && (host != tt.wantHost || port != tt.wantPort) {
			t.Errorf("listenAddr(%q) = %s:%d, want %s:%d", tt.url, host, port, tt.wantHost, tt.wantPort)
		}
	}
}
