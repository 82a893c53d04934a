// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/pizzahunt/internal/events"
	"github.com/tomtom215/pizzahunt/internal/models"
)

const testOrigin = "http://localhost:3000"

// startHub runs a hub behind an httptest server and returns a dial function.
func startHub(t *testing.T, origins []string) (*Hub, func() (*websocket.Conn, *http.Response, error)) {
	t.Helper()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.Serve(ctx)
		close(done)
	}()

	upgrader := Upgrader(origins)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, &upgrader, w, r)
	}))

	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	dial := func() (*websocket.Conn, *http.Response, error) {
		header := http.Header{}
		header.Set("Origin", testOrigin)
		return websocket.DefaultDialer.Dial(wsURL, header)
	}
	return hub, dial
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for hub.GetClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want %d", hub.GetClientCount(), n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHub_BroadcastsStoreEvents(t *testing.T) {
	hub, dial := startHub(t, []string{"*"})

	conn, _, err := dial()
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	waitForClients(t, hub, 1)

	pizza := models.Pizza{ID: "p-1", PizzaName: "Pepperoni"}
	if err := hub.HandleEvent(context.Background(), events.NewPizzaEvent(events.PizzaCreated, pizza)); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}

	var got struct {
		Type string       `json:"type"`
		Data events.Event `json:"data"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	if got.Type != string(events.PizzaCreated) {
		t.Errorf("type = %q, want %q", got.Type, events.PizzaCreated)
	}
	if got.Data.Pizza == nil || got.Data.Pizza.PizzaName != "Pepperoni" {
		t.Errorf("data = %+v", got.Data)
	}
}

func TestHub_PingPong(t *testing.T) {
	hub, dial := startHub(t, []string{testOrigin})

	conn, _, err := dial()
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	waitForClients(t, hub, 1)

	if err := conn.WriteJSON(Message{Type: MessageTypePing}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if msg.Type != MessageTypePong {
		t.Errorf("type = %q, want pong", msg.Type)
	}
}

func TestHub_RejectsUnknownOrigin(t *testing.T) {
	_, dial := startHub(t, []string{"https://pizza.example.com"})

	_, resp, err := dial()
	if err == nil {
		t.Fatal("expected dial to fail for disallowed origin")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("response = %v, want 403", resp)
	}
}

func TestHub_UnregisterOnDisconnect(t *testing.T) {
	hub, dial := startHub(t, []string{"*"})

	conn, _, err := dial()
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	waitForClients(t, hub, 1)

	_ = conn.Close()
	waitForClients(t, hub, 0)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Serve(ctx) }()

	client := &Client{id: 1, hub: hub, send: make(chan Message, 1)}
	hub.Register <- client
	waitForClients(t, hub, 1)

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	if _, ok := <-client.send; ok {
		t.Error("client send channel should be closed")
	}
	if hub.GetClientCount() != 0 {
		t.Errorf("client count = %d, want 0", hub.GetClientCount())
	}
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := NewHub()
	slow := &Client{id: 1, hub: hub, send: make(chan Message)} // unbuffered, never read
	hub.clients[slow] = true

	hub.broadcastToClients(Message{Type: "pizza_created"})

	if hub.GetClientCount() != 0 {
		t.Errorf("slow client should be dropped, count = %d", hub.GetClientCount())
	}
}

func TestMarshalMessage(t *testing.T) {
	data, err := MarshalMessage(Message{Type: MessageTypePong})
	if err != nil {
		t.Fatalf("MarshalMessage() error = %v", err)
	}
	if string(data) != `{"type":"pong","data":null}` {
		t.Errorf("MarshalMessage() = %s", data)
	}
}
