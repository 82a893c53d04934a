// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

package events

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/pizzahunt/internal/models"
)

// Topic carries every pizza event. JetStream stream names may not contain
// dots, so the topic doubles as the stream name.
const Topic = "pizza_events"

// Type names what happened.
type Type string

const (
	PizzaCreated   Type = "pizza_created"
	PizzaUpdated   Type = "pizza_updated"
	PizzaDeleted   Type = "pizza_deleted"
	CommentAdded   Type = "comment_added"
	CommentRemoved Type = "comment_removed"
	ReplyAdded     Type = "reply_added"
	ReplyRemoved   Type = "reply_removed"
)

// Event is a change to the document store. Pizza is set for pizza and
// comment events, Comment for reply events.
type Event struct {
	ID         string          `json:"id"`
	Type       Type            `json:"type"`
	PizzaID    string          `json:"pizzaId,omitempty"`
	CommentID  string          `json:"commentId,omitempty"`
	Pizza      *models.Pizza   `json:"pizza,omitempty"`
	Comment    *models.Comment `json:"comment,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// NewPizzaEvent builds an event about a pizza.
func NewPizzaEvent(t Type, p models.Pizza) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		PizzaID:    p.ID,
		Pizza:      &p,
		OccurredAt: time.Now().UTC(),
	}
}

// NewCommentEvent builds an event about a comment's replies.
func NewCommentEvent(t Type, c models.Comment) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		PizzaID:    c.PizzaID,
		CommentID:  c.ID,
		Comment:    &c,
		OccurredAt: time.Now().UTC(),
	}
}

// Marshal encodes the event for the wire.
func (e Event) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event %s: %w", e.ID, err)
	}
	return data, nil
}

// Unmarshal decodes an event from the wire.
func Unmarshal(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	if e.Type == "" {
		return Event{}, fmt.Errorf("unmarshal event: missing type")
	}
	return e, nil
}
