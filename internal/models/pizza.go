// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

package models

// DefaultPizzaSize is applied when a create payload omits size.
const DefaultPizzaSize = "Large"

// Pizza is the top-level document. ID is assigned by the server and is
// unrelated to any client-side queue identifier.
type Pizza struct {
	ID        string    `json:"_id"`
	PizzaName string    `json:"pizzaName"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt Timestamp `json:"createdAt"`
	Size      string    `json:"size"`
	Toppings  []string  `json:"toppings"`

	// Comments is populated on reads, in the order they were added.
	Comments     []Comment `json:"comments"`
	CommentCount int       `json:"commentCount"`

	// IdempotencyKey echoes the client key the pizza was created with, if any.
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
}

// PizzaInput is the creatable subset of a Pizza. It is also the payload
// stored in the client's offline queue.
type PizzaInput struct {
	PizzaName string   `json:"pizzaName" validate:"required,min=1,max=100"`
	CreatedBy string   `json:"createdBy" validate:"required,min=1,max=50"`
	Size      string   `json:"size,omitempty" validate:"omitempty,max=30"`
	Toppings  []string `json:"toppings,omitempty" validate:"max=25,dive,min=1,max=50"`

	// IdempotencyKey lets the server recognise a replayed create.
	IdempotencyKey string `json:"idempotencyKey,omitempty" validate:"omitempty,uuid"`
}

// PizzaUpdate holds the fields PUT /api/pizzas/{id} may change.
type PizzaUpdate struct {
	PizzaName *string  `json:"pizzaName,omitempty" validate:"omitempty,min=1,max=100"`
	CreatedBy *string  `json:"createdBy,omitempty" validate:"omitempty,min=1,max=50"`
	Size      *string  `json:"size,omitempty" validate:"omitempty,min=1,max=30"`
	Toppings  []string `json:"toppings,omitempty" validate:"omitempty,max=25,dive,min=1,max=50"`
}

// Comment belongs to exactly one pizza and embeds its replies.
type Comment struct {
	ID          string    `json:"_id"`
	PizzaID     string    `json:"pizzaId"`
	WrittenBy   string    `json:"writtenBy"`
	CommentBody string    `json:"commentBody"`
	CreatedAt   Timestamp `json:"createdAt"`
	Replies     []Reply   `json:"replies"`
	ReplyCount  int       `json:"replyCount"`
}

// CommentInput is the body of POST /api/pizzas/{pizzaId}/comments.
type CommentInput struct {
	WrittenBy   string `json:"writtenBy" validate:"required,min=1,max=50"`
	CommentBody string `json:"commentBody" validate:"required,min=1,max=1000"`
}

// Reply has its own ReplyID so it can be removed without referring to the
// parent comment's identifier.
type Reply struct {
	ReplyID   string    `json:"replyId"`
	ReplyBody string    `json:"replyBody"`
	WrittenBy string    `json:"writtenBy"`
	CreatedAt Timestamp `json:"createdAt"`
}

// ReplyInput is the body of POST /api/comments/{commentId}/replies.
type ReplyInput struct {
	WrittenBy string `json:"writtenBy" validate:"required,min=1,max=50"`
	ReplyBody string `json:"replyBody" validate:"required,min=1,max=1000"`
}

// Normalize applies defaults to a create payload.
func (in *PizzaInput) Normalize() {
	if in.Size == "" {
		in.Size = DefaultPizzaSize
	}
	if in.Toppings == nil {
		in.Toppings = []string{}
	}
}

// SetComments replaces the populated comments and keeps CommentCount in step.
func (p *Pizza) SetComments(comments []Comment) {
	if comments == nil {
		comments = []Comment{}
	}
	p.Comments = comments
	p.CommentCount = len(comments)
}

// SetReplies replaces the embedded replies and keeps ReplyCount in step.
func (c *Comment) SetReplies(replies []Reply) {
	if replies == nil {
		replies = []Reply{}
	}
	c.Replies = replies
	c.ReplyCount = len(replies)
}
