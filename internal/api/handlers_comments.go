// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/pizzahunt/internal/events"
	"github.com/tomtom215/pizzahunt/internal/models"
	"github.com/tomtom215/pizzahunt/internal/validation"
)

// AddComment attaches a comment to a pizza and returns the updated pizza.
//
// @Summary Comment on a pizza
// @Tags Comments
// @Accept json
// @Produce json
// @Param pizzaId path string true "Pizza ID"
// @Success 201 {object} models.APIResponse{data=models.Pizza}
// @Failure 404 {object} models.APIResponse "No pizza found with this id!"
// @Router /pizzas/{pizzaId}/comments [post]
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var input models.CommentInput
	if err := decodeJSON(r, &input); err != nil {
		respondDecodeError(w, err)
		return
	}
	if verr := validation.ValidateStruct(&input); verr != nil {
		respondValidationError(w, verr)
		return
	}

	pizza, err := h.db.AddComment(r.Context(), chi.URLParam(r, "pizzaId"), input)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	e := events.NewPizzaEvent(events.CommentAdded, pizza)
	if n := len(pizza.Comments); n > 0 {
		e.CommentID = pizza.Comments[n-1].ID
	}
	h.publish(r.Context(), e)
	respondData(w, http.StatusCreated, pizza, start)
}

// AddReply appends a reply to a comment and returns the updated comment.
//
// @Summary Reply to a comment
// @Tags Comments
// @Accept json
// @Produce json
// @Param commentId path string true "Comment ID"
// @Success 201 {object} models.APIResponse{data=models.Comment}
// @Failure 404 {object} models.APIResponse "No comment with this id!"
// @Router /comments/{commentId}/replies [post]
func (h *Handler) AddReply(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var input models.ReplyInput
	if err := decodeJSON(r, &input); err != nil {
		respondDecodeError(w, err)
		return
	}
	if verr := validation.ValidateStruct(&input); verr != nil {
		respondValidationError(w, verr)
		return
	}

	comment, err := h.db.AddReply(r.Context(), chi.URLParam(r, "commentId"), input)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	h.publish(r.Context(), events.NewCommentEvent(events.ReplyAdded, comment))
	respondData(w, http.StatusCreated, comment, start)
}

// RemoveComment deletes a comment and returns the pizza it belonged to.
func (h *Handler) RemoveComment(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	commentID := chi.URLParam(r, "commentId")

	pizza, err := h.db.RemoveComment(r.Context(), commentID)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	e := events.NewPizzaEvent(events.CommentRemoved, pizza)
	e.CommentID = commentID
	h.publish(r.Context(), e)
	respondData(w, http.StatusOK, pizza, start)
}

// RemoveReply pulls one reply from a comment by reply ID.
func (h *Handler) RemoveReply(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	comment, err := h.db.RemoveReply(r.Context(), chi.URLParam(r, "commentId"), chi.URLParam(r, "replyId"))
	if err != nil {
		respondStoreError(w, err)
		return
	}

	h.publish(r.Context(), events.NewCommentEvent(events.ReplyRemoved, comment))
	respondData(w, http.StatusOK, comment, start)
}
