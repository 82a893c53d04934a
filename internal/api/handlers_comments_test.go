// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

package api

import (
	"net/http"
	"testing"

	"github.com/tomtom215/pizzahunt/internal/events"
	"github.com/tomtom215/pizzahunt/internal/models"
)

func (s *testServer) addComment(t *testing.T, pizzaID, body string) models.Comment {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/api/pizzas/"+pizzaID+"/comments", map[string]string{
		"writtenBy":   "critic",
		"commentBody": body,
	})
	if code != http.StatusCreated {
		t.Fatalf("add comment status = %d (message %q)", code, env.Message)
	}
	var p models.Pizza
	decodeData(t, env, &p)
	if len(p.Comments) == 0 {
		t.Fatal("returned pizza has no comments")
	}
	return p.Comments[len(p.Comments)-1]
}

func (s *testServer) addReply(t *testing.T, commentID, body string) models.Comment {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/api/comments/"+commentID+"/replies", map[string]string{
		"writtenBy": "chef",
		"replyBody": body,
	})
	if code != http.StatusCreated {
		t.Fatalf("add reply status = %d (message %q)", code, env.Message)
	}
	var c models.Comment
	decodeData(t, env, &c)
	return c
}

func TestAddComment_ReturnsPizzaWithComment(t *testing.T) {
	s := setupTestServer(t, nil)
	p := s.createPizza(t, "Quattro Formaggi")

	s.addComment(t, p.ID, "too much cheese")
	s.addComment(t, p.ID, "never too much")

	_, env := s.do(t, http.MethodGet, "/api/pizzas/"+p.ID, nil)
	var got models.Pizza
	decodeData(t, env, &got)
	if got.CommentCount != 2 {
		t.Fatalf("commentCount = %d, want 2", got.CommentCount)
	}
	if got.Comments[0].CommentBody != "too much cheese" {
		t.Errorf("comments out of order: %+v", got.Comments)
	}
}

func TestAddComment_UnknownPizza(t *testing.T) {
	s := setupTestServer(t, nil)

	code, env := s.do(t, http.MethodPost, "/api/pizzas/nope/comments", map[string]string{
		"writtenBy":   "critic",
		"commentBody": "hello?",
	})
	if code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", code)
	}
	if env.Message != "No pizza found with this id!" {
		t.Errorf("message = %q", env.Message)
	}
}

func TestAddComment_Validation(t *testing.T) {
	s := setupTestServer(t, nil)
	p := s.createPizza(t, "Marinara")

	code, env := s.do(t, http.MethodPost, "/api/pizzas/"+p.ID+"/comments", map[string]string{
		"writtenBy": "critic",
	})
	if code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", code)
	}
	if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestReplies_AddAndRemove(t *testing.T) {
	s := setupTestServer(t, nil)
	p := s.createPizza(t, "Capricciosa")
	c := s.addComment(t, p.ID, "artichokes?")

	s.addReply(t, c.ID, "yes")
	withTwo := s.addReply(t, c.ID, "always")
	if withTwo.ReplyCount != 2 {
		t.Fatalf("replyCount = %d, want 2", withTwo.ReplyCount)
	}
	first := withTwo.Replies[0]
	if first.ReplyID == "" || first.ReplyID == c.ID {
		t.Fatalf("reply id %q must be set and distinct from the comment id", first.ReplyID)
	}

	code, env := s.do(t, http.MethodDelete, "/api/comments/"+c.ID+"/replies/"+first.ReplyID, nil)
	if code != http.StatusOK {
		t.Fatalf("remove reply status = %d", code)
	}
	var after models.Comment
	decodeData(t, env, &after)
	if after.ReplyCount != 1 || after.Replies[0].ReplyBody != "always" {
		t.Errorf("after removal = %+v", after.Replies)
	}

	code, env = s.do(t, http.MethodDelete, "/api/comments/"+c.ID+"/replies/unknown", nil)
	if code != http.StatusOK {
		t.Fatalf("remove unknown reply status = %d, want 200", code)
	}
	decodeData(t, env, &after)
	if after.ReplyCount != 1 {
		t.Errorf("unknown reply id changed the comment: %+v", after.Replies)
	}
}

func TestReplies_UnknownComment(t *testing.T) {
	s := setupTestServer(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
	}{
		{"add reply", http.MethodPost, "/api/comments/nope/replies", map[string]string{"writtenBy": "a", "replyBody": "b"}},
		{"remove reply", http.MethodDelete, "/api/comments/nope/replies/r1", nil},
		{"remove comment", http.MethodDelete, "/api/comments/nope", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := s.do(t, tt.method, tt.path, tt.body)
			if code != http.StatusNotFound {
				t.Fatalf("status = %d, want 404", code)
			}
			if env.Message != "No comment with this id!" {
				t.Errorf("message = %q", env.Message)
			}
		})
	}
}

func TestRemoveComment_PullsFromPizza(t *testing.T) {
	s := setupTestServer(t, nil)
	p := s.createPizza(t, "Hawaiian")
	keep := s.addComment(t, p.ID, "controversial")
	drop := s.addComment(t, p.ID, "delete me")
	s.addReply(t, drop.ID, "bye")

	code, env := s.do(t, http.MethodDelete, "/api/comments/"+drop.ID, nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	var got models.Pizza
	decodeData(t, env, &got)
	if got.ID != p.ID {
		t.Errorf("returned pizza %q, want %q", got.ID, p.ID)
	}
	if got.CommentCount != 1 || got.Comments[0].ID != keep.ID {
		t.Errorf("comments after removal = %+v", got.Comments)
	}

	types := s.publisher.types()
	if types[len(types)-1] != events.CommentRemoved {
		t.Errorf("last event = %s, want comment_removed", types[len(types)-1])
	}
}
