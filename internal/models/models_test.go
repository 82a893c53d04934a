// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

package models

import (
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestTimestampDisplay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   time.Time
		want string
	}{
		{time.Date(2026, 10, 1, 9, 5, 0, 0, time.UTC), "Oct 1st, 2026 at 9:05 am"},
		{time.Date(2026, 10, 2, 13, 0, 0, 0, time.UTC), "Oct 2nd, 2026 at 1:00 pm"},
		{time.Date(2026, 10, 3, 0, 30, 0, 0, time.UTC), "Oct 3rd, 2026 at 12:30 am"},
		{time.Date(2026, 10, 11, 12, 0, 0, 0, time.UTC), "Oct 11th, 2026 at 12:00 pm"},
		{time.Date(2026, 10, 22, 18, 45, 0, 0, time.UTC), "Oct 22nd, 2026 at 6:45 pm"},
	}

	for _, tt := range tests {
		if got := NewTimestamp(tt.in).Display(); got != tt.want {
			t.Errorf("Display(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTimestampUnmarshalDisplayFormat(t *testing.T) {
	t.Parallel()

	var ts Timestamp
	if err := json.Unmarshal([]byte(`"Oct 22nd, 2026 at 6:45 pm"`), &ts); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := time.Date(2026, 10, 22, 18, 45, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Errorf("got %v, want %v", ts.Time, want)
	}
}

func TestTimestampUnmarshalRFC3339(t *testing.T) {
	t.Parallel()

	var ts Timestamp
	if err := json.Unmarshal([]byte(`"2026-10-18T08:00:00Z"`), &ts); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ts.Hour() != 8 || ts.Day() != 18 {
		t.Errorf("unexpected time %v", ts.Time)
	}
}

func TestTimestampUnmarshalInvalid(t *testing.T) {
	t.Parallel()

	var ts Timestamp
	if err := json.Unmarshal([]byte(`"yesterday-ish"`), &ts); err == nil {
		t.Error("expected error for unparseable timestamp")
	}
	if err := json.Unmarshal([]byte(`42`), &ts); err == nil {
		t.Error("expected error for non-string timestamp")
	}
}

func TestPizzaInputNormalize(t *testing.T) {
	t.Parallel()

	in := PizzaInput{PizzaName: "Hawaiian", CreatedBy: "lernantino"}
	in.Normalize()

	if in.Size != DefaultPizzaSize {
		t.Errorf("expected default size %q, got %q", DefaultPizzaSize, in.Size)
	}
	if in.Toppings == nil {
		t.Error("expected non-nil toppings after normalize")
	}

	in = PizzaInput{Size: "Personal"}
	in.Normalize()
	if in.Size != "Personal" {
		t.Errorf("normalize should keep explicit size, got %q", in.Size)
	}
}

func TestErrorEnvelopeCarriesTopLevelMessage(t *testing.T) {
	t.Parallel()

	resp := APIResponse{
		Status:  StatusError,
		Message: "No pizza found with this id!",
		Error:   &APIError{Code: "NOT_FOUND", Message: "No pizza found with this id!"},
	}
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"message":"No pizza found with this id!"`) {
		t.Errorf("expected top-level message, got %s", data)
	}
	if strings.Contains(string(data), `"data"`) {
		t.Errorf("error envelope should omit data, got %s", data)
	}
}

func TestSetCommentsKeepsCount(t *testing.T) {
	t.Parallel()

	var p Pizza
	p.SetComments(nil)
	if p.Comments == nil || p.CommentCount != 0 {
		t.Errorf("expected empty non-nil comments, got %v (count %d)", p.Comments, p.CommentCount)
	}

	c := Comment{ID: "c1"}
	c.SetReplies([]Reply{{ReplyID: "r1"}, {ReplyID: "r2"}})
	p.SetComments([]Comment{c})
	if p.CommentCount != 1 || p.Comments[0].ReplyCount != 2 {
		t.Errorf("counts = %d/%d, want 1/2", p.CommentCount, p.Comments[0].ReplyCount)
	}
}
