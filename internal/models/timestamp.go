// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

package models

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// displayLayout renders as "Oct 18th, 2026 at 3:04 pm" once the ordinal
// suffix is inserted after the day.
const displayLayout = "Jan 2, 2006 at 3:04 pm"

var ordinalSuffix = regexp.MustCompile(`^(\w{3} \d{1,2})(st|nd|rd|th),`)

// Timestamp is a time.Time that marshals in the human display format used by
// the pizza pages. Unmarshal accepts either that format or RFC 3339.
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to the second and wraps it.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Second)}
}

// Display returns the human format.
func (t Timestamp) Display() string {
	if t.IsZero() {
		return ""
	}
	day := t.Day()
	return fmt.Sprintf("%s %d%s, %s",
		t.Format("Jan"), day, ordinal(day), t.Format("2006 at 3:04 pm"))
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Display())
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339, s); err == nil {
		t.Time = parsed.UTC()
		return nil
	}
	parsed, err := time.Parse(displayLayout, ordinalSuffix.ReplaceAllString(s, "$1,"))
	if err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", strconv.Quote(s), err)
	}
	t.Time = parsed.UTC()
	return nil
}

func ordinal(day int) string {
	if day >= 11 && day <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}
