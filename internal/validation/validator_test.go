// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

package validation

import (
	"strings"
	"testing"

	"github.com/tomtom215/pizzahunt/internal/models"
)

func TestGetValidator_Singleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same instance")
	}
}

func TestValidateStruct_PizzaInput(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 101)

	tests := []struct {
		name      string
		input     models.PizzaInput
		wantErr   bool
		wantField string
	}{
		{
			name:  "valid",
			input: models.PizzaInput{PizzaName: "Margherita", CreatedBy: "lernantino", Toppings: []string{"basil"}},
		},
		{
			name:      "missing name",
			input:     models.PizzaInput{CreatedBy: "lernantino"},
			wantErr:   true,
			wantField: "pizzaName",
		},
		{
			name:      "name too long",
			input:     models.PizzaInput{PizzaName: long, CreatedBy: "lernantino"},
			wantErr:   true,
			wantField: "pizzaName",
		},
		{
			name:      "bad idempotency key",
			input:     models.PizzaInput{PizzaName: "A", CreatedBy: "B", IdempotencyKey: "not-a-uuid"},
			wantErr:   true,
			wantField: "idempotencyKey",
		},
		{
			name:      "empty topping",
			input:     models.PizzaInput{PizzaName: "A", CreatedBy: "B", Toppings: []string{""}},
			wantErr:   true,
			wantField: "toppings[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			verr := ValidateStruct(&tt.input)
			if !tt.wantErr {
				if verr != nil {
					t.Fatalf("unexpected validation error: %v", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("expected validation error")
			}
			found := false
			for _, fe := range verr.Errors() {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on field %q, got %+v", tt.wantField, verr.Errors())
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	t.Parallel()

	verr := ValidateStruct(&models.CommentInput{})
	if verr == nil {
		t.Fatal("expected errors for empty comment")
	}

	apiErr := verr.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if !strings.Contains(apiErr.Message, "writtenBy is required") {
		t.Errorf("message should mention writtenBy: %q", apiErr.Message)
	}
	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok || len(fields) != 2 {
		t.Errorf("expected 2 field details, got %v", apiErr.Details["fields"])
	}
}

func TestTranslateMinMaxUnits(t *testing.T) {
	t.Parallel()

	type sample struct {
		Name  string   `json:"name" validate:"min=3"`
		Items []string `json:"items" validate:"max=1"`
		Count int      `json:"count" validate:"max=5"`
	}

	verr := ValidateStruct(&sample{Name: "ab", Items: []string{"a", "b"}, Count: 9})
	if verr == nil {
		t.Fatal("expected errors")
	}
	msg := verr.Error()
	for _, want := range []string{
		"name must be at least 3 characters",
		"items must be at most 1 items",
		"count must be at most 5",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}
}
