// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
)

// runCLI executes the root command with args and returns its stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, path := range [][]string{
		{"agent"}, {"create"}, {"sync"}, {"status"}, {"connectivity"},
		{"queue", "list"}, {"queue", "purge"},
	} {
		t.Run(fmt.Sprint(path), func(t *testing.T) {
			sub, _, err := cmd.Find(path)
			if err != nil {
				t.Fatalf("Find(%v) error = %v", path, err)
			}
			if sub.Name() != path[len(path)-1] {
				t.Errorf("Name() = %q, want %q", sub.Name(), path[len(path)-1])
			}
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()
	tests := []struct {
		flag string
		def  string
	}{
		{"format", "text"},
		{"agent-url", ""},
		{"timeout", "1m0s"},
		{"config", ""},
	}
	for _, tt := range tests {
		f := cmd.PersistentFlags().Lookup(tt.flag)
		if f == nil {
			t.Errorf("flag --%s missing", tt.flag)
			continue
		}
		if f.DefValue != tt.def {
			t.Errorf("--%s default = %q, want %q", tt.flag, f.DefValue, tt.def)
		}
	}
}

func TestInvalidFormatIsUsageError(t *testing.T) {
	_, err := runCLI(t, "--format", "yaml", "--agent-url", "http://127.0.0.1:1", "status")
	if got := GetExitCode(err); got != ExitUsage {
		t.Fatalf("exit code = %d (%v), want %d", got, err, ExitUsage)
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain", errors.New("boom"), ExitFailure},
		{"usage", usageError("bad"), ExitUsage},
		{"wrapped", fmt.Errorf("ctx: %w", &ExitError{Code: ExitUnavailable, Message: "down"}), ExitUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.want {
				t.Errorf("GetExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExitErrorUnwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := &ExitError{Code: ExitUnavailable, Message: "agent not reachable", Err: inner}
	if !errors.Is(err, inner) {
		t.Error("ExitError should unwrap to the cause")
	}
	if err.Error() != "agent not reachable: connection refused" {
		t.Errorf("Error() = %q", err.Error())
	}
}
