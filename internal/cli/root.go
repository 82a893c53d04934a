// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

// Package cli implements the pizzahunt client command line: the agent
// daemon and the commands that talk to it.
package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/pizzahunt/internal/config"
	"github.com/tomtom215/pizzahunt/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	AgentURL   string
	Format     string // "text" | "json"
	Timeout    time.Duration
	LogLevel   string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the pizzahunt CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "pizzahunt",
		Short: "Pizza Hunt offline-first client",
		Long: `Pizza Hunt client. The agent keeps pizzas created while offline in a
durable local queue and replays them to the server when connectivity returns.
The other commands talk to a running agent over its loopback API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return usageError("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default: CONFIG_PATH or ./config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.AgentURL, "agent-url", "", "agent base URL (default: from agent.host and agent.port)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 60*time.Second, "request timeout for agent calls")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override the configured log level")

	cmd.AddCommand(NewAgentCommand(opts))
	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewQueueCommand(opts))
	cmd.AddCommand(NewConnectivityCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// loadConfig reads the layered configuration and applies the log level.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigPath != "" {
		cfg, err = config.LoadFile(opts.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, &ExitError{Code: ExitUsage, Message: "failed to load configuration", Err: err}
	}

	level := cfg.Logging.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	logging.Init(logging.Config{
		Level:     level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	return cfg, nil
}

// agentClient resolves the agent URL from the flag or the configuration.
func agentClient(opts *RootOptions) (*AgentClient, error) {
	if opts.AgentURL != "" {
		return NewAgentClient(opts.AgentURL, opts.Timeout), nil
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	return NewAgentClient(cfg.Agent.URL(), opts.Timeout), nil
}
