// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/pizzahunt/internal/api"
	"github.com/tomtom215/pizzahunt/internal/models"
	"github.com/tomtom215/pizzahunt/internal/queue"
	syncpkg "github.com/tomtom215/pizzahunt/internal/sync"
)

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var input models.PizzaInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a pizza, queueing it if the server is unreachable",
		Long: `Create a pizza through the agent. When the agent is online the server
creates it immediately; when offline it is stored in the local queue and sent
on the next sync.`,
		Example: `  pizzahunt create --name "Margherita" --by alice --topping basil --topping mozzarella`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(input.PizzaName) == "" || strings.TrimSpace(input.CreatedBy) == "" {
				return usageError("--name and --by are required")
			}
			client, err := agentClient(rootOpts)
			if err != nil {
				return err
			}
			out, err := client.CreatePizza(cmd.Context(), input)
			if err != nil {
				return err
			}
			p := &printer{format: rootOpts.Format, w: cmd.OutOrStdout()}
			return p.result(out, func(w io.Writer) { printOutcome(w, out) })
		},
	}

	cmd.Flags().StringVarP(&input.PizzaName, "name", "n", "", "pizza name (required)")
	cmd.Flags().StringVarP(&input.CreatedBy, "by", "b", "", "creator name (required)")
	cmd.Flags().StringVar(&input.Size, "size", "", "pizza size (server default: Large)")
	cmd.Flags().StringSliceVarP(&input.Toppings, "topping", "t", nil, "topping, repeatable")

	return cmd
}

func printOutcome(w io.Writer, out CreateOutcome) {
	switch out.Outcome {
	case "created":
		if out.Pizza != nil {
			_, _ = fmt.Fprintf(w, "created %s (%s)\n", out.Pizza.ID, out.Pizza.PizzaName)
			return
		}
		_, _ = fmt.Fprintln(w, "created")
	case "queued":
		_, _ = fmt.Fprintf(w, "queued offline as #%d, will sync when online\n", out.LocalID)
	default:
		_, _ = fmt.Fprintf(w, "%s\n", out.Outcome)
	}
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Send queued pizzas to the server now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := agentClient(rootOpts)
			if err != nil {
				return err
			}
			res, err := client.Sync(cmd.Context())
			if err != nil {
				return err
			}
			p := &printer{format: rootOpts.Format, w: cmd.OutOrStdout()}
			return p.result(res, func(w io.Writer) { printSyncResult(w, res) })
		},
	}
}

func printSyncResult(w io.Writer, res syncpkg.Result) {
	if res.Sent == 0 {
		_, _ = fmt.Fprintln(w, "nothing to sync")
		return
	}
	_, _ = fmt.Fprintf(w, "synced %d pizza(s) in %s\n", res.Sent, res.Duration.Round(time.Millisecond))
	for _, pz := range res.Pizzas {
		_, _ = fmt.Fprintf(w, "  %s  %s\n", pz.ID, pz.PizzaName)
	}
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show connectivity, sync and queue state of the agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := agentClient(rootOpts)
			if err != nil {
				return err
			}
			st, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}
			p := &printer{format: rootOpts.Format, w: cmd.OutOrStdout()}
			return p.result(st, func(w io.Writer) { printStatus(w, st) })
		},
	}
}

func printStatus(w io.Writer, st api.AgentStatus) {
	conn := "offline"
	if st.Online {
		conn = "online"
	}
	_, _ = fmt.Fprintf(w, "connectivity: %s\n", conn)
	_, _ = fmt.Fprintf(w, "remote:       %s", st.RemoteURL)
	if st.BreakerState != "" {
		_, _ = fmt.Fprintf(w, " (breaker %s)", st.BreakerState)
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "sync:         %s, %d sent\n", st.Sync.State, st.Sync.TotalSent)
	if st.Sync.LastError != "" {
		_, _ = fmt.Fprintf(w, "last error:   %s\n", st.Sync.LastError)
	}
	_, _ = fmt.Fprintf(w, "queue:        %d pending\n", st.Queue.Pending)
}

// NewQueueCommand creates the queue command group.
func NewQueueCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect or purge the offline queue",
	}
	cmd.AddCommand(newQueueListCommand(rootOpts))
	cmd.AddCommand(newQueuePurgeCommand(rootOpts))
	return cmd
}

func newQueueListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pizzas waiting to be synced, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := agentClient(rootOpts)
			if err != nil {
				return err
			}
			records, err := client.ListQueue(cmd.Context())
			if err != nil {
				return err
			}
			p := &printer{format: rootOpts.Format, w: cmd.OutOrStdout()}
			return p.result(records, func(w io.Writer) { printRecords(w, records) })
		},
	}
}

func printRecords(w io.Writer, records []queue.Record) {
	if len(records) == 0 {
		_, _ = fmt.Fprintln(w, "queue is empty")
		return
	}
	for i := range records {
		var in models.PizzaInput
		name := "<unreadable payload>"
		if err := records[i].UnmarshalPayload(&in); err == nil {
			name = fmt.Sprintf("%s by %s", in.PizzaName, in.CreatedBy)
		}
		_, _ = fmt.Fprintf(w, "#%d  %s  %s\n", records[i].ID, records[i].CreatedAt.Format("2006-01-02 15:04:05"), name)
	}
}

func newQueuePurgeCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Drop every queued pizza without sending it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return usageError("purge discards unsynced pizzas; pass --yes to confirm")
			}
			client, err := agentClient(rootOpts)
			if err != nil {
				return err
			}
			n, err := client.PurgeQueue(cmd.Context())
			if err != nil {
				return err
			}
			p := &printer{format: rootOpts.Format, w: cmd.OutOrStdout()}
			return p.result(map[string]int{"purged": n}, func(w io.Writer) {
				_, _ = fmt.Fprintf(w, "purged %d record(s)\n", n)
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the purge")
	return cmd
}

// NewConnectivityCommand creates the connectivity command.
func NewConnectivityCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "connectivity <online|offline>",
		Short:     "Override the agent's connectivity signal until the next probe",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"online", "offline"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var online bool
			switch args[0] {
			case "online":
				online = true
			case "offline":
			default:
				return usageError("expected online or offline, got %q", args[0])
			}
			client, err := agentClient(rootOpts)
			if err != nil {
				return err
			}
			now, err := client.SetConnectivity(cmd.Context(), online)
			if err != nil {
				return err
			}
			p := &printer{format: rootOpts.Format, w: cmd.OutOrStdout()}
			return p.result(map[string]bool{"online": now}, func(w io.Writer) {
				state := "offline"
				if now {
					state = "online"
				}
				_, _ = fmt.Fprintf(w, "agent is %s\n", state)
			})
		},
	}
}
