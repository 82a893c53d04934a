// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

package cli

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/pizzahunt/internal/api"
	"github.com/tomtom215/pizzahunt/internal/config"
	"github.com/tomtom215/pizzahunt/internal/connectivity"
	"github.com/tomtom215/pizzahunt/internal/interceptor"
	"github.com/tomtom215/pizzahunt/internal/logging"
	"github.com/tomtom215/pizzahunt/internal/metrics"
	"github.com/tomtom215/pizzahunt/internal/queue"
	"github.com/tomtom215/pizzahunt/internal/remote"
	"github.com/tomtom215/pizzahunt/internal/supervisor"
	"github.com/tomtom215/pizzahunt/internal/supervisor/services"
	syncpkg "github.com/tomtom215/pizzahunt/internal/sync"
)

// NewAgentCommand creates the agent command.
func NewAgentCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "agent",
		Short: "Run the offline queue, sync engine and local API",
		Long: `Run the client agent in the foreground.

The agent probes the server, queues creates while it is unreachable and
replays the queue once per offline to online transition. Other pizzahunt
commands reach it on agent.host:agent.port (default 127.0.0.1:3002).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runAgent(ctx, cfg)
		},
	}
}

// agentRuntime is the set of components behind one running agent.
type agentRuntime struct {
	queue   *queue.BadgerQueue
	client  *remote.Client
	monitor *connectivity.Monitor
	engine  *syncpkg.Engine
	handler http.Handler
	tree    *supervisor.SupervisorTree
	server  *http.Server
}

// queueConfigFrom maps the agent settings onto the queue defaults.
func queueConfigFrom(cfg config.QueueConfig) queue.Config {
	qcfg := queue.DefaultConfig()
	qcfg.Path = cfg.Path
	qcfg.SyncWrites = cfg.SyncWrites
	if cfg.GCInterval > 0 {
		qcfg.GCInterval = cfg.GCInterval
	}
	if cfg.CloseTimeout > 0 {
		qcfg.CloseTimeout = cfg.CloseTimeout
	}
	return qcfg
}

// newAgentRuntime opens the queue and wires the agent services. The initial
// connectivity probe runs here, so ctx bounds it.
func newAgentRuntime(ctx context.Context, cfg *config.Config) (*agentRuntime, error) {
	qcfg := queueConfigFrom(cfg.Queue)
	q, err := queue.Open(&qcfg)
	if err != nil {
		return nil, &ExitError{Code: ExitUnavailable, Message: "failed to open offline queue", Err: err}
	}

	rcfg := remote.DefaultConfig()
	rcfg.BaseURL = cfg.Remote.URL
	rcfg.Timeout = cfg.Remote.Timeout
	rcfg.RequestsPerSecond = cfg.Remote.RequestsPerSecond
	rcfg.Burst = cfg.Remote.Burst
	if cfg.Remote.UserAgent != "" {
		rcfg.UserAgent = cfg.Remote.UserAgent
	}
	client, err := remote.NewClient(rcfg)
	if err != nil {
		_ = q.Close()
		return nil, &ExitError{Code: ExitUsage, Message: "invalid remote configuration", Err: err}
	}

	prober := connectivity.NewHTTPProber(cfg.Remote.URL, cfg.Connectivity.ProbeTimeout)
	monitor := connectivity.NewMonitor(ctx, prober, connectivity.Config{
		PollInterval: cfg.Connectivity.PollInterval,
		ProbeTimeout: cfg.Connectivity.ProbeTimeout,
	})

	engine := syncpkg.NewEngine(q, client, monitor, syncpkg.Config{
		AttemptTimeout: cfg.Sync.AttemptTimeout,
		RetryInterval:  cfg.Sync.RetryInterval,
	})

	writes := interceptor.New(monitor, client, q)
	handler := api.NewAgentHandler(writes, engine, q, monitor, cfg.Remote.URL).
		WithBreakerState(client.BreakerState)
	mux := api.SetupAgentChi(handler, cfg.Security.MaxBodyBytes)

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		Name:            "pizzahunt-agent",
		FailureBackoff:  5 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	})
	if err != nil {
		_ = q.Close()
		return nil, fmt.Errorf("failed to create supervisor tree: %w", err)
	}

	server := &http.Server{
		Addr:              cfg.Agent.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	tree.AddStorageService(queue.NewCollector(q))
	tree.AddMessagingService(monitor)
	tree.AddMessagingService(engine)
	tree.AddAPIService(services.NewHTTPServerService(server, "agent-api", 10*time.Second))

	return &agentRuntime{
		queue:   q,
		client:  client,
		monitor: monitor,
		engine:  engine,
		handler: mux,
		tree:    tree,
		server:  server,
	}, nil
}

// close releases the queue. Call it after the tree has stopped.
func (rt *agentRuntime) close() {
	if err := rt.queue.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing offline queue")
	}
}

func runAgent(ctx context.Context, cfg *config.Config) error {
	metrics.AppInfo.WithLabelValues(api.Version, "agent").Set(1)

	rt, err := newAgentRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	if n, err := rt.queue.Len(ctx); err == nil && n > 0 {
		logging.Info().Int("pending", n).Msg("Offline queue holds unsynced pizzas from a previous run")
	}

	logging.Info().
		Str("agent_addr", rt.server.Addr).
		Str("remote", cfg.Remote.URL).
		Bool("online", rt.monitor.Online()).
		Msg("Pizza Hunt agent started")

	err = rt.tree.Serve(ctx)
	if report, rerr := rt.tree.UnstoppedServiceReport(); rerr == nil {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop")
		}
	}
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("agent stopped: %w", err)
	}
	logging.Info().Msg("Pizza Hunt agent stopped")
	return nil
}
