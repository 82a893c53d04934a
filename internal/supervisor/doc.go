// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

/*
Package supervisor wires long-running Pizza Hunt services into a suture v4
tree.

Both binaries use the same three layers:

	pizzahunt (server)
	├── storage-layer
	├── messaging-layer
	│   ├── ws.Hub
	│   └── events.Service (bus -> websocket fan-out)
	└── api-layer
	    └── http-server

	pizzahunt-agent (client)
	├── storage-layer
	│   └── queue.Collector (Badger value log GC, gauges)
	├── messaging-layer
	│   ├── connectivity.Monitor
	│   └── sync.Engine (drains the queue on reconnect)
	└── api-layer
	    └── agent-api

Each layer has its own failure counter, so a crash loop in the sync engine
backs off without restarting the loopback API. Supervisor events are logged
through sutureslog.

Shutdown is driven by canceling the context passed to Serve. Services that
miss TreeConfig.ShutdownTimeout show up in UnstoppedServiceReport.
*/
package supervisor
