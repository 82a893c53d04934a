// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

/*
Package services holds suture.Service adapters for components that do not
already expose a context-aware Serve method.

Most Pizza Hunt components implement Serve themselves (queue.Collector,
connectivity.Monitor, sync.Engine, ws.Hub, events.Service). The HTTP
listener is the exception: *http.Server speaks ListenAndServe/Shutdown,
so HTTPServerService translates that into Serve.

	server := &http.Server{Addr: ":3001", Handler: router.SetupChi()}
	tree.AddAPIService(services.NewHTTPServerService(server, "http-server", 10*time.Second))

Return values follow suture's rules: a listener error triggers a restart
with backoff, ctx.Err() after cancellation is a normal stop.
*/
package services
