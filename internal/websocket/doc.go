// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

/*
Package websocket pushes document store changes to browsers over /ws.

The Hub owns the client set and runs as a supervised service. Events from
the event bus reach it through Hub.HandleEvent and go out as

	{"type": "pizza_created", "data": {...event...}}

Clients may send {"type": "ping"} and receive {"type": "pong"}. A client whose
256-message buffer fills up is disconnected rather than slowing the hub.

Wiring:

	hub := websocket.NewHub()
	supervisor.Add(hub)
	supervisor.Add(events.NewService(bus, hub.HandleEvent))

	upgrader := websocket.Upgrader(cfg.Security.CORSOrigins)
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
	    websocket.ServeWS(hub, &upgrader, w, r)
	})
*/
package websocket
