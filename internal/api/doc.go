// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

/*
Package api provides the HTTP surfaces of Pizza Hunt.

The server side (Handler, Router) is the remote write endpoint and read API
backed by the DuckDB document store:

	GET    /api/pizzas                              newest first, comments populated
	POST   /api/pizzas                              object or array, 200 when every entry is a replay
	GET    /api/pizzas/{id}
	PUT    /api/pizzas/{id}
	DELETE /api/pizzas/{id}
	POST   /api/pizzas/{pizzaId}/comments           returns the pizza
	POST   /api/comments/{commentId}/replies        returns the comment
	DELETE /api/comments/{commentId}                returns the parent pizza
	DELETE /api/comments/{commentId}/replies/{replyId}
	GET    /api/health/live, /api/health/ready
	GET    /metrics, /ws

Every response uses models.APIResponse. Errors also set the top-level
"message" field, which is what the client agent checks to detect an
application error inside a 2xx.

The client side (AgentHandler, SetupAgentChi) is the agent's loopback API
used by the pizzahunt CLI:

	POST   /agent/pizzas        created (201) or queued (202)
	POST   /agent/sync          one sync attempt, 409 while another is sending
	GET    /agent/status
	GET    /agent/queue, DELETE /agent/queue
	POST   /agent/connectivity  {"online": bool}

Middleware order on the server mux is RequestID, RealIP (only with trusted
proxies), Recoverer, CORS, AccessLog. The /api group adds httprate limiting,
Prometheus metrics and a body size cap; health probes skip those so polling
agents are never throttled.
*/
package api
