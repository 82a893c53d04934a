// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

/*
Package database is the server's document store for pizzas, comments and
replies, backed by DuckDB through github.com/duckdb/duckdb-go/v2.

Tables:
  - pizzas: toppings as a JSON array, optional idempotency_key
  - comments: pizza_id references the parent pizza
  - replies: comment_id references the parent comment

Each table carries a sequence-backed seq column. Reads order comments and
replies by seq (insertion order) and list pizzas by seq descending.

Idempotent creates:

CreatePizza and CreatePizzas look up the idempotency key before inserting.
A key seen before returns the stored pizza instead of inserting a copy, which
makes replays from the client's offline queue harmless. Creates are
serialized by a mutex so the lookup and insert are atomic with respect to
other creates.

Usage:

	db, err := database.New(&cfg.Database)
	if err != nil {
	    return err
	}
	defer db.Close()

	pizza, err := db.CreatePizza(ctx, models.PizzaInput{PizzaName: "Margherita", CreatedBy: "ana"})
	pizza, err = db.AddComment(ctx, pizza.ID, models.CommentInput{WrittenBy: "bo", CommentBody: "Nice"})

Lookups of unknown IDs return ErrPizzaNotFound or ErrCommentNotFound.
*/
package database
