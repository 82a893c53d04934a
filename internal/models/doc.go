// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

/*
Package models defines the documents exchanged between the pizzahunt client
and server.

  - Pizza: top-level document with ordered toppings and ordered comments
  - Comment: belongs to one pizza, embeds ordered replies
  - Reply: addressed by its own ReplyID
  - PizzaInput, CommentInput, ReplyInput: creatable fields, validated with
    go-playground/validator tags
  - APIResponse: the envelope every HTTP endpoint returns

Timestamps marshal in the display format ("Oct 18th, 2026 at 3:04 pm").
*/
package models
