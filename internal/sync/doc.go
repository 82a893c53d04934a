// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

/*
Package sync drains the offline queue into the remote write endpoint.

The Engine moves between two states:

	IDLE -> SENDING -> IDLE

An attempt reads every queued record, submits them as one ordered batch and,
only when the remote accepts the whole batch, clears exactly the records it
read. Records appended while the batch is in flight stay queued for the next
attempt. A failed attempt leaves the queue untouched.

Attempts are triggered by:
  - startup, when the connectivity monitor is already online
  - every offline to online transition
  - an optional retry ticker while online
  - TriggerSync, called by the agent API and the CLI

A trigger arriving while an attempt is sending does not start a second one;
TriggerSync returns ErrSyncInProgress instead.

Delivery is at least once. Each record carries an idempotency key that the
server deduplicates on, so a crash between remote acceptance and the local
clear resubmits without creating duplicates.

Usage:

	engine := sync.NewEngine(q, remoteClient, monitor, sync.DefaultConfig())
	supervisor.AddSyncService(engine)

	res, err := engine.TriggerSync(ctx)
	if errors.Is(err, sync.ErrSyncInProgress) {
	    // an attempt is already running
	}
*/
package sync
