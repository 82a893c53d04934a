// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

// Command pizzahunt is the offline-first client: `pizzahunt agent` runs the
// durable queue and sync engine, the other subcommands talk to it.
//
//	pizzahunt agent &
//	pizzahunt create --name Margherita --by alice --topping basil
//	pizzahunt queue list
//	pizzahunt sync
package main

import (
	"fmt"
	"os"

	"github.com/tomtom215/pizzahunt/internal/api"
	"github.com/tomtom215/pizzahunt/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	api.Version = version

	if err := cli.NewRootCommand().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
