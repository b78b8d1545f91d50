// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete podstr CLI command tree.
package commands

import (
	"fmt"

	"github.com/podstr-project/podstr/cmd/podstr/cli"
	"github.com/podstr-project/podstr/lib/version"
)

// Root builds and returns the complete podstr CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "podstr",
		Description: `podstr: store Nostr events in Solid pods.

Events are signed locally and written to your personal pod as Turtle
documents. Writes made while the pod server is unreachable are queued
on disk and replayed by 'podstr sync'.

Authentication uses the Nostr key in PODSTR_SECRET_KEY (hex or nsec).
Server settings come from the file named by PODSTR_CONFIG or --config.`,
		Subcommands: []*cli.Command{
			provisionCommand(),
			storeCommand(),
			getCommand(),
			removeCommand(),
			listCommand(),
			aclCommand(),
			linkCommand(),
			resolveCommand(),
			syncCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ []string) error {
					fmt.Printf("podstr %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Create your pod storage layout (run once per pod)",
				Command:     "podstr provision",
			},
			{
				Description: "Store a signed event from a file",
				Command:     "podstr store event.json",
			},
			{
				Description: "List your text notes",
				Command:     "podstr ls --kind 1 --limit 20",
			},
			{
				Description: "Share a document with another user",
				Command:     "podstr acl grant <resource-url> --pubkey <hex> --modes Read,Write",
			},
			{
				Description: "Replay writes queued while offline",
				Command:     "podstr sync run",
			},
		},
	}
}
