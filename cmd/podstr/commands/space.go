// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/podstr-project/podstr/cmd/podstr/cli"
)

func provisionCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "provision",
		Summary: "Create your pod storage layout",
		Description: `Create the storage layout for your identity on the pod server: the
root container named after your key, the event and document
sub-containers, and a WebID profile document embedding your Nostr
public key.

Provisioning is idempotent; running it against an existing pod is a
no-op.`,
		Usage: "podstr provision [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("provision", pflag.ContinueOnError)
			flagSet.StringVar(&configPath, "config", "", "path to configuration file")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("provision takes no arguments")
			}
			sess, err := newSession(configPath)
			if err != nil {
				return err
			}
			defer sess.Close()

			result := sess.space.Provision(context.Background())
			if result.Err != nil {
				return resultErr(result.Err)
			}
			return cli.WriteJSON(result.Data)
		},
	}
}

func linkCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "link",
		Summary: "Link your Nostr key to your WebID profile",
		Description: `Embed your Nostr public key in your WebID profile document, so that
other users can resolve your WebID back to your key.

The profile is patched in place when the server supports SPARQL
updates, and rebuilt wholesale otherwise.`,
		Usage: "podstr link [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("link", pflag.ContinueOnError)
			flagSet.StringVar(&configPath, "config", "", "path to configuration file")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("link takes no arguments")
			}
			sess, err := newSession(configPath)
			if err != nil {
				return err
			}
			defer sess.Close()

			result := sess.bridge.Link(context.Background())
			if result.Err != nil {
				return resultErr(result.Err)
			}
			return cli.WriteJSON(result.Data)
		},
	}
}

func resolveCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "resolve",
		Summary: "Resolve between a Nostr key and a WebID",
		Description: `Resolve an identity in either direction: given a hex public key,
derive and verify the WebID it maps to; given a WebID URL, read the
profile document and extract the embedded public key.

The Verified field of the output reports whether the profile document
confirmed the mapping.`,
		Usage: "podstr resolve <pubkey-or-webid> [flags]",
		Examples: []cli.Example{
			{
				Description: "Find the WebID for a public key",
				Command:     "podstr resolve 3bf0c63f...",
			},
			{
				Description: "Find the public key behind a WebID",
				Command:     "podstr resolve https://pod.example/3bf0c63fcb93463407af/profile/card#me",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("resolve", pflag.ContinueOnError)
			flagSet.StringVar(&configPath, "config", "", "path to configuration file")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one pubkey or WebID argument")
			}
			sess, err := newSession(configPath)
			if err != nil {
				return err
			}
			defer sess.Close()

			ctx := context.Background()
			if strings.Contains(args[0], "://") {
				result := sess.bridge.Resolve(ctx, args[0])
				if result.Err != nil {
					return resultErr(result.Err)
				}
				return cli.WriteJSON(result.Data)
			}
			result := sess.bridge.ResolveWebID(ctx, args[0])
			if result.Err != nil {
				return resultErr(result.Err)
			}
			return cli.WriteJSON(result.Data)
		},
	}
}
