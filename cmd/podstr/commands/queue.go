// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/podstr-project/podstr/cmd/podstr/cli"
)

// queueStatus is the JSON shape printed by 'sync status'.
type queueStatus struct {
	QueueLength int   `json:"queue_length"`
	FailedItems int   `json:"failed_items"`
	LastSyncAt  int64 `json:"last_sync_at"`
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:    "sync",
		Summary: "Manage the offline write queue",
		Description: `Inspect and replay writes that were queued while the pod server was
unreachable.

Queued writes persist across restarts. Replay preserves order; an
item that keeps failing is retried up to the configured ceiling and
then dropped with a warning.`,
		Subcommands: []*cli.Command{
			syncRunCommand(),
			syncStatusCommand(),
		},
	}
}

func syncRunCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "run",
		Summary: "Replay queued writes against the pod",
		Usage:   "podstr sync run [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("run", pflag.ContinueOnError)
			flagSet.StringVar(&configPath, "config", "", "path to configuration file")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("sync run takes no arguments")
			}
			sess, err := newSession(configPath)
			if err != nil {
				return err
			}
			defer sess.Close()

			result := sess.storage.ProcessSyncQueue(context.Background())
			if result.Err != nil {
				return resultErr(result.Err)
			}
			return cli.WriteJSON(result.Data)
		},
	}
}

func syncStatusCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "status",
		Summary: "Show the offline queue state",
		Usage:   "podstr sync status [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("status", pflag.ContinueOnError)
			flagSet.StringVar(&configPath, "config", "", "path to configuration file")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("sync status takes no arguments")
			}
			sess, err := newSession(configPath)
			if err != nil {
				return err
			}
			defer sess.Close()

			return cli.WriteJSON(queueStatus{
				QueueLength: sess.storage.QueueLength(),
				FailedItems: sess.storage.FailedItems(),
				LastSyncAt:  sess.storage.LastSyncAt(),
			})
		},
	}
}
