// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/podstr-project/podstr/cmd/podstr/cli"
	"github.com/podstr-project/podstr/lib/storage"
	"github.com/podstr-project/podstr/lib/turtle"
)

// eventOutput is the JSON shape printed for event operations.
type eventOutput struct {
	Event   *turtle.Event `json:"event,omitempty"`
	URL     string        `json:"url,omitempty"`
	Pending bool          `json:"pending,omitempty"`
}

// readEventArg loads an event as JSON from the named file, or from
// stdin when the argument is "-" or absent.
func readEventArg(args []string) (*turtle.Event, error) {
	var data []byte
	var err error
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return nil, fmt.Errorf("reading event: %w", err)
	}
	var event turtle.Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("parsing event JSON: %w", err)
	}
	return &event, nil
}

func storeCommand() *cli.Command {
	var configPath string
	var container string
	var encrypt bool

	return &cli.Command{
		Name:    "store",
		Summary: "Store an event in your pod",
		Description: `Store a Nostr event in your pod as a Turtle document.

The event is read as JSON from the named file, or from stdin when no
file is given. Events that are not yet signed are signed with the
session key before upload.

With --encrypt the event content is encrypted to your own key before
it leaves the machine, and the event lands in the encrypted-events
container instead of the plain one.

If the pod server is unreachable the write is queued locally; run
'podstr sync run' once you are back online.`,
		Usage: "podstr store [event-file] [flags]",
		Examples: []cli.Example{
			{
				Description: "Store an event from a file",
				Command:     "podstr store event.json",
			},
			{
				Description: "Store an encrypted event piped from another tool",
				Command:     "nak event -k 1 -c 'private note' | podstr store --encrypt",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("store", pflag.ContinueOnError)
			flagSet.StringVar(&configPath, "config", "", "path to configuration file")
			flagSet.StringVar(&container, "container", "", "container name or URL overriding the default")
			flagSet.BoolVar(&encrypt, "encrypt", false, "encrypt content to your own key before upload")
			return flagSet
		},
		Run: func(args []string) error {
			event, err := readEventArg(args)
			if err != nil {
				return err
			}

			sess, err := newSession(configPath)
			if err != nil {
				return err
			}
			defer sess.Close()

			if event.Sig == "" {
				if err := sess.id.Sign(&event.Event); err != nil {
					return fmt.Errorf("signing event: %w", err)
				}
			}

			result := sess.storage.Store(context.Background(), event, storage.StoreOptions{
				Container: container,
				Encrypt:   encrypt,
			})
			if result.Err != nil {
				return resultErr(result.Err)
			}
			return cli.WriteJSON(eventOutput{
				Event:   result.Data,
				URL:     result.URL,
				Pending: result.Pending,
			})
		},
	}
}

func getCommand() *cli.Command {
	var configPath string
	var container string

	return &cli.Command{
		Name:    "get",
		Summary: "Retrieve an event by ID",
		Description: `Retrieve an event from your pod by its event ID.

Without --container both the plain and encrypted containers are
probed, plain first. Encrypted events are decrypted with the session
key before printing.`,
		Usage: "podstr get <event-id> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("get", pflag.ContinueOnError)
			flagSet.StringVar(&configPath, "config", "", "path to configuration file")
			flagSet.StringVar(&container, "container", "", "container name or URL to read from")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one event ID argument")
			}

			sess, err := newSession(configPath)
			if err != nil {
				return err
			}
			defer sess.Close()

			var result storage.Result[*turtle.Event]
			if container != "" {
				result = sess.storage.Retrieve(context.Background(), args[0], container)
			} else {
				result = sess.storage.Retrieve(context.Background(), args[0])
			}
			if result.Err != nil {
				return resultErr(result.Err)
			}
			return cli.WriteJSON(eventOutput{Event: result.Data, URL: result.URL})
		},
	}
}

func removeCommand() *cli.Command {
	var configPath string
	var container string

	return &cli.Command{
		Name:    "rm",
		Summary: "Delete an event from your pod",
		Description: `Delete an event from your pod by its event ID.

If the pod server is unreachable the deletion is queued locally and
replayed by 'podstr sync run'.`,
		Usage: "podstr rm <event-id> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("rm", pflag.ContinueOnError)
			flagSet.StringVar(&configPath, "config", "", "path to configuration file")
			flagSet.StringVar(&container, "container", "", "container name or URL to delete from")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one event ID argument")
			}

			sess, err := newSession(configPath)
			if err != nil {
				return err
			}
			defer sess.Close()

			var result storage.Result[struct{}]
			if container != "" {
				result = sess.storage.Delete(context.Background(), args[0], container)
			} else {
				result = sess.storage.Delete(context.Background(), args[0])
			}
			if result.Err != nil {
				return resultErr(result.Err)
			}
			return cli.WriteJSON(eventOutput{URL: result.URL, Pending: result.Pending})
		},
	}
}

func listCommand() *cli.Command {
	var configPath string
	var container string
	var kind int
	var pubkey string
	var since, until int64
	var limit, offset int

	return &cli.Command{
		Name:    "ls",
		Summary: "List events in your pod",
		Description: `List events stored in your pod, newest first.

Filters narrow the listing: --kind matches the Nostr event kind,
--pubkey the author, --since and --until bound the created-at
timestamp (Unix seconds, inclusive since, exclusive until).`,
		Usage: "podstr ls [flags]",
		Examples: []cli.Example{
			{
				Description: "Twenty most recent text notes",
				Command:     "podstr ls --kind 1 --limit 20",
			},
			{
				Description: "Events from a specific author this week",
				Command:     "podstr ls --pubkey <hex> --since 1756000000",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("ls", pflag.ContinueOnError)
			flagSet.StringVar(&configPath, "config", "", "path to configuration file")
			flagSet.StringVar(&container, "container", "", "container name or URL to list")
			flagSet.IntVar(&kind, "kind", -1, "filter by event kind")
			flagSet.StringVar(&pubkey, "pubkey", "", "filter by author public key (hex)")
			flagSet.Int64Var(&since, "since", 0, "events created at or after this Unix timestamp")
			flagSet.Int64Var(&until, "until", 0, "events created before this Unix timestamp")
			flagSet.IntVarP(&limit, "limit", "n", 0, "maximum number of events to return")
			flagSet.IntVar(&offset, "offset", 0, "number of events to skip")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("ls takes no positional arguments")
			}

			sess, err := newSession(configPath)
			if err != nil {
				return err
			}
			defer sess.Close()

			options := storage.ListOptions{
				Container: container,
				Limit:     limit,
				Offset:    offset,
				Filter:    storage.Filter{PubKey: pubkey},
			}
			if kind >= 0 {
				options.Filter.Kind = &kind
			}
			if since > 0 {
				options.Filter.Since = &since
			}
			if until > 0 {
				options.Filter.Until = &until
			}

			result := sess.storage.List(context.Background(), options)
			if result.Err != nil {
				return resultErr(result.Err)
			}
			return cli.WriteJSON(result.Data)
		},
	}
}
