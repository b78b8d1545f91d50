// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/podstr-project/podstr/cmd/podstr/cli"
	"github.com/podstr-project/podstr/lib/turtle"
)

// parseModes converts a comma-separated flag value into access modes.
func parseModes(value string) ([]turtle.Mode, error) {
	if value == "" {
		return nil, nil
	}
	var modes []turtle.Mode
	for _, name := range strings.Split(value, ",") {
		name = strings.TrimSpace(name)
		switch strings.ToLower(name) {
		case "read":
			modes = append(modes, turtle.Read)
		case "write":
			modes = append(modes, turtle.Write)
		case "append":
			modes = append(modes, turtle.Append)
		case "control":
			modes = append(modes, turtle.Control)
		default:
			return nil, fmt.Errorf("unknown access mode %q (valid: Read, Write, Append, Control)", name)
		}
	}
	return turtle.NormalizeModes(modes), nil
}

// subjectFlags holds the mutually-exclusive subject selection flags
// shared by grant and revoke.
type subjectFlags struct {
	pubkey        string
	webID         string
	group         string
	public        bool
	authenticated bool
}

func (f *subjectFlags) register(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.pubkey, "pubkey", "", "grant subject by Nostr public key (hex)")
	flagSet.StringVar(&f.webID, "agent", "", "grant subject by WebID URL")
	flagSet.StringVar(&f.group, "group", "", "grant subject by group document URL")
	flagSet.BoolVar(&f.public, "public", false, "everyone, including anonymous readers")
	flagSet.BoolVar(&f.authenticated, "authenticated", false, "any logged-in agent")
}

// subject resolves the flags into one ACL subject. Public keys are
// translated to WebIDs through the session's identity bridge.
func (f *subjectFlags) subject(sess *session) (turtle.Subject, error) {
	set := 0
	for _, chosen := range []bool{f.pubkey != "", f.webID != "", f.group != "", f.public, f.authenticated} {
		if chosen {
			set++
		}
	}
	if set != 1 {
		return turtle.Subject{}, fmt.Errorf("exactly one of --pubkey, --agent, --group, --public, --authenticated is required")
	}
	switch {
	case f.pubkey != "":
		webID, err := sess.bridge.WebID(f.pubkey)
		if err != nil {
			return turtle.Subject{}, err
		}
		return turtle.Agent(webID), nil
	case f.webID != "":
		return turtle.Agent(f.webID), nil
	case f.group != "":
		return turtle.Group(f.group), nil
	case f.public:
		return turtle.Public, nil
	default:
		return turtle.Authenticated, nil
	}
}

func aclCommand() *cli.Command {
	return &cli.Command{
		Name:    "acl",
		Summary: "Manage access control on pod resources",
		Description: `Read and edit the Web Access Control document of a pod resource.

Grants name a subject (an agent, a group, the authenticated class, or
the public) and the modes it may exercise: Read, Write, Append,
Control. Your own Control access is always preserved; the tool
refuses edits that would lock you out of your own resources.`,
		Subcommands: []*cli.Command{
			aclGetCommand(),
			aclGrantCommand(),
			aclRevokeCommand(),
			aclSyncCommand(),
			aclCheckCommand(),
		},
	}
}

func aclGetCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "get",
		Summary: "Show the access entries of a resource",
		Usage:   "podstr acl get <resource-url> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("get", pflag.ContinueOnError)
			flagSet.StringVar(&configPath, "config", "", "path to configuration file")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one resource URL argument")
			}
			sess, err := newSession(configPath)
			if err != nil {
				return err
			}
			defer sess.Close()

			result := sess.acl.Get(context.Background(), args[0])
			if result.Err != nil {
				return resultErr(result.Err)
			}
			return cli.WriteJSON(result.Data)
		},
	}
}

func aclGrantCommand() *cli.Command {
	var configPath string
	var modesFlag string
	var subject subjectFlags

	return &cli.Command{
		Name:    "grant",
		Summary: "Grant access modes to a subject",
		Description: `Grant access modes on a resource to a subject.

Modes for a subject that already holds access are merged rather than
replaced.`,
		Usage: "podstr acl grant <resource-url> [flags]",
		Examples: []cli.Example{
			{
				Description: "Let another user read and comment on a document",
				Command:     "podstr acl grant https://pod.example/alice/documents/draft --pubkey <hex> --modes Read,Append",
			},
			{
				Description: "Publish a container to the world",
				Command:     "podstr acl grant https://pod.example/alice/events/ --public --modes Read",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("grant", pflag.ContinueOnError)
			flagSet.StringVar(&configPath, "config", "", "path to configuration file")
			flagSet.StringVar(&modesFlag, "modes", "", "comma-separated modes to grant (Read,Write,Append,Control)")
			subject.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one resource URL argument")
			}
			modes, err := parseModes(modesFlag)
			if err != nil {
				return err
			}
			if len(modes) == 0 {
				return fmt.Errorf("--modes is required")
			}

			sess, err := newSession(configPath)
			if err != nil {
				return err
			}
			defer sess.Close()

			who, err := subject.subject(sess)
			if err != nil {
				return err
			}

			result := sess.acl.Grant(context.Background(), args[0], who, modes)
			if result.Err != nil {
				return resultErr(result.Err)
			}
			return cli.WriteJSON(result.Data)
		},
	}
}

func aclRevokeCommand() *cli.Command {
	var configPath string
	var modesFlag string
	var subject subjectFlags

	return &cli.Command{
		Name:    "revoke",
		Summary: "Revoke access modes from a subject",
		Description: `Revoke access modes on a resource from a subject.

Without --modes the subject's entry is removed entirely. Revoking
your own Control access is refused.`,
		Usage: "podstr acl revoke <resource-url> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("revoke", pflag.ContinueOnError)
			flagSet.StringVar(&configPath, "config", "", "path to configuration file")
			flagSet.StringVar(&modesFlag, "modes", "", "comma-separated modes to revoke (empty revokes all)")
			subject.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one resource URL argument")
			}
			modes, err := parseModes(modesFlag)
			if err != nil {
				return err
			}

			sess, err := newSession(configPath)
			if err != nil {
				return err
			}
			defer sess.Close()

			who, err := subject.subject(sess)
			if err != nil {
				return err
			}

			result := sess.acl.Revoke(context.Background(), args[0], who, modes)
			if result.Err != nil {
				return resultErr(result.Err)
			}
			return cli.WriteJSON(result.Data)
		},
	}
}

func aclSyncCommand() *cli.Command {
	var configPath string
	var modesFlag string
	var members []string
	var cohorts []string

	return &cli.Command{
		Name:    "sync",
		Summary: "Replace a resource's membership grants",
		Description: `Replace the per-agent access entries of a resource with the given
member set.

Each --member is a Nostr public key; the modes granted come from
--modes when given, otherwise from the union of the named --cohort
roles (admin, business, member, guest). Entries for the public, the
authenticated class, and your own Control access are preserved.`,
		Usage: "podstr acl sync <resource-url> [flags]",
		Examples: []cli.Example{
			{
				Description: "Sync a shared container to two business-role members",
				Command:     "podstr acl sync https://pod.example/alice/documents/ --member <hex1> --member <hex2> --cohort business",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("sync", pflag.ContinueOnError)
			flagSet.StringVar(&configPath, "config", "", "path to configuration file")
			flagSet.StringArrayVar(&members, "member", nil, "member public key (hex); repeatable")
			flagSet.StringArrayVar(&cohorts, "cohort", nil, "cohort role granting modes; repeatable")
			flagSet.StringVar(&modesFlag, "modes", "", "explicit modes overriding cohort roles")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one resource URL argument")
			}
			modes, err := parseModes(modesFlag)
			if err != nil {
				return err
			}
			if len(modes) == 0 && len(cohorts) == 0 {
				return fmt.Errorf("either --modes or at least one --cohort is required")
			}

			sess, err := newSession(configPath)
			if err != nil {
				return err
			}
			defer sess.Close()

			result := sess.acl.SyncFromCohorts(context.Background(), args[0], members, cohorts, modes)
			if result.Err != nil {
				return resultErr(result.Err)
			}
			return cli.WriteJSON(result.Data)
		},
	}
}

func aclCheckCommand() *cli.Command {
	var configPath string
	var modeFlag string

	return &cli.Command{
		Name:    "check",
		Summary: "Check whether a key holds an access mode",
		Description: `Check whether a Nostr public key holds an access mode on a resource,
per the resource's current ACL document.

Group entries are not expanded; only direct agent grants and the
public and authenticated classes count.`,
		Usage: "podstr acl check <resource-url> <pubkey> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("check", pflag.ContinueOnError)
			flagSet.StringVar(&configPath, "config", "", "path to configuration file")
			flagSet.StringVar(&modeFlag, "mode", "Read", "access mode to check")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected resource URL and pubkey arguments")
			}
			modes, err := parseModes(modeFlag)
			if err != nil {
				return err
			}
			if len(modes) != 1 {
				return fmt.Errorf("--mode takes exactly one mode")
			}

			sess, err := newSession(configPath)
			if err != nil {
				return err
			}
			defer sess.Close()

			result := sess.acl.CheckAccess(context.Background(), args[0], args[1], modes[0])
			if result.Err != nil {
				return resultErr(result.Err)
			}
			return cli.WriteJSON(map[string]bool{"allowed": result.Data})
		},
	}
}
