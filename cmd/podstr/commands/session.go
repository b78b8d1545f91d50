// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/podstr-project/podstr/lib/accesscontrol"
	"github.com/podstr-project/podstr/lib/config"
	"github.com/podstr-project/podstr/lib/idbridge"
	"github.com/podstr-project/podstr/lib/identity"
	"github.com/podstr-project/podstr/lib/podclient"
	"github.com/podstr-project/podstr/lib/provision"
	"github.com/podstr-project/podstr/lib/storage"
)

// secretKeyEnv names the environment variable holding the session's
// signing key, as hex or NIP-19 nsec. The key is never read from the
// config file or flags, so it cannot leak into shell history or
// checked-in configuration.
const secretKeyEnv = "PODSTR_SECRET_KEY"

// session wires one authenticated pod session: config, identity,
// client, and the domain services, constructed once per command
// invocation and torn down with Close.
type session struct {
	cfg     *config.Config
	id      *identity.Identity
	logger  *slog.Logger
	client  *podclient.Client
	storage *storage.Service
	acl     *accesscontrol.Service
	bridge  *idbridge.Service
	space   *provision.Service
}

// loadIdentity reads the signing key from the environment.
func loadIdentity() (*identity.Identity, error) {
	secret := strings.TrimSpace(os.Getenv(secretKeyEnv))
	if secret == "" {
		return nil, fmt.Errorf("%s not set; export your key (hex or nsec) to authenticate", secretKeyEnv)
	}
	if strings.HasPrefix(secret, "nsec1") {
		return identity.FromNsec(secret)
	}
	return identity.New(secret)
}

// newSession loads config (from --config or PODSTR_CONFIG), the
// identity from the environment, and constructs the service graph.
func newSession(configPath string) (*session, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsureStatePath(); err != nil {
		return nil, err
	}

	id, err := loadIdentity()
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Log.LogLevel(),
	}))

	client := podclient.New(podclient.Config{
		Identity:     id,
		Logger:       logger,
		Timeout:      cfg.Pod.TimeoutDuration(),
		RetryCeiling: cfg.Pod.RetryCeiling,
		RetryBase:    cfg.Pod.RetryBaseDuration(),
	})

	podRoot, err := idbridge.PodRoot(cfg.Pod.ServerBase, id.PublicKey)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewFileStore(cfg.Storage.StatePath)
	if err != nil {
		return nil, err
	}
	storageService, err := storage.New(storage.Config{
		Client:       client,
		PodRoot:      podRoot,
		Store:        store,
		Logger:       logger,
		RetryCeiling: cfg.Storage.QueueRetryCeiling,
	})
	if err != nil {
		return nil, err
	}

	aclService, err := accesscontrol.New(accesscontrol.Config{
		Client: client,
		AgentURL: func(pubkey string) string {
			webID, err := idbridge.WebID(cfg.Pod.ServerBase, pubkey)
			if err != nil {
				// Malformed keys map to an unresolvable agent URL;
				// they can never match a real entry.
				return "urn:podstr:invalid-key:" + pubkey
			}
			return webID
		},
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	bridgeService, err := idbridge.New(idbridge.Config{
		Client:     client,
		ServerBase: cfg.Pod.ServerBase,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	spaceService, err := provision.New(provision.Config{
		Client:     client,
		ServerBase: cfg.Pod.ServerBase,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	return &session{
		cfg:     cfg,
		id:      id,
		logger:  logger,
		client:  client,
		storage: storageService,
		acl:     aclService,
		bridge:  bridgeService,
		space:   spaceService,
	}, nil
}

// Close flushes session state.
func (s *session) Close() error {
	return s.storage.Close()
}

// resultErr converts a failed operation result into a command error.
func resultErr(err *storage.OpError) error {
	if err == nil {
		return nil
	}
	return err
}
