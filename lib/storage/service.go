// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/podstr-project/podstr/lib/clock"
	"github.com/podstr-project/podstr/lib/podclient"
)

const defaultRetryCeiling = 3

// Config holds configuration for creating a storage Service.
type Config struct {
	// Client performs the pod HTTP calls. Required.
	Client *podclient.Client
	// PodRoot is the identity's storage root URL for this session.
	// Required.
	PodRoot string
	// Store is the durable local KV the sync queue persists to. If
	// nil, an in-memory store is used (queue does not survive
	// restarts).
	Store KV
	// Connectivity is the host reachability oracle. If nil, the
	// service assumes it is always online.
	Connectivity Connectivity
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
	// Clock supplies timestamps. If nil, clock.Real() is used.
	Clock clock.Clock
	// RetryCeiling is the replay retry limit per queue item. Zero
	// means 3.
	RetryCeiling int
}

// Service owns domain-event and generic-document CRUD against the pod,
// and the offline sync queue. One Service is constructed per session;
// its caches and queue are instance state, not globals.
type Service struct {
	client       *podclient.Client
	paths        Paths
	store        KV
	connectivity Connectivity
	logger       *slog.Logger
	clock        clock.Clock
	retryCeiling int
	entropy      *ulid.MonotonicEntropy

	mu          sync.Mutex
	queue       []QueueItem
	processing  bool
	failedItems int
	lastSyncAt  int64
}

// New creates a Service and loads any persisted queue from the local
// store.
func New(config Config) (*Service, error) {
	if config.Client == nil {
		return nil, fmt.Errorf("storage: Client is required")
	}
	if config.PodRoot == "" {
		return nil, fmt.Errorf("storage: PodRoot is required")
	}
	store := config.Store
	if store == nil {
		store = NewMemStore()
	}
	connectivity := config.Connectivity
	if connectivity == nil {
		connectivity = AlwaysOnline{}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	retryCeiling := config.RetryCeiling
	if retryCeiling == 0 {
		retryCeiling = defaultRetryCeiling
	}

	service := &Service{
		client:       config.Client,
		paths:        DerivePaths(config.PodRoot),
		store:        store,
		connectivity: connectivity,
		logger:       logger,
		clock:        clk,
		retryCeiling: retryCeiling,
		entropy:      ulid.Monotonic(rand.Reader, 0),
	}
	if err := service.loadQueue(); err != nil {
		return nil, err
	}
	return service, nil
}

// Paths returns the session's resolved container layout.
func (s *Service) Paths() Paths { return s.paths }

// Close flushes the queue state to the local store. Call at session
// teardown.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

// authFailure is the shared unauthenticated preamble result.
func authFailure[T any]() Result[T] {
	return Fail[T](podclient.CodeUnauthorized, 0, "no authenticated session or signing identity")
}
