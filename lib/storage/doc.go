// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

// Package storage is the bridge's pod persistence layer: CRUD for
// domain events and generic documents, plus the offline sync queue.
//
// Every public operation returns a uniform Result instead of raising:
// failures carry a closed taxonomy code, offline writes are reported
// as success-with-pending-sync, and locally recoverable conditions (a
// single undecodable document during listing, a single container miss
// during the dual probe) are absorbed silently.
//
// The sync queue is instance state on the Service, persisted to an
// injectable local KV store after every mutation and drained in strict
// enqueue order by ProcessSyncQueue. A write that fails in transit
// while the host is offline — or that never reaches the server — is
// deferred, retried up to a ceiling on later passes, and abandoned
// into an aggregate failed-items tally when the ceiling is reached.
package storage
