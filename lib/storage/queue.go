// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/oklog/ulid/v2"

	"github.com/podstr-project/podstr/lib/podclient"
)

// Queue persistence keys in the local KV store. The queue itself is a
// JSON array; the counters travel in a sibling document written in the
// same critical section.
const (
	queueKey     = "podstr.sync-queue"
	queueMetaKey = "podstr.sync-meta"
)

// QueueOp is the kind of deferred write.
type QueueOp string

const (
	OpCreate QueueOp = "create"
	OpUpdate QueueOp = "update"
	OpDelete QueueOp = "delete"
)

// QueueItem is one deferred write. Items are created on write failure
// while offline (or on a transport failure mid-write), mutated with an
// incremented retry count on replay failure, and removed on success or
// retry-ceiling exhaustion.
type QueueItem struct {
	ID          string  `json:"id"`
	Op          QueueOp `json:"op"`
	URL         string  `json:"url"`
	Payload     string  `json:"payload,omitempty"`
	ContentType string  `json:"contentType,omitempty"`
	EnqueuedAt  int64   `json:"enqueuedAt"`
	RetryCount  int     `json:"retryCount"`
	LastError   string  `json:"lastError,omitempty"`
}

// queueMeta is the persisted counter document.
type queueMeta struct {
	FailedItems int   `json:"failedItems"`
	LastSyncAt  int64 `json:"lastSyncAt"`
}

// SyncStats summarizes one ProcessSyncQueue pass.
type SyncStats struct {
	// Processed counts items replayed successfully.
	Processed int
	// Requeued counts items that failed below the retry ceiling.
	Requeued int
	// Dropped counts items that reached the ceiling this pass and
	// were added to the failed-items tally.
	Dropped int
	// Remaining is the queue length after the pass.
	Remaining int
}

// enqueue appends a deferred write and persists the queue. Callers
// hold no lock; enqueue takes it.
func (s *Service) enqueue(op QueueOp, url, payload, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := QueueItem{
		ID:          ulid.MustNew(ulid.Timestamp(s.clock.Now()), s.entropy).String(),
		Op:          op,
		URL:         url,
		Payload:     payload,
		ContentType: contentType,
		EnqueuedAt:  s.clock.Now().Unix(),
	}
	s.queue = append(s.queue, item)
	s.logger.Info("queued offline write", "op", op, "url", url, "queue_length", len(s.queue))
	return s.persistLocked()
}

// persistLocked writes the queue array and counter document to the
// local store. Caller holds s.mu.
func (s *Service) persistLocked() error {
	queueData, err := json.Marshal(s.queue)
	if err != nil {
		return fmt.Errorf("storage: encoding sync queue: %w", err)
	}
	if err := s.store.Set(queueKey, queueData); err != nil {
		return err
	}
	metaData, err := json.Marshal(queueMeta{
		FailedItems: s.failedItems,
		LastSyncAt:  s.lastSyncAt,
	})
	if err != nil {
		return fmt.Errorf("storage: encoding sync meta: %w", err)
	}
	return s.store.Set(queueMetaKey, metaData)
}

// loadQueue restores queue state from the local store at session
// start. An absent key is an empty queue.
func (s *Service) loadQueue() error {
	queueData, found, err := s.store.Get(queueKey)
	if err != nil {
		return err
	}
	if found && len(queueData) > 0 {
		if err := json.Unmarshal(queueData, &s.queue); err != nil {
			return fmt.Errorf("storage: decoding sync queue: %w", err)
		}
	}
	metaData, found, err := s.store.Get(queueMetaKey)
	if err != nil {
		return err
	}
	if found && len(metaData) > 0 {
		var meta queueMeta
		if err := json.Unmarshal(metaData, &meta); err != nil {
			return fmt.Errorf("storage: decoding sync meta: %w", err)
		}
		s.failedItems = meta.FailedItems
		s.lastSyncAt = meta.LastSyncAt
	}
	return nil
}

// ProcessSyncQueue drains the current queue snapshot in enqueue order.
// It is a no-op when offline, unauthenticated, or already running —
// the in-flight guard makes a reentrant call return immediately
// without queuing behind the running pass, so callers needing
// completion must re-invoke.
//
// Each item is replayed once per pass: create and update PUT the
// stored payload, delete issues DELETE. A failing item is re-enqueued
// with an incremented retry count while below the ceiling; an item
// that reaches the ceiling is dropped and counted in the failed-items
// tally, never retried again. The rebuilt queue, counters, and
// last-sync timestamp are persisted before the pass ends.
func (s *Service) ProcessSyncQueue(ctx context.Context) Result[SyncStats] {
	s.mu.Lock()
	if s.processing || !s.connectivity.Online() || !s.client.Authenticated() {
		stats := SyncStats{Remaining: len(s.queue)}
		s.mu.Unlock()
		return Ok(stats, "")
	}
	s.processing = true
	snapshot := s.queue
	s.queue = nil
	s.mu.Unlock()

	var stats SyncStats
	var requeued []QueueItem
	dropped := 0

	for _, item := range snapshot {
		err := s.replay(ctx, item)
		if err == nil {
			stats.Processed++
			continue
		}

		item.RetryCount++
		item.LastError = err.Error()
		if item.RetryCount < s.retryCeiling {
			requeued = append(requeued, item)
			stats.Requeued++
		} else {
			dropped++
			stats.Dropped++
			s.logger.Info("dropping sync item at retry ceiling",
				"op", item.Op, "url", item.URL, "retries", item.RetryCount, "error", err)
		}
	}

	s.mu.Lock()
	// Writes enqueued while the pass ran come after the survivors.
	s.queue = append(requeued, s.queue...)
	s.failedItems += dropped
	s.lastSyncAt = s.clock.Now().Unix()
	stats.Remaining = len(s.queue)
	persistErr := s.persistLocked()
	s.processing = false
	s.mu.Unlock()

	if persistErr != nil {
		return FailFrom[SyncStats](persistErr)
	}
	return Ok(stats, "")
}

// replay performs one queued write.
func (s *Service) replay(ctx context.Context, item QueueItem) error {
	var request podclient.Request
	switch item.Op {
	case OpCreate, OpUpdate:
		request = podclient.Request{
			URL:         item.URL,
			Method:      http.MethodPut,
			Body:        []byte(item.Payload),
			ContentType: item.ContentType,
		}
	case OpDelete:
		request = podclient.Request{URL: item.URL, Method: http.MethodDelete}
	default:
		return fmt.Errorf("storage: unknown queue op %q", item.Op)
	}

	response, err := s.client.Do(ctx, request)
	if err != nil {
		return err
	}
	// A deleted target that is already gone counts as replayed.
	if item.Op == OpDelete && response.StatusCode == http.StatusNotFound {
		return nil
	}
	if !response.OK() {
		return &podclient.Error{Code: response.Code, StatusCode: response.StatusCode, Message: "replay rejected"}
	}
	return nil
}

// QueueLength returns the number of pending deferred writes.
func (s *Service) QueueLength() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// FailedItems returns the count of items abandoned at the retry
// ceiling. Replay failures beyond the ceiling surface only here, never
// per item.
func (s *Service) FailedItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failedItems
}

// LastSyncAt returns the Unix time of the last completed sync pass, 0
// if none.
func (s *Service) LastSyncAt() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSyncAt
}
