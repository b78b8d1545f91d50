// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"net/http"
	"testing"

	"github.com/nbd-wtf/go-nostr"

	"github.com/podstr-project/podstr/lib/turtle"
)

// seedEvent writes an encoded event straight into the fake pod's plain
// container, bypassing Store so tests control every field.
func seedEvent(env *testEnvironment, id string, kind int, pubkey string, createdAt int64) *turtle.Event {
	event := testEvent(id)
	event.Kind = kind
	if pubkey != "" {
		event.PubKey = pubkey
	}
	event.CreatedAt = nostr.Timestamp(createdAt)
	env.pod.put("/space/events/"+id+".ttl", []byte(turtle.EncodeEvent(event)))
	return event
}

func listedIDs(result Result[[]*turtle.Event]) []string {
	var ids []string
	for _, event := range result.Data {
		ids = append(ids, event.ID)
	}
	return ids
}

func TestListFilterAppliesBeforeOffsetAndLimit(t *testing.T) {
	env := newTestEnvironment(t)

	// Kinds interleaved in listing order: e1,e3,e5,e6 are kind 1.
	seedEvent(env, "e1", 1, "", 1700000001)
	seedEvent(env, "e2", 7, "", 1700000002)
	seedEvent(env, "e3", 1, "", 1700000003)
	seedEvent(env, "e4", 7, "", 1700000004)
	seedEvent(env, "e5", 1, "", 1700000005)
	seedEvent(env, "e6", 1, "", 1700000006)

	kind := 1
	result := env.service.List(context.Background(), ListOptions{
		Limit:  2,
		Offset: 1,
		Filter: Filter{Kind: &kind},
	})
	if !result.Success {
		t.Fatalf("List failed: %+v", result.Err)
	}

	// Filter first yields e1,e3,e5,e6; offset 1 and limit 2 then
	// select e3,e5. Offset or limit applied over the unfiltered
	// listing would let a kind-7 event shift the window.
	ids := listedIDs(result)
	if len(ids) != 2 || ids[0] != "e3" || ids[1] != "e5" {
		t.Errorf("listed IDs = %v, want [e3 e5]", ids)
	}
}

func TestListSkippedItemsDoNotConsumeOffset(t *testing.T) {
	env := newTestEnvironment(t)

	// First two resources in listing order fail: one is not a valid
	// event document, one refuses the fetch entirely.
	env.pod.put("/space/events/a-bad.ttl", []byte("not an event document"))
	env.pod.put("/space/events/b-gone.ttl", []byte("placeholder"))
	env.pod.fail("/space/events/b-gone.ttl", http.StatusInternalServerError)
	seedEvent(env, "c1", 1, "", 1700000001)
	seedEvent(env, "d1", 1, "", 1700000002)

	result := env.service.List(context.Background(), ListOptions{Offset: 1})
	if !result.Success {
		t.Fatalf("List failed: %+v", result.Err)
	}

	// The decodable subset is c1,d1; offset 1 must skip c1 only. If
	// the two failed items consumed offset budget, both survivors
	// would come back.
	ids := listedIDs(result)
	if len(ids) != 1 || ids[0] != "d1" {
		t.Errorf("listed IDs = %v, want [d1]", ids)
	}
}

func TestListFilters(t *testing.T) {
	env := newTestEnvironment(t)

	alice := "aa11" + testEvent("x").PubKey[4:]
	bob := "bb22" + testEvent("x").PubKey[4:]
	seedEvent(env, "e1", 1, alice, 100)
	seedEvent(env, "e2", 7, alice, 200)
	seedEvent(env, "e3", 1, bob, 300)

	kind := 1
	since := int64(200)
	until := int64(200)

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{
			name:   "kind",
			filter: Filter{Kind: &kind},
			want:   []string{"e1", "e3"},
		},
		{
			name:   "pubkey",
			filter: Filter{PubKey: alice},
			want:   []string{"e1", "e2"},
		},
		{
			name:   "since inclusive",
			filter: Filter{Since: &since},
			want:   []string{"e2", "e3"},
		},
		{
			name:   "until inclusive",
			filter: Filter{Until: &until},
			want:   []string{"e1", "e2"},
		},
		{
			name:   "since and until bound a single event",
			filter: Filter{Since: &since, Until: &until},
			want:   []string{"e2"},
		},
		{
			name:   "kind and pubkey combine",
			filter: Filter{Kind: &kind, PubKey: bob},
			want:   []string{"e3"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := env.service.List(context.Background(), ListOptions{Filter: test.filter})
			if !result.Success {
				t.Fatalf("List failed: %+v", result.Err)
			}
			ids := listedIDs(result)
			if len(ids) != len(test.want) {
				t.Fatalf("listed IDs = %v, want %v", ids, test.want)
			}
			for i := range ids {
				if ids[i] != test.want[i] {
					t.Fatalf("listed IDs = %v, want %v", ids, test.want)
				}
			}
		})
	}
}

func TestListContainerFetchFailureIsTerminal(t *testing.T) {
	env := newTestEnvironment(t)
	env.pod.fail("/space/events/", http.StatusInternalServerError)

	result := env.service.List(context.Background(), ListOptions{})
	if result.Success {
		t.Fatal("expected failure when the container listing itself is unreachable")
	}
}
