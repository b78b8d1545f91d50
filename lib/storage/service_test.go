// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/nbd-wtf/go-nostr"

	"github.com/podstr-project/podstr/lib/identity"
	"github.com/podstr-project/podstr/lib/podclient"
	"github.com/podstr-project/podstr/lib/testutil"
	"github.com/podstr-project/podstr/lib/turtle"
)

// fakePod is an in-memory pod server: PUT/GET/DELETE on arbitrary
// paths, with container listings synthesized from stored keys.
type fakePod struct {
	mu        sync.Mutex
	resources map[string][]byte
	failPaths map[string]int // path -> HTTP status to force
	requests  []string       // "METHOD path" log
}

func newFakePod() *fakePod {
	return &fakePod{
		resources: map[string][]byte{},
		failPaths: map[string]int{},
	}
}

func (p *fakePod) handler() http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()
		path := request.URL.Path
		p.requests = append(p.requests, request.Method+" "+path)

		if status, forced := p.failPaths[path]; forced {
			writer.WriteHeader(status)
			return
		}

		switch request.Method {
		case http.MethodPut:
			body, _ := io.ReadAll(request.Body)
			p.resources[path] = body
			writer.WriteHeader(http.StatusCreated)
		case http.MethodGet:
			if strings.HasSuffix(path, "/") {
				writer.Header().Set("Content-Type", "text/turtle")
				writer.Write([]byte(p.listingLocked(path)))
				return
			}
			body, found := p.resources[path]
			if !found {
				writer.WriteHeader(http.StatusNotFound)
				return
			}
			writer.Header().Set("Content-Type", "text/turtle")
			writer.Write(body)
		case http.MethodDelete:
			if _, found := p.resources[path]; !found {
				writer.WriteHeader(http.StatusNotFound)
				return
			}
			delete(p.resources, path)
			writer.WriteHeader(http.StatusNoContent)
		default:
			writer.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

func (p *fakePod) listingLocked(container string) string {
	var keys []string
	for key := range p.resources {
		if strings.HasPrefix(key, container) && key != container && !strings.Contains(strings.TrimPrefix(key, container), "/") {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	var builder strings.Builder
	builder.WriteString("@prefix ldp: <http://www.w3.org/ns/ldp#> .\n\n<" + container + "> a ldp:BasicContainer")
	for _, key := range keys {
		builder.WriteString(" ;\n    ldp:contains <" + key + ">")
	}
	builder.WriteString(" .\n")
	return builder.String()
}

func (p *fakePod) requestCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

func (p *fakePod) put(path string, body []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resources[path] = body
}

func (p *fakePod) has(path string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, found := p.resources[path]
	return found
}

func (p *fakePod) fail(path string, status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failPaths[path] = status
}

func (p *fakePod) heal(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.failPaths, path)
}

type testEnvironment struct {
	pod     *fakePod
	server  *httptest.Server
	service *Service
	network *Switch
	store   *MemStore
}

func newTestEnvironment(t *testing.T) *testEnvironment {
	t.Helper()

	pod := newFakePod()
	server := httptest.NewServer(pod.handler())
	t.Cleanup(server.Close)

	id, err := identity.Generate()
	if err != nil {
		t.Fatalf("generating identity: %v", err)
	}

	network := NewSwitch()
	store := NewMemStore()
	service, err := New(Config{
		Client:       podclient.New(podclient.Config{Identity: id}),
		PodRoot:      server.URL + "/space/",
		Store:        store,
		Connectivity: network,
	})
	if err != nil {
		t.Fatalf("creating service: %v", err)
	}
	return &testEnvironment{pod: pod, server: server, service: service, network: network, store: store}
}

func testEvent(id string) *turtle.Event {
	return &turtle.Event{
		Event: nostr.Event{
			ID:        id,
			Kind:      1,
			PubKey:    strings.Repeat("aa", 32),
			CreatedAt: nostr.Timestamp(1700000000),
			Sig:       strings.Repeat("bb", 64),
			Content:   "hi",
		},
	}
}

func TestStoreThenRetrieve(t *testing.T) {
	env := newTestEnvironment(t)
	ctx := context.Background()

	stored := env.service.Store(ctx, testEvent("e1"), StoreOptions{})
	if !stored.Success || stored.Pending {
		t.Fatalf("Store result = %+v", stored)
	}
	if !strings.HasSuffix(stored.URL, "/space/events/e1.ttl") {
		t.Errorf("stored URL = %q", stored.URL)
	}

	retrieved := env.service.Retrieve(ctx, "e1")
	if !retrieved.Success {
		t.Fatalf("Retrieve result = %+v", retrieved.Err)
	}
	if retrieved.Data.Content != "hi" || retrieved.Data.Kind != 1 {
		t.Errorf("retrieved content/kind = %q/%d, want hi/1", retrieved.Data.Content, retrieved.Data.Kind)
	}
}

func TestStoreEncryptedDefaultsToEncryptedContainer(t *testing.T) {
	env := newTestEnvironment(t)

	event := testEvent("e2")
	event.Encrypted = true
	event.EncryptionMethod = "nip44"

	stored := env.service.Store(context.Background(), event, StoreOptions{})
	if !stored.Success {
		t.Fatalf("Store failed: %+v", stored.Err)
	}
	if !strings.Contains(stored.URL, "/encrypted-events/") {
		t.Errorf("encrypted event stored at %q, want encrypted-events container", stored.URL)
	}
}

func TestStoreEncryptOption(t *testing.T) {
	env := newTestEnvironment(t)

	stored := env.service.Store(context.Background(), testEvent("e3"), StoreOptions{Encrypt: true})
	if !stored.Success {
		t.Fatalf("Store failed: %+v", stored.Err)
	}
	if !strings.Contains(stored.URL, "/encrypted-events/") {
		t.Errorf("stored URL = %q, want encrypted-events container", stored.URL)
	}
	if stored.Data.Content == "hi" || !stored.Data.Encrypted {
		t.Error("content was not encrypted")
	}
}

func TestRetrieveProbesPlainFirst(t *testing.T) {
	env := newTestEnvironment(t)
	ctx := context.Background()

	// Event present only in the encrypted container is still found.
	event := testEvent("e4")
	env.pod.put("/space/encrypted-events/e4.ttl", []byte(turtle.EncodeEvent(event)))

	result := env.service.Retrieve(ctx, "e4")
	if !result.Success {
		t.Fatalf("Retrieve failed: %+v", result.Err)
	}
	if !strings.Contains(result.URL, "/encrypted-events/") {
		t.Errorf("found at %q", result.URL)
	}

	// The probe order is plain first.
	var order []string
	env.pod.mu.Lock()
	for _, line := range env.pod.requests {
		if strings.HasPrefix(line, "GET ") && strings.Contains(line, "e4.ttl") {
			order = append(order, line)
		}
	}
	env.pod.mu.Unlock()
	if len(order) != 2 || !strings.Contains(order[0], "/space/events/") {
		t.Errorf("probe order = %v, want plain container first", order)
	}
}

func TestRetrieveDecodeFailureTriesNextContainer(t *testing.T) {
	env := newTestEnvironment(t)

	env.pod.put("/space/events/e5.ttl", []byte("not turtle at all"))
	env.pod.put("/space/encrypted-events/e5.ttl", []byte(turtle.EncodeEvent(testEvent("e5"))))

	result := env.service.Retrieve(context.Background(), "e5")
	if !result.Success {
		t.Fatalf("Retrieve failed: %+v", result.Err)
	}
	if !strings.Contains(result.URL, "/encrypted-events/") {
		t.Errorf("found at %q, want encrypted container after decode failure", result.URL)
	}
}

func TestRetrieveExhaustionIsNotFound(t *testing.T) {
	env := newTestEnvironment(t)
	result := env.service.Retrieve(context.Background(), "missing")
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Err.Code != podclient.CodeNotFound {
		t.Errorf("code = %q, want not_found", result.Err.Code)
	}
}

func TestUnauthenticatedPreamble(t *testing.T) {
	pod := newFakePod()
	server := httptest.NewServer(pod.handler())
	defer server.Close()

	service, err := New(Config{
		Client:  podclient.New(podclient.Config{}),
		PodRoot: server.URL + "/space/",
	})
	if err != nil {
		t.Fatalf("creating service: %v", err)
	}

	stored := service.Store(context.Background(), testEvent("e1"), StoreOptions{})
	if stored.Success || stored.Err == nil || stored.Err.Code != podclient.CodeUnauthorized {
		t.Errorf("Store result = %+v, want unauthorized failure", stored)
	}
	retrieved := service.Retrieve(context.Background(), "e1")
	if retrieved.Success || retrieved.Err.Code != podclient.CodeUnauthorized {
		t.Errorf("Retrieve result = %+v, want unauthorized failure", retrieved)
	}
	if pod.requestCount() != 0 {
		t.Errorf("unauthenticated preamble made %d network calls", pod.requestCount())
	}
}

func TestDelete(t *testing.T) {
	env := newTestEnvironment(t)
	ctx := context.Background()

	env.service.Store(ctx, testEvent("e6"), StoreOptions{})
	deleted := env.service.Delete(ctx, "e6")
	if !deleted.Success {
		t.Fatalf("Delete failed: %+v", deleted.Err)
	}
	if env.pod.has("/space/events/e6.ttl") {
		t.Error("resource still present after delete")
	}

	again := env.service.Delete(ctx, "e6")
	if again.Success || again.Err.Code != podclient.CodeNotFound {
		t.Errorf("second delete = %+v, want not_found", again)
	}
}

func TestStoreDataAndRetrieveDataJSON(t *testing.T) {
	env := newTestEnvironment(t)
	ctx := context.Background()

	payload := map[string]any{"theme": "dark", "relays": []any{"wss://relay.example"}}
	stored := env.service.StoreData(ctx, "documents/settings.json", payload, "application/json")
	if !stored.Success {
		t.Fatalf("StoreData failed: %+v", stored.Err)
	}

	if !env.pod.has("/space/documents/settings.json") {
		t.Fatal("document not stored")
	}
}

func TestStoreDataOpaqueText(t *testing.T) {
	env := newTestEnvironment(t)

	stored := env.service.StoreData(context.Background(), "documents/notes.txt", "plain note", "text/plain")
	if !stored.Success {
		t.Fatalf("StoreData failed: %+v", stored.Err)
	}

	retrieved := env.service.RetrieveData(context.Background(), "documents/notes.txt")
	if !retrieved.Success {
		t.Fatalf("RetrieveData failed: %+v", retrieved.Err)
	}
	if text, ok := retrieved.Data.(string); !ok || text != "plain note" {
		t.Errorf("retrieved data = %#v, want string %q", retrieved.Data, "plain note")
	}
}

func TestStoreDataRejectsNonStringForOpaqueType(t *testing.T) {
	env := newTestEnvironment(t)
	result := env.service.StoreData(context.Background(), "documents/x.bin", 42, "application/octet-stream")
	if result.Success || result.Err.Code != podclient.CodeInvalidData {
		t.Errorf("result = %+v, want invalid_data", result)
	}
}

func TestStoreThenRetrieveSignedEvent(t *testing.T) {
	env := newTestEnvironment(t)
	ctx := context.Background()

	id := testutil.NewIdentity(t)
	event := testutil.SignedEvent(t, id, testutil.UniqueID("note"))

	stored := env.service.Store(ctx, &event, StoreOptions{})
	if !stored.Success {
		t.Fatalf("Store result = %+v", stored)
	}

	retrieved := env.service.Retrieve(ctx, event.ID)
	if !retrieved.Success {
		t.Fatalf("Retrieve result = %+v", retrieved.Err)
	}
	if retrieved.Data.Sig != event.Sig || retrieved.Data.PubKey != id.PublicKey {
		t.Errorf("signature fields did not survive the round trip: %+v", retrieved.Data)
	}
}
