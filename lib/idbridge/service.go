// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

package idbridge

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/podstr-project/podstr/lib/identity"
	"github.com/podstr-project/podstr/lib/podclient"
	"github.com/podstr-project/podstr/lib/storage"
)

const defaultMappingTTL = 5 * time.Minute

// Mapping is one resolved key-to-WebID linkage.
type Mapping struct {
	// PubKey is the hex public key.
	PubKey string
	// WebID is the storage identity URL.
	WebID string
	// Verified is true when the linkage was confirmed against the
	// profile document, false when only derived from the fixed
	// layout.
	Verified bool
}

// Config holds configuration for creating an identity-bridge Service.
type Config struct {
	// Client performs the pod HTTP calls. Required.
	Client *podclient.Client
	// ServerBase is the pod server's base URL. Required.
	ServerBase string
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
	// CacheTTL bounds mapping cache freshness. Zero means 5 minutes.
	CacheTTL time.Duration
}

// Service resolves between Nostr keys and WebIDs, caching lookups in
// both directions for the session.
type Service struct {
	client     *podclient.Client
	serverBase string
	logger     *slog.Logger
	cache      *ttlcache.Cache[string, Mapping]
}

// New creates a Service with an empty mapping cache.
func New(config Config) (*Service, error) {
	if config.Client == nil {
		return nil, fmt.Errorf("idbridge: Client is required")
	}
	if config.ServerBase == "" {
		return nil, fmt.Errorf("idbridge: ServerBase is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := config.CacheTTL
	if ttl == 0 {
		ttl = defaultMappingTTL
	}
	cache := ttlcache.New[string, Mapping](
		ttlcache.WithTTL[string, Mapping](ttl),
		ttlcache.WithDisableTouchOnHit[string, Mapping](),
	)
	return &Service{
		client:     config.Client,
		serverBase: config.ServerBase,
		logger:     logger,
		cache:      cache,
	}, nil
}

// WebID returns the key's storage identity URL on this service's
// server. Pure derivation, no network.
func (s *Service) WebID(pubkey string) (string, error) {
	return WebID(s.serverBase, pubkey)
}

// PodRoot returns the key's root container URL on this service's
// server. Pure derivation, no network.
func (s *Service) PodRoot(pubkey string) (string, error) {
	return PodRoot(s.serverBase, pubkey)
}

func pubkeyCacheKey(pubkey string) string { return "pubkey:" + pubkey }
func webIDCacheKey(webID string) string   { return "webid:" + webID }

// remember indexes the mapping under both of its keys.
func (s *Service) remember(mapping Mapping) {
	s.cache.Set(pubkeyCacheKey(mapping.PubKey), mapping, ttlcache.DefaultTTL)
	s.cache.Set(webIDCacheKey(mapping.WebID), mapping, ttlcache.DefaultTTL)
}

// ResolveWebID maps a public key to its WebID, confirming the linkage
// against the profile document when reachable. The derived WebID is
// returned even when confirmation fails, with Verified false, since
// the forward mapping does not depend on the document.
func (s *Service) ResolveWebID(ctx context.Context, pubkey string) storage.Result[Mapping] {
	if item := s.cache.Get(pubkeyCacheKey(pubkey)); item != nil {
		return storage.Ok(item.Value(), item.Value().WebID)
	}

	webID, err := WebID(s.serverBase, pubkey)
	if err != nil {
		return storage.Fail[Mapping](podclient.CodeInvalidData, 0, err.Error())
	}
	mapping := Mapping{PubKey: pubkey, WebID: webID}

	response, err := s.client.Do(ctx, podclient.Request{
		URL:    ProfileDocURL(webID),
		Method: http.MethodGet,
		Headers: map[string]string{
			"Accept": "text/turtle",
		},
	})
	if err == nil && response.OK() {
		if profile, ok := ParseProfile(string(response.Body)); ok && profile.PubKey == pubkey {
			mapping.Verified = true
		}
	}

	s.remember(mapping)
	return storage.Ok(mapping, webID)
}

// Resolve maps a WebID back to the public key embedded in its profile
// document.
func (s *Service) Resolve(ctx context.Context, webID string) storage.Result[Mapping] {
	if item := s.cache.Get(webIDCacheKey(webID)); item != nil {
		return storage.Ok(item.Value(), webID)
	}

	response, err := s.client.Do(ctx, podclient.Request{
		URL:    ProfileDocURL(webID),
		Method: http.MethodGet,
		Headers: map[string]string{
			"Accept": "text/turtle",
		},
	})
	if err != nil {
		return storage.FailFrom[Mapping](err)
	}
	if !response.OK() {
		return storage.FailResponse[Mapping](response)
	}

	profile, ok := ParseProfile(string(response.Body))
	if !ok {
		return storage.Fail[Mapping](podclient.CodeParseError, 0,
			"profile document embeds no public key")
	}

	mapping := Mapping{PubKey: profile.PubKey, WebID: webID, Verified: true}
	s.remember(mapping)
	return storage.Ok(mapping, webID)
}

// Link writes the active identity's linkage into its profile
// document. It first attempts a partial update via SPARQL PATCH; not
// every server supports PATCH, so any rejection falls back to
// fetching the document, rebuilding it with the linkage, and
// replacing it wholesale.
func (s *Service) Link(ctx context.Context) storage.Result[Mapping] {
	id := s.client.Identity()
	if id == nil {
		return storage.Fail[Mapping](podclient.CodeUnauthorized, 0, "no identity to link")
	}

	webID, err := WebID(s.serverBase, id.PublicKey)
	if err != nil {
		return storage.Fail[Mapping](podclient.CodeInvalidData, 0, err.Error())
	}
	docURL := ProfileDocURL(webID)

	patch := fmt.Sprintf(
		"PREFIX nostr: <https://nostr.org/ontology#>\nINSERT DATA { <%s> nostr:pubkey \"%s\" . }",
		webID, id.PublicKey)
	response, err := s.client.Do(ctx, podclient.Request{
		URL:         docURL,
		Method:      http.MethodPatch,
		Body:        []byte(patch),
		ContentType: "application/sparql-update",
	})
	if err == nil && response.OK() {
		mapping := Mapping{PubKey: id.PublicKey, WebID: webID, Verified: true}
		s.remember(mapping)
		return storage.Ok(mapping, webID)
	}
	if err != nil {
		s.logger.Debug("profile PATCH failed, rebuilding document",
			"url", docURL, "error", err)
	} else {
		s.logger.Debug("profile PATCH rejected, rebuilding document",
			"url", docURL, "status", response.StatusCode)
	}
	return s.rebuildProfile(ctx, id, webID, docURL)
}

// rebuildProfile is the full-replace fallback: fetch the current
// document to preserve its display name, regenerate it with the
// linkage, and PUT it back.
func (s *Service) rebuildProfile(ctx context.Context, id *identity.Identity, webID, docURL string) storage.Result[Mapping] {
	name := ""
	current, err := s.client.Do(ctx, podclient.Request{
		URL:    docURL,
		Method: http.MethodGet,
		Headers: map[string]string{
			"Accept": "text/turtle",
		},
	})
	if err == nil && current.OK() {
		name = profileName(string(current.Body))
	}

	npub, err := id.Npub()
	if err != nil {
		return storage.Fail[Mapping](podclient.CodeInvalidData, 0, err.Error())
	}
	document := ProfileDocument(id.PublicKey, npub, name)
	response, err := s.client.Do(ctx, podclient.Request{
		URL:         docURL,
		Method:      http.MethodPut,
		Body:        []byte(document),
		ContentType: "text/turtle",
	})
	if err != nil {
		return storage.FailFrom[Mapping](err)
	}
	if !response.OK() {
		return storage.FailResponse[Mapping](response)
	}

	mapping := Mapping{PubKey: id.PublicKey, WebID: webID, Verified: true}
	s.remember(mapping)
	return storage.Ok(mapping, webID)
}
