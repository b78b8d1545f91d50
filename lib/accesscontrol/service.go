// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

package accesscontrol

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/podstr-project/podstr/lib/podclient"
	"github.com/podstr-project/podstr/lib/storage"
	"github.com/podstr-project/podstr/lib/turtle"
)

const defaultCacheTTL = 2 * time.Minute

// Config holds configuration for creating an access-control Service.
type Config struct {
	// Client performs the pod HTTP calls. Required.
	Client *podclient.Client
	// AgentURL maps a hex public key to the agent's WebID URL.
	// Required.
	AgentURL func(pubkey string) string
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
	// CacheTTL bounds how long a fetched ACL is served from cache.
	// Zero means 2 minutes.
	CacheTTL time.Duration
}

// Service owns the per-session ACL cache and performs all
// access-control document reads and writes for that session.
type Service struct {
	client   *podclient.Client
	agentURL func(string) string
	logger   *slog.Logger
	cache    *ttlcache.Cache[string, []turtle.Entry]
}

// New creates a Service with an empty cache.
func New(config Config) (*Service, error) {
	if config.Client == nil {
		return nil, fmt.Errorf("accesscontrol: Client is required")
	}
	if config.AgentURL == nil {
		return nil, fmt.Errorf("accesscontrol: AgentURL is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := config.CacheTTL
	if ttl == 0 {
		ttl = defaultCacheTTL
	}
	cache := ttlcache.New[string, []turtle.Entry](
		ttlcache.WithTTL[string, []turtle.Entry](ttl),
		ttlcache.WithDisableTouchOnHit[string, []turtle.Entry](),
	)
	return &Service{
		client:   config.Client,
		agentURL: config.AgentURL,
		logger:   logger,
		cache:    cache,
	}, nil
}

// ownerWebID returns the active identity's WebID, or "" when the
// session has no signing identity.
func (s *Service) ownerWebID() string {
	id := s.client.Identity()
	if id == nil {
		return ""
	}
	return s.agentURL(id.PublicKey)
}

// linkACLPattern extracts the target of a Link header entry whose
// relation is acl.
var linkACLPattern = regexp.MustCompile(`<([^>]*)>\s*;[^,]*\brel="?acl"?`)

// aclURL locates the resource's access-control document: a HEAD
// request looking for a link-advertised location, falling back to the
// conventional <resource>.acl when the server advertises nothing. A
// failed HEAD also falls back rather than failing the operation.
func (s *Service) aclURL(ctx context.Context, resourceURL string) string {
	fallback := resourceURL + ".acl"
	response, err := s.client.Do(ctx, podclient.Request{
		URL:    resourceURL,
		Method: http.MethodHead,
	})
	if err != nil {
		return fallback
	}
	for _, value := range response.Header.Values("Link") {
		match := linkACLPattern.FindStringSubmatch(value)
		if match == nil {
			continue
		}
		base, err := url.Parse(resourceURL)
		if err != nil {
			return fallback
		}
		ref, err := url.Parse(match[1])
		if err != nil {
			return fallback
		}
		return base.ResolveReference(ref).String()
	}
	return fallback
}

// Get returns the resource's access-control entries, from cache when
// fresh. A missing ACL document is an empty entry set, not an error.
func (s *Service) Get(ctx context.Context, resourceURL string) storage.Result[[]turtle.Entry] {
	if item := s.cache.Get(resourceURL); item != nil {
		return storage.Ok(cloneEntries(item.Value()), resourceURL)
	}

	target := s.aclURL(ctx, resourceURL)
	response, err := s.client.Do(ctx, podclient.Request{
		URL:    target,
		Method: http.MethodGet,
		Headers: map[string]string{
			"Accept": "text/turtle",
		},
	})
	if err != nil {
		return storage.FailFrom[[]turtle.Entry](err)
	}
	if response.StatusCode == http.StatusNotFound {
		s.cache.Set(resourceURL, nil, ttlcache.DefaultTTL)
		return storage.Ok[[]turtle.Entry](nil, resourceURL)
	}
	if !response.OK() {
		return storage.FailResponse[[]turtle.Entry](response)
	}

	entries := turtle.DecodeACL(string(response.Body), resourceURL)
	s.cache.Set(resourceURL, entries, ttlcache.DefaultTTL)
	return storage.Ok(cloneEntries(entries), resourceURL)
}

// Set replaces the resource's ACL with entries. The active identity is
// force-included with all four modes unless some entry already grants
// it Control, so a Set can never strip the session's own Control.
func (s *Service) Set(ctx context.Context, resourceURL string, entries []turtle.Entry) storage.Result[[]turtle.Entry] {
	owner := s.ownerWebID()
	if owner == "" {
		return storage.Fail[[]turtle.Entry](podclient.CodeUnauthorized, 0, "no signing identity for ACL write")
	}
	entries = withOwnerControl(entries, owner, resourceURL)

	target := s.aclURL(ctx, resourceURL)
	document := turtle.EncodeACL(entries, resourceURL)
	response, err := s.client.Do(ctx, podclient.Request{
		URL:         target,
		Method:      http.MethodPut,
		Body:        []byte(document),
		ContentType: "text/turtle",
	})
	s.cache.Delete(resourceURL)
	if err != nil {
		return storage.FailFrom[[]turtle.Entry](err)
	}
	if !response.OK() {
		return storage.FailResponse[[]turtle.Entry](response)
	}

	s.cache.Set(resourceURL, entries, ttlcache.DefaultTTL)
	s.logger.Debug("wrote ACL document",
		"resource", resourceURL,
		"entries", len(entries))
	return storage.Ok(cloneEntries(entries), resourceURL)
}

// Grant adds modes for subject on the resource, merging into the
// subject's existing entry when one exists.
func (s *Service) Grant(ctx context.Context, resourceURL string, subject turtle.Subject, modes []turtle.Mode) storage.Result[[]turtle.Entry] {
	current := s.Get(ctx, resourceURL)
	if current.Err != nil {
		return current
	}

	entries := current.Data
	merged := false
	for i, entry := range entries {
		if entry.Subject == subject {
			entries[i].Modes = turtle.NormalizeModes(append(entry.Modes, modes...))
			merged = true
			break
		}
	}
	if !merged {
		entries = append(entries, turtle.Entry{
			Subject:  subject,
			Modes:    turtle.NormalizeModes(modes),
			Resource: resourceURL,
			Default:  strings.HasSuffix(resourceURL, "/"),
		})
	}
	return s.Set(ctx, resourceURL, entries)
}

// Revoke removes modes for subject on the resource. A nil or empty
// modes slice revokes the subject entirely. Revoking the active
// identity's own Control, directly or via an unqualified revoke, is
// rejected before any network traffic.
func (s *Service) Revoke(ctx context.Context, resourceURL string, subject turtle.Subject, modes []turtle.Mode) storage.Result[[]turtle.Entry] {
	owner := s.ownerWebID()
	if owner == "" {
		return storage.Fail[[]turtle.Entry](podclient.CodeUnauthorized, 0, "no signing identity for ACL write")
	}
	if subject.Type == turtle.SubjectAgent && subject.ID == owner {
		unqualified := len(modes) == 0
		if unqualified || hasMode(modes, turtle.Control) {
			return storage.Fail[[]turtle.Entry](podclient.CodeForbidden, 0,
				"refusing to revoke the active identity's Control")
		}
	}

	current := s.Get(ctx, resourceURL)
	if current.Err != nil {
		return current
	}

	var entries []turtle.Entry
	for _, entry := range current.Data {
		if entry.Subject != subject {
			entries = append(entries, entry)
			continue
		}
		if len(modes) == 0 {
			continue
		}
		remaining := subtractModes(entry.Modes, modes)
		if len(remaining) == 0 {
			continue
		}
		entry.Modes = remaining
		entries = append(entries, entry)
	}
	return s.Set(ctx, resourceURL, entries)
}

// SyncFromCohorts rebuilds the resource's member population from
// cohort membership. Existing entries for the active identity and for
// the public and authenticated classes are preserved; every other
// agent or group entry is discarded, then one entry per member key is
// added. Member modes are explicitModes when non-empty, otherwise the
// union of the named cohorts' default mode sets. This is a full
// replacement of the membership, not a merge.
func (s *Service) SyncFromCohorts(ctx context.Context, resourceURL string, memberKeys []string, cohorts []string, explicitModes []turtle.Mode) storage.Result[[]turtle.Entry] {
	owner := s.ownerWebID()
	if owner == "" {
		return storage.Fail[[]turtle.Entry](podclient.CodeUnauthorized, 0, "no signing identity for ACL write")
	}

	current := s.Get(ctx, resourceURL)
	if current.Err != nil {
		return current
	}

	var entries []turtle.Entry
	for _, entry := range current.Data {
		switch entry.Subject.Type {
		case turtle.SubjectPublic, turtle.SubjectAuthenticated:
			entries = append(entries, entry)
		case turtle.SubjectAgent:
			if entry.Subject.ID == owner {
				entries = append(entries, entry)
			}
		}
	}

	modes := turtle.NormalizeModes(explicitModes)
	if len(modes) == 0 {
		modes = CohortModes(cohorts)
	}
	isContainer := strings.HasSuffix(resourceURL, "/")
	for _, key := range memberKeys {
		agent := s.agentURL(key)
		if agent == owner {
			continue
		}
		entries = append(entries, turtle.Entry{
			Subject:  turtle.Agent(agent),
			Modes:    modes,
			Resource: resourceURL,
			Default:  isContainer,
		})
	}
	return s.Set(ctx, resourceURL, entries)
}

// CheckAccess reports whether subjectKey holds mode on the resource.
// An entry for the authenticated class grants to every logged-in
// caller, which is broader than per-member access; callers gating
// member-only features should rely on explicit agent entries. Group
// subjects never grant here, as group membership is not resolved.
func (s *Service) CheckAccess(ctx context.Context, resourceURL, subjectKey string, mode turtle.Mode) storage.Result[bool] {
	current := s.Get(ctx, resourceURL)
	if current.Err != nil {
		return storage.Result[bool]{URL: resourceURL, Err: current.Err}
	}

	agent := s.agentURL(subjectKey)
	for _, entry := range current.Data {
		if !entry.HasMode(mode) {
			continue
		}
		switch entry.Subject.Type {
		case turtle.SubjectPublic, turtle.SubjectAuthenticated:
			return storage.Ok(true, resourceURL)
		case turtle.SubjectAgent:
			if entry.Subject.ID == agent {
				return storage.Ok(true, resourceURL)
			}
		}
	}
	return storage.Ok(false, resourceURL)
}

// withOwnerControl appends an all-modes entry for owner unless some
// entry already grants it Control.
func withOwnerControl(entries []turtle.Entry, owner, resourceURL string) []turtle.Entry {
	for _, entry := range entries {
		if entry.Subject.Type == turtle.SubjectAgent && entry.Subject.ID == owner && entry.HasMode(turtle.Control) {
			return entries
		}
	}
	return append(entries, turtle.Entry{
		Subject:  turtle.Agent(owner),
		Modes:    turtle.AllModes,
		Resource: resourceURL,
		Default:  strings.HasSuffix(resourceURL, "/"),
	})
}

func hasMode(modes []turtle.Mode, mode turtle.Mode) bool {
	for _, m := range modes {
		if m == mode {
			return true
		}
	}
	return false
}

// subtractModes returns kept minus removed, canonically ordered.
func subtractModes(kept, removed []turtle.Mode) []turtle.Mode {
	var remaining []turtle.Mode
	for _, mode := range turtle.NormalizeModes(kept) {
		if !hasMode(removed, mode) {
			remaining = append(remaining, mode)
		}
	}
	return remaining
}

// cloneEntries copies the slice so callers cannot mutate the cache.
func cloneEntries(entries []turtle.Entry) []turtle.Entry {
	if entries == nil {
		return nil
	}
	cloned := make([]turtle.Entry, len(entries))
	copy(cloned, entries)
	return cloned
}
