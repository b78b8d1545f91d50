// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/podstr-project/podstr/lib/podclient"
	"github.com/podstr-project/podstr/lib/turtle"
)

// Filter narrows a listing. Zero-valued fields match everything; Since
// and Until are inclusive Unix-second bounds on created_at.
type Filter struct {
	Kind   *int
	PubKey string
	Since  *int64
	Until  *int64
}

// matches reports whether event passes the filter.
func (f Filter) matches(event *turtle.Event) bool {
	if f.Kind != nil && event.Kind != *f.Kind {
		return false
	}
	if f.PubKey != "" && event.PubKey != f.PubKey {
		return false
	}
	createdAt := int64(event.CreatedAt)
	if f.Since != nil && createdAt < *f.Since {
		return false
	}
	if f.Until != nil && createdAt > *f.Until {
		return false
	}
	return true
}

// ListOptions control List.
type ListOptions struct {
	// Container to enumerate; the plain-events container when empty.
	Container string
	// Limit caps the result count; 0 means unlimited.
	Limit int
	// Offset skips filtered results. Skipped fetch failures do not
	// consume offset budget.
	Offset int
	// Filter narrows results before offset and limit apply.
	Filter Filter
}

// containedPattern matches resource references in a container listing.
// Both ldp:contains object lists and plain link forms reduce to
// angle-bracketed URLs ending in .ttl.
var containedPattern = regexp.MustCompile(`<([^<>]*\.ttl)>`)

// listItem is the internal per-resource outcome of a listing pass.
// The public contract returns only the decoded subset; modeling the
// failures explicitly keeps the skip behavior testable.
type listItem struct {
	url   string
	event *turtle.Event
	err   error
}

// containedResources extracts contained .ttl resource URLs from a
// container listing, resolved against the container URL.
func containedResources(listing, containerURL string) []string {
	base, err := url.Parse(containerURL)
	if err != nil {
		return nil
	}

	seen := map[string]bool{}
	var resources []string
	for _, match := range containedPattern.FindAllStringSubmatch(listing, -1) {
		reference, err := url.Parse(strings.TrimSpace(match[1]))
		if err != nil {
			continue
		}
		resolved := base.ResolveReference(reference).String()
		if resolved == containerURL || seen[resolved] {
			continue
		}
		seen[resolved] = true
		resources = append(resources, resolved)
	}
	return resources
}

// listItems fetches and decodes every contained event document,
// recording per-item failures instead of aborting.
func (s *Service) listItems(ctx context.Context, containerURL string) ([]listItem, *OpError) {
	response, err := s.client.Do(ctx, podclient.Request{URL: containerURL, Method: http.MethodGet})
	if err != nil {
		failed := FailFrom[[]listItem](err)
		return nil, failed.Err
	}
	if !response.OK() {
		failed := FailResponse[[]listItem](response)
		return nil, failed.Err
	}

	var items []listItem
	for _, resourceURL := range containedResources(string(response.Body), containerURL) {
		item := listItem{url: resourceURL}
		itemResponse, err := s.client.Do(ctx, podclient.Request{URL: resourceURL, Method: http.MethodGet})
		switch {
		case err != nil:
			item.err = err
		case !itemResponse.OK():
			item.err = &podclient.Error{Code: itemResponse.Code, StatusCode: itemResponse.StatusCode, Message: "fetch failed"}
		default:
			event, decodeErr := turtle.DecodeEvent(string(itemResponse.Body))
			if decodeErr != nil {
				item.err = decodeErr
			} else {
				item.event = event
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// List enumerates a container's events. Per-item fetch and decode
// failures are absorbed silently — they are skipped without consuming
// offset budget, and only the successfully decoded subset is returned.
// The filter applies before offset and limit.
func (s *Service) List(ctx context.Context, options ListOptions) Result[[]*turtle.Event] {
	if !s.client.Authenticated() {
		return authFailure[[]*turtle.Event]()
	}

	container := options.Container
	if container == "" {
		container = s.paths.PlainEvents
	}
	containerURL := s.paths.ResolveContainer(container)

	items, opErr := s.listItems(ctx, containerURL)
	if opErr != nil {
		return Result[[]*turtle.Event]{Err: opErr}
	}

	skipped := 0
	var filtered []*turtle.Event
	for _, item := range items {
		if item.err != nil {
			skipped++
			continue
		}
		if options.Filter.matches(item.event) {
			filtered = append(filtered, item.event)
		}
	}
	if skipped > 0 {
		s.logger.Debug("skipped undecodable or unreachable listing items",
			"container", containerURL, "skipped", skipped)
	}

	if options.Offset > 0 {
		if options.Offset >= len(filtered) {
			filtered = nil
		} else {
			filtered = filtered[options.Offset:]
		}
	}
	if options.Limit > 0 && len(filtered) > options.Limit {
		filtered = filtered[:options.Limit]
	}
	return Ok(filtered, containerURL)
}
