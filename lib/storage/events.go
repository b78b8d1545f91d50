// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"net/http"

	podidentity "github.com/podstr-project/podstr/lib/identity"
	"github.com/podstr-project/podstr/lib/podclient"
	"github.com/podstr-project/podstr/lib/turtle"
)

const turtleContentType = "text/turtle"

// StoreOptions control Store.
type StoreOptions struct {
	// Container overrides the default container (plain or encrypted
	// events, by the event's encryption flag). Accepts a name under
	// the pod root or an absolute URL.
	Container string
	// Encrypt encrypts the event content to the session identity
	// before storing, marking the event encrypted.
	Encrypt bool
}

// eventURL is the canonical resource URL for an event in a container.
func (s *Service) eventURL(container, id string) string {
	return s.paths.ResolveContainer(container) + id + ".ttl"
}

// probeContainers is the dual-container order for retrieval without an
// explicit container: plain events first, then encrypted.
func (s *Service) probeContainers(explicit string) []string {
	if explicit != "" {
		return []string{explicit}
	}
	return []string{s.paths.PlainEvents, s.paths.EncryptedEvents}
}

// Store writes a domain event to the pod as a Turtle document at
// <container>/<id>.ttl. While offline the write is queued and reported
// as pending success. A transport failure on the PUT is queued too,
// not failed; only HTTP rejections fail.
func (s *Service) Store(ctx context.Context, event *turtle.Event, options StoreOptions) Result[*turtle.Event] {
	if !s.client.Authenticated() {
		return authFailure[*turtle.Event]()
	}

	if options.Encrypt && !event.Encrypted {
		identity := s.client.Identity()
		if identity == nil {
			return Fail[*turtle.Event](podclient.CodeUnauthorized, 0, "encryption requires a signing identity")
		}
		ciphertext, err := identity.EncryptContent(event.Content, identity.PublicKey)
		if err != nil {
			return Fail[*turtle.Event](podclient.CodeInvalidData, 0, "encrypting event: "+err.Error())
		}
		encrypted := *event
		encrypted.Content = ciphertext
		encrypted.Encrypted = true
		encrypted.EncryptionMethod = podidentity.EncryptionMethod
		event = &encrypted
	}

	container := options.Container
	if container == "" {
		if event.Encrypted {
			container = s.paths.EncryptedEvents
		} else {
			container = s.paths.PlainEvents
		}
	}
	url := s.eventURL(container, event.ID)
	document := turtle.EncodeEvent(event)

	if !s.connectivity.Online() {
		if err := s.enqueue(OpCreate, url, document, turtleContentType); err != nil {
			return FailFrom[*turtle.Event](err)
		}
		return Queued[*turtle.Event](url)
	}

	response, err := s.client.Do(ctx, podclient.Request{
		URL:         url,
		Method:      http.MethodPut,
		Body:        []byte(document),
		ContentType: turtleContentType,
	})
	if err != nil {
		if podclient.IsCode(err, podclient.CodeNetworkError) {
			if enqueueErr := s.enqueue(OpCreate, url, document, turtleContentType); enqueueErr != nil {
				return FailFrom[*turtle.Event](enqueueErr)
			}
			return Queued[*turtle.Event](url)
		}
		return FailFrom[*turtle.Event](err)
	}
	if !response.OK() {
		return FailResponse[*turtle.Event](response)
	}
	return Ok(event, url)
}

// Retrieve fetches an event by ID. Without an explicit container it
// probes plain events first, then encrypted events; a missing resource
// or an undecodable document means "try the next container," not a
// hard error. Exhausting every container is not-found.
func (s *Service) Retrieve(ctx context.Context, id string, container ...string) Result[*turtle.Event] {
	if !s.client.Authenticated() {
		return authFailure[*turtle.Event]()
	}

	explicit := ""
	if len(container) > 0 {
		explicit = container[0]
	}

	for _, probe := range s.probeContainers(explicit) {
		url := s.eventURL(probe, id)
		response, err := s.client.Do(ctx, podclient.Request{URL: url, Method: http.MethodGet})
		if err != nil {
			return FailFrom[*turtle.Event](err)
		}
		if response.StatusCode == http.StatusNotFound {
			continue
		}
		if !response.OK() {
			return FailResponse[*turtle.Event](response)
		}
		event, decodeErr := turtle.DecodeEvent(string(response.Body))
		if decodeErr != nil {
			s.logger.Debug("skipping undecodable event document", "url", url, "error", decodeErr)
			continue
		}
		return Ok(event, url)
	}
	return Fail[*turtle.Event](podclient.CodeNotFound, 0, "event "+id+" not found in any container")
}

// Delete removes an event by ID, probing the same containers Retrieve
// does. Success is a 2xx (including 204). While offline the delete is
// queued against the explicit container, or the plain-events container
// when unspecified.
func (s *Service) Delete(ctx context.Context, id string, container ...string) Result[struct{}] {
	if !s.client.Authenticated() {
		return authFailure[struct{}]()
	}

	explicit := ""
	if len(container) > 0 {
		explicit = container[0]
	}

	if !s.connectivity.Online() {
		target := explicit
		if target == "" {
			target = s.paths.PlainEvents
		}
		url := s.eventURL(target, id)
		if err := s.enqueue(OpDelete, url, "", ""); err != nil {
			return FailFrom[struct{}](err)
		}
		return Queued[struct{}](url)
	}

	for _, probe := range s.probeContainers(explicit) {
		url := s.eventURL(probe, id)
		response, err := s.client.Do(ctx, podclient.Request{URL: url, Method: http.MethodDelete})
		if err != nil {
			if podclient.IsCode(err, podclient.CodeNetworkError) {
				if enqueueErr := s.enqueue(OpDelete, url, "", ""); enqueueErr != nil {
					return FailFrom[struct{}](enqueueErr)
				}
				return Queued[struct{}](url)
			}
			return FailFrom[struct{}](err)
		}
		if response.StatusCode == http.StatusNotFound {
			continue
		}
		if !response.OK() {
			return FailResponse[struct{}](response)
		}
		return Ok(struct{}{}, url)
	}
	return Fail[struct{}](podclient.CodeNotFound, 0, "event "+id+" not found in any container")
}
