// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

package provision

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/podstr-project/podstr/lib/idbridge"
	"github.com/podstr-project/podstr/lib/podclient"
	"github.com/podstr-project/podstr/lib/storage"
)

// basicContainer is the LDP type advertised when creating containers.
const basicContainer = `<http://www.w3.org/ns/ldp#BasicContainer>; rel="type"`

// subContainers are created under every new space root.
var subContainers = []string{
	storage.ContainerEvents,
	storage.ContainerEncryptedEvents,
	storage.ContainerDocuments,
	storage.ContainerProfile,
	storage.ContainerInbox,
}

// Info describes a provisioned space.
type Info struct {
	// SpaceName is the npub-derived root container name.
	SpaceName string
	// PodRoot is the root container URL.
	PodRoot string
	// WebID is the identity's storage identity URL inside the space.
	WebID string
	// AlreadyExists is true when the root answered before any create.
	AlreadyExists bool
}

// Config holds configuration for creating a provisioning Service.
type Config struct {
	// Client performs the pod HTTP calls. Required.
	Client *podclient.Client
	// ServerBase is the pod server's base URL. Required.
	ServerBase string
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Service provisions pod spaces on one server.
type Service struct {
	client     *podclient.Client
	serverBase string
	logger     *slog.Logger
}

// New creates a provisioning Service.
func New(config Config) (*Service, error) {
	if config.Client == nil {
		return nil, fmt.Errorf("provision: Client is required")
	}
	if config.ServerBase == "" {
		return nil, fmt.Errorf("provision: ServerBase is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client:     config.Client,
		serverBase: config.ServerBase,
		logger:     logger,
	}, nil
}

// Provision creates the active identity's space: root container, the
// fixed sub-containers, and a profile document embedding the key.
// Idempotent: an answering root short-circuits with AlreadyExists.
// Sub-container and profile failures are logged and do not fail the
// operation; a root-creation failure does.
func (s *Service) Provision(ctx context.Context) storage.Result[Info] {
	id := s.client.Identity()
	if id == nil {
		return storage.Fail[Info](podclient.CodeUnauthorized, 0, "no identity to provision for")
	}

	name, err := idbridge.SpaceName(id.PublicKey)
	if err != nil {
		return storage.Fail[Info](podclient.CodeInvalidData, 0, err.Error())
	}
	root, err := idbridge.PodRoot(s.serverBase, id.PublicKey)
	if err != nil {
		return storage.Fail[Info](podclient.CodeInvalidData, 0, err.Error())
	}
	webID, err := idbridge.WebID(s.serverBase, id.PublicKey)
	if err != nil {
		return storage.Fail[Info](podclient.CodeInvalidData, 0, err.Error())
	}
	info := Info{SpaceName: name, PodRoot: root, WebID: webID}

	head, err := s.client.Do(ctx, podclient.Request{
		URL:    root,
		Method: http.MethodHead,
	})
	if err != nil {
		return storage.FailFrom[Info](err)
	}
	if head.OK() {
		info.AlreadyExists = true
		return storage.Ok(info, root)
	}

	if result := s.createContainer(ctx, root); result.Err != nil {
		return storage.Result[Info]{URL: root, Err: result.Err}
	}

	for _, container := range subContainers {
		if result := s.createContainer(ctx, root+container); result.Err != nil {
			s.logger.Warn("sub-container creation failed",
				"container", container,
				"error", result.Err)
		}
	}

	if err := s.writeProfile(ctx, id.PublicKey, webID); err != nil {
		s.logger.Warn("profile document creation failed",
			"webid", webID,
			"error", err)
	}

	return storage.Ok(info, root)
}

// createContainer PUTs an LDP basic container at url.
func (s *Service) createContainer(ctx context.Context, url string) storage.Result[struct{}] {
	response, err := s.client.Do(ctx, podclient.Request{
		URL:    url,
		Method: http.MethodPut,
		Headers: map[string]string{
			"Link": basicContainer,
		},
		Body:        []byte{},
		ContentType: "text/turtle",
	})
	if err != nil {
		return storage.FailFrom[struct{}](err)
	}
	if !response.OK() {
		return storage.FailResponse[struct{}](response)
	}
	return storage.Ok(struct{}{}, url)
}

// writeProfile PUTs the initial profile document with the key linkage.
func (s *Service) writeProfile(ctx context.Context, pubkey, webID string) error {
	id := s.client.Identity()
	npub, err := id.Npub()
	if err != nil {
		return err
	}
	document := idbridge.ProfileDocument(pubkey, npub, "")
	response, err := s.client.Do(ctx, podclient.Request{
		URL:         idbridge.ProfileDocURL(webID),
		Method:      http.MethodPut,
		Body:        []byte(document),
		ContentType: "text/turtle",
	})
	if err != nil {
		return err
	}
	if !response.OK() {
		return &storage.OpError{
			Code:       response.Code,
			StatusCode: response.StatusCode,
			Details:    response.Text,
		}
	}
	return nil
}
