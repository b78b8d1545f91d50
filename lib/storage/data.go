// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/podstr-project/podstr/lib/podclient"
)

// encodePayload turns caller data into wire bytes for the declared
// content type: structured encode for the JSON family, opaque bytes or
// text otherwise.
func encodePayload(data any, contentType string) ([]byte, *OpError) {
	if isJSONContentType(contentType) {
		encoded, err := json.Marshal(data)
		if err != nil {
			return nil, &OpError{Code: podclient.CodeInvalidData, Details: "encoding JSON payload: " + err.Error()}
		}
		return encoded, nil
	}
	switch value := data.(type) {
	case []byte:
		return value, nil
	case string:
		return []byte(value), nil
	default:
		return nil, &OpError{Code: podclient.CodeInvalidData, Details: "non-JSON content types need string or []byte data"}
	}
}

func isJSONContentType(contentType string) bool {
	mediaType := strings.TrimSpace(strings.Split(contentType, ";")[0])
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// StoreData writes a generic document at a caller path with a caller
// content type. The offline and transport-failure queue behavior
// matches Store.
func (s *Service) StoreData(ctx context.Context, path string, data any, contentType string) Result[string] {
	if !s.client.Authenticated() {
		return authFailure[string]()
	}

	url := s.paths.Resolve(path)
	payload, opErr := encodePayload(data, contentType)
	if opErr != nil {
		return Result[string]{Err: opErr}
	}

	if !s.connectivity.Online() {
		if err := s.enqueue(OpCreate, url, string(payload), contentType); err != nil {
			return FailFrom[string](err)
		}
		return Queued[string](url)
	}

	response, err := s.client.Do(ctx, podclient.Request{
		URL:         url,
		Method:      http.MethodPut,
		Body:        payload,
		ContentType: contentType,
	})
	if err != nil {
		if podclient.IsCode(err, podclient.CodeNetworkError) {
			if enqueueErr := s.enqueue(OpCreate, url, string(payload), contentType); enqueueErr != nil {
				return FailFrom[string](enqueueErr)
			}
			return Queued[string](url)
		}
		return FailFrom[string](err)
	}
	if !response.OK() {
		return FailResponse[string](response)
	}
	return Ok(url, url)
}

// RetrieveData fetches a generic document. The result data is the
// structured decoding for JSON-family responses, the text for textual
// responses, and raw bytes otherwise.
func (s *Service) RetrieveData(ctx context.Context, path string) Result[any] {
	if !s.client.Authenticated() {
		return authFailure[any]()
	}

	url := s.paths.Resolve(path)
	response, err := s.client.Do(ctx, podclient.Request{URL: url, Method: http.MethodGet})
	if err != nil {
		return FailFrom[any](err)
	}
	if !response.OK() {
		return FailResponse[any](response)
	}

	switch {
	case response.JSON != nil:
		return Ok[any](response.JSON, url)
	case response.Text != "":
		return Ok[any](response.Text, url)
	default:
		return Ok[any](response.Body, url)
	}
}
