// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

package podclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/podstr-project/podstr/lib/clock"
	"github.com/podstr-project/podstr/lib/identity"
	"github.com/podstr-project/podstr/lib/netutil"
	"github.com/podstr-project/podstr/lib/reqsig"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultRetryCeiling = 3
	defaultRetryBase    = 500 * time.Millisecond
)

// AuthRequestFunc is an externally-provided authenticated fetch: the
// session/auth collaborator hands the bridge a function that performs
// an HTTP request with its own bearer credentials attached. When
// present it takes precedence over signed-request auth.
type AuthRequestFunc func(request *http.Request) (*http.Response, error)

// Config holds configuration for creating a Client.
type Config struct {
	// HTTPClient is used for all requests. If nil, a client with a
	// connection timeout is constructed.
	HTTPClient *http.Client
	// Identity signs requests when no AuthFetch is available. May be
	// nil for unauthenticated sessions.
	Identity *identity.Identity
	// AuthFetch is the collaborator-provided authenticated fetch.
	// Optional.
	AuthFetch AuthRequestFunc
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
	// Clock drives retry backoff. If nil, clock.Real() is used.
	Clock clock.Clock
	// Timeout bounds each request including retries. Zero means 30s.
	Timeout time.Duration
	// RetryCeiling is the maximum number of retries after a transport
	// failure. Zero means 3.
	RetryCeiling int
	// RetryBase is the backoff unit: attempt n sleeps base * 2^n.
	// Zero means 500ms.
	RetryBase time.Duration
}

// Client performs authenticated HTTP calls against pod servers. It is
// the only layer in the module that returns errors; the services above
// convert them into uniform results.
type Client struct {
	httpClient   *http.Client
	identity     *identity.Identity
	authFetch    AuthRequestFunc
	logger       *slog.Logger
	clock        clock.Clock
	timeout      time.Duration
	retryCeiling int
	retryBase    time.Duration
}

// New creates a Client.
func New(config Config) *Client {
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	retryCeiling := config.RetryCeiling
	if retryCeiling == 0 {
		retryCeiling = defaultRetryCeiling
	}
	retryBase := config.RetryBase
	if retryBase == 0 {
		retryBase = defaultRetryBase
	}
	return &Client{
		httpClient:   httpClient,
		identity:     config.Identity,
		authFetch:    config.AuthFetch,
		logger:       logger,
		clock:        clk,
		timeout:      timeout,
		retryCeiling: retryCeiling,
		retryBase:    retryBase,
	}
}

// Authenticated reports whether the client can attach credentials:
// either an external authenticated fetch or a signing identity.
func (c *Client) Authenticated() bool {
	return c.authFetch != nil || (c.identity != nil && c.identity.CanSign())
}

// Identity returns the signing identity, or nil.
func (c *Client) Identity() *identity.Identity { return c.identity }

// Request describes one pod interaction.
type Request struct {
	// URL is the absolute target URL.
	URL string
	// Method is the HTTP method.
	Method string
	// Headers are additional request headers. Authorization and
	// Content-Type are managed by the client.
	Headers map[string]string
	// Body is the raw request payload, nil for body-less methods.
	Body []byte
	// ContentType is set on the request when Body is present.
	ContentType string
}

// Response is a completed pod interaction. Non-2xx responses are
// returned as values, not errors; Code carries the advisory
// classification.
type Response struct {
	// StatusCode is the HTTP status.
	StatusCode int
	// Header is the response header.
	Header http.Header
	// Body is the raw response body.
	Body []byte
	// JSON holds the structured decoding of a JSON-family body, nil
	// otherwise.
	JSON any
	// Text holds the body for text-family content types.
	Text string
	// Code is the taxonomy classification for non-2xx statuses,
	// empty for 2xx.
	Code Code
}

// OK reports whether the response status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Do performs one pod request:
//
//  1. A payload digest (sha256, the event-id hash) binds the signature
//     to the exact body.
//  2. The Authorization header is computed against the target URL and
//     method, fresh per attempt.
//  3. The configured timeout applies to the whole call; a timeout
//     raises immediately with no retry.
//  4. Transport failures retry with exponential backoff up to the
//     ceiling; exhaustion raises CodeNetworkError wrapping the last
//     cause.
//  5. The body is decoded by declared content type.
//  6. Terminal status codes are classified, advisory only.
func (c *Client) Do(ctx context.Context, request Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	digest := ""
	if request.Body != nil {
		digest = reqsig.PayloadDigest(request.Body)
	}

	var lastErr error
	for attempt := 0; attempt <= c.retryCeiling; attempt++ {
		if attempt > 0 {
			backoff := c.retryBase * (1 << (attempt - 1))
			c.logger.Debug("retrying pod request",
				"url", request.URL,
				"method", request.Method,
				"attempt", attempt,
				"backoff", backoff,
			)
			c.clock.Sleep(backoff)
		}

		response, err := c.attempt(ctx, request, digest)
		if err == nil {
			return response, nil
		}

		// A timeout is a cancellation, not a transient transport
		// fault: surface it immediately.
		if ctx.Err() != nil {
			return nil, &Error{
				Code:    CodeNetworkError,
				Message: fmt.Sprintf("%s %s timed out", request.Method, request.URL),
				Cause:   err,
			}
		}

		// Auth construction failures are not retryable.
		var podErr *Error
		if errors.As(err, &podErr) && podErr.Code == CodeUnauthorized {
			return nil, err
		}

		lastErr = err
	}

	return nil, &Error{
		Code:    CodeNetworkError,
		Message: fmt.Sprintf("%s %s failed after %d retries", request.Method, request.URL, c.retryCeiling),
		Cause:   lastErr,
	}
}

// attempt performs a single request attempt.
func (c *Client) attempt(ctx context.Context, request Request, digest string) (*Response, error) {
	var bodyReader io.Reader
	if request.Body != nil {
		bodyReader = bytes.NewReader(request.Body)
	}
	httpRequest, err := http.NewRequestWithContext(ctx, strings.ToUpper(request.Method), request.URL, bodyReader)
	if err != nil {
		return nil, &Error{Code: CodeInvalidData, Message: "building request", Cause: err}
	}

	if request.ContentType != "" && request.Body != nil {
		httpRequest.Header.Set("Content-Type", request.ContentType)
	}
	for name, value := range request.Headers {
		httpRequest.Header.Set(name, value)
	}

	var httpResponse *http.Response
	switch {
	case c.authFetch != nil:
		httpResponse, err = c.authFetch(httpRequest)
	case c.identity != nil && c.identity.CanSign():
		header, signErr := reqsig.AuthHeader(c.identity, request.URL, request.Method, digest, c.clock.Now())
		if signErr != nil {
			return nil, &Error{Code: CodeUnauthorized, Message: "signing request", Cause: signErr}
		}
		httpRequest.Header.Set("Authorization", header)
		httpResponse, err = c.httpClient.Do(httpRequest)
	default:
		httpResponse, err = c.httpClient.Do(httpRequest)
	}
	if err != nil {
		return nil, fmt.Errorf("podclient: %s %s: %w", request.Method, request.URL, err)
	}
	defer httpResponse.Body.Close()

	responseBody, err := netutil.ReadResponse(httpResponse.Body)
	if err != nil {
		return nil, fmt.Errorf("podclient: reading response from %s: %w", request.URL, err)
	}

	response := &Response{
		StatusCode: httpResponse.StatusCode,
		Header:     httpResponse.Header,
		Body:       responseBody,
	}
	decodeBody(response, httpResponse.Header.Get("Content-Type"))
	if !response.OK() {
		response.Code = Classify(httpResponse.StatusCode)
	}
	return response, nil
}

// decodeBody parses the body by declared content type: structured
// decode for the JSON family, text for textual types, raw otherwise.
// A JSON body that fails to parse is left raw — classification of the
// status code is independent of body decoding.
func decodeBody(response *Response, contentType string) {
	if len(response.Body) == 0 {
		return
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return
	}
	switch {
	case isJSONFamily(mediaType):
		var decoded any
		if err := json.Unmarshal(response.Body, &decoded); err == nil {
			response.JSON = decoded
		}
		response.Text = string(response.Body)
	case isTextFamily(mediaType):
		response.Text = string(response.Body)
	}
}

// isJSONFamily reports whether the media type carries JSON.
func isJSONFamily(mediaType string) bool {
	return mediaType == "application/json" ||
		strings.HasSuffix(mediaType, "+json")
}

// isTextFamily reports whether the media type is textual.
func isTextFamily(mediaType string) bool {
	return strings.HasPrefix(mediaType, "text/") ||
		mediaType == "application/sparql-update" ||
		strings.HasSuffix(mediaType, "+xml")
}
