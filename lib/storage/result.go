// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"errors"
	"fmt"

	"github.com/podstr-project/podstr/lib/podclient"
)

// OpError is the uniform error payload of a failed operation: a closed
// taxonomy code, an optional HTTP status, and free-form details.
type OpError struct {
	Code       podclient.Code
	StatusCode int
	Details    string
}

func (e *OpError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Details)
}

// Result is the uniform outcome every public storage and
// access-control operation returns. Exceptions never escape the
// service layers; they are converted here.
type Result[T any] struct {
	// Success is true for completed and for queued-offline operations.
	Success bool
	// Pending is true when a write was queued for later sync instead
	// of being performed.
	Pending bool
	// Data is the operation's payload, zero-valued on failure.
	Data T
	// URL is the resource the operation addressed, when known.
	URL string
	// Err carries the classification on failure, nil otherwise.
	Err *OpError
}

// Ok constructs a success result.
func Ok[T any](data T, url string) Result[T] {
	return Result[T]{Success: true, Data: data, URL: url}
}

// Queued constructs a success-with-pending-sync result.
func Queued[T any](url string) Result[T] {
	return Result[T]{Success: true, Pending: true, URL: url}
}

// Fail constructs a failure result.
func Fail[T any](code podclient.Code, statusCode int, details string) Result[T] {
	return Result[T]{Err: &OpError{Code: code, StatusCode: statusCode, Details: details}}
}

// FailFrom converts a pod client error into a failure result,
// preserving its classification.
func FailFrom[T any](err error) Result[T] {
	var podErr *podclient.Error
	if errors.As(err, &podErr) {
		return Fail[T](podErr.Code, podErr.StatusCode, podErr.Message)
	}
	return Fail[T](podclient.CodeUnknown, 0, err.Error())
}

// FailResponse converts a non-2xx pod response into a failure result
// using its advisory classification.
func FailResponse[T any](response *podclient.Response) Result[T] {
	details := response.Text
	if details == "" {
		details = string(response.Body)
	}
	return Fail[T](response.Code, response.StatusCode, details)
}
