// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

package podclient

import (
	"errors"
	"fmt"
)

// Code classifies a failed pod interaction. The set is closed; every
// error surfaced by this module carries exactly one Code.
type Code string

const (
	// CodeUnauthorized means the request lacked valid credentials (401),
	// or no identity was available to sign with.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden means the credentials were valid but the ACL denies
	// the operation (403).
	CodeForbidden Code = "forbidden"
	// CodeNotFound means the resource does not exist (404), or every
	// container in a dual-container probe was exhausted.
	CodeNotFound Code = "not_found"
	// CodeConflict means the server rejected the write due to a
	// concurrent change (409).
	CodeConflict Code = "conflict"
	// CodeInvalidData means the server rejected the request body
	// (400, 422).
	CodeInvalidData Code = "invalid_data"
	// CodeParseError means a response document could not be decoded.
	CodeParseError Code = "parse_error"
	// CodeServerError means the server failed (5xx).
	CodeServerError Code = "server_error"
	// CodeNetworkError means the request never completed: transport
	// failure after retries, or timeout.
	CodeNetworkError Code = "network_error"
	// CodeUnknown covers everything else.
	CodeUnknown Code = "unknown"
)

// Classify maps a terminal HTTP status code into the taxonomy. The
// classification is advisory: a non-2xx response does not itself raise.
func Classify(statusCode int) Code {
	switch {
	case statusCode == 401:
		return CodeUnauthorized
	case statusCode == 403:
		return CodeForbidden
	case statusCode == 404:
		return CodeNotFound
	case statusCode == 409:
		return CodeConflict
	case statusCode == 400 || statusCode == 422:
		return CodeInvalidData
	case statusCode >= 500:
		return CodeServerError
	default:
		return CodeUnknown
	}
}

// Error is a classified pod client failure. Callers use errors.As to
// extract the structured information:
//
//	var podErr *podclient.Error
//	if errors.As(err, &podErr) {
//	    if podErr.Code == podclient.CodeNetworkError { ... }
//	}
type Error struct {
	// Code is the taxonomy classification.
	Code Code
	// StatusCode is the HTTP status, or 0 when the request never
	// completed.
	StatusCode int
	// Message is free-form detail.
	Message string
	// Cause is the underlying error, if any.
	Cause error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("podclient: %s (%d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("podclient: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// IsCode checks whether err is a *Error with the given code.
func IsCode(err error, code Code) bool {
	var podErr *Error
	if errors.As(err, &podErr) {
		return podErr.Code == code
	}
	return false
}
