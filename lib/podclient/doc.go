// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

// Package podclient is the HTTP layer of the bridge: authenticated
// requests to pod servers with timeout, bounded exponential-backoff
// retry on transport failure, content-type-driven body decoding, and
// a closed status-code taxonomy.
//
// Authentication prefers a collaborator-provided authenticated fetch
// (the session layer's bearer-credentialed function). When none is
// present and a signing identity is, each attempt carries a fresh
// signed-request header (see package reqsig). With neither, requests
// go out unauthenticated.
//
// This is the only package in the module that returns errors from
// network interaction. The service layers above convert every error
// into their uniform result type; see package storage.
package podclient
