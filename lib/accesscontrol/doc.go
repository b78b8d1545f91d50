// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

// Package accesscontrol manages WAC access-control documents on a pod.
//
// A Service wraps read-modify-write cycles over a resource's ACL
// document: fetching it (with link-relation discovery and a short
// per-session cache), replacing it wholesale, granting and revoking
// individual modes, and rebuilding the member population from cohort
// definitions. The service enforces one invariant across every write
// path: the active identity keeps Control of any resource it manages,
// so a caller cannot lock the session out of its own pod.
package accesscontrol
