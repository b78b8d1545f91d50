// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

// Package provision creates a pod space for a Nostr identity.
//
// A space is a root container named after the identity's npub, a
// fixed set of sub-containers, and a profile document carrying the
// key linkage. Provisioning is idempotent: a space whose root already
// answers is reported as existing, not an error. Only the root
// container is load-bearing; sub-container and profile failures are
// logged and the space is still considered provisioned.
package provision
