// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import "sync/atomic"

// Connectivity reports whether the host currently has network
// reachability. The original host coupled this to a browser signal;
// here it is injectable so embedders can wire their platform's oracle
// and tests can force offline behavior.
type Connectivity interface {
	Online() bool
}

// AlwaysOnline is the default oracle for hosts without a connectivity
// signal: every write is attempted and transport failures fall back to
// the queue anyway.
type AlwaysOnline struct{}

func (AlwaysOnline) Online() bool { return true }

// Switch is a settable Connectivity oracle. Embedders flip it from
// their platform's network callbacks; tests flip it directly.
type Switch struct {
	offline atomic.Bool
}

// NewSwitch returns a Switch that starts online.
func NewSwitch() *Switch { return &Switch{} }

func (s *Switch) Online() bool { return !s.offline.Load() }

// SetOnline flips the oracle.
func (s *Switch) SetOnline(online bool) { s.offline.Store(!online) }
