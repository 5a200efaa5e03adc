// Copyright 2026 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package coalesce provides a coalescing event: a two-state token that lets
// any number of concurrent requesters share a single in-flight request.
//
// The requester raises the event and submits its request only when Raise
// reports a transition from idle to in-flight. The consumer clears the event
// at the moment it starts applying the request, not after, so that any
// event raised after Clear is guaranteed a fresh submission and any event
// raised before Clear is folded into the request being applied.
package coalesce

import "gvisor.dev/rt/pkg/atomicbitops"

// Event is a coalescing event. The zero value is idle.
type Event struct {
	inFlight atomicbitops.Bool
}

// Raise marks the event in flight. It returns true iff the event was idle, in
// which case the caller must submit the request.
//
//go:nosplit
func (e *Event) Raise() bool {
	return !e.inFlight.Swap(true)
}

// Clear returns the event to idle. It must only be called by the consumer,
// before it applies the request.
//
//go:nosplit
func (e *Event) Clear() {
	e.inFlight.Store(false)
}

// Pending reports whether a request is in flight.
func (e *Event) Pending() bool {
	return e.inFlight.Load()
}
