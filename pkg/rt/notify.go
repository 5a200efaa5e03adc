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

package rt

import "gvisor.dev/rt/pkg/atomicbitops"

// Notify is a task notification: a binary semaphore carrying a 32-bit value
// that posters update and the waiter reads.
type Notify struct {
	sem   Sem
	value atomicbitops.Uint32
}

// Init initializes n with value and no pending notification.
func (n *Notify) Init(s *Scheduler, value uint32) {
	n.sem.InitBinary(s, 0)
	n.value.Store(value)
}

// NewNotify returns a notification holding value.
func NewNotify(s *Scheduler, value uint32) *Notify {
	n := new(Notify)
	n.Init(s, value)
	return n
}

// Post signals the waiter without changing the value.
func (n *Notify) Post() {
	n.sem.Post()
}

// Or sets bits in the value and signals the waiter.
func (n *Notify) Or(v uint32) {
	n.value.Or(v)
	n.sem.Post()
}

// Add adds v to the value and signals the waiter.
func (n *Notify) Add(v uint32) {
	n.value.Add(v)
	n.sem.Post()
}

// Set replaces the value and signals the waiter.
func (n *Notify) Set(v uint32) {
	n.value.Store(v)
	n.sem.Post()
}

// Value returns the current value.
func (n *Notify) Value() uint32 {
	return n.value.Load()
}

// Wait blocks until signaled and returns the value.
func (n *Notify) Wait() uint32 {
	n.sem.Wait()
	return n.value.Load()
}

// WaitClear blocks until signaled, clears the bits in mask and returns the
// value as it was before clearing.
func (n *Notify) WaitClear(mask uint32) uint32 {
	n.sem.Wait()
	return n.value.And(^mask)
}

// TryWait returns the value if a notification is pending.
func (n *Notify) TryWait() (uint32, bool) {
	if !n.sem.TryWait() {
		return 0, false
	}
	return n.value.Load(), true
}

// TimedWait is Wait with a timeout of ticks ticks.
func (n *Notify) TimedWait(ticks uint64) (uint32, bool) {
	if !n.sem.TimedWait(ticks) {
		return 0, false
	}
	return n.value.Load(), true
}

// TimedWaitClear is WaitClear with a timeout of ticks ticks.
func (n *Notify) TimedWaitClear(mask uint32, ticks uint64) (uint32, bool) {
	if !n.sem.TimedWait(ticks) {
		return 0, false
	}
	return n.value.And(^mask), true
}
