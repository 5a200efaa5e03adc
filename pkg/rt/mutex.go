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

import (
	"gvisor.dev/rt/pkg/atomicbitops"
	"gvisor.dev/rt/pkg/coalesce"
)

// Mutex is a mutual exclusion lock with FIFO hand-off.
//
// An uncontended Lock or Unlock is a single atomic operation. When the lock
// is released while tasks wait, the dispatcher acquires it on behalf of the
// oldest waiter and readies that task. Waiters are served in arrival order
// regardless of priority; there is no priority inheritance.
type Mutex struct {
	s *Scheduler

	locked atomicbitops.Bool

	// waiters is the length of waitList. It is written only by the
	// dispatcher, after linking, and read by Unlock.
	waiters  atomicbitops.Int32
	waitList taskList

	unlockEvent  coalesce.Event
	unlockRecord Syscall
}

// Init initializes m unlocked.
func (m *Mutex) Init(s *Scheduler) {
	*m = Mutex{s: s}
	m.unlockRecord.op = opMutexUnlock
	m.unlockRecord.mutex = m
}

// NewMutex returns an unlocked mutex.
func NewMutex(s *Scheduler) *Mutex {
	m := new(Mutex)
	m.Init(s)
	return m
}

// TryLock acquires m if it is free and reports whether it did.
func (m *Mutex) TryLock() bool {
	return !m.locked.Swap(true)
}

// Lock acquires m, blocking until it is available.
func (m *Mutex) Lock() {
	if m.TryLock() {
		return
	}
	m.s.call(opMutexLock, func(r *Syscall) {
		r.mutex = m
	})
}

// TimedLock acquires m, blocking for at most ticks ticks. It reports whether
// m was acquired. TimedLock(0) is TryLock.
func (m *Mutex) TimedLock(ticks uint64) bool {
	if m.TryLock() {
		return true
	}
	if ticks == 0 {
		return false
	}
	t := m.s.call(opMutexTimedLock, func(r *Syscall) {
		r.mutex = m
		r.ticks = ticks
	})
	return !t.timedOut
}

// Unlock releases m. It may be called from interrupt context. Unlocking an
// unlocked mutex panics.
func (m *Mutex) Unlock() {
	if m.release() {
		m.s.arch.PendSyscall()
	}
}

// release unlocks m and, if tasks wait, submits the hand-off record. It
// reports whether a dispatch pass is needed, leaving the caller to pend it.
func (m *Mutex) release() bool {
	if !m.locked.Swap(false) {
		panic("rt: unlock of unlocked mutex")
	}
	// The dispatcher increments waiters before retrying the lock, so either
	// it sees the release or this load sees the waiter.
	if m.waiters.Load() == 0 {
		return false
	}
	if m.unlockEvent.Raise() {
		m.s.submit(&m.unlockRecord)
	}
	return true
}

// block links the waiting task t. Called by the dispatcher.
func (m *Mutex) block(t *Task, timed bool, ticks uint64) {
	m.s.block(t, m, timed, ticks)
	m.waitList.PushBack(t)
	m.waiters.Add(1)
	m.wake()
}

// wake hands m to the oldest waiter if m is free.
func (m *Mutex) wake() {
	if m.waitList.Empty() || !m.TryLock() {
		return
	}
	t := m.waitList.PopFront()
	m.waiters.Add(-1)
	m.s.makeReady(t)
}

// timeout implements blocker.timeout. An unlock that is still in flight
// when the deadline is applied goes to t if t is the oldest waiter.
func (m *Mutex) timeout(t *Task) bool {
	acquired := m.waitList.Front() == t && m.TryLock()
	m.waitList.Remove(t)
	m.waiters.Add(-1)
	return !acquired
}
