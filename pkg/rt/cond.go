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

// Cond is a condition variable.
//
// It reuses the semaphore machinery with the sign inverted: each waiter
// decrements the counter and each signal increments it, but only while it
// is negative, so a signal with no waiter is lost.
type Cond struct {
	sem Sem
}

// Init initializes c with no waiters.
func (c *Cond) Init(s *Scheduler) {
	c.sem.Init(s, 0)
}

// NewCond returns a condition variable with no waiters.
func NewCond(s *Scheduler) *Cond {
	c := new(Cond)
	c.Init(s)
	return c
}

// Wait atomically releases m and waits for a signal, then reacquires m.
//
// The wait is linked before m is released, so a Signal or Broadcast issued
// by whoever takes m next always finds this waiter ahead of any later one.
//
// Precondition: m is held by the caller.
func (c *Cond) Wait(m *Mutex) {
	if c.sem.value.Add(-1) >= 0 {
		return
	}
	c.sem.s.prepare(opSemWait, func(r *Syscall) {
		r.sem = &c.sem
	})
	m.release()
	c.sem.s.arch.PendSyscall()
	m.Lock()
}

// TimedWait is Wait with a timeout of ticks ticks. It reports whether a
// signal was received. m is reacquired in both cases. TimedWait(m, 0) only
// consumes a signal that is already pending and never releases m.
func (c *Cond) TimedWait(m *Mutex, ticks uint64) bool {
	if c.sem.value.Add(-1) >= 0 {
		return true
	}
	if ticks == 0 {
		return !c.sem.withdraw()
	}
	t := c.sem.s.prepare(opSemTimedWait, func(r *Syscall) {
		r.sem = &c.sem
		r.ticks = ticks
	})
	m.release()
	c.sem.s.arch.PendSyscall()
	// Read before Lock, which may block again and reset it.
	ok := !t.timedOut
	m.Lock()
	return ok
}

// Signal wakes the oldest waiter, if any. It may be called from interrupt
// context.
func (c *Cond) Signal() {
	if atomicbitops.IncIfNegative(&c.sem.value) {
		c.sem.requestWake()
	}
}

// Broadcast wakes every waiter. It may be called from interrupt context.
func (c *Cond) Broadcast() {
	for {
		v := c.sem.value.Load()
		if v >= 0 {
			return
		}
		if c.sem.value.CompareAndSwap(v, 0) {
			c.sem.requestWake()
			return
		}
	}
}
