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

// Sem is a counting semaphore.
//
// A non-negative value is the number of available units. A negative value is
// the number of waiters that have not been matched by a post. Both Wait and
// Post settle on the counter first and only involve the dispatcher when a
// task must block or a blocked task must be woken.
type Sem struct {
	s *Scheduler

	value atomicbitops.Int32

	// max bounds value when positive. Zero means unbounded.
	max int32

	// waitList and waiters are owned by the dispatcher. waiters is the
	// number of tasks in waitList.
	waitList taskList
	waiters  int32

	postEvent  coalesce.Event
	postRecord Syscall
}

// Init initializes sem with count units.
func (sem *Sem) Init(s *Scheduler, count int32) {
	sem.InitMax(s, count, 0)
}

// InitBinary initializes sem as a binary semaphore, holding at most one
// unit.
func (sem *Sem) InitBinary(s *Scheduler, count int32) {
	sem.InitMax(s, count, 1)
}

// InitMax initializes sem with count units, of which at most max are ever
// stored. A zero max is unbounded.
func (sem *Sem) InitMax(s *Scheduler, count, max int32) {
	if count < 0 || max < 0 || (max > 0 && count > max) {
		panic("rt: invalid semaphore count")
	}
	*sem = Sem{s: s, max: max}
	sem.value.Store(count)
	sem.postRecord.op = opSemPost
	sem.postRecord.sem = sem
}

// NewSem returns a semaphore initialized with count units.
func NewSem(s *Scheduler, count int32) *Sem {
	sem := new(Sem)
	sem.Init(s, count)
	return sem
}

// NewBinarySem returns a binary semaphore initialized with count units.
func NewBinarySem(s *Scheduler, count int32) *Sem {
	sem := new(Sem)
	sem.InitBinary(s, count)
	return sem
}

// Value returns the current counter. Negative values count unmatched
// waiters.
func (sem *Sem) Value() int32 {
	return sem.value.Load()
}

// Post releases one unit, waking the oldest waiter if there is one. It may be
// called from interrupt context.
func (sem *Sem) Post() {
	var old int32
	if sem.max > 0 {
		for {
			old = sem.value.Load()
			if old >= sem.max {
				return
			}
			if sem.value.CompareAndSwap(old, old+1) {
				break
			}
		}
	} else {
		old = sem.value.Add(1) - 1
	}
	if old < 0 {
		sem.requestWake()
	}
}

// requestWake asks the dispatcher to reconcile the wait list with the
// counter.
func (sem *Sem) requestWake() {
	if sem.postEvent.Raise() {
		sem.s.submit(&sem.postRecord)
	}
	sem.s.arch.PendSyscall()
}

// TryWait takes a unit if one is available.
func (sem *Sem) TryWait() bool {
	return atomicbitops.DecIfPositive(&sem.value)
}

// Wait takes a unit, blocking until one is available.
func (sem *Sem) Wait() {
	if sem.value.Add(-1) >= 0 {
		return
	}
	sem.blockingWait()
}

func (sem *Sem) blockingWait() {
	sem.s.call(opSemWait, func(r *Syscall) {
		r.sem = sem
	})
}

// TimedWait takes a unit, blocking for at most ticks ticks. It reports
// whether a unit was taken. TimedWait(0) is TryWait.
func (sem *Sem) TimedWait(ticks uint64) bool {
	if ticks == 0 {
		return sem.TryWait()
	}
	if sem.value.Add(-1) >= 0 {
		return true
	}
	return sem.timedBlockingWait(ticks)
}

// timedBlockingWait blocks after the counter has already been decremented.
func (sem *Sem) timedBlockingWait(ticks uint64) bool {
	t := sem.s.call(opSemTimedWait, func(r *Syscall) {
		r.sem = sem
		r.ticks = ticks
	})
	return !t.timedOut
}

// withdraw gives back a decrement whose waiter stopped waiting. It reports
// false when a post already matched the decrement.
func (sem *Sem) withdraw() bool {
	return atomicbitops.IncIfNegative(&sem.value)
}

// block links the waiting task t. Called by the dispatcher.
func (sem *Sem) block(t *Task, timed bool, ticks uint64) {
	sem.s.block(t, sem, timed, ticks)
	sem.waitList.PushBack(t)
	sem.waiters++
	sem.wake()
}

// wake readies as many waiters, oldest first, as there are posts matching
// them. A waiter whose record is still in flight is counted by value but not
// by waiters; it is reconciled when its record is applied.
func (sem *Sem) wake() {
	for sem.waiters > 0 {
		unmatched := -sem.value.Load()
		if unmatched < 0 {
			unmatched = 0
		}
		if sem.waiters <= unmatched {
			return
		}
		t := sem.waitList.PopFront()
		sem.waiters--
		sem.s.makeReady(t)
	}
}

// timeout implements blocker.timeout.
func (sem *Sem) timeout(t *Task) bool {
	sem.waitList.Remove(t)
	sem.waiters--
	return sem.withdraw()
}
