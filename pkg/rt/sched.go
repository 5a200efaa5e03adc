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
	"gvisor.dev/rt/pkg/log"
)

// Scheduler is the kernel: the ready list, the sleep timeline, the active task
// and the submission channel through which everything else reaches them.
type Scheduler struct {
	arch Arch

	// syscalls, ticks and the coalescing events below may be touched from
	// any context.
	syscalls syscallLog
	ticks    atomicbitops.Uint64

	tickEvent     coalesce.Event
	tickRecord    Syscall
	reschedEvent  coalesce.Event
	reschedRecord Syscall

	// The remaining fields are owned by the dispatcher.

	ready    taskList
	timeline timeline
	active   *Task
	started  bool

	// live counts tasks that have not exited, excluding idle tasks.
	live int
}

// NewScheduler returns a scheduler that runs on arch.
func NewScheduler(arch Arch) *Scheduler {
	s := &Scheduler{arch: arch}
	s.tickRecord.op = opTick
	s.reschedRecord.op = opReschedule
	return s
}

// AddTask initializes t from opts and makes it ready. It may only be called
// before Start.
func (s *Scheduler) AddTask(t *Task, opts TaskOpts) {
	if s.started {
		panic("rt: AddTask after Start")
	}
	if opts.Entry == nil {
		panic("rt: task without entry")
	}
	stackSize := opts.StackSize
	if stackSize == 0 {
		stackSize = DefaultStackSize
	}
	*t = Task{
		name:     opts.Name,
		priority: opts.Priority,
		state:    TaskReady,
	}
	t.syscall.task = t
	entry := opts.Entry
	t.ctx = s.arch.NewContext(func() {
		entry()
		s.Exit()
	}, stackSize)
	if t.priority != IdlePriority {
		s.live++
	}
	s.makeReady(t)
	log.Infof("Registered task %q, priority %d, stack %d bytes", t.name, t.priority, stackSize)
}

// NewTask allocates a task and registers it with AddTask.
func (s *Scheduler) NewTask(opts TaskOpts) *Task {
	t := new(Task)
	s.AddTask(t, opts)
	return t
}

// Start runs the first dispatch pass and returns the context to load.
func (s *Scheduler) Start() Context {
	if s.started {
		panic("rt: Start called twice")
	}
	s.started = true
	log.Infof("Starting scheduler with %d tasks", s.live)
	return s.Dispatch()
}

// Dispatch applies every submitted syscall record and selects the task to
// run. It returns nil when the active task keeps running, otherwise the
// context of the newly selected task, which is then the active task.
//
// Dispatch must never run concurrently with itself.
func (s *Scheduler) Dispatch() Context {
	dispatchCount.Increment()
	for r := s.syscalls.Drain(); r != nil; {
		// The record may be resubmitted as soon as it is applied.
		next := s.syscalls.Next(r)
		s.apply(r)
		r = next
	}
	return s.selectNext()
}

func (s *Scheduler) selectNext() Context {
	prev := s.active
	if prev != nil && prev.state == TaskRunning {
		prev.state = TaskReady
		s.pushReady(prev)
	}
	next := s.ready.PopFront()
	if next == nil {
		if prev != nil {
			fatalf("no runnable task after %v stopped running", prev)
		}
		return nil
	}
	next.state = TaskRunning
	if next == prev {
		return nil
	}
	s.active = next
	contextSwitches.Increment()
	return next.ctx
}

// pushReady links t at the back of its priority class.
func (s *Scheduler) pushReady(t *Task) {
	for e := s.ready.Back(); e != nil; e = s.ready.Prev(e) {
		if e.priority <= t.priority {
			s.ready.InsertAfter(e, t)
			return
		}
	}
	s.ready.PushFront(t)
}

// makeReady moves t, blocked or sleeping, to the ready list.
func (s *Scheduler) makeReady(t *Task) {
	if t.timed {
		s.timeline.remove(t)
	}
	t.blocker = nil
	t.state = TaskReady
	s.pushReady(t)
}

// block marks the active task t blocked on b, with a deadline ticks from now
// if timed.
func (s *Scheduler) block(t *Task, b blocker, timed bool, ticks uint64) {
	t.state = TaskBlocked
	t.timedOut = false
	if timed {
		t.blocker = b
		s.timeline.insert(t, s.timeline.processed+ticks)
	}
}

// expire is called for each task whose deadline is reached.
func (s *Scheduler) expire(t *Task) {
	if t.state == TaskBlocked && t.blocker != nil {
		t.timedOut = t.blocker.timeout(t)
	}
	s.makeReady(t)
}

// sleepUntil puts the active task t to sleep until tick wake. A wake tick
// that is already processed leaves t running.
func (s *Scheduler) sleepUntil(t *Task, wake uint64) {
	if s.timeline.due(wake) {
		return
	}
	t.state = TaskSleeping
	s.timeline.insert(t, wake)
}

func (s *Scheduler) apply(r *Syscall) {
	if r.op == opNone || r.op >= numOps {
		fatalf("invalid syscall %v", r.op)
	}
	syscallCount.Increment(r.op.String())
	switch r.op {
	case opReschedule:
		s.reschedEvent.Clear()
	case opTick:
		s.tickEvent.Clear()
		s.timeline.advance(s.ticks.Load(), s.expire)
	case opYield:
		// Rotation happens in selectNext.
	case opExit:
		t := r.task
		t.state = TaskExited
		if t.priority != IdlePriority {
			s.live--
		}
		if log.IsLogging(log.Debug) {
			log.Debugf("Task %q exited, %d left", t.name, s.live)
		}
	case opSleep:
		s.sleepUntil(r.task, s.timeline.processed+r.ticks)
	case opSleepPeriodic:
		s.sleepUntil(r.task, r.lastWake+r.period)
	case opSemWait:
		r.sem.block(r.task, false, 0)
	case opSemTimedWait:
		r.sem.block(r.task, true, r.ticks)
	case opSemPost:
		r.sem.postEvent.Clear()
		r.sem.wake()
	case opMutexLock:
		r.mutex.block(r.task, false, 0)
	case opMutexTimedLock:
		r.mutex.block(r.task, true, r.ticks)
	case opMutexUnlock:
		r.mutex.unlockEvent.Clear()
		r.mutex.wake()
	}
}

// submit pushes r onto the submission channel.
func (s *Scheduler) submit(r *Syscall) {
	s.syscalls.Push(r)
}

// call submits the active task's own record, prepared by fill, and returns
// once the task is running again.
func (s *Scheduler) call(o op, fill func(r *Syscall)) *Task {
	t := s.prepare(o, fill)
	s.arch.PendSyscall()
	return t
}

// prepare submits the active task's own record without requesting a dispatch
// pass. The caller must pend one before doing anything that can block.
func (s *Scheduler) prepare(o op, fill func(r *Syscall)) *Task {
	t := s.active
	r := &t.syscall
	r.op = o
	if fill != nil {
		fill(r)
	}
	s.submit(r)
	return t
}

// Self returns the active task.
func (s *Scheduler) Self() *Task {
	return s.active
}

// Ticks returns the number of ticks delivered since start.
func (s *Scheduler) Ticks() uint64 {
	return s.ticks.Load()
}

// Live returns the number of registered tasks that have not exited, not
// counting idle tasks. It must be called from task context.
func (s *Scheduler) Live() int {
	return s.live
}

// NextWake returns the earliest tick at which a sleeping or timed-out task
// becomes ready. It must be called from task context.
func (s *Scheduler) NextWake() (uint64, bool) {
	return s.timeline.next()
}

// Yield moves the calling task to the back of its priority class.
func (s *Scheduler) Yield() {
	s.call(opYield, nil)
}

// Sleep suspends the calling task for ticks ticks. Sleep(0) is Yield.
func (s *Scheduler) Sleep(ticks uint64) {
	if ticks == 0 {
		s.Yield()
		return
	}
	s.call(opSleep, func(r *Syscall) {
		r.ticks = ticks
	})
}

// SleepPeriodic suspends the calling task until tick *lastWake+period and
// advances *lastWake by period. If that tick has already passed it returns
// immediately, so a task that overran catches up without drifting.
func (s *Scheduler) SleepPeriodic(lastWake *uint64, period uint64) {
	if s.Ticks()-*lastWake < period {
		last := *lastWake
		s.call(opSleepPeriodic, func(r *Syscall) {
			r.lastWake = last
			r.period = period
		})
	}
	*lastWake += period
}

// Exit terminates the calling task. It does not return.
func (s *Scheduler) Exit() {
	t := s.call(opExit, nil)
	fatalf("exited task %v was resumed", t)
}

// Tick delivers one timer tick. It is meant to be called from the timer
// interrupt.
func (s *Scheduler) Tick() {
	s.ticks.Add(1)
	tickCount.Increment()
	if s.tickEvent.Raise() {
		s.submit(&s.tickRecord)
	}
	s.arch.PendSyscall()
}

// Reschedule requests a dispatch pass that rotates the active task behind
// its equals. Concurrent requests coalesce into one.
func (s *Scheduler) Reschedule() {
	if s.reschedEvent.Raise() {
		s.submit(&s.reschedRecord)
	}
	s.arch.PendSyscall()
}
