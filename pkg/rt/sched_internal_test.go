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
	"testing"
)

// fakeContext must not be zero-size, or every context could share one
// address.
type fakeContext struct {
	id int
}

// fakeArch never switches; tests call Dispatch themselves.
type fakeArch struct {
	pends    int
	contexts int
}

func (a *fakeArch) NewContext(entry func(), stackSize int) Context {
	a.contexts++
	return &fakeContext{id: a.contexts}
}

func (a *fakeArch) PendSyscall() {
	a.pends++
}

func newFakeScheduler() (*Scheduler, *fakeArch) {
	a := &fakeArch{}
	return NewScheduler(a), a
}

func addFake(s *Scheduler, name string, prio Priority) *Task {
	return s.NewTask(TaskOpts{Name: name, Priority: prio, Entry: func() {}})
}

func switchedTo(tasks []*Task, c Context) string {
	if c == nil {
		return "-"
	}
	for _, t := range tasks {
		if t.ctx == c {
			return t.name
		}
	}
	return "?"
}

func TestDispatchSelection(t *testing.T) {
	s, a := newFakeScheduler()
	tasks := []*Task{
		addFake(s, "a", 2),
		addFake(s, "b", 1),
		addFake(s, "c", 2),
		addFake(s, "idle", IdlePriority),
	}

	steps := []struct {
		name string
		call func()
		want string
	}{
		{"start", nil, "b"},
		{"yield without peers", s.Yield, "-"},
		{"sleep", func() { s.Sleep(2) }, "a"},
		{"yield to peer", s.Yield, "c"},
		{"yield back", s.Yield, "a"},
		{"tick rotates", s.Tick, "c"},
		{"wake preempts", s.Tick, "b"},
	}
	for i, step := range steps {
		var got Context
		if i == 0 {
			got = s.Start()
		} else {
			step.call()
			got = s.Dispatch()
		}
		if name := switchedTo(tasks, got); name != step.want {
			t.Fatalf("%s: switched to %q, want %q", step.name, name, step.want)
		}
	}

	if a.pends != len(steps)-1 {
		t.Errorf("PendSyscall called %d times, want %d", a.pends, len(steps)-1)
	}
	if got := s.Self(); got != tasks[1] {
		t.Errorf("Self() = %v, want b", got)
	}
	if got := tasks[2].State(); got != TaskReady {
		t.Errorf("c.State() = %v, want %v", got, TaskReady)
	}
	if got := s.Ticks(); got != 2 {
		t.Errorf("Ticks() = %d, want 2", got)
	}
}

func TestDispatchCoalescesTicks(t *testing.T) {
	s, _ := newFakeScheduler()
	addFake(s, "a", 1)
	s.Start()
	s.Sleep(3)
	addr := &s.tickRecord
	for i := 0; i < 3; i++ {
		s.Tick()
	}
	// One record in flight for three ticks.
	if got := s.syscalls.Drain(); got != addr || s.syscalls.Next(got) != &s.active.syscall {
		t.Fatalf("submission log does not hold exactly the tick and sleep records")
	}
}

func TestSemReconcileWithRecordInFlight(t *testing.T) {
	s, _ := newFakeScheduler()
	w1 := addFake(s, "w1", 1)
	w2 := addFake(s, "w2", 1)
	addFake(s, "idle", IdlePriority)
	sem := NewSem(s, 0)

	s.Start()
	sem.Wait()
	s.Dispatch()
	if got := w1.State(); got != TaskBlocked {
		t.Fatalf("w1.State() = %v, want %v", got, TaskBlocked)
	}

	// w2 decrements but its record is not drained before the post.
	sem.Wait()
	sem.Post()
	if got := sem.Value(); got != -1 {
		t.Fatalf("Value() = %d, want -1", got)
	}
	s.Dispatch()
	if got := w1.State(); got != TaskRunning {
		t.Errorf("w1.State() = %v, want %v", got, TaskRunning)
	}
	if got := w2.State(); got != TaskBlocked {
		t.Errorf("w2.State() = %v, want %v", got, TaskBlocked)
	}
}

func TestDispatchWithoutRunnableTask(t *testing.T) {
	s, _ := newFakeScheduler()
	addFake(s, "a", 1)
	sem := NewSem(s, 0)
	s.Start()
	sem.Wait()

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("Dispatch() with no runnable task did not panic")
		}
	}()
	s.Dispatch()
}

func TestAddTaskAfterStart(t *testing.T) {
	s, _ := newFakeScheduler()
	addFake(s, "a", 1)
	s.Start()

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("AddTask() after Start did not panic")
		}
	}()
	addFake(s, "b", 1)
}

func TestMutexUnlockUnlocked(t *testing.T) {
	s, _ := newFakeScheduler()
	m := NewMutex(s)
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("Unlock() of unlocked mutex did not panic")
		}
	}()
	m.Unlock()
}

func TestMutexTimeoutWithUnlockInFlight(t *testing.T) {
	s, _ := newFakeScheduler()
	owner := addFake(s, "owner", 1)
	waiter := addFake(s, "waiter", 1)
	addFake(s, "idle", IdlePriority)
	m := NewMutex(s)

	s.Start()
	if !m.TryLock() {
		t.Fatalf("TryLock() = false, want true")
	}
	s.Yield()
	s.Dispatch()

	// waiter blocks with a deadline one tick away.
	if m.TryLock() {
		t.Fatalf("TryLock() of held mutex = true, want false")
	}
	s.call(opMutexTimedLock, func(r *Syscall) {
		r.mutex = m
		r.ticks = 1
	})
	s.Dispatch()
	if got := s.Self(); got != owner {
		t.Fatalf("Self() = %v, want owner", got)
	}

	// The tick is pushed last, so its deadline is applied before the
	// unlock in the same pass.
	m.Unlock()
	s.Tick()
	s.Dispatch()

	if waiter.timedOut {
		t.Errorf("waiter timed out with the mutex free")
	}
	if got := s.Self(); got != waiter {
		t.Errorf("Self() = %v, want waiter", got)
	}
	if !m.locked.Load() {
		t.Errorf("mutex not held after hand-off")
	}
	if got := m.waiters.Load(); got != 0 {
		t.Errorf("waiters = %d, want 0", got)
	}
}
