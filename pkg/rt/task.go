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
	"fmt"

	"gvisor.dev/rt/pkg/ilist"
)

// TaskState is the scheduling state of a task.
type TaskState uint8

// Task states.
const (
	// TaskReady tasks are linked into the ready list.
	TaskReady TaskState = iota

	// TaskRunning is the state of the active task.
	TaskRunning

	// TaskBlocked tasks are linked into the wait list of a primitive, and
	// into the sleep timeline as well when the wait has a timeout.
	TaskBlocked

	// TaskSleeping tasks are linked into the sleep timeline.
	TaskSleeping

	// TaskExited tasks are in no list and never run again.
	TaskExited
)

// String implements fmt.Stringer.
func (s TaskState) String() string {
	switch s {
	case TaskReady:
		return "ready"
	case TaskRunning:
		return "running"
	case TaskBlocked:
		return "blocked"
	case TaskSleeping:
		return "sleeping"
	case TaskExited:
		return "exited"
	default:
		return fmt.Sprintf("TaskState(%d)", uint8(s))
	}
}

// blocker is implemented by primitives that tasks can block on with a
// timeout.
type blocker interface {
	// timeout unlinks t from the wait list after its deadline passed. It
	// reports whether the wait actually timed out; false means the wake-up
	// was already accounted for and the wait succeeded.
	timeout(t *Task) bool
}

// Task is a schedulable unit of execution.
//
// All fields except syscall are owned by the dispatcher. The syscall record
// is written by the task itself, and only while it is running.
type Task struct {
	name     string
	priority Priority
	ctx      Context

	state TaskState

	// waitEntry links the task into the ready list or into exactly one wait
	// list.
	waitEntry ilist.Entry[Task]

	// timerEntry links the task into the sleep timeline.
	timerEntry ilist.Entry[Task]
	wakeTick   uint64
	timed      bool

	// blocker is the primitive a timed wait is blocked on.
	blocker  blocker
	timedOut bool

	syscall Syscall
}

// Name returns the task name.
func (t *Task) Name() string {
	return t.name
}

// Priority returns the static priority of the task.
func (t *Task) Priority() Priority {
	return t.priority
}

// State returns the scheduling state of the task. It is only stable when read
// from the dispatcher or from a task that has synchronized with t.
func (t *Task) State() TaskState {
	return t.state
}

// String implements fmt.Stringer.
func (t *Task) String() string {
	return fmt.Sprintf("%s(prio %d)", t.name, t.priority)
}

type waitMapper struct{}

func (waitMapper) LinkerFor(t *Task) *ilist.Entry[Task] { return &t.waitEntry }

type timerMapper struct{}

func (timerMapper) LinkerFor(t *Task) *ilist.Entry[Task] { return &t.timerEntry }

// taskList is the ready list and the wait list of every primitive.
type taskList = ilist.List[Task, waitMapper]

// timerList is the sleep timeline.
type timerList = ilist.List[Task, timerMapper]

// TaskOpts configures a task at registration.
type TaskOpts struct {
	// Name identifies the task in logs.
	Name string

	// Priority is the static priority. Lower is more urgent.
	Priority Priority

	// StackSize is passed to the architecture. Zero selects
	// DefaultStackSize.
	StackSize int

	// Entry is the task body. Returning from it exits the task.
	Entry func()
}
