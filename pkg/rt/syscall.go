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

	"gvisor.dev/rt/pkg/mpsc"
)

// op is the kind of a syscall record.
type op uint8

const (
	opNone op = iota
	opReschedule
	opTick
	opYield
	opExit
	opSleep
	opSleepPeriodic
	opSemWait
	opSemTimedWait
	opMutexLock
	opMutexTimedLock
	opSemPost
	opMutexUnlock
	numOps
)

var opNames = [numOps]string{
	opNone:           "none",
	opReschedule:     "reschedule",
	opTick:           "tick",
	opYield:          "yield",
	opExit:           "exit",
	opSleep:          "sleep",
	opSleepPeriodic:  "sleep_periodic",
	opSemWait:        "sem_wait",
	opSemTimedWait:   "sem_timed_wait",
	opMutexLock:      "mutex_lock",
	opMutexTimedLock: "mutex_timed_lock",
	opSemPost:        "sem_post",
	opMutexUnlock:    "mutex_unlock",
}

// String implements fmt.Stringer.
func (o op) String() string {
	if o < numOps {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// Syscall is a request to the dispatcher.
//
// Every record has exactly one owner. Task records (yield, exit, sleep,
// waits and locks) are embedded in the Task and are only resubmitted after
// the dispatcher has resumed the task. Records owned by a primitive or by
// the scheduler (post, unlock, tick, reschedule) are guarded by a
// coalesce.Event, so they are never linked twice.
type Syscall struct {
	op op

	// task is the owner of a task record.
	task *Task

	// ticks is the duration of a sleep or the timeout of a timed wait.
	ticks uint64

	// lastWake and period describe a periodic sleep.
	lastWake uint64
	period   uint64

	sem   *Sem
	mutex *Mutex

	link mpsc.Link[Syscall]
}

type syscallLinker struct{}

func (syscallLinker) LinkFor(s *Syscall) *mpsc.Link[Syscall] { return &s.link }

// syscallLog is the submission channel.
type syscallLog = mpsc.Stack[Syscall, syscallLinker]
