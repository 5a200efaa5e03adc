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

// Package rt is a preemptible real-time multitasking kernel.
//
// A fixed set of tasks, each with its own execution context, is multiplexed
// onto one logical processor. All kernel state (the ready list, the sleep
// timeline and the wait list of every primitive) is mutated only by
// Scheduler.Dispatch, which the architecture layer guarantees never runs
// concurrently with itself. Task code and interrupt handlers request changes
// by pushing syscall records onto a lock-free submission log and pending a
// dispatch pass; they never take a lock.
//
// Lower numeric priorities are more urgent. Tasks of equal priority run in
// FIFO order and are rotated on every dispatch pass.
//
// Tasks are registered before Start and are never reclaimed. Blocking
// operations (Sem.Wait, Mutex.Lock, Scheduler.Sleep and their timed
// variants) may only be called from task context. Post, Unlock, Tick and
// Reschedule may also be called from interrupt context.
package rt

import (
	"fmt"
	"math"

	"gvisor.dev/rt/pkg/log"
)

// Context is an execution context owned by the architecture layer. The
// kernel never inspects it; it only hands it back to the architecture from
// Dispatch.
type Context interface{}

// Arch is the architecture layer consumed by the kernel.
type Arch interface {
	// NewContext creates a context that, when first loaded, runs entry on a
	// stack of stackSize bytes.
	NewContext(entry func(), stackSize int) Context

	// PendSyscall requests a dispatch pass. Called from task context, it
	// returns once the calling task has been selected to run again. Called
	// from interrupt context, it returns immediately and the pass runs when
	// the interrupt returns.
	PendSyscall()
}

// Priority is a static task priority. Lower values are more urgent.
type Priority uint8

const (
	// HighestPriority is the most urgent priority.
	HighestPriority Priority = 0

	// IdlePriority is reserved for the architecture's idle task, which must
	// always be ready.
	IdlePriority Priority = math.MaxUint8
)

// DefaultStackSize is the stack size used when a task does not ask for one.
const DefaultStackSize = 1024

// fatalf halts on a kernel invariant violation. Kernel state is no longer
// trustworthy at this point, so there is no recovery.
func fatalf(format string, v ...any) {
	msg := fmt.Sprintf(format, v...)
	log.Warningf("rt: fatal: %s", msg)
	panic("rt: " + msg)
}
