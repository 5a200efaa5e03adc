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

package hostemu

import (
	"time"

	"gvisor.dev/rt/pkg/log"
	"gvisor.dev/rt/pkg/rt"
)

// TickEmitter prefixes every message with the current kernel tick.
type TickEmitter struct {
	log.Emitter
	Sched *rt.Scheduler
}

// Emit implements log.Emitter.Emit.
func (e TickEmitter) Emit(depth int, level log.Level, timestamp time.Time, format string, v ...any) {
	args := make([]any, 0, len(v)+1)
	args = append(args, e.Sched.Ticks())
	args = append(args, v...)
	e.Emitter.Emit(depth+1, level, timestamp, "[tick %d] "+format, args...)
}
