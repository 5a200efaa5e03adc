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

// Once runs a function exactly once across tasks.
type Once struct {
	done atomicbitops.Bool
	m    Mutex
}

// Init initializes o.
func (o *Once) Init(s *Scheduler) {
	o.done.Store(false)
	o.m.Init(s)
}

// Do calls fn if no call to Do on o has completed. Callers that arrive while
// fn runs block until it returns.
func (o *Once) Do(fn func()) {
	if o.done.Load() {
		return
	}
	o.m.Lock()
	if !o.done.Load() {
		fn()
		o.done.Store(true)
	}
	o.m.Unlock()
}
