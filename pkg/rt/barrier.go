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

// Barrier releases a fixed number of tasks together.
//
// Arrivals for the next generation are held at the entry semaphore until
// every task of the current generation has left, so a fast task cannot lap
// the others.
type Barrier struct {
	count int32
	entry Sem
	m     Mutex
	cond  Cond

	// Protected by m.
	level int32
	gen   uint32
}

// Init initializes b for count tasks.
func (b *Barrier) Init(s *Scheduler, count int32) {
	if count <= 0 {
		panic("rt: barrier count must be positive")
	}
	b.count = count
	b.entry.Init(s, count)
	b.m.Init(s)
	b.cond.Init(s)
	b.level = 0
	b.gen = 0
}

// NewBarrier returns a barrier for count tasks.
func NewBarrier(s *Scheduler, count int32) *Barrier {
	b := new(Barrier)
	b.Init(s, count)
	return b
}

// Wait blocks until count tasks have called it. It returns true in exactly
// one task of each generation, the last to arrive.
func (b *Barrier) Wait() bool {
	b.entry.Wait()
	b.m.Lock()
	b.level++
	leader := b.level == b.count
	if leader {
		b.gen++
		b.cond.Broadcast()
	} else {
		gen := b.gen
		for gen == b.gen {
			b.cond.Wait(&b.m)
		}
	}
	b.level--
	last := b.level == 0
	b.m.Unlock()
	if last {
		for i := int32(0); i < b.count; i++ {
			b.entry.Post()
		}
	}
	return leader
}
