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

// RWLock is a reader/writer lock. Once a writer waits, new readers wait
// behind it.
type RWLock struct {
	m       Mutex
	readers Cond
	writers Cond

	// Protected by m.
	numReaders     int
	waitingWriters int
	writer         bool
}

// Init initializes rw unlocked.
func (rw *RWLock) Init(s *Scheduler) {
	rw.m.Init(s)
	rw.readers.Init(s)
	rw.writers.Init(s)
	rw.numReaders = 0
	rw.waitingWriters = 0
	rw.writer = false
}

// NewRWLock returns an unlocked reader/writer lock.
func NewRWLock(s *Scheduler) *RWLock {
	rw := new(RWLock)
	rw.Init(s)
	return rw
}

// RLock acquires rw for reading.
func (rw *RWLock) RLock() {
	rw.m.Lock()
	for rw.writer || rw.waitingWriters > 0 {
		rw.readers.Wait(&rw.m)
	}
	rw.numReaders++
	rw.m.Unlock()
}

// TryRLock acquires rw for reading if that does not require waiting.
func (rw *RWLock) TryRLock() bool {
	if !rw.m.TryLock() {
		return false
	}
	ok := !rw.writer && rw.waitingWriters == 0
	if ok {
		rw.numReaders++
	}
	rw.m.Unlock()
	return ok
}

// RUnlock releases a read hold.
func (rw *RWLock) RUnlock() {
	rw.m.Lock()
	if rw.numReaders <= 0 {
		rw.m.Unlock()
		panic("rt: RUnlock of unlocked RWLock")
	}
	rw.numReaders--
	if rw.numReaders == 0 && rw.waitingWriters > 0 {
		rw.writers.Signal()
	}
	rw.m.Unlock()
}

// Lock acquires rw for writing.
func (rw *RWLock) Lock() {
	rw.m.Lock()
	rw.waitingWriters++
	for rw.writer || rw.numReaders > 0 {
		rw.writers.Wait(&rw.m)
	}
	rw.waitingWriters--
	rw.writer = true
	rw.m.Unlock()
}

// TryLock acquires rw for writing if that does not require waiting.
func (rw *RWLock) TryLock() bool {
	if !rw.m.TryLock() {
		return false
	}
	ok := !rw.writer && rw.numReaders == 0
	if ok {
		rw.writer = true
	}
	rw.m.Unlock()
	return ok
}

// Unlock releases the write hold. Waiting writers go first; readers are
// released together once none is left.
func (rw *RWLock) Unlock() {
	rw.m.Lock()
	if !rw.writer {
		rw.m.Unlock()
		panic("rt: Unlock of RWLock not locked for writing")
	}
	rw.writer = false
	if rw.waitingWriters > 0 {
		rw.writers.Signal()
	} else {
		rw.readers.Broadcast()
	}
	rw.m.Unlock()
}
