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

// Queue is a bounded FIFO of values of type T.
//
// slots counts free slots and items counts stored values; the mutex only
// protects the ring indices, so a full queue blocks senders on slots rather
// than on the mutex.
type Queue[T any] struct {
	m     Mutex
	slots Sem
	items Sem

	// Protected by m.
	buf  []T
	head int
	tail int
}

// NewQueue returns an empty queue that holds up to capacity values.
func NewQueue[T any](s *Scheduler, capacity int) *Queue[T] {
	if capacity <= 0 {
		panic("rt: queue capacity must be positive")
	}
	q := &Queue[T]{buf: make([]T, capacity)}
	q.m.Init(s)
	q.slots.Init(s, int32(capacity))
	q.items.Init(s, 0)
	return q
}

// Cap returns the capacity of q.
func (q *Queue[T]) Cap() int {
	return len(q.buf)
}

// Len returns the number of values that can be received without blocking.
func (q *Queue[T]) Len() int {
	if n := q.items.Value(); n > 0 {
		return int(n)
	}
	return 0
}

func (q *Queue[T]) put(v T) {
	q.m.Lock()
	q.buf[q.tail] = v
	q.tail = (q.tail + 1) % len(q.buf)
	q.m.Unlock()
	q.items.Post()
}

func (q *Queue[T]) take() T {
	var zero T
	q.m.Lock()
	v := q.buf[q.head]
	q.buf[q.head] = zero
	q.head = (q.head + 1) % len(q.buf)
	q.m.Unlock()
	q.slots.Post()
	return v
}

// Send appends v, blocking while q is full.
func (q *Queue[T]) Send(v T) {
	q.slots.Wait()
	q.put(v)
}

// TrySend appends v if q is not full.
func (q *Queue[T]) TrySend(v T) bool {
	if !q.slots.TryWait() {
		return false
	}
	q.put(v)
	return true
}

// TimedSend appends v, blocking for at most ticks ticks while q is full.
func (q *Queue[T]) TimedSend(v T, ticks uint64) bool {
	if !q.slots.TimedWait(ticks) {
		return false
	}
	q.put(v)
	return true
}

// Recv removes and returns the oldest value, blocking while q is empty.
func (q *Queue[T]) Recv() T {
	q.items.Wait()
	return q.take()
}

// TryRecv removes and returns the oldest value if q is not empty.
func (q *Queue[T]) TryRecv() (T, bool) {
	if !q.items.TryWait() {
		var zero T
		return zero, false
	}
	return q.take(), true
}

// TimedRecv removes and returns the oldest value, blocking for at most ticks
// ticks while q is empty.
func (q *Queue[T]) TimedRecv(ticks uint64) (T, bool) {
	if !q.items.TimedWait(ticks) {
		var zero T
		return zero, false
	}
	return q.take(), true
}
