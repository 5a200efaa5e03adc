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

// Package mpsc provides a lock-free intrusive multi-producer, single-consumer
// log.
//
// Producers push elements concurrently from any context (including
// interrupt handlers); the consumer takes the whole log in one atomic step.
// Neither side blocks or allocates.
//
// Usage:
//
//	var s Stack[record, recordLinker]
//
//	// Any producer:
//	s.Push(&r)
//
//	// The single consumer:
//	for e := s.Drain(); e != nil; {
//		next := s.Next(e)
//		handle(e)
//		e = next
//	}
package mpsc

import "sync/atomic"

// Link is embedded in elements that can be pushed onto a Stack. It is only
// meaningful while the element is linked.
type Link[T any] struct {
	next   *T
	linked atomic.Bool
}

// Linker maps an element to its embedded Link.
type Linker[T any] interface {
	LinkFor(elem *T) *Link[T]
}

// Stack is a Treiber stack of intrusively linked elements.
//
// The zero value is an empty stack.
type Stack[T any, L Linker[T]] struct {
	head atomic.Pointer[T]
}

func linkFor[T any, L Linker[T]](e *T) *Link[T] {
	var l L
	return l.LinkFor(e)
}

// Push links e at the head of s. It may be called concurrently with other
// calls to Push and with Drain.
//
// Pushing an element that is still linked, that is pushed and not yet
// released by Next, would corrupt the log; Push panics instead.
func (s *Stack[T, L]) Push(e *T) {
	link := linkFor[T, L](e)
	if !link.linked.CompareAndSwap(false, true) {
		panic("mpsc: element pushed while still linked")
	}
	for {
		head := s.head.Load()
		link.next = head
		if s.head.CompareAndSwap(head, e) {
			return
		}
	}
}

// Drain atomically takes every element pushed so far and returns the most
// recently pushed one; the rest follow through Next. Push order is reversed.
//
// Drain must not be called concurrently with itself.
func (s *Stack[T, L]) Drain() *T {
	return s.head.Swap(nil)
}

// Empty reports whether nothing is pushed at the time of the call.
func (s *Stack[T, L]) Empty() bool {
	return s.head.Load() == nil
}

// Next returns the element that follows e in a drained chain and unlinks e.
//
// Next must be called before e is pushed again, since a new Push overwrites
// the link.
func (s *Stack[T, L]) Next(e *T) *T {
	link := linkFor[T, L](e)
	next := link.next
	link.next = nil
	link.linked.Store(false)
	return next
}
