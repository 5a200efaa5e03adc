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

// Package ilist provides the implementation of intrusive linked lists.
package ilist

// Entry is the link embedded in objects that are kept in a List. An object
// that must sit in more than one list at the same time embeds one Entry per
// list and provides one ElementMapper per Entry.
type Entry[T any] struct {
	next *T
	prev *T
}

// ElementMapper maps an element to the Entry that links it into a specific
// list. Implementations are expected to be zero-size types so that the
// mapping is resolved statically and inlined.
type ElementMapper[T any] interface {
	LinkerFor(elem *T) *Entry[T]
}

// List is an intrusive list. Entries can be added to or removed from the list
// in O(1) time and with no additional memory allocations.
//
// The zero value for List is an empty list ready to use.
//
// To iterate over a list (where l is a List):
//
//	for e := l.Front(); e != nil; e = l.Next(e) {
//		// do something with e.
//	}
type List[T any, M ElementMapper[T]] struct {
	head *T
	tail *T
}

func linkerFor[T any, M ElementMapper[T]](e *T) *Entry[T] {
	var m M
	return m.LinkerFor(e)
}

// Reset resets list l to the empty state.
func (l *List[T, M]) Reset() {
	l.head = nil
	l.tail = nil
}

// Empty returns true iff the list is empty.
func (l *List[T, M]) Empty() bool {
	return l.head == nil
}

// Front returns the first element of list l or nil.
func (l *List[T, M]) Front() *T {
	return l.head
}

// Back returns the last element of list l or nil.
func (l *List[T, M]) Back() *T {
	return l.tail
}

// Next returns the element that follows e in l, or nil.
func (l *List[T, M]) Next(e *T) *T {
	return linkerFor[T, M](e).next
}

// Prev returns the element that precedes e in l, or nil.
func (l *List[T, M]) Prev(e *T) *T {
	return linkerFor[T, M](e).prev
}

// Len returns the number of elements in the list.
//
// NOTE: This is an O(n) operation.
func (l *List[T, M]) Len() (count int) {
	for e := l.Front(); e != nil; e = l.Next(e) {
		count++
	}
	return count
}

// Contains reports whether e is linked into l.
//
// Precondition: e is not linked into any other list through the same mapper.
func (l *List[T, M]) Contains(e *T) bool {
	linker := linkerFor[T, M](e)
	return linker.prev != nil || linker.next != nil || l.head == e
}

// PushFront inserts the element e at the front of list l.
func (l *List[T, M]) PushFront(e *T) {
	linker := linkerFor[T, M](e)
	linker.next = l.head
	linker.prev = nil
	if l.head != nil {
		linkerFor[T, M](l.head).prev = e
	} else {
		l.tail = e
	}

	l.head = e
}

// PushBack inserts the element e at the back of list l.
func (l *List[T, M]) PushBack(e *T) {
	linker := linkerFor[T, M](e)
	linker.next = nil
	linker.prev = l.tail
	if l.tail != nil {
		linkerFor[T, M](l.tail).next = e
	} else {
		l.head = e
	}

	l.tail = e
}

// PushBackList inserts list m at the end of list l, emptying m.
func (l *List[T, M]) PushBackList(m *List[T, M]) {
	if l.head == nil {
		l.head = m.head
		l.tail = m.tail
	} else if m.head != nil {
		linkerFor[T, M](l.tail).next = m.head
		linkerFor[T, M](m.head).prev = l.tail

		l.tail = m.tail
	}
	m.head = nil
	m.tail = nil
}

// InsertAfter inserts e after b.
func (l *List[T, M]) InsertAfter(b, e *T) {
	bLinker := linkerFor[T, M](b)
	eLinker := linkerFor[T, M](e)

	a := bLinker.next

	eLinker.next = a
	eLinker.prev = b
	bLinker.next = e

	if a != nil {
		linkerFor[T, M](a).prev = e
	} else {
		l.tail = e
	}
}

// InsertBefore inserts e before a.
func (l *List[T, M]) InsertBefore(a, e *T) {
	aLinker := linkerFor[T, M](a)
	eLinker := linkerFor[T, M](e)

	b := aLinker.prev
	eLinker.next = a
	eLinker.prev = b
	aLinker.prev = e

	if b != nil {
		linkerFor[T, M](b).next = e
	} else {
		l.head = e
	}
}

// Remove removes e from l.
func (l *List[T, M]) Remove(e *T) {
	linker := linkerFor[T, M](e)
	prev := linker.prev
	next := linker.next

	if prev != nil {
		linkerFor[T, M](prev).next = next
	} else if l.head == e {
		l.head = next
	}

	if next != nil {
		linkerFor[T, M](next).prev = prev
	} else if l.tail == e {
		l.tail = prev
	}

	linker.next = nil
	linker.prev = nil
}

// PopFront removes and returns the first element of l, or nil if l is empty.
func (l *List[T, M]) PopFront() *T {
	e := l.head
	if e != nil {
		l.Remove(e)
	}
	return e
}
