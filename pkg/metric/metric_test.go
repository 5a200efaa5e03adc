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

package metric

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// reset clears all global state in the metric package.
func reset() {
	mu.Lock()
	defer mu.Unlock()
	initialized = false
	allMetrics = map[string]*Uint64Metric{}
}

func TestRegister(t *testing.T) {
	reset()
	defer reset()

	if _, err := NewUint64Metric("/foo", "Foo!"); err != nil {
		t.Fatalf("NewUint64Metric got err %v want nil", err)
	}
	if _, err := NewUint64Metric("/foo", "Foo again"); err != ErrNameInUse {
		t.Fatalf("NewUint64Metric duplicate got err %v want %v", err, ErrNameInUse)
	}
	if _, err := NewUint64Metric("/empty", "Empty field", NewField("op", nil)); err != ErrFieldHasNoAllowedValues {
		t.Fatalf("NewUint64Metric empty field got err %v want %v", err, ErrFieldHasNoAllowedValues)
	}
	if err := Initialize(); err != nil {
		t.Fatalf("Initialize got err %v want nil", err)
	}
	if _, err := NewUint64Metric("/late", "Too late"); err != ErrInitializationDone {
		t.Fatalf("NewUint64Metric after Initialize got err %v want %v", err, ErrInitializationDone)
	}
	if err := Initialize(); err == nil {
		t.Fatalf("second Initialize succeeded, want error")
	}
}

func TestFieldsAndSnapshot(t *testing.T) {
	reset()
	defer reset()

	counter := MustCreateNewUint64Metric("/rt/syscalls", "Syscalls by op.",
		NewField("op", []string{"sleep", "yield"}),
		NewField("from", []string{"irq", "task"}))
	plain := MustCreateNewUint64Metric("/rt/dispatch", "Dispatch passes.")

	counter.Increment("sleep", "task")
	counter.IncrementBy(3, "yield", "irq")
	plain.IncrementBy(5)

	if got := counter.Value("sleep", "task"); got != 1 {
		t.Errorf("Value(sleep, task) = %d, want 1", got)
	}
	if got := counter.Value("sleep", "irq"); got != 0 {
		t.Errorf("Value(sleep, irq) = %d, want 0", got)
	}

	want := []Sample{
		{Name: "/rt/dispatch", Value: 5},
		{Name: "/rt/syscalls{op=sleep,from=irq}", Value: 0},
		{Name: "/rt/syscalls{op=sleep,from=task}", Value: 1},
		{Name: "/rt/syscalls{op=yield,from=irq}", Value: 3},
		{Name: "/rt/syscalls{op=yield,from=task}", Value: 0},
	}
	if diff := cmp.Diff(want, Snapshot()); diff != "" {
		t.Fatalf("Snapshot() mismatch (-want +got):\n%s", diff)
	}
}

func TestDisallowedFieldPanics(t *testing.T) {
	reset()
	defer reset()

	m := MustCreateNewUint64Metric("/m", "M", NewField("op", []string{"a"}))
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("Increment with disallowed value did not panic")
		}
	}()
	m.Increment("b")
}

func TestFieldMapperRoundTrip(t *testing.T) {
	m, err := newFieldMapper(
		NewField("a", []string{"x", "y", "z"}),
		NewField("b", []string{"p", "q"}))
	if err != nil {
		t.Fatalf("newFieldMapper failed: %v", err)
	}
	if m.size != 6 {
		t.Fatalf("size = %d, want 6", m.size)
	}
	seen := make(map[int]bool)
	for _, a := range []string{"x", "y", "z"} {
		for _, b := range []string{"p", "q"} {
			key := m.lookup(a, b)
			if seen[key] {
				t.Errorf("lookup(%s, %s) = %d, already used", a, b, key)
			}
			seen[key] = true
			if diff := cmp.Diff([]string{a, b}, m.values(key)); diff != "" {
				t.Errorf("values(%d) mismatch (-want +got):\n%s", key, diff)
			}
		}
	}
}

func TestTooManyCombinations(t *testing.T) {
	values := make([]string, 1<<16)
	for i := range values {
		values[i] = fmt.Sprint(i)
	}
	f := NewField("f", values)
	if _, err := newFieldMapper(f, f, f); err != ErrTooManyFieldCombinations {
		t.Fatalf("newFieldMapper got err %v want %v", err, ErrTooManyFieldCombinations)
	}
}
