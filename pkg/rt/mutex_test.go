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

package rt_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"gvisor.dev/rt/pkg/rt"
)

func TestMutexFIFO(t *testing.T) {
	m, s := newMachine()
	mu := rt.NewMutex(s)
	var tr trace
	task(s, "holder", 1, func() {
		mu.Lock()
		s.Sleep(2)
		mu.Unlock()
		tr.add("holder unlocked")
	})
	task(s, "w2", 2, func() {
		s.Sleep(1)
		mu.Lock()
		tr.add("w2 locked")
		mu.Unlock()
	})
	task(s, "w1", 3, func() {
		mu.Lock()
		tr.add("w1 locked")
		mu.Unlock()
	})
	run(t, m)

	// w1 queued first, so it gets the lock before the more urgent w2.
	want := []string{"holder unlocked", "w1 locked", "w2 locked"}
	if diff := cmp.Diff(want, tr.events); diff != "" {
		t.Fatalf("trace mismatch (-want +got):\n%s", diff)
	}
}

func TestMutexMutualExclusion(t *testing.T) {
	m, s := newMachine()
	mu := rt.NewMutex(s)
	inside, maxInside, total := 0, 0, 0
	for i := 0; i < 4; i++ {
		task(s, "worker", 1, func() {
			for j := 0; j < 10; j++ {
				mu.Lock()
				inside++
				if inside > maxInside {
					maxInside = inside
				}
				s.Yield()
				total++
				inside--
				mu.Unlock()
			}
		})
	}
	run(t, m)

	if maxInside != 1 {
		t.Errorf("%d tasks inside the critical section, want 1", maxInside)
	}
	if total != 40 {
		t.Errorf("total = %d, want 40", total)
	}
}

func TestMutexTryLock(t *testing.T) {
	m, s := newMachine()
	mu := rt.NewMutex(s)
	var got []bool
	task(s, "a", 1, func() {
		got = append(got, mu.TryLock(), mu.TryLock(), mu.TimedLock(0))
		mu.Unlock()
		got = append(got, mu.TryLock())
		mu.Unlock()
	})
	run(t, m)

	if diff := cmp.Diff([]bool{true, false, false, true}, got); diff != "" {
		t.Fatalf("TryLock results mismatch (-want +got):\n%s", diff)
	}
}

func TestMutexTimedLock(t *testing.T) {
	m, s := newMachine()
	mu := rt.NewMutex(s)
	var tr trace
	task(s, "holder", 1, func() {
		mu.Lock()
		s.Sleep(10)
		tr.add("holder unlocks@%d", s.Ticks())
		mu.Unlock()
	})
	task(s, "timed", 2, func() {
		ok := mu.TimedLock(3)
		tr.add("timed %t@%d", ok, s.Ticks())
	})
	task(s, "first", 3, func() {
		mu.Lock()
		tr.add("first locked")
		mu.Unlock()
	})
	task(s, "second", 4, func() {
		mu.Lock()
		tr.add("second locked")
		mu.Unlock()
	})
	run(t, m)

	want := []string{
		"timed false@3",
		"holder unlocks@10",
		"first locked",
		"second locked",
	}
	if diff := cmp.Diff(want, tr.events); diff != "" {
		t.Fatalf("trace mismatch (-want +got):\n%s", diff)
	}
}

func TestMutexUnlockFromInterrupt(t *testing.T) {
	m, s := newMachine()
	mu := rt.NewMutex(s)
	mu.Lock()
	var locked bool
	task(s, "a", 1, func() {
		mu.Lock()
		locked = true
		mu.Unlock()
	})
	m.Interrupt(mu.Unlock)
	run(t, m)

	if !locked {
		t.Fatalf("task did not acquire the mutex")
	}
}
