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

package coalesce

import (
	"runtime"
	"sync"
	"testing"
)

func TestRaiseClear(t *testing.T) {
	var e Event
	if e.Pending() {
		t.Fatalf("zero Event is pending")
	}
	if !e.Raise() {
		t.Fatalf("Raise() on idle event = false, want true")
	}
	if e.Raise() {
		t.Fatalf("Raise() on in-flight event = true, want false")
	}
	if !e.Pending() {
		t.Fatalf("Pending() after Raise() = false, want true")
	}
	e.Clear()
	if !e.Raise() {
		t.Fatalf("Raise() after Clear() = false, want true")
	}
}

// TestConcurrentRaise checks that exactly one of many concurrent raisers wins
// per clear.
func TestConcurrentRaise(t *testing.T) {
	oldProcs := runtime.GOMAXPROCS(4)
	defer runtime.GOMAXPROCS(oldProcs)

	const raisers = 8
	for round := 0; round < 100; round++ {
		var e Event
		var wg sync.WaitGroup
		var mu sync.Mutex
		wins := 0
		start := make(chan struct{})
		wg.Add(raisers)
		for i := 0; i < raisers; i++ {
			go func() {
				defer wg.Done()
				<-start
				if e.Raise() {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		close(start)
		wg.Wait()
		if wins != 1 {
			t.Fatalf("round %d: %d raisers won, want 1", round, wins)
		}
	}
}
