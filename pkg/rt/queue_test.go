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

func TestQueueOrder(t *testing.T) {
	m, s := newMachine()
	q := rt.NewQueue[int](s, 2)
	var got []int
	maxLen := 0
	task(s, "sender", 1, func() {
		for i := 1; i <= 10; i++ {
			q.Send(i)
			maxLen = max(maxLen, q.Len())
		}
	})
	task(s, "receiver", 2, func() {
		for i := 0; i < 10; i++ {
			got = append(got, q.Recv())
		}
	})
	run(t, m)

	if diff := cmp.Diff([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, got); diff != "" {
		t.Fatalf("received values mismatch (-want +got):\n%s", diff)
	}
	if maxLen != q.Cap() {
		t.Errorf("max Len() = %d, want %d", maxLen, q.Cap())
	}
}

func TestQueueNonBlocking(t *testing.T) {
	m, s := newMachine()
	q := rt.NewQueue[string](s, 1)
	var tr trace
	task(s, "a", 1, func() {
		_, ok := q.TryRecv()
		tr.add("recv empty %t", ok)
		tr.add("send %t", q.TrySend("x"))
		tr.add("send full %t", q.TrySend("y"))
		tr.add("timed send %t@%d", q.TimedSend("y", 3), s.Ticks())
		v, ok := q.TimedRecv(3)
		tr.add("timed recv %q %t", v, ok)
		v, ok = q.TimedRecv(3)
		tr.add("timed recv empty %q %t@%d", v, ok, s.Ticks())
	})
	run(t, m)

	want := []string{
		"recv empty false",
		"send true",
		"send full false",
		"timed send false@3",
		`timed recv "x" true`,
		`timed recv empty "" false@6`,
	}
	if diff := cmp.Diff(want, tr.events); diff != "" {
		t.Fatalf("trace mismatch (-want +got):\n%s", diff)
	}
}
