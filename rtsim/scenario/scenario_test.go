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

package scenario

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gvisor.dev/rt/pkg/hostemu"
)

var defaultParams = Params{Items: 10, Capacity: 2, Tasks: 3, Rounds: 4, Period: 5}

func runScenario(t *testing.T, name string, p Params) *Result {
	t.Helper()
	sc, err := Lookup(name)
	if err != nil {
		t.Fatalf("Lookup(%q): %v", name, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	r := Runner{Machine: hostemu.Config{MaxTicks: 100000}, Params: p}
	res, err := r.Run(ctx, sc)
	if err != nil {
		t.Fatalf("Run(%q) = %v, want nil", name, err)
	}
	return res
}

func TestAllScenarios(t *testing.T) {
	for _, sc := range All() {
		t.Run(sc.Name, func(t *testing.T) {
			res := runScenario(t, sc.Name, defaultParams)
			if len(res.Trace.Events) == 0 {
				t.Errorf("empty trace")
			}
		})
	}
}

func TestScenarioNames(t *testing.T) {
	var names []string
	for _, sc := range All() {
		names = append(names, sc.Name)
	}
	want := []string{"barrier", "mutex", "notify", "periodic", "queue", "rwlock", "sem-handoff", "timed-wait"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("All() mismatch (-want +got):\n%s", diff)
	}
	if _, err := Lookup("nope"); err == nil {
		t.Fatalf("Lookup(%q) succeeded, want error", "nope")
	}
}

func TestSemHandoffTrace(t *testing.T) {
	res := runScenario(t, "sem-handoff", defaultParams)
	want := []Event{
		{Tick: 0, Task: "waiter", Msg: "waits"},
		{Tick: 0, Task: "poster", Msg: "posts"},
		{Tick: 0, Task: "waiter", Msg: "wakes"},
		{Tick: 0, Task: "poster", Msg: "continues"},
	}
	if diff := cmp.Diff(want, res.Trace.Events); diff != "" {
		t.Fatalf("trace mismatch (-want +got):\n%s", diff)
	}
}

func TestPeriodicTicks(t *testing.T) {
	res := runScenario(t, "periodic", Params{Tasks: 1, Rounds: 3, Period: 4})
	var ticks []uint64
	for _, e := range res.Trace.Events {
		ticks = append(ticks, e.Tick)
	}
	if diff := cmp.Diff([]uint64{4, 8, 12}, ticks); diff != "" {
		t.Fatalf("wake ticks mismatch (-want +got):\n%s", diff)
	}
	if res.Ticks != 12 {
		t.Errorf("Ticks = %d, want 12", res.Ticks)
	}
}

func TestQueueLargeCapacity(t *testing.T) {
	p := defaultParams
	p.Items = 50
	p.Capacity = 7
	runScenario(t, "queue", p)
}

func TestTickLimit(t *testing.T) {
	sc, err := Lookup("periodic")
	if err != nil {
		t.Fatal(err)
	}
	r := Runner{Machine: hostemu.Config{MaxTicks: 10}, Params: Params{Tasks: 1, Rounds: 100, Period: 1}}
	if _, err := r.Run(context.Background(), sc); err == nil {
		t.Fatalf("Run() with tick limit succeeded, want error")
	}
}
