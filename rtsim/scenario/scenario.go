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

// Package scenario holds the workloads that rtsim runs on an emulated
// machine. Each scenario registers its tasks, records a trace while running
// and checks the properties it demonstrates once the machine stops.
package scenario

import (
	"context"
	"fmt"
	"sort"

	"gvisor.dev/rt/pkg/hostemu"
	"gvisor.dev/rt/pkg/log"
	"gvisor.dev/rt/pkg/rt"
)

// Params are the tunables shared by scenarios. Each scenario documents the
// ones it uses.
type Params struct {
	Items    int
	Capacity int
	Tasks    int
	Rounds   int
	Period   uint64
}

// Scenario is a named workload.
type Scenario struct {
	Name        string
	Description string

	// setup registers tasks on s and returns the check to run after the
	// machine stopped.
	setup func(s *rt.Scheduler, p Params, tr *Trace) func() error
}

var registry = map[string]*Scenario{}

func register(sc *Scenario) {
	if _, ok := registry[sc.Name]; ok {
		panic(fmt.Sprintf("duplicate scenario %q", sc.Name))
	}
	registry[sc.Name] = sc
}

// Lookup returns the scenario called name.
func Lookup(name string) (*Scenario, error) {
	sc, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q", name)
	}
	return sc, nil
}

// All returns every scenario sorted by name.
func All() []*Scenario {
	all := make([]*Scenario, 0, len(registry))
	for _, sc := range registry {
		all = append(all, sc)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all
}

// Event is one trace entry.
type Event struct {
	Tick uint64
	Task string
	Msg  string
}

// String implements fmt.Stringer.
func (e Event) String() string {
	return fmt.Sprintf("%8d  %-10s %s", e.Tick, e.Task, e.Msg)
}

// Trace records events from tasks. Tasks never run concurrently, so it needs
// no locking.
type Trace struct {
	s      *rt.Scheduler
	Events []Event
}

// Add records an event for the running task.
func (tr *Trace) Add(format string, v ...any) {
	e := Event{
		Tick: tr.s.Ticks(),
		Task: tr.s.Self().Name(),
		Msg:  fmt.Sprintf(format, v...),
	}
	tr.Events = append(tr.Events, e)
	if log.IsLogging(log.Debug) {
		log.Debugf("%s: %s", e.Task, e.Msg)
	}
}

// Msgs returns the messages of the events, in order.
func (tr *Trace) Msgs() []string {
	msgs := make([]string, 0, len(tr.Events))
	for _, e := range tr.Events {
		msgs = append(msgs, e.Msg)
	}
	return msgs
}

// Result is the outcome of a run.
type Result struct {
	Trace *Trace
	Ticks uint64
}

// Runner runs scenarios.
type Runner struct {
	Machine hostemu.Config
	Params  Params

	// OnStart, if set, is called with the machine after the scenario's
	// tasks are registered and before it runs.
	OnStart func(m *hostemu.Machine)
}

// Run runs sc on a new machine. The result is returned whenever the machine
// stopped, even if sc's check failed.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Result, error) {
	m := hostemu.NewMachine(r.Machine)
	s := m.Scheduler()
	tr := &Trace{s: s}
	check := sc.setup(s, r.Params, tr)
	if r.OnStart != nil {
		r.OnStart(m)
	}
	log.Infof("Running scenario %q", sc.Name)
	if err := m.Run(ctx); err != nil {
		return nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
	}
	res := &Result{Trace: tr, Ticks: s.Ticks()}
	if err := check(); err != nil {
		return res, fmt.Errorf("scenario %q: check failed: %w", sc.Name, err)
	}
	log.Infof("Scenario %q passed after %d ticks", sc.Name, res.Ticks)
	return res, nil
}

func task(s *rt.Scheduler, name string, prio rt.Priority, entry func()) {
	s.NewTask(rt.TaskOpts{Name: name, Priority: prio, Entry: entry})
}

// expectOrder checks that got is want.
func expectOrder(got, want []string) error {
	if len(got) != len(want) {
		return fmt.Errorf("got %d events %q, want %q", len(got), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("event %d is %q, want %q", i, got[i], want[i])
		}
	}
	return nil
}
