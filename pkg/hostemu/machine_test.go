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

package hostemu

import (
	"context"
	"errors"
	"testing"
	"time"

	"gvisor.dev/rt/pkg/rt"
)

func runMachine(m *Machine) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return m.Run(ctx)
}

func TestRunAllExit(t *testing.T) {
	m := NewMachine(Config{})
	s := m.Scheduler()
	ran := 0
	for i := 0; i < 3; i++ {
		s.NewTask(rt.TaskOpts{Name: "t", Priority: 1, Entry: func() {
			s.Sleep(uint64(i))
			ran++
		}})
	}
	if err := runMachine(m); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if ran != 3 {
		t.Errorf("%d tasks ran, want 3", ran)
	}
	if got := s.Ticks(); got != 2 {
		t.Errorf("Ticks() = %d, want 2", got)
	}
}

func TestRunNoTasks(t *testing.T) {
	m := NewMachine(Config{})
	if err := runMachine(m); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
}

func TestDeadlock(t *testing.T) {
	m := NewMachine(Config{})
	s := m.Scheduler()
	sem := rt.NewSem(s, 0)
	s.NewTask(rt.TaskOpts{Name: "stuck", Priority: 1, Entry: sem.Wait})

	if err := runMachine(m); !errors.Is(err, ErrDeadlock) {
		t.Fatalf("Run() = %v, want %v", err, ErrDeadlock)
	}
}

func TestTickLimit(t *testing.T) {
	m := NewMachine(Config{MaxTicks: 20})
	s := m.Scheduler()
	s.NewTask(rt.TaskOpts{Name: "forever", Priority: 1, Entry: func() {
		var last uint64
		for {
			s.SleepPeriodic(&last, 3)
		}
	}})

	if err := runMachine(m); !errors.Is(err, ErrTickLimit) {
		t.Fatalf("Run() = %v, want %v", err, ErrTickLimit)
	}
	if got := s.Ticks(); got != 20 {
		t.Errorf("Ticks() = %d, want 20", got)
	}
}

func TestCancel(t *testing.T) {
	m := NewMachine(Config{ExternalInterrupts: true})
	s := m.Scheduler()
	sem := rt.NewSem(s, 0)
	s.NewTask(rt.TaskOpts{Name: "waiter", Priority: 1, Entry: sem.Wait})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := m.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run() = %v, want %v", err, context.DeadlineExceeded)
	}
}

func TestHalt(t *testing.T) {
	m := NewMachine(Config{})
	s := m.Scheduler()
	s.NewTask(rt.TaskOpts{Name: "halter", Priority: 1, Entry: func() {
		m.Halt()
		s.Yield()
		t.Errorf("task resumed after Halt")
	}})

	if err := runMachine(m); !errors.Is(err, ErrHalted) {
		t.Fatalf("Run() = %v, want %v", err, ErrHalted)
	}
}

func TestExternalInterrupt(t *testing.T) {
	m := NewMachine(Config{ExternalInterrupts: true})
	s := m.Scheduler()
	sem := rt.NewSem(s, 0)
	var woke bool
	s.NewTask(rt.TaskOpts{Name: "waiter", Priority: 1, Entry: func() {
		sem.Wait()
		woke = true
	}})

	go func() {
		time.Sleep(5 * time.Millisecond)
		m.Interrupt(sem.Post)
	}()
	if err := runMachine(m); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if !woke {
		t.Errorf("waiter did not wake")
	}
}

func TestRealClock(t *testing.T) {
	m := NewMachine(Config{Clock: RealClock, TickPeriod: time.Millisecond})
	s := m.Scheduler()
	var tick uint64
	s.NewTask(rt.TaskOpts{Name: "sleeper", Priority: 1, Entry: func() {
		s.Sleep(3)
		tick = s.Ticks()
	}})

	start := time.Now()
	if err := runMachine(m); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if tick < 3 {
		t.Errorf("woke at tick %d, want >= 3", tick)
	}
	if elapsed := time.Since(start); elapsed < 3*time.Millisecond {
		t.Errorf("Run() took %v, want >= 3ms", elapsed)
	}
}

func TestParseClockMode(t *testing.T) {
	for _, mode := range []ClockMode{VirtualClock, RealClock} {
		got, err := ParseClockMode(mode.String())
		if err != nil || got != mode {
			t.Errorf("ParseClockMode(%q) = %v, %v, want %v, nil", mode.String(), got, err, mode)
		}
	}
	if _, err := ParseClockMode("wall"); err == nil {
		t.Errorf("ParseClockMode(%q) succeeded, want error", "wall")
	}
}
