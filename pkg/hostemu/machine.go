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

// Package hostemu emulates the architecture layer of package rt on a host
// process.
//
// Each rt.Context is backed by a goroutine, and a single baton stands in for
// the processor: only the goroutine holding it runs, and switching contexts
// hands the baton to the goroutine of the next context. Interrupts are
// queued from any goroutine and run on the baton holder at its next
// preemption point, which is the next kernel call of the running task or the
// idle loop.
package hostemu

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gvisor.dev/rt/pkg/coalesce"
	"gvisor.dev/rt/pkg/log"
	"gvisor.dev/rt/pkg/mpsc"
	"gvisor.dev/rt/pkg/rt"
)

var (
	// ErrDeadlock is returned by Run when every task is blocked and no timer
	// or interrupt can wake one.
	ErrDeadlock = errors.New("all tasks blocked with no pending wake-up")

	// ErrTickLimit is returned by Run when the configured tick limit is
	// reached before every task exited.
	ErrTickLimit = errors.New("tick limit reached")

	// ErrHalted is returned by Run when the machine was halted with Halt.
	ErrHalted = errors.New("machine halted")
)

// ClockMode selects the tick source.
type ClockMode int

const (
	// VirtualClock advances time only while the processor is idle, jumping
	// straight to the next wake-up. Runs are deterministic.
	VirtualClock ClockMode = iota

	// RealClock delivers one tick per Config.TickPeriod of wall time.
	RealClock
)

// String implements fmt.Stringer.
func (m ClockMode) String() string {
	switch m {
	case VirtualClock:
		return "virtual"
	case RealClock:
		return "real"
	default:
		return fmt.Sprintf("ClockMode(%d)", int(m))
	}
}

// ParseClockMode parses the String form of a ClockMode.
func ParseClockMode(s string) (ClockMode, error) {
	switch s {
	case "virtual":
		return VirtualClock, nil
	case "real":
		return RealClock, nil
	default:
		return 0, fmt.Errorf("invalid clock mode %q, must be virtual or real", s)
	}
}

// Config configures a Machine.
type Config struct {
	// Clock selects the tick source.
	Clock ClockMode

	// TickPeriod is the wall time between ticks of RealClock.
	TickPeriod time.Duration

	// MaxTicks stops the machine with ErrTickLimit once that many ticks were
	// delivered. Zero is unlimited.
	MaxTicks uint64

	// ExternalInterrupts makes the idle loop wait for an interrupt instead
	// of reporting a deadlock when every task is blocked and none sleeps.
	ExternalInterrupts bool
}

// DefaultTickPeriod is the RealClock tick period when none is configured.
const DefaultTickPeriod = time.Millisecond

type irq struct {
	fn      func()
	pending coalesce.Event
	link    mpsc.Link[irq]
}

type irqLinker struct{}

func (irqLinker) LinkFor(i *irq) *mpsc.Link[irq] { return &i.link }

// hostContext is a context backed by a goroutine.
type hostContext struct {
	m       *Machine
	entry   func()
	resume  chan struct{}
	started bool
}

// Machine is a single-processor host emulation of rt.Arch.
type Machine struct {
	cfg   Config
	sched *rt.Scheduler

	irqs mpsc.Stack[irq, irqLinker]
	kick chan struct{}

	halt     chan struct{}
	haltOnce sync.Once
	err      error

	// Owned by the baton holder.
	current *hostContext
	inIRQ   bool
	pending bool

	tickIRQ     irq
	clock       monotonicClock
	overrunLog  log.Logger
	numContexts int
}

// NewMachine returns a machine with its scheduler and idle task. Tasks are
// added through Scheduler before Run.
func NewMachine(cfg Config) *Machine {
	if cfg.TickPeriod == 0 {
		cfg.TickPeriod = DefaultTickPeriod
	}
	m := &Machine{
		cfg:        cfg,
		kick:       make(chan struct{}, 1),
		halt:       make(chan struct{}),
		overrunLog: log.BasicRateLimitedLogger(time.Second),
	}
	m.tickIRQ.fn = m.tickHandler
	m.sched = rt.NewScheduler(m)
	m.sched.NewTask(rt.TaskOpts{
		Name:     "idle",
		Priority: rt.IdlePriority,
		Entry:    m.idle,
	})
	return m
}

// Scheduler returns the kernel running on m.
func (m *Machine) Scheduler() *rt.Scheduler {
	return m.sched
}

// NewContext implements rt.Arch.NewContext. The stack size is ignored; the
// goroutine is started when the context is first loaded.
func (m *Machine) NewContext(entry func(), stackSize int) rt.Context {
	m.numContexts++
	return &hostContext{
		m:      m,
		entry:  entry,
		resume: make(chan struct{}, 1),
	}
}

// PendSyscall implements rt.Arch.PendSyscall.
func (m *Machine) PendSyscall() {
	m.pending = true
	if m.inIRQ || m.current == nil {
		return
	}
	m.service()
}

// Interrupt runs fn in interrupt context on the emulated processor. It may
// be called from any goroutine, including while m is not running.
func (m *Machine) Interrupt(fn func()) {
	m.raise(&irq{fn: fn})
}

// Halt stops m. Run returns ErrHalted.
func (m *Machine) Halt() {
	m.stop(ErrHalted)
}

func (m *Machine) raise(i *irq) {
	m.irqs.Push(i)
	select {
	case m.kick <- struct{}{}:
	default:
	}
}

func (m *Machine) stop(err error) {
	m.haltOnce.Do(func() {
		m.err = err
		close(m.halt)
	})
}

func (m *Machine) halted() bool {
	select {
	case <-m.halt:
		return true
	default:
		return false
	}
}

// service runs queued interrupts and pending dispatch passes until neither
// is left, switching contexts as the scheduler directs. It returns on the
// context that called it once that context is selected again.
func (m *Machine) service() {
	for {
		if m.halted() {
			runtime.Goexit()
		}
		m.runIRQs()
		if !m.pending {
			return
		}
		m.pending = false
		if next := m.sched.Dispatch(); next != nil {
			m.switchTo(next.(*hostContext))
		}
	}
}

func (m *Machine) runIRQs() {
	for i := m.irqs.Drain(); i != nil; i = m.irqs.Drain() {
		m.inIRQ = true
		for i != nil {
			next := m.irqs.Next(i)
			i.pending.Clear()
			i.fn()
			i = next
		}
		m.inIRQ = false
	}
}

// load hands the baton to c.
func (m *Machine) load(c *hostContext) {
	m.current = c
	if !c.started {
		c.started = true
		go c.run()
	}
	c.resume <- struct{}{}
}

func (m *Machine) switchTo(next *hostContext) {
	prev := m.current
	m.load(next)
	if !prev.park() {
		runtime.Goexit()
	}
}

// park waits for the baton. It returns false if the machine halted first.
func (c *hostContext) park() bool {
	select {
	case <-c.resume:
		return true
	case <-c.m.halt:
		return false
	}
}

func (c *hostContext) run() {
	if !c.park() {
		return
	}
	c.entry()
}

// idle is the entry of the idle task. It only runs when no other task is
// ready.
func (m *Machine) idle() {
	for {
		m.service()
		if m.sched.Live() == 0 {
			m.stop(nil)
			runtime.Goexit()
		}
		if m.cfg.MaxTicks != 0 && m.sched.Ticks() >= m.cfg.MaxTicks {
			m.stop(ErrTickLimit)
			runtime.Goexit()
		}
		if !m.irqs.Empty() {
			continue
		}
		wake, sleeping := m.sched.NextWake()
		if !sleeping && !m.cfg.ExternalInterrupts {
			m.stop(ErrDeadlock)
			runtime.Goexit()
		}
		if sleeping && m.cfg.Clock == VirtualClock {
			m.advanceTo(wake)
			continue
		}
		select {
		case <-m.kick:
		case <-m.halt:
			runtime.Goexit()
		}
	}
}

// advanceTo delivers virtual ticks up to wake, or up to the tick limit, in
// one dispatch pass.
func (m *Machine) advanceTo(wake uint64) {
	if m.cfg.MaxTicks != 0 && wake > m.cfg.MaxTicks {
		wake = m.cfg.MaxTicks
	}
	m.inIRQ = true
	for m.sched.Ticks() < wake {
		m.sched.Tick()
	}
	m.inIRQ = false
}

// Run starts the scheduler and returns once every task other than idle has
// exited, or with an error when the machine deadlocks, reaches its tick
// limit, is halted or ctx is cancelled.
//
// Run may only be called once. Goroutines of tasks that did not exit are
// released before Run returns, although they may still be unwinding.
func (m *Machine) Run(ctx context.Context) error {
	first := m.sched.Start()
	if first == nil {
		return errors.New("no task to run")
	}
	log.Infof("Running %d contexts, %v clock", m.numContexts, m.cfg.Clock)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-m.halt:
			return m.err
		case <-gctx.Done():
			m.stop(gctx.Err())
			return m.err
		}
	})
	if m.cfg.Clock == RealClock {
		m.clock = newMonotonicClock(m.cfg.TickPeriod)
		g.Go(func() error {
			return m.ticker(gctx)
		})
	}
	m.load(first.(*hostContext))
	if err := g.Wait(); err != nil {
		return fmt.Errorf("running machine: %w", err)
	}
	return nil
}

// ticker raises the tick interrupt at every tick period.
func (m *Machine) ticker(ctx context.Context) error {
	t := time.NewTicker(m.cfg.TickPeriod)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			if m.tickIRQ.pending.Raise() {
				m.raise(&m.tickIRQ)
			}
		case <-m.halt:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

// tickHandler delivers every tick elapsed on the monotonic clock since the
// last interrupt. More than one means interrupts were held off.
func (m *Machine) tickHandler() {
	due := m.clock.elapsedTicks()
	if m.cfg.MaxTicks != 0 && due > m.cfg.MaxTicks {
		due = m.cfg.MaxTicks
	}
	now := m.sched.Ticks()
	if due <= now {
		return
	}
	if missed := due - now - 1; missed > 0 {
		m.overrunLog.Warningf("Tick interrupt delivered %d ticks late", missed)
	}
	for ; now < due; now++ {
		m.sched.Tick()
	}
}
