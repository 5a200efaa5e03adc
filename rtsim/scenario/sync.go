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
	"fmt"

	"gvisor.dev/rt/pkg/rt"
)

func init() {
	register(&Scenario{
		Name:        "sem-handoff",
		Description: "an urgent task blocks on a semaphore and preempts the poster as soon as it posts",
		setup:       setupSemHandoff,
	})
	register(&Scenario{
		Name:        "timed-wait",
		Description: "tasks time out on a semaphore that is never posted, each after its own number of ticks",
		setup:       setupTimedWait,
	})
	register(&Scenario{
		Name:        "mutex",
		Description: "tasks workers contend for a mutex, rounds times each, yielding inside the critical section",
		setup:       setupMutex,
	})
	register(&Scenario{
		Name:        "rwlock",
		Description: "tasks readers share a lock that a writer takes rounds times",
		setup:       setupRWLock,
	})
	register(&Scenario{
		Name:        "notify",
		Description: "a poster sets one bit per round that a waiter collects and clears",
		setup:       setupNotify,
	})
}

func setupSemHandoff(s *rt.Scheduler, _ Params, tr *Trace) func() error {
	sem := rt.NewSem(s, 0)
	task(s, "waiter", 1, func() {
		tr.Add("waits")
		sem.Wait()
		tr.Add("wakes")
	})
	task(s, "poster", 2, func() {
		tr.Add("posts")
		sem.Post()
		tr.Add("continues")
	})
	return func() error {
		return expectOrder(tr.Msgs(), []string{"waits", "posts", "wakes", "continues"})
	}
}

func setupTimedWait(s *rt.Scheduler, p Params, tr *Trace) func() error {
	sem := rt.NewSem(s, 0)
	for i := 0; i < p.Tasks; i++ {
		timeout := uint64(i + 1)
		task(s, fmt.Sprintf("waiter%d", i), 1, func() {
			ok := sem.TimedWait(timeout)
			tr.Add("timed out %t after %d", !ok, timeout)
		})
	}
	return func() error {
		if len(tr.Events) != p.Tasks {
			return fmt.Errorf("%d waiters finished, want %d", len(tr.Events), p.Tasks)
		}
		for i, e := range tr.Events {
			want := uint64(i + 1)
			if e.Tick < want || e.Msg != fmt.Sprintf("timed out true after %d", want) {
				return fmt.Errorf("event %v, want a timeout at tick %d", e, want)
			}
		}
		return nil
	}
}

func setupMutex(s *rt.Scheduler, p Params, tr *Trace) func() error {
	m := rt.NewMutex(s)
	inside, maxInside, total := 0, 0, 0
	for i := 0; i < p.Tasks; i++ {
		task(s, fmt.Sprintf("worker%d", i), 1, func() {
			for j := 0; j < p.Rounds; j++ {
				m.Lock()
				inside++
				maxInside = max(maxInside, inside)
				tr.Add("enters")
				s.Yield()
				total++
				inside--
				m.Unlock()
			}
		})
	}
	return func() error {
		if maxInside != 1 {
			return fmt.Errorf("%d tasks inside the critical section at once", maxInside)
		}
		if want := p.Tasks * p.Rounds; total != want {
			return fmt.Errorf("%d critical sections completed, want %d", total, want)
		}
		return nil
	}
}

func setupRWLock(s *rt.Scheduler, p Params, tr *Trace) func() error {
	rw := rt.NewRWLock(s)
	readers, writers, maxReaders, writes := 0, 0, 0, 0
	var violation error
	for i := 0; i < p.Tasks; i++ {
		task(s, fmt.Sprintf("reader%d", i), 2, func() {
			for j := 0; j < p.Rounds; j++ {
				rw.RLock()
				readers++
				maxReaders = max(maxReaders, readers)
				if writers != 0 && violation == nil {
					violation = fmt.Errorf("reader entered while a writer held the lock")
				}
				tr.Add("reads with %d readers", readers)
				s.Sleep(1)
				readers--
				rw.RUnlock()
			}
		})
	}
	task(s, "writer", 1, func() {
		for j := 0; j < p.Rounds; j++ {
			s.Sleep(1)
			rw.Lock()
			writers++
			if readers != 0 && violation == nil {
				violation = fmt.Errorf("writer entered with %d readers", readers)
			}
			writes++
			tr.Add("writes")
			s.Sleep(1)
			writers--
			rw.Unlock()
		}
	})
	return func() error {
		if violation != nil {
			return violation
		}
		if writes != p.Rounds {
			return fmt.Errorf("%d writes, want %d", writes, p.Rounds)
		}
		if p.Tasks > 1 && maxReaders < 2 {
			return fmt.Errorf("readers never shared the lock")
		}
		return nil
	}
}

func setupNotify(s *rt.Scheduler, p Params, tr *Trace) func() error {
	n := rt.NewNotify(s, 0)
	bits := min(p.Rounds, 32)
	mask := uint32(1<<bits - 1)
	var seen uint32
	task(s, "waiter", 1, func() {
		for seen != mask {
			v := n.WaitClear(mask)
			seen |= v
			tr.Add("got %#x", v)
		}
	})
	task(s, "poster", 2, func() {
		for i := 0; i < bits; i++ {
			n.Or(1 << i)
			s.Sleep(1)
		}
	})
	return func() error {
		if seen != mask {
			return fmt.Errorf("collected bits %#x, want %#x", seen, mask)
		}
		if v := n.Value(); v != 0 {
			return fmt.Errorf("bits %#x left set", v)
		}
		return nil
	}
}
