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
	"strings"

	"gvisor.dev/rt/pkg/rt"
)

func init() {
	register(&Scenario{
		Name:        "queue",
		Description: "a sender passes items values through a queue of the given capacity to a receiver",
		setup:       setupQueue,
	})
	register(&Scenario{
		Name:        "barrier",
		Description: "tasks tasks meet at a barrier rounds times, arriving at different ticks",
		setup:       setupBarrier,
	})
	register(&Scenario{
		Name:        "periodic",
		Description: "tasks periodic tasks with periods of period, 2*period, ... wake rounds times each",
		setup:       setupPeriodic,
	})
}

func setupQueue(s *rt.Scheduler, p Params, tr *Trace) func() error {
	q := rt.NewQueue[int](s, p.Capacity)
	var received []int
	maxLen := 0
	task(s, "sender", 1, func() {
		for i := 1; i <= p.Items; i++ {
			q.Send(i)
			maxLen = max(maxLen, q.Len())
			tr.Add("sent %d", i)
		}
	})
	task(s, "receiver", 2, func() {
		for i := 0; i < p.Items; i++ {
			v := q.Recv()
			received = append(received, v)
			tr.Add("received %d", v)
		}
	})
	return func() error {
		if len(received) != p.Items {
			return fmt.Errorf("received %d values, want %d", len(received), p.Items)
		}
		for i, v := range received {
			if v != i+1 {
				return fmt.Errorf("value %d is %d, want %d", i, v, i+1)
			}
		}
		if maxLen > p.Capacity {
			return fmt.Errorf("queue held %d values, capacity is %d", maxLen, p.Capacity)
		}
		return nil
	}
}

func setupBarrier(s *rt.Scheduler, p Params, tr *Trace) func() error {
	b := rt.NewBarrier(s, int32(p.Tasks))
	leaders := make([]int, p.Rounds)
	for i := 0; i < p.Tasks; i++ {
		delay := uint64(i + 1)
		task(s, fmt.Sprintf("party%d", i), rt.Priority(i%8+1), func() {
			for round := 0; round < p.Rounds; round++ {
				s.Sleep(delay)
				tr.Add("arrives")
				if b.Wait() {
					leaders[round]++
				}
				tr.Add("passes")
			}
		})
	}
	return func() error {
		for round, n := range leaders {
			if n != 1 {
				return fmt.Errorf("round %d had %d leaders, want 1", round, n)
			}
		}
		// The k-th pass needs every arrival of its round.
		arrivals, passes := 0, 0
		for _, e := range tr.Events {
			if strings.HasPrefix(e.Msg, "arrives") {
				arrivals++
				continue
			}
			passes++
			round := (passes + p.Tasks - 1) / p.Tasks
			if need := round * p.Tasks; arrivals < need {
				return fmt.Errorf("%v after %d arrivals, want %d", e, arrivals, need)
			}
		}
		return nil
	}
}

func setupPeriodic(s *rt.Scheduler, p Params, tr *Trace) func() error {
	type wake struct {
		tick, last uint64
	}
	wakes := make([][]wake, p.Tasks)
	for i := 0; i < p.Tasks; i++ {
		period := p.Period * uint64(i+1)
		task(s, fmt.Sprintf("periodic%d", i), rt.Priority(i%8+1), func() {
			var last uint64
			for round := 0; round < p.Rounds; round++ {
				s.SleepPeriodic(&last, period)
				wakes[i] = append(wakes[i], wake{tick: s.Ticks(), last: last})
				tr.Add("wakes, period %d", period)
			}
		})
	}
	return func() error {
		for i, ws := range wakes {
			period := p.Period * uint64(i+1)
			if len(ws) != p.Rounds {
				return fmt.Errorf("task %d woke %d times, want %d", i, len(ws), p.Rounds)
			}
			for k, w := range ws {
				want := period * uint64(k+1)
				if w.last != want || w.tick < want {
					return fmt.Errorf("task %d wake %d at tick %d (schedule %d), want %d", i, k, w.tick, w.last, want)
				}
			}
		}
		return nil
	}
}
