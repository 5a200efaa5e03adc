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

package rt

// timeline is the sleep timeline: tasks ordered by wake tick, with ties in
// insertion order.
//
// Wake ticks are compared as distances from processed, the last tick whose
// wake-ups have been fully handled, so the order survives counter
// wrap-around.
type timeline struct {
	list timerList

	// processed is the last tick whose expirations have been applied.
	processed uint64

	// nextWake caches the wake tick of the head of list. It is meaningless
	// while list is empty.
	nextWake uint64
}

// due reports whether wake is at or before processed.
func (tl *timeline) due(wake uint64) bool {
	return int64(wake-tl.processed) <= 0
}

// insert links t to wake at tick wake.
//
// Precondition: !tl.due(wake) and t is not in the timeline.
func (tl *timeline) insert(t *Task, wake uint64) {
	t.wakeTick = wake
	t.timed = true
	delta := wake - tl.processed
	// Sleepers are usually inserted with similar durations, so the new one
	// most often belongs near the back.
	for e := tl.list.Back(); e != nil; e = tl.list.Prev(e) {
		if e.wakeTick-tl.processed <= delta {
			tl.list.InsertAfter(e, t)
			return
		}
	}
	tl.list.PushFront(t)
	tl.nextWake = wake
}

// remove unlinks t.
//
// Precondition: t.timed.
func (tl *timeline) remove(t *Task) {
	head := tl.list.Front() == t
	tl.list.Remove(t)
	t.timed = false
	if head {
		if f := tl.list.Front(); f != nil {
			tl.nextWake = f.wakeTick
		}
	}
}

// next returns the wake tick of the earliest sleeper.
func (tl *timeline) next() (uint64, bool) {
	if tl.list.Empty() {
		return 0, false
	}
	return tl.nextWake, true
}

// advance processes every tick up to now, calling expire for each task whose
// wake tick is reached, in timeline order. The task is already unlinked when
// expire runs.
func (tl *timeline) advance(now uint64, expire func(*Task)) {
	for tl.processed != now {
		tl.processed++
		for !tl.list.Empty() && tl.nextWake == tl.processed {
			t := tl.list.PopFront()
			t.timed = false
			if f := tl.list.Front(); f != nil {
				tl.nextWake = f.wakeTick
			}
			expire(t)
		}
	}
}
