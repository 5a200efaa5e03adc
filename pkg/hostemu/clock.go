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

import "time"

// monotonicClock converts monotonic time since its creation into ticks.
type monotonicClock struct {
	start  int64
	period int64
}

func newMonotonicClock(period time.Duration) monotonicClock {
	return monotonicClock{
		start:  monotonicNow(),
		period: int64(period),
	}
}

// elapsedTicks returns the number of whole tick periods since c was created.
func (c monotonicClock) elapsedTicks() uint64 {
	d := monotonicNow() - c.start
	if d <= 0 || c.period <= 0 {
		return 0
	}
	return uint64(d / c.period)
}
