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

import "gvisor.dev/rt/pkg/metric"

var (
	dispatchCount = metric.MustCreateNewUint64Metric("/rt/dispatch", "Number of dispatch passes.")

	contextSwitches = metric.MustCreateNewUint64Metric("/rt/context_switches", "Number of times the dispatcher selected a different task.")

	syscallCount = metric.MustCreateNewUint64Metric("/rt/syscalls", "Number of syscall records applied, by kind.",
		metric.NewField("op", opNames[opReschedule:]))

	tickCount = metric.MustCreateNewUint64Metric("/rt/ticks", "Number of timer ticks delivered.")
)
