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

package atomicbitops

import "sync/atomic"

// AndUint32 atomically applies bitwise and operation to *addr with val and
// returns the value previously stored at addr.
func AndUint32(addr *uint32, val uint32) uint32 {
	for {
		o := atomic.LoadUint32(addr)
		n := o & val
		if atomic.CompareAndSwapUint32(addr, o, n) {
			return o
		}
	}
}

// OrUint32 atomically applies bitwise or operation to *addr with val and
// returns the value previously stored at addr.
func OrUint32(addr *uint32, val uint32) uint32 {
	for {
		o := atomic.LoadUint32(addr)
		n := o | val
		if atomic.CompareAndSwapUint32(addr, o, n) {
			return o
		}
	}
}

// DecIfPositive atomically decrements *addr if it is positive and reports
// whether it did so.
func DecIfPositive(addr *Int32) bool {
	for {
		o := addr.Load()
		if o <= 0 {
			return false
		}
		if addr.CompareAndSwap(o, o-1) {
			return true
		}
	}
}

// IncIfNegative atomically increments *addr if it is negative and reports
// whether it did so.
func IncIfNegative(addr *Int32) bool {
	for {
		o := addr.Load()
		if o >= 0 {
			return false
		}
		if addr.CompareAndSwap(o, o+1) {
			return true
		}
	}
}
