// Copyright 2018 The gVisor Authors.
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

package kernel

// The four scheduler disciplines of spec.md §4.4, tried in fixed
// priority order by the CPU loop: ROUND_ROBIN, then PRIORITY, then BJF,
// then FCFS. Every selector requires k.mu held and only considers
// RUNNABLE PCBs in its own queue; ties break toward the lowest table
// index, since each scans the table left to right and only replaces its
// current pick on a strict improvement.

// selectRoundRobin scans starting at cpu.rrIndex, wrapping once, for the
// first RUNNABLE ROUND_ROBIN PCB. On success it advances cpu.rrIndex to
// one past the selected slot. On failure it leaves cpu.rrIndex
// untouched; resetting it to 0 before falling through to the next
// discipline is the CPU loop's job, not this selector's.
func (k *Kernel) selectRoundRobin(cpu *CPU) *Proc {
	n := len(k.procs)
	if n == 0 {
		return nil
	}
	for i := 0; i < n; i++ {
		idx := (cpu.rrIndex + i) % n
		p := &k.procs[idx]
		if p.State == Runnable && p.SchedQueue == RoundRobin {
			cpu.rrIndex = (idx + 1) % n
			return p
		}
	}
	return nil
}

// selectPriority picks the RUNNABLE PRIORITY PCB with the lowest
// Priority value.
func (k *Kernel) selectPriority() *Proc {
	var best *Proc
	for i := range k.procs {
		p := &k.procs[i]
		if p.State != Runnable || p.SchedQueue != Priority {
			continue
		}
		if best == nil || p.Priority < best.Priority {
			best = p
		}
	}
	return best
}

// selectBJF picks the RUNNABLE BJF PCB with the lowest bjfRank.
func (k *Kernel) selectBJF() *Proc {
	var best *Proc
	var bestRank float64
	for i := range k.procs {
		p := &k.procs[i]
		if p.State != Runnable || p.SchedQueue != BJF {
			continue
		}
		r := p.bjfRank()
		if best == nil || r < bestRank {
			best = p
			bestRank = r
		}
	}
	return best
}

// selectFCFS picks the RUNNABLE FCFS PCB with the earliest CTime.
func (k *Kernel) selectFCFS() *Proc {
	var best *Proc
	for i := range k.procs {
		p := &k.procs[i]
		if p.State != Runnable || p.SchedQueue != FCFS {
			continue
		}
		if best == nil || p.CTime < best.CTime {
			best = p
		}
	}
	return best
}
