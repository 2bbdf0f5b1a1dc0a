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

// agingPass implements spec.md §4.4's anti-starvation pass: every
// RUNNABLE PCB's waiting_time is incremented; any whose waiting_time
// exceeds the configured threshold is promoted one discipline toward
// ROUND_ROBIN and its waiting_time reset. Finally the selected PCB's own
// waiting_time is zeroed, since it is no longer waiting. Callers must
// hold k.mu.
func (k *Kernel) agingPass(selected *Proc) {
	threshold := int64(k.cfg.AgingThreshold)
	for i := range k.procs {
		ap := &k.procs[i]
		if ap.Pid == 0 {
			continue
		}
		if ap.State == Runnable {
			ap.WaitingTime++
		}
		if ap.WaitingTime > threshold && ap.SchedQueue > RoundRobin {
			ap.SchedQueue--
			ap.WaitingTime = 0
		}
	}
	selected.WaitingTime = 0
}
