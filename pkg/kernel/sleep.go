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

// Sleep implements spec.md §4.6: park p on chan until a matching Wakeup.
// Mirrors xv6's sleep(chan, lk): if the caller's lock isn't k.mu, it is
// released and reacquired around the sched() call so the two locks are
// never both held across the context switch; here every caller already
// holds k.mu, so Sleep only records the channel, flips state, and hands
// off. Killed processes are woken by the same rendezvous, not by this
// function -- the caller must recheck p.Killed on return.
func (k *Kernel) Sleep(p *Proc, chan_ Chan) {
	p.WaitChan = chan_
	p.State = Sleeping
	k.sched(p)
	p.WaitChan = nil
}

// wakeup1 moves every SLEEPING PCB waiting on chan to RUNNABLE. Callers
// must hold k.mu.
func (k *Kernel) wakeup1(chan_ Chan) {
	for i := range k.procs {
		p := &k.procs[i]
		if p.State == Sleeping && p.WaitChan == chan_ {
			p.State = Runnable
		}
	}
}

// Wakeup acquires k.mu and wakes every PCB sleeping on chan. Exposed for
// external collaborators (the tick source, device completion, and the
// like) that are not themselves holding k.mu when the event occurs.
func (k *Kernel) Wakeup(chan_ Chan) {
	k.mu.Lock()
	k.wakeup1(chan_)
	k.mu.Unlock()
}

// SleepUntil implements sys_sleep's blocking loop (spec.md §6): park p
// on the tick channel, rechecking on every wakeup, until Ticks() has
// reached target or p has been killed. Unlike Wait's use of Sleep, the
// caller here is ordinary process code holding no lock, so SleepUntil
// takes k.mu itself -- and holds it across the whole check-then-sleep
// loop, the same way Wait does, so a Tick() landing between the check
// and the park can never be missed.
func (k *Kernel) SleepUntil(p *Proc, target int64) {
	k.mu.Lock()
	for k.Ticks() < target && !p.Killed {
		k.Sleep(p, k.tickChan)
	}
	k.mu.Unlock()
}
