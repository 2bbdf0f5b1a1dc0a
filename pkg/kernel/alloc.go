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

import (
	"github.com/ticklab/pscore/pkg/kerr"
	"github.com/ticklab/pscore/pkg/klog"
)

// alloc implements spec.md §4.1: scan for the first UNUSED slot, mark it
// EMBRYO, assign a pid, stamp ctime/arrival_time, initialize scheduler
// fields to their defaults, all under k.mu; then, outside the lock, ask
// the platform for a kernel stack and an initial context. entry is the
// body the process runs once first scheduled -- the Go stand-in for "a
// trampoline that releases ptable.lock and jumps to user-mode return."
func (k *Kernel) alloc(name string, entry func(p *Proc)) (*Proc, error) {
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}

	k.mu.Lock()
	var p *Proc
	for i := range k.procs {
		if k.procs[i].State == Unused {
			p = &k.procs[i]
			break
		}
	}
	if p == nil {
		k.mu.Unlock()
		return nil, kerr.ErrNoFreeSlot
	}

	p.State = Embryo
	p.Pid = k.nextPid
	k.nextPid++
	k.pidIndex.ReplaceOrInsert(&pidItem{pid: p.Pid, slot: p.index})

	now := k.Ticks()
	p.CTime = now
	p.ArrivalTime = now
	p.Name = name
	p.Killed = false
	p.ForkedChild = false
	p.WaitChan = nil
	p.ExecutedCycle = 0
	p.WaitingTime = 0
	p.Priority = k.cfg.DefaultPriority
	p.SchedQueue = Priority
	p.PriorityRatio = 1
	p.ArrivalTimeRatio = 1
	p.ExecutedCycleRatio = 1
	k.mu.Unlock()

	stack, err := k.plat.AllocStack()
	if err != nil {
		k.mu.Lock()
		k.pidIndex.Delete(&pidItem{pid: p.Pid})
		p.State = Unused
		p.Pid = 0
		k.mu.Unlock()
		return nil, kerr.Wrap(err, "alloc")
	}

	p.Stack = stack
	p.TrapFrame = nil
	p.entryFn = entry
	// The wrapped entry's first action releases k.mu: whichever CPU loop
	// first schedules this PCB will have locked k.mu just before the
	// context switch that starts this goroutine, the same way forkret
	// releases ptable.lock as the first thing a new process does.
	p.Context = k.plat.NewContext(func() {
		k.mu.Unlock()
		entry(p)
	})

	klog.WithFields(klog.Fields{"pid": p.Pid, "name": name}).Debugf("allocated process")
	return p, nil
}
