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
	"context"
	"time"

	"github.com/ticklab/pscore/pkg/klog"
	"github.com/ticklab/pscore/pkg/platform"
)

// CPU is one per-CPU scheduler loop (spec.md §4.5), with its own
// round-robin cursor and current-process pointer.
type CPU struct {
	id       int
	k        *Kernel
	schedCtx platform.Context
	rrIndex  int
	cur      *Proc
}

// NewCPU creates a CPU bound to this kernel, not yet running.
func (k *Kernel) NewCPU(id int) *CPU {
	return &CPU{id: id, k: k, schedCtx: k.plat.NewSchedContext()}
}

// Current returns the process this CPU is currently running, or nil.
func (c *CPU) Current() *Proc { return c.cur }

// ID returns this CPU's index, for logging and error messages.
func (c *CPU) ID() int { return c.id }

// Run executes the scheduler loop of spec.md §4.5 until ctx is
// cancelled. Each iteration: try round-robin, then priority, then BJF,
// then FCFS; if one is selected, age the table, switch into it, and
// block until it hands control back; otherwise release the lock and
// idle briefly before retrying (our stand-in for "interrupts previously
// enabled will let new work arrive").
func (c *CPU) Run(ctx context.Context) error {
	k := c.k
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		k.mu.Lock()
		p := k.selectRoundRobin(c)
		if p == nil {
			c.rrIndex = 0
			p = k.selectPriority()
		}
		if p == nil {
			p = k.selectBJF()
		}
		if p == nil {
			p = k.selectFCFS()
		}
		if p == nil {
			k.mu.Unlock()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Millisecond):
			}
			continue
		}

		p.ExecutedCycle++
		k.agingPass(p)

		c.cur = p
		p.cpu = c
		k.plat.Install(p.AddrSpace)
		p.State = Running
		klog.WithFields(klog.Fields{"cpu": c.id, "pid": p.Pid}).Debugf("scheduled")

		k.plat.ContextSwitch(c.schedCtx, p.Context)

		k.plat.InstallKernel()
		c.cur = nil
		k.mu.Unlock()
	}
}

// sched is the internal handoff of spec.md §4.7: callers (Exit, Yield,
// Sleep) must already hold k.mu and must have already set p's new state
// (not Running). It performs the context switch to p's CPU's scheduler
// context; when it returns, p has been rescheduled and the caller still
// holds k.mu (mirroring "restores the intent on return").
func (k *Kernel) sched(p *Proc) {
	if p.State == Running {
		fatal("sched: pid %d still RUNNING", p.Pid)
	}
	if p.cpu == nil {
		fatal("sched: pid %d has no owning CPU", p.Pid)
	}
	k.plat.ContextSwitch(p.Context, p.cpu.schedCtx)
}

// Yield implements spec.md §4.7: give up the CPU for one scheduling
// round.
func (k *Kernel) Yield(p *Proc) {
	k.mu.Lock()
	p.State = Runnable
	k.sched(p)
	k.mu.Unlock()
}
