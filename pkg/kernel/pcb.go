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
	"fmt"

	"github.com/ticklab/pscore/pkg/platform"
)

// State is a PCB's lifecycle state, spec.md §3.1.
type State int

const (
	Unused State = iota
	Embryo
	Sleeping
	Runnable
	Running
	Zombie
)

func (s State) String() string {
	switch s {
	case Unused:
		return "UNUSED"
	case Embryo:
		return "EMBRYO"
	case Sleeping:
		return "SLEEPING"
	case Runnable:
		return "RUNNABLE"
	case Running:
		return "RUNNING"
	case Zombie:
		return "ZOMBIE"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Queue is one of the four scheduler disciplines, numerically ordered
// 1..4, lower numbers preferred -- spec.md §3.1 and the GLOSSARY.
type Queue int

const (
	RoundRobin Queue = iota + 1
	Priority
	BJF
	FCFS
)

func (q Queue) String() string {
	switch q {
	case RoundRobin:
		return "ROUND_ROBIN"
	case Priority:
		return "PRIORITY"
	case BJF:
		return "BJF"
	case FCFS:
		return "FCFS"
	default:
		return "-"
	}
}

// Chan is the opaque wait-channel token of spec.md §3.1: nil means "not
// sleeping", any other comparable value identifies a rendezvous point.
// Callers conventionally pass a *Proc (to wait on a specific process) or
// a package-level sentinel (e.g. the kernel's tick channel).
type Chan any

// maxNameLen bounds Proc.Name, spec.md §3.1 "bounded <= 16 bytes".
const maxNameLen = 16

// Proc is one process control block. Every field the scheduling core
// reads or writes for scheduling decisions (State, WaitChan, Pid,
// Parent, Killed, SchedQueue, the BJF ratios, Priority, WaitingTime,
// ExecutedCycle) is protected by the owning Kernel's single lock;
// see spec.md §3.2-3.3.
type Proc struct {
	index int // slot in Kernel.procs; fixed for the PCB's lifetime.

	Pid    int
	State  State
	Parent *Proc
	Name   string
	Killed bool

	// ForkedChild is true for a PCB created by Fork, as opposed to one
	// created directly by Boot or Spawn. A forked child's entry closure
	// is the same Go function value as its parent's (see Fork), since
	// there is no real call stack to duplicate; a process body that
	// forks checks this at its very top to tell "I am continuing after
	// my own Fork call" apart from "I am the child that call produced."
	ForkedChild bool

	WaitChan Chan

	CTime         int64
	ArrivalTime   int64
	ExecutedCycle int64
	WaitingTime   int64

	Priority   int
	SchedQueue Queue

	PriorityRatio      int
	ArrivalTimeRatio   int
	ExecutedCycleRatio int

	// Opaque collaborator handles, spec.md §3.1. The scheduling core
	// never interprets these; it only propagates or releases them
	// through the platform.Platform interface.
	AddrSpace platform.AddressSpace
	MemSize   int
	Stack     platform.KernelStack
	TrapFrame platform.TrapFrame
	Context   platform.Context
	Files     platform.FileTable

	// entryFn is the body this PCB's Context runs once scheduled. Fork
	// reuses the parent's entryFn for the child, since forking resumes
	// execution of the same code path in both processes.
	entryFn func(p *Proc)

	// cpu is the CPU currently running this PCB, set by the scheduler
	// loop just before the context switch into it. sched uses it to
	// find the scheduler context to switch back to; it is meaningless
	// for a PCB that has never been scheduled.
	cpu *CPU
}

// bjfRank computes the BJF selector's rank (lower preferred), spec.md §4.4.
// Scaled by 10 per spec.md §9 "reformulate rank in fixed-point" would
// avoid floating point in real kernel context; this simulation runs in
// ordinary userspace Go, so the formula is used as specified.
func (p *Proc) bjfRank() float64 {
	return (1.0/float64(p.Priority))*float64(p.PriorityRatio) +
		float64(p.ArrivalTime)*float64(p.ArrivalTimeRatio) +
		float64(p.ExecutedCycle)*0.1*float64(p.ExecutedCycleRatio)
}
