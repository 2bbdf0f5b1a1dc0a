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
	"sort"

	"github.com/ticklab/pscore/pkg/kerr"
)

// DescendantEntry is one row of a get_descendant walk, spec.md §4.8.
type DescendantEntry struct {
	ParentPid  int
	ChildPid   int
	ChildCTime int64
}

// Descendants walks the process tree rooted at pid depth-first,
// reporting every descendant along with its own parent's pid so callers
// can reconstruct the tree. At each level, children are reported newest
// first (by ctime), matching the source's bubble sort.
//
// Unlike the source, which dereferences p->parent->pid unconditionally
// and can fault on a PCB whose parent pointer is stale garbage, a PCB
// here only has a non-nil Parent while it denotes a live process (Fork
// and Spawn set it, Wait's reaper clears it to nil); UNUSED and EMBRYO slots with
// no parent are simply skipped rather than treated as descendants of
// pid 0.
func (k *Kernel) Descendants(pid int) []DescendantEntry {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.descendantsLocked(pid)
}

func (k *Kernel) descendantsLocked(pid int) []DescendantEntry {
	var kids []DescendantEntry
	for i := range k.procs {
		p := &k.procs[i]
		if p.Pid == 0 || p.Parent == nil {
			continue
		}
		if p.Parent.Pid == pid {
			kids = append(kids, DescendantEntry{ParentPid: pid, ChildPid: p.Pid, ChildCTime: p.CTime})
		}
	}
	sort.Slice(kids, func(i, j int) bool { return kids[i].ChildCTime > kids[j].ChildCTime })

	out := append([]DescendantEntry(nil), kids...)
	for _, kid := range kids {
		out = append(out, k.descendantsLocked(kid.ChildPid)...)
	}
	return out
}

// AncestorEntry is one row of a get_ancestors walk, spec.md §4.8.
type AncestorEntry struct {
	Pid         int
	ParentPid   int
	ParentCTime int64
}

// Ancestors walks the parent chain from pid up to (but not including)
// the root process, stopping the moment it finds a PCB with no parent.
func (k *Kernel) Ancestors(pid int) []AncestorEntry {
	k.mu.Lock()
	defer k.mu.Unlock()

	var out []AncestorEntry
	for {
		p := k.locate(pid)
		if p == nil || p.Pid != pid || p.Parent == nil {
			return out
		}
		out = append(out, AncestorEntry{Pid: pid, ParentPid: p.Parent.Pid, ParentCTime: p.Parent.CTime})
		pid = p.Parent.Pid
	}
}

// CreationTime returns the pid's ctime (get_creation_time, spec.md §4.8).
func (k *Kernel) CreationTime(pid int) (int64, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	p := k.locate(pid)
	if p == nil || p.Pid != pid {
		return 0, kerr.ErrNoSuchProcess
	}
	return p.CTime, nil
}

// ChangeQueue reassigns a PCB's scheduler discipline (change_queue,
// spec.md §4.8).
func (k *Kernel) ChangeQueue(pid int, q Queue) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	p := k.locate(pid)
	if p == nil || p.Pid != pid {
		return kerr.ErrNoSuchProcess
	}
	p.SchedQueue = q
	return nil
}

// SetPriority sets a PCB's PRIORITY-discipline priority (set_priority,
// spec.md §4.8).
func (k *Kernel) SetPriority(pid, priority int) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	p := k.locate(pid)
	if p == nil || p.Pid != pid {
		return kerr.ErrNoSuchProcess
	}
	p.Priority = priority
	return nil
}

// SetRatioProcess sets a PCB's three BJF weighting ratios
// (set_ratio_process, spec.md §4.8).
func (k *Kernel) SetRatioProcess(pid, priorityRatio, arrivalTimeRatio, executedCycleRatio int) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	p := k.locate(pid)
	if p == nil || p.Pid != pid {
		return kerr.ErrNoSuchProcess
	}
	p.PriorityRatio = priorityRatio
	p.ArrivalTimeRatio = arrivalTimeRatio
	p.ExecutedCycleRatio = executedCycleRatio
	return nil
}

// ProcSnapshot is one row of print_processes_details / procdump,
// spec.md §4.8.
type ProcSnapshot struct {
	Pid                int
	Name               string
	State              State
	Queue              Queue
	Priority           int
	PriorityRatio      int
	ArrivalTimeRatio   int
	ExecutedCycleRatio int
	Rank               float64
	ExecutedCycle      int64
	WaitingTime        int64
}

// Snapshot renders print_processes_details / procdump's table, spec.md
// §4.8 and §9: deliberately taken without k.mu, the same tradeoff the
// source makes ("No lock to avoid wedging a stuck machine further") --
// a torn read under concurrent mutation is possible and accepted for a
// debugging-only view.
func (k *Kernel) Snapshot() []ProcSnapshot {
	var out []ProcSnapshot
	for i := range k.procs {
		p := &k.procs[i]
		if p.Pid == 0 {
			continue
		}
		out = append(out, ProcSnapshot{
			Pid:                p.Pid,
			Name:               p.Name,
			State:              p.State,
			Queue:              p.SchedQueue,
			Priority:           p.Priority,
			PriorityRatio:      p.PriorityRatio,
			ArrivalTimeRatio:   p.ArrivalTimeRatio,
			ExecutedCycleRatio: p.ExecutedCycleRatio,
			Rank:               p.bjfRank(),
			ExecutedCycle:      p.ExecutedCycle,
			WaitingTime:        p.WaitingTime,
		})
	}
	return out
}
