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

// Package kernel implements the process scheduling and lifecycle core:
// a fixed-size process table guarded by one lock, fork/exit/wait/kill,
// sleep/wakeup rendezvous, and the four-discipline scheduler with aging.
// It mirrors the shape of the teacher repo's pkg/sentry/kernel: a single
// package, one file per concern, operating on a process-wide singleton.
package kernel

import (
	"sync"

	"github.com/google/btree"

	"github.com/ticklab/pscore/pkg/config"
	"github.com/ticklab/pscore/pkg/klog"
	"github.com/ticklab/pscore/pkg/platform"
)

// pidItem indexes Kernel.procs by pid for O(log n) lookup by kill and
// the pid-addressed mutators of spec.md §4.8, which the source locates
// "by pid" rather than by a specified scan order.
type pidItem struct {
	pid  int
	slot int
}

func (a *pidItem) Less(than btree.Item) bool {
	return a.pid < than.(*pidItem).pid
}

// Kernel is the process-wide singleton: the process table plus its one
// spinlock-equivalent (mu), modeled per spec.md §9 "Global mutable
// state" as a single owner type initialized once at boot.
type Kernel struct {
	cfg  *config.Config
	plat platform.Platform

	// mu is ptable.lock: it protects every field below, and every
	// scheduling-relevant field of every Proc in procs.
	mu       sync.Mutex
	procs    []Proc
	pidIndex *btree.BTree
	nextPid  int
	initproc *Proc

	// tickMu is tickslock; ticks is the monotonic tick counter spec.md
	// §6 documents as an external collaborator. tickChan is the
	// rendezvous point sys_sleep's callers block on.
	tickMu   sync.Mutex
	ticks    int64
	tickChan Chan
}

// New builds a Kernel with cfg.TableSize slots, not yet booted: no
// process exists until Boot is called.
func New(cfg *config.Config, plat platform.Platform) *Kernel {
	k := &Kernel{
		cfg:      cfg,
		plat:     plat,
		procs:    make([]Proc, cfg.TableSize),
		pidIndex: btree.New(32),
		nextPid:  1,
	}
	k.tickChan = &k.tickChan
	for i := range k.procs {
		k.procs[i].index = i
	}
	return k
}

// fatal logs and panics, the Go analogue of xv6's panic(): used only for
// the invariant violations spec.md §7 documents as non-recoverable (the
// root process exiting, sched() called without the lock held, etc).
func fatal(format string, args ...any) {
	klog.Errorf(format, args...)
	panic(klog.Fields{"fatal": true})
}

// locate returns the PCB with the given pid, or nil. Callers must hold
// k.mu.
func (k *Kernel) locate(pid int) *Proc {
	item := k.pidIndex.Get(&pidItem{pid: pid})
	if item == nil {
		return nil
	}
	slot := item.(*pidItem).slot
	return &k.procs[slot]
}

// TickChan returns the channel token sys_sleep callers wait on.
func (k *Kernel) TickChan() Chan {
	return k.tickChan
}

// Ticks returns the current tick count (sys_uptime, spec.md §6).
func (k *Kernel) Ticks() int64 {
	k.tickMu.Lock()
	defer k.tickMu.Unlock()
	return k.ticks
}

// Tick advances the tick counter by one and wakes anyone sleeping on the
// tick channel, standing in for the external timer-interrupt source of
// spec.md §6.
func (k *Kernel) Tick() {
	k.tickMu.Lock()
	k.ticks++
	k.tickMu.Unlock()
	k.Wakeup(k.tickChan)
}
