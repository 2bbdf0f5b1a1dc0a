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

// Package sim is a simulated backend for pkg/platform, suitable for
// running and testing the scheduling core without real virtual memory,
// trap frames, or hardware context switching -- the teaching-kernel
// equivalent of gVisor's ptrace/KVM platforms, but for a machine that
// doesn't exist. Address spaces are byte counters, kernel stacks are a
// small pooled resource (to give the documented "no free kernel stack"
// error somewhere to come from), and a process's "context" is a real
// goroutine synchronized with its CPU's scheduler loop over a pair of
// unbuffered channels -- a standard Go coroutine pattern standing in for
// the hand-written assembly swtch() primitive.
package sim

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/mohae/deepcopy"

	"github.com/ticklab/pscore/pkg/kerr"
	"github.com/ticklab/pscore/pkg/klog"
	"github.com/ticklab/pscore/pkg/platform"
)

// Sim implements platform.Platform entirely in memory.
type Sim struct {
	stacks chan struct{} // pooled kernel-stack tokens
}

// New returns a Sim whose kernel-stack pool holds capacity tokens. A
// capacity of 0 means unlimited (no simulated exhaustion).
func New(capacity int) *Sim {
	s := &Sim{}
	if capacity > 0 {
		s.stacks = make(chan struct{}, capacity)
		for i := 0; i < capacity; i++ {
			s.stacks <- struct{}{}
		}
	}
	return s
}

// AllocStack implements platform.Platform. A bounded pool models
// transient kernel-memory pressure: acquisition is retried briefly with
// exponential backoff before giving up with kerr.ErrNoFreeSlot's kernel
// stack analogue.
func (s *Sim) AllocStack() (platform.KernelStack, error) {
	if s.stacks == nil {
		return &kstack{pool: nil}, nil
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Millisecond
	b.MaxElapsedTime = 20 * time.Millisecond
	var tok struct{}
	err := backoff.Retry(func() error {
		select {
		case tok = <-s.stacks:
			return nil
		default:
			return kerr.ErrNoFreeSlot
		}
	}, b)
	if err != nil {
		klog.Warningf("kernel stack pool exhausted")
		return nil, kerr.Wrap(err, "alloc_kernel_stack")
	}
	_ = tok
	return &kstack{pool: s.stacks}, nil
}

type kstack struct {
	pool     chan struct{}
	released int32
}

func (k *kstack) Release() {
	if !atomic.CompareAndSwapInt32(&k.released, 0, 1) {
		return
	}
	if k.pool != nil {
		k.pool <- struct{}{}
	}
}

// addressSpace is a byte-counting stand-in for a page directory.
type addressSpace struct {
	mu   sync.Mutex
	size int
}

func (s *Sim) NewAddressSpace() (platform.AddressSpace, error) {
	return &addressSpace{}, nil
}

func (a *addressSpace) Size() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.size
}

func (a *addressSpace) Fork() (platform.AddressSpace, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return &addressSpace{size: a.size}, nil
}

func (a *addressSpace) Grow(from, to int) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if to < from {
		return a.size, kerr.Wrap(kerr.ErrVMDup, "grow_user_vm: to < from")
	}
	a.size += to - from
	return a.size, nil
}

func (a *addressSpace) Shrink(from, to int) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if to > from {
		return a.size, kerr.Wrap(kerr.ErrVMDup, "shrink_user_vm: to > from")
	}
	a.size -= from - to
	if a.size < 0 {
		a.size = 0
	}
	return a.size, nil
}

func (a *addressSpace) Release() {}

// trapFrame is a plain register-snapshot struct, duplicated on fork via
// deepcopy the way copy_user_vm duplicates the address space.
type trapFrame struct {
	Regs map[string]uintptr
}

func (s *Sim) NewTrapFrame() platform.TrapFrame {
	return &trapFrame{Regs: make(map[string]uintptr)}
}

func (t *trapFrame) Clone() platform.TrapFrame {
	return deepcopy.Copy(t).(*trapFrame)
}

// fileTable is a reference-counted, empty-by-default open-file array.
type fileTable struct {
	refs *int32
}

func (s *Sim) NewFileTable() platform.FileTable {
	var r int32 = 1
	return &fileTable{refs: &r}
}

func (f *fileTable) Dup() platform.FileTable {
	atomic.AddInt32(f.refs, 1)
	return &fileTable{refs: f.refs}
}

func (f *fileTable) Close() {
	atomic.AddInt32(f.refs, -1)
}

// simContext is a goroutine-backed coroutine. Exactly one of a CPU's
// scheduler context or one of its processes' contexts is ever "running"
// at a time; ContextSwitch is the rendezvous point between them.
type simContext struct {
	turn    chan struct{}
	entry   func()
	started bool
}

func (c *simContext) Reset() {}

// NewContext builds a context whose goroutine, once first switched into,
// runs entry to completion. entry must end by driving its process
// through Exit, whose final internal context switch parks this
// goroutine forever (see ContextSwitch) -- an entry that simply returns
// is a programming error in the caller, not a kernel condition, so it
// panics rather than returning an error.
func (s *Sim) NewContext(entry func()) platform.Context {
	return &simContext{turn: make(chan struct{}), entry: entry}
}

// NewSchedContext returns the context representing a CPU's own
// scheduler loop: it never runs on a spawned goroutine, because it IS
// whatever goroutine calls CPU.Run for that CPU.
func (s *Sim) NewSchedContext() platform.Context {
	return &simContext{turn: make(chan struct{}), started: true}
}

func (s *Sim) Install(platform.AddressSpace) {}
func (s *Sim) InstallKernel()                {}

func (s *Sim) ContextSwitch(from, to platform.Context) {
	t := to.(*simContext)
	if !t.started {
		t.started = true
		go func() {
			<-t.turn
			t.entry()
			panic("pscore/sim: process context returned without exiting")
		}()
	}
	t.turn <- struct{}{}
	if f, ok := from.(*simContext); ok && f != nil {
		<-f.turn
	}
}
