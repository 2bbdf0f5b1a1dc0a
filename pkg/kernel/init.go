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

import "github.com/ticklab/pscore/pkg/kerr"

// Boot creates the root process (xv6's userinit): the one PCB with no
// parent, the reparenting target for every orphan, and the process
// Exit refuses to ever terminate. It must be called exactly once before
// any CPU's Run loop starts.
func (k *Kernel) Boot(name string, entry func(p *Proc)) (*Proc, error) {
	k.mu.Lock()
	if k.initproc != nil {
		k.mu.Unlock()
		return nil, kerr.Wrap(kerr.ErrNoFreeSlot, "boot: kernel already booted")
	}
	k.mu.Unlock()

	p, err := k.alloc(name, entry)
	if err != nil {
		return nil, err
	}
	as, err := k.plat.NewAddressSpace()
	if err != nil {
		return nil, kerr.Wrap(err, "boot")
	}
	p.AddrSpace = as
	p.Files = k.plat.NewFileTable()
	p.TrapFrame = k.plat.NewTrapFrame()

	k.mu.Lock()
	p.Parent = nil
	p.State = Runnable
	k.initproc = p
	k.mu.Unlock()

	return p, nil
}

// Spawn creates a fresh process as a child of parent running entry.
// Real xv6 builds new program images with fork() followed by exec();
// loading an executable image is out of scope here (spec.md §1
// Non-goals), so Spawn plays the combined role directly, the way a demo
// harness would bypass exec and hand the kernel a ready-made entry
// point for its child.
func (k *Kernel) Spawn(parent *Proc, name string, entry func(p *Proc)) (*Proc, error) {
	child, err := k.alloc(name, entry)
	if err != nil {
		return nil, err
	}

	as, err := k.plat.NewAddressSpace()
	if err != nil {
		k.mu.Lock()
		child.Stack.Release()
		k.pidIndex.Delete(&pidItem{pid: child.Pid})
		child.State = Unused
		child.Pid = 0
		k.mu.Unlock()
		return nil, kerr.Wrap(err, "spawn")
	}
	child.AddrSpace = as
	child.Files = k.plat.NewFileTable()
	child.TrapFrame = k.plat.NewTrapFrame()
	child.Parent = parent

	k.mu.Lock()
	child.State = Runnable
	k.mu.Unlock()
	return child, nil
}
