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

// Fork implements spec.md §4.2: clone the caller into a new EMBRYO via
// alloc, then outside the lock duplicate the address space, trap frame,
// and open files, before flipping the child to RUNNABLE under the lock.
func (k *Kernel) Fork(parent *Proc) (*Proc, error) {
	child, err := k.alloc(parent.Name, parent.entryFn)
	if err != nil {
		return nil, err
	}
	child.ForkedChild = true

	if parent.AddrSpace != nil {
		as, err := parent.AddrSpace.Fork()
		if err != nil {
			k.mu.Lock()
			child.Stack.Release()
			k.pidIndex.Delete(&pidItem{pid: child.Pid})
			child.State = Unused
			child.Pid = 0
			k.mu.Unlock()
			klog.Warningf("fork: address space duplication failed for parent pid=%d: %v", parent.Pid, err)
			return nil, kerr.Wrap(err, "fork")
		}
		child.AddrSpace = as
	}
	child.MemSize = parent.MemSize
	child.Parent = parent

	if parent.TrapFrame != nil {
		child.TrapFrame = parent.TrapFrame.Clone()
	}
	if parent.Files != nil {
		child.Files = parent.Files.Dup()
	}

	k.mu.Lock()
	child.State = Runnable
	k.mu.Unlock()

	klog.WithFields(klog.Fields{"parent": parent.Pid, "child": child.Pid}).Debugf("forked")
	return child, nil
}
