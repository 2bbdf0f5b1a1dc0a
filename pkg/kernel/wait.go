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

// Wait implements spec.md §4.3: block parent until a direct child
// becomes a ZOMBIE, then reap it (release its address space and kernel
// stack, clear its PCB, return its pid) and return. Returns
// kerr.ErrNoChildren if parent has no children at all, or
// kerr.ErrKilled if parent has been killed while waiting.
func (k *Kernel) Wait(parent *Proc) (int, error) {
	k.mu.Lock()
	for {
		haveKids := false
		for i := range k.procs {
			p := &k.procs[i]
			if p.Parent != parent {
				continue
			}
			haveKids = true
			if p.State != Zombie {
				continue
			}

			pid := p.Pid
			if p.Stack != nil {
				p.Stack.Release()
			}
			if p.AddrSpace != nil {
				p.AddrSpace.Release()
			}
			k.pidIndex.Delete(&pidItem{pid: pid})

			p.Pid = 0
			p.Parent = nil
			p.Name = ""
			p.Killed = false
			p.State = Unused
			p.AddrSpace = nil
			p.Stack = nil
			p.TrapFrame = nil
			p.Context = nil
			p.Files = nil
			p.entryFn = nil

			k.mu.Unlock()
			return pid, nil
		}

		if !haveKids {
			k.mu.Unlock()
			return 0, kerr.ErrNoChildren
		}
		if parent.Killed {
			k.mu.Unlock()
			return 0, kerr.ErrKilled
		}

		k.Sleep(parent, Chan(parent))
	}
}
