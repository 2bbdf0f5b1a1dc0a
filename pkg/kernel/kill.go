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

// Kill implements spec.md §4.3: mark the PCB with the given pid killed,
// waking it if it is SLEEPING. It does not itself tear anything down;
// the target notices p.Killed the next time it checks (on return from
// Wait, or wherever else the caller's syscall surface checks it) and
// exits on its own.
func (k *Kernel) Kill(pid int) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	p := k.locate(pid)
	if p == nil || p.Pid != pid {
		return kerr.ErrNoSuchProcess
	}
	p.Killed = true
	if p.State == Sleeping {
		p.State = Runnable
	}
	return nil
}
