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

// Package demo holds small scenario programs that drive pkg/syscalls
// the way a user-space program drives the trap surface it's translated
// from, for exercising and inspecting the scheduling core end to end.
//
// A forked child starts at the top of the same Go closure its parent
// did -- there is no call stack to duplicate the way real fork() does
// -- so every demo that forks checks syscalls.API.IsForkedChild first
// and branches on it, instead of branching on Fork's return value the
// way the C source does.
package demo

import (
	"github.com/ticklab/pscore/pkg/klog"
	"github.com/ticklab/pscore/pkg/kernel"
	"github.com/ticklab/pscore/pkg/syscalls"
)

// BigSqrEntry is bigsqr.c's main() translated: compute the largest
// perfect square <= n via calc_perfect_square and exit.
func BigSqrEntry(k *kernel.Kernel, n int) func(p *kernel.Proc) {
	return func(p *kernel.Proc) {
		api := syscalls.For(k, p)
		square := api.CalcPerfectSquare(n)
		klog.WithFields(klog.Fields{"pid": api.GetPid(), "n": n}).Infof("the biggest perfect square is %d", square)
		api.Exit()
	}
}

// DescendantWalkEntry is getdescendant.c's main() translated: fork
// once; the child reports its own descendant tree (empty, since it has
// none yet) and exits; the parent waits for the child and exits.
func DescendantWalkEntry(k *kernel.Kernel) func(p *kernel.Proc) {
	return func(p *kernel.Proc) {
		api := syscalls.For(k, p)

		if api.IsForkedChild() {
			rows := api.GetDescendant()
			klog.WithFields(klog.Fields{"pid": api.GetPid()}).Infof("descendants: %v", rows)
			api.Exit()
			return
		}

		if _, err := api.Fork(); err != nil {
			klog.Errorf("fork: %v", err)
			api.Exit()
			return
		}
		if _, err := api.Wait(); err != nil {
			klog.Errorf("wait: %v", err)
		}
		api.Exit()
	}
}
