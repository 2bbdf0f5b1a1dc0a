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

// Package kerr defines the sentinel operation errors a process scheduling
// core can return to a syscall caller, as opposed to the fatal invariant
// violations that halt the kernel outright (see kernel.fatal).
package kerr

import "github.com/pkg/errors"

// Sentinel operation errors. Callers compare with errors.Is; call sites
// that need to annotate one with extra context use errors.Wrap so the
// sentinel survives in the chain.
var (
	// ErrNoFreeSlot is returned by alloc when the process table is full.
	ErrNoFreeSlot = errors.New("no free process slot")

	// ErrNoChildren is returned by wait when the caller has no children,
	// living or dead.
	ErrNoChildren = errors.New("no children")

	// ErrKilled is returned by wait when the caller was killed while
	// blocked waiting for a child.
	ErrKilled = errors.New("killed while waiting")

	// ErrNoSuchProcess is returned by kill and the pid-addressed
	// mutators when no PCB holds the given pid.
	ErrNoSuchProcess = errors.New("no such process")

	// ErrVMDup is returned by the simulated address space's Grow and
	// Shrink on an inverted range, and by sbrk when the caller has no
	// address space. Fork reports a failed address-space duplication
	// with the collaborator's own error, not with ErrVMDup.
	ErrVMDup = errors.New("failed to duplicate address space")
)

// Wrap annotates err with msg, preserving it for errors.Is/errors.As.
func Wrap(err error, msg string) error {
	return errors.Wrap(err, msg)
}
