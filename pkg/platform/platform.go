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

// Package platform declares the collaborator interfaces spec.md §6 lists
// as external to the scheduling core: virtual memory, kernel stacks,
// context switching, and open-file duplication. The core never imports a
// concrete implementation directly; it is handed a Platform at boot, the
// same shape as gVisor's pkg/sentry/platform.Platform abstracting over
// ptrace/KVM backends.
package platform

// AddressSpace is the opaque "page directory" handle a PCB owns. The
// scheduling core never interprets it; it only forks, grows, shrinks,
// and releases it through this interface.
type AddressSpace interface {
	// Size returns the current mapped size in bytes.
	Size() int

	// Fork duplicates this address space for a child process (the
	// copy_user_vm collaborator of spec §4.2).
	Fork() (AddressSpace, error)

	// Grow extends the mapped region from..to, returning the new size.
	Grow(from, to int) (int, error)

	// Shrink releases the mapped region from..to, returning the new size.
	Shrink(from, to int) (int, error)

	// Release frees all resources. Must be called exactly once, by the
	// wait() that reaps the owning PCB (spec invariant 5).
	Release()
}

// KernelStack is the opaque kernel-stack region a PCB owns from alloc
// until it is reaped by wait.
type KernelStack interface {
	Release()
}

// Context is the opaque callee-saved register set switched by
// ContextSwitch. The core treats it as a token; only the Platform
// interprets it.
type Context interface {
	// Reset clears any saved state. The kernel does not call it when a
	// PCB is reaped: Wait drops the reaped PCB's context, and alloc
	// builds a new one for the reused slot.
	Reset()
}

// TrapFrame is the opaque per-syscall register snapshot copied on fork
// and referenced by the (external) trap-return path.
type TrapFrame interface {
	// Clone duplicates the trap frame for a forked child.
	Clone() TrapFrame
}

// FileTable is the opaque open-file-descriptor array a PCB owns,
// reference-counted across fork/exit by the external file subsystem.
type FileTable interface {
	Dup() FileTable
	Close()
}

// Platform is the full set of collaborators the lifecycle manager and
// scheduler loop consume, per spec.md §6 "Consumed from collaborators".
type Platform interface {
	// AllocStack allocates a new kernel stack, or an error if the
	// backing allocator is exhausted (spec §7 "no kernel stack").
	AllocStack() (KernelStack, error)

	// NewAddressSpace sets up a fresh page directory for a brand new
	// process (the root process or a from-scratch exec target).
	NewAddressSpace() (AddressSpace, error)

	// NewContext allocates a context for a freshly alloc'd PCB. entry is
	// the body the PCB runs the first time it is switched into; it must
	// drive the process to Exit and never return.
	NewContext(entry func()) Context

	// NewSchedContext returns the context representing a CPU's own
	// scheduler loop, the "from"/"to" token ContextSwitch uses to
	// suspend and resume that loop around running a process.
	NewSchedContext() Context

	// NewTrapFrame allocates a zeroed trap frame for a freshly alloc'd
	// PCB.
	NewTrapFrame() TrapFrame

	// NewFileTable allocates an empty open-file table.
	NewFileTable() FileTable

	// Install switches the MMU to the given address space. Called by
	// the scheduler loop immediately before running a selected PCB.
	Install(AddressSpace)

	// InstallKernel switches back to the kernel's own address space.
	// Called by the scheduler loop when a process returns control.
	InstallKernel()

	// ContextSwitch transfers control from the caller's context to to,
	// returning once to transfers control back via another
	// ContextSwitch call. from may be nil when switching out of the
	// scheduler's own context for the first time on a CPU.
	ContextSwitch(from, to Context)
}
