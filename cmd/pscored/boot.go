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

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/google/subcommands"
	"golang.org/x/sync/errgroup"

	"github.com/ticklab/pscore/pkg/config"
	"github.com/ticklab/pscore/pkg/demo"
	"github.com/ticklab/pscore/pkg/kernel"
	"github.com/ticklab/pscore/pkg/klog"
	"github.com/ticklab/pscore/pkg/platform/sim"
)

// bootCmd implements subcommands.Command for "boot": bring up a kernel,
// spawn the demo scenarios named on the command line (or a small
// default set), and run every CPU's scheduler loop until SIGINT/SIGTERM.
type bootCmd struct {
	configPath string
	cpus       int
	lockPath   string
	square     int
}

func (*bootCmd) Name() string     { return "boot" }
func (*bootCmd) Synopsis() string { return "boot the scheduling core and run its CPUs" }
func (*bootCmd) Usage() string {
	return "boot [flags] [scenario ...] - scenarios: bigsqr, descendant-walk\n"
}

func (b *bootCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&b.configPath, "config", "", "path to pscored.toml (default: XDG config dir)")
	f.IntVar(&b.cpus, "cpus", 1, "number of simulated CPU scheduler loops")
	f.StringVar(&b.lockPath, "lock", "", "singleton lock file path (default: $TMPDIR/pscored.lock)")
	f.IntVar(&b.square, "n", 100, "input to the bigsqr scenario")
}

func (b *bootCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	lockPath := b.lockPath
	if lockPath == "" {
		lockPath = filepath.Join(os.TempDir(), "pscored.lock")
	}
	fl := flock.New(lockPath)
	locked, err := fl.TryLock()
	if err != nil {
		klog.Errorf("acquiring singleton lock %s: %v", lockPath, err)
		return subcommands.ExitFailure
	}
	if !locked {
		klog.Errorf("another pscored already holds %s", lockPath)
		return subcommands.ExitFailure
	}
	defer fl.Unlock()

	cfg := loadConfig(b.configPath)
	k := kernel.New(cfg, sim.New(cfg.TableSize))

	root, err := k.Boot("init", func(p *kernel.Proc) {
		<-make(chan struct{}) // init never exits; it just waits to reparent orphans.
	})
	if err != nil {
		klog.Errorf("boot: %v", err)
		return subcommands.ExitFailure
	}

	scenarios := f.Args()
	if len(scenarios) == 0 {
		scenarios = []string{"bigsqr", "descendant-walk"}
	}
	for _, s := range scenarios {
		var entry func(p *kernel.Proc)
		switch s {
		case "bigsqr":
			entry = demo.BigSqrEntry(k, b.square)
		case "descendant-walk":
			entry = demo.DescendantWalkEntry(k)
		default:
			klog.Warningf("boot: unknown scenario %q, skipping", s)
			continue
		}
		if _, err := k.Spawn(root, s, entry); err != nil {
			klog.Errorf("boot: spawning %s: %v", s, err)
		}
	}

	runCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ticker := sim.NewTicker(cfg.TickHz, k.Tick)

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return ticker.Run(gctx) })
	for i := 0; i < b.cpus; i++ {
		cpu := k.NewCPU(i)
		g.Go(func() error { return runCPU(cpu, gctx) })
	}

	fmt.Fprintf(os.Stderr, "pscored: running %d CPU(s), Ctrl-C to stop\n", b.cpus)
	if err := g.Wait(); err != nil && runCtx.Err() == nil {
		klog.Errorf("boot: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// runCPU runs one CPU's scheduler loop, converting a panic on the loop's
// own goroutine into a logged error instead of letting it unwind past
// errgroup and take the whole process down with it -- the Go analogue
// of one core halting on panic() while the others are still told to
// stop. kernel.fatal calls made from Exit or sched run on the process's
// own goroutine (the sim platform's context goroutine), not this one,
// so they are not recovered here and end the whole program.
func runCPU(cpu *kernel.CPU, ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			klog.Errorf("cpu %d: panic: %v", cpu.ID(), r)
			err = fmt.Errorf("cpu %d: panic: %v", cpu.ID(), r)
		}
	}()
	return cpu.Run(ctx)
}
