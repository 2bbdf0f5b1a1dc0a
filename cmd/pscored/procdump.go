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
	"strconv"
	"time"

	"github.com/google/subcommands"
	"github.com/olekukonko/tablewriter"

	"github.com/ticklab/pscore/pkg/demo"
	"github.com/ticklab/pscore/pkg/kernel"
	"github.com/ticklab/pscore/pkg/platform/sim"
)

// procdumpCmd implements subcommands.Command for "procdump": boot an
// in-process kernel, run the bigsqr and descendant-walk scenarios for
// -ticks ticks, and render the process table the way procdump renders it to the
// console -- there is no running daemon to attach to in this
// simulation, so this command brings up its own.
type procdumpCmd struct {
	configPath string
	ticks      int
}

func (*procdumpCmd) Name() string     { return "procdump" }
func (*procdumpCmd) Synopsis() string { return "print a process table snapshot" }
func (*procdumpCmd) Usage() string    { return "procdump [flags] - print a process listing\n" }

func (p *procdumpCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.configPath, "config", "", "path to pscored.toml (default: XDG config dir)")
	f.IntVar(&p.ticks, "ticks", 50, "number of ticks to run before dumping")
}

func (p *procdumpCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	cfg := loadConfig(p.configPath)
	k := kernel.New(cfg, sim.New(cfg.TableSize))

	root, err := k.Boot("init", func(pr *kernel.Proc) { <-make(chan struct{}) })
	if err != nil {
		fmt.Fprintf(os.Stderr, "procdump: %v\n", err)
		return subcommands.ExitFailure
	}
	if _, err := k.Spawn(root, "bigsqr", demo.BigSqrEntry(k, 9999)); err != nil {
		fmt.Fprintf(os.Stderr, "procdump: %v\n", err)
		return subcommands.ExitFailure
	}
	if _, err := k.Spawn(root, "descendant-walk", demo.DescendantWalkEntry(k)); err != nil {
		fmt.Fprintf(os.Stderr, "procdump: %v\n", err)
		return subcommands.ExitFailure
	}

	cpuCtx, cancel := context.WithCancel(ctx)
	cpu := k.NewCPU(0)
	done := make(chan struct{})
	go func() {
		cpu.Run(cpuCtx)
		close(done)
	}()

	for i := 0; i < p.ticks; i++ {
		k.Tick()
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done

	render(k.Snapshot())
	return subcommands.ExitSuccess
}

func render(rows []kernel.ProcSnapshot) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"pid", "name", "state", "queue", "priority", "rank", "exec", "wait"})
	for _, r := range rows {
		table.Append([]string{
			strconv.Itoa(r.Pid),
			r.Name,
			r.State.String(),
			r.Queue.String(),
			strconv.Itoa(r.Priority),
			strconv.FormatFloat(r.Rank, 'f', 2, 64),
			strconv.FormatInt(r.ExecutedCycle, 10),
			strconv.FormatInt(r.WaitingTime, 10),
		})
	}
	table.Render()
}
