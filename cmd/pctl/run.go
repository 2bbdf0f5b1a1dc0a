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
	"os"
	"strconv"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ticklab/pscore/pkg/config"
	"github.com/ticklab/pscore/pkg/demo"
	"github.com/ticklab/pscore/pkg/kernel"
	"github.com/ticklab/pscore/pkg/klog"
	"github.com/ticklab/pscore/pkg/platform/sim"
)

func newRunCmd() *cobra.Command {
	var (
		scenario   string
		square     int
		ticks      int
		verbose    bool
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "run one scenario to completion and print the process table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(scenario, square, ticks, verbose, configPath)
		},
	}

	var flags *pflag.FlagSet = cmd.Flags()
	flags.StringVar(&scenario, "scenario", "bigsqr", "scenario to run: bigsqr, descendant-walk")
	flags.IntVar(&square, "n", 100, "input to the bigsqr scenario")
	flags.IntVar(&ticks, "ticks", 50, "ticks to run before giving up")
	flags.BoolVarP(&verbose, "verbose", "v", false, "dump the full PCB table via go-spew instead of a summary")
	flags.StringVar(&configPath, "config", "", "path to pscored.toml (default: XDG config dir)")

	return cmd
}

func runScenario(scenario string, square, ticks int, verbose bool, configPath string) error {
	if configPath == "" {
		if p, err := config.DefaultPath(); err == nil {
			configPath = p
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	klog.SetDebug(cfg.Debug)

	k := kernel.New(cfg, sim.New(cfg.TableSize))
	root, err := k.Boot("init", func(p *kernel.Proc) { <-make(chan struct{}) })
	if err != nil {
		return err
	}

	var entry func(p *kernel.Proc)
	switch scenario {
	case "bigsqr":
		entry = demo.BigSqrEntry(k, square)
	case "descendant-walk":
		entry = demo.DescendantWalkEntry(k)
	default:
		entry = demo.BigSqrEntry(k, square)
	}
	if _, err := k.Spawn(root, scenario, entry); err != nil {
		return err
	}

	cpuCtx, cancel := context.WithCancel(context.Background())
	cpu := k.NewCPU(0)
	done := make(chan struct{})
	go func() {
		cpu.Run(cpuCtx)
		close(done)
	}()

	for i := 0; i < ticks; i++ {
		k.Tick()
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done

	rows := k.Snapshot()
	if verbose {
		spew.Fdump(os.Stdout, rows)
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"pid", "name", "state", "queue", "priority", "ratios", "rank", "exec", "wait"})
	for _, r := range rows {
		table.Append([]string{
			strconv.Itoa(r.Pid),
			r.Name,
			r.State.String(),
			r.Queue.String(),
			strconv.Itoa(r.Priority),
			strconv.Itoa(r.PriorityRatio) + "/" + strconv.Itoa(r.ArrivalTimeRatio) + "/" + strconv.Itoa(r.ExecutedCycleRatio),
			strconv.FormatFloat(r.Rank, 'f', 2, 64),
			strconv.FormatInt(r.ExecutedCycle, 10),
			strconv.FormatInt(r.WaitingTime, 10),
		})
	}
	table.Render()
	return nil
}
