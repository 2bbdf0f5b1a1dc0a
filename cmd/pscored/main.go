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

// Command pscored boots the scheduling core and runs its per-CPU
// scheduler loops until interrupted, the teaching-kernel analogue of
// runsc's "boot" subcommand starting a sentry.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/ticklab/pscore/pkg/config"
	"github.com/ticklab/pscore/pkg/klog"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(new(bootCmd), "")
	subcommands.Register(new(procdumpCmd), "")

	flag.Parse()
	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}

// loadConfig reads the config file named by configPath, falling back to
// config.Default when it does not exist, and sets klog's debug level
// from it.
func loadConfig(configPath string) *config.Config {
	if configPath == "" {
		var err error
		configPath, err = config.DefaultPath()
		if err != nil {
			klog.Warningf("resolving default config path: %v", err)
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config %s: %v\n", configPath, err)
		os.Exit(1)
	}
	klog.SetDebug(cfg.Debug)
	return cfg
}
