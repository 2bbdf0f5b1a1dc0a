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

// Package config loads the kernel's compile-time-ish tunables (process
// table capacity, aging threshold, default priority, simulated tick
// rate) from an optional TOML file, the way runsc/config loads the
// sandbox's runtime configuration from flags and a spec file.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
)

// Config holds the documented contracts from spec.md §6 that are
// tunable: process-table capacity, aging threshold, default priority.
// The default queue is not configurable: alloc always assigns PRIORITY.
type Config struct {
	// TableSize is N, the fixed process-table capacity.
	TableSize int `toml:"table_size"`

	// AgingThreshold is the waiting-time tick count after which a
	// RUNNABLE PCB in a worse-than-round-robin queue is promoted.
	AgingThreshold int `toml:"aging_threshold"`

	// DefaultPriority is assigned to a PCB at alloc time.
	DefaultPriority int `toml:"default_priority"`

	// TickHz is the simulated tick rate used by the demo tick source.
	TickHz float64 `toml:"tick_hz"`

	// Debug enables debug-level logging of process allocation, fork, and
	// scheduling decisions.
	Debug bool `toml:"debug"`
}

// Default returns the documented contracts of spec.md §6 unmodified:
// N=64, aging threshold 10,000 ticks, default priority 10.
func Default() *Config {
	return &Config{
		TableSize:       64,
		AgingThreshold:  10000,
		DefaultPriority: 10,
		TickHz:          100,
		Debug:           false,
	}
}

// DefaultPath returns the XDG-conventional config file location,
// $XDG_CONFIG_HOME/pscore/pscored.toml.
func DefaultPath() (string, error) {
	return xdg.ConfigFile(filepath.Join("pscore", "pscored.toml"))
}

// Load reads path on top of Default; a missing file is not an error and
// yields the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
