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

package sim

import (
	"context"

	"golang.org/x/time/rate"
)

// Ticker drives a simulated timer-interrupt source: it calls onTick once
// per allowed event from a rate.Limiter, standing in for spec.md §6's
// hardware tick counter advanced by real timer interrupts.
type Ticker struct {
	limiter *rate.Limiter
	onTick  func()
}

// NewTicker builds a Ticker firing onTick at hz ticks per second.
func NewTicker(hz float64, onTick func()) *Ticker {
	return &Ticker{limiter: rate.NewLimiter(rate.Limit(hz), 1), onTick: onTick}
}

// Run blocks, firing ticks until ctx is done.
func (t *Ticker) Run(ctx context.Context) error {
	for {
		if err := t.limiter.Wait(ctx); err != nil {
			return err
		}
		t.onTick()
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}
