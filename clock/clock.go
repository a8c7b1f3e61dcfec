// Copyright 2026 Blink Labs Software
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

// Package clock provides the monotonically increasing external clock that
// voting windows, timelocks and freeze periods are measured against.
package clock

import (
	"sync"
	"time"
)

// DefaultBlockInterval is the block interval used by the system clock when
// none is configured
const DefaultBlockInterval = 12 * time.Second

// Clock reports the current time in unix seconds and the current block number.
// Now must never decrease between calls
type Clock interface {
	Now() uint64
	BlockNumber() uint64
}

// SystemClock follows wall-clock time. Block numbers are derived from the
// time elapsed since the genesis time
type SystemClock struct {
	genesis       time.Time
	blockInterval time.Duration
	nowFunc       func() time.Time
	mu            sync.Mutex
	last          uint64
}

// NewSystemClock creates a wall-clock backed Clock
func NewSystemClock(genesis time.Time, blockInterval time.Duration) *SystemClock {
	if blockInterval <= 0 {
		blockInterval = DefaultBlockInterval
	}
	return &SystemClock{
		genesis:       genesis,
		blockInterval: blockInterval,
		nowFunc:       time.Now,
	}
}

func (c *SystemClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.nowFunc().Unix()
	if t < 0 {
		t = 0
	}
	now := uint64(t)
	// Wall clocks can step backwards
	if now < c.last {
		return c.last
	}
	c.last = now
	return now
}

func (c *SystemClock) BlockNumber() uint64 {
	elapsed := c.nowFunc().Sub(c.genesis)
	if elapsed <= 0 {
		return 0
	}
	return uint64(elapsed / c.blockInterval)
}

// ManualClock only moves when told to. It is used by tests and simulations
type ManualClock struct {
	mu    sync.Mutex
	now   uint64
	block uint64
}

// NewManualClock creates a clock at the given unix time and block 1
func NewManualClock(now uint64) *ManualClock {
	return &ManualClock{now: now, block: 1}
}

func (c *ManualClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) BlockNumber() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.block
}

// Advance moves the clock forward by the given number of seconds and mines
// one block
func (c *ManualClock) Advance(seconds uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += seconds
	c.block++
}

// Set moves the clock to the given time. Times in the past are ignored
func (c *ManualClock) Set(now uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if now > c.now {
		c.now = now
		c.block++
	}
}
