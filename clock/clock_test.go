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

package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualClock(t *testing.T) {
	c := NewManualClock(1000)
	assert.Equal(t, uint64(1000), c.Now())
	assert.Equal(t, uint64(1), c.BlockNumber())
	c.Advance(50)
	assert.Equal(t, uint64(1050), c.Now())
	assert.Equal(t, uint64(2), c.BlockNumber())
	// Never moves backwards
	c.Set(900)
	assert.Equal(t, uint64(1050), c.Now())
	c.Set(2000)
	assert.Equal(t, uint64(2000), c.Now())
	assert.Equal(t, uint64(3), c.BlockNumber())
}

func TestSystemClockMonotonic(t *testing.T) {
	genesis := time.Unix(1_000_000, 0)
	c := NewSystemClock(genesis, 10*time.Second)
	current := time.Unix(1_000_100, 0)
	c.nowFunc = func() time.Time { return current }
	assert.Equal(t, uint64(1_000_100), c.Now())
	assert.Equal(t, uint64(10), c.BlockNumber())
	current = time.Unix(1_000_050, 0)
	assert.Equal(t, uint64(1_000_100), c.Now())
}
