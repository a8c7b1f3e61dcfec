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

package weight

import (
	"fmt"

	"github.com/blinklabs-io/govern/clock"
	"github.com/blinklabs-io/govern/common"
)

// AllowlistWeight gives every member the same fixed weight
type AllowlistWeight struct {
	base
	source          MembershipSource
	weightPerMember uint64
}

func NewAllowlistWeight(
	source MembershipSource,
	weightPerMember uint64,
	clk clock.Clock,
) *AllowlistWeight {
	w := &AllowlistWeight{
		source:          source,
		weightPerMember: weightPerMember,
	}
	w.base = base{clock: clk, weigh: w.weigh}
	return w
}

func (w *AllowlistWeight) weigh(
	voter common.Address,
	timestamp uint64,
	_ []byte,
) (uint64, []byte, error) {
	if w.source == nil {
		return 0, nil, ErrNoSource
	}
	member, err := w.source.IsMember(voter, timestamp)
	if err != nil {
		return 0, nil, fmt.Errorf("lookup membership: %w", err)
	}
	if !member {
		return 0, nil, nil
	}
	return w.weightPerMember, nil, nil
}
