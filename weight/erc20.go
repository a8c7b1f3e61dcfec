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

// ERC20Weight weighs voters by their delegated token votes at the snapshot
type ERC20Weight struct {
	base
	source         VotesSource
	weightPerToken uint64
}

func NewERC20Weight(
	source VotesSource,
	weightPerToken uint64,
	clk clock.Clock,
) *ERC20Weight {
	w := &ERC20Weight{
		source:         source,
		weightPerToken: weightPerToken,
	}
	w.base = base{clock: clk, weigh: w.weigh}
	return w
}

func (w *ERC20Weight) WeightPerToken() uint64 {
	return w.weightPerToken
}

// Vote data is ignored
func (w *ERC20Weight) weigh(
	voter common.Address,
	timestamp uint64,
	_ []byte,
) (uint64, []byte, error) {
	if w.source == nil {
		return 0, nil, ErrNoSource
	}
	votes, err := w.source.PastVotes(voter, timestamp)
	if err != nil {
		return 0, nil, fmt.Errorf("lookup past votes: %w", err)
	}
	ret, err := multiply(votes, w.weightPerToken)
	if err != nil {
		return 0, nil, err
	}
	return ret, nil, nil
}
