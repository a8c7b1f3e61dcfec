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

// ERC721Weight weighs voters by the NFTs listed in the vote data. Each token
// counts once and must be owned by the voter at the snapshot
type ERC721Weight struct {
	base
	source         OwnershipSource
	weightPerToken uint64
}

func NewERC721Weight(
	source OwnershipSource,
	weightPerToken uint64,
	clk clock.Clock,
) *ERC721Weight {
	w := &ERC721Weight{
		source:         source,
		weightPerToken: weightPerToken,
	}
	w.base = base{clock: clk, weigh: w.weigh}
	return w
}

func (w *ERC721Weight) WeightPerToken() uint64 {
	return w.weightPerToken
}

func (w *ERC721Weight) weigh(
	voter common.Address,
	timestamp uint64,
	voteData []byte,
) (uint64, []byte, error) {
	if w.source == nil {
		return 0, nil, ErrNoSource
	}
	ids, err := common.DecodeTokenIDs(voteData)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrMalformedVoteData, err)
	}
	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return 0, nil, fmt.Errorf("%w: %d", ErrDuplicateTokenID, id)
		}
		seen[id] = struct{}{}
		owner, err := w.source.OwnerAt(id, timestamp)
		if err != nil {
			return 0, nil, fmt.Errorf("lookup owner of token %d: %w", id, err)
		}
		if owner != voter {
			return 0, nil, &TokenNotOwnedError{
				Voter:   voter,
				Owner:   owner,
				TokenID: id,
			}
		}
	}
	ret, err := multiply(uint64(len(ids)), w.weightPerToken)
	if err != nil {
		return 0, nil, err
	}
	return ret, common.EncodeTokenIDs(ids), nil
}
