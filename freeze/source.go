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

package freeze

import (
	"math"
	"slices"

	"github.com/blinklabs-io/govern/common"
	"github.com/blinklabs-io/govern/database"
	"github.com/blinklabs-io/govern/database/types"
	"github.com/blinklabs-io/govern/strategy"
)

// VoteSource weighs and records freeze and veto votes. strategy.Strategy
// implements it for freeze voters it has authorized
type VoteSource interface {
	RecordFreezeVote(
		txn *database.Txn,
		freezeVoter common.Address,
		voter common.Address,
		contextID common.Hash,
		timestamp uint64,
		votes []strategy.ConfigVote,
	) (uint64, error)
}

// ConfigSource weighs votes with its own voting configs. It serves freeze
// voting that is not backed by a strategy, such as the owners of a parent
// multisig
type ConfigSource struct {
	configs []strategy.VotingConfig
}

func NewConfigSource(configs ...strategy.VotingConfig) (*ConfigSource, error) {
	if len(configs) == 0 {
		return nil, strategy.ErrNoVotingConfigs
	}
	for i, vc := range configs {
		if vc.Weight == nil || vc.Tracker == nil {
			return nil, &strategy.ConfigIndexError{Err: strategy.ErrInvalidConfigIndex, ConfigIndex: i}
		}
	}
	return &ConfigSource{configs: slices.Clone(configs)}, nil
}

func (c *ConfigSource) RecordFreezeVote(
	txn *database.Txn,
	_ common.Address,
	voter common.Address,
	contextID common.Hash,
	timestamp uint64,
	votes []strategy.ConfigVote,
) (uint64, error) {
	if txn == nil {
		return 0, types.ErrNilTxn
	}
	if err := strategy.ValidateSelection(c.configs, votes); err != nil {
		return 0, err
	}
	return strategy.RecordVotes(txn, c.configs, voter, contextID, timestamp, votes)
}

// snapshotBefore returns the weight snapshot timestamp for a vote opened at ts
func snapshotBefore(ts uint64) uint64 {
	if ts == 0 {
		return 0
	}
	return ts - 1
}

func addSaturating(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}
