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

package models

import (
	"errors"

	"github.com/blinklabs-io/govern/database/types"
)

var ErrVotingDetailsNotFound = errors.New("proposal voting details not found")

// VotingDetails holds the voting window and tallies a strategy keeps for a proposal
type VotingDetails struct {
	ID               uint         `gorm:"primarykey"`
	Strategy         []byte       `gorm:"uniqueIndex:idx_voting_strategy_proposal,priority:1;size:20;not null"`
	ProposalID       uint32       `gorm:"uniqueIndex:idx_voting_strategy_proposal,priority:2;not null"`
	VotingStart      uint64       `gorm:"not null"`
	VotingEnd        uint64       `gorm:"index;not null"`
	VotingStartBlock uint64       `gorm:"not null"`
	YesVotes         types.Uint64 `gorm:"not null"`
	NoVotes          types.Uint64 `gorm:"not null"`
	AbstainVotes     types.Uint64 `gorm:"not null"`
}

func (VotingDetails) TableName() string {
	return "voting_details"
}

// Vote is a single cast vote, kept for dashboards
type Vote struct {
	ID          uint         `gorm:"primarykey"`
	Strategy    []byte       `gorm:"index:idx_vote_strategy_proposal,priority:1;size:20;not null"`
	ProposalID  uint32       `gorm:"index:idx_vote_strategy_proposal,priority:2;not null"`
	VotingStart uint64       `gorm:"not null"`
	Voter       []byte       `gorm:"index;size:20;not null"`
	VoteType    uint8        `gorm:"not null"` // 0=No, 1=Yes, 2=Abstain
	Weight      types.Uint64 `gorm:"not null"`
	Configs     string       // comma separated config indexes
	CastAt      uint64       `gorm:"not null"`
}

func (Vote) TableName() string {
	return "vote"
}
