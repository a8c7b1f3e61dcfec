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

import "github.com/blinklabs-io/govern/database/types"

// Freeze vote kinds
const (
	FreezeVoteKindFreeze   = 0
	FreezeVoteKindUnfreeze = 1
)

// FreezeState is the persisted state of a freeze voting component.
// LastFreezeTime is written when a freeze activates and is never cleared.
// Epoch counts completed freeze cycles
type FreezeState struct {
	ID                      uint         `gorm:"primarykey"`
	FreezeVoting            []byte       `gorm:"uniqueIndex;size:20;not null"`
	FreezeProposalCreated   uint64       `gorm:"not null"`
	FreezeProposalVoteCount types.Uint64 `gorm:"not null"`
	Frozen                  bool         `gorm:"not null"`
	LastFreezeTime          uint64       `gorm:"not null"`
	UnfreezeProposalCreated uint64       `gorm:"not null"`
	UnfreezeVoteCount       types.Uint64 `gorm:"not null"`
	LastUnfreezeTime        uint64       `gorm:"not null"`
	Epoch                   uint64       `gorm:"not null;default:0"`
}

func (FreezeState) TableName() string {
	return "freeze_state"
}

// FreezeVote is a single freeze or unfreeze vote
type FreezeVote struct {
	ID              uint         `gorm:"primarykey"`
	FreezeVoting    []byte       `gorm:"index;size:20;not null"`
	Kind            uint8        `gorm:"not null"`
	ProposalCreated uint64       `gorm:"not null"`
	Voter           []byte       `gorm:"size:20;not null"`
	Weight          types.Uint64 `gorm:"not null"`
	CastAt          uint64       `gorm:"not null"`
}

func (FreezeVote) TableName() string {
	return "freeze_vote"
}
