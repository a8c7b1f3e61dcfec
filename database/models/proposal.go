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

import "errors"

var ErrProposalNotFound = errors.New("proposal not found")

// Proposal is a governor proposal. The transaction hashes, strategy and
// periods are fixed at creation; only ExecutionCounter changes afterwards
type Proposal struct {
	ID               uint   `gorm:"primarykey"`
	Governor         []byte `gorm:"uniqueIndex:idx_proposal_governor_id,priority:1;size:20;not null"`
	ProposalID       uint32 `gorm:"uniqueIndex:idx_proposal_governor_id,priority:2;not null"`
	Strategy         []byte `gorm:"size:20;not null"`
	Proposer         []byte `gorm:"size:20;not null"`
	ProposerAdapter  []byte `gorm:"size:20;not null"`
	TxHashes         []byte `gorm:"not null"` // concatenated 32-byte hashes in execution order
	TimelockPeriod   uint64 `gorm:"not null"`
	ExecutionPeriod  uint64 `gorm:"not null"`
	ExecutionCounter uint32 `gorm:"not null"`
	Metadata         string
	SubmittedAt      uint64 `gorm:"index;not null"`
}

func (Proposal) TableName() string {
	return "proposal"
}

// TxHashCount returns the number of transaction hashes stored on the proposal
func (p *Proposal) TxHashCount() int {
	return len(p.TxHashes) / 32
}

// TxHash returns the stored transaction hash at the given index
func (p *Proposal) TxHash(idx int) []byte {
	return p.TxHashes[idx*32 : (idx+1)*32]
}
