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

package event

import "github.com/blinklabs-io/govern/common"

const (
	ProposalCreatedEventType     EventType = "governor.proposal_created"
	ProposalExecutedEventType    EventType = "governor.proposal_executed"
	VoteCastEventType            EventType = "strategy.vote_cast"
	LateVoteAttemptedEventType   EventType = "strategy.late_vote_attempted"
	FreezeVoteCastEventType      EventType = "freeze.vote_cast"
	FrozenEventType              EventType = "freeze.frozen"
	UnfrozenEventType            EventType = "freeze.unfrozen"
	TransactionTimelockedType    EventType = "guard.transaction_timelocked"
	VetoVoteCastEventType        EventType = "veto.vote_cast"
	TransactionVetoedEventType   EventType = "veto.transaction_vetoed"
	ProposerAdapterChangedType   EventType = "governor.proposer_adapter_changed"
	AuthorizedFreezeVoterChanged EventType = "strategy.freeze_voter_changed"
)

type ProposalCreatedEvent struct {
	Governor        common.Address
	Strategy        common.Address
	Proposer        common.Address
	ProposerAdapter common.Address
	Metadata        string
	TxHashes        []common.Hash
	ProposalID      uint32
}

type ProposalExecutedEvent struct {
	Governor   common.Address
	ProposalID uint32
	// FirstIndex and Count describe the executed batch
	FirstIndex uint32
	Count      uint32
	Completed  bool
}

type VoteCastEvent struct {
	Strategy      common.Address
	Voter         common.Address
	ConfigIndexes []int
	Weight        uint64
	ProposalID    uint32
	VoteType      common.VoteType
}

type LateVoteAttemptedEvent struct {
	Strategy    common.Address
	Voter       common.Address
	VotingEnd   uint64
	AttemptedAt uint64
	ProposalID  uint32
}

type FreezeVoteCastEvent struct {
	FreezeVoting    common.Address
	Voter           common.Address
	Weight          uint64
	VoteCount       uint64
	ProposalCreated uint64
	Unfreeze        bool
}

type FrozenEvent struct {
	FreezeVoting common.Address
	FrozenAt     uint64
}

type UnfrozenEvent struct {
	FreezeVoting common.Address
	UnfrozenAt   uint64
	// Voted is false when the owner unfroze directly
	Voted bool
}

type TransactionTimelockedEvent struct {
	Guard        common.Address
	TxHash       common.Hash
	TimelockedAt uint64
}

type VetoVoteCastEvent struct {
	VetoVoting common.Address
	Voter      common.Address
	TxHash     common.Hash
	Weight     uint64
	VoteCount  uint64
	AlsoFreeze bool
}

type TransactionVetoedEvent struct {
	VetoVoting common.Address
	TxHash     common.Hash
	VetoedAt   uint64
}

type ProposerAdapterChangedEvent struct {
	Governor common.Address
	Adapter  common.Address
	Enabled  bool
}

type FreezeVoterChangedEvent struct {
	Strategy     common.Address
	FreezeVoting common.Address
	Authorized   bool
}
