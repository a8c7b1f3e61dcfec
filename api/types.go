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

package api

import (
	"github.com/blinklabs-io/govern/common"
	"github.com/blinklabs-io/govern/freeze"
	"github.com/blinklabs-io/govern/governor"
	"github.com/blinklabs-io/govern/strategy"
)

// ProposalInfo is a proposal with its computed state and tallies
type ProposalInfo struct {
	*governor.Proposal
	State governor.ProposalState `json:"state"`
	Votes strategy.ProposalVotes `json:"votes"`
}

type VotesResponse struct {
	ProposalID uint32                 `json:"proposalId"`
	Tallies    strategy.ProposalVotes `json:"tallies"`
	Votes      []strategy.Vote        `json:"votes"`
}

type ProposalListResponse struct {
	Proposals []ProposalInfo `json:"proposals"`
	Total     uint32         `json:"total"`
	Offset    int            `json:"offset"`
	Limit     int            `json:"limit"`
}

type FreezeResponse struct {
	FreezeVoting         common.Address `json:"freezeVoting"`
	FreezeVotesThreshold uint64         `json:"freezeVotesThreshold"`
	FreezeProposalPeriod uint64         `json:"freezeProposalPeriod"`
	freeze.Status
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}
