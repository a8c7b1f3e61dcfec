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

package strategy

import (
	"fmt"

	"github.com/blinklabs-io/govern/common"
)

var (
	ErrNoVotingConfigs       = common.NewError(common.KindValidation, "at least one voting config is required")
	ErrInvalidBasisNumerator = common.NewError(common.KindValidation, "basis numerator must be in [500000, 1000000)")
	ErrZeroVotingPeriod      = common.NewError(common.KindValidation, "voting period must be greater than zero")
	ErrVotingEndOverflow     = common.NewError(common.KindValidation, "voting end overflows")
	ErrZeroAddress           = common.NewError(common.KindValidation, "zero address")
	ErrInvalidVoteType       = common.NewError(common.KindValidation, "invalid vote type")
	ErrNoConfigsSelected     = common.NewError(common.KindValidation, "no voting configs selected")
	ErrInvalidConfigIndex    = common.NewError(common.KindValidation, "invalid voting config index")
	ErrDuplicateConfigIndex  = common.NewError(common.KindValidation, "voting config selected more than once")
	ErrTallyOverflow         = common.NewError(common.KindValidation, "vote tally overflows")
	ErrNotAdmin              = common.NewError(common.KindAuthorization, "caller is not the strategy admin")
	ErrNotOwner              = common.NewError(common.KindAuthorization, "caller is not the strategy owner")
	ErrNotFreezeVoter        = common.NewError(common.KindAuthorization, "caller is not an authorized freeze voter")
	ErrLightAccountsDisabled = common.NewError(common.KindAuthorization, "light accounts are not supported")
	ErrFreezeVoterExists     = common.NewError(common.KindState, "freeze voter already authorized")
	ErrFreezeVoterNotFound   = common.NewError(common.KindState, "freeze voter not authorized")
	ErrProposalNotFound      = common.NewError(common.KindState, "proposal not initialized on strategy")
	ErrProposalNotActive     = common.NewError(common.KindState, "proposal is not active")
	ErrNoVotingWeight        = common.NewError(common.KindIntegrity, "no voting weight")
)

type ProposalNotActiveError struct {
	ProposalID  uint32
	Now         uint64
	VotingStart uint64
	VotingEnd   uint64
}

func (e *ProposalNotActiveError) Error() string {
	return fmt.Sprintf(
		"proposal %d is not active: now %d, voting window [%d, %d]",
		e.ProposalID,
		e.Now,
		e.VotingStart,
		e.VotingEnd,
	)
}

func (e *ProposalNotActiveError) Is(target error) bool {
	//nolint:errorlint
	return target == ErrProposalNotActive
}

func (e *ProposalNotActiveError) Kind() common.ErrorKind {
	return common.KindState
}

// NoVotingWeightError reports the voting config that produced no weight.
// Err holds the underlying weight error, if any
type NoVotingWeightError struct {
	Err         error
	ConfigIndex int
}

func (e *NoVotingWeightError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"no voting weight for config %d: %s",
			e.ConfigIndex,
			e.Err,
		)
	}
	return fmt.Sprintf("no voting weight for config %d", e.ConfigIndex)
}

func (e *NoVotingWeightError) Unwrap() error {
	return e.Err
}

func (e *NoVotingWeightError) Is(target error) bool {
	//nolint:errorlint
	return target == ErrNoVotingWeight
}

func (e *NoVotingWeightError) Kind() common.ErrorKind {
	return common.KindIntegrity
}

type ConfigIndexError struct {
	Err         error
	ConfigIndex int
}

func (e *ConfigIndexError) Error() string {
	return fmt.Sprintf("%s: %d", e.Err, e.ConfigIndex)
}

func (e *ConfigIndexError) Unwrap() error {
	return e.Err
}
