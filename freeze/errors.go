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

import "github.com/blinklabs-io/govern/common"

var (
	ErrNotOwner                  = common.NewError(common.KindAuthorization, "caller is not the freeze owner")
	ErrAlreadyFrozen             = common.NewError(common.KindState, "already frozen")
	ErrNotFrozen                 = common.NewError(common.KindState, "not frozen")
	ErrFrozen                    = common.NewError(common.KindState, "frozen")
	ErrStaleTransaction          = common.NewError(common.KindState, "transaction was timelocked before the last freeze or veto")
	ErrUnfreezeVotingDisabled    = common.NewError(common.KindState, "unfreeze voting is not configured")
	ErrNotTimelocked             = common.NewError(common.KindState, "transaction is not timelocked")
	ErrAlreadyTimelocked         = common.NewError(common.KindState, "transaction is already timelocked")
	ErrTimelockNotElapsed        = common.NewError(common.KindState, "timelock period has not elapsed")
	ErrTransactionExpired        = common.NewError(common.KindState, "execution period has elapsed")
	ErrTransactionVetoed         = common.NewError(common.KindState, "transaction was vetoed")
	ErrAlreadyVetoed             = common.NewError(common.KindState, "transaction is already vetoed")
	ErrFreezeVotingNotConfigured = common.NewError(common.KindState, "no freeze voting is configured")
	ErrZeroThreshold             = common.NewError(common.KindValidation, "threshold must be non-zero")
	ErrZeroPeriod                = common.NewError(common.KindValidation, "period must be non-zero")
	ErrZeroAddress               = common.NewError(common.KindValidation, "zero address")
	ErrVoteCountOverflow         = common.NewError(common.KindValidation, "vote count overflow")
)
