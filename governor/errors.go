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

package governor

import (
	"fmt"

	"github.com/blinklabs-io/govern/common"
)

var (
	ErrNotOwner                = common.NewError(common.KindAuthorization, "caller is not the governor owner")
	ErrInvalidProposer         = common.NewError(common.KindAuthorization, "proposer is not eligible")
	ErrInvalidProposerAdapter  = common.NewError(common.KindValidation, "proposer adapter is not enabled")
	ErrZeroAddress             = common.NewError(common.KindValidation, "zero address")
	ErrNoTransactions          = common.NewError(common.KindValidation, "no transactions")
	ErrTooManyTransactions     = common.NewError(common.KindValidation, "more transactions than remain to execute")
	ErrTxHashMismatch          = common.NewError(common.KindValidation, "transaction hash mismatch")
	ErrProposalNotFound        = common.NewError(common.KindState, "proposal not found")
	ErrProposalNotExecutable   = common.NewError(common.KindState, "proposal is not executable")
	ErrAdapterAlreadyEnabled   = common.NewError(common.KindState, "proposer adapter already enabled")
	ErrTxFailed                = common.NewError(common.KindIntegrity, "transaction execution failed")
	ErrUnknownProposalStrategy = common.NewError(common.KindIntegrity, "proposal strategy is not registered")
)

// ProposalStateError reports an operation that is invalid in the proposal's
// current state
type ProposalStateError struct {
	Err        error
	ProposalID uint32
	State      ProposalState
}

func (e *ProposalStateError) Error() string {
	return fmt.Sprintf(
		"%s: proposal %d is %s",
		e.Err,
		e.ProposalID,
		e.State,
	)
}

func (e *ProposalStateError) Unwrap() error {
	return e.Err
}

type TxHashMismatchError struct {
	ProposalID uint32
	Index      uint32
	Expected   common.Hash
	Actual     common.Hash
}

func (e *TxHashMismatchError) Error() string {
	return fmt.Sprintf(
		"transaction hash mismatch: proposal %d index %d: expected %s, got %s",
		e.ProposalID,
		e.Index,
		e.Expected,
		e.Actual,
	)
}

func (e *TxHashMismatchError) Is(target error) bool {
	//nolint:errorlint
	return target == ErrTxHashMismatch
}

func (e *TxHashMismatchError) Kind() common.ErrorKind {
	return common.KindValidation
}

// TxFailedError reports the proposal transaction whose execution failed.
// Index is the position in the proposal, not in the batch
type TxFailedError struct {
	Err        error
	ProposalID uint32
	Index      uint32
}

func (e *TxFailedError) Error() string {
	return fmt.Sprintf(
		"transaction execution failed: proposal %d index %d: %s",
		e.ProposalID,
		e.Index,
		e.Err,
	)
}

func (e *TxFailedError) Unwrap() error {
	return e.Err
}

func (e *TxFailedError) Is(target error) bool {
	//nolint:errorlint
	return target == ErrTxFailed
}

func (e *TxFailedError) Kind() common.ErrorKind {
	return common.KindIntegrity
}
