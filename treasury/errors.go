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

package treasury

import (
	"fmt"

	"github.com/blinklabs-io/govern/common"
)

var (
	ErrDelegateCallDisabled = common.NewError(common.KindValidation, "delegate calls are disabled")
	ErrUnknownOperation     = common.NewError(common.KindValidation, "unknown operation")
	ErrInsufficientBalance  = common.NewError(common.KindState, "insufficient vault balance")
	ErrNoCallHandler        = common.NewError(common.KindValidation, "no call handler for target")
	ErrBalanceOverflow      = common.NewError(common.KindValidation, "balance overflow")
	ErrHandlerExists        = common.NewError(common.KindState, "call handler already registered")
)

// ExecutionError reports the transaction of a batch that failed
type ExecutionError struct {
	Err   error
	To    common.Address
	Index int
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("transaction %d to %s: %s", e.Index, e.To, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// TxIndex returns the position of the failed transaction within its batch
func (e *ExecutionError) TxIndex() int {
	return e.Index
}
