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

var ErrTimelockedTransactionNotFound = errors.New("timelocked transaction not found")

// TimelockedTransaction records when a multisig transaction was timelocked
// by a guard
type TimelockedTransaction struct {
	ID           uint   `gorm:"primarykey"`
	Guard        []byte `gorm:"uniqueIndex:idx_timelock_guard_tx,priority:1;size:20;not null"`
	TxHash       []byte `gorm:"uniqueIndex:idx_timelock_guard_tx,priority:2;size:32;not null"`
	TimelockedAt uint64 `gorm:"not null"`
}

func (TimelockedTransaction) TableName() string {
	return "timelocked_transaction"
}

// Veto tracks veto votes against one timelocked transaction
type Veto struct {
	ID           uint         `gorm:"primarykey"`
	VetoVoting   []byte       `gorm:"uniqueIndex:idx_veto_voting_tx,priority:1;size:20;not null"`
	TxHash       []byte       `gorm:"uniqueIndex:idx_veto_voting_tx,priority:2;size:32;not null"`
	TimelockedAt uint64       `gorm:"not null"`
	VoteCount    types.Uint64 `gorm:"not null"`
	Vetoed       bool         `gorm:"not null"`
	VetoedAt     uint64
}

func (Veto) TableName() string {
	return "veto"
}
