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

package database

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/govern/database/models"
	"gorm.io/gorm"
)

// GetTimelockedTransaction returns the timelock record a guard keeps for a
// transaction hash
func (d *Database) GetTimelockedTransaction(
	guard []byte,
	txHash []byte,
	txn *Txn,
) (*models.TimelockedTransaction, error) {
	var ret models.TimelockedTransaction
	result := d.metadataDB(txn).
		Where("guard = ? AND tx_hash = ?", guard, txHash).
		First(&ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, models.ErrTimelockedTransactionNotFound
		}
		return nil, result.Error
	}
	return &ret, nil
}

// CreateTimelockedTransaction stores a new timelock record
func (d *Database) CreateTimelockedTransaction(
	rec *models.TimelockedTransaction,
	txn *Txn,
) error {
	return d.withTxn(txn, func(txn *Txn) error {
		if result := txn.metadata.Create(rec); result.Error != nil {
			return fmt.Errorf(
				"failed to timelock transaction: %w",
				result.Error,
			)
		}
		return nil
	})
}

// GetVeto returns the veto record for a transaction hash. A zero record with
// no ID is returned when nothing was stored yet
func (d *Database) GetVeto(
	vetoVoting []byte,
	txHash []byte,
	txn *Txn,
) (*models.Veto, error) {
	var ret models.Veto
	result := d.metadataDB(txn).
		Where("veto_voting = ? AND tx_hash = ?", vetoVoting, txHash).
		First(&ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return &models.Veto{VetoVoting: vetoVoting, TxHash: txHash}, nil
		}
		return nil, result.Error
	}
	return &ret, nil
}

// SaveVeto creates or updates a veto record
func (d *Database) SaveVeto(veto *models.Veto, txn *Txn) error {
	return d.withTxn(txn, func(txn *Txn) error {
		if result := txn.metadata.Save(veto); result.Error != nil {
			return fmt.Errorf("failed to save veto: %w", result.Error)
		}
		return nil
	})
}

// LastVetoTime returns the most recent time a transaction was vetoed by the
// given veto voting component, or zero
func (d *Database) LastVetoTime(vetoVoting []byte, txn *Txn) (uint64, error) {
	var ret uint64
	result := d.metadataDB(txn).
		Model(&models.Veto{}).
		Where("veto_voting = ? AND vetoed = ?", vetoVoting, true).
		Select("COALESCE(MAX(vetoed_at), 0)").
		Scan(&ret)
	if result.Error != nil {
		return 0, result.Error
	}
	return ret, nil
}
