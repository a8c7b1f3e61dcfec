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

// GetFreezeState returns the persisted state of a freeze voting component.
// A zero state with no ID is returned when nothing was stored yet
func (d *Database) GetFreezeState(
	freezeVoting []byte,
	txn *Txn,
) (*models.FreezeState, error) {
	var ret models.FreezeState
	result := d.metadataDB(txn).
		Where("freeze_voting = ?", freezeVoting).
		First(&ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return &models.FreezeState{FreezeVoting: freezeVoting}, nil
		}
		return nil, result.Error
	}
	return &ret, nil
}

// SaveFreezeState creates or updates a freeze state record
func (d *Database) SaveFreezeState(state *models.FreezeState, txn *Txn) error {
	return d.withTxn(txn, func(txn *Txn) error {
		if result := txn.metadata.Save(state); result.Error != nil {
			return fmt.Errorf("failed to save freeze state: %w", result.Error)
		}
		return nil
	})
}

// CreateFreezeVote stores a freeze or unfreeze vote
func (d *Database) CreateFreezeVote(vote *models.FreezeVote, txn *Txn) error {
	return d.withTxn(txn, func(txn *Txn) error {
		if result := txn.metadata.Create(vote); result.Error != nil {
			return fmt.Errorf("failed to record freeze vote: %w", result.Error)
		}
		return nil
	})
}

// ListFreezeVotes returns the votes of one kind cast on the freeze proposal
// created at the given time
func (d *Database) ListFreezeVotes(
	freezeVoting []byte,
	kind uint8,
	proposalCreated uint64,
	txn *Txn,
) ([]models.FreezeVote, error) {
	var ret []models.FreezeVote
	result := d.metadataDB(txn).
		Where(
			"freeze_voting = ? AND kind = ? AND proposal_created = ?",
			freezeVoting,
			kind,
			proposalCreated,
		).
		Order("id ASC").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}
