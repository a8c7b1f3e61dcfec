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

// withTxn runs fn in txn, or in a new read-write transaction when txn is nil
func (d *Database) withTxn(txn *Txn, fn func(*Txn) error) error {
	if txn == nil {
		return d.Update(fn)
	}
	if err := txn.validate(true); err != nil {
		return err
	}
	return fn(txn)
}

// CreateProposal stores a newly submitted proposal
func (d *Database) CreateProposal(proposal *models.Proposal, txn *Txn) error {
	return d.withTxn(txn, func(txn *Txn) error {
		if result := txn.metadata.Create(proposal); result.Error != nil {
			return fmt.Errorf(
				"failed to create proposal %d: %w",
				proposal.ProposalID,
				result.Error,
			)
		}
		return nil
	})
}

// GetProposal returns the proposal with the given id on a governor
func (d *Database) GetProposal(
	governor []byte,
	proposalID uint32,
	txn *Txn,
) (*models.Proposal, error) {
	var ret models.Proposal
	result := d.metadataDB(txn).
		Where("governor = ? AND proposal_id = ?", governor, proposalID).
		First(&ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, models.ErrProposalNotFound
		}
		return nil, result.Error
	}
	return &ret, nil
}

// ProposalCount returns the number of proposals submitted to a governor.
// Proposal ids are assigned sequentially from zero, so this is also the next id
func (d *Database) ProposalCount(governor []byte, txn *Txn) (uint32, error) {
	var count int64
	result := d.metadataDB(txn).
		Model(&models.Proposal{}).
		Where("governor = ?", governor).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return uint32(count), nil //nolint:gosec
}

// ListProposals returns proposals on a governor ordered by id
func (d *Database) ListProposals(
	governor []byte,
	offset int,
	limit int,
	txn *Txn,
) ([]models.Proposal, error) {
	var ret []models.Proposal
	query := d.metadataDB(txn).
		Where("governor = ?", governor).
		Order("proposal_id ASC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	} else if offset > 0 {
		query = query.Where("proposal_id >= ?", offset)
	}
	if result := query.Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SetProposalExecutionCounter records how many of a proposal's transactions
// have been executed
func (d *Database) SetProposalExecutionCounter(
	governor []byte,
	proposalID uint32,
	counter uint32,
	txn *Txn,
) error {
	return d.withTxn(txn, func(txn *Txn) error {
		result := txn.metadata.
			Model(&models.Proposal{}).
			Where("governor = ? AND proposal_id = ?", governor, proposalID).
			Update("execution_counter", counter)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.ErrProposalNotFound
		}
		return nil
	})
}
