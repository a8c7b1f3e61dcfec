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
	"gorm.io/gorm/clause"
)

// SetVotingDetails stores the voting window and tallies for a proposal,
// replacing any existing record for the same strategy and proposal
func (d *Database) SetVotingDetails(
	details *models.VotingDetails,
	txn *Txn,
) error {
	return d.withTxn(txn, func(txn *Txn) error {
		result := txn.metadata.Clauses(
			clause.OnConflict{
				Columns: []clause.Column{
					{Name: "strategy"},
					{Name: "proposal_id"},
				},
				DoUpdates: clause.AssignmentColumns([]string{
					"voting_start",
					"voting_end",
					"voting_start_block",
					"yes_votes",
					"no_votes",
					"abstain_votes",
				}),
			},
		).Create(details)
		if result.Error != nil {
			return fmt.Errorf(
				"failed to set voting details for proposal %d: %w",
				details.ProposalID,
				result.Error,
			)
		}
		return nil
	})
}

// GetVotingDetails returns the voting record a strategy keeps for a proposal
func (d *Database) GetVotingDetails(
	strategy []byte,
	proposalID uint32,
	txn *Txn,
) (*models.VotingDetails, error) {
	var ret models.VotingDetails
	result := d.metadataDB(txn).
		Where("strategy = ? AND proposal_id = ?", strategy, proposalID).
		First(&ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, models.ErrVotingDetailsNotFound
		}
		return nil, result.Error
	}
	return &ret, nil
}

// UpdateVotingTallies writes the tallies on an existing voting record
func (d *Database) UpdateVotingTallies(
	details *models.VotingDetails,
	txn *Txn,
) error {
	return d.withTxn(txn, func(txn *Txn) error {
		result := txn.metadata.
			Model(&models.VotingDetails{}).
			Where("id = ?", details.ID).
			Updates(map[string]any{
				"yes_votes":     details.YesVotes,
				"no_votes":      details.NoVotes,
				"abstain_votes": details.AbstainVotes,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.ErrVotingDetailsNotFound
		}
		return nil
	})
}

// CreateVote stores a cast vote
func (d *Database) CreateVote(vote *models.Vote, txn *Txn) error {
	return d.withTxn(txn, func(txn *Txn) error {
		if result := txn.metadata.Create(vote); result.Error != nil {
			return fmt.Errorf("failed to record vote: %w", result.Error)
		}
		return nil
	})
}

// ListVotes returns the votes cast on a proposal in the given voting window
func (d *Database) ListVotes(
	strategy []byte,
	proposalID uint32,
	votingStart uint64,
	txn *Txn,
) ([]models.Vote, error) {
	var ret []models.Vote
	result := d.metadataDB(txn).
		Where(
			"strategy = ? AND proposal_id = ? AND voting_start = ?",
			strategy,
			proposalID,
			votingStart,
		).
		Order("id ASC").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}
