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
	"math/big"

	"github.com/blinklabs-io/govern/database/models"
	"github.com/blinklabs-io/govern/database/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const commitTimestampRowID = 1

type CommitTimestampError struct {
	MetadataTimestamp int64
	BlobTimestamp     int64
}

func (e CommitTimestampError) Error() string {
	return fmt.Sprintf(
		"commit timestamp mismatch: %d (metadata) != %d (blob)",
		e.MetadataTimestamp,
		e.BlobTimestamp,
	)
}

func (d *Database) checkCommitTimestamp() error {
	// Get value from metadata
	var tmpCommitTimestamp models.CommitTimestamp
	result := d.metadata.First(&tmpCommitTimestamp, commitTimestampRowID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			// No timestamp in the database
			return nil
		}
		return fmt.Errorf(
			"failed to get metadata commit timestamp: %w",
			result.Error,
		)
	}
	metadataTimestamp := tmpCommitTimestamp.Timestamp
	if metadataTimestamp <= 0 {
		return nil
	}
	// Get value from blob
	val, err := d.blobGet(nil, []byte(types.CommitTimestampBlobKey))
	if err != nil && !errors.Is(err, types.ErrBlobKeyNotFound) {
		return fmt.Errorf("failed to get blob commit timestamp: %w", err)
	}
	blobTimestamp := new(big.Int).SetBytes(val).Int64()
	// Compare values
	if blobTimestamp != metadataTimestamp {
		return CommitTimestampError{
			MetadataTimestamp: metadataTimestamp,
			BlobTimestamp:     blobTimestamp,
		}
	}
	return nil
}

// updateCommitTimestamp is called with the txn lock held
func (d *Database) updateCommitTimestamp(txn *Txn, timestamp int64) error {
	// Update metadata
	tmpCommitTimestamp := models.CommitTimestamp{
		ID:        commitTimestampRowID,
		Timestamp: timestamp,
	}
	result := txn.metadata.Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"timestamp"}),
		},
	).Create(&tmpCommitTimestamp)
	if result.Error != nil {
		return result.Error
	}
	// Update blob
	tmpTimestamp := new(big.Int).SetInt64(timestamp)
	return txn.blob.Set(
		[]byte(types.CommitTimestampBlobKey),
		tmpTimestamp.Bytes(),
	)
}
