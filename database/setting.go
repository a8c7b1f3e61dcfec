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
	"fmt"

	"github.com/blinklabs-io/govern/database/models"
	"gorm.io/gorm/clause"
)

// SetParameter stores a named numeric setting for a component, replacing any
// previous value
func (d *Database) SetParameter(
	component []byte,
	name string,
	value uint64,
	txn *Txn,
) error {
	return d.withTxn(txn, func(txn *Txn) error {
		result := txn.metadata.Clauses(
			clause.OnConflict{
				Columns: []clause.Column{
					{Name: "component"},
					{Name: "name"},
				},
				DoUpdates: clause.AssignmentColumns([]string{"value"}),
			},
		).Create(&models.Parameter{
			Component: component,
			Name:      name,
			Value:     value,
		})
		if result.Error != nil {
			return fmt.Errorf("failed to set parameter %s: %w", name, result.Error)
		}
		return nil
	})
}

// GetParameters returns all stored settings of a component keyed by name
func (d *Database) GetParameters(
	component []byte,
	txn *Txn,
) (map[string]uint64, error) {
	var rows []models.Parameter
	result := d.metadataDB(txn).
		Where("component = ?", component).
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	ret := make(map[string]uint64, len(rows))
	for _, row := range rows {
		ret[row.Name] = row.Value
	}
	return ret, nil
}

// SetMembership records that member was added to or removed from one of a
// component's registries
func (d *Database) SetMembership(
	component []byte,
	kind string,
	member []byte,
	enabled bool,
	updatedAt uint64,
	txn *Txn,
) error {
	return d.withTxn(txn, func(txn *Txn) error {
		result := txn.metadata.Clauses(
			clause.OnConflict{
				Columns: []clause.Column{
					{Name: "component"},
					{Name: "kind"},
					{Name: "member"},
				},
				DoUpdates: clause.AssignmentColumns([]string{"enabled", "updated_at"}),
			},
		).Create(&models.Membership{
			Component: component,
			Kind:      kind,
			Member:    member,
			Enabled:   enabled,
			UpdatedAt: updatedAt,
		})
		if result.Error != nil {
			return fmt.Errorf("failed to set %s membership: %w", kind, result.Error)
		}
		return nil
	})
}

// ListMemberships returns every recorded change of one registry, enabled or
// not, in insertion order
func (d *Database) ListMemberships(
	component []byte,
	kind string,
	txn *Txn,
) ([]models.Membership, error) {
	var ret []models.Membership
	result := d.metadataDB(txn).
		Where("component = ? AND kind = ?", component, kind).
		Order("id ASC").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}
