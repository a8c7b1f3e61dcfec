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

// Setting kinds for Membership records
const (
	MembershipKindFreezeVoter     = "freeze_voter"
	MembershipKindProposerAdapter = "proposer_adapter"
	MembershipKindStrategy        = "strategy"
)

// Parameter is an updatable numeric setting of a governance component
type Parameter struct {
	ID        uint   `gorm:"primarykey"`
	Component []byte `gorm:"uniqueIndex:idx_parameter_component_name,priority:1;size:20;not null"`
	Name      string `gorm:"uniqueIndex:idx_parameter_component_name,priority:2;size:64;not null"`
	Value     uint64 `gorm:"not null"`
}

func (Parameter) TableName() string {
	return "parameter"
}

// Membership records whether an address belongs to one of a component's
// registries. Removals are kept with Enabled false so that they survive a
// restart with the original configuration
type Membership struct {
	ID        uint   `gorm:"primarykey"`
	Component []byte `gorm:"uniqueIndex:idx_membership_component_kind_member,priority:1;size:20;not null"`
	Kind      string `gorm:"uniqueIndex:idx_membership_component_kind_member,priority:2;size:32;not null"`
	Member    []byte `gorm:"uniqueIndex:idx_membership_component_kind_member,priority:3;size:20;not null"`
	Enabled   bool   `gorm:"not null"`
	UpdatedAt uint64 `gorm:"not null"`
}

func (Membership) TableName() string {
	return "membership"
}
