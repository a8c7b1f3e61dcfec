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

package strategy

import (
	"fmt"
	"slices"

	"github.com/blinklabs-io/govern/common"
	"github.com/blinklabs-io/govern/database"
	"github.com/blinklabs-io/govern/database/models"
	"github.com/blinklabs-io/govern/database/types"
	"github.com/blinklabs-io/govern/event"
)

// AddAuthorizedFreezeVoter allows a freeze voting component to weigh freeze
// votes with this strategy's voting configs
func (s *Strategy) AddAuthorizedFreezeVoter(
	caller common.Address,
	freezeVoter common.Address,
) error {
	if caller != s.config.Admin {
		return ErrNotAdmin
	}
	if freezeVoter.IsZero() {
		return ErrZeroAddress
	}
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()
	if s.IsAuthorizedFreezeVoter(freezeVoter) {
		return ErrFreezeVoterExists
	}
	if err := s.storeFreezeVoter(freezeVoter, true); err != nil {
		return err
	}
	s.paramsMu.Lock()
	s.freezeVoters[freezeVoter] = struct{}{}
	s.paramsMu.Unlock()
	s.publishFreezeVoterChange(freezeVoter, true)
	return nil
}

func (s *Strategy) RemoveAuthorizedFreezeVoter(
	caller common.Address,
	freezeVoter common.Address,
) error {
	if caller != s.config.Admin {
		return ErrNotAdmin
	}
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()
	if !s.IsAuthorizedFreezeVoter(freezeVoter) {
		return ErrFreezeVoterNotFound
	}
	if err := s.storeFreezeVoter(freezeVoter, false); err != nil {
		return err
	}
	s.paramsMu.Lock()
	delete(s.freezeVoters, freezeVoter)
	s.paramsMu.Unlock()
	s.publishFreezeVoterChange(freezeVoter, false)
	return nil
}

func (s *Strategy) storeFreezeVoter(freezeVoter common.Address, authorized bool) error {
	return s.db.SetMembership(
		s.config.Address[:],
		models.MembershipKindFreezeVoter,
		freezeVoter[:],
		authorized,
		s.clock.Now(),
		nil,
	)
}

func (s *Strategy) publishFreezeVoterChange(freezeVoter common.Address, authorized bool) {
	s.config.EventBus.Publish(event.NewEvent(
		event.AuthorizedFreezeVoterChanged,
		event.FreezeVoterChangedEvent{
			Strategy:     s.config.Address,
			FreezeVoting: freezeVoter,
			Authorized:   authorized,
		},
	))
	s.logger.Info(
		"freeze voter authorization changed",
		"freeze_voter", freezeVoter.String(),
		"authorized", authorized,
	)
}

func (s *Strategy) IsAuthorizedFreezeVoter(freezeVoter common.Address) bool {
	s.paramsMu.RLock()
	defer s.paramsMu.RUnlock()
	_, ok := s.freezeVoters[freezeVoter]
	return ok
}

// AuthorizedFreezeVoters returns a sorted snapshot of the authorized freeze voters
func (s *Strategy) AuthorizedFreezeVoters() []common.Address {
	s.paramsMu.RLock()
	ret := make([]common.Address, 0, len(s.freezeVoters))
	for fv := range s.freezeVoters {
		ret = append(ret, fv)
	}
	s.paramsMu.RUnlock()
	slices.SortFunc(ret, common.Address.Compare)
	return ret
}

// RecordFreezeVote weighs and records a freeze vote on behalf of an
// authorized freeze voting component, inside that component's transaction
func (s *Strategy) RecordFreezeVote(
	txn *database.Txn,
	freezeVoter common.Address,
	voter common.Address,
	contextID common.Hash,
	timestamp uint64,
	votes []ConfigVote,
) (uint64, error) {
	if txn == nil {
		return 0, types.ErrNilTxn
	}
	if !s.IsAuthorizedFreezeVoter(freezeVoter) {
		return 0, fmt.Errorf("%w: %s", ErrNotFreezeVoter, freezeVoter)
	}
	if err := s.validateSelection(votes); err != nil {
		return 0, err
	}
	total, err := s.applyVotes(txn, voter, contextID, timestamp, votes)
	if err != nil {
		return 0, err
	}
	return total, nil
}
