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

// Package tracker prevents double voting. Marks are permanent and are
// written in the caller's database transaction.
package tracker

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/govern/common"
	"github.com/blinklabs-io/govern/database"
	"github.com/blinklabs-io/govern/database/types"
)

var ErrAlreadyVoted = common.NewError(common.KindState, "already voted")

type AlreadyVotedError struct {
	Voter     common.Address
	ContextID common.Hash
	// TokenID is only set by token trackers
	TokenID  uint64
	HasToken bool
}

func (e *AlreadyVotedError) Error() string {
	if e.HasToken {
		return fmt.Sprintf(
			"already voted: token %d in context %s",
			e.TokenID,
			e.ContextID,
		)
	}
	return fmt.Sprintf(
		"already voted: %s in context %s",
		e.Voter,
		e.ContextID,
	)
}

func (e *AlreadyVotedError) Is(target error) bool {
	//nolint:errorlint
	return target == ErrAlreadyVoted
}

func (e *AlreadyVotedError) Kind() common.ErrorKind {
	return common.KindState
}

// Tracker records which voters (or tokens) have voted in a context
type Tracker interface {
	Address() common.Address
	HasVoted(
		txn *database.Txn,
		contextID common.Hash,
		voter common.Address,
		voteData []byte,
	) (bool, error)
	RecordVote(
		txn *database.Txn,
		contextID common.Hash,
		voter common.Address,
		voteData []byte,
	) error
}

// AddressTracker allows one vote per address per context
type AddressTracker struct {
	db      *database.Database
	address common.Address
}

func NewAddressTracker(
	db *database.Database,
	address common.Address,
) *AddressTracker {
	return &AddressTracker{db: db, address: address}
}

func (a *AddressTracker) Address() common.Address {
	return a.address
}

func (a *AddressTracker) key(contextID common.Hash, voter common.Address) []byte {
	return types.AddressVoteMarkKey(a.address[:], contextID[:], voter[:])
}

func (a *AddressTracker) HasVoted(
	txn *database.Txn,
	contextID common.Hash,
	voter common.Address,
	_ []byte,
) (bool, error) {
	return a.db.HasVoteMark(a.key(contextID, voter), txn)
}

func (a *AddressTracker) RecordVote(
	txn *database.Txn,
	contextID common.Hash,
	voter common.Address,
	_ []byte,
) error {
	key := a.key(contextID, voter)
	voted, err := a.db.HasVoteMark(key, txn)
	if err != nil {
		return err
	}
	if voted {
		return &AlreadyVotedError{Voter: voter, ContextID: contextID}
	}
	return a.db.SetVoteMark(key, txn)
}

// TokenTracker allows each token id to vote once per context, so one address
// may vote several times with disjoint tokens
type TokenTracker struct {
	db      *database.Database
	address common.Address
}

func NewTokenTracker(
	db *database.Database,
	address common.Address,
) *TokenTracker {
	return &TokenTracker{db: db, address: address}
}

func (t *TokenTracker) Address() common.Address {
	return t.address
}

func (t *TokenTracker) key(contextID common.Hash, tokenID uint64) []byte {
	return types.TokenVoteMarkKey(t.address[:], contextID[:], tokenID)
}

// HasVoted reports whether any of the tokens in voteData has voted
func (t *TokenTracker) HasVoted(
	txn *database.Txn,
	contextID common.Hash,
	_ common.Address,
	voteData []byte,
) (bool, error) {
	ids, err := common.DecodeTokenIDs(voteData)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		voted, err := t.db.HasVoteMark(t.key(contextID, id), txn)
		if err != nil {
			return false, err
		}
		if voted {
			return true, nil
		}
	}
	return false, nil
}

func (t *TokenTracker) RecordVote(
	txn *database.Txn,
	contextID common.Hash,
	voter common.Address,
	voteData []byte,
) error {
	ids, err := common.DecodeTokenIDs(voteData)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return errors.New("no token ids to record")
	}
	for _, id := range ids {
		key := t.key(contextID, id)
		voted, err := t.db.HasVoteMark(key, txn)
		if err != nil {
			return err
		}
		if voted {
			return &AlreadyVotedError{
				Voter:     voter,
				ContextID: contextID,
				TokenID:   id,
				HasToken:  true,
			}
		}
		if err := t.db.SetVoteMark(key, txn); err != nil {
			return err
		}
	}
	return nil
}
