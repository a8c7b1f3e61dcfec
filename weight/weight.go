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

// Package weight computes a voter's influence at a snapshot time from an
// external balance, ownership or membership source.
package weight

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/blinklabs-io/govern/clock"
	"github.com/blinklabs-io/govern/common"
)

var (
	ErrFutureSnapshot    = common.NewError(common.KindValidation, "snapshot timestamp is not in the past")
	ErrMalformedVoteData = common.NewError(common.KindValidation, "malformed vote data")
	ErrDuplicateTokenID  = common.NewError(common.KindValidation, "duplicate token id in vote data")
	ErrWeightOverflow    = common.NewError(common.KindValidation, "vote weight overflows")
	ErrNoSource          = errors.New("weight source not configured")
)

// Weight computes vote weight. CalculateWeight is used when voting and
// requires the snapshot to be strictly in the past. WeightForPaymaster
// performs the same computation without reading the clock, for relay
// pre-validation
type Weight interface {
	CalculateWeight(
		voter common.Address,
		timestamp uint64,
		voteData []byte,
	) (uint64, []byte, error)
	WeightForPaymaster(
		voter common.Address,
		timestamp uint64,
		voteData []byte,
	) (uint64, []byte, error)
}

// VotesSource reports delegated token votes at a snapshot
type VotesSource interface {
	PastVotes(account common.Address, timestamp uint64) (uint64, error)
}

// OwnershipSource reports NFT ownership at a snapshot
type OwnershipSource interface {
	OwnerAt(tokenID uint64, timestamp uint64) (common.Address, error)
	BalanceAt(owner common.Address, timestamp uint64) (uint64, error)
}

// MembershipSource reports allowlist membership at a snapshot
type MembershipSource interface {
	IsMember(account common.Address, timestamp uint64) (bool, error)
}

type TokenNotOwnedError struct {
	Voter   common.Address
	Owner   common.Address
	TokenID uint64
}

func (e *TokenNotOwnedError) Error() string {
	return fmt.Sprintf(
		"token %d is owned by %s, not %s",
		e.TokenID,
		e.Owner,
		e.Voter,
	)
}

func (e *TokenNotOwnedError) Kind() common.ErrorKind {
	return common.KindValidation
}

// weigher is the clock-free computation shared by both entry points
type weigher func(voter common.Address, timestamp uint64, voteData []byte) (uint64, []byte, error)

type base struct {
	clock clock.Clock
	weigh weigher
}

func (b *base) CalculateWeight(
	voter common.Address,
	timestamp uint64,
	voteData []byte,
) (uint64, []byte, error) {
	if b.clock != nil && timestamp >= b.clock.Now() {
		return 0, nil, ErrFutureSnapshot
	}
	return b.weigh(voter, timestamp, voteData)
}

func (b *base) WeightForPaymaster(
	voter common.Address,
	timestamp uint64,
	voteData []byte,
) (uint64, []byte, error) {
	return b.weigh(voter, timestamp, voteData)
}

func multiply(amount uint64, multiplier uint64) (uint64, error) {
	hi, lo := bits.Mul64(amount, multiplier)
	if hi != 0 {
		return 0, ErrWeightOverflow
	}
	return lo, nil
}
