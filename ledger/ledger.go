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

// Package ledger keeps checkpointed voting power, token ownership and
// membership so that weights can be looked up at past timestamps.
package ledger

import (
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/blinklabs-io/govern/clock"
	"github.com/blinklabs-io/govern/common"
)

var (
	ErrFutureLookup = common.NewError(common.KindValidation, "lookup timestamp is in the future")
	ErrZeroAddress  = common.NewError(common.KindValidation, "zero address")
)

type checkpoint[T any] struct {
	timestamp uint64
	value     T
}

// history is a list of checkpoints ordered by timestamp
type history[T any] []checkpoint[T]

// at returns the value of the last checkpoint at or before ts
func (h history[T]) at(ts uint64) T {
	idx, found := slices.BinarySearchFunc(
		h,
		ts,
		func(c checkpoint[T], ts uint64) int {
			switch {
			case c.timestamp < ts:
				return -1
			case c.timestamp > ts:
				return 1
			default:
				return 0
			}
		},
	)
	if found {
		return h[idx].value
	}
	var zero T
	if idx == 0 {
		return zero
	}
	return h[idx-1].value
}

func (h history[T]) latest() T {
	if len(h) == 0 {
		var zero T
		return zero
	}
	return h[len(h)-1].value
}

// push records a value at ts. Writes within the same timestamp replace the
// previous checkpoint
func (h history[T]) push(ts uint64, value T) history[T] {
	if n := len(h); n > 0 && h[n-1].timestamp == ts {
		h[n-1].value = value
		return h
	}
	return append(h, checkpoint[T]{timestamp: ts, value: value})
}

type Config struct {
	Logger *slog.Logger
	Clock  clock.Clock
}

// Ledger implements weight.VotesSource, weight.OwnershipSource and
// weight.MembershipSource
type Ledger struct {
	logger   *slog.Logger
	clock    clock.Clock
	mu       sync.RWMutex
	votes    map[common.Address]history[uint64]
	owners   map[uint64]history[common.Address]
	balances map[common.Address]history[uint64]
	members  map[common.Address]history[bool]
}

func New(cfg Config) (*Ledger, error) {
	if cfg.Clock == nil {
		return nil, errors.New("ledger requires a clock")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Ledger{
		logger:   cfg.Logger.With("component", "ledger"),
		clock:    cfg.Clock,
		votes:    make(map[common.Address]history[uint64]),
		owners:   make(map[uint64]history[common.Address]),
		balances: make(map[common.Address]history[uint64]),
		members:  make(map[common.Address]history[bool]),
	}, nil
}

// Lookups at the current time see the latest values. Weights add their own
// strictly-past requirement
func (l *Ledger) checkPast(ts uint64) error {
	if ts > l.clock.Now() {
		return ErrFutureLookup
	}
	return nil
}

// SetVotes sets the current voting power of an account
func (l *Ledger) SetVotes(account common.Address, votes uint64) error {
	if account.IsZero() {
		return ErrZeroAddress
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.votes[account] = l.votes[account].push(l.clock.Now(), votes)
	l.logger.Debug("votes updated", "account", account.String(), "votes", votes)
	return nil
}

// Votes returns the current voting power of an account
func (l *Ledger) Votes(account common.Address) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.votes[account].latest()
}

func (l *Ledger) PastVotes(account common.Address, timestamp uint64) (uint64, error) {
	if err := l.checkPast(timestamp); err != nil {
		return 0, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.votes[account].at(timestamp), nil
}

// TransferToken moves a token to a new owner, minting it when it has none
func (l *Ledger) TransferToken(tokenID uint64, to common.Address) error {
	if to.IsZero() {
		return ErrZeroAddress
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock.Now()
	from := l.owners[tokenID].latest()
	if from == to {
		return nil
	}
	if !from.IsZero() {
		l.balances[from] = l.balances[from].push(now, l.balances[from].latest()-1)
	}
	l.balances[to] = l.balances[to].push(now, l.balances[to].latest()+1)
	l.owners[tokenID] = l.owners[tokenID].push(now, to)
	l.logger.Debug(
		"token transferred",
		"token_id", tokenID,
		"from", from.String(),
		"to", to.String(),
	)
	return nil
}

// OwnerOf returns the current owner of a token, or the zero address
func (l *Ledger) OwnerOf(tokenID uint64) common.Address {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.owners[tokenID].latest()
}

func (l *Ledger) OwnerAt(tokenID uint64, timestamp uint64) (common.Address, error) {
	if err := l.checkPast(timestamp); err != nil {
		return common.Address{}, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.owners[tokenID].at(timestamp), nil
}

func (l *Ledger) BalanceAt(owner common.Address, timestamp uint64) (uint64, error) {
	if err := l.checkPast(timestamp); err != nil {
		return 0, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[owner].at(timestamp), nil
}

func (l *Ledger) AddMember(account common.Address) error {
	return l.setMember(account, true)
}

func (l *Ledger) RemoveMember(account common.Address) error {
	return l.setMember(account, false)
}

func (l *Ledger) setMember(account common.Address, member bool) error {
	if account.IsZero() {
		return ErrZeroAddress
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.members[account] = l.members[account].push(l.clock.Now(), member)
	l.logger.Debug("membership updated", "account", account.String(), "member", member)
	return nil
}

func (l *Ledger) IsMember(account common.Address, timestamp uint64) (bool, error) {
	if err := l.checkPast(timestamp); err != nil {
		return false, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.members[account].at(timestamp), nil
}

// Members returns the sorted current members
func (l *Ledger) Members() []common.Address {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var ret []common.Address
	for account, h := range l.members {
		if h.latest() {
			ret = append(ret, account)
		}
	}
	slices.SortFunc(ret, common.Address.Compare)
	return ret
}
