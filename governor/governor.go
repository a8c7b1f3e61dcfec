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

// Package governor orchestrates the proposal lifecycle: submission gated by
// proposer adapters, voting delegated to a strategy, then timelock,
// execution window and batched execution against an executor.
package governor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/blinklabs-io/govern/clock"
	"github.com/blinklabs-io/govern/common"
	"github.com/blinklabs-io/govern/database"
	"github.com/blinklabs-io/govern/database/models"
	"github.com/blinklabs-io/govern/event"
	"github.com/blinklabs-io/govern/proposer"
	"github.com/prometheus/client_golang/prometheus"
)

// Strategy is the voting side of a proposal
type Strategy interface {
	Address() common.Address
	InitializeProposal(
		ctx context.Context,
		caller common.Address,
		proposalID uint32,
		txn *database.Txn,
	) error
	IsPassed(proposalID uint32, txn *database.Txn) (bool, error)
	VotingTimestamps(proposalID uint32, txn *database.Txn) (uint64, uint64, error)
}

// Executor applies a batch of transactions atomically. When a transaction
// fails, the returned error should implement TxIndex() int
type Executor interface {
	ExecuteTransactions(ctx context.Context, txs []common.Transaction) error
}

// Guard is consulted before any proposal transaction is executed, inside the
// execution transaction
type Guard interface {
	CheckProposal(proposalID uint32, timelockedAt uint64, txn *database.Txn) error
}

type GovernorConfig struct {
	Logger           *slog.Logger
	EventBus         *event.EventBus
	PromRegistry     prometheus.Registerer
	Database         *database.Database
	Clock            clock.Clock
	Strategy         Strategy
	Executor         Executor
	Guard            Guard
	ProposerAdapters []proposer.Adapter
	// KnownStrategies and KnownProposerAdapters resolve strategies and
	// adapters recorded by earlier UpdateStrategy and EnableProposerAdapter
	// calls. They are not enabled unless a stored setting says so
	KnownStrategies       []Strategy
	KnownProposerAdapters []proposer.Adapter
	Address               common.Address
	Owner                 common.Address
	ChainID               uint64
	TimelockPeriod        uint64
	ExecutionPeriod       uint64
	// MaxTransactionsPerCall bounds each ExecuteProposal call. Zero means no limit
	MaxTransactionsPerCall int
}

type Governor struct {
	config          GovernorConfig
	logger          *slog.Logger
	db              *database.Database
	clock           clock.Clock
	metrics         *governorMetrics
	domainSeparator common.Hash
	mu              sync.RWMutex
	settingsMu      sync.Mutex
	strategy        Strategy
	strategies      map[common.Address]Strategy
	adapters        map[common.Address]proposer.Adapter
	timelockPeriod  uint64
	executionPeriod uint64
}

func NewGovernor(cfg GovernorConfig) (*Governor, error) {
	if cfg.Database == nil {
		return nil, errors.New("governor requires a database")
	}
	if cfg.Clock == nil {
		return nil, errors.New("governor requires a clock")
	}
	if cfg.Strategy == nil {
		return nil, errors.New("governor requires a strategy")
	}
	if cfg.Executor == nil {
		return nil, errors.New("governor requires an executor")
	}
	if cfg.Address.IsZero() || cfg.Owner.IsZero() {
		return nil, ErrZeroAddress
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	g := &Governor{
		config:          cfg,
		logger:          cfg.Logger.With("component", "governor", "governor", cfg.Address.String()),
		db:              cfg.Database,
		clock:           cfg.Clock,
		domainSeparator: DomainSeparator(cfg.ChainID, cfg.Address),
		strategy:        cfg.Strategy,
		strategies:      map[common.Address]Strategy{cfg.Strategy.Address(): cfg.Strategy},
		adapters:        make(map[common.Address]proposer.Adapter),
		timelockPeriod:  cfg.TimelockPeriod,
		executionPeriod: cfg.ExecutionPeriod,
	}
	for _, adapter := range cfg.ProposerAdapters {
		g.adapters[adapter.Address()] = adapter
	}
	if err := g.loadSettings(); err != nil {
		return nil, err
	}
	g.initMetrics()
	return g, nil
}

const (
	paramTimelockPeriod  = "timelock_period"
	paramExecutionPeriod = "execution_period"
	// Exactly one enabled record names the strategy for new proposals
	membershipKindActiveStrategy = "active_strategy"
)

// loadSettings applies admin updates stored by earlier runs on top of the
// configured values
func (g *Governor) loadSettings() error {
	known := make(map[common.Address]Strategy, len(g.config.KnownStrategies)+1)
	for _, s := range g.config.KnownStrategies {
		if s != nil {
			known[s.Address()] = s
		}
	}
	known[g.config.Strategy.Address()] = g.config.Strategy
	knownAdapters := make(map[common.Address]proposer.Adapter)
	for _, adapter := range g.config.KnownProposerAdapters {
		if adapter != nil {
			knownAdapters[adapter.Address()] = adapter
		}
	}
	for _, adapter := range g.config.ProposerAdapters {
		knownAdapters[adapter.Address()] = adapter
	}
	addr := g.config.Address[:]
	return g.db.View(func(txn *database.Txn) error {
		params, err := g.db.GetParameters(addr, txn)
		if err != nil {
			return fmt.Errorf("load governor parameters: %w", err)
		}
		if v, ok := params[paramTimelockPeriod]; ok {
			g.timelockPeriod = v
		}
		if v, ok := params[paramExecutionPeriod]; ok {
			g.executionPeriod = v
		}
		strategies, err := g.db.ListMemberships(addr, models.MembershipKindStrategy, txn)
		if err != nil {
			return fmt.Errorf("load strategies: %w", err)
		}
		for _, row := range strategies {
			sAddr := common.BytesToAddress(row.Member)
			s, ok := known[sAddr]
			if !ok {
				g.logger.Warn(
					"stored strategy is not configured, its proposals cannot be executed",
					"strategy", sAddr.String(),
				)
				continue
			}
			g.strategies[sAddr] = s
		}
		active, err := g.db.ListMemberships(addr, membershipKindActiveStrategy, txn)
		if err != nil {
			return fmt.Errorf("load active strategy: %w", err)
		}
		for _, row := range active {
			if !row.Enabled {
				continue
			}
			if s, ok := g.strategies[common.BytesToAddress(row.Member)]; ok {
				g.strategy = s
			}
		}
		adapters, err := g.db.ListMemberships(addr, models.MembershipKindProposerAdapter, txn)
		if err != nil {
			return fmt.Errorf("load proposer adapters: %w", err)
		}
		for _, row := range adapters {
			aAddr := common.BytesToAddress(row.Member)
			if !row.Enabled {
				delete(g.adapters, aAddr)
				continue
			}
			adapter, ok := knownAdapters[aAddr]
			if !ok {
				g.logger.Warn(
					"stored proposer adapter is not configured",
					"adapter", aAddr.String(),
				)
				continue
			}
			g.adapters[aAddr] = adapter
		}
		return nil
	})
}

func (g *Governor) Address() common.Address {
	return g.config.Address
}

func (g *Governor) Owner() common.Address {
	return g.config.Owner
}

func (g *Governor) DomainSeparator() common.Hash {
	return g.domainSeparator
}

// Strategy returns the strategy used for new proposals
func (g *Governor) Strategy() Strategy {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.strategy
}

func (g *Governor) strategyAt(addr common.Address) (Strategy, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s, ok := g.strategies[addr]
	if !ok {
		return nil, ErrUnknownProposalStrategy
	}
	return s, nil
}

func (g *Governor) TimelockPeriod() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.timelockPeriod
}

func (g *Governor) ExecutionPeriod() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.executionPeriod
}

// UpdateTimelockPeriod changes the timelock copied to proposals submitted afterwards
func (g *Governor) UpdateTimelockPeriod(caller common.Address, period uint64) error {
	if caller != g.config.Owner {
		return ErrNotOwner
	}
	g.settingsMu.Lock()
	defer g.settingsMu.Unlock()
	if err := g.db.SetParameter(g.config.Address[:], paramTimelockPeriod, period, nil); err != nil {
		return err
	}
	g.mu.Lock()
	g.timelockPeriod = period
	g.mu.Unlock()
	g.logger.Info("updated timelock period", "timelock_period", period)
	return nil
}

// UpdateExecutionPeriod changes the execution period copied to proposals
// submitted afterwards
func (g *Governor) UpdateExecutionPeriod(caller common.Address, period uint64) error {
	if caller != g.config.Owner {
		return ErrNotOwner
	}
	g.settingsMu.Lock()
	defer g.settingsMu.Unlock()
	if err := g.db.SetParameter(g.config.Address[:], paramExecutionPeriod, period, nil); err != nil {
		return err
	}
	g.mu.Lock()
	g.executionPeriod = period
	g.mu.Unlock()
	g.logger.Info("updated execution period", "execution_period", period)
	return nil
}

// UpdateStrategy sets the strategy for new proposals. Existing proposals keep
// the strategy they were created with
func (g *Governor) UpdateStrategy(caller common.Address, s Strategy) error {
	if caller != g.config.Owner {
		return ErrNotOwner
	}
	if s == nil || s.Address().IsZero() {
		return ErrZeroAddress
	}
	g.settingsMu.Lock()
	defer g.settingsMu.Unlock()
	prev := g.Strategy().Address()
	next := s.Address()
	err := g.db.Update(func(txn *database.Txn) error {
		addr := g.config.Address[:]
		now := g.clock.Now()
		if err := g.db.SetMembership(addr, models.MembershipKindStrategy, prev[:], true, now, txn); err != nil {
			return err
		}
		if err := g.db.SetMembership(addr, models.MembershipKindStrategy, next[:], true, now, txn); err != nil {
			return err
		}
		if prev != next {
			if err := g.db.SetMembership(addr, membershipKindActiveStrategy, prev[:], false, now, txn); err != nil {
				return err
			}
		}
		return g.db.SetMembership(addr, membershipKindActiveStrategy, next[:], true, now, txn)
	})
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.strategy = s
	g.strategies[next] = s
	g.mu.Unlock()
	g.logger.Info("updated strategy", "strategy", s.Address().String())
	return nil
}

func (g *Governor) EnableProposerAdapter(caller common.Address, adapter proposer.Adapter) error {
	if caller != g.config.Owner {
		return ErrNotOwner
	}
	if adapter == nil || adapter.Address().IsZero() {
		return ErrZeroAddress
	}
	g.settingsMu.Lock()
	defer g.settingsMu.Unlock()
	if g.IsProposerAdapter(adapter.Address()) {
		return ErrAdapterAlreadyEnabled
	}
	if err := g.storeAdapter(adapter.Address(), true); err != nil {
		return err
	}
	g.mu.Lock()
	g.adapters[adapter.Address()] = adapter
	g.mu.Unlock()
	g.publishAdapterChange(adapter.Address(), true)
	return nil
}

func (g *Governor) DisableProposerAdapter(caller common.Address, addr common.Address) error {
	if caller != g.config.Owner {
		return ErrNotOwner
	}
	g.settingsMu.Lock()
	defer g.settingsMu.Unlock()
	if !g.IsProposerAdapter(addr) {
		return ErrInvalidProposerAdapter
	}
	if err := g.storeAdapter(addr, false); err != nil {
		return err
	}
	g.mu.Lock()
	delete(g.adapters, addr)
	g.mu.Unlock()
	g.publishAdapterChange(addr, false)
	return nil
}

func (g *Governor) storeAdapter(addr common.Address, enabled bool) error {
	return g.db.SetMembership(
		g.config.Address[:],
		models.MembershipKindProposerAdapter,
		addr[:],
		enabled,
		g.clock.Now(),
		nil,
	)
}

func (g *Governor) publishAdapterChange(addr common.Address, enabled bool) {
	g.config.EventBus.Publish(event.NewEvent(
		event.ProposerAdapterChangedType,
		event.ProposerAdapterChangedEvent{
			Governor: g.config.Address,
			Adapter:  addr,
			Enabled:  enabled,
		},
	))
	g.logger.Info(
		"proposer adapter changed",
		"adapter", addr.String(),
		"enabled", enabled,
	)
}

// ProposerAdapters returns the enabled adapter addresses in sorted order
func (g *Governor) ProposerAdapters() []common.Address {
	g.mu.RLock()
	ret := make([]common.Address, 0, len(g.adapters))
	for addr := range g.adapters {
		ret = append(ret, addr)
	}
	g.mu.RUnlock()
	slices.SortFunc(ret, common.Address.Compare)
	return ret
}

func (g *Governor) IsProposerAdapter(addr common.Address) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.adapters[addr]
	return ok
}
