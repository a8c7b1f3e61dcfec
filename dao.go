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

// Package govern assembles the governance components of a DAO into a
// working graph and runs them as a service.
package govern

import (
	"errors"
	"io"
	"log/slog"

	"github.com/blinklabs-io/govern/clock"
	"github.com/blinklabs-io/govern/common"
	"github.com/blinklabs-io/govern/database"
	"github.com/blinklabs-io/govern/event"
	"github.com/blinklabs-io/govern/freeze"
	"github.com/blinklabs-io/govern/governor"
	"github.com/blinklabs-io/govern/proposer"
	"github.com/blinklabs-io/govern/strategy"
	"github.com/blinklabs-io/govern/treasury"
	"github.com/prometheus/client_golang/prometheus"
)

var ErrNotOwner = common.NewError(common.KindAuthorization, "caller is not the DAO owner")

// Addresses are the component addresses of a DAO. They are derived from the
// DAO name before any component exists, so each component can be built with
// the addresses of the others
type Addresses struct {
	Governor      common.Address `json:"governor"`
	Strategy      common.Address `json:"strategy"`
	Treasury      common.Address `json:"treasury"`
	FreezeVoting  common.Address `json:"freezeVoting"`
	Veto          common.Address `json:"veto"`
	MultisigGuard common.Address `json:"multisigGuard"`
}

func DeriveAddresses(name string) Addresses {
	seed := []byte(name)
	return Addresses{
		Governor:      common.DeriveAddress("governor", seed),
		Strategy:      common.DeriveAddress("strategy", seed),
		Treasury:      common.DeriveAddress("treasury", seed),
		FreezeVoting:  common.DeriveAddress("freeze-voting", seed),
		Veto:          common.DeriveAddress("veto-voting", seed),
		MultisigGuard: common.DeriveAddress("multisig-guard", seed),
	}
}

type FreezeOptions struct {
	// Source weighs freeze votes. Defaults to the DAO strategy
	Source                 freeze.VoteSource
	VotesThreshold         uint64
	ProposalPeriod         uint64
	UnfreezeVotesThreshold uint64
	UnfreezeProposalPeriod uint64
}

// MultisigOptions enable the guard and veto voting of a multisig treasury
// governed by this DAO's freeze voting
type MultisigOptions struct {
	TimelockPeriod     uint64
	ExecutionPeriod    uint64
	VetoVotesThreshold uint64
}

type DAOConfig struct {
	Logger          *slog.Logger
	EventBus        *event.EventBus
	PromRegistry    prometheus.Registerer
	Database        *database.Database
	Clock           clock.Clock
	AccountResolver strategy.AccountResolver
	// Executor defaults to a treasury vault holding TreasuryBalance
	Executor               governor.Executor
	TreasuryBalance        uint64
	AllowDelegateCall      bool
	Name                   string
	Owner                  common.Address
	ChainID                uint64
	VotingConfigs          []strategy.VotingConfig
	ProposerAdapters       []proposer.Adapter
	VotingPeriod           uint64
	QuorumThreshold        uint64
	BasisNumerator         uint64
	TimelockPeriod         uint64
	ExecutionPeriod        uint64
	MaxTransactionsPerCall int
	Freeze                 *FreezeOptions
	Multisig               *MultisigOptions
}

type DAO struct {
	Addresses     Addresses
	Governor      *governor.Governor
	Strategy      *strategy.Strategy
	Treasury      *treasury.Vault
	FreezeVoting  *freeze.Voting
	Veto          *freeze.Veto
	MultisigGuard *freeze.MultisigGuard
	owner         common.Address
	logger        *slog.Logger
}

// NewDAO builds and links every component of a DAO. Nothing is returned
// until the whole graph is consistent
func NewDAO(cfg DAOConfig) (*DAO, error) {
	if cfg.Name == "" {
		return nil, errors.New("DAO requires a name")
	}
	if cfg.Owner.IsZero() {
		return nil, errors.New("DAO requires an owner")
	}
	if cfg.Multisig != nil && cfg.Freeze == nil {
		return nil, errors.New("multisig guard requires freeze voting")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	addrs := DeriveAddresses(cfg.Name)
	d := &DAO{
		Addresses: addrs,
		owner:     cfg.Owner,
		logger:    cfg.Logger.With("component", "dao", "dao", cfg.Name),
	}
	// Freeze voting components vote through the strategy unless they have
	// their own source
	var freezeVoters []common.Address
	if cfg.Freeze != nil && cfg.Freeze.Source == nil {
		freezeVoters = append(freezeVoters, addrs.FreezeVoting)
		if cfg.Multisig != nil {
			freezeVoters = append(freezeVoters, addrs.Veto)
		}
	}
	var err error
	d.Strategy, err = strategy.NewStrategy(strategy.StrategyConfig{
		Logger:                 cfg.Logger,
		EventBus:               cfg.EventBus,
		PromRegistry:           cfg.PromRegistry,
		Database:               cfg.Database,
		Clock:                  cfg.Clock,
		AccountResolver:        cfg.AccountResolver,
		VotingConfigs:          cfg.VotingConfigs,
		AuthorizedFreezeVoters: freezeVoters,
		Address:                addrs.Strategy,
		Admin:                  addrs.Governor,
		Owner:                  cfg.Owner,
		VotingPeriod:           cfg.VotingPeriod,
		QuorumThreshold:        cfg.QuorumThreshold,
		BasisNumerator:         cfg.BasisNumerator,
	})
	if err != nil {
		return nil, err
	}
	var guard governor.Guard
	if cfg.Freeze != nil {
		var source freeze.VoteSource = d.Strategy
		if cfg.Freeze.Source != nil {
			source = cfg.Freeze.Source
		}
		d.FreezeVoting, err = freeze.NewVoting(freeze.VotingConfig{
			Logger:                 cfg.Logger,
			EventBus:               cfg.EventBus,
			PromRegistry:           cfg.PromRegistry,
			Database:               cfg.Database,
			Clock:                  cfg.Clock,
			Source:                 source,
			Address:                addrs.FreezeVoting,
			Owner:                  cfg.Owner,
			FreezeVotesThreshold:   cfg.Freeze.VotesThreshold,
			FreezeProposalPeriod:   cfg.Freeze.ProposalPeriod,
			UnfreezeVotesThreshold: cfg.Freeze.UnfreezeVotesThreshold,
			UnfreezeProposalPeriod: cfg.Freeze.UnfreezeProposalPeriod,
		})
		if err != nil {
			return nil, err
		}
		guard = freeze.NewGovernorGuard(d.FreezeVoting)
		if cfg.Multisig != nil {
			d.Veto, err = freeze.NewVeto(freeze.VetoConfig{
				Logger:             cfg.Logger,
				EventBus:           cfg.EventBus,
				PromRegistry:       cfg.PromRegistry,
				Database:           cfg.Database,
				Clock:              cfg.Clock,
				Source:             source,
				Address:            addrs.Veto,
				Guard:              addrs.MultisigGuard,
				VetoVotesThreshold: cfg.Multisig.VetoVotesThreshold,
				FreezeVoting:       d.FreezeVoting,
			})
			if err != nil {
				return nil, err
			}
			d.MultisigGuard, err = freeze.NewMultisigGuard(freeze.MultisigGuardConfig{
				Logger:          cfg.Logger,
				EventBus:        cfg.EventBus,
				Database:        cfg.Database,
				Clock:           cfg.Clock,
				Address:         addrs.MultisigGuard,
				FreezeVoting:    d.FreezeVoting,
				Veto:            d.Veto,
				TimelockPeriod:  cfg.Multisig.TimelockPeriod,
				ExecutionPeriod: cfg.Multisig.ExecutionPeriod,
			})
			if err != nil {
				return nil, err
			}
		}
	}
	executor := cfg.Executor
	if executor == nil {
		d.Treasury, err = treasury.NewVault(treasury.VaultConfig{
			Logger:            cfg.Logger,
			PromRegistry:      cfg.PromRegistry,
			Address:           addrs.Treasury,
			InitialBalance:    cfg.TreasuryBalance,
			AllowDelegateCall: cfg.AllowDelegateCall,
		})
		if err != nil {
			return nil, err
		}
		executor = d.Treasury
	}
	d.Governor, err = governor.NewGovernor(governor.GovernorConfig{
		Logger:                 cfg.Logger,
		EventBus:               cfg.EventBus,
		PromRegistry:           cfg.PromRegistry,
		Database:               cfg.Database,
		Clock:                  cfg.Clock,
		Strategy:               d.Strategy,
		Executor:               executor,
		Guard:                  guard,
		ProposerAdapters:       cfg.ProposerAdapters,
		Address:                addrs.Governor,
		Owner:                  cfg.Owner,
		ChainID:                cfg.ChainID,
		TimelockPeriod:         cfg.TimelockPeriod,
		ExecutionPeriod:        cfg.ExecutionPeriod,
		MaxTransactionsPerCall: cfg.MaxTransactionsPerCall,
	})
	if err != nil {
		return nil, err
	}
	d.logger.Info(
		"DAO assembled",
		"governor", addrs.Governor.String(),
		"strategy", addrs.Strategy.String(),
		"freeze", d.FreezeVoting != nil,
		"multisig", d.MultisigGuard != nil,
	)
	return d, nil
}

func (d *DAO) Owner() common.Address {
	return d.owner
}

// AuthorizeFreezeVoter lets an external freeze voting component weigh votes
// with the DAO strategy. The strategy admin is the governor, so only the DAO
// owner may request it
func (d *DAO) AuthorizeFreezeVoter(caller common.Address, freezeVoter common.Address) error {
	if caller != d.owner {
		return ErrNotOwner
	}
	return d.Strategy.AddAuthorizedFreezeVoter(d.Addresses.Governor, freezeVoter)
}

func (d *DAO) RevokeFreezeVoter(caller common.Address, freezeVoter common.Address) error {
	if caller != d.owner {
		return ErrNotOwner
	}
	return d.Strategy.RemoveAuthorizedFreezeVoter(d.Addresses.Governor, freezeVoter)
}
