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

// Package strategy implements the proposal voting state machine: voting
// windows, weighted votes across voting configs and the quorum and basis
// rules that decide whether a proposal passed.
package strategy

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"slices"
	"sync"

	"github.com/blinklabs-io/govern/clock"
	"github.com/blinklabs-io/govern/common"
	"github.com/blinklabs-io/govern/database"
	"github.com/blinklabs-io/govern/database/models"
	"github.com/blinklabs-io/govern/event"
	"github.com/blinklabs-io/govern/tracker"
	"github.com/blinklabs-io/govern/weight"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	BasisDenominator  = 1_000_000
	MinBasisNumerator = 500_000
)

// VotingConfig pairs a weight computation with the tracker that prevents
// double voting for it
type VotingConfig struct {
	Weight  weight.Weight
	Tracker tracker.Tracker
}

// ConfigVote selects a voting config and provides its vote data
type ConfigVote struct {
	VoteData    []byte
	ConfigIndex int
}

// AccountResolver resolves a caller acting through a light account to the
// true voter
type AccountResolver interface {
	ResolveVoter(caller common.Address, lightAccountIndex uint64) (common.Address, error)
}

type StrategyConfig struct {
	Logger          *slog.Logger
	EventBus        *event.EventBus
	PromRegistry    prometheus.Registerer
	Database        *database.Database
	Clock           clock.Clock
	AccountResolver AccountResolver
	VotingConfigs   []VotingConfig
	// AuthorizedFreezeVoters may cast freeze votes with this strategy's configs
	AuthorizedFreezeVoters []common.Address
	Address                common.Address
	// Admin is the governor allowed to initialize proposals and manage
	// freeze voters
	Admin common.Address
	// Owner may update voting parameters. Defaults to Admin
	Owner           common.Address
	VotingPeriod    uint64
	QuorumThreshold uint64
	BasisNumerator  uint64
}

type Strategy struct {
	config       StrategyConfig
	logger       *slog.Logger
	db           *database.Database
	clock        clock.Clock
	metrics      *strategyMetrics
	configs      []VotingConfig
	paramsMu     sync.RWMutex
	settingsMu   sync.Mutex
	votingPeriod uint64
	quorum       uint64
	basis        uint64
	freezeVoters map[common.Address]struct{}
}

func NewStrategy(cfg StrategyConfig) (*Strategy, error) {
	if cfg.Database == nil {
		return nil, errors.New("strategy requires a database")
	}
	if cfg.Clock == nil {
		return nil, errors.New("strategy requires a clock")
	}
	if len(cfg.VotingConfigs) == 0 {
		return nil, ErrNoVotingConfigs
	}
	for i, vc := range cfg.VotingConfigs {
		if vc.Weight == nil || vc.Tracker == nil {
			return nil, &ConfigIndexError{Err: ErrInvalidConfigIndex, ConfigIndex: i}
		}
	}
	if err := validateBasisNumerator(cfg.BasisNumerator); err != nil {
		return nil, err
	}
	if cfg.VotingPeriod == 0 {
		return nil, ErrZeroVotingPeriod
	}
	if cfg.Address.IsZero() || cfg.Admin.IsZero() {
		return nil, ErrZeroAddress
	}
	if cfg.Owner.IsZero() {
		cfg.Owner = cfg.Admin
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	s := &Strategy{
		config:       cfg,
		logger:       cfg.Logger.With("component", "strategy", "strategy", cfg.Address.String()),
		db:           cfg.Database,
		clock:        cfg.Clock,
		configs:      slices.Clone(cfg.VotingConfigs),
		votingPeriod: cfg.VotingPeriod,
		quorum:       cfg.QuorumThreshold,
		basis:        cfg.BasisNumerator,
		freezeVoters: make(map[common.Address]struct{}),
	}
	for _, fv := range cfg.AuthorizedFreezeVoters {
		if fv.IsZero() {
			return nil, ErrZeroAddress
		}
		s.freezeVoters[fv] = struct{}{}
	}
	if err := s.loadSettings(); err != nil {
		return nil, err
	}
	s.initMetrics()
	return s, nil
}

// Names of the stored voting parameters
const (
	paramVotingPeriod    = "voting_period"
	paramQuorumThreshold = "quorum_threshold"
	paramBasisNumerator  = "basis_numerator"
)

// loadSettings applies parameter updates and freeze voter changes stored by
// earlier runs on top of the configured values
func (s *Strategy) loadSettings() error {
	return s.db.View(func(txn *database.Txn) error {
		params, err := s.db.GetParameters(s.config.Address[:], txn)
		if err != nil {
			return fmt.Errorf("load strategy parameters: %w", err)
		}
		if v, ok := params[paramVotingPeriod]; ok && v > 0 {
			s.votingPeriod = v
		}
		if v, ok := params[paramQuorumThreshold]; ok {
			s.quorum = v
		}
		if v, ok := params[paramBasisNumerator]; ok && validateBasisNumerator(v) == nil {
			s.basis = v
		}
		rows, err := s.db.ListMemberships(
			s.config.Address[:],
			models.MembershipKindFreezeVoter,
			txn,
		)
		if err != nil {
			return fmt.Errorf("load freeze voters: %w", err)
		}
		for _, row := range rows {
			fv := common.BytesToAddress(row.Member)
			if row.Enabled {
				s.freezeVoters[fv] = struct{}{}
			} else {
				delete(s.freezeVoters, fv)
			}
		}
		return nil
	})
}

func (s *Strategy) storeParameter(name string, value uint64) error {
	return s.db.SetParameter(s.config.Address[:], name, value, nil)
}

func validateBasisNumerator(basis uint64) error {
	if basis < MinBasisNumerator || basis >= BasisDenominator {
		return ErrInvalidBasisNumerator
	}
	return nil
}

func (s *Strategy) Address() common.Address {
	return s.config.Address
}

func (s *Strategy) Admin() common.Address {
	return s.config.Admin
}

func (s *Strategy) Owner() common.Address {
	return s.config.Owner
}

func (s *Strategy) VotingPeriod() uint64 {
	s.paramsMu.RLock()
	defer s.paramsMu.RUnlock()
	return s.votingPeriod
}

func (s *Strategy) QuorumThreshold() uint64 {
	s.paramsMu.RLock()
	defer s.paramsMu.RUnlock()
	return s.quorum
}

func (s *Strategy) BasisNumerator() uint64 {
	s.paramsMu.RLock()
	defer s.paramsMu.RUnlock()
	return s.basis
}

// VotingConfig returns the voting config at the given index
func (s *Strategy) VotingConfig(index int) (VotingConfig, error) {
	if index < 0 || index >= len(s.configs) {
		return VotingConfig{}, &ConfigIndexError{Err: ErrInvalidConfigIndex, ConfigIndex: index}
	}
	return s.configs[index], nil
}

// VotingConfigs returns a copy of the voting configs. The set a strategy was
// built with never changes
func (s *Strategy) VotingConfigs() []VotingConfig {
	return slices.Clone(s.configs)
}

// UpdateVotingPeriod changes the voting period used by proposals initialized
// afterwards
func (s *Strategy) UpdateVotingPeriod(caller common.Address, period uint64) error {
	if caller != s.config.Owner {
		return ErrNotOwner
	}
	if period == 0 {
		return ErrZeroVotingPeriod
	}
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()
	if err := s.storeParameter(paramVotingPeriod, period); err != nil {
		return err
	}
	s.paramsMu.Lock()
	s.votingPeriod = period
	s.paramsMu.Unlock()
	s.logger.Info("updated voting period", "voting_period", period)
	return nil
}

func (s *Strategy) UpdateQuorumThreshold(caller common.Address, quorum uint64) error {
	if caller != s.config.Owner {
		return ErrNotOwner
	}
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()
	if err := s.storeParameter(paramQuorumThreshold, quorum); err != nil {
		return err
	}
	s.paramsMu.Lock()
	s.quorum = quorum
	s.paramsMu.Unlock()
	s.logger.Info("updated quorum threshold", "quorum_threshold", quorum)
	return nil
}

func (s *Strategy) UpdateBasisNumerator(caller common.Address, basis uint64) error {
	if caller != s.config.Owner {
		return ErrNotOwner
	}
	if err := validateBasisNumerator(basis); err != nil {
		return err
	}
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()
	if err := s.storeParameter(paramBasisNumerator, basis); err != nil {
		return err
	}
	s.paramsMu.Lock()
	s.basis = basis
	s.paramsMu.Unlock()
	s.logger.Info("updated basis numerator", "basis_numerator", basis)
	return nil
}

// IsQuorumMet applies the quorum rule YES + ABSTAIN >= threshold
func (s *Strategy) IsQuorumMet(yes uint64, abstain uint64) bool {
	total := new(big.Int).Add(
		new(big.Int).SetUint64(yes),
		new(big.Int).SetUint64(abstain),
	)
	return total.Cmp(new(big.Int).SetUint64(s.QuorumThreshold())) >= 0
}

// IsBasisMet applies the basis rule YES / (YES + NO) > numerator / 1000000
func (s *Strategy) IsBasisMet(yes uint64, no uint64) bool {
	lhs := new(big.Int).Mul(
		new(big.Int).SetUint64(yes),
		big.NewInt(BasisDenominator),
	)
	rhs := new(big.Int).Mul(
		new(big.Int).SetUint64(s.BasisNumerator()),
		new(big.Int).Add(
			new(big.Int).SetUint64(yes),
			new(big.Int).SetUint64(no),
		),
	)
	return lhs.Cmp(rhs) > 0
}
