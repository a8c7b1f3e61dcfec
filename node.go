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

package govern

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/govern/account"
	"github.com/blinklabs-io/govern/api"
	"github.com/blinklabs-io/govern/clock"
	"github.com/blinklabs-io/govern/common"
	"github.com/blinklabs-io/govern/database"
	"github.com/blinklabs-io/govern/event"
	"github.com/blinklabs-io/govern/ledger"
	"github.com/blinklabs-io/govern/proposer"
	"github.com/blinklabs-io/govern/strategy"
	"github.com/blinklabs-io/govern/tracker"
	"github.com/blinklabs-io/govern/weight"
)

const defaultShutdownTimeout = 30 * time.Second

// Node runs a single DAO backed by a checkpointed ledger
type Node struct {
	config        Config
	logger        *slog.Logger
	clock         clock.Clock
	eventBus      *event.EventBus
	db            *database.Database
	ledger        *ledger.Ledger
	accounts      *account.Registry
	dao           *DAO
	api           *api.Server
	shutdownFuncs []func(context.Context) error
	mu            sync.Mutex
	done          chan struct{}
	shutdownOnce  sync.Once
	openOnce      sync.Once
	openErr       error
}

func New(cfg Config) (*Node, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.shutdownTimeout == 0 {
		cfg.shutdownTimeout = defaultShutdownTimeout
	}
	n := &Node{
		config: cfg,
		logger: cfg.logger.With("component", "node"),
		clock:  cfg.clock,
		done:   make(chan struct{}),
	}
	if n.clock == nil {
		n.clock = clock.NewSystemClock(time.Unix(0, 0), clock.DefaultBlockInterval)
	}
	return n, nil
}

// Open builds the database, the ledger and the DAO without serving anything.
// It is safe to call more than once
func (n *Node) Open() error {
	n.openOnce.Do(func() {
		n.openErr = n.open()
	})
	return n.openErr
}

func (n *Node) open() error {
	if n.config.tracing {
		if err := n.setupTracing(); err != nil {
			return err
		}
	}
	n.eventBus = event.NewEventBus(n.config.promRegistry, n.config.logger)
	n.addShutdownFunc(func(context.Context) error {
		n.eventBus.Stop()
		return nil
	})
	db, err := database.New(&database.Config{
		Logger:       n.config.logger,
		PromRegistry: n.config.promRegistry,
		DataDir:      n.config.dataDir,
	})
	if db == nil {
		return fmt.Errorf("open database: %w", err)
	}
	n.db = db
	n.addShutdownFunc(func(context.Context) error {
		return db.Close()
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	n.ledger, err = ledger.New(ledger.Config{
		Logger: n.config.logger,
		Clock:  n.clock,
	})
	if err != nil {
		return err
	}
	if n.config.ledgerSeedFile != "" {
		seed, err := ledger.LoadSeedFile(n.config.ledgerSeedFile)
		if err != nil {
			return err
		}
		if err := n.ledger.Apply(seed); err != nil {
			return fmt.Errorf("apply ledger seed: %w", err)
		}
	}
	if n.config.ledgerSeed != nil {
		if err := n.ledger.Apply(n.config.ledgerSeed); err != nil {
			return fmt.Errorf("apply ledger seed: %w", err)
		}
	}
	params := n.config.dao
	daoCfg := DAOConfig{
		Logger:                 n.config.logger,
		EventBus:               n.eventBus,
		PromRegistry:           n.config.promRegistry,
		Database:               n.db,
		Clock:                  n.clock,
		TreasuryBalance:        params.TreasuryBalance,
		AllowDelegateCall:      params.AllowDelegateCall,
		Name:                   params.Name,
		Owner:                  params.Owner,
		ChainID:                params.ChainID,
		VotingPeriod:           params.VotingPeriod,
		QuorumThreshold:        params.QuorumThreshold,
		BasisNumerator:         params.BasisNumerator,
		TimelockPeriod:         params.TimelockPeriod,
		ExecutionPeriod:        params.ExecutionPeriod,
		MaxTransactionsPerCall: params.MaxTransactionsPerCall,
	}
	daoCfg.VotingConfigs, daoCfg.ProposerAdapters = n.ledgerVoting(params)
	if params.LightAccounts {
		n.accounts = account.NewRegistry()
		daoCfg.AccountResolver = n.accounts
	}
	if params.FreezeVotesThreshold > 0 {
		daoCfg.Freeze = &FreezeOptions{
			VotesThreshold: params.FreezeVotesThreshold,
			ProposalPeriod: params.FreezeProposalPeriod,
		}
		if params.VetoVotesThreshold > 0 {
			daoCfg.Multisig = &MultisigOptions{
				TimelockPeriod:     params.MultisigTimelockPeriod,
				ExecutionPeriod:    params.MultisigExecutionPeriod,
				VetoVotesThreshold: params.VetoVotesThreshold,
			}
		}
	}
	n.dao, err = NewDAO(daoCfg)
	if err != nil {
		return fmt.Errorf("assemble DAO: %w", err)
	}
	return nil
}

// ledgerVoting returns one voting config and proposer adapter per enabled
// weight multiplier, all reading from the node ledger
func (n *Node) ledgerVoting(params DAOParams) ([]strategy.VotingConfig, []proposer.Adapter) {
	var configs []strategy.VotingConfig
	var adapters []proposer.Adapter
	seed := []byte(params.Name)
	if params.WeightPerToken > 0 {
		configs = append(configs, strategy.VotingConfig{
			Weight: weight.NewERC20Weight(n.ledger, params.WeightPerToken, n.clock),
			Tracker: tracker.NewAddressTracker(
				n.db,
				common.DeriveAddress("token-tracker", seed),
			),
		})
		adapters = append(adapters, proposer.NewERC20Adapter(
			common.DeriveAddress("token-proposer", seed),
			n.ledger,
			params.ProposerThreshold,
			n.clock,
		))
	}
	if params.WeightPerNFT > 0 {
		configs = append(configs, strategy.VotingConfig{
			Weight: weight.NewERC721Weight(n.ledger, params.WeightPerNFT, n.clock),
			Tracker: tracker.NewTokenTracker(
				n.db,
				common.DeriveAddress("nft-tracker", seed),
			),
		})
		adapters = append(adapters, proposer.NewERC721Adapter(
			common.DeriveAddress("nft-proposer", seed),
			n.ledger,
			params.ProposerThreshold,
			n.clock,
		))
	}
	if params.WeightPerMember > 0 {
		configs = append(configs, strategy.VotingConfig{
			Weight: weight.NewAllowlistWeight(n.ledger, params.WeightPerMember, n.clock),
			Tracker: tracker.NewAddressTracker(
				n.db,
				common.DeriveAddress("member-tracker", seed),
			),
		})
		adapters = append(adapters, proposer.NewAllowlistAdapter(
			common.DeriveAddress("member-proposer", seed),
			n.ledger,
			n.clock,
		))
	}
	return configs, adapters
}

// Run opens the node, serves the API if configured and blocks until ctx is
// cancelled or Stop is called
func (n *Node) Run(ctx context.Context) error {
	if err := n.Open(); err != nil {
		n.shutdown()
		return err
	}
	if n.config.apiListenAddress != "" {
		source := api.NewDAOSource(
			n.db,
			n.dao.Governor,
			n.dao.Strategy,
			n.dao.FreezeVoting,
		)
		server, err := api.New(api.Config{
			Logger:        n.config.logger,
			Source:        source,
			ListenAddress: n.config.apiListenAddress,
			Version:       n.config.version,
		})
		if err != nil {
			n.shutdown()
			return err
		}
		n.mu.Lock()
		n.api = server
		n.mu.Unlock()
		if err := server.Start(ctx); err != nil {
			n.shutdown()
			return err
		}
		n.addShutdownFunc(server.Stop)
	}
	n.logger.Info(
		"node started",
		"dao", n.config.dao.Name,
		"governor", n.dao.Addresses.Governor.String(),
	)
	select {
	case <-ctx.Done():
	case <-n.done:
	}
	return n.shutdown()
}

func (n *Node) addShutdownFunc(fn func(context.Context) error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.shutdownFuncs = append(n.shutdownFuncs, fn)
}

// Stop shuts the node down and releases its resources
func (n *Node) Stop() error {
	return n.shutdown()
}

func (n *Node) shutdown() error {
	var err error
	n.shutdownOnce.Do(func() {
		close(n.done)
		ctx, cancel := context.WithTimeout(context.Background(), n.config.shutdownTimeout)
		defer cancel()
		n.logger.Debug("shutting down")
		n.mu.Lock()
		funcs := n.shutdownFuncs
		n.shutdownFuncs = nil
		n.mu.Unlock()
		// Reverse order of startup
		for i := len(funcs) - 1; i >= 0; i-- {
			err = errors.Join(err, funcs[i](ctx))
		}
	})
	return err
}

// DAO returns the assembled DAO once the node is open
func (n *Node) DAO() *DAO {
	return n.dao
}

func (n *Node) Ledger() *ledger.Ledger {
	return n.ledger
}

func (n *Node) Database() *database.Database {
	return n.db
}

func (n *Node) EventBus() *event.EventBus {
	return n.eventBus
}

// Accounts returns the light account registry, or nil when light accounts
// are disabled
func (n *Node) Accounts() *account.Registry {
	return n.accounts
}

// APIAddr returns the bound API address once Run has started the server
func (n *Node) APIAddr() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.api == nil {
		return ""
	}
	return n.api.Addr()
}
