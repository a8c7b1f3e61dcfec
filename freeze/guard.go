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

package freeze

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/blinklabs-io/govern/clock"
	"github.com/blinklabs-io/govern/common"
	"github.com/blinklabs-io/govern/database"
	"github.com/blinklabs-io/govern/database/models"
	"github.com/blinklabs-io/govern/event"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// GovernorGuard blocks proposal execution while frozen and for proposals
// whose voting ended at or before the last freeze
type GovernorGuard struct {
	voting *Voting
}

func NewGovernorGuard(voting *Voting) *GovernorGuard {
	return &GovernorGuard{voting: voting}
}

func (g *GovernorGuard) CheckProposal(
	proposalID uint32,
	timelockedAt uint64,
	txn *database.Txn,
) error {
	if err := g.voting.checkTimelock(timelockedAt, txn); err != nil {
		g.voting.logger.Debug(
			"proposal execution blocked",
			"proposal_id", proposalID,
			"timelocked_at", timelockedAt,
			"error", err,
		)
		return err
	}
	return nil
}

type MultisigGuardConfig struct {
	Logger       *slog.Logger
	EventBus     *event.EventBus
	Database     *database.Database
	Clock        clock.Clock
	Address      common.Address
	FreezeVoting *Voting
	// Veto is optional
	Veto            *Veto
	TimelockPeriod  uint64
	ExecutionPeriod uint64
}

// MultisigGuard timelocks the transactions of a multisig treasury and
// decides whether each may be executed
type MultisigGuard struct {
	config MultisigGuardConfig
	logger *slog.Logger
	db     *database.Database
	clock  clock.Clock
}

func NewMultisigGuard(cfg MultisigGuardConfig) (*MultisigGuard, error) {
	if cfg.Database == nil {
		return nil, errors.New("multisig guard requires a database")
	}
	if cfg.Clock == nil {
		return nil, errors.New("multisig guard requires a clock")
	}
	if cfg.FreezeVoting == nil {
		return nil, ErrFreezeVotingNotConfigured
	}
	if cfg.Address.IsZero() {
		return nil, ErrZeroAddress
	}
	if cfg.Veto != nil && cfg.Veto.GuardAddress() != cfg.Address {
		return nil, errors.New("veto voting is bound to a different guard")
	}
	if cfg.ExecutionPeriod == 0 {
		return nil, ErrZeroPeriod
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &MultisigGuard{
		config: cfg,
		logger: cfg.Logger.With("component", "freeze", "guard", cfg.Address.String()),
		db:     cfg.Database,
		clock:  cfg.Clock,
	}, nil
}

func (g *MultisigGuard) Address() common.Address {
	return g.config.Address
}

func (g *MultisigGuard) TimelockPeriod() uint64 {
	return g.config.TimelockPeriod
}

func (g *MultisigGuard) ExecutionPeriod() uint64 {
	return g.config.ExecutionPeriod
}

// TimelockTransaction starts the timelock of a signed multisig transaction
func (g *MultisigGuard) TimelockTransaction(ctx context.Context, txHash common.Hash) error {
	_, span := tracer.Start(ctx, "freeze.TimelockTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("tx_hash", txHash.String()))
	var now uint64
	err := g.db.Update(func(txn *database.Txn) error {
		frozen, err := g.config.FreezeVoting.IsFrozen(txn)
		if err != nil {
			return err
		}
		if frozen {
			return ErrFrozen
		}
		_, err = g.db.GetTimelockedTransaction(g.config.Address[:], txHash[:], txn)
		if err == nil {
			return ErrAlreadyTimelocked
		}
		if !errors.Is(err, models.ErrTimelockedTransactionNotFound) {
			return err
		}
		now = g.clock.Now()
		return g.db.CreateTimelockedTransaction(
			&models.TimelockedTransaction{
				Guard:        g.config.Address[:],
				TxHash:       txHash[:],
				TimelockedAt: now,
			},
			txn,
		)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	g.config.EventBus.Publish(event.NewEvent(
		event.TransactionTimelockedType,
		event.TransactionTimelockedEvent{
			Guard:        g.config.Address,
			TxHash:       txHash,
			TimelockedAt: now,
		},
	))
	g.logger.Info(
		"transaction timelocked",
		"tx_hash", txHash.String(),
		"timelocked_at", now,
	)
	return nil
}

// TimelockedAt returns when a transaction was timelocked
func (g *MultisigGuard) TimelockedAt(txHash common.Hash, txn *database.Txn) (uint64, error) {
	rec, err := g.db.GetTimelockedTransaction(g.config.Address[:], txHash[:], txn)
	if err != nil {
		if errors.Is(err, models.ErrTimelockedTransactionNotFound) {
			return 0, ErrNotTimelocked
		}
		return 0, err
	}
	return rec.TimelockedAt, nil
}

// CheckTransaction returns nil when a timelocked transaction may be executed now
func (g *MultisigGuard) CheckTransaction(ctx context.Context, txHash common.Hash) error {
	_, span := tracer.Start(ctx, "freeze.CheckTransaction")
	defer span.End()
	err := g.db.View(func(txn *database.Txn) error {
		return g.checkTransaction(txHash, txn)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (g *MultisigGuard) checkTransaction(txHash common.Hash, txn *database.Txn) error {
	timelockedAt, err := g.TimelockedAt(txHash, txn)
	if err != nil {
		return err
	}
	if err := g.config.FreezeVoting.checkTimelock(timelockedAt, txn); err != nil {
		return err
	}
	if g.config.Veto != nil {
		vetoed, err := g.config.Veto.IsVetoed(txHash, txn)
		if err != nil {
			return err
		}
		if vetoed {
			return ErrTransactionVetoed
		}
		lastVeto, err := g.config.Veto.LastVetoTime(txn)
		if err != nil {
			return err
		}
		if lastVeto != 0 && timelockedAt <= lastVeto {
			return ErrStaleTransaction
		}
	}
	now := g.clock.Now()
	unlockAt := addSaturating(timelockedAt, g.config.TimelockPeriod)
	if now <= unlockAt {
		return ErrTimelockNotElapsed
	}
	if now > addSaturating(unlockAt, g.config.ExecutionPeriod) {
		return ErrTransactionExpired
	}
	return nil
}
