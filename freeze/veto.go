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
	"math"

	"github.com/blinklabs-io/govern/clock"
	"github.com/blinklabs-io/govern/common"
	"github.com/blinklabs-io/govern/database"
	"github.com/blinklabs-io/govern/database/models"
	"github.com/blinklabs-io/govern/database/types"
	"github.com/blinklabs-io/govern/event"
	"github.com/blinklabs-io/govern/strategy"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type VetoConfig struct {
	Logger       *slog.Logger
	EventBus     *event.EventBus
	PromRegistry prometheus.Registerer
	Database     *database.Database
	Clock        clock.Clock
	Source       VoteSource
	Address      common.Address
	// Guard is the multisig guard whose timelocked transactions may be vetoed
	Guard              common.Address
	VetoVotesThreshold uint64
	// FreezeVoting receives the freeze half of a veto vote that also freezes
	FreezeVoting *Voting
}

// VetoStatus is the veto tally of one timelocked transaction
type VetoStatus struct {
	TxHash       common.Hash `json:"txHash"`
	TimelockedAt uint64      `json:"timelockedAt"`
	VoteCount    uint64      `json:"voteCount"`
	Vetoed       bool        `json:"vetoed"`
	VetoedAt     uint64      `json:"vetoedAt,omitempty"`
}

// Veto runs one veto vote per transaction timelocked in a multisig guard
type Veto struct {
	config  VetoConfig
	logger  *slog.Logger
	db      *database.Database
	clock   clock.Clock
	metrics *vetoMetrics
}

func NewVeto(cfg VetoConfig) (*Veto, error) {
	if cfg.Database == nil {
		return nil, errors.New("veto voting requires a database")
	}
	if cfg.Clock == nil {
		return nil, errors.New("veto voting requires a clock")
	}
	if cfg.Source == nil {
		return nil, errors.New("veto voting requires a vote source")
	}
	if cfg.Address.IsZero() || cfg.Guard.IsZero() {
		return nil, ErrZeroAddress
	}
	if cfg.VetoVotesThreshold == 0 {
		return nil, ErrZeroThreshold
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	v := &Veto{
		config: cfg,
		logger: cfg.Logger.With("component", "freeze", "veto_voting", cfg.Address.String()),
		db:     cfg.Database,
		clock:  cfg.Clock,
	}
	v.initMetrics()
	return v, nil
}

func (v *Veto) Address() common.Address {
	return v.config.Address
}

func (v *Veto) GuardAddress() common.Address {
	return v.config.Guard
}

func (v *Veto) VetoVotesThreshold() uint64 {
	return v.config.VetoVotesThreshold
}

// VetoContext identifies the veto vote on a transaction for vote tracking
func (v *Veto) VetoContext(txHash common.Hash, timelockedAt uint64) common.Hash {
	return common.Keccak256(
		[]byte("veto"),
		v.config.Address[:],
		txHash[:],
		common.Uint64Bytes(timelockedAt),
	)
}

// CastVetoVote adds the voter's weight to the veto vote on a timelocked
// transaction. With alsoFreeze the same selection is cast as a freeze vote
// in the same operation
func (v *Veto) CastVetoVote(
	ctx context.Context,
	voter common.Address,
	txHash common.Hash,
	votes []strategy.ConfigVote,
	alsoFreeze bool,
) error {
	_, span := tracer.Start(ctx, "freeze.CastVetoVote")
	defer span.End()
	span.SetAttributes(
		attribute.String("tx_hash", txHash.String()),
		attribute.Bool("also_freeze", alsoFreeze),
	)
	if alsoFreeze && v.config.FreezeVoting == nil {
		return ErrFreezeVotingNotConfigured
	}
	var veto *models.Veto
	var w uint64
	var freezeRes *freezeVoteResult
	err := v.db.Update(func(txn *database.Txn) error {
		rec, err := v.db.GetTimelockedTransaction(v.config.Guard[:], txHash[:], txn)
		if err != nil {
			if errors.Is(err, models.ErrTimelockedTransactionNotFound) {
				return ErrNotTimelocked
			}
			return err
		}
		veto, err = v.db.GetVeto(v.config.Address[:], txHash[:], txn)
		if err != nil {
			return err
		}
		if veto.Vetoed {
			return ErrAlreadyVetoed
		}
		veto.TimelockedAt = rec.TimelockedAt
		w, err = v.config.Source.RecordFreezeVote(
			txn,
			v.config.Address,
			voter,
			v.VetoContext(txHash, rec.TimelockedAt),
			snapshotBefore(rec.TimelockedAt),
			votes,
		)
		if err != nil {
			return err
		}
		count := uint64(veto.VoteCount)
		if w > math.MaxUint64-count {
			return ErrVoteCountOverflow
		}
		count += w
		veto.VoteCount = types.Uint64(count)
		if count >= v.config.VetoVotesThreshold {
			veto.Vetoed = true
			veto.VetoedAt = v.clock.Now()
		}
		if err := v.db.SaveVeto(veto, txn); err != nil {
			return err
		}
		if alsoFreeze {
			freezeRes, err = v.config.FreezeVoting.castFreezeVote(txn, voter, votes)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		v.logger.Debug(
			"veto vote rejected",
			"voter", voter.String(),
			"tx_hash", txHash.String(),
			"error", err,
		)
		return err
	}
	v.metrics.votes.Inc()
	v.config.EventBus.Publish(event.NewEvent(
		event.VetoVoteCastEventType,
		event.VetoVoteCastEvent{
			VetoVoting: v.config.Address,
			Voter:      voter,
			TxHash:     txHash,
			Weight:     w,
			VoteCount:  uint64(veto.VoteCount),
			AlsoFreeze: alsoFreeze,
		},
	))
	v.logger.Info(
		"veto vote cast",
		"voter", voter.String(),
		"tx_hash", txHash.String(),
		"weight", w,
		"vote_count", uint64(veto.VoteCount),
	)
	if veto.Vetoed {
		v.metrics.vetoes.Inc()
		v.config.EventBus.Publish(event.NewEvent(
			event.TransactionVetoedEventType,
			event.TransactionVetoedEvent{
				VetoVoting: v.config.Address,
				TxHash:     txHash,
				VetoedAt:   veto.VetoedAt,
			},
		))
		v.logger.Warn(
			"transaction vetoed",
			"tx_hash", txHash.String(),
			"vetoed_at", veto.VetoedAt,
		)
	}
	if freezeRes != nil {
		v.config.FreezeVoting.publishVote(freezeRes)
	}
	return nil
}

// Status returns the veto tally of a transaction
func (v *Veto) Status(txHash common.Hash, txn *database.Txn) (VetoStatus, error) {
	rec, err := v.db.GetVeto(v.config.Address[:], txHash[:], txn)
	if err != nil {
		return VetoStatus{}, err
	}
	return VetoStatus{
		TxHash:       txHash,
		TimelockedAt: rec.TimelockedAt,
		VoteCount:    uint64(rec.VoteCount),
		Vetoed:       rec.Vetoed,
		VetoedAt:     rec.VetoedAt,
	}, nil
}

func (v *Veto) IsVetoed(txHash common.Hash, txn *database.Txn) (bool, error) {
	st, err := v.Status(txHash, txn)
	if err != nil {
		return false, err
	}
	return st.Vetoed, nil
}

// LastVetoTime returns the most recent veto time, or zero. It is never cleared
func (v *Veto) LastVetoTime(txn *database.Txn) (uint64, error) {
	return v.db.LastVetoTime(v.config.Address[:], txn)
}
