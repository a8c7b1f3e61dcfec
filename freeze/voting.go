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

// Package freeze implements the emergency brake of a DAO: freeze voting,
// per-transaction vetoes and the guards that block execution while frozen
// or for transactions timelocked before the last freeze or veto.
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
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/blinklabs-io/govern/freeze")

type VotingConfig struct {
	Logger       *slog.Logger
	EventBus     *event.EventBus
	PromRegistry prometheus.Registerer
	Database     *database.Database
	Clock        clock.Clock
	Source       VoteSource
	Address      common.Address
	// Owner may unfreeze directly
	Owner                common.Address
	FreezeVotesThreshold uint64
	FreezeProposalPeriod uint64
	// Unfreezing by vote is disabled while UnfreezeVotesThreshold is zero
	UnfreezeVotesThreshold uint64
	UnfreezeProposalPeriod uint64
}

// Status is a point-in-time view of a freeze voting component
type Status struct {
	Frozen                  bool   `json:"frozen"`
	FreezeProposalCreated   uint64 `json:"freezeProposalCreated"`
	FreezeProposalVoteCount uint64 `json:"freezeProposalVoteCount"`
	LastFreezeTime          uint64 `json:"lastFreezeTime"`
	UnfreezeProposalCreated uint64 `json:"unfreezeProposalCreated"`
	UnfreezeVoteCount       uint64 `json:"unfreezeVoteCount"`
	LastUnfreezeTime        uint64 `json:"lastUnfreezeTime"`
	Epoch                   uint64 `json:"epoch"`
}

type Voting struct {
	config  VotingConfig
	logger  *slog.Logger
	db      *database.Database
	clock   clock.Clock
	metrics *votingMetrics
}

func NewVoting(cfg VotingConfig) (*Voting, error) {
	if cfg.Database == nil {
		return nil, errors.New("freeze voting requires a database")
	}
	if cfg.Clock == nil {
		return nil, errors.New("freeze voting requires a clock")
	}
	if cfg.Source == nil {
		return nil, errors.New("freeze voting requires a vote source")
	}
	if cfg.Address.IsZero() || cfg.Owner.IsZero() {
		return nil, ErrZeroAddress
	}
	if cfg.FreezeVotesThreshold == 0 {
		return nil, ErrZeroThreshold
	}
	if cfg.FreezeProposalPeriod == 0 {
		return nil, ErrZeroPeriod
	}
	if cfg.UnfreezeVotesThreshold > 0 && cfg.UnfreezeProposalPeriod == 0 {
		return nil, ErrZeroPeriod
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	v := &Voting{
		config: cfg,
		logger: cfg.Logger.With("component", "freeze", "freeze_voting", cfg.Address.String()),
		db:     cfg.Database,
		clock:  cfg.Clock,
	}
	v.initMetrics()
	return v, nil
}

func (v *Voting) Address() common.Address {
	return v.config.Address
}

func (v *Voting) Owner() common.Address {
	return v.config.Owner
}

func (v *Voting) FreezeVotesThreshold() uint64 {
	return v.config.FreezeVotesThreshold
}

func (v *Voting) FreezeProposalPeriod() uint64 {
	return v.config.FreezeProposalPeriod
}

// FreezeContext identifies the freeze proposal created at the given time
// within a freeze epoch for vote tracking. The epoch changes on every
// unfreeze, so a proposal reopened in the same second gets a fresh context
func (v *Voting) FreezeContext(epoch uint64, proposalCreated uint64) common.Hash {
	return common.Keccak256(
		[]byte("freeze"),
		v.config.Address[:],
		common.Uint64Bytes(epoch),
		common.Uint64Bytes(proposalCreated),
	)
}

func (v *Voting) UnfreezeContext(epoch uint64, proposalCreated uint64) common.Hash {
	return common.Keccak256(
		[]byte("unfreeze"),
		v.config.Address[:],
		common.Uint64Bytes(epoch),
		common.Uint64Bytes(proposalCreated),
	)
}

func (v *Voting) state(txn *database.Txn) (*models.FreezeState, error) {
	return v.db.GetFreezeState(v.config.Address[:], txn)
}

// Status returns the current freeze state
func (v *Voting) Status(txn *database.Txn) (Status, error) {
	st, err := v.state(txn)
	if err != nil {
		return Status{}, err
	}
	return Status{
		Frozen:                  st.Frozen,
		FreezeProposalCreated:   st.FreezeProposalCreated,
		FreezeProposalVoteCount: uint64(st.FreezeProposalVoteCount),
		LastFreezeTime:          st.LastFreezeTime,
		UnfreezeProposalCreated: st.UnfreezeProposalCreated,
		UnfreezeVoteCount:       uint64(st.UnfreezeVoteCount),
		LastUnfreezeTime:        st.LastUnfreezeTime,
		Epoch:                   st.Epoch,
	}, nil
}

func (v *Voting) IsFrozen(txn *database.Txn) (bool, error) {
	st, err := v.state(txn)
	if err != nil {
		return false, err
	}
	return st.Frozen, nil
}

// checkTimelock rejects execution while frozen and for anything that entered
// its timelock at or before the last freeze
func (v *Voting) checkTimelock(timelockedAt uint64, txn *database.Txn) error {
	st, err := v.state(txn)
	if err != nil {
		return err
	}
	if st.Frozen {
		return ErrFrozen
	}
	if st.LastFreezeTime != 0 && timelockedAt <= st.LastFreezeTime {
		return ErrStaleTransaction
	}
	return nil
}

type freezeVoteResult struct {
	voter     common.Address
	created   uint64
	weight    uint64
	voteCount uint64
	unfreeze  bool
	// changedAt is set when the vote froze or unfroze
	changedAt uint64
}

// CastFreezeVote adds the voter's weight to the current freeze proposal,
// starting a new proposal when none is open or the previous one expired.
// Reaching the threshold freezes immediately
func (v *Voting) CastFreezeVote(
	ctx context.Context,
	voter common.Address,
	votes []strategy.ConfigVote,
) error {
	_, span := tracer.Start(ctx, "freeze.CastFreezeVote")
	defer span.End()
	var res *freezeVoteResult
	err := v.db.Update(func(txn *database.Txn) error {
		var err error
		res, err = v.castFreezeVote(txn, voter, votes)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		v.logger.Debug(
			"freeze vote rejected",
			"voter", voter.String(),
			"error", err,
		)
		return err
	}
	span.SetAttributes(attribute.Bool("frozen", res.changedAt != 0))
	v.publishVote(res)
	return nil
}

func (v *Voting) castFreezeVote(
	txn *database.Txn,
	voter common.Address,
	votes []strategy.ConfigVote,
) (*freezeVoteResult, error) {
	st, err := v.state(txn)
	if err != nil {
		return nil, err
	}
	if st.Frozen {
		return nil, ErrAlreadyFrozen
	}
	now := v.clock.Now()
	if st.FreezeProposalCreated == 0 ||
		now > addSaturating(st.FreezeProposalCreated, v.config.FreezeProposalPeriod) {
		st.FreezeProposalCreated = now
		st.FreezeProposalVoteCount = 0
	}
	w, err := v.config.Source.RecordFreezeVote(
		txn,
		v.config.Address,
		voter,
		v.FreezeContext(st.Epoch, st.FreezeProposalCreated),
		snapshotBefore(st.FreezeProposalCreated),
		votes,
	)
	if err != nil {
		return nil, err
	}
	count := uint64(st.FreezeProposalVoteCount)
	if w > math.MaxUint64-count {
		return nil, ErrVoteCountOverflow
	}
	count += w
	st.FreezeProposalVoteCount = types.Uint64(count)
	res := &freezeVoteResult{
		voter:     voter,
		created:   st.FreezeProposalCreated,
		weight:    w,
		voteCount: count,
	}
	if count >= v.config.FreezeVotesThreshold {
		st.Frozen = true
		st.LastFreezeTime = now
		res.changedAt = now
	}
	if err := v.db.CreateFreezeVote(
		&models.FreezeVote{
			FreezeVoting:    v.config.Address[:],
			Kind:            models.FreezeVoteKindFreeze,
			ProposalCreated: st.FreezeProposalCreated,
			Voter:           voter[:],
			Weight:          types.Uint64(w),
			CastAt:          now,
		},
		txn,
	); err != nil {
		return nil, err
	}
	if err := v.db.SaveFreezeState(st, txn); err != nil {
		return nil, err
	}
	return res, nil
}

// CastUnfreezeVote adds the voter's weight to the current unfreeze proposal.
// Reaching the unfreeze threshold lifts the freeze
func (v *Voting) CastUnfreezeVote(
	ctx context.Context,
	voter common.Address,
	votes []strategy.ConfigVote,
) error {
	_, span := tracer.Start(ctx, "freeze.CastUnfreezeVote")
	defer span.End()
	if v.config.UnfreezeVotesThreshold == 0 {
		return ErrUnfreezeVotingDisabled
	}
	var res *freezeVoteResult
	err := v.db.Update(func(txn *database.Txn) error {
		st, err := v.state(txn)
		if err != nil {
			return err
		}
		if !st.Frozen {
			return ErrNotFrozen
		}
		now := v.clock.Now()
		if st.UnfreezeProposalCreated == 0 ||
			now > addSaturating(st.UnfreezeProposalCreated, v.config.UnfreezeProposalPeriod) {
			st.UnfreezeProposalCreated = now
			st.UnfreezeVoteCount = 0
		}
		created := st.UnfreezeProposalCreated
		w, err := v.config.Source.RecordFreezeVote(
			txn,
			v.config.Address,
			voter,
			v.UnfreezeContext(st.Epoch, created),
			snapshotBefore(created),
			votes,
		)
		if err != nil {
			return err
		}
		count := uint64(st.UnfreezeVoteCount)
		if w > math.MaxUint64-count {
			return ErrVoteCountOverflow
		}
		count += w
		st.UnfreezeVoteCount = types.Uint64(count)
		res = &freezeVoteResult{
			voter:     voter,
			created:   created,
			weight:    w,
			voteCount: count,
			unfreeze:  true,
		}
		if count >= v.config.UnfreezeVotesThreshold {
			resetActivity(st, now)
			res.changedAt = now
		}
		if err := v.db.CreateFreezeVote(
			&models.FreezeVote{
				FreezeVoting:    v.config.Address[:],
				Kind:            models.FreezeVoteKindUnfreeze,
				ProposalCreated: created,
				Voter:           voter[:],
				Weight:          types.Uint64(w),
				CastAt:          now,
			},
			txn,
		); err != nil {
			return err
		}
		return v.db.SaveFreezeState(st, txn)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	v.publishVote(res)
	return nil
}

// Unfreeze lifts an active freeze. Only the owner may call it
func (v *Voting) Unfreeze(ctx context.Context, caller common.Address) error {
	_, span := tracer.Start(ctx, "freeze.Unfreeze")
	defer span.End()
	if caller != v.config.Owner {
		return ErrNotOwner
	}
	var now uint64
	err := v.db.Update(func(txn *database.Txn) error {
		st, err := v.state(txn)
		if err != nil {
			return err
		}
		if !st.Frozen {
			return ErrNotFrozen
		}
		now = v.clock.Now()
		resetActivity(st, now)
		return v.db.SaveFreezeState(st, txn)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	v.publishUnfrozen(now, false)
	return nil
}

// resetActivity clears the freeze and both proposals and starts a new epoch.
// LastFreezeTime is kept so that transactions timelocked before the freeze
// stay invalid
func resetActivity(st *models.FreezeState, now uint64) {
	st.Frozen = false
	st.FreezeProposalCreated = 0
	st.FreezeProposalVoteCount = 0
	st.UnfreezeProposalCreated = 0
	st.UnfreezeVoteCount = 0
	st.LastUnfreezeTime = now
	st.Epoch++
}

func (v *Voting) publishVote(res *freezeVoteResult) {
	kind := "freeze"
	if res.unfreeze {
		kind = "unfreeze"
	}
	v.metrics.votes.WithLabelValues(kind).Inc()
	v.config.EventBus.Publish(event.NewEvent(
		event.FreezeVoteCastEventType,
		event.FreezeVoteCastEvent{
			FreezeVoting:    v.config.Address,
			Voter:           res.voter,
			Weight:          res.weight,
			VoteCount:       res.voteCount,
			ProposalCreated: res.created,
			Unfreeze:        res.unfreeze,
		},
	))
	v.logger.Info(
		kind+" vote cast",
		"voter", res.voter.String(),
		"weight", res.weight,
		"vote_count", res.voteCount,
		"proposal_created", res.created,
	)
	if res.changedAt == 0 {
		return
	}
	if res.unfreeze {
		v.publishUnfrozen(res.changedAt, true)
		return
	}
	v.metrics.freezes.Inc()
	v.config.EventBus.Publish(event.NewEvent(
		event.FrozenEventType,
		event.FrozenEvent{
			FreezeVoting: v.config.Address,
			FrozenAt:     res.changedAt,
		},
	))
	v.logger.Warn("frozen", "frozen_at", res.changedAt)
}

func (v *Voting) publishUnfrozen(at uint64, voted bool) {
	v.metrics.unfreezes.Inc()
	v.config.EventBus.Publish(event.NewEvent(
		event.UnfrozenEventType,
		event.UnfrozenEvent{
			FreezeVoting: v.config.Address,
			UnfrozenAt:   at,
			Voted:        voted,
		},
	))
	v.logger.Info("unfrozen", "unfrozen_at", at, "voted", voted)
}
