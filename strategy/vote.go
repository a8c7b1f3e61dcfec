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

package strategy

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/blinklabs-io/govern/common"
	"github.com/blinklabs-io/govern/database"
	"github.com/blinklabs-io/govern/database/models"
	"github.com/blinklabs-io/govern/database/types"
	"github.com/blinklabs-io/govern/event"
	"github.com/blinklabs-io/govern/tracker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/blinklabs-io/govern/strategy")

// ProposalVotes is the voting window and tallies of a proposal
type ProposalVotes struct {
	VotingStart      uint64 `json:"votingStart"`
	VotingEnd        uint64 `json:"votingEnd"`
	VotingStartBlock uint64 `json:"votingStartBlock"`
	Yes              uint64 `json:"yesVotes"`
	No               uint64 `json:"noVotes"`
	Abstain          uint64 `json:"abstainVotes"`
}

// Vote is a cast vote as kept for dashboards
type Vote struct {
	Voter         common.Address  `json:"voter"`
	ConfigIndexes []int           `json:"configIndexes"`
	Weight        uint64          `json:"weight"`
	CastAt        uint64          `json:"castAt"`
	VoteType      common.VoteType `json:"voteType"`
}

// VotingContext is the tracker context for a proposal's voting window.
// Re-initializing a proposal opens a new window with a new context
func (s *Strategy) VotingContext(proposalID uint32, votingStart uint64) common.Hash {
	return common.Keccak256(
		[]byte("vote"),
		s.config.Address[:],
		common.Uint32Bytes(proposalID),
		common.Uint64Bytes(votingStart),
	)
}

// InitializeProposal opens the voting window of a proposal. Calling it again
// replaces the window and resets the tallies
func (s *Strategy) InitializeProposal(
	ctx context.Context,
	caller common.Address,
	proposalID uint32,
	txn *database.Txn,
) error {
	_, span := tracer.Start(ctx, "strategy.InitializeProposal")
	defer span.End()
	if caller != s.config.Admin {
		return ErrNotAdmin
	}
	now := s.clock.Now()
	votingPeriod := s.VotingPeriod()
	if votingPeriod > math.MaxUint64-now {
		return ErrVotingEndOverflow
	}
	details := &models.VotingDetails{
		Strategy:         s.config.Address.Bytes(),
		ProposalID:       proposalID,
		VotingStart:      now,
		VotingEnd:        now + votingPeriod,
		VotingStartBlock: s.clock.BlockNumber(),
	}
	if err := s.db.SetVotingDetails(details, txn); err != nil {
		return err
	}
	s.metrics.proposalsInitialized.Inc()
	s.logger.Debug(
		"initialized proposal",
		"proposal_id", proposalID,
		"voting_start", details.VotingStart,
		"voting_end", details.VotingEnd,
	)
	return nil
}

func (s *Strategy) votingDetails(
	proposalID uint32,
	txn *database.Txn,
) (*models.VotingDetails, error) {
	details, err := s.db.GetVotingDetails(s.config.Address[:], proposalID, txn)
	if err != nil {
		if errors.Is(err, models.ErrVotingDetailsNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrProposalNotFound, proposalID)
		}
		return nil, err
	}
	return details, nil
}

// ProposalVotes returns the voting window and tallies of a proposal
func (s *Strategy) ProposalVotes(
	proposalID uint32,
	txn *database.Txn,
) (*ProposalVotes, error) {
	details, err := s.votingDetails(proposalID, txn)
	if err != nil {
		return nil, err
	}
	return &ProposalVotes{
		VotingStart:      details.VotingStart,
		VotingEnd:        details.VotingEnd,
		VotingStartBlock: details.VotingStartBlock,
		Yes:              uint64(details.YesVotes),
		No:               uint64(details.NoVotes),
		Abstain:          uint64(details.AbstainVotes),
	}, nil
}

// VotingTimestamps returns the start and end of a proposal's voting window
func (s *Strategy) VotingTimestamps(
	proposalID uint32,
	txn *database.Txn,
) (uint64, uint64, error) {
	details, err := s.votingDetails(proposalID, txn)
	if err != nil {
		return 0, 0, err
	}
	return details.VotingStart, details.VotingEnd, nil
}

// IsPassed evaluates the stored tallies against the quorum and basis rules.
// It does not look at the clock; callers gate on the voting window
func (s *Strategy) IsPassed(proposalID uint32, txn *database.Txn) (bool, error) {
	details, err := s.votingDetails(proposalID, txn)
	if err != nil {
		return false, err
	}
	yes := uint64(details.YesVotes)
	return s.IsQuorumMet(yes, uint64(details.AbstainVotes)) &&
		s.IsBasisMet(yes, uint64(details.NoVotes)), nil
}

// Votes returns the votes cast in a proposal's current voting window
func (s *Strategy) Votes(proposalID uint32, txn *database.Txn) ([]Vote, error) {
	details, err := s.votingDetails(proposalID, txn)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.ListVotes(
		s.config.Address[:],
		proposalID,
		details.VotingStart,
		txn,
	)
	if err != nil {
		return nil, err
	}
	ret := make([]Vote, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, Vote{
			Voter:         common.BytesToAddress(row.Voter),
			ConfigIndexes: parseConfigIndexes(row.Configs),
			Weight:        uint64(row.Weight),
			CastAt:        row.CastAt,
			VoteType:      common.VoteType(row.VoteType),
		})
	}
	return ret, nil
}

func (s *Strategy) validateSelection(votes []ConfigVote) error {
	return ValidateSelection(s.configs, votes)
}

// ValidateSelection checks that votes selects at least one config and that
// every index is in range and unique
func ValidateSelection(configs []VotingConfig, votes []ConfigVote) error {
	if len(votes) == 0 {
		return ErrNoConfigsSelected
	}
	seen := make(map[int]struct{}, len(votes))
	for _, v := range votes {
		if v.ConfigIndex < 0 || v.ConfigIndex >= len(configs) {
			return &ConfigIndexError{Err: ErrInvalidConfigIndex, ConfigIndex: v.ConfigIndex}
		}
		if _, ok := seen[v.ConfigIndex]; ok {
			return &ConfigIndexError{Err: ErrDuplicateConfigIndex, ConfigIndex: v.ConfigIndex}
		}
		seen[v.ConfigIndex] = struct{}{}
	}
	return nil
}

func (s *Strategy) resolveVoter(
	caller common.Address,
	lightAccountIndex uint64,
) (common.Address, error) {
	if lightAccountIndex == 0 {
		return caller, nil
	}
	if s.config.AccountResolver == nil {
		return common.ZeroAddress, ErrLightAccountsDisabled
	}
	return s.config.AccountResolver.ResolveVoter(caller, lightAccountIndex)
}

func (s *Strategy) applyVotes(
	txn *database.Txn,
	voter common.Address,
	contextID common.Hash,
	snapshot uint64,
	votes []ConfigVote,
) (uint64, error) {
	return RecordVotes(txn, s.configs, voter, contextID, snapshot, votes)
}

// RecordVotes weighs each selected config at snapshot, records the vote with
// its tracker inside txn and returns the summed weight. The selection must
// already have passed ValidateSelection
func RecordVotes(
	txn *database.Txn,
	configs []VotingConfig,
	voter common.Address,
	contextID common.Hash,
	snapshot uint64,
	votes []ConfigVote,
) (uint64, error) {
	var total uint64
	for _, v := range votes {
		vc := configs[v.ConfigIndex]
		w, processed, err := vc.Weight.CalculateWeight(voter, snapshot, v.VoteData)
		if err != nil || w == 0 {
			return 0, &NoVotingWeightError{Err: err, ConfigIndex: v.ConfigIndex}
		}
		trackData := processed
		if trackData == nil {
			trackData = v.VoteData
		}
		if err := vc.Tracker.RecordVote(txn, contextID, voter, trackData); err != nil {
			return 0, fmt.Errorf("config %d: %w", v.ConfigIndex, err)
		}
		if w > math.MaxUint64-total {
			return 0, ErrTallyOverflow
		}
		total += w
	}
	return total, nil
}

func addTally(tally *types.Uint64, w uint64) error {
	if w > math.MaxUint64-uint64(*tally) {
		return ErrTallyOverflow
	}
	*tally += types.Uint64(w)
	return nil
}

// CastVote casts a vote on an active proposal using one or more voting
// configs. Either every selected config contributes weight or nothing is
// recorded
func (s *Strategy) CastVote(
	ctx context.Context,
	caller common.Address,
	proposalID uint32,
	voteType common.VoteType,
	votes []ConfigVote,
	lightAccountIndex uint64,
) error {
	_, span := tracer.Start(ctx, "strategy.CastVote")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("proposal_id", int64(proposalID)),
		attribute.String("vote_type", voteType.String()),
	)
	weight, err := s.castVote(caller, proposalID, voteType, votes, lightAccountIndex)
	if err != nil {
		s.metrics.rejectedVotes.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(attribute.String("weight", strconv.FormatUint(weight, 10)))
	return nil
}

func (s *Strategy) castVote(
	caller common.Address,
	proposalID uint32,
	voteType common.VoteType,
	votes []ConfigVote,
	lightAccountIndex uint64,
) (uint64, error) {
	if !voteType.Valid() {
		return 0, ErrInvalidVoteType
	}
	if err := s.validateSelection(votes); err != nil {
		return 0, err
	}
	voter, err := s.resolveVoter(caller, lightAccountIndex)
	if err != nil {
		return 0, err
	}
	var total uint64
	var castAt uint64
	err = s.db.Update(func(txn *database.Txn) error {
		details, err := s.votingDetails(proposalID, txn)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		castAt = now
		if now < details.VotingStart || now > details.VotingEnd {
			if now > details.VotingEnd {
				s.recordLateVote(voter, proposalID, details.VotingEnd, now)
			}
			return &ProposalNotActiveError{
				ProposalID:  proposalID,
				Now:         now,
				VotingStart: details.VotingStart,
				VotingEnd:   details.VotingEnd,
			}
		}
		contextID := s.VotingContext(proposalID, details.VotingStart)
		total, err = s.applyVotes(txn, voter, contextID, details.VotingStart, votes)
		if err != nil {
			return err
		}
		switch voteType {
		case common.VoteNo:
			err = addTally(&details.NoVotes, total)
		case common.VoteYes:
			err = addTally(&details.YesVotes, total)
		case common.VoteAbstain:
			err = addTally(&details.AbstainVotes, total)
		}
		if err != nil {
			return err
		}
		if err := s.db.UpdateVotingTallies(details, txn); err != nil {
			return err
		}
		return s.db.CreateVote(&models.Vote{
			Strategy:    s.config.Address.Bytes(),
			ProposalID:  proposalID,
			VotingStart: details.VotingStart,
			Voter:       voter.Bytes(),
			VoteType:    uint8(voteType),
			Weight:      types.Uint64(total),
			Configs:     formatConfigIndexes(votes),
			CastAt:      now,
		}, txn)
	})
	if err != nil {
		return 0, err
	}
	s.metrics.votesCast.WithLabelValues(voteType.String()).Inc()
	s.metrics.voteWeight.WithLabelValues(voteType.String()).Add(float64(total))
	indexes := make([]int, 0, len(votes))
	for _, v := range votes {
		indexes = append(indexes, v.ConfigIndex)
	}
	s.config.EventBus.Publish(event.NewEvent(
		event.VoteCastEventType,
		event.VoteCastEvent{
			Strategy:      s.config.Address,
			Voter:         voter,
			ConfigIndexes: indexes,
			Weight:        total,
			ProposalID:    proposalID,
			VoteType:      voteType,
		},
	))
	s.logger.Info(
		"vote cast",
		"proposal_id", proposalID,
		"voter", voter.String(),
		"vote_type", voteType.String(),
		"weight", total,
		"cast_at", castAt,
	)
	return total, nil
}

func (s *Strategy) recordLateVote(
	voter common.Address,
	proposalID uint32,
	votingEnd uint64,
	now uint64,
) {
	s.metrics.lateVotes.Inc()
	s.config.EventBus.Publish(event.NewEvent(
		event.LateVoteAttemptedEventType,
		event.LateVoteAttemptedEvent{
			Strategy:    s.config.Address,
			Voter:       voter,
			VotingEnd:   votingEnd,
			AttemptedAt: now,
			ProposalID:  proposalID,
		},
	))
	s.logger.Warn(
		"late vote attempted",
		"proposal_id", proposalID,
		"voter", voter.String(),
		"voting_end", votingEnd,
		"attempted_at", now,
	)
}

// ValidateRelayedVote checks a vote for relay without reading the clock. It
// returns the weight the vote would carry
func (s *Strategy) ValidateRelayedVote(
	voter common.Address,
	proposalID uint32,
	votes []ConfigVote,
) (uint64, error) {
	if err := s.validateSelection(votes); err != nil {
		return 0, err
	}
	details, err := s.votingDetails(proposalID, nil)
	if err != nil {
		return 0, err
	}
	contextID := s.VotingContext(proposalID, details.VotingStart)
	var total uint64
	for _, v := range votes {
		vc := s.configs[v.ConfigIndex]
		w, processed, err := vc.Weight.WeightForPaymaster(voter, details.VotingStart, v.VoteData)
		if err != nil || w == 0 {
			return 0, &NoVotingWeightError{Err: err, ConfigIndex: v.ConfigIndex}
		}
		trackData := processed
		if trackData == nil {
			trackData = v.VoteData
		}
		voted, err := vc.Tracker.HasVoted(nil, contextID, voter, trackData)
		if err != nil {
			return 0, err
		}
		if voted {
			return 0, fmt.Errorf(
				"config %d: %w",
				v.ConfigIndex,
				&tracker.AlreadyVotedError{Voter: voter, ContextID: contextID},
			)
		}
		if w > math.MaxUint64-total {
			return 0, ErrTallyOverflow
		}
		total += w
	}
	return total, nil
}

func formatConfigIndexes(votes []ConfigVote) string {
	parts := make([]string, 0, len(votes))
	for _, v := range votes {
		parts = append(parts, strconv.Itoa(v.ConfigIndex))
	}
	return strings.Join(parts, ",")
}

func parseConfigIndexes(s string) []int {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	ret := make([]int, 0, len(parts))
	for _, p := range parts {
		i, err := strconv.Atoi(p)
		if err != nil {
			continue
		}
		ret = append(ret, i)
	}
	return ret
}
