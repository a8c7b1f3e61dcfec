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

package governor

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/blinklabs-io/govern/common"
	"github.com/blinklabs-io/govern/database"
	"github.com/blinklabs-io/govern/database/models"
	"github.com/blinklabs-io/govern/event"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/blinklabs-io/govern/governor")

// ProposalState is computed from stored timestamps and tallies on every read
type ProposalState int

const (
	ProposalStateActive ProposalState = iota
	ProposalStateFailed
	ProposalStateTimelocked
	ProposalStateExecutable
	ProposalStateExecuted
	ProposalStateExpired
)

func (s ProposalState) String() string {
	switch s {
	case ProposalStateActive:
		return "active"
	case ProposalStateFailed:
		return "failed"
	case ProposalStateTimelocked:
		return "timelocked"
	case ProposalStateExecutable:
		return "executable"
	case ProposalStateExecuted:
		return "executed"
	case ProposalStateExpired:
		return "expired"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

func (s ProposalState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Proposal struct {
	Strategy         common.Address `json:"strategy"`
	Proposer         common.Address `json:"proposer"`
	ProposerAdapter  common.Address `json:"proposerAdapter"`
	Metadata         string         `json:"metadata"`
	TxHashes         []common.Hash  `json:"txHashes"`
	TimelockPeriod   uint64         `json:"timelockPeriod"`
	ExecutionPeriod  uint64         `json:"executionPeriod"`
	SubmittedAt      uint64         `json:"submittedAt"`
	ID               uint32         `json:"id"`
	ExecutionCounter uint32         `json:"executionCounter"`
}

func proposalFromModel(m *models.Proposal) *Proposal {
	ret := &Proposal{
		ID:               m.ProposalID,
		Strategy:         common.BytesToAddress(m.Strategy),
		Proposer:         common.BytesToAddress(m.Proposer),
		ProposerAdapter:  common.BytesToAddress(m.ProposerAdapter),
		Metadata:         m.Metadata,
		TimelockPeriod:   m.TimelockPeriod,
		ExecutionPeriod:  m.ExecutionPeriod,
		SubmittedAt:      m.SubmittedAt,
		ExecutionCounter: m.ExecutionCounter,
		TxHashes:         make([]common.Hash, m.TxHashCount()),
	}
	for i := range ret.TxHashes {
		copy(ret.TxHashes[i][:], m.TxHash(i))
	}
	return ret
}

func addSaturating(a uint64, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

func (g *Governor) loadProposal(proposalID uint32, txn *database.Txn) (*models.Proposal, error) {
	p, err := g.db.GetProposal(g.config.Address[:], proposalID, txn)
	if err != nil {
		if errors.Is(err, models.ErrProposalNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrProposalNotFound, proposalID)
		}
		return nil, err
	}
	return p, nil
}

// SubmitProposal creates a proposal and opens its voting window. The current
// strategy, timelock and execution periods are copied to the proposal
func (g *Governor) SubmitProposal(
	ctx context.Context,
	proposerAddr common.Address,
	txs []common.Transaction,
	metadata string,
	adapterAddr common.Address,
	adapterData []byte,
) (uint32, error) {
	ctx, span := tracer.Start(ctx, "governor.SubmitProposal")
	defer span.End()
	proposalID, hashes, err := g.submitProposal(ctx, proposerAddr, txs, metadata, adapterAddr, adapterData)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	span.SetAttributes(attribute.Int64("proposal_id", int64(proposalID)))
	g.metrics.proposalsSubmitted.Inc()
	g.config.EventBus.Publish(event.NewEvent(
		event.ProposalCreatedEventType,
		event.ProposalCreatedEvent{
			Governor:        g.config.Address,
			Strategy:        g.Strategy().Address(),
			Proposer:        proposerAddr,
			ProposerAdapter: adapterAddr,
			Metadata:        metadata,
			TxHashes:        hashes,
			ProposalID:      proposalID,
		},
	))
	g.logger.Info(
		"proposal submitted",
		"proposal_id", proposalID,
		"proposer", proposerAddr.String(),
		"transactions", len(txs),
	)
	return proposalID, nil
}

func (g *Governor) submitProposal(
	ctx context.Context,
	proposerAddr common.Address,
	txs []common.Transaction,
	metadata string,
	adapterAddr common.Address,
	adapterData []byte,
) (uint32, []common.Hash, error) {
	if len(txs) == 0 {
		return 0, nil, ErrNoTransactions
	}
	if len(txs) > math.MaxUint32 {
		return 0, nil, ErrTooManyTransactions
	}
	g.mu.RLock()
	adapter, ok := g.adapters[adapterAddr]
	strategy := g.strategy
	timelockPeriod := g.timelockPeriod
	executionPeriod := g.executionPeriod
	g.mu.RUnlock()
	if !ok {
		return 0, nil, fmt.Errorf("%w: %s", ErrInvalidProposerAdapter, adapterAddr)
	}
	eligible, err := adapter.IsProposer(proposerAddr, adapterData)
	if err != nil {
		return 0, nil, fmt.Errorf("check proposer: %w", err)
	}
	if !eligible {
		return 0, nil, fmt.Errorf("%w: %s", ErrInvalidProposer, proposerAddr)
	}
	var proposalID uint32
	var hashes []common.Hash
	err = g.db.Update(func(txn *database.Txn) error {
		count, err := g.db.ProposalCount(g.config.Address[:], txn)
		if err != nil {
			return err
		}
		proposalID = count
		hashes = make([]common.Hash, 0, len(txs))
		hashBytes := make([]byte, 0, len(txs)*common.HashLength)
		for i, tx := range txs {
			h := TransactionHash(
				g.domainSeparator,
				tx,
				TransactionNonce(count, uint32(i)), //nolint:gosec
			)
			hashes = append(hashes, h)
			hashBytes = append(hashBytes, h[:]...)
		}
		if err := strategy.InitializeProposal(ctx, g.config.Address, proposalID, txn); err != nil {
			return fmt.Errorf("initialize proposal on strategy: %w", err)
		}
		return g.db.CreateProposal(&models.Proposal{
			Governor:        g.config.Address.Bytes(),
			ProposalID:      proposalID,
			Strategy:        strategy.Address().Bytes(),
			Proposer:        proposerAddr.Bytes(),
			ProposerAdapter: adapterAddr.Bytes(),
			TxHashes:        hashBytes,
			TimelockPeriod:  timelockPeriod,
			ExecutionPeriod: executionPeriod,
			Metadata:        metadata,
			SubmittedAt:     g.clock.Now(),
		}, txn)
	})
	if err != nil {
		return 0, nil, err
	}
	return proposalID, hashes, nil
}

// Proposal returns a stored proposal
func (g *Governor) Proposal(proposalID uint32, txn *database.Txn) (*Proposal, error) {
	p, err := g.loadProposal(proposalID, txn)
	if err != nil {
		return nil, err
	}
	return proposalFromModel(p), nil
}

// Proposals returns stored proposals ordered by id
func (g *Governor) Proposals(offset int, limit int) ([]*Proposal, error) {
	rows, err := g.db.ListProposals(g.config.Address[:], offset, limit, nil)
	if err != nil {
		return nil, err
	}
	ret := make([]*Proposal, 0, len(rows))
	for i := range rows {
		ret = append(ret, proposalFromModel(&rows[i]))
	}
	return ret, nil
}

// ProposalCount returns the number of proposals submitted so far
func (g *Governor) ProposalCount() (uint32, error) {
	return g.db.ProposalCount(g.config.Address[:], nil)
}

// ProposalState computes the current state of a proposal
func (g *Governor) ProposalState(proposalID uint32, txn *database.Txn) (ProposalState, error) {
	p, err := g.loadProposal(proposalID, txn)
	if err != nil {
		return 0, err
	}
	state, _, err := g.proposalState(p, txn)
	return state, err
}

// proposalState also returns the end of the voting window
func (g *Governor) proposalState(
	p *models.Proposal,
	txn *database.Txn,
) (ProposalState, uint64, error) {
	s, err := g.strategyAt(common.BytesToAddress(p.Strategy))
	if err != nil {
		return 0, 0, err
	}
	_, votingEnd, err := s.VotingTimestamps(p.ProposalID, txn)
	if err != nil {
		return 0, 0, err
	}
	now := g.clock.Now()
	if now <= votingEnd {
		return ProposalStateActive, votingEnd, nil
	}
	passed, err := s.IsPassed(p.ProposalID, txn)
	if err != nil {
		return 0, 0, err
	}
	if !passed {
		return ProposalStateFailed, votingEnd, nil
	}
	if int(p.ExecutionCounter) == p.TxHashCount() {
		return ProposalStateExecuted, votingEnd, nil
	}
	timelockEnd := addSaturating(votingEnd, p.TimelockPeriod)
	if now <= timelockEnd {
		return ProposalStateTimelocked, votingEnd, nil
	}
	if now <= addSaturating(timelockEnd, p.ExecutionPeriod) {
		return ProposalStateExecutable, votingEnd, nil
	}
	return ProposalStateExpired, votingEnd, nil
}

// ExecuteProposal executes the next transactions of an executable proposal.
// txs is either the batch starting at the execution counter or the full
// transaction list, in which case execution resumes at the counter
func (g *Governor) ExecuteProposal(
	ctx context.Context,
	proposalID uint32,
	txs []common.Transaction,
) error {
	ctx, span := tracer.Start(ctx, "governor.ExecuteProposal")
	defer span.End()
	span.SetAttributes(attribute.Int64("proposal_id", int64(proposalID)))
	first, count, completed, err := g.executeProposal(ctx, proposalID, txs)
	if err != nil {
		g.metrics.executionFailures.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.logger.Warn(
			"proposal execution failed",
			"proposal_id", proposalID,
			"error", err,
		)
		return err
	}
	g.metrics.transactionsExecuted.Add(float64(count))
	if completed {
		g.metrics.proposalsExecuted.Inc()
	}
	g.config.EventBus.Publish(event.NewEvent(
		event.ProposalExecutedEventType,
		event.ProposalExecutedEvent{
			Governor:   g.config.Address,
			ProposalID: proposalID,
			FirstIndex: first,
			Count:      count,
			Completed:  completed,
		},
	))
	g.logger.Info(
		"proposal executed",
		"proposal_id", proposalID,
		"first_index", first,
		"count", count,
		"completed", completed,
	)
	return nil
}

func (g *Governor) executeProposal(
	ctx context.Context,
	proposalID uint32,
	txs []common.Transaction,
) (uint32, uint32, bool, error) {
	if len(txs) == 0 {
		return 0, 0, false, ErrNoTransactions
	}
	var first, count uint32
	var completed bool
	err := g.db.Update(func(txn *database.Txn) error {
		p, err := g.loadProposal(proposalID, txn)
		if err != nil {
			return err
		}
		state, votingEnd, err := g.proposalState(p, txn)
		if err != nil {
			return err
		}
		if state != ProposalStateExecutable {
			return &ProposalStateError{
				Err:        ErrProposalNotExecutable,
				ProposalID: proposalID,
				State:      state,
			}
		}
		total := p.TxHashCount()
		counter := int(p.ExecutionCounter)
		batch := txs
		if len(batch) > total-counter {
			if len(batch) != total {
				return ErrTooManyTransactions
			}
			batch = batch[counter:]
		}
		if limit := g.config.MaxTransactionsPerCall; limit > 0 && len(batch) > limit {
			batch = batch[:limit]
		}
		for i, tx := range batch {
			idx := counter + i
			actual := TransactionHash(
				g.domainSeparator,
				tx,
				TransactionNonce(p.ProposalID, uint32(idx)), //nolint:gosec
			)
			expected, _ := common.BytesToHash(p.TxHash(idx))
			if actual != expected {
				return &TxHashMismatchError{
					ProposalID: proposalID,
					Index:      uint32(idx), //nolint:gosec
					Expected:   expected,
					Actual:     actual,
				}
			}
		}
		if g.config.Guard != nil {
			// A proposal enters its timelock when voting ends
			if err := g.config.Guard.CheckProposal(proposalID, votingEnd, txn); err != nil {
				return err
			}
		}
		if err := g.config.Executor.ExecuteTransactions(ctx, batch); err != nil {
			txErr := &TxFailedError{
				Err:        err,
				ProposalID: proposalID,
				Index:      uint32(counter), //nolint:gosec
			}
			var indexed interface{ TxIndex() int }
			if errors.As(err, &indexed) {
				txErr.Index = uint32(counter + indexed.TxIndex()) //nolint:gosec
			}
			return txErr
		}
		newCounter := uint32(counter + len(batch)) //nolint:gosec
		if err := g.db.SetProposalExecutionCounter(g.config.Address[:], proposalID, newCounter, txn); err != nil {
			return err
		}
		first = uint32(counter)    //nolint:gosec
		count = uint32(len(batch)) //nolint:gosec
		completed = int(newCounter) == total
		return nil
	})
	if err != nil {
		return 0, 0, false, err
	}
	return first, count, completed, nil
}
