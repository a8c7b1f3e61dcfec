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

package governor_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/blinklabs-io/govern/clock"
	"github.com/blinklabs-io/govern/common"
	"github.com/blinklabs-io/govern/database"
	"github.com/blinklabs-io/govern/governor"
	"github.com/blinklabs-io/govern/proposer"
	"github.com/blinklabs-io/govern/strategy"
	"github.com/blinklabs-io/govern/tracker"
	"github.com/blinklabs-io/govern/weight"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice       = common.DeriveAddress("test", []byte("alice"))
	bob         = common.DeriveAddress("test", []byte("bob"))
	owner       = common.DeriveAddress("owner", []byte("test"))
	governorAdr = common.DeriveAddress("governor", []byte("test"))
	adapterAdr  = common.DeriveAddress("adapter", []byte("test"))
)

type fakeVotes map[common.Address]uint64

func (f fakeVotes) PastVotes(account common.Address, _ uint64) (uint64, error) {
	return f[account], nil
}

type indexedError struct {
	index int
}

func (e *indexedError) Error() string {
	return fmt.Sprintf("call %d reverted", e.index)
}

func (e *indexedError) TxIndex() int {
	return e.index
}

type fakeExecutor struct {
	executed []common.Transaction
	failAt   int
}

func (f *fakeExecutor) ExecuteTransactions(_ context.Context, txs []common.Transaction) error {
	for i := range txs {
		if f.failAt >= 0 && len(f.executed)+i == f.failAt {
			return &indexedError{index: i}
		}
	}
	f.executed = append(f.executed, txs...)
	return nil
}

type fakeGuard struct {
	err error
}

func (f *fakeGuard) CheckProposal(uint32, uint64, *database.Txn) error {
	return f.err
}

type fixture struct {
	db       *database.Database
	clk      *clock.ManualClock
	strategy *strategy.Strategy
	governor *governor.Governor
	executor *fakeExecutor
	guard    *fakeGuard
	votes    fakeVotes
}

func newFixture(t *testing.T, opts ...func(*governor.GovernorConfig)) *fixture {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	f := &fixture{
		db:       db,
		clk:      clock.NewManualClock(1000),
		executor: &fakeExecutor{failAt: -1},
		guard:    &fakeGuard{},
		votes:    fakeVotes{alice: 1000, bob: 10},
	}
	f.strategy, err = strategy.NewStrategy(strategy.StrategyConfig{
		Database: db,
		Clock:    f.clk,
		VotingConfigs: []strategy.VotingConfig{{
			Weight:  weight.NewERC20Weight(f.votes, 1, f.clk),
			Tracker: tracker.NewAddressTracker(db, common.DeriveAddress("tracker", nil)),
		}},
		Address:         common.DeriveAddress("strategy", []byte("test")),
		Admin:           governorAdr,
		VotingPeriod:    100,
		QuorumThreshold: 100,
		BasisNumerator:  500_000,
	})
	require.NoError(t, err)
	cfg := governor.GovernorConfig{
		Database: db,
		Clock:    f.clk,
		Strategy: f.strategy,
		Executor: f.executor,
		Guard:    f.guard,
		ProposerAdapters: []proposer.Adapter{
			proposer.NewERC20Adapter(adapterAdr, f.votes, 100, f.clk),
		},
		Address:         governorAdr,
		Owner:           owner,
		ChainID:         1,
		TimelockPeriod:  100,
		ExecutionPeriod: 50,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	f.governor, err = governor.NewGovernor(cfg)
	require.NoError(t, err)
	return f
}

func testTxs(n int) []common.Transaction {
	ret := make([]common.Transaction, 0, n)
	for i := range n {
		ret = append(ret, common.Transaction{
			To:    common.DeriveAddress("target", []byte{byte(i)}),
			Value: uint64(i),
			Data:  []byte{byte(i)},
		})
	}
	return ret
}

func (f *fixture) submit(t *testing.T, txs []common.Transaction) uint32 {
	t.Helper()
	id, err := f.governor.SubmitProposal(context.Background(), alice, txs, "test", adapterAdr, nil)
	require.NoError(t, err)
	return id
}

// submitPassed submits a proposal at the current time and votes it through.
// It returns the end of the voting window
func (f *fixture) submitPassed(t *testing.T, txs []common.Transaction) (uint32, uint64) {
	t.Helper()
	id := f.submit(t, txs)
	f.clk.Advance(1)
	require.NoError(t, f.strategy.CastVote(
		context.Background(),
		alice,
		id,
		common.VoteYes,
		[]strategy.ConfigVote{{ConfigIndex: 0}},
		0,
	))
	_, end, err := f.strategy.VotingTimestamps(id, nil)
	require.NoError(t, err)
	return id, end
}

func (f *fixture) state(t *testing.T, id uint32) governor.ProposalState {
	t.Helper()
	state, err := f.governor.ProposalState(id, nil)
	require.NoError(t, err)
	return state
}

func TestSubmitProposalAuthorization(t *testing.T) {
	f := newFixture(t)
	_, err := f.governor.SubmitProposal(context.Background(), bob, testTxs(1), "", adapterAdr, nil)
	assert.ErrorIs(t, err, governor.ErrInvalidProposer)
	assert.Equal(t, common.KindAuthorization, common.KindOf(err))
	other := common.DeriveAddress("adapter", []byte("other"))
	_, err = f.governor.SubmitProposal(context.Background(), alice, testTxs(1), "", other, nil)
	assert.ErrorIs(t, err, governor.ErrInvalidProposerAdapter)
	_, err = f.governor.SubmitProposal(context.Background(), alice, nil, "", adapterAdr, nil)
	assert.ErrorIs(t, err, governor.ErrNoTransactions)
	count, err := f.governor.ProposalCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestProposalIDsAndHashes(t *testing.T) {
	f := newFixture(t)
	txs := testTxs(2)
	id0 := f.submit(t, txs)
	id1 := f.submit(t, txs)
	assert.Equal(t, uint32(0), id0)
	assert.Equal(t, uint32(1), id1)
	p0, err := f.governor.Proposal(id0, nil)
	require.NoError(t, err)
	p1, err := f.governor.Proposal(id1, nil)
	require.NoError(t, err)
	require.Len(t, p0.TxHashes, 2)
	// Identical transactions never share a hash
	assert.NotEqual(t, p0.TxHashes[0], p0.TxHashes[1])
	assert.NotEqual(t, p0.TxHashes[0], p1.TxHashes[0])
	expected := governor.TransactionHash(
		f.governor.DomainSeparator(),
		txs[1],
		governor.TransactionNonce(1, 1),
	)
	assert.Equal(t, expected, p1.TxHashes[1])
	assert.Equal(t, f.strategy.Address(), p0.Strategy)
	list, err := f.governor.Proposals(0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestProposalStateTransitions(t *testing.T) {
	f := newFixture(t)
	id, end := f.submitPassed(t, testTxs(1))
	assert.Equal(t, governor.ProposalStateActive, f.state(t, id))
	f.clk.Set(end)
	assert.Equal(t, governor.ProposalStateActive, f.state(t, id))
	f.clk.Set(end + 50)
	assert.Equal(t, governor.ProposalStateTimelocked, f.state(t, id))
	f.clk.Set(end + 100)
	assert.Equal(t, governor.ProposalStateTimelocked, f.state(t, id))
	f.clk.Set(end + 101)
	assert.Equal(t, governor.ProposalStateExecutable, f.state(t, id))
	f.clk.Set(end + 150)
	assert.Equal(t, governor.ProposalStateExecutable, f.state(t, id))
	f.clk.Set(end + 152)
	assert.Equal(t, governor.ProposalStateExpired, f.state(t, id))
	err := f.governor.ExecuteProposal(context.Background(), id, testTxs(1))
	var stateErr *governor.ProposalStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, governor.ProposalStateExpired, stateErr.State)
	assert.ErrorIs(t, err, governor.ErrProposalNotExecutable)
}

func TestProposalFails(t *testing.T) {
	f := newFixture(t)
	id := f.submit(t, testTxs(1))
	f.clk.Advance(1)
	require.NoError(t, f.strategy.CastVote(
		context.Background(),
		bob,
		id,
		common.VoteYes,
		[]strategy.ConfigVote{{ConfigIndex: 0}},
		0,
	))
	f.clk.Set(1101)
	// Quorum is not met
	assert.Equal(t, governor.ProposalStateFailed, f.state(t, id))
	_, err := f.governor.ProposalState(9, nil)
	assert.ErrorIs(t, err, governor.ErrProposalNotFound)
}

func TestPartialExecutionResumes(t *testing.T) {
	f := newFixture(t)
	txs := testTxs(3)
	id, end := f.submitPassed(t, txs)
	f.clk.Set(end + 101)
	// Only the first transaction fit in the first call
	require.NoError(t, f.governor.ExecuteProposal(context.Background(), id, txs[:1]))
	p, err := f.governor.Proposal(id, nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), p.ExecutionCounter)
	assert.Equal(t, governor.ProposalStateExecutable, f.state(t, id))
	// The full list resumes at the counter
	require.NoError(t, f.governor.ExecuteProposal(context.Background(), id, txs))
	p, err = f.governor.Proposal(id, nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), p.ExecutionCounter)
	assert.Equal(t, governor.ProposalStateExecuted, f.state(t, id))
	assert.Equal(t, txs, f.executor.executed)
	// Executed is terminal even after the window closes
	f.clk.Set(end + 1000)
	assert.Equal(t, governor.ProposalStateExecuted, f.state(t, id))
}

func TestMaxTransactionsPerCall(t *testing.T) {
	f := newFixture(t, func(c *governor.GovernorConfig) {
		c.MaxTransactionsPerCall = 2
	})
	txs := testTxs(3)
	id, end := f.submitPassed(t, txs)
	f.clk.Set(end + 101)
	require.NoError(t, f.governor.ExecuteProposal(context.Background(), id, txs))
	p, err := f.governor.Proposal(id, nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), p.ExecutionCounter)
	require.NoError(t, f.governor.ExecuteProposal(context.Background(), id, txs[2:]))
	assert.Equal(t, governor.ProposalStateExecuted, f.state(t, id))
}

func TestExecuteHashMismatch(t *testing.T) {
	f := newFixture(t)
	txs := testTxs(2)
	id, end := f.submitPassed(t, txs)
	f.clk.Set(end + 101)
	bad := []common.Transaction{txs[1]}
	err := f.governor.ExecuteProposal(context.Background(), id, bad)
	var mismatch *governor.TxHashMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, uint32(0), mismatch.Index)
	assert.Equal(t, common.KindValidation, common.KindOf(err))
	assert.Empty(t, f.executor.executed)
	err = f.governor.ExecuteProposal(context.Background(), id, testTxs(3))
	assert.ErrorIs(t, err, governor.ErrTooManyTransactions)
}

func TestExecuteTxFailedAbortsCall(t *testing.T) {
	f := newFixture(t)
	txs := testTxs(3)
	id, end := f.submitPassed(t, txs)
	f.clk.Set(end + 101)
	f.executor.failAt = 1
	err := f.governor.ExecuteProposal(context.Background(), id, txs)
	var txErr *governor.TxFailedError
	require.ErrorAs(t, err, &txErr)
	assert.Equal(t, uint32(1), txErr.Index)
	assert.Equal(t, common.KindIntegrity, common.KindOf(err))
	p, err := f.governor.Proposal(id, nil)
	require.NoError(t, err)
	assert.Zero(t, p.ExecutionCounter)
}

func TestGuardBlocksExecution(t *testing.T) {
	f := newFixture(t)
	txs := testTxs(1)
	id, end := f.submitPassed(t, txs)
	f.clk.Set(end + 101)
	errFrozen := errors.New("frozen")
	f.guard.err = errFrozen
	assert.ErrorIs(t, f.governor.ExecuteProposal(context.Background(), id, txs), errFrozen)
	f.guard.err = nil
	require.NoError(t, f.governor.ExecuteProposal(context.Background(), id, txs))
}

func TestAdminUpdatesApplyToNewProposals(t *testing.T) {
	f := newFixture(t)
	id0 := f.submit(t, testTxs(1))
	assert.ErrorIs(t, f.governor.UpdateTimelockPeriod(alice, 5), governor.ErrNotOwner)
	require.NoError(t, f.governor.UpdateTimelockPeriod(owner, 5))
	require.NoError(t, f.governor.UpdateExecutionPeriod(owner, 7))
	id1 := f.submit(t, testTxs(1))
	p0, err := f.governor.Proposal(id0, nil)
	require.NoError(t, err)
	p1, err := f.governor.Proposal(id1, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), p0.TimelockPeriod)
	assert.Equal(t, uint64(50), p0.ExecutionPeriod)
	assert.Equal(t, uint64(5), p1.TimelockPeriod)
	assert.Equal(t, uint64(7), p1.ExecutionPeriod)
}

func TestProposerAdapterRegistry(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, []common.Address{adapterAdr}, f.governor.ProposerAdapters())
	assert.ErrorIs(t, f.governor.DisableProposerAdapter(alice, adapterAdr), governor.ErrNotOwner)
	require.NoError(t, f.governor.DisableProposerAdapter(owner, adapterAdr))
	_, err := f.governor.SubmitProposal(context.Background(), alice, testTxs(1), "", adapterAdr, nil)
	assert.ErrorIs(t, err, governor.ErrInvalidProposerAdapter)
	require.NoError(t, f.governor.EnableProposerAdapter(
		owner,
		proposer.NewERC20Adapter(adapterAdr, f.votes, 100, f.clk),
	))
	assert.True(t, f.governor.IsProposerAdapter(adapterAdr))
	f.submit(t, testTxs(1))
}

func TestSettingsSurviveRestart(t *testing.T) {
	f := newFixture(t)
	second, err := strategy.NewStrategy(strategy.StrategyConfig{
		Database: f.db,
		Clock:    f.clk,
		VotingConfigs: []strategy.VotingConfig{{
			Weight:  weight.NewERC20Weight(f.votes, 1, f.clk),
			Tracker: tracker.NewAddressTracker(f.db, common.DeriveAddress("tracker", []byte("second"))),
		}},
		Address:         common.DeriveAddress("strategy", []byte("second")),
		Admin:           governorAdr,
		VotingPeriod:    100,
		QuorumThreshold: 100,
		BasisNumerator:  500_000,
	})
	require.NoError(t, err)
	require.NoError(t, f.governor.UpdateStrategy(owner, second))
	require.NoError(t, f.governor.UpdateTimelockPeriod(owner, 5))
	id := f.submit(t, testTxs(1))
	require.NoError(t, f.governor.DisableProposerAdapter(owner, adapterAdr))

	restart := func(known ...governor.Strategy) *governor.Governor {
		t.Helper()
		g, err := governor.NewGovernor(governor.GovernorConfig{
			Database: f.db,
			Clock:    f.clk,
			Strategy: f.strategy,
			Executor: f.executor,
			Guard:    f.guard,
			ProposerAdapters: []proposer.Adapter{
				proposer.NewERC20Adapter(adapterAdr, f.votes, 100, f.clk),
			},
			KnownStrategies: known,
			Address:         governorAdr,
			Owner:           owner,
			ChainID:         1,
			TimelockPeriod:  100,
			ExecutionPeriod: 50,
		})
		require.NoError(t, err)
		return g
	}
	g := restart(second)
	assert.Equal(t, uint64(5), g.TimelockPeriod())
	assert.Equal(t, uint64(50), g.ExecutionPeriod())
	assert.Equal(t, second.Address(), g.Strategy().Address())
	assert.Empty(t, g.ProposerAdapters())
	state, err := g.ProposalState(id, nil)
	require.NoError(t, err)
	assert.Equal(t, governor.ProposalStateActive, state)

	// The second strategy is not configured
	g = restart()
	assert.Equal(t, f.strategy.Address(), g.Strategy().Address())
	_, err = g.ProposalState(id, nil)
	assert.ErrorIs(t, err, governor.ErrUnknownProposalStrategy)
}
