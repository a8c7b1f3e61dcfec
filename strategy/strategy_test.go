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

package strategy_test

import (
	"context"
	"testing"
	"time"

	"github.com/blinklabs-io/govern/account"
	"github.com/blinklabs-io/govern/clock"
	"github.com/blinklabs-io/govern/common"
	"github.com/blinklabs-io/govern/database"
	"github.com/blinklabs-io/govern/event"
	"github.com/blinklabs-io/govern/strategy"
	"github.com/blinklabs-io/govern/tracker"
	"github.com/blinklabs-io/govern/weight"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice    = common.DeriveAddress("test", []byte("alice"))
	bob      = common.DeriveAddress("test", []byte("bob"))
	carol    = common.DeriveAddress("test", []byte("carol"))
	governor = common.DeriveAddress("governor", []byte("test"))
	owner    = common.DeriveAddress("owner", []byte("test"))
)

type fakeVotes map[common.Address]uint64

func (f fakeVotes) PastVotes(account common.Address, _ uint64) (uint64, error) {
	return f[account], nil
}

type fakeMembers map[common.Address]bool

func (f fakeMembers) IsMember(account common.Address, _ uint64) (bool, error) {
	return f[account], nil
}

type fixture struct {
	db       *database.Database
	clk      *clock.ManualClock
	bus      *event.EventBus
	strategy *strategy.Strategy
	votes    fakeVotes
	members  fakeMembers
}

func newFixture(t *testing.T, opts ...func(*strategy.StrategyConfig)) *fixture {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	bus := event.NewEventBus(nil, nil)
	t.Cleanup(func() {
		bus.Stop()
		_ = db.Close()
	})
	f := &fixture{
		db:      db,
		clk:     clock.NewManualClock(1000),
		bus:     bus,
		votes:   fakeVotes{alice: 700, bob: 200, carol: 100},
		members: fakeMembers{alice: true},
	}
	cfg := strategy.StrategyConfig{
		Database: db,
		Clock:    f.clk,
		EventBus: bus,
		VotingConfigs: []strategy.VotingConfig{
			{
				Weight:  weight.NewERC20Weight(f.votes, 1, f.clk),
				Tracker: tracker.NewAddressTracker(db, common.DeriveAddress("tracker", []byte("0"))),
			},
			{
				Weight:  weight.NewAllowlistWeight(f.members, 5, f.clk),
				Tracker: tracker.NewAddressTracker(db, common.DeriveAddress("tracker", []byte("1"))),
			},
		},
		Address:         common.DeriveAddress("strategy", []byte("test")),
		Admin:           governor,
		Owner:           owner,
		VotingPeriod:    100,
		QuorumThreshold: 750,
		BasisNumerator:  600_000,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	f.strategy, err = strategy.NewStrategy(cfg)
	require.NoError(t, err)
	return f
}

func (f *fixture) initProposal(t *testing.T, id uint32) {
	t.Helper()
	require.NoError(t, f.strategy.InitializeProposal(context.Background(), governor, id, nil))
	// Weight snapshots must be strictly in the past
	f.clk.Advance(1)
}

func (f *fixture) vote(voter common.Address, id uint32, vt common.VoteType, configs ...int) error {
	votes := make([]strategy.ConfigVote, 0, len(configs))
	for _, c := range configs {
		votes = append(votes, strategy.ConfigVote{ConfigIndex: c})
	}
	return f.strategy.CastVote(context.Background(), voter, id, vt, votes, 0)
}

func TestNewStrategyValidation(t *testing.T) {
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	defer db.Close()
	clk := clock.NewManualClock(0)
	valid := func() strategy.StrategyConfig {
		return strategy.StrategyConfig{
			Database: db,
			Clock:    clk,
			VotingConfigs: []strategy.VotingConfig{{
				Weight:  weight.NewERC20Weight(fakeVotes{}, 1, clk),
				Tracker: tracker.NewAddressTracker(db, common.DeriveAddress("tracker", nil)),
			}},
			Address:        common.DeriveAddress("strategy", nil),
			Admin:          governor,
			VotingPeriod:   10,
			BasisNumerator: 500_000,
		}
	}
	testDefs := []struct {
		name   string
		modify func(*strategy.StrategyConfig)
		err    error
	}{
		{"no configs", func(c *strategy.StrategyConfig) { c.VotingConfigs = nil }, strategy.ErrNoVotingConfigs},
		{"basis too low", func(c *strategy.StrategyConfig) { c.BasisNumerator = 499_999 }, strategy.ErrInvalidBasisNumerator},
		{"basis too high", func(c *strategy.StrategyConfig) { c.BasisNumerator = 1_000_000 }, strategy.ErrInvalidBasisNumerator},
		{"zero period", func(c *strategy.StrategyConfig) { c.VotingPeriod = 0 }, strategy.ErrZeroVotingPeriod},
		{"zero admin", func(c *strategy.StrategyConfig) { c.Admin = common.ZeroAddress }, strategy.ErrZeroAddress},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			cfg := valid()
			testDef.modify(&cfg)
			_, err := strategy.NewStrategy(cfg)
			assert.ErrorIs(t, err, testDef.err)
			assert.Equal(t, common.KindValidation, common.KindOf(err))
		})
	}
	s, err := strategy.NewStrategy(valid())
	require.NoError(t, err)
	// Owner defaults to the admin
	assert.Equal(t, governor, s.Owner())
}

func TestQuorumAndBasis(t *testing.T) {
	f := newFixture(t)
	f.initProposal(t, 0)
	require.NoError(t, f.vote(alice, 0, common.VoteYes, 0))
	require.NoError(t, f.vote(bob, 0, common.VoteNo, 0))
	require.NoError(t, f.vote(carol, 0, common.VoteAbstain, 0))
	votes, err := f.strategy.ProposalVotes(0, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(700), votes.Yes)
	assert.Equal(t, uint64(200), votes.No)
	assert.Equal(t, uint64(100), votes.Abstain)
	assert.True(t, f.strategy.IsQuorumMet(700, 100))
	assert.True(t, f.strategy.IsBasisMet(700, 200))
	passed, err := f.strategy.IsPassed(0, nil)
	require.NoError(t, err)
	assert.True(t, passed)
	// Basis is strict
	assert.False(t, f.strategy.IsBasisMet(600, 400))
	assert.False(t, f.strategy.IsBasisMet(0, 0))
	assert.False(t, f.strategy.IsQuorumMet(700, 49))
	recorded, err := f.strategy.Votes(0, nil)
	require.NoError(t, err)
	require.Len(t, recorded, 3)
	assert.Equal(t, alice, recorded[0].Voter)
	assert.Equal(t, []int{0}, recorded[0].ConfigIndexes)
}

func TestVotingWindow(t *testing.T) {
	f := newFixture(t)
	err := f.vote(alice, 0, common.VoteYes, 0)
	assert.ErrorIs(t, err, strategy.ErrProposalNotFound)
	assert.ErrorIs(
		t,
		f.strategy.InitializeProposal(context.Background(), alice, 0, nil),
		strategy.ErrNotAdmin,
	)
	f.initProposal(t, 0)
	start, end, err := f.strategy.VotingTimestamps(0, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), start)
	assert.Equal(t, uint64(1100), end)
	// The end of the window is inclusive
	f.clk.Set(1100)
	require.NoError(t, f.vote(alice, 0, common.VoteYes, 0))
	_, lateCh := f.bus.Subscribe(event.LateVoteAttemptedEventType)
	f.clk.Set(1101)
	err = f.vote(bob, 0, common.VoteNo, 0)
	var notActive *strategy.ProposalNotActiveError
	require.ErrorAs(t, err, &notActive)
	assert.Equal(t, uint64(1101), notActive.Now)
	assert.Equal(t, common.KindState, common.KindOf(err))
	select {
	case evt := <-lateCh:
		late := evt.Data.(event.LateVoteAttemptedEvent)
		assert.Equal(t, bob, late.Voter)
	case <-time.After(time.Second):
		t.Fatal("no late vote event")
	}
	votes, err := f.strategy.ProposalVotes(0, nil)
	require.NoError(t, err)
	assert.Zero(t, votes.No)
}

func TestDoubleVote(t *testing.T) {
	f := newFixture(t)
	f.initProposal(t, 0)
	require.NoError(t, f.vote(alice, 0, common.VoteYes, 0))
	err := f.vote(alice, 0, common.VoteNo, 0)
	assert.ErrorIs(t, err, tracker.ErrAlreadyVoted)
	// The other config has its own tracker
	require.NoError(t, f.vote(alice, 0, common.VoteNo, 1))
	votes, err := f.strategy.ProposalVotes(0, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(700), votes.Yes)
	assert.Equal(t, uint64(5), votes.No)
}

func TestMultiConfigVoteIsAtomic(t *testing.T) {
	f := newFixture(t)
	f.initProposal(t, 0)
	// bob has token votes but is not on the allowlist
	err := f.vote(bob, 0, common.VoteYes, 0, 1)
	var noWeight *strategy.NoVotingWeightError
	require.ErrorAs(t, err, &noWeight)
	assert.Equal(t, 1, noWeight.ConfigIndex)
	assert.Equal(t, common.KindIntegrity, common.KindOf(err))
	votes, err := f.strategy.ProposalVotes(0, nil)
	require.NoError(t, err)
	assert.Zero(t, votes.Yes)
	// No tracker mark was left behind for config 0
	require.NoError(t, f.vote(bob, 0, common.VoteYes, 0))
	require.NoError(t, f.vote(alice, 0, common.VoteYes, 0, 1))
	votes, err = f.strategy.ProposalVotes(0, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(200+700+5), votes.Yes)
}

func TestCastVoteValidation(t *testing.T) {
	f := newFixture(t)
	f.initProposal(t, 0)
	assert.ErrorIs(t, f.vote(alice, 0, common.VoteType(3), 0), strategy.ErrInvalidVoteType)
	assert.ErrorIs(t, f.vote(alice, 0, common.VoteYes), strategy.ErrNoConfigsSelected)
	assert.ErrorIs(t, f.vote(alice, 0, common.VoteYes, 2), strategy.ErrInvalidConfigIndex)
	assert.ErrorIs(t, f.vote(alice, 0, common.VoteYes, 0, 0), strategy.ErrDuplicateConfigIndex)
	// Voting in the same second the window opened has no past snapshot
	require.NoError(t, f.strategy.InitializeProposal(context.Background(), governor, 1, nil))
	assert.ErrorIs(t, f.vote(alice, 1, common.VoteYes, 0), weight.ErrFutureSnapshot)
}

func TestReinitializeResetsTallies(t *testing.T) {
	f := newFixture(t)
	f.initProposal(t, 0)
	require.NoError(t, f.vote(alice, 0, common.VoteYes, 0))
	f.initProposal(t, 0)
	votes, err := f.strategy.ProposalVotes(0, nil)
	require.NoError(t, err)
	assert.Zero(t, votes.Yes)
	assert.Equal(t, uint64(1001), votes.VotingStart)
	// A new window has a new voting context
	require.NoError(t, f.vote(alice, 0, common.VoteYes, 0))
}

func TestParameterUpdates(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.strategy.UpdateVotingPeriod(alice, 10), strategy.ErrNotOwner)
	assert.ErrorIs(t, f.strategy.UpdateBasisNumerator(owner, 1_000_000), strategy.ErrInvalidBasisNumerator)
	assert.ErrorIs(t, f.strategy.UpdateVotingPeriod(owner, 0), strategy.ErrZeroVotingPeriod)
	f.initProposal(t, 0)
	require.NoError(t, f.strategy.UpdateVotingPeriod(owner, 10))
	require.NoError(t, f.strategy.UpdateQuorumThreshold(owner, 1))
	require.NoError(t, f.strategy.UpdateBasisNumerator(owner, 750_000))
	assert.Equal(t, uint64(1), f.strategy.QuorumThreshold())
	assert.Equal(t, uint64(750_000), f.strategy.BasisNumerator())
	// Existing proposals keep their window
	_, end, err := f.strategy.VotingTimestamps(0, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1100), end)
	f.initProposal(t, 1)
	_, end, err = f.strategy.VotingTimestamps(1, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1011), end)
}

func TestVotingConfigsAreCopies(t *testing.T) {
	f := newFixture(t)
	configs := f.strategy.VotingConfigs()
	require.Len(t, configs, 2)
	configs[0] = strategy.VotingConfig{}
	vc, err := f.strategy.VotingConfig(0)
	require.NoError(t, err)
	assert.NotNil(t, vc.Weight)
	_, err = f.strategy.VotingConfig(2)
	assert.ErrorIs(t, err, strategy.ErrInvalidConfigIndex)
}

func TestAuthorizedFreezeVoters(t *testing.T) {
	f := newFixture(t)
	fv1 := common.DeriveAddress("freeze", []byte("1"))
	fv2 := common.DeriveAddress("freeze", []byte("2"))
	assert.ErrorIs(t, f.strategy.AddAuthorizedFreezeVoter(owner, fv1), strategy.ErrNotAdmin)
	require.NoError(t, f.strategy.AddAuthorizedFreezeVoter(governor, fv1))
	require.NoError(t, f.strategy.AddAuthorizedFreezeVoter(governor, fv2))
	assert.ErrorIs(t, f.strategy.AddAuthorizedFreezeVoter(governor, fv1), strategy.ErrFreezeVoterExists)
	list := f.strategy.AuthorizedFreezeVoters()
	require.Len(t, list, 2)
	assert.Negative(t, list[0].Compare(list[1]))
	require.NoError(t, f.strategy.RemoveAuthorizedFreezeVoter(governor, fv1))
	assert.False(t, f.strategy.IsAuthorizedFreezeVoter(fv1))
	assert.True(t, f.strategy.IsAuthorizedFreezeVoter(fv2))
	assert.ErrorIs(t, f.strategy.RemoveAuthorizedFreezeVoter(governor, fv1), strategy.ErrFreezeVoterNotFound)
}

func TestRecordFreezeVote(t *testing.T) {
	f := newFixture(t)
	fv := common.DeriveAddress("freeze", []byte("1"))
	ctxID := common.Keccak256([]byte("freeze-context"))
	votes := []strategy.ConfigVote{{ConfigIndex: 0}}
	err := f.db.Update(func(txn *database.Txn) error {
		_, err := f.strategy.RecordFreezeVote(txn, fv, alice, ctxID, 900, votes)
		return err
	})
	assert.ErrorIs(t, err, strategy.ErrNotFreezeVoter)
	require.NoError(t, f.strategy.AddAuthorizedFreezeVoter(governor, fv))
	var got uint64
	require.NoError(t, f.db.Update(func(txn *database.Txn) error {
		var err error
		got, err = f.strategy.RecordFreezeVote(txn, fv, alice, ctxID, 900, votes)
		return err
	}))
	assert.Equal(t, uint64(700), got)
	err = f.db.Update(func(txn *database.Txn) error {
		_, err := f.strategy.RecordFreezeVote(txn, fv, alice, ctxID, 900, votes)
		return err
	})
	assert.ErrorIs(t, err, tracker.ErrAlreadyVoted)
}

func TestRecordVotes(t *testing.T) {
	f := newFixture(t)
	configs := f.strategy.VotingConfigs()
	assert.ErrorIs(t, strategy.ValidateSelection(configs, nil), strategy.ErrNoConfigsSelected)
	assert.ErrorIs(
		t,
		strategy.ValidateSelection(configs, []strategy.ConfigVote{{ConfigIndex: 2}}),
		strategy.ErrInvalidConfigIndex,
	)
	assert.ErrorIs(
		t,
		strategy.ValidateSelection(configs, []strategy.ConfigVote{{ConfigIndex: 0}, {ConfigIndex: 0}}),
		strategy.ErrDuplicateConfigIndex,
	)
	ctxID := common.Keccak256([]byte("record-votes"))
	both := []strategy.ConfigVote{{ConfigIndex: 0}, {ConfigIndex: 1}}
	require.NoError(t, strategy.ValidateSelection(configs, both))
	var got uint64
	require.NoError(t, f.db.Update(func(txn *database.Txn) error {
		var err error
		got, err = strategy.RecordVotes(txn, configs, alice, ctxID, 900, both)
		return err
	}))
	assert.Equal(t, uint64(705), got)
	// carol is not a member
	err := f.db.Update(func(txn *database.Txn) error {
		_, err := strategy.RecordVotes(txn, configs, carol, ctxID, 900, both)
		return err
	})
	assert.ErrorIs(t, err, strategy.ErrNoVotingWeight)
}

func TestValidateRelayedVote(t *testing.T) {
	f := newFixture(t)
	f.initProposal(t, 0)
	votes := []strategy.ConfigVote{{ConfigIndex: 0}, {ConfigIndex: 1}}
	got, err := f.strategy.ValidateRelayedVote(alice, 0, votes)
	require.NoError(t, err)
	assert.Equal(t, uint64(705), got)
	_, err = f.strategy.ValidateRelayedVote(bob, 0, votes)
	assert.ErrorIs(t, err, strategy.ErrNoVotingWeight)
	require.NoError(t, f.vote(alice, 0, common.VoteYes, 0))
	_, err = f.strategy.ValidateRelayedVote(alice, 0, votes)
	assert.ErrorIs(t, err, tracker.ErrAlreadyVoted)
}

func TestLightAccountVote(t *testing.T) {
	registry := account.NewRegistry()
	f := newFixture(t, func(c *strategy.StrategyConfig) {
		c.AccountResolver = registry
	})
	light, err := registry.Register(alice, 1)
	require.NoError(t, err)
	f.initProposal(t, 0)
	votes := []strategy.ConfigVote{{ConfigIndex: 0}}
	err = f.strategy.CastVote(context.Background(), bob, 0, common.VoteYes, votes, 1)
	assert.ErrorIs(t, err, account.ErrNotLightAccount)
	require.NoError(t, f.strategy.CastVote(context.Background(), light, 0, common.VoteYes, votes, 1))
	// The vote counted for alice
	assert.ErrorIs(t, f.vote(alice, 0, common.VoteYes, 0), tracker.ErrAlreadyVoted)
	pv, err := f.strategy.ProposalVotes(0, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(700), pv.Yes)
}

func TestSettingsSurviveRestart(t *testing.T) {
	f := newFixture(t)
	fv1 := common.DeriveAddress("freeze", []byte("1"))
	fv2 := common.DeriveAddress("freeze", []byte("2"))
	require.NoError(t, f.strategy.UpdateVotingPeriod(owner, 10))
	require.NoError(t, f.strategy.UpdateQuorumThreshold(owner, 1))
	require.NoError(t, f.strategy.UpdateBasisNumerator(owner, 750_000))
	require.NoError(t, f.strategy.AddAuthorizedFreezeVoter(governor, fv1))
	require.NoError(t, f.strategy.AddAuthorizedFreezeVoter(governor, fv2))
	require.NoError(t, f.strategy.RemoveAuthorizedFreezeVoter(governor, fv1))

	// Same address and database, original configuration
	restarted, err := strategy.NewStrategy(strategy.StrategyConfig{
		Database:               f.db,
		Clock:                  f.clk,
		VotingConfigs:          f.strategy.VotingConfigs(),
		AuthorizedFreezeVoters: []common.Address{fv1},
		Address:                f.strategy.Address(),
		Admin:                  governor,
		Owner:                  owner,
		VotingPeriod:           100,
		QuorumThreshold:        750,
		BasisNumerator:         600_000,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(10), restarted.VotingPeriod())
	assert.Equal(t, uint64(1), restarted.QuorumThreshold())
	assert.Equal(t, uint64(750_000), restarted.BasisNumerator())
	assert.Equal(t, []common.Address{fv2}, restarted.AuthorizedFreezeVoters())
}
