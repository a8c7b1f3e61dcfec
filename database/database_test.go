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

package database_test

import (
	"errors"
	"testing"

	"github.com/blinklabs-io/govern/database"
	"github.com/blinklabs-io/govern/database/models"
	"github.com/blinklabs-io/govern/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testGovernor = []byte("governor-address-000")
	testStrategy = []byte("strategy-address-000")
)

func newTestDatabase(t *testing.T, dataDir string) *database.Database {
	t.Helper()
	db, err := database.New(&database.Config{DataDir: dataDir})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func TestInMemoryDatabasesAreIsolated(t *testing.T) {
	db1 := newTestDatabase(t, "")
	db2 := newTestDatabase(t, "")
	require.NoError(t, db1.CreateProposal(&models.Proposal{
		Governor:        testGovernor,
		ProposalID:      0,
		Strategy:        testStrategy,
		Proposer:        []byte("p"),
		ProposerAdapter: []byte("a"),
		TxHashes:        []byte{},
	}, nil))
	count, err := db1.ProposalCount(testGovernor, nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), count)
	count, err = db2.ProposalCount(testGovernor, nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), count)
}

func TestProposalLifecycle(t *testing.T) {
	db := newTestDatabase(t, "")
	hashes := make([]byte, 64)
	hashes[0] = 0xaa
	hashes[32] = 0xbb
	for i := range uint32(3) {
		require.NoError(t, db.CreateProposal(&models.Proposal{
			Governor:        testGovernor,
			ProposalID:      i,
			Strategy:        testStrategy,
			Proposer:        []byte("p"),
			ProposerAdapter: []byte("a"),
			TxHashes:        hashes,
			TimelockPeriod:  10,
			ExecutionPeriod: 20,
			SubmittedAt:     100,
		}, nil))
	}
	p, err := db.GetProposal(testGovernor, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, p.TxHashCount())
	assert.Equal(t, byte(0xbb), p.TxHash(1)[0])
	require.NoError(t, db.SetProposalExecutionCounter(testGovernor, 1, 2, nil))
	p, err = db.GetProposal(testGovernor, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), p.ExecutionCounter)
	_, err = db.GetProposal(testGovernor, 7, nil)
	assert.ErrorIs(t, err, models.ErrProposalNotFound)
	assert.ErrorIs(
		t,
		db.SetProposalExecutionCounter(testGovernor, 7, 1, nil),
		models.ErrProposalNotFound,
	)
	list, err := db.ListProposals(testGovernor, 1, 10, nil)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, uint32(1), list[0].ProposalID)
	all, err := db.ListProposals(testGovernor, 0, 0, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestVotingDetailsReset(t *testing.T) {
	db := newTestDatabase(t, "")
	require.NoError(t, db.SetVotingDetails(&models.VotingDetails{
		Strategy:    testStrategy,
		ProposalID:  0,
		VotingStart: 100,
		VotingEnd:   200,
	}, nil))
	vd, err := db.GetVotingDetails(testStrategy, 0, nil)
	require.NoError(t, err)
	vd.YesVotes = 5
	vd.NoVotes = 3
	require.NoError(t, db.UpdateVotingTallies(vd, nil))
	vd, err = db.GetVotingDetails(testStrategy, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, types.Uint64(5), vd.YesVotes)
	// Initializing again replaces the window and zeroes the tallies
	require.NoError(t, db.SetVotingDetails(&models.VotingDetails{
		Strategy:    testStrategy,
		ProposalID:  0,
		VotingStart: 300,
		VotingEnd:   400,
	}, nil))
	vd, err = db.GetVotingDetails(testStrategy, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), vd.VotingStart)
	assert.Equal(t, types.Uint64(0), vd.YesVotes)
	assert.Equal(t, types.Uint64(0), vd.NoVotes)
	_, err = db.GetVotingDetails(testStrategy, 1, nil)
	assert.ErrorIs(t, err, models.ErrVotingDetailsNotFound)
}

func TestRollbackDiscardsBothStores(t *testing.T) {
	db := newTestDatabase(t, "")
	key := types.AddressVoteMarkKey(testStrategy, []byte("ctx"), []byte("voter"))
	errBoom := errors.New("boom")
	err := db.Update(func(txn *database.Txn) error {
		if err := db.SetVoteMark(key, txn); err != nil {
			return err
		}
		if err := db.CreateVote(&models.Vote{
			Strategy: testStrategy,
			Voter:    []byte("voter"),
		}, txn); err != nil {
			return err
		}
		// Visible inside the transaction
		voted, err := db.HasVoteMark(key, txn)
		require.NoError(t, err)
		assert.True(t, voted)
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)
	voted, err := db.HasVoteMark(key, nil)
	require.NoError(t, err)
	assert.False(t, voted)
	votes, err := db.ListVotes(testStrategy, 0, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, votes)
	// Commit makes both visible
	require.NoError(t, db.Update(func(txn *database.Txn) error {
		if err := db.SetVoteMark(key, txn); err != nil {
			return err
		}
		return db.CreateVote(&models.Vote{
			Strategy: testStrategy,
			Voter:    []byte("voter"),
		}, txn)
	}))
	voted, err = db.HasVoteMark(key, nil)
	require.NoError(t, err)
	assert.True(t, voted)
	votes, err = db.ListVotes(testStrategy, 0, 0, nil)
	require.NoError(t, err)
	assert.Len(t, votes, 1)
}

func TestReadOnlyTxnRejectsWrites(t *testing.T) {
	db := newTestDatabase(t, "")
	key := types.AddressVoteMarkKey(testStrategy, []byte("ctx"), []byte("voter"))
	err := db.View(func(txn *database.Txn) error {
		return db.SetVoteMark(key, txn)
	})
	assert.ErrorIs(t, err, types.ErrReadOnlyTxn)
	assert.ErrorIs(t, db.SetVoteMark(key, nil), types.ErrNilTxn)
}

func TestFinishedTxnRejected(t *testing.T) {
	db := newTestDatabase(t, "")
	txn := db.Transaction(true)
	require.NoError(t, txn.Commit())
	key := types.AddressVoteMarkKey(testStrategy, []byte("ctx"), []byte("voter"))
	assert.ErrorIs(t, db.SetVoteMark(key, txn), types.ErrTxnFinished)
}

func TestFreezeStateDefaults(t *testing.T) {
	db := newTestDatabase(t, "")
	addr := []byte("freeze-voting-000000")
	state, err := db.GetFreezeState(addr, nil)
	require.NoError(t, err)
	assert.Zero(t, state.ID)
	assert.False(t, state.Frozen)
	state.Frozen = true
	state.LastFreezeTime = 42
	require.NoError(t, db.SaveFreezeState(state, nil))
	state, err = db.GetFreezeState(addr, nil)
	require.NoError(t, err)
	assert.NotZero(t, state.ID)
	assert.True(t, state.Frozen)
	assert.Equal(t, uint64(42), state.LastFreezeTime)
}

func TestPersistentReopen(t *testing.T) {
	dataDir := t.TempDir()
	db, err := database.New(&database.Config{DataDir: dataDir})
	require.NoError(t, err)
	key := types.TokenVoteMarkKey(testStrategy, []byte("ctx"), 7)
	require.NoError(t, db.Update(func(txn *database.Txn) error {
		return db.SetVoteMark(key, txn)
	}))
	require.NoError(t, db.Close())
	// Reopening checks the commit timestamps in both stores agree
	db = newTestDatabase(t, dataDir)
	voted, err := db.HasVoteMark(key, nil)
	require.NoError(t, err)
	assert.True(t, voted)
}

func TestParametersAndMemberships(t *testing.T) {
	db := newTestDatabase(t, "")
	params, err := db.GetParameters(testStrategy, nil)
	require.NoError(t, err)
	assert.Empty(t, params)
	require.NoError(t, db.SetParameter(testStrategy, "quorum_threshold", 10, nil))
	require.NoError(t, db.SetParameter(testStrategy, "quorum_threshold", 25, nil))
	require.NoError(t, db.SetParameter(testGovernor, "quorum_threshold", 99, nil))
	params, err = db.GetParameters(testStrategy, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]uint64{"quorum_threshold": 25}, params)

	member := []byte("freeze-voting-addr-0")
	require.NoError(t, db.SetMembership(testStrategy, models.MembershipKindFreezeVoter, member, true, 100, nil))
	require.NoError(t, db.SetMembership(testStrategy, models.MembershipKindFreezeVoter, member, false, 200, nil))
	rows, err := db.ListMemberships(testStrategy, models.MembershipKindFreezeVoter, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].Enabled)
	assert.Equal(t, uint64(200), rows[0].UpdatedAt)
	rows, err = db.ListMemberships(testStrategy, models.MembershipKindStrategy, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
