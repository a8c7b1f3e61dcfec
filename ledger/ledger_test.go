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

package ledger_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blinklabs-io/govern/clock"
	"github.com/blinklabs-io/govern/common"
	"github.com/blinklabs-io/govern/ledger"
	"github.com/blinklabs-io/govern/weight"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.DeriveAddress("test", []byte("alice"))
	bob   = common.DeriveAddress("test", []byte("bob"))
)

// Compile-time checks
var (
	_ weight.VotesSource      = (*ledger.Ledger)(nil)
	_ weight.OwnershipSource  = (*ledger.Ledger)(nil)
	_ weight.MembershipSource = (*ledger.Ledger)(nil)
)

func newLedger(t *testing.T) (*ledger.Ledger, *clock.ManualClock) {
	t.Helper()
	clk := clock.NewManualClock(100)
	l, err := ledger.New(ledger.Config{Clock: clk})
	require.NoError(t, err)
	return l, clk
}

func TestPastVotes(t *testing.T) {
	l, clk := newLedger(t)
	require.NoError(t, l.SetVotes(alice, 10))
	clk.Advance(10)
	require.NoError(t, l.SetVotes(alice, 25))
	// Same timestamp replaces the checkpoint
	require.NoError(t, l.SetVotes(alice, 30))
	clk.Advance(10)

	tests := []struct {
		ts    uint64
		votes uint64
	}{
		{99, 0},
		{100, 10},
		{109, 10},
		{110, 30},
		{119, 30},
		{120, 30},
	}
	for _, tc := range tests {
		v, err := l.PastVotes(alice, tc.ts)
		require.NoError(t, err)
		assert.Equal(t, tc.votes, v, "timestamp %d", tc.ts)
	}
	assert.Equal(t, uint64(30), l.Votes(alice))
	_, err := l.PastVotes(alice, 121)
	assert.ErrorIs(t, err, ledger.ErrFutureLookup)
	assert.ErrorIs(t, l.SetVotes(common.Address{}, 1), ledger.ErrZeroAddress)
}

func TestTokenOwnership(t *testing.T) {
	l, clk := newLedger(t)
	require.NoError(t, l.TransferToken(1, alice))
	require.NoError(t, l.TransferToken(2, alice))
	clk.Advance(5)
	require.NoError(t, l.TransferToken(1, bob))
	clk.Advance(5)

	owner, err := l.OwnerAt(1, 100)
	require.NoError(t, err)
	assert.Equal(t, alice, owner)
	owner, err = l.OwnerAt(1, 105)
	require.NoError(t, err)
	assert.Equal(t, bob, owner)
	owner, err = l.OwnerAt(3, 105)
	require.NoError(t, err)
	assert.True(t, owner.IsZero())
	assert.Equal(t, bob, l.OwnerOf(1))

	bal, err := l.BalanceAt(alice, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), bal)
	bal, err = l.BalanceAt(alice, 105)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), bal)
	bal, err = l.BalanceAt(bob, 105)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), bal)
}

func TestMembership(t *testing.T) {
	l, clk := newLedger(t)
	require.NoError(t, l.AddMember(alice))
	require.NoError(t, l.AddMember(bob))
	clk.Advance(1)
	require.NoError(t, l.RemoveMember(bob))
	clk.Advance(1)
	member, err := l.IsMember(bob, 100)
	require.NoError(t, err)
	assert.True(t, member)
	member, err = l.IsMember(bob, 101)
	require.NoError(t, err)
	assert.False(t, member)
	assert.Equal(t, []common.Address{alice}, l.Members())
}

func TestSeed(t *testing.T) {
	doc := strings.Join([]string{
		"votes:",
		"  \"" + alice.String() + "\": 700",
		"tokens:",
		"  7: \"" + bob.String() + "\"",
		"members:",
		"  - \"" + alice.String() + "\"",
	}, "\n")
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	seed, err := ledger.LoadSeedFile(path)
	require.NoError(t, err)
	l, clk := newLedger(t)
	require.NoError(t, l.Apply(seed))
	clk.Advance(1)
	v, err := l.PastVotes(alice, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(700), v)
	assert.Equal(t, bob, l.OwnerOf(7))
	assert.Equal(t, []common.Address{alice}, l.Members())

	_, err = ledger.LoadSeed(strings.NewReader("votes: [1, 2"))
	assert.Error(t, err)
	empty, err := ledger.LoadSeed(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, empty.Votes)
}

func TestLedgerWeights(t *testing.T) {
	l, clk := newLedger(t)
	require.NoError(t, l.SetVotes(alice, 40))
	require.NoError(t, l.TransferToken(9, alice))
	clk.Advance(1)
	w, _, err := weight.NewERC20Weight(l, 2, clk).CalculateWeight(alice, 100, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(80), w)
	w, _, err = weight.NewERC721Weight(l, 3, clk).CalculateWeight(alice, 100, common.EncodeTokenIDs([]uint64{9}))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), w)
}
