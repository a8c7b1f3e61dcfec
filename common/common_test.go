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

package common_test

import (
	"encoding/hex"
	"errors"
	"fmt"
	"testing"

	"github.com/blinklabs-io/govern/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressHexRoundTrip(t *testing.T) {
	a, err := common.NewAddressFromHex("0x00000000000000000000000000000000000000aB")
	require.NoError(t, err)
	assert.Equal(t, "0x00000000000000000000000000000000000000ab", a.String())
	b, err := common.NewAddressFromHex("00000000000000000000000000000000000000ab")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	var c common.Address
	require.NoError(t, c.UnmarshalText([]byte(a.String())))
	assert.Equal(t, a, c)
}

func TestAddressInvalid(t *testing.T) {
	_, err := common.NewAddressFromHex("0x1234")
	assert.Error(t, err)
	_, err = common.NewAddressFromHex("zz")
	assert.Error(t, err)
}

func TestKeccak256KnownVector(t *testing.T) {
	// Keccak-256 of the empty string
	h := common.Keccak256()
	assert.Equal(
		t,
		"c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
		hex.EncodeToString(h[:]),
	)
}

func TestDeriveAddressDeterministic(t *testing.T) {
	a := common.DeriveAddress("strategy", []byte("dao"))
	b := common.DeriveAddress("strategy", []byte("dao"))
	c := common.DeriveAddress("governor", []byte("dao"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.False(t, a.IsZero())
}

func TestVoteTypeParse(t *testing.T) {
	for _, vt := range []common.VoteType{common.VoteNo, common.VoteYes, common.VoteAbstain} {
		parsed, err := common.ParseVoteType(vt.String())
		require.NoError(t, err)
		assert.Equal(t, vt, parsed)
	}
	assert.False(t, common.VoteType(3).Valid())
}

func TestKindOf(t *testing.T) {
	sentinel := common.NewError(common.KindState, "not active")
	wrapped := fmt.Errorf("cast vote: %w", sentinel)
	assert.Equal(t, common.KindState, common.KindOf(wrapped))
	assert.Equal(t, common.KindUnknown, common.KindOf(errors.New("plain")))
	assert.Equal(t, common.KindUnknown, common.KindOf(nil))
}

func TestTokenIDs(t *testing.T) {
	data := common.EncodeTokenIDs([]uint64{1, 0xffffffffffffffff})
	assert.Len(t, data, 16)
	ids, err := common.DecodeTokenIDs(data)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 0xffffffffffffffff}, ids)
	_, err = common.DecodeTokenIDs([]byte{1, 2, 3})
	assert.ErrorIs(t, err, common.ErrMalformedTokenIDs)
	ids, err = common.DecodeTokenIDs(nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
