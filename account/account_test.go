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

package account_test

import (
	"testing"

	"github.com/blinklabs-io/govern/account"
	"github.com/blinklabs-io/govern/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveVoter(t *testing.T) {
	owner := common.DeriveAddress("test", []byte("owner"))
	r := account.NewRegistry()
	voter, err := r.ResolveVoter(owner, 0)
	require.NoError(t, err)
	assert.Equal(t, owner, voter)
	light, err := r.Register(owner, 1)
	require.NoError(t, err)
	assert.Equal(t, account.LightAccountAddress(owner, 1), light)
	voter, err = r.ResolveVoter(light, 1)
	require.NoError(t, err)
	assert.Equal(t, owner, voter)
	_, err = r.ResolveVoter(light, 2)
	assert.ErrorIs(t, err, account.ErrNotLightAccount)
	assert.Equal(t, common.KindAuthorization, common.KindOf(err))
	_, err = r.ResolveVoter(owner, 1)
	assert.ErrorIs(t, err, account.ErrNotLightAccount)
	_, err = r.Register(owner, 0)
	assert.ErrorIs(t, err, account.ErrZeroIndex)
	assert.Equal(t, []common.Address{light}, r.Accounts())
}
