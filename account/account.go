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

// Package account resolves relayed light accounts to the voter that owns them.
package account

import (
	"fmt"
	"slices"
	"sync"

	"github.com/blinklabs-io/govern/common"
)

var ErrNotLightAccount = common.NewError(
	common.KindAuthorization,
	"caller is not the light account for the given index",
)

var ErrZeroIndex = common.NewError(
	common.KindValidation,
	"light account index 0 is reserved for direct voting",
)

type lightAccount struct {
	owner common.Address
	index uint64
}

// Registry maps light accounts to their owners. A light account's address is
// derived from its owner and index
type Registry struct {
	mu       sync.RWMutex
	accounts map[common.Address]lightAccount
}

func NewRegistry() *Registry {
	return &Registry{
		accounts: make(map[common.Address]lightAccount),
	}
}

// LightAccountAddress returns the address of an owner's light account
func LightAccountAddress(owner common.Address, index uint64) common.Address {
	return common.DeriveAddress("light-account", owner[:], common.Uint64Bytes(index))
}

// Register creates the light account for an owner and index and returns its address
func (r *Registry) Register(owner common.Address, index uint64) (common.Address, error) {
	if index == 0 {
		return common.ZeroAddress, ErrZeroIndex
	}
	addr := LightAccountAddress(owner, index)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[addr] = lightAccount{owner: owner, index: index}
	return addr, nil
}

// ResolveVoter returns the voter on whose behalf caller acts. Index 0 means
// the caller votes for itself
func (r *Registry) ResolveVoter(
	caller common.Address,
	lightAccountIndex uint64,
) (common.Address, error) {
	if lightAccountIndex == 0 {
		return caller, nil
	}
	r.mu.RLock()
	acct, ok := r.accounts[caller]
	r.mu.RUnlock()
	if !ok || acct.index != lightAccountIndex {
		return common.ZeroAddress, fmt.Errorf(
			"%w: %s index %d",
			ErrNotLightAccount,
			caller,
			lightAccountIndex,
		)
	}
	return acct.owner, nil
}

// Accounts returns the registered light account addresses in sorted order
func (r *Registry) Accounts() []common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := make([]common.Address, 0, len(r.accounts))
	for addr := range r.accounts {
		ret = append(ret, addr)
	}
	slices.SortFunc(ret, common.Address.Compare)
	return ret
}
