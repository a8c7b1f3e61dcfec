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

// Package proposer decides which addresses may submit proposals.
package proposer

import (
	"fmt"

	"github.com/blinklabs-io/govern/clock"
	"github.com/blinklabs-io/govern/common"
	"github.com/blinklabs-io/govern/weight"
)

// Adapter answers whether an address may submit a proposal
type Adapter interface {
	Address() common.Address
	IsProposer(proposer common.Address, data []byte) (bool, error)
}

// ERC20Adapter accepts proposers whose current delegated votes reach a threshold
type ERC20Adapter struct {
	address   common.Address
	source    weight.VotesSource
	clock     clock.Clock
	threshold uint64
}

func NewERC20Adapter(
	address common.Address,
	source weight.VotesSource,
	threshold uint64,
	clk clock.Clock,
) *ERC20Adapter {
	return &ERC20Adapter{
		address:   address,
		source:    source,
		threshold: threshold,
		clock:     clk,
	}
}

func (a *ERC20Adapter) Address() common.Address {
	return a.address
}

func (a *ERC20Adapter) IsProposer(proposer common.Address, _ []byte) (bool, error) {
	votes, err := a.source.PastVotes(proposer, a.clock.Now())
	if err != nil {
		return false, fmt.Errorf("lookup votes: %w", err)
	}
	return votes >= a.threshold, nil
}

// ERC721Adapter accepts proposers that currently own enough tokens
type ERC721Adapter struct {
	address   common.Address
	source    weight.OwnershipSource
	clock     clock.Clock
	threshold uint64
}

func NewERC721Adapter(
	address common.Address,
	source weight.OwnershipSource,
	threshold uint64,
	clk clock.Clock,
) *ERC721Adapter {
	return &ERC721Adapter{
		address:   address,
		source:    source,
		threshold: threshold,
		clock:     clk,
	}
}

func (a *ERC721Adapter) Address() common.Address {
	return a.address
}

func (a *ERC721Adapter) IsProposer(proposer common.Address, _ []byte) (bool, error) {
	balance, err := a.source.BalanceAt(proposer, a.clock.Now())
	if err != nil {
		return false, fmt.Errorf("lookup balance: %w", err)
	}
	return balance >= a.threshold, nil
}

// AllowlistAdapter accepts current members of a role
type AllowlistAdapter struct {
	address common.Address
	source  weight.MembershipSource
	clock   clock.Clock
}

func NewAllowlistAdapter(
	address common.Address,
	source weight.MembershipSource,
	clk clock.Clock,
) *AllowlistAdapter {
	return &AllowlistAdapter{
		address: address,
		source:  source,
		clock:   clk,
	}
}

func (a *AllowlistAdapter) Address() common.Address {
	return a.address
}

func (a *AllowlistAdapter) IsProposer(proposer common.Address, _ []byte) (bool, error) {
	return a.source.IsMember(proposer, a.clock.Now())
}
