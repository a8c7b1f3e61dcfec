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

package api

import (
	"errors"

	"github.com/blinklabs-io/govern/database"
	"github.com/blinklabs-io/govern/freeze"
	"github.com/blinklabs-io/govern/governor"
	"github.com/blinklabs-io/govern/strategy"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrFreezeNotEnabled = errors.New("freeze voting is not enabled")
)

// Source provides the governance data served by the API
type Source interface {
	ProposalCount() (uint32, error)
	Proposals(offset int, limit int) ([]ProposalInfo, error)
	Proposal(proposalID uint32) (ProposalInfo, error)
	ProposalVotes(proposalID uint32) (VotesResponse, error)
	Freeze() (FreezeResponse, error)
}

// DAOSource reads a governor, its strategy and an optional freeze voting
// component
type DAOSource struct {
	db       *database.Database
	governor *governor.Governor
	strategy *strategy.Strategy
	voting   *freeze.Voting
}

func NewDAOSource(
	db *database.Database,
	g *governor.Governor,
	s *strategy.Strategy,
	voting *freeze.Voting,
) *DAOSource {
	return &DAOSource{db: db, governor: g, strategy: s, voting: voting}
}

func (d *DAOSource) ProposalCount() (uint32, error) {
	return d.governor.ProposalCount()
}

func (d *DAOSource) Proposals(offset int, limit int) ([]ProposalInfo, error) {
	var ret []ProposalInfo
	err := d.db.View(func(txn *database.Txn) error {
		proposals, err := d.governor.Proposals(offset, limit)
		if err != nil {
			return err
		}
		ret = make([]ProposalInfo, 0, len(proposals))
		for _, p := range proposals {
			info, err := d.info(p, txn)
			if err != nil {
				return err
			}
			ret = append(ret, info)
		}
		return nil
	})
	return ret, err
}

func (d *DAOSource) Proposal(proposalID uint32) (ProposalInfo, error) {
	var ret ProposalInfo
	err := d.db.View(func(txn *database.Txn) error {
		p, err := d.governor.Proposal(proposalID, txn)
		if err != nil {
			return err
		}
		ret, err = d.info(p, txn)
		return err
	})
	if errors.Is(err, governor.ErrProposalNotFound) {
		return ret, ErrNotFound
	}
	return ret, err
}

func (d *DAOSource) info(p *governor.Proposal, txn *database.Txn) (ProposalInfo, error) {
	state, err := d.governor.ProposalState(p.ID, txn)
	if err != nil {
		return ProposalInfo{}, err
	}
	info := ProposalInfo{Proposal: p, State: state}
	// Proposals submitted through another strategy have no tallies here
	if p.Strategy == d.strategy.Address() {
		votes, err := d.strategy.ProposalVotes(p.ID, txn)
		if err != nil {
			return ProposalInfo{}, err
		}
		info.Votes = *votes
	}
	return info, nil
}

func (d *DAOSource) ProposalVotes(proposalID uint32) (VotesResponse, error) {
	ret := VotesResponse{ProposalID: proposalID}
	err := d.db.View(func(txn *database.Txn) error {
		tallies, err := d.strategy.ProposalVotes(proposalID, txn)
		if err != nil {
			return err
		}
		ret.Tallies = *tallies
		ret.Votes, err = d.strategy.Votes(proposalID, txn)
		return err
	})
	if errors.Is(err, strategy.ErrProposalNotFound) {
		return ret, ErrNotFound
	}
	return ret, err
}

func (d *DAOSource) Freeze() (FreezeResponse, error) {
	if d.voting == nil {
		return FreezeResponse{}, ErrFreezeNotEnabled
	}
	st, err := d.voting.Status(nil)
	if err != nil {
		return FreezeResponse{}, err
	}
	return FreezeResponse{
		FreezeVoting:         d.voting.Address(),
		FreezeVotesThreshold: d.voting.FreezeVotesThreshold(),
		FreezeProposalPeriod: d.voting.FreezeProposalPeriod(),
		Status:               st,
	}, nil
}
