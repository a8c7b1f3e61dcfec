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
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 500
)

var ErrInvalidPagination = errors.New("invalid pagination parameters")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
	})
}

// parsePagination reads offset and limit, clamping limit to MaxPageLimit
func parsePagination(r *http.Request) (int, int, error) {
	offset := 0
	limit := DefaultPageLimit
	query := r.URL.Query()
	if v := query.Get("offset"); v != "" {
		tmp, err := strconv.Atoi(v)
		if err != nil || tmp < 0 {
			return 0, 0, ErrInvalidPagination
		}
		offset = tmp
	}
	if v := query.Get("limit"); v != "" {
		tmp, err := strconv.Atoi(v)
		if err != nil || tmp < 1 {
			return 0, 0, ErrInvalidPagination
		}
		limit = min(tmp, MaxPageLimit)
	}
	return offset, limit, nil
}

func parseProposalID(r *http.Request) (uint32, error) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(id), nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: s.config.Version,
	})
}

func (s *Server) handleProposals(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	total, err := s.config.Source.ProposalCount()
	if err != nil {
		s.internalError(w, "failed to count proposals", err)
		return
	}
	proposals, err := s.config.Source.Proposals(offset, limit)
	if err != nil {
		s.internalError(w, "failed to list proposals", err)
		return
	}
	writeJSON(w, http.StatusOK, ProposalListResponse{
		Proposals: proposals,
		Total:     total,
		Offset:    offset,
		Limit:     limit,
	})
}

func (s *Server) handleProposal(w http.ResponseWriter, r *http.Request) {
	id, err := parseProposalID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid proposal id")
		return
	}
	info, err := s.config.Source.Proposal(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "proposal not found")
			return
		}
		s.internalError(w, "failed to get proposal", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleProposalVotes(w http.ResponseWriter, r *http.Request) {
	id, err := parseProposalID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid proposal id")
		return
	}
	votes, err := s.config.Source.ProposalVotes(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "proposal not found")
			return
		}
		s.internalError(w, "failed to get proposal votes", err)
		return
	}
	writeJSON(w, http.StatusOK, votes)
}

func (s *Server) handleFreeze(w http.ResponseWriter, _ *http.Request) {
	st, err := s.config.Source.Freeze()
	if err != nil {
		if errors.Is(err, ErrFreezeNotEnabled) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.internalError(w, "failed to get freeze status", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) internalError(w http.ResponseWriter, msg string, err error) {
	s.logger.Error(msg, "error", err)
	writeError(w, http.StatusInternalServerError, msg)
}
