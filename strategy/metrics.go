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

package strategy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type strategyMetrics struct {
	proposalsInitialized prometheus.Counter
	votesCast            *prometheus.CounterVec
	voteWeight           *prometheus.CounterVec
	lateVotes            prometheus.Counter
	rejectedVotes        prometheus.Counter
}

func (s *Strategy) initMetrics() {
	promautoFactory := promauto.With(s.config.PromRegistry)
	s.metrics = &strategyMetrics{
		proposalsInitialized: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "govern_strategy_proposals_initialized_total",
			Help: "total proposal voting windows opened",
		}),
		votesCast: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "govern_strategy_votes_total",
				Help: "total votes cast by vote type",
			},
			[]string{"vote_type"},
		),
		voteWeight: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "govern_strategy_vote_weight_total",
				Help: "total vote weight cast by vote type",
			},
			[]string{"vote_type"},
		),
		lateVotes: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "govern_strategy_late_votes_total",
			Help: "total votes attempted after the voting window closed",
		}),
		rejectedVotes: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "govern_strategy_rejected_votes_total",
			Help: "total votes rejected for any reason",
		}),
	}
}
