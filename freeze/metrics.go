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

package freeze

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type votingMetrics struct {
	votes     *prometheus.CounterVec
	freezes   prometheus.Counter
	unfreezes prometheus.Counter
}

func (v *Voting) initMetrics() {
	promautoFactory := promauto.With(v.config.PromRegistry)
	v.metrics = &votingMetrics{
		votes: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "govern_freeze_votes_total",
				Help: "total freeze and unfreeze votes cast",
			},
			[]string{"kind"},
		),
		freezes: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "govern_freeze_freezes_total",
			Help: "total freezes activated",
		}),
		unfreezes: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "govern_freeze_unfreezes_total",
			Help: "total unfreezes",
		}),
	}
}

type vetoMetrics struct {
	votes  prometheus.Counter
	vetoes prometheus.Counter
}

func (v *Veto) initMetrics() {
	promautoFactory := promauto.With(v.config.PromRegistry)
	v.metrics = &vetoMetrics{
		votes: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "govern_freeze_veto_votes_total",
			Help: "total veto votes cast",
		}),
		vetoes: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "govern_freeze_vetoes_total",
			Help: "total transactions vetoed",
		}),
	}
}
