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

package governor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type governorMetrics struct {
	proposalsSubmitted   prometheus.Counter
	proposalsExecuted    prometheus.Counter
	transactionsExecuted prometheus.Counter
	executionFailures    prometheus.Counter
}

func (g *Governor) initMetrics() {
	promautoFactory := promauto.With(g.config.PromRegistry)
	g.metrics = &governorMetrics{
		proposalsSubmitted: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "govern_governor_proposals_submitted_total",
			Help: "total proposals submitted",
		}),
		proposalsExecuted: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "govern_governor_proposals_executed_total",
			Help: "total proposals whose transactions were all executed",
		}),
		transactionsExecuted: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "govern_governor_transactions_executed_total",
			Help: "total proposal transactions executed",
		}),
		executionFailures: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "govern_governor_execution_failures_total",
			Help: "total failed proposal execution calls",
		}),
	}
}
