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

package treasury

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type vaultMetrics struct {
	transactions *prometheus.CounterVec
	failures     prometheus.Counter
	balance      prometheus.Gauge
}

func (v *Vault) initMetrics() {
	promautoFactory := promauto.With(v.config.PromRegistry)
	v.metrics = &vaultMetrics{
		transactions: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "govern_treasury_transactions_total",
				Help: "total transactions executed by operation",
			},
			[]string{"operation"},
		),
		failures: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "govern_treasury_failed_batches_total",
			Help: "total transaction batches rolled back",
		}),
		balance: promautoFactory.NewGauge(prometheus.GaugeOpts{
			Name: "govern_treasury_balance",
			Help: "current vault balance",
		}),
	}
}
