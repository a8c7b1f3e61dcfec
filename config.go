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

package govern

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/govern/clock"
	"github.com/blinklabs-io/govern/common"
	"github.com/blinklabs-io/govern/ledger"
	"github.com/blinklabs-io/govern/strategy"
	"github.com/prometheus/client_golang/prometheus"
)

// DAOParams are the governance parameters of the DAO run by a Node
type DAOParams struct {
	Name                   string
	Owner                  common.Address
	ChainID                uint64
	VotingPeriod           uint64
	QuorumThreshold        uint64
	BasisNumerator         uint64
	TimelockPeriod         uint64
	ExecutionPeriod        uint64
	MaxTransactionsPerCall int
	// ProposerThreshold is the voting power required to submit a proposal
	ProposerThreshold uint64
	// Weight multipliers of the token, NFT and member voting configs. A
	// config is left out when its multiplier is zero
	WeightPerToken          uint64
	WeightPerNFT            uint64
	WeightPerMember         uint64
	FreezeVotesThreshold    uint64
	FreezeProposalPeriod    uint64
	VetoVotesThreshold      uint64
	MultisigTimelockPeriod  uint64
	MultisigExecutionPeriod uint64
	TreasuryBalance         uint64
	AllowDelegateCall       bool
	LightAccounts           bool
}

// DefaultDAOParams returns parameters for a single token-weighted DAO
func DefaultDAOParams() DAOParams {
	return DAOParams{
		Name:                 "govern",
		ChainID:              1,
		VotingPeriod:         3 * 24 * 60 * 60,
		QuorumThreshold:      1,
		BasisNumerator:       strategy.MinBasisNumerator,
		TimelockPeriod:       24 * 60 * 60,
		ExecutionPeriod:      7 * 24 * 60 * 60,
		WeightPerToken:       1,
		FreezeProposalPeriod: 7 * 24 * 60 * 60,
	}
}

type Config struct {
	promRegistry     prometheus.Registerer
	logger           *slog.Logger
	clock            clock.Clock
	dataDir          string
	apiListenAddress string
	ledgerSeedFile   string
	ledgerSeed       *ledger.Seed
	version          string
	dao              DAOParams
	tracing          bool
	tracingStdout    bool
	shutdownTimeout  time.Duration
}

func (c *Config) validate() error {
	if c.dao.Name == "" {
		return errors.New("no DAO name configured")
	}
	if c.dao.Owner.IsZero() {
		return errors.New("no DAO owner configured")
	}
	if c.dao.WeightPerToken == 0 && c.dao.WeightPerNFT == 0 && c.dao.WeightPerMember == 0 {
		return errors.New("no voting weight configured")
	}
	if c.dao.VetoVotesThreshold > 0 && c.dao.FreezeVotesThreshold == 0 {
		return errors.New("veto voting requires freeze voting")
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the Node config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new govern config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
		dao:    DefaultDAOParams(),
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithLogger specifies the logger to use
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPrometheusRegistry specifies the prometheus registry to use for metrics
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithClock specifies the clock voting windows and timelocks are measured
// against. The default follows wall-clock time
func WithClock(clk clock.Clock) ConfigOptionFunc {
	return func(c *Config) {
		c.clock = clk
	}
}

// WithAPIListenAddress specifies the listen address of the read-only API. An empty address disables it
func WithAPIListenAddress(address string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListenAddress = address
	}
}

// WithLedgerSeedFile specifies a YAML file with the initial votes, tokens and members
func WithLedgerSeedFile(path string) ConfigOptionFunc {
	return func(c *Config) {
		c.ledgerSeedFile = path
	}
}

// WithLedgerSeed specifies initial votes, tokens and members directly. It is
// applied after the seed file, if any
func WithLedgerSeed(seed *ledger.Seed) ConfigOptionFunc {
	return func(c *Config) {
		c.ledgerSeed = seed
	}
}

// WithDAOParams specifies the governance parameters
func WithDAOParams(params DAOParams) ConfigOptionFunc {
	return func(c *Config) {
		c.dao = params
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) OTLP collector at localhost:4318. It can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown. Default is 30 seconds
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}

// WithVersion specifies the version reported by the API health endpoint
func WithVersion(version string) ConfigOptionFunc {
	return func(c *Config) {
		c.version = version
	}
}
