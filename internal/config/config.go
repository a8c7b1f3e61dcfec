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

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/blinklabs-io/govern/ledger"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "govern.config"

const DefaultShutdownTimeout = "30s"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

// tempConfig allows the settings to live under a "config" section next to
// an inline ledger seed
type tempConfig struct {
	Config yaml.Node    `yaml:"config,omitempty"`
	Ledger *ledger.Seed `yaml:"ledger,omitempty"`
}

// DAOConfig holds the governance parameters. Durations are in seconds
type DAOConfig struct {
	Name                    string `yaml:"name"`
	Owner                   string `yaml:"owner"`
	ChainID                 uint64 `yaml:"chainId"                 envconfig:"CHAIN_ID"`
	VotingPeriod            uint64 `yaml:"votingPeriod"                                        split_words:"true"`
	QuorumThreshold         uint64 `yaml:"quorumThreshold"                                     split_words:"true"`
	BasisNumerator          uint64 `yaml:"basisNumerator"                                      split_words:"true"`
	TimelockPeriod          uint64 `yaml:"timelockPeriod"                                      split_words:"true"`
	ExecutionPeriod         uint64 `yaml:"executionPeriod"                                     split_words:"true"`
	MaxTransactionsPerCall  int    `yaml:"maxTransactionsPerCall"                              split_words:"true"`
	ProposerThreshold       uint64 `yaml:"proposerThreshold"                                   split_words:"true"`
	WeightPerToken          uint64 `yaml:"weightPerToken"                                      split_words:"true"`
	WeightPerNFT            uint64 `yaml:"weightPerNft"            envconfig:"WEIGHT_PER_NFT"`
	WeightPerMember         uint64 `yaml:"weightPerMember"                                     split_words:"true"`
	FreezeVotesThreshold    uint64 `yaml:"freezeVotesThreshold"                                split_words:"true"`
	FreezeProposalPeriod    uint64 `yaml:"freezeProposalPeriod"                                split_words:"true"`
	VetoVotesThreshold      uint64 `yaml:"vetoVotesThreshold"                                  split_words:"true"`
	MultisigTimelockPeriod  uint64 `yaml:"multisigTimelockPeriod"                              split_words:"true"`
	MultisigExecutionPeriod uint64 `yaml:"multisigExecutionPeriod"                             split_words:"true"`
	TreasuryBalance         uint64 `yaml:"treasuryBalance"                                     split_words:"true"`
	AllowDelegateCall       bool   `yaml:"allowDelegateCall"                                   split_words:"true"`
	LightAccounts           bool   `yaml:"lightAccounts"                                       split_words:"true"`
}

type Config struct {
	DatabasePath    string    `yaml:"databasePath"    split_words:"true"`
	BindAddr        string    `yaml:"bindAddr"        split_words:"true"`
	LedgerSeed      string    `yaml:"ledgerSeed"      split_words:"true"`
	ShutdownTimeout string    `yaml:"shutdownTimeout" split_words:"true"`
	ApiPort         uint      `yaml:"apiPort"         split_words:"true"`
	MetricsPort     uint      `yaml:"metricsPort"     split_words:"true"`
	Tracing         bool      `yaml:"tracing"`
	TracingStdout   bool      `yaml:"tracingStdout"   split_words:"true"`
	DAO             DAOConfig `yaml:"dao"             envconfig:"DAO"`
	// Seed is the inline ledger section of the config file
	Seed *ledger.Seed `yaml:"-" ignored:"true"`
}

// ParseShutdownTimeout returns the configured shutdown timeout
func (c *Config) ParseShutdownTimeout() (time.Duration, error) {
	if c.ShutdownTimeout == "" {
		return time.ParseDuration(DefaultShutdownTimeout)
	}
	d, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid shutdown timeout: %w", err)
	}
	return d, nil
}

var globalConfig = defaultConfig()

func defaultConfig() *Config {
	return &Config{
		DatabasePath:    ".govern",
		BindAddr:        "0.0.0.0",
		ShutdownTimeout: DefaultShutdownTimeout,
		ApiPort:         8080,
		MetricsPort:     12799,
		DAO: DAOConfig{
			Name:                 "govern",
			ChainID:              1,
			VotingPeriod:         3 * 24 * 60 * 60,
			QuorumThreshold:      1,
			BasisNumerator:       500_000,
			TimelockPeriod:       24 * 60 * 60,
			ExecutionPeriod:      7 * 24 * 60 * 60,
			WeightPerToken:       1,
			FreezeProposalPeriod: 7 * 24 * 60 * 60,
		},
	}
}

func LoadConfig(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.govern/govern.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".govern", "govern.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/govern/govern.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/govern/govern.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		var tempCfg tempConfig
		if err := yaml.Unmarshal(buf, &tempCfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
		if !tempCfg.Config.IsZero() {
			// Overlay config values onto existing defaults
			if err := tempCfg.Config.Decode(globalConfig); err != nil {
				return nil, fmt.Errorf("error parsing config section: %w", err)
			}
		} else {
			// Otherwise the whole file is the main config
			if err := yaml.Unmarshal(buf, globalConfig); err != nil {
				return nil, fmt.Errorf("error parsing config file: %w", err)
			}
		}
		globalConfig.Seed = tempCfg.Ledger
	}
	// Process environment variables
	err := envconfig.Process("govern", globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %+w", err)
	}
	if _, err := globalConfig.ParseShutdownTimeout(); err != nil {
		return nil, err
	}
	return globalConfig, nil
}

func GetConfig() *Config {
	return globalConfig
}
