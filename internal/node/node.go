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

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/blinklabs-io/govern"
	"github.com/blinklabs-io/govern/common"
	"github.com/blinklabs-io/govern/internal/config"
	"github.com/blinklabs-io/govern/internal/version"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DAOParams converts the configured governance parameters
func DAOParams(cfg config.DAOConfig) (govern.DAOParams, error) {
	owner, err := common.NewAddressFromHex(cfg.Owner)
	if err != nil {
		return govern.DAOParams{}, fmt.Errorf("invalid DAO owner: %w", err)
	}
	return govern.DAOParams{
		Name:                    cfg.Name,
		Owner:                   owner,
		ChainID:                 cfg.ChainID,
		VotingPeriod:            cfg.VotingPeriod,
		QuorumThreshold:         cfg.QuorumThreshold,
		BasisNumerator:          cfg.BasisNumerator,
		TimelockPeriod:          cfg.TimelockPeriod,
		ExecutionPeriod:         cfg.ExecutionPeriod,
		MaxTransactionsPerCall:  cfg.MaxTransactionsPerCall,
		ProposerThreshold:       cfg.ProposerThreshold,
		WeightPerToken:          cfg.WeightPerToken,
		WeightPerNFT:            cfg.WeightPerNFT,
		WeightPerMember:         cfg.WeightPerMember,
		FreezeVotesThreshold:    cfg.FreezeVotesThreshold,
		FreezeProposalPeriod:    cfg.FreezeProposalPeriod,
		VetoVotesThreshold:      cfg.VetoVotesThreshold,
		MultisigTimelockPeriod:  cfg.MultisigTimelockPeriod,
		MultisigExecutionPeriod: cfg.MultisigExecutionPeriod,
		TreasuryBalance:         cfg.TreasuryBalance,
		AllowDelegateCall:       cfg.AllowDelegateCall,
		LightAccounts:           cfg.LightAccounts,
	}, nil
}

// NewNode builds a node from the loaded configuration without starting it
func NewNode(cfg *config.Config, logger *slog.Logger, promRegistry prometheus.Registerer) (*govern.Node, error) {
	params, err := DAOParams(cfg.DAO)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := cfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	opts := []govern.ConfigOptionFunc{
		govern.WithLogger(logger),
		govern.WithDatabasePath(cfg.DatabasePath),
		govern.WithDAOParams(params),
		govern.WithLedgerSeedFile(cfg.LedgerSeed),
		govern.WithLedgerSeed(cfg.Seed),
		govern.WithPrometheusRegistry(promRegistry),
		govern.WithTracing(cfg.Tracing),
		govern.WithTracingStdout(cfg.TracingStdout),
		govern.WithShutdownTimeout(shutdownTimeout),
		govern.WithVersion(version.GetVersionString()),
	}
	if cfg.ApiPort > 0 {
		opts = append(opts, govern.WithAPIListenAddress(
			fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.ApiPort),
		))
	}
	return govern.New(govern.NewConfig(opts...))
}

func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	shutdownTimeout, err := cfg.ParseShutdownTimeout()
	if err != nil {
		return err
	}
	// Enable metrics with default prometheus registry
	n, err := NewNode(cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	var metricsServer *http.Server
	if cfg.MetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsAddr := fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.MetricsPort)
		logger.Info(
			"serving prometheus metrics on "+metricsAddr,
			"component", "node",
		)
		metricsServer = &http.Server{
			Addr:              metricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 60 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				logger.Error(
					fmt.Sprintf("failed to start metrics listener: %s", err),
					"component", "node",
				)
			}
		}()
	}
	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	//nolint:contextcheck
	runErr := n.Run(signalCtx)
	if signalCtx.Err() != nil {
		logger.Info("signal received, initiating graceful shutdown", "component", "node")
	}
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err, "component", "node")
		}
	}
	if runErr != nil {
		logger.Error("node error", "error", runErr, "component", "node")
		return runErr
	}
	logger.Info("shutdown complete", "component", "node")
	return nil
}
