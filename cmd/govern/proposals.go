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

package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/blinklabs-io/govern/api"
	"github.com/blinklabs-io/govern/internal/config"
	"github.com/blinklabs-io/govern/internal/node"
	"github.com/spf13/cobra"
)

var proposalsFlags = struct {
	offset int
	limit  int
}{}

func proposalsRun(cmd *cobra.Command, cfg *config.Config) error {
	logger := commonRun()
	// Read-only, so no API listener
	cfg.ApiPort = 0
	n, err := node.NewNode(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = n.Stop()
	}()
	if err := n.Open(); err != nil {
		return err
	}
	d := n.DAO()
	source := api.NewDAOSource(n.Database(), d.Governor, d.Strategy, d.FreezeVoting)
	total, err := source.ProposalCount()
	if err != nil {
		return err
	}
	proposals, err := source.Proposals(proposalsFlags.offset, proposalsFlags.limit)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(api.ProposalListResponse{
		Proposals: proposals,
		Total:     total,
		Offset:    proposalsFlags.offset,
		Limit:     proposalsFlags.limit,
	})
}

func proposalsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proposals",
		Short: "Print stored proposals with their current state",
		Run: func(cmd *cobra.Command, _ []string) {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				slog.Error("no config found in context")
				os.Exit(1)
			}
			if err := proposalsRun(cmd, cfg); err != nil {
				slog.Error(fmt.Sprintf("failed to list proposals: %s", err))
				os.Exit(1)
			}
		},
	}
	cmd.Flags().IntVar(&proposalsFlags.offset, "offset", 0, "number of proposals to skip")
	cmd.Flags().IntVar(&proposalsFlags.limit, "limit", api.DefaultPageLimit, "maximum number of proposals to print")
	return cmd
}
