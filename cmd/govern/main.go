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
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/blinklabs-io/govern/internal/config"
	"github.com/blinklabs-io/govern/internal/version"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
)

const (
	programName = "govern"

	rootLongHelp = `govern runs a modular DAO: proposals are submitted through proposer
adapters, voted on with weighted voting configs, held in a timelock and then
executed against the DAO treasury. Token holders can freeze the DAO or veto
individual multisig transactions.

Configuration is read from the file given with --config, otherwise from
~/.govern/govern.yaml or /etc/govern/govern.yaml. GOVERN_* environment
variables override file values, for example GOVERN_API_PORT or
GOVERN_DAO_VOTING_PERIOD.

Running govern with no subcommand is the same as "govern serve".`
)

var (
	globalFlags = struct {
		debug     bool
		logFormat string
	}{}
	configFile string
)

func slogPrintf(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...),
		"component", programName,
	)
}

func newLogger(debug bool, format string) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}
	switch strings.ToLower(format) {
	case "", "json":
		return slog.New(slog.NewJSONHandler(os.Stdout, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(os.Stdout, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format: %q", format)
	}
}

// commonRun sets up logging and GOMAXPROCS for commands that touch the DAO
func commonRun() *slog.Logger {
	logger, err := newLogger(globalFlags.debug, globalFlags.logFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	slog.SetDefault(logger)
	// Undo func is ignored
	if _, err := maxprocs.Set(maxprocs.Logger(slogPrintf)); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
	logger.Info(
		programName+" "+version.GetVersionString(),
		"component", programName,
	)
	return logger
}

func main() {
	rootCmd := &cobra.Command{
		Use:   programName,
		Short: "Modular DAO governance service",
		Long:  rootLongHelp,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				slog.Error("no config found in context")
				os.Exit(1)
			}
			serveRun(cmd, args, cfg)
		},
	}

	rootCmd.PersistentFlags().
		BoolVarP(&globalFlags.debug, "debug", "D", false, "log at debug level with source locations")
	rootCmd.PersistentFlags().
		StringVar(&globalFlags.logFormat, "log-format", "json", "log output format: json or text")
	rootCmd.PersistentFlags().
		StringVar(&configFile, "config", "", "govern config file (default ~/.govern/govern.yaml, then /etc/govern/govern.yaml)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if _, err := newLogger(false, globalFlags.logFormat); err != nil {
			return err
		}
		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	}

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(proposalsCommand())
	rootCmd.AddCommand(versionCommand())

	// cobra already printed the error
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
