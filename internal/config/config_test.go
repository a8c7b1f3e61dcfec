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
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func resetGlobalConfig() {
	globalConfig = defaultConfig()
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile := filepath.Join(t.TempDir(), "govern.yaml")
	if err := os.WriteFile(tmpFile, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return tmpFile
}

func TestLoad_CompareFullStruct(t *testing.T) {
	resetGlobalConfig()
	tmpFile := writeConfig(t, `
databasePath: "/var/lib/govern"
bindAddr: "127.0.0.1"
apiPort: 9000
metricsPort: 9001
shutdownTimeout: "10s"
tracing: true
dao:
  name: "treasury-dao"
  owner: "0x00000000000000000000000000000000000000aa"
  votingPeriod: 600
  quorumThreshold: 5
  freezeVotesThreshold: 50
`)

	expected := defaultConfig()
	expected.DatabasePath = "/var/lib/govern"
	expected.BindAddr = "127.0.0.1"
	expected.ApiPort = 9000
	expected.MetricsPort = 9001
	expected.ShutdownTimeout = "10s"
	expected.Tracing = true
	expected.DAO.Name = "treasury-dao"
	expected.DAO.Owner = "0x00000000000000000000000000000000000000aa"
	expected.DAO.VotingPeriod = 600
	expected.DAO.QuorumThreshold = 5
	expected.DAO.FreezeVotesThreshold = 50

	actual, err := LoadConfig(tmpFile)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if !reflect.DeepEqual(actual, expected) {
		t.Errorf(
			"Loaded config does not match expected.\nActual: %+v\nExpected: %+v",
			actual,
			expected,
		)
	}
}

func TestLoad_WithoutConfigFile_UsesDefaults(t *testing.T) {
	resetGlobalConfig()
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !reflect.DeepEqual(cfg, defaultConfig()) {
		t.Errorf("config mismatch without file:\nGot: %+v", cfg)
	}
}

func TestLoad_ConfigSectionWithLedger(t *testing.T) {
	resetGlobalConfig()
	tmpFile := writeConfig(t, `
config:
  apiPort: 7000
  dao:
    weightPerMember: 3
ledger:
  votes:
    "0x00000000000000000000000000000000000000aa": 25
  members:
    - "0x00000000000000000000000000000000000000bb"
`)
	cfg, err := LoadConfig(tmpFile)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.ApiPort != 7000 {
		t.Errorf("expected api port 7000, got: %d", cfg.ApiPort)
	}
	// Values outside the section keep their defaults
	if cfg.MetricsPort != 12799 || cfg.DAO.WeightPerToken != 1 {
		t.Errorf("defaults were overwritten: %+v", cfg)
	}
	if cfg.DAO.WeightPerMember != 3 {
		t.Errorf("expected member weight 3, got: %d", cfg.DAO.WeightPerMember)
	}
	if cfg.Seed == nil {
		t.Fatal("expected inline ledger seed")
	}
	if cfg.Seed.Votes["0x00000000000000000000000000000000000000aa"] != 25 {
		t.Errorf("unexpected seed votes: %+v", cfg.Seed.Votes)
	}
	if len(cfg.Seed.Members) != 1 {
		t.Errorf("unexpected seed members: %+v", cfg.Seed.Members)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	resetGlobalConfig()
	tmpFile := writeConfig(t, `
apiPort: 9000
dao:
  name: "from-file"
`)
	t.Setenv("GOVERN_API_PORT", "9100")
	t.Setenv("GOVERN_DAO_NAME", "from-env")
	t.Setenv("GOVERN_DAO_VOTING_PERIOD", "42")
	t.Setenv("GOVERN_DAO_CHAIN_ID", "5")
	cfg, err := LoadConfig(tmpFile)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.ApiPort != 9100 {
		t.Errorf("expected api port 9100, got: %d", cfg.ApiPort)
	}
	if cfg.DAO.Name != "from-env" {
		t.Errorf("expected DAO name from env, got: %s", cfg.DAO.Name)
	}
	if cfg.DAO.VotingPeriod != 42 {
		t.Errorf("expected voting period 42, got: %d", cfg.DAO.VotingPeriod)
	}
	if cfg.DAO.ChainID != 5 {
		t.Errorf("expected chain id 5, got: %d", cfg.DAO.ChainID)
	}
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	resetGlobalConfig()
	tmpFile := writeConfig(t, "shutdownTimeout: \"soon\"\n")
	if _, err := LoadConfig(tmpFile); err == nil {
		t.Fatal("expected error for invalid shutdown timeout")
	}
	resetGlobalConfig()
	d, err := GetConfig().ParseShutdownTimeout()
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if d != 30*time.Second {
		t.Errorf("expected default timeout of 30s, got: %s", d)
	}
}

func TestContext(t *testing.T) {
	if FromContext(context.Background()) != nil {
		t.Fatal("expected no config in empty context")
	}
	cfg := defaultConfig()
	ctx := WithContext(context.Background(), cfg)
	if FromContext(ctx) != cfg {
		t.Fatal("expected config from context")
	}
}
