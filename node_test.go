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

package govern_test

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/blinklabs-io/govern"
	"github.com/blinklabs-io/govern/api"
	"github.com/blinklabs-io/govern/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() govern.DAOParams {
	params := govern.DefaultDAOParams()
	params.Name = "node-test"
	params.Owner = owner
	params.VotingPeriod = 100
	params.TimelockPeriod = 10
	params.ExecutionPeriod = 50
	params.ProposerThreshold = 50
	params.WeightPerMember = 1
	params.FreezeVotesThreshold = 100
	params.FreezeProposalPeriod = 50
	params.TreasuryBalance = 1000
	return params
}

func writeSeed(t *testing.T) string {
	t.Helper()
	doc := strings.Join([]string{
		"votes:",
		"  \"" + alice.String() + "\": 100",
		"members:",
		"  - \"" + bob.String() + "\"",
	}, "\n")
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	return path
}

func TestNodeConfigValidation(t *testing.T) {
	_, err := govern.New(govern.NewConfig())
	assert.Error(t, err)
	params := testParams()
	params.WeightPerToken = 0
	params.WeightPerMember = 0
	_, err = govern.New(govern.NewConfig(govern.WithDAOParams(params)))
	assert.Error(t, err)
	params = testParams()
	params.FreezeVotesThreshold = 0
	params.VetoVotesThreshold = 10
	_, err = govern.New(govern.NewConfig(govern.WithDAOParams(params)))
	assert.Error(t, err)
}

func TestNodeOpen(t *testing.T) {
	clk := clock.NewManualClock(1000)
	n, err := govern.New(govern.NewConfig(
		govern.WithDAOParams(testParams()),
		govern.WithClock(clk),
		govern.WithLedgerSeedFile(writeSeed(t)),
	))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = n.Stop()
	})
	require.NoError(t, n.Open())
	// Opening twice is a no-op
	require.NoError(t, n.Open())
	d := n.DAO()
	require.NotNil(t, d)
	assert.Len(t, d.Strategy.VotingConfigs(), 2)
	assert.Len(t, d.Governor.ProposerAdapters(), 2)
	assert.NotNil(t, d.FreezeVoting)
	assert.Nil(t, d.Veto)
	assert.Nil(t, n.Accounts())
	assert.Equal(t, uint64(100), n.Ledger().Votes(alice))
	assert.Equal(t, uint64(1000), d.Treasury.Balance())
	assert.NotNil(t, n.Database())
	assert.NotNil(t, n.EventBus())
}

func TestNodeLightAccounts(t *testing.T) {
	params := testParams()
	params.LightAccounts = true
	n, err := govern.New(govern.NewConfig(
		govern.WithDAOParams(params),
		govern.WithClock(clock.NewManualClock(1000)),
	))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = n.Stop()
	})
	require.NoError(t, n.Open())
	require.NotNil(t, n.Accounts())
	acct, err := n.Accounts().Register(alice, 1)
	require.NoError(t, err)
	voter, err := n.Accounts().ResolveVoter(acct, 1)
	require.NoError(t, err)
	assert.Equal(t, alice, voter)
}

func TestNodeRunServesAPI(t *testing.T) {
	n, err := govern.New(govern.NewConfig(
		govern.WithDAOParams(testParams()),
		govern.WithClock(clock.NewManualClock(1000)),
		govern.WithAPIListenAddress("127.0.0.1:0"),
		govern.WithVersion("test"),
		govern.WithShutdownTimeout(5*time.Second),
	))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- n.Run(ctx)
	}()
	require.Eventually(t, func() bool {
		return n.APIAddr() != ""
	}, 5*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + n.APIAddr() + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var health api.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "test", health.Version)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("node did not stop")
	}
	// Stopping again is a no-op
	assert.NoError(t, n.Stop())
}
