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

package ledger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/blinklabs-io/govern/common"
	"gopkg.in/yaml.v3"
)

// Seed is the initial ledger state loaded from YAML
//
//	votes:
//	  "0x...": 100
//	tokens:
//	  1: "0x..."
//	members:
//	  - "0x..."
type Seed struct {
	Votes   map[string]uint64 `yaml:"votes"`
	Tokens  map[uint64]string `yaml:"tokens"`
	Members []string          `yaml:"members"`
}

func LoadSeedFile(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadSeed(f)
}

func LoadSeed(r io.Reader) (*Seed, error) {
	var seed Seed
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode ledger seed: %w", err)
	}
	return &seed, nil
}

// Apply writes the seed into the ledger at the current time
func (l *Ledger) Apply(seed *Seed) error {
	for _, acct := range sortedKeys(seed.Votes) {
		addr, err := common.NewAddressFromHex(acct)
		if err != nil {
			return err
		}
		if err := l.SetVotes(addr, seed.Votes[acct]); err != nil {
			return err
		}
	}
	for _, tokenID := range sortedKeys(seed.Tokens) {
		addr, err := common.NewAddressFromHex(seed.Tokens[tokenID])
		if err != nil {
			return fmt.Errorf("token %d: %w", tokenID, err)
		}
		if err := l.TransferToken(tokenID, addr); err != nil {
			return err
		}
	}
	for _, member := range seed.Members {
		addr, err := common.NewAddressFromHex(member)
		if err != nil {
			return err
		}
		if err := l.AddMember(addr); err != nil {
			return err
		}
	}
	l.logger.Info(
		"ledger seeded",
		"accounts", len(seed.Votes),
		"tokens", len(seed.Tokens),
		"members", len(seed.Members),
	)
	return nil
}

func sortedKeys[K uint64 | string, V any](m map[K]V) []K {
	ret := make([]K, 0, len(m))
	for k := range m {
		ret = append(ret, k)
	}
	slices.Sort(ret)
	return ret
}
