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

package common

import (
	"fmt"
	"strings"
)

// VoteType is the choice recorded by a vote
type VoteType uint8

const (
	VoteNo      VoteType = 0
	VoteYes     VoteType = 1
	VoteAbstain VoteType = 2
)

func (v VoteType) Valid() bool {
	return v <= VoteAbstain
}

func (v VoteType) String() string {
	switch v {
	case VoteNo:
		return "no"
	case VoteYes:
		return "yes"
	case VoteAbstain:
		return "abstain"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(v))
	}
}

// ParseVoteType accepts the names produced by VoteType.String
func ParseVoteType(s string) (VoteType, error) {
	switch strings.ToLower(s) {
	case "no":
		return VoteNo, nil
	case "yes":
		return VoteYes, nil
	case "abstain":
		return VoteAbstain, nil
	default:
		return 0, fmt.Errorf("unknown vote type: %q", s)
	}
}

// Operation selects how a transaction is dispatched by the executor
type Operation uint8

const (
	OperationCall         Operation = 0
	OperationDelegateCall Operation = 1
)

func (o Operation) String() string {
	switch o {
	case OperationCall:
		return "call"
	case OperationDelegateCall:
		return "delegatecall"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(o))
	}
}

// Transaction is an opaque descriptor handed to the execution layer once a
// proposal becomes executable
type Transaction struct {
	To        Address   `json:"to"        yaml:"to"`
	Value     uint64    `json:"value"     yaml:"value"`
	Data      []byte    `json:"data"      yaml:"data"`
	Operation Operation `json:"operation" yaml:"operation"`
}
