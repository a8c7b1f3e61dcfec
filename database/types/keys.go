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

package types

import (
	"encoding/binary"
	"slices"
)

const (
	VoteMarkBlobKeyPrefix   = "vm"
	CommitTimestampBlobKey  = "metadata_commit_timestamp"
	voteMarkKindAddress     = 'a'
	voteMarkKindToken       = 't'
	voteMarkTokenIDByteSize = 8
)

// AddressVoteMarkKey is the blob key marking that a voter has voted in a
// context for the given tracker
func AddressVoteMarkKey(tracker []byte, contextID []byte, voter []byte) []byte {
	return slices.Concat(
		[]byte(VoteMarkBlobKeyPrefix),
		tracker,
		contextID,
		[]byte{voteMarkKindAddress},
		voter,
	)
}

// TokenVoteMarkKey is the blob key marking that a token id has been used to
// vote in a context for the given tracker
func TokenVoteMarkKey(tracker []byte, contextID []byte, tokenID uint64) []byte {
	idBytes := make([]byte, voteMarkTokenIDByteSize)
	binary.BigEndian.PutUint64(idBytes, tokenID)
	return slices.Concat(
		[]byte(VoteMarkBlobKeyPrefix),
		tracker,
		contextID,
		[]byte{voteMarkKindToken},
		idBytes,
	)
}
