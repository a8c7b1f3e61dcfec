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

package database

var voteMarkValue = []byte{1}

// HasVoteMark reports whether the given vote mark key is set
func (d *Database) HasVoteMark(key []byte, txn *Txn) (bool, error) {
	return d.blobHas(txn, key)
}

// SetVoteMark sets a vote mark key. A read-write transaction is required so
// that the mark commits together with the tally it guards
func (d *Database) SetVoteMark(key []byte, txn *Txn) error {
	return d.blobSet(txn, key, voteMarkValue)
}
