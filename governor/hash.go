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

package governor

import (
	"github.com/blinklabs-io/govern/common"
)

var (
	domainTypeHash = common.Keccak256(
		[]byte("EIP712Domain(uint256 chainId,address verifyingContract)"),
	)
	transactionTypeHash = common.Keccak256(
		[]byte("Transaction(address to,uint256 value,bytes data,uint8 operation,bytes32 nonce)"),
	)
)

// word left-pads b to 32 bytes
func word(b []byte) []byte {
	ret := make([]byte, 32)
	copy(ret[32-len(b):], b)
	return ret
}

// DomainSeparator binds transaction hashes to one governor on one chain
func DomainSeparator(chainID uint64, governor common.Address) common.Hash {
	return common.Keccak256(
		domainTypeHash[:],
		word(common.Uint64Bytes(chainID)),
		word(governor[:]),
	)
}

// TransactionNonce is derived from the proposal count at submission and the
// transaction index, so equal transactions never share a hash
func TransactionNonce(proposalCount uint32, index uint32) common.Hash {
	return common.Keccak256(
		word(common.Uint32Bytes(proposalCount)),
		word(common.Uint32Bytes(index)),
	)
}

// TransactionHash returns the domain separated hash of a proposal transaction
func TransactionHash(
	domainSeparator common.Hash,
	tx common.Transaction,
	nonce common.Hash,
) common.Hash {
	dataHash := common.Keccak256(tx.Data)
	structHash := common.Keccak256(
		transactionTypeHash[:],
		word(tx.To[:]),
		word(common.Uint64Bytes(tx.Value)),
		dataHash[:],
		word([]byte{byte(tx.Operation)}),
		nonce[:],
	)
	return common.Keccak256(
		[]byte{0x19, 0x01},
		domainSeparator[:],
		structHash[:],
	)
}
