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
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// Hash is a 32-byte Keccak-256 digest
type Hash [HashLength]byte

var ZeroHash Hash

// NewHashFromHex parses a hex encoded hash, with or without the 0x prefix
func NewHashFromHex(s string) (Hash, error) {
	var ret Hash
	buf, err := decodeHex(s)
	if err != nil {
		return ret, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	if len(buf) != HashLength {
		return ret, fmt.Errorf(
			"invalid hash %q: expected %d bytes, got %d",
			s,
			HashLength,
			len(buf),
		)
	}
	copy(ret[:], buf)
	return ret, nil
}

// BytesToHash copies b into a hash. It returns an error if b has the wrong length
func BytesToHash(b []byte) (Hash, error) {
	var h Hash
	if len(b) != HashLength {
		return h, fmt.Errorf(
			"invalid hash length: expected %d bytes, got %d",
			HashLength,
			len(b),
		)
	}
	copy(h[:], b)
	return h, nil
}

// Keccak256 returns the legacy Keccak-256 digest of the concatenated inputs
func Keccak256(data ...[]byte) Hash {
	var h Hash
	hasher := sha3.NewLegacyKeccak256()
	for _, d := range data {
		_, _ = hasher.Write(d)
	}
	hasher.Sum(h[:0])
	return h
}

// Uint64Bytes returns the big-endian encoding of v
func Uint64Bytes(v uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, v)
}

// Uint32Bytes returns the big-endian encoding of v
func Uint32Bytes(v uint32) []byte {
	return binary.BigEndian.AppendUint32(nil, v)
}

func (h Hash) Bytes() []byte {
	return bytes.Clone(h[:])
}

func (h Hash) IsZero() bool {
	return h == ZeroHash
}

func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	tmp, err := NewHashFromHex(string(text))
	if err != nil {
		return err
	}
	*h = tmp
	return nil
}
