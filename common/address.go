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
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	AddressLength = 20
	HashLength    = 32
)

// Address identifies an account or a governance component
type Address [AddressLength]byte

// ZeroAddress is the empty address
var ZeroAddress Address

// NewAddressFromHex parses a hex encoded address, with or without the 0x prefix
func NewAddressFromHex(s string) (Address, error) {
	var ret Address
	buf, err := decodeHex(s)
	if err != nil {
		return ret, fmt.Errorf("invalid address %q: %w", s, err)
	}
	if len(buf) != AddressLength {
		return ret, fmt.Errorf(
			"invalid address %q: expected %d bytes, got %d",
			s,
			AddressLength,
			len(buf),
		)
	}
	copy(ret[:], buf)
	return ret, nil
}

// MustAddress is like NewAddressFromHex but panics on invalid input. It is
// intended for constants and tests
func MustAddress(s string) Address {
	a, err := NewAddressFromHex(s)
	if err != nil {
		panic(err)
	}
	return a
}

// BytesToAddress returns an address from the last 20 bytes of b
func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

// DeriveAddress deterministically derives a component address from a kind
// label and any number of salt values
func DeriveAddress(kind string, parts ...[]byte) Address {
	data := make([][]byte, 0, len(parts)+1)
	data = append(data, []byte(kind))
	data = append(data, parts...)
	h := Keccak256(data...)
	return BytesToAddress(h[:])
}

func (a Address) Bytes() []byte {
	return bytes.Clone(a[:])
}

func (a Address) IsZero() bool {
	return a == ZeroAddress
}

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Compare orders addresses bytewise
func (a Address) Compare(other Address) int {
	return bytes.Compare(a[:], other[:])
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	tmp, err := NewAddressFromHex(string(text))
	if err != nil {
		return err
	}
	*a = tmp
	return nil
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return hex.DecodeString(s)
}
