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
	"encoding/binary"
	"errors"
)

const TokenIDSize = 8

var ErrMalformedTokenIDs = errors.New("token id list is not a multiple of 8 bytes")

// EncodeTokenIDs encodes token ids as consecutive 8-byte big-endian values
func EncodeTokenIDs(ids []uint64) []byte {
	ret := make([]byte, 0, len(ids)*TokenIDSize)
	for _, id := range ids {
		ret = binary.BigEndian.AppendUint64(ret, id)
	}
	return ret
}

// DecodeTokenIDs decodes a list produced by EncodeTokenIDs
func DecodeTokenIDs(data []byte) ([]uint64, error) {
	if len(data)%TokenIDSize != 0 {
		return nil, ErrMalformedTokenIDs
	}
	ret := make([]uint64, 0, len(data)/TokenIDSize)
	for i := 0; i < len(data); i += TokenIDSize {
		ret = append(ret, binary.BigEndian.Uint64(data[i:i+TokenIDSize]))
	}
	return ret, nil
}
