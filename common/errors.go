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

import "errors"

// ErrorKind classifies a rejected operation
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindAuthorization means the caller lacks the required role or capability
	KindAuthorization
	// KindState means the operation is invalid in the current state
	KindState
	// KindValidation means the input was malformed
	KindValidation
	// KindIntegrity means a sub-call returned an unexpected result
	KindIntegrity
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuthorization:
		return "authorization"
	case KindState:
		return "state"
	case KindValidation:
		return "validation"
	case KindIntegrity:
		return "integrity"
	default:
		return "unknown"
	}
}

type kinded interface {
	Kind() ErrorKind
}

// Error is a sentinel error carrying its kind
type Error struct {
	kind ErrorKind
	msg  string
}

// NewError creates a new sentinel error of the given kind
func NewError(kind ErrorKind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string {
	return e.msg
}

func (e *Error) Kind() ErrorKind {
	return e.kind
}

// KindOf returns the kind of the first classified error in the chain
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindUnknown
}
