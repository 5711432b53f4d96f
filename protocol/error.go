// Copyright 2023 Cloudflare, Inc.
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

package protocol

// ErrorType classifies a protocol-level error. Decode/validation failures
// are never fatal to the server process: every request-level error results
// in the datagram being dropped silently, so callers mostly need the type
// for logging, not for recovery.
type ErrorType uint16

const (
	// ErrorDecode covers every wire-format invariant violation: offsets out
	// of range, tags out of order, duplicate tags, misaligned lengths,
	// trailing bytes.
	ErrorDecode ErrorType = iota
	// ErrorMissingTag means a required tag was absent from a message.
	ErrorMissingTag
	// ErrorWrongSize means a tag was present but had the wrong fixed length.
	ErrorWrongSize
	// ErrorNotNested means a tag's value failed to decode as a nested
	// message.
	ErrorNotNested
	// ErrorNonceLen means a NONC value was present but not exactly
	// NonceSize bytes.
	ErrorNonceLen
	// ErrorRequestLen means a datagram was shorter than the minimum
	// configured request size.
	ErrorRequestLen
)

// Error represents a protocol error (ParseError/ValidationError in the
// specification's vocabulary).
type Error struct {
	// Type is the error type.
	Type ErrorType

	// Info includes optional info.
	Info string
}

func (e Error) Error() string {
	s := ""
	switch e.Type {
	case ErrorDecode:
		s += "decode"
	case ErrorMissingTag:
		s += "missing tag"
	case ErrorWrongSize:
		s += "wrong size"
	case ErrorNotNested:
		s += "not nested"
	case ErrorNonceLen:
		s += "nonce length"
	case ErrorRequestLen:
		s += "request length"
	default:
		s += "unknown"
	}
	if len(e.Info) > 0 {
		s += ": " + e.Info
	}
	return s
}

func errDecode(info string) Error {
	return Error{
		Type: ErrorDecode,
		Info: info,
	}
}

func errMissingTag(name string) Error {
	return Error{Type: ErrorMissingTag, Info: name}
}

func errWrongSize(name string) Error {
	return Error{Type: ErrorWrongSize, Info: name}
}

func errNotNested(name string, cause error) Error {
	return Error{Type: ErrorNotNested, Info: name + ": " + cause.Error()}
}

var (
	errNonceLen = Error{
		Type: ErrorNonceLen,
		Info: "",
	}
	errRequestLen = Error{
		Type: ErrorRequestLen,
		Info: "",
	}
)
