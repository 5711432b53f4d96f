// Copyright 2016 The Roughtime Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package protocol

import "io"

// MinRequestSize is the minimum size, in bytes, a client request should pad
// itself to in order to guard against using the server as a UDP
// amplification vector. Enforcement is opt-in: a deployment passes a
// non-zero minimum to ParseRequest.
const MinRequestSize = 1024

// ParseRequest validates and extracts the nonce from a client request. If
// minSize is non-zero, requests shorter than minSize are rejected
// (anti-amplification, off by default). Any failure
// returned here is non-fatal to the server: the caller should drop the
// datagram silently.
func ParseRequest(buf []byte, minSize int) (nonce []byte, err error) {
	if minSize > 0 && len(buf) < minSize {
		return nil, errRequestLen
	}

	msg, err := Decode(buf)
	if err != nil {
		return nil, err
	}

	nonce, ok := msg[tagNONC]
	if !ok {
		return nil, errMissingTag("NONC")
	}
	if len(nonce) != NonceSize {
		return nil, errNonceLen
	}

	return nonce, nil
}

// CreateRequest builds a client request for a random nonce read from rand,
// padded with a PAD tag so the whole message is at least MinRequestSize
// bytes. It returns the nonce (needed to verify the reply) and the encoded
// request.
func CreateRequest(rand io.Reader) (nonce, request []byte, err error) {
	nonce = make([]byte, NonceSize)
	if _, err := io.ReadFull(rand, nonce); err != nil {
		return nil, nil, err
	}

	msg := map[uint32][]byte{
		tagNONC: nonce,
	}

	// overhead accounts for the 4-byte count, one offset per tag but
	// the last, and one 4-byte tag per entry.
	numTags := 2
	overhead := 4 + 4*(numTags-1) + 4*numTags
	padLen := MinRequestSize - overhead - len(nonce)
	if padLen < 0 {
		padLen = 0
	}
	// Padding length must be a multiple of four, like every value.
	padLen += (4 - padLen%4) % 4
	msg[tagPAD] = make([]byte, padLen)

	request, err = Encode(msg)
	if err != nil {
		return nil, nil, err
	}

	return nonce, request, nil
}
