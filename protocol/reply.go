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

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"

	"github.com/kyhwana/roughenough/merkle"
)

// CreateReplies is the batch responder: it Merkle-aggregates
// nonces into one root, signs a single SREP over that root with
// onlinePrivateKey, and returns one reply per nonce, in the same order,
// each carrying that nonce's inclusion path. Exactly one Ed25519 signature
// is produced regardless of len(nonces).
func CreateReplies(nonces [][]byte, midpointMicros uint64, radiusMicros uint32, cert *Certificate, onlinePrivateKey ed25519.PrivateKey) ([][]byte, error) {
	if len(nonces) == 0 {
		return nil, nil
	}

	tree := merkle.New(nonces)
	root := tree.Root()

	var midpBytes [8]byte
	binary.LittleEndian.PutUint64(midpBytes[:], midpointMicros)
	var radiBytes [4]byte
	binary.LittleEndian.PutUint32(radiBytes[:], radiusMicros)

	srep := map[uint32][]byte{
		tagRADI: radiBytes[:],
		tagMIDP: midpBytes[:],
		tagROOT: root[:],
	}

	srepBytes, err := Encode(srep)
	if err != nil {
		return nil, err
	}

	sig := ed25519.Sign(onlinePrivateKey, append([]byte(signedResponseContext), srepBytes...))

	replies := make([][]byte, 0, len(nonces))
	for i := range nonces {
		var indexBytes [4]byte
		binary.LittleEndian.PutUint32(indexBytes[:], uint32(i))

		path := tree.Path(i)

		reply := map[uint32][]byte{
			tagSIG:  sig,
			tagPATH: merkle.EncodePath(path),
			tagSREP: srepBytes,
			tagCERT: cert.Bytes(),
			tagINDX: indexBytes[:],
		}

		replyBytes, err := Encode(reply)
		if err != nil {
			return nil, err
		}
		replies = append(replies, replyBytes)
	}

	return replies, nil
}

// VerifyReply authenticates a Roughtime reply under rootPublicKey and
// checks that nonce is included in the signed Merkle root. It returns the
// midpoint (Unix microseconds) and radius (microseconds) the server
// asserted.
func VerifyReply(replyBytes []byte, rootPublicKey ed25519.PublicKey, nonce []byte) (midpointMicros uint64, radiusMicros uint32, err error) {
	reply, err := Decode(replyBytes)
	if err != nil {
		return 0, 0, errNotNested("reply", err)
	}

	certBytes, err := getValue(reply, tagCERT, "CERT")
	if err != nil {
		return 0, 0, err
	}

	delegatedPublicKey, minTime, maxTime, err := verifyCertificate(certBytes, rootPublicKey)
	if err != nil {
		return 0, 0, err
	}

	sig, err := getFixed(reply, tagSIG, "SIG", ed25519.SignatureSize)
	if err != nil {
		return 0, 0, err
	}

	srepBytes, err := getValue(reply, tagSREP, "SREP")
	if err != nil {
		return 0, 0, err
	}

	if !ed25519.Verify(delegatedPublicKey, append([]byte(signedResponseContext), srepBytes...), sig) {
		return 0, 0, errDecode("invalid response signature")
	}

	srep, err := Decode(srepBytes)
	if err != nil {
		return 0, 0, errNotNested("SREP", err)
	}

	root, err := getFixed(srep, tagROOT, "SREP.ROOT", merkle.HashSize)
	if err != nil {
		return 0, 0, err
	}

	midpointMicros, err = getUint64(srep, tagMIDP, "SREP.MIDP")
	if err != nil {
		return 0, 0, err
	}

	radiusMicros, err = getUint32(srep, tagRADI, "SREP.RADI")
	if err != nil {
		return 0, 0, err
	}

	if maxTime < minTime {
		return 0, 0, errDecode("invalid delegation range")
	}
	if midpointMicros < minTime || midpointMicros > maxTime {
		return 0, 0, errDecode("timestamp out of range for delegation")
	}

	index, err := getUint32(reply, tagINDX, "INDX")
	if err != nil {
		return 0, 0, err
	}

	pathBytes, err := getValue(reply, tagPATH, "PATH")
	if err != nil {
		return 0, 0, err
	}
	if len(pathBytes)%merkle.HashSize != 0 {
		return 0, 0, errDecode("PATH is not a multiple of the hash size")
	}

	path := merkle.DecodePath(pathBytes)
	got := merkle.VerifyPath(nonce, index, path)
	if !bytes.Equal(got[:], root) {
		return 0, 0, errDecode("calculated tree root doesn't match signed root")
	}

	return midpointMicros, radiusMicros, nil
}
