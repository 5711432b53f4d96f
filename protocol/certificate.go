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
	"crypto/ed25519"
	"encoding/binary"
)

// DefaultMinTime and DefaultMaxTime are the delegation validity window the
// specification's reference implementation uses: effectively unbounded
// (MINT=0, MAXT=2^63-1). A deployment that wants a meaningfully bounded
// delegation window should pass its own min/max to NewCertificate.
const (
	DefaultMinTime uint64 = 0
	DefaultMaxTime uint64 = 1<<63 - 1
)

// Certificate is the signed CERT structure binding an online (delegated)
// public key to a long-term identity: CERT = {SIG: sign(DELE), DELE}.
type Certificate struct {
	// bytes is the pre-encoded CERT message, ready to be placed directly
	// into a response's CERT tag.
	bytes []byte

	// OnlinePublicKey is the delegated public key named by DELE.PUBK.
	OnlinePublicKey ed25519.PublicKey
}

// Bytes returns the encoded CERT message.
func (c *Certificate) Bytes() []byte {
	return c.bytes
}

// NewCertificate builds and signs a CERT delegating authority from
// rootPrivateKey to onlinePublicKey for the closed interval
// [minTimeMicros, maxTimeMicros] (both Unix microseconds).
//
// DELE = {PUBK: onlinePublicKey, MINT: minTimeMicros, MAXT: maxTimeMicros}
// CERT = {SIG: sign(longterm, "RoughTime v1 delegation signature--" || DELE), DELE}
func NewCertificate(minTimeMicros, maxTimeMicros uint64, onlinePublicKey ed25519.PublicKey, rootPrivateKey ed25519.PrivateKey) (*Certificate, error) {
	var minBytes, maxBytes [8]byte
	binary.LittleEndian.PutUint64(minBytes[:], minTimeMicros)
	binary.LittleEndian.PutUint64(maxBytes[:], maxTimeMicros)

	dele := map[uint32][]byte{
		tagPUBK: onlinePublicKey,
		tagMINT: minBytes[:],
		tagMAXT: maxBytes[:],
	}

	deleBytes, err := Encode(dele)
	if err != nil {
		return nil, err
	}

	sig := ed25519.Sign(rootPrivateKey, append([]byte(certificateContext), deleBytes...))

	cert := map[uint32][]byte{
		tagSIG:  sig,
		tagDELE: deleBytes,
	}

	certBytes, err := Encode(cert)
	if err != nil {
		return nil, err
	}

	return &Certificate{bytes: certBytes, OnlinePublicKey: onlinePublicKey}, nil
}

// verifyCertificate checks CERT.SIG against rootPublicKey and returns the
// decoded DELE fields: the delegated public key and its validity window.
func verifyCertificate(certBytes, rootPublicKey []byte) (delegatedPublicKey ed25519.PublicKey, minTime, maxTime uint64, err error) {
	cert, err := Decode(certBytes)
	if err != nil {
		return nil, 0, 0, errNotNested("certificate", err)
	}

	sig, err := getFixed(cert, tagSIG, "CERT.SIG", ed25519.SignatureSize)
	if err != nil {
		return nil, 0, 0, err
	}

	deleBytes, err := getValue(cert, tagDELE, "CERT.DELE")
	if err != nil {
		return nil, 0, 0, err
	}

	if !ed25519.Verify(rootPublicKey, append([]byte(certificateContext), deleBytes...), sig) {
		return nil, 0, 0, errDecode("invalid delegation signature")
	}

	dele, err := Decode(deleBytes)
	if err != nil {
		return nil, 0, 0, errNotNested("DELE", err)
	}

	pubk, err := getFixed(dele, tagPUBK, "DELE.PUBK", ed25519.PublicKeySize)
	if err != nil {
		return nil, 0, 0, err
	}

	minTime, err = getUint64(dele, tagMINT, "DELE.MINT")
	if err != nil {
		return nil, 0, 0, err
	}

	maxTime, err = getUint64(dele, tagMAXT, "DELE.MAXT")
	if err != nil {
		return nil, 0, 0, err
	}

	return ed25519.PublicKey(pubk), minTime, maxTime, nil
}
