// Copyright 2018 Cloudflare, Inc.
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

// Command client sends a single Roughtime request to a server and
// verifies and prints the response.
package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"log"
	"net"
	"os"
	"time"

	"github.com/kyhwana/roughenough/protocol"
)

func main() {
	pingAddr := flag.String("ping", "", "Address of the server to query, e.g. localhost:2002.")
	pingPubKey := flag.String("pubkey", "", "The server's long-term Ed25519 public key, hex-encoded.")
	timeout := flag.Duration("timeout", 5*time.Second, "Time to wait for a response.")

	flag.Parse()
	logger := log.New(os.Stdout, "", 0)

	if *pingAddr == "" || *pingPubKey == "" {
		logger.Fatal("usage: client -ping <addr> -pubkey <hex>")
	}

	pubKey, err := hex.DecodeString(*pingPubKey)
	if err != nil || len(pubKey) != ed25519.PublicKeySize {
		logger.Fatal("invalid -pubkey: must be a 32-byte hex-encoded Ed25519 public key")
	}

	nonce, request, err := protocol.CreateRequest(rand.Reader)
	if err != nil {
		logger.Fatalf("could not create request: %v", err)
	}

	udpAddr, err := net.ResolveUDPAddr("udp", *pingAddr)
	if err != nil {
		logger.Fatalf("could not resolve %s: %v", *pingAddr, err)
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		logger.Fatalf("could not dial %s: %v", *pingAddr, err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(*timeout))

	start := time.Now()
	if _, err := conn.Write(request); err != nil {
		logger.Fatalf("send failed: %v", err)
	}

	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil {
		logger.Fatalf("no response: %v", err)
	}
	delay := time.Since(start).Truncate(time.Millisecond)

	midpointMicros, radiusMicros, err := protocol.VerifyReply(buf[:n], ed25519.PublicKey(pubKey), nonce)
	if err != nil {
		logger.Fatalf("verification failed: %v", err)
	}

	midpoint := time.UnixMicro(int64(midpointMicros)).UTC()
	radius := time.Duration(radiusMicros) * time.Microsecond
	logger.Printf("%s ± %s (in %s)\n", midpoint.Format(time.RFC3339Nano), radius, delay)
}
