// Command keygen generates a random long-term key seed for a server
// config file's 'seed:' field, and prints the long-term public key that
// seed produces so it can be published or pinned by clients.
package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
)

func main() {
	flag.Parse()

	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		log.Fatalf("error generating seed: %v", err)
	}

	pub := ed25519.NewKeyFromSeed(seed).Public().(ed25519.PublicKey)

	fmt.Printf("seed:       %s\n", hex.EncodeToString(seed))
	fmt.Printf("public key: %s\n", hex.EncodeToString(pub))
}
