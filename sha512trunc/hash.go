// Package sha512trunc implements SHA-512/256-style truncation: a standard
// SHA-512 whose digest is cut down to the first 32 bytes. This is the hash
// used throughout the Merkle tree (see the merkle package); it is not used
// for Ed25519 signing, which carries its own internal hash.
package sha512trunc

import (
	"crypto/sha512"
	"hash"
)

type shatrunc struct {
	inner hash.Hash
}

func (h *shatrunc) Write(p []byte) (n int, err error) {
	return h.inner.Write(p)
}

func (h *shatrunc) Reset() {
	h.inner.Reset()
}

func (h *shatrunc) Size() int {
	return 32
}

func (h *shatrunc) BlockSize() int {
	return h.inner.BlockSize()
}
func (h *shatrunc) Sum(b []byte) []byte {
	tmp := h.inner.Sum(nil)
	return append(b, tmp[:32]...)
}

// New returns a hash.Hash computing SHA-512 truncated to 32 bytes.
func New() hash.Hash {
	ret := new(shatrunc)
	ret.inner = sha512.New()
	return ret
}
