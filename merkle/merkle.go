// Package merkle implements the batch-aggregation Merkle tree used to bind
// many client nonces to a single signed root: one signature per batch,
// O(log N) inclusion proof per response.
package merkle

import (
	"hash"

	"github.com/kyhwana/roughenough/sha512trunc"
)

// HashSize is the width, in bytes, of every leaf and internal node.
const HashSize = 32

var (
	leafTweak = []byte{0x00}
	nodeTweak = []byte{0x01}
)

func newHash() hash.Hash {
	return sha512trunc.New()
}

// hashLeaf computes H(0x00 || nonce), the domain-separated leaf hash.
func hashLeaf(out *[HashSize]byte, nonce []byte) {
	h := newHash()
	h.Write(leafTweak)
	h.Write(nonce)
	h.Sum(out[:0])
}

// hashNode computes H(0x01 || left || right), the domain-separated interior
// node hash.
func hashNode(out *[HashSize]byte, left, right []byte) {
	h := newHash()
	h.Write(nodeTweak)
	h.Write(left)
	h.Write(right)
	h.Sum(out[:0])
}

// Tree is a Merkle tree built over a batch's nonces. Each element of levels
// is a layer of the tree, with the widest (leaf) layer first. Short of a
// power of two, the leaf layer is padded up to the next power of two with
// copies of the rightmost real leaf.
type Tree struct {
	levels [][][HashSize]byte
}

// New builds a Merkle tree over the given nonces, in the order given: leaf i
// corresponds to nonces[i]. It panics if nonces is empty — an empty batch is
// never flushed by the server loop.
func New(nonces [][]byte) *Tree {
	if len(nonces) == 0 {
		panic("merkle: New called with no nonces")
	}

	levels := 1
	width := len(nonces)
	for width > 1 {
		width = (width + 1) / 2
		levels++
	}

	t := &Tree{
		levels: make([][][HashSize]byte, 0, levels),
	}

	paddedWidth := 1
	for paddedWidth < len(nonces) {
		paddedWidth *= 2
	}
	leaves := make([][HashSize]byte, paddedWidth)
	for i, nonce := range nonces {
		hashLeaf(&leaves[i], nonce)
	}
	// Duplicate the rightmost real leaf to fill out the level, so the
	// padding never signs anything other than a real nonce's hash twice.
	for i := len(nonces); i < len(leaves); i++ {
		leaves[i] = leaves[len(nonces)-1]
	}
	t.levels = append(t.levels, leaves)

	for l := 1; l < levels; l++ {
		prev := t.levels[l-1]
		width := len(prev) / 2
		if width%2 == 1 {
			width++
		}
		level := make([][HashSize]byte, width)
		for j := 0; j < len(prev)/2; j++ {
			hashNode(&level[j], prev[j*2][:], prev[j*2+1][:])
		}
		if len(prev)/2 < len(level) {
			level[len(prev)/2] = level[0]
		}
		t.levels = append(t.levels, level)
	}

	return t
}

// Root returns the topmost node of the tree: the value signed in SREP.ROOT.
func (t *Tree) Root() [HashSize]byte {
	return t.levels[len(t.levels)-1][0]
}

// Path returns the sibling hashes encountered while ascending from leaf
// index to the root, lowest level first — exactly the bytes carried in a
// response's PATH tag.
func (t *Tree) Path(index int) [][HashSize]byte {
	path := make([][HashSize]byte, 0, len(t.levels)-1)

	for level := 0; level < len(t.levels)-1; level++ {
		if index%2 == 1 {
			path = append(path, t.levels[level][index-1])
		} else {
			path = append(path, t.levels[level][index+1])
		}
		index /= 2
	}

	return path
}

// VerifyPath implements the client-side verification law: starting from
// leaf = H(0x00||nonce) and idx = index, for each sibling in path, combine
// according to idx's parity and shift idx right. Returns the reconstructed
// root for the caller to compare against SREP.ROOT.
func VerifyPath(nonce []byte, index uint32, path [][HashSize]byte) [HashSize]byte {
	var leaf [HashSize]byte
	hashLeaf(&leaf, nonce)

	for _, sibling := range path {
		if index&1 == 0 {
			hashNode(&leaf, leaf[:], sibling[:])
		} else {
			hashNode(&leaf, sibling[:], leaf[:])
		}
		index >>= 1
	}

	return leaf
}

// EncodePath concatenates path's siblings into the wire form of PATH.
func EncodePath(path [][HashSize]byte) []byte {
	out := make([]byte, 0, HashSize*len(path))
	for _, sibling := range path {
		out = append(out, sibling[:]...)
	}
	return out
}

// DecodePath splits a wire-form PATH value into its sibling hashes. If buf's
// length is not a multiple of HashSize, the trailing partial sibling is
// ignored without an error; callers are expected to have already validated that via the codec (PATH's
// length is a multiple of 4 at the wire level, and the protocol validates
// it's also a multiple of HashSize before calling this).
func DecodePath(buf []byte) [][HashSize]byte {
	path := make([][HashSize]byte, len(buf)/HashSize)
	for i := range path {
		copy(path[i][:], buf[i*HashSize:(i+1)*HashSize])
	}
	return path
}
