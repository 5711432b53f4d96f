package merkle

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func randomNonces(n int) [][]byte {
	nonces := make([][]byte, n)
	for i := range nonces {
		nonces[i] = make([]byte, 64)
		rand.Read(nonces[i])
	}
	return nonces
}

// TestPathVerification covers every batch size from 1 to 17, exercising
// both exact powers of two and the duplicate-rightmost-leaf padding used
// for the rest.
func TestPathVerification(t *testing.T) {
	for size := 1; size <= 17; size++ {
		nonces := randomNonces(size)
		tree := New(nonces)
		root := tree.Root()

		for i := range nonces {
			path := tree.Path(i)
			got := VerifyPath(nonces[i], uint32(i), path)
			if !bytes.Equal(got[:], root[:]) {
				t.Fatalf("batch size %d: leaf %d: recomputed root does not match", size, i)
			}
		}
	}
}

func TestSingleLeafTreeHasEmptyPath(t *testing.T) {
	tree := New(randomNonces(1))
	if path := tree.Path(0); len(path) != 0 {
		t.Fatalf("expected an empty path for a single-leaf tree, got %d entries", len(path))
	}
}

func TestDifferentBatchesProduceDifferentRoots(t *testing.T) {
	a := New(randomNonces(4))
	b := New(randomNonces(4))
	if a.Root() == b.Root() {
		t.Fatal("expected different random batches to produce different roots")
	}
}

func TestWrongNonceFailsVerification(t *testing.T) {
	nonces := randomNonces(5)
	tree := New(nonces)
	root := tree.Root()

	path := tree.Path(2)
	wrong := make([]byte, 64)
	rand.Read(wrong)

	got := VerifyPath(wrong, 2, path)
	if bytes.Equal(got[:], root[:]) {
		t.Fatal("expected verification with the wrong nonce to fail")
	}
}

func TestEncodeDecodePathRoundtrip(t *testing.T) {
	tree := New(randomNonces(9))
	path := tree.Path(3)

	encoded := EncodePath(path)
	decoded := DecodePath(encoded)

	if len(decoded) != len(path) {
		t.Fatalf("got %d path entries after roundtrip, want %d", len(decoded), len(path))
	}
	for i := range path {
		if decoded[i] != path[i] {
			t.Fatalf("path entry %d mismatch after roundtrip", i)
		}
	}
}
