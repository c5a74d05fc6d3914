package merkle

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmptySiblingsReturnsLeaf(t *testing.T) {
	leaf := [32]byte{1, 2, 3}
	got := ComputeRoot(leaf, 0, nil)
	assert.Equal(t, leaf, got)
}

func TestTwoLeafTree(t *testing.T) {
	leafA := [32]byte{0xaa}
	leafB := [32]byte{0xbb}

	var buf [64]byte
	copy(buf[:32], leafA[:])
	copy(buf[32:], leafB[:])
	first := sha256.Sum256(buf[:])
	want := sha256.Sum256(first[:])

	gotFromA := ComputeRoot(leafA, 0, [][32]byte{leafB})
	assert.Equal(t, want, gotFromA)

	gotFromB := ComputeRoot(leafB, 1, [][32]byte{leafA})
	assert.Equal(t, want, gotFromB)
}

func TestIndexHalvesEachFold(t *testing.T) {
	leaf := [32]byte{1}
	sibA := [32]byte{2}
	sibB := [32]byte{3}

	// index 1 -> first fold uses sibling-then-leaf (odd), then index
	// becomes 0 -> second fold uses leaf-then-sibling (even).
	got := ComputeRoot(leaf, 1, [][32]byte{sibA, sibB})

	var buf1 [64]byte
	copy(buf1[:32], sibA[:])
	copy(buf1[32:], leaf[:])
	f1 := sha256.Sum256(buf1[:])
	h1 := sha256.Sum256(f1[:])

	var buf2 [64]byte
	copy(buf2[:32], h1[:])
	copy(buf2[32:], sibB[:])
	f2 := sha256.Sum256(buf2[:])
	want := sha256.Sum256(f2[:])

	assert.Equal(t, want, got)
}
