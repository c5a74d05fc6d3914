// Package merkle recomputes a Bitcoin Merkle root from a leaf (txid), its
// index, and a sibling-hash proof, for comparison against a header's
// stored merkle_root.
package merkle

import "crypto/sha256"

// ComputeRoot folds siblings into leaf by index parity, double-SHA-256 at
// each step, and halves index after each fold. An empty sibling list
// returns leaf unchanged (the single-transaction-block case).
func ComputeRoot(leaf [32]byte, index uint32, siblings [][32]byte) [32]byte {
	h := leaf
	for _, sib := range siblings {
		var buf [64]byte
		if index&1 == 0 {
			copy(buf[:32], h[:])
			copy(buf[32:], sib[:])
		} else {
			copy(buf[:32], sib[:])
			copy(buf[32:], h[:])
		}
		first := sha256.Sum256(buf[:])
		h = sha256.Sum256(first[:])
		index >>= 1
	}
	return h
}
