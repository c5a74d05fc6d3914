// Package header implements Bitcoin block header serialization, hashing,
// and the augmented "committed header" record the relay state machine
// stores digests of.
package header

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/libsv/go-bt/v2/chainhash"
)

// BlockHeader is the canonical 80-byte Bitcoin block header.
type BlockHeader struct {
	Version               uint32
	ReversedPrevBlockhash  [32]byte // little-endian, as carried on the wire
	MerkleRoot             [32]byte
	Timestamp              uint32 // Unix seconds
	NBits                  uint32 // compact target
	Nonce                  uint32
}

// Serialize returns the byte-identical 80-byte Bitcoin wire form.
func (h BlockHeader) Serialize() [80]byte {
	var out [80]byte
	binary.LittleEndian.PutUint32(out[0:4], h.Version)
	copy(out[4:36], h.ReversedPrevBlockhash[:])
	copy(out[36:68], h.MerkleRoot[:])
	binary.LittleEndian.PutUint32(out[68:72], h.Timestamp)
	binary.LittleEndian.PutUint32(out[72:76], h.NBits)
	binary.LittleEndian.PutUint32(out[76:80], h.Nonce)
	return out
}

// ParseBlockHeader is Serialize's inverse, decoding the canonical 80-byte
// Bitcoin wire form back into a BlockHeader.
func ParseBlockHeader(data [80]byte) (BlockHeader, error) {
	var h BlockHeader
	h.Version = binary.LittleEndian.Uint32(data[0:4])
	copy(h.ReversedPrevBlockhash[:], data[4:36])
	copy(h.MerkleRoot[:], data[36:68])
	h.Timestamp = binary.LittleEndian.Uint32(data[68:72])
	h.NBits = binary.LittleEndian.Uint32(data[72:76])
	h.Nonce = binary.LittleEndian.Uint32(data[76:80])
	return h, nil
}

// BlockHash returns the double-SHA-256 of the header's canonical
// serialization, in Bitcoin's internal (little-endian) byte order.
func (h BlockHeader) BlockHash() chainhash.Hash {
	ser := h.Serialize()
	first := sha256.Sum256(ser[:])
	second := sha256.Sum256(first[:])
	return chainhash.Hash(second)
}

// ReversedBlockHash returns BlockHash with its bytes reversed, i.e. the
// big-endian form used when comparing against a target.
func (h BlockHeader) ReversedBlockHash() [32]byte {
	hash := h.BlockHash()
	var out [32]byte
	for i := 0; i < 32; i++ {
		out[i] = hash[31-i]
	}
	return out
}
