package header

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// CommittedBlockHeader is the validator's augmented record: everything
// needed to validate the next header in sequence without re-walking the
// whole chain from genesis.
type CommittedBlockHeader struct {
	ChainWork           [32]byte
	Header              BlockHeader
	LastDiffAdjustment  uint32
	BlockHeight         uint32
	PrevBlockTimestamps [10]uint32 // oldest first
}

// commitSerializedLen is the exact byte length of Serialize's output:
// 32 (chain_work) + 80 (header) + 4 (last_diff_adjustment) + 4 (blockheight) + 40 (10 timestamps).
const commitSerializedLen = 32 + 80 + 4 + 4 + 40

// Serialize renders the record in declaration order for digesting: fields
// in declaration order, [u8;32] as raw bytes, [u32;10] as ten little-endian
// u32s, header inline. This must be bit-exact across implementations.
func (c CommittedBlockHeader) Serialize() []byte {
	out := make([]byte, 0, commitSerializedLen)
	out = append(out, c.ChainWork[:]...)
	headerBytes := c.Header.Serialize()
	out = append(out, headerBytes[:]...)

	var scratch [4]byte
	binary.LittleEndian.PutUint32(scratch[:], c.LastDiffAdjustment)
	out = append(out, scratch[:]...)
	binary.LittleEndian.PutUint32(scratch[:], c.BlockHeight)
	out = append(out, scratch[:]...)

	for _, ts := range c.PrevBlockTimestamps {
		binary.LittleEndian.PutUint32(scratch[:], ts)
		out = append(out, scratch[:]...)
	}
	return out
}

// CommitDigest is a single SHA-256 (not double) of the canonical
// serialization — distinct from BlockHash, which is double-SHA-256 of the
// raw 80-byte header.
func (c CommittedBlockHeader) CommitDigest() [32]byte {
	return sha256.Sum256(c.Serialize())
}

// MedianTimestamps returns the 11 timestamps (10 prior plus this header's
// own) that a candidate child header's timestamp is checked against.
func (c CommittedBlockHeader) MedianTimestamps() [11]uint32 {
	var out [11]uint32
	copy(out[:10], c.PrevBlockTimestamps[:])
	out[10] = c.Header.Timestamp
	return out
}

// ParseCommittedBlockHeader is Serialize's inverse: it decodes a trusted
// checkpoint record supplied out-of-band (spec.md §4.5.1's one-shot
// Initialize call takes exactly this kind of caller-trusted value), such
// as cmd/relayer's bootstrap-checkpoint configuration.
func ParseCommittedBlockHeader(data []byte) (CommittedBlockHeader, error) {
	if len(data) != commitSerializedLen {
		return CommittedBlockHeader{}, fmt.Errorf("header: checkpoint record is %d bytes, want %d", len(data), commitSerializedLen)
	}

	var c CommittedBlockHeader
	copy(c.ChainWork[:], data[0:32])

	var headerBytes [80]byte
	copy(headerBytes[:], data[32:112])
	h, err := ParseBlockHeader(headerBytes)
	if err != nil {
		return CommittedBlockHeader{}, err
	}
	c.Header = h

	c.LastDiffAdjustment = binary.LittleEndian.Uint32(data[112:116])
	c.BlockHeight = binary.LittleEndian.Uint32(data[116:120])
	for i := range c.PrevBlockTimestamps {
		off := 120 + i*4
		c.PrevBlockTimestamps[i] = binary.LittleEndian.Uint32(data[off : off+4])
	}
	return c, nil
}

// NextPrevBlockTimestamps computes the shifted window a child committed
// record carries: drop the oldest entry, append this header's own
// timestamp at the newest slot.
func (c CommittedBlockHeader) NextPrevBlockTimestamps() [10]uint32 {
	var out [10]uint32
	copy(out[:9], c.PrevBlockTimestamps[1:])
	out[9] = c.Header.Timestamp
	return out
}
