package header

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSerializeRoundTripLength(t *testing.T) {
	h := BlockHeader{
		Version:   1,
		Timestamp: 1231469665,
		NBits:     0x1d00ffff,
		Nonce:     2573394689,
	}
	ser := h.Serialize()
	assert.Len(t, ser, 80)
}

func TestParseBlockHeaderRoundTrips(t *testing.T) {
	h := BlockHeader{
		Version:               1,
		ReversedPrevBlockhash: [32]byte{1, 2, 3},
		MerkleRoot:            [32]byte{4, 5, 6},
		Timestamp:             1231469665,
		NBits:                 0x1d00ffff,
		Nonce:                 2573394689,
	}
	parsed, err := ParseBlockHeader(h.Serialize())
	assert.NoError(t, err)
	assert.Equal(t, h, parsed)
}

func TestBlockHashIsDoubleSha256(t *testing.T) {
	h := BlockHeader{Version: 1}
	hash := h.BlockHash()
	assert.NotEqual(t, [32]byte{}, hash, "hash of a non-zero-ish header should not be zero")

	ser := h.Serialize()
	first := sha256.Sum256(ser[:])
	assert.Equal(t, sha256.Sum256(first[:]), [32]byte(hash))
}

func TestReversedBlockHashReversesBytes(t *testing.T) {
	h := BlockHeader{Version: 1, NBits: 0x1d00ffff}
	hash := h.BlockHash()
	rev := h.ReversedBlockHash()
	for i := 0; i < 32; i++ {
		assert.Equal(t, hash[i], rev[31-i])
	}
}

func TestCommitDigestIsSingleSha256NotDouble(t *testing.T) {
	c := CommittedBlockHeader{BlockHeight: 100}
	digest := c.CommitDigest()
	assert.NotEqual(t, [32]byte{}, digest)

	single := sha256.Sum256(c.Serialize())
	double := sha256.Sum256(single[:])
	assert.Equal(t, single, digest)
	assert.NotEqual(t, double, digest)
}

func TestCommitDigestIsPureFunctionOfBytes(t *testing.T) {
	c1 := CommittedBlockHeader{BlockHeight: 5, LastDiffAdjustment: 10}
	c2 := CommittedBlockHeader{BlockHeight: 5, LastDiffAdjustment: 10}
	assert.Equal(t, c1.CommitDigest(), c2.CommitDigest())

	c3 := c2
	c3.BlockHeight = 6
	assert.NotEqual(t, c1.CommitDigest(), c3.CommitDigest())
}

func TestParseCommittedBlockHeaderRoundTrips(t *testing.T) {
	c := CommittedBlockHeader{
		ChainWork:           [32]byte{9, 9, 9},
		Header:              BlockHeader{Version: 1, Timestamp: 100, NBits: 0x1d00ffff},
		LastDiffAdjustment:  55,
		BlockHeight:         12345,
		PrevBlockTimestamps: [10]uint32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
	}
	parsed, err := ParseCommittedBlockHeader(c.Serialize())
	assert.NoError(t, err)
	assert.Equal(t, c, parsed)
}

func TestParseCommittedBlockHeaderRejectsWrongLength(t *testing.T) {
	_, err := ParseCommittedBlockHeader([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestNextPrevBlockTimestampsShiftsAndAppends(t *testing.T) {
	c := CommittedBlockHeader{
		Header:              BlockHeader{Timestamp: 999},
		PrevBlockTimestamps: [10]uint32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
	}
	next := c.NextPrevBlockTimestamps()
	assert.Equal(t, [10]uint32{2, 3, 4, 5, 6, 7, 8, 9, 10, 999}, next)
}

func TestMedianTimestampsIncludesOwnTimestamp(t *testing.T) {
	c := CommittedBlockHeader{
		Header:              BlockHeader{Timestamp: 42},
		PrevBlockTimestamps: [10]uint32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
	}
	all := c.MedianTimestamps()
	assert.Equal(t, uint32(42), all[10])
	assert.Equal(t, uint32(1), all[0])
}
