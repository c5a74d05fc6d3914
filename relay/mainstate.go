// Package relay implements the on-chain relay state machine (C4-C9 of the
// design): header validation, the bounded main-chain commitment ring, the
// fork accumulation/reorg protocol, and Merkle-proof-based transaction
// verification. Grounded byte-for-byte on
// original_source/programs/btc-relay/src/{state.rs,lib.rs}.
package relay

// PruningFactor is the ring/fork buffer capacity: the main chain retains
// commitments for its most recent 250 blocks, and a fork may accumulate at
// most 250 headers before it must be abandoned and recreated.
const PruningFactor = 250

// outOfRangePosition is the sentinel returned by Position for a height
// that does not map into the ring.
const outOfRangePosition = PruningFactor

// MainState is the singleton main-chain commitment store: a 250-entry ring
// buffer of commit digests plus tip/work bookkeeping.
type MainState struct {
	StartHeight        uint32
	LastDiffAdjustment uint32
	BlockHeight        uint32
	TotalBlocks        uint32
	ForkCounter        uint64
	TipCommitHash      [32]byte
	TipBlockHash       [32]byte
	ChainWork          [32]byte
	BlockCommitments   [PruningFactor][32]byte
	DepositPubkeyHash  [20]byte
}

// Position returns the ring-buffer slot for a given height, or
// outOfRangePosition if the height falls outside the retained window.
//
// Two branches, matching state.rs's get_position exactly: if the height is
// at or after the ring's anchor (start_height), the slot is the forward
// offset, clamped to the sentinel once it would wrap past the ring's own
// capacity; otherwise the height is behind the anchor and the slot is the
// backward offset from the far end, similarly clamped.
func (m *MainState) Position(blockHeight uint32) int {
	if m.StartHeight <= blockHeight {
		pos := blockHeight - m.StartHeight
		if pos >= PruningFactor {
			return outOfRangePosition
		}
		return int(pos)
	}
	pos := m.StartHeight - blockHeight
	if pos >= PruningFactor {
		return outOfRangePosition
	}
	return int(PruningFactor - pos)
}

// GetCommitment returns the commit digest stored for blockHeight, or the
// zero digest if the height is outside the retained window — the ring
// never leaks stale data for an out-of-range query.
func (m *MainState) GetCommitment(blockHeight uint32) [32]byte {
	if blockHeight > m.BlockHeight {
		return [32]byte{}
	}
	if m.BlockHeight >= PruningFactor && blockHeight <= m.BlockHeight-PruningFactor {
		return [32]byte{}
	}
	pos := m.Position(blockHeight)
	if pos == outOfRangePosition {
		return [32]byte{}
	}
	return m.BlockCommitments[pos]
}

// StoreBlockCommitment writes commitment at blockHeight's ring slot,
// reports false (no write performed) if the height maps to the
// out-of-range sentinel, and advances start_height when writing at
// position 0 (the slot a new block just wrapped into), so the ring stays
// anchored to its own oldest retained entry.
func (m *MainState) StoreBlockCommitment(blockHeight uint32, commitment [32]byte) bool {
	pos := m.Position(blockHeight)
	if pos == outOfRangePosition && blockHeight >= m.StartHeight && blockHeight-m.StartHeight == PruningFactor {
		// One past the ring's forward end: the new block wraps into slot 0.
		pos = 0
	}
	if pos == outOfRangePosition {
		return false
	}
	m.BlockCommitments[pos] = commitment
	if pos == 0 {
		m.StartHeight = blockHeight
	}
	m.TotalBlocks++
	return true
}
