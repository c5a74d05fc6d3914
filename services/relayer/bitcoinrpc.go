// Package relayer is the off-chain daemon that keeps the relay core's main
// chain in sync with a Bitcoin full node and turns submitted deposit txids
// into verify_small_tx/init_big_tx_verify calls. Grounded on
// original_source/block_relayer/src/{lib.rs,relay_program_interaction.rs}'s
// poll loop and the teacher's services/legacy/netsync retry-and-continue
// shape (without netsync's full P2P peer-set machinery — this daemon has a
// single upstream, a Bitcoin node's RPC endpoint).
package relayer

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/ordishs/go-bitcoin"

	"github.com/yona-labs/btc-relay/header"
)

// rpcClient narrows github.com/ordishs/go-bitcoin's *bitcoin.Bitcoind down
// to the calls this daemon makes, so tests can substitute a fake node.
type rpcClient interface {
	GetBestBlockHash() (string, error)
	GetBlockHash(height int64) (string, error)
	GetBlockHeader(hash string) (*bitcoin.BlockHeader, error)
	GetBlock(hash string) (*bitcoin.Block, error)
	GetRawTransaction(txid string) (*bitcoin.RawTransactionResponse, error)
}

// newRPCClient dials a bitcoind JSON-RPC endpoint.
func newRPCClient(host string, port int, user, password string) (rpcClient, error) {
	return bitcoin.New(host, port, user, password, false)
}

// decodeHash hex-decodes a display-order (big-endian) hash string, as
// bitcoind's JSON-RPC reports hashes, and reverses it into the internal
// little-endian wire order header.BlockHeader's fields use.
func decodeHash(s string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("relayer: invalid hash %q: %w", s, err)
	}
	if len(raw) != 32 {
		return out, fmt.Errorf("relayer: hash %q is not 32 bytes", s)
	}
	for i := 0; i < 32; i++ {
		out[i] = raw[31-i]
	}
	return out, nil
}

// encodeHash is decodeHash's inverse, for turning a wire-order hash back
// into the display hex bitcoind's RPC calls expect (getblockhash/
// getblock take this form).
func encodeHash(h [32]byte) string {
	var reversed [32]byte
	for i := 0; i < 32; i++ {
		reversed[i] = h[31-i]
	}
	return hex.EncodeToString(reversed[:])
}

func decodeBits(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("relayer: invalid nbits %q: %w", s, err)
	}
	return uint32(v), nil
}

// toBlockHeader converts a bitcoind getblockheader response into this
// repo's wire-level BlockHeader.
func toBlockHeader(h *bitcoin.BlockHeader) (header.BlockHeader, error) {
	var prev [32]byte
	var err error
	if h.Previousblockhash != "" {
		prev, err = decodeHash(h.Previousblockhash)
		if err != nil {
			return header.BlockHeader{}, err
		}
	}

	merkleRoot, err := decodeHash(h.Merkleroot)
	if err != nil {
		return header.BlockHeader{}, err
	}

	bits, err := decodeBits(h.Bits)
	if err != nil {
		return header.BlockHeader{}, err
	}

	return header.BlockHeader{
		Version:               uint32(h.Version),
		ReversedPrevBlockhash: prev,
		MerkleRoot:            merkleRoot,
		Timestamp:             uint32(h.Time),
		NBits:                 bits,
		Nonce:                 uint32(h.Nonce),
	}, nil
}
