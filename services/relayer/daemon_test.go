package relayer

import (
	"context"
	"encoding/hex"
	"testing"
	"time"

	"github.com/ordishs/go-bitcoin"

	"github.com/yona-labs/btc-relay/bignum"
	"github.com/yona-labs/btc-relay/header"
	"github.com/yona-labs/btc-relay/relay"
	"github.com/yona-labs/btc-relay/relayconfig"
	"github.com/yona-labs/btc-relay/stores/headercache"
)

// mineHeader searches nonces until h's hash satisfies target, mutating h
// in place — the same brute-force approach relay/engine_test.go uses,
// duplicated locally since Regtest's trivial target still requires an
// actual proof-of-work search and relay's helper is unexported.
func mineHeader(t *testing.T, h *header.BlockHeader, target bignum.Uint256) {
	t.Helper()
	for nonce := uint32(0); nonce < 2_000_000; nonce++ {
		h.Nonce = nonce
		reversed := h.ReversedBlockHash()
		if !bignum.Gt(bignum.Uint256(reversed), target) {
			return
		}
	}
	t.Fatal("failed to find a PoW-satisfying nonce within the search budget")
}

func genesisCommitted(t *testing.T) header.CommittedBlockHeader {
	t.Helper()
	g := header.CommittedBlockHeader{
		BlockHeight: 0,
		Header: header.BlockHeader{
			Version:   1,
			Timestamp: 1_600_000_000,
			NBits:     header.Regtest.PowLimitBits,
		},
	}
	mineHeader(t, &g.Header, bignum.CompactToTarget(g.Header.NBits))
	g.ChainWork = bignum.Work(g.Header.NBits)
	return g
}

func childHeader(t *testing.T, parent header.CommittedBlockHeader, timestamp uint32) header.BlockHeader {
	t.Helper()
	h := header.BlockHeader{
		Version:               1,
		ReversedPrevBlockhash: [32]byte(parent.Header.BlockHash()),
		Timestamp:             timestamp,
		NBits:                 header.Regtest.PowLimitBits,
	}
	mineHeader(t, &h, bignum.CompactToTarget(h.NBits))
	return h
}

// displayHash returns a header's block hash in bitcoind's display
// (big-endian) hex form, as GetBlockHash/GetBlockHeader would report it.
func displayHash(h header.BlockHeader) string {
	return encodeHash([32]byte(h.BlockHash()))
}

// fakeRPC is a minimal in-memory rpcClient backed by a fixed header chain,
// indexed by height; it only implements the lookups syncOnce needs.
type fakeRPC struct {
	genesis header.BlockHeader   // height 0
	chain   []header.BlockHeader // index 0 is genesis's child (height 1)
}

func (f *fakeRPC) GetBestBlockHash() (string, error) {
	return displayHash(f.chain[len(f.chain)-1]), nil
}

func (f *fakeRPC) GetBlockHash(height int64) (string, error) {
	if height == 0 {
		return displayHash(f.genesis), nil
	}
	return displayHash(f.chain[height-1]), nil
}

func (f *fakeRPC) GetBlockHeader(hash string) (*bitcoin.BlockHeader, error) {
	for i, h := range f.chain {
		if displayHash(h) == hash {
			return toRPCHeader(h, i+1), nil
		}
	}
	return nil, context.DeadlineExceeded
}

func (f *fakeRPC) GetBlock(hash string) (*bitcoin.Block, error) {
	return nil, context.DeadlineExceeded
}

func (f *fakeRPC) GetRawTransaction(txid string) (*bitcoin.RawTransactionResponse, error) {
	return nil, context.DeadlineExceeded
}

func toRPCHeader(h header.BlockHeader, height int) *bitcoin.BlockHeader {
	rpcHeader := &bitcoin.BlockHeader{
		Hash:       displayHash(h),
		Height:     height,
		Version:    int(h.Version),
		Merkleroot: hex.EncodeToString(reverse32(h.MerkleRoot)),
		Time:       int(h.Timestamp),
		Bits:       hex.EncodeToString(beUint32(h.NBits)),
		Nonce:      int64(h.Nonce),
	}
	if h.ReversedPrevBlockhash != ([32]byte{}) {
		rpcHeader.Previousblockhash = encodeHash(h.ReversedPrevBlockhash)
	}
	return rpcHeader
}

func reverse32(b [32]byte) []byte {
	out := make([]byte, 32)
	for i := range b {
		out[i] = b[31-i]
	}
	return out
}

func beUint32(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

func newTestDaemon(t *testing.T, genesis header.CommittedBlockHeader, chain []header.BlockHeader) (*Daemon, *headercache.Store) {
	t.Helper()
	cache, err := headercache.Open(t.TempDir() + "/headercache.db")
	if err != nil {
		t.Fatalf("headercache.Open: %v", err)
	}
	if err := cache.PutCommittedHeader(context.Background(), genesis); err != nil {
		t.Fatalf("seeding genesis: %v", err)
	}

	net := header.Regtest
	m := relay.Initialize(genesis, [20]byte{})
	v := relay.NewValidator(&net)
	v.Now = func() time.Time { return time.Unix(int64(genesis.Header.Timestamp)+1_000_000, 0) }
	engine := relay.NewEngine(m, v)
	verifier := relay.NewTxVerifier(m, &relay.DepositState{})

	cfg := relayconfig.RelayerConfig{HeadersPerBatch: int(relay.MaxHeadersPerBatch)}
	d := newDaemon(cfg, &fakeRPC{genesis: genesis.Header, chain: chain}, cache, engine, verifier, nil)
	return d, cache
}

func TestSyncOnceExtendsMainChainFromNode(t *testing.T) {
	genesis := genesisCommitted(t)
	h1 := childHeader(t, genesis, genesis.Header.Timestamp+600)

	d, cache := newTestDaemon(t, genesis, []header.BlockHeader{h1})

	advanced, err := d.syncOnce(context.Background())
	if err != nil {
		t.Fatalf("syncOnce: %v", err)
	}
	if !advanced {
		t.Fatal("expected syncOnce to report progress")
	}

	tip, err := cache.GetTip(context.Background())
	if err != nil {
		t.Fatalf("GetTip: %v", err)
	}
	if tip.BlockHeight != 1 {
		t.Fatalf("cached tip height = %d, want 1", tip.BlockHeight)
	}
	if d.engine.Main.BlockHeight != 1 {
		t.Fatalf("engine tip height = %d, want 1", d.engine.Main.BlockHeight)
	}
}

func TestSyncOnceIsNoopWhenAlreadyAtTip(t *testing.T) {
	genesis := genesisCommitted(t)
	h1 := childHeader(t, genesis, genesis.Header.Timestamp+600)

	d, cache := newTestDaemon(t, genesis, []header.BlockHeader{h1})

	if _, err := d.syncOnce(context.Background()); err != nil {
		t.Fatalf("first syncOnce: %v", err)
	}

	advanced, err := d.syncOnce(context.Background())
	if err != nil {
		t.Fatalf("second syncOnce: %v", err)
	}
	if advanced {
		t.Fatal("expected no progress once the node's best height equals the cached tip")
	}

	tip, err := cache.GetTip(context.Background())
	if err != nil {
		t.Fatalf("GetTip: %v", err)
	}
	if tip.BlockHeight != 1 {
		t.Fatalf("cached tip height = %d, want 1 (unchanged)", tip.BlockHeight)
	}
}
