package relay

import (
	"testing"

	"github.com/libsv/go-bt/v2"
	"github.com/yona-labs/btc-relay/deposit"
	"github.com/yona-labs/btc-relay/header"
	"github.com/yona-labs/btc-relay/merkle"
)

func depositTxBytes(t *testing.T, recipient [32]byte, depositPubkeyHash [20]byte, valueSats uint64) []byte {
	t.Helper()
	script, err := deposit.ScriptPubKey(recipient, depositPubkeyHash)
	if err != nil {
		t.Fatalf("ScriptPubKey: %v", err)
	}
	tx := bt.NewTx()
	tx.AddOutput(&bt.Output{LockingScript: script, Satoshis: valueSats})
	return tx.Bytes()
}

func TestIsSmallModeBoundary(t *testing.T) {
	if !IsSmallMode(800, 0) {
		t.Fatal("800 bytes with no siblings should be small mode (inclusive boundary)")
	}
	if IsSmallMode(801, 0) {
		t.Fatal("801 bytes should exceed small mode")
	}
	if !IsSmallMode(768, 1) {
		t.Fatal("768 + 32*1 == 800 should still be small mode")
	}
}

func TestVerifySmallTxHappyPath(t *testing.T) {
	m := &MainState{StartHeight: 0, BlockHeight: 10}
	var depositPubkeyHash [20]byte
	depositPubkeyHash[0] = 0xAA
	m.DepositPubkeyHash = depositPubkeyHash

	var recipient [32]byte
	recipient[0] = 0x01
	txBytes := depositTxBytes(t, recipient, depositPubkeyHash, 1000)

	tx, err := bt.NewTxFromBytes(txBytes)
	if err != nil {
		t.Fatalf("NewTxFromBytes: %v", err)
	}
	txID := nonWitnessTxID(tx)

	parent := header.CommittedBlockHeader{BlockHeight: 5}
	digest := parent.CommitDigest()
	m.StoreBlockCommitment(5, digest)

	merkleRoot := merkle.ComputeRoot(txID, 0, nil)
	parent.Header.MerkleRoot = merkleRoot
	// MerkleRoot is part of Header, which is part of the serialized commit
	// record — recompute digest and re-store after setting it.
	digest = parent.CommitDigest()
	m.StoreBlockCommitment(5, digest)

	// Fund the vault with twice the expected payout, so what remains after
	// verification equals the payout that was moved out.
	d := &DepositState{BalanceSats: 2 * 1000 * DepositPayoutMultiplier}
	v := NewTxVerifier(m, d)

	obs, err := v.VerifySmallTx(txBytes, nil, 0, 1, parent, recipient)
	if err != nil {
		t.Fatalf("VerifySmallTx: %v", err)
	}
	if obs.TxID != txID {
		t.Fatalf("TxID = %x, want %x", obs.TxID, txID)
	}
	if d.BalanceSats != 1000*DepositPayoutMultiplier {
		t.Fatalf("BalanceSats = %d, want %d", d.BalanceSats, 1000*DepositPayoutMultiplier)
	}
	if !v.IsRelayed(txID) {
		t.Fatal("expected txid to be marked relayed")
	}
}

func TestVerifySmallTxRejectsReplay(t *testing.T) {
	m := &MainState{StartHeight: 0, BlockHeight: 10}
	var depositPubkeyHash [20]byte
	var recipient [32]byte
	recipient[0] = 0x02
	txBytes := depositTxBytes(t, recipient, depositPubkeyHash, 500)

	tx, _ := bt.NewTxFromBytes(txBytes)
	txID := nonWitnessTxID(tx)

	parent := header.CommittedBlockHeader{BlockHeight: 5}
	parent.Header.MerkleRoot = merkle.ComputeRoot(txID, 0, nil)
	m.StoreBlockCommitment(5, parent.CommitDigest())

	d := &DepositState{}
	v := NewTxVerifier(m, d)

	if _, err := v.VerifySmallTx(txBytes, nil, 0, 1, parent, recipient); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	if _, err := v.VerifySmallTx(txBytes, nil, 0, 1, parent, recipient); err == nil {
		t.Fatal("expected replay of the same txid to be rejected")
	}
}

func TestVerifySmallTxRejectsInsufficientConfirmations(t *testing.T) {
	m := &MainState{StartHeight: 0, BlockHeight: 5}
	var recipient [32]byte
	txBytes := depositTxBytes(t, recipient, [20]byte{}, 500)

	parent := header.CommittedBlockHeader{BlockHeight: 5}
	m.StoreBlockCommitment(5, parent.CommitDigest())

	d := &DepositState{}
	v := NewTxVerifier(m, d)

	if _, err := v.VerifySmallTx(txBytes, nil, 0, 2, parent, recipient); err == nil {
		t.Fatal("expected confirmations requirement to reject at depth 1")
	}
}

func TestChunkedVerifyMatchesSmallModeResult(t *testing.T) {
	m := &MainState{StartHeight: 0, BlockHeight: 10}
	var depositPubkeyHash [20]byte
	var recipient [32]byte
	recipient[0] = 0x03
	txBytes := depositTxBytes(t, recipient, depositPubkeyHash, 2000)

	tx, _ := bt.NewTxFromBytes(txBytes)
	txID := nonWitnessTxID(tx)

	parent := header.CommittedBlockHeader{BlockHeight: 5}
	parent.Header.MerkleRoot = merkle.ComputeRoot(txID, 0, nil)
	m.StoreBlockCommitment(5, parent.CommitDigest())

	// Fund the vault with twice the expected payout, so what remains after
	// finalization equals the payout that was moved out.
	d := &DepositState{BalanceSats: 2 * 2000 * DepositPayoutMultiplier}
	v := NewTxVerifier(m, d)

	if err := v.InitBigTxVerify(txID, uint32(len(txBytes)), 1, 0, nil, parent, recipient); err != nil {
		t.Fatalf("InitBigTxVerify: %v", err)
	}
	mid := len(txBytes) / 2
	if err := v.StoreTxBytes(txID, txBytes[:mid]); err != nil {
		t.Fatalf("StoreTxBytes chunk1: %v", err)
	}
	if err := v.StoreTxBytes(txID, txBytes[mid:]); err != nil {
		t.Fatalf("StoreTxBytes chunk2: %v", err)
	}
	obs, err := v.FinalizeTx(txID)
	if err != nil {
		t.Fatalf("FinalizeTx: %v", err)
	}
	if obs.TxID != txID {
		t.Fatalf("TxID = %x, want %x", obs.TxID, txID)
	}
	if d.BalanceSats != 2000*DepositPayoutMultiplier {
		t.Fatalf("BalanceSats = %d, want %d", d.BalanceSats, 2000*DepositPayoutMultiplier)
	}
}
