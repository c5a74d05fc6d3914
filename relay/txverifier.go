package relay

import (
	"bytes"
	"crypto/sha256"

	"github.com/libsv/go-bt/v2"
	"github.com/yona-labs/btc-relay/deposit"
	"github.com/yona-labs/btc-relay/header"
	"github.com/yona-labs/btc-relay/merkle"
	"github.com/yona-labs/btc-relay/rerrors"
)

// SmallModeMaxBytes is the inclusive boundary (spec.md §8 boundary
// behaviors): len(tx_bytes) + 32*len(siblings) <= SmallModeMaxBytes uses
// small (single-call) mode; anything larger requires the chunked protocol.
const SmallModeMaxBytes = 800

// IsSmallMode reports whether a transaction of txBytesLen bytes with
// numSiblings Merkle-proof siblings fits the single-call verification path.
func IsSmallMode(txBytesLen, numSiblings int) bool {
	return txBytesLen+32*numSiblings <= SmallModeMaxBytes
}

// TxBigState is a per-txid big-transaction buffer state (spec.md §3).
type TxBigState int

const (
	VerificationInitialized TxBigState = iota
	VerificationComplete
)

// BigTxState is the chunked-verification record for one pending large
// transaction.
type BigTxState struct {
	TxID         [32]byte
	TxSize       uint32
	TxBytes      []byte
	State        TxBigState
	Recipient    [32]byte
	Confirmations uint32
	ProvenDepth  bool // steps 1-3 (confirmations, commit-echo, Merkle) were already checked at InitBigTxVerify
}

// TxVerifier combines the Merkle verifier (C8) with a confirmation-depth
// check against the main chain (C5), a parent-commitment recheck, the
// bridge-deposit script-equality check (C10), and collateral release.
// Supports both small (single-call) and chunked (big-tx) submission.
type TxVerifier struct {
	Main    *MainState
	Deposit *DepositState

	// txRelayed records per-txid idempotence: once VerificationComplete,
	// a repeat verify_small_tx/finalize_tx_processing call must fail
	// (spec.md §4.7 step 5, §7 replay prevention).
	txRelayed map[[32]byte]bool
	bigTx     map[[32]byte]*BigTxState
}

// NewTxVerifier constructs a TxVerifier over the given main chain and
// deposit vault.
func NewTxVerifier(main *MainState, d *DepositState) *TxVerifier {
	return &TxVerifier{
		Main:      main,
		Deposit:   d,
		txRelayed: make(map[[32]byte]bool),
		bigTx:     make(map[[32]byte]*BigTxState),
	}
}

// IsRelayed reports whether txID has already completed verification — the
// query interface behind spec.md §6's get_tx_state/get_tx_states.
func (v *TxVerifier) IsRelayed(txID [32]byte) bool {
	return v.txRelayed[txID]
}

func nonWitnessTxID(tx *bt.Tx) [32]byte {
	ser := tx.Bytes()
	first := sha256.Sum256(ser)
	return sha256.Sum256(first[:])
}

// checkDepth enforces spec.md §4.7 steps 1-2: confirmation depth and the
// commit-echo recheck against the supplied parent committed record.
func (v *TxVerifier) checkDepth(p header.CommittedBlockHeader, confirmations uint32) error {
	if v.Main.BlockHeight < p.BlockHeight {
		return rerrors.New(rerrors.BlockConfirmations, "parent height %d is ahead of tip %d", p.BlockHeight, v.Main.BlockHeight)
	}
	depth := v.Main.BlockHeight - p.BlockHeight + 1
	if depth < confirmations {
		return rerrors.New(rerrors.BlockConfirmations, "depth %d below required %d", depth, confirmations)
	}
	if p.CommitDigest() != v.Main.GetCommitment(p.BlockHeight) {
		return rerrors.New(rerrors.PrevBlockCommitment, "supplied header does not match stored commitment at height %d", p.BlockHeight)
	}
	return nil
}

// checkMerkle recomputes the Merkle root from txid/index/siblings and
// compares it to p's header's stored root.
func checkMerkle(txID [32]byte, index uint32, siblings [][32]byte, p header.CommittedBlockHeader) error {
	root := merkle.ComputeRoot(txID, index, siblings)
	if root != p.Header.MerkleRoot {
		return rerrors.New(rerrors.MerkleRoot, "recomputed merkle root does not match header")
	}
	return nil
}

// checkDepositScript asserts tx's first output script equals the
// canonical bridge-deposit P2WSH script-pubkey for recipient.
func checkDepositScript(tx *bt.Tx, recipient [32]byte, depositPubkeyHash [20]byte) (uint64, error) {
	if len(tx.Outputs) == 0 {
		return 0, rerrors.New(rerrors.NoDepositOutputs, "transaction has no outputs")
	}
	want, err := deposit.ScriptPubKey(recipient, depositPubkeyHash)
	if err != nil {
		return 0, rerrors.New(rerrors.InvalidDepositAddress, "failed to derive expected deposit script", err)
	}
	got := tx.Outputs[0].LockingScript
	if got == nil || !bytes.Equal(*got, *want) {
		return 0, rerrors.New(rerrors.InvalidDepositAddress, "output[0] script does not match expected deposit script-pubkey")
	}
	return tx.Outputs[0].Satoshis, nil
}

// VerifySmallTx runs the single-call verification path of spec.md §4.7.
func (v *TxVerifier) VerifySmallTx(txBytes []byte, siblings [][32]byte, index uint32, confirmations uint32, p header.CommittedBlockHeader, recipient [32]byte) (DepositTxVerified, error) {
	if err := v.checkDepth(p, confirmations); err != nil {
		return DepositTxVerified{}, err
	}

	tx, err := bt.NewTxFromBytes(txBytes)
	if err != nil {
		return DepositTxVerified{}, rerrors.New(rerrors.TxDecodeFailure, "failed to decode transaction", err)
	}
	txID := nonWitnessTxID(tx)

	if err := checkMerkle(txID, index, siblings, p); err != nil {
		return DepositTxVerified{}, err
	}

	valueSats, err := checkDepositScript(tx, recipient, v.Main.DepositPubkeyHash)
	if err != nil {
		return DepositTxVerified{}, err
	}

	if v.txRelayed[txID] {
		return DepositTxVerified{}, rerrors.New(rerrors.UnexpectedTxId, "transaction %x already relayed", txID)
	}
	v.txRelayed[txID] = true

	payout := valueSats * DepositPayoutMultiplier
	v.Deposit.payout(payout)

	return DepositTxVerified{TxID: txID, Recipient: recipient, DepositPubkeyHash: v.Main.DepositPubkeyHash}, nil
}

// InitBigTxVerify begins the chunked protocol: validates the Merkle proof
// (depth + commit-echo + root) against p using the supplied expected txid,
// and allocates a BigTxState sized for txSize bytes.
func (v *TxVerifier) InitBigTxVerify(txID [32]byte, txSize uint32, confirmations uint32, index uint32, siblings [][32]byte, p header.CommittedBlockHeader, recipient [32]byte) error {
	if err := v.checkDepth(p, confirmations); err != nil {
		return err
	}
	if err := checkMerkle(txID, index, siblings, p); err != nil {
		return err
	}
	if v.txRelayed[txID] {
		return rerrors.New(rerrors.UnexpectedTxId, "transaction %x already relayed", txID)
	}

	v.bigTx[txID] = &BigTxState{
		TxID:          txID,
		TxSize:        txSize,
		TxBytes:       make([]byte, 0, txSize),
		State:         VerificationInitialized,
		Recipient:     recipient,
		Confirmations: confirmations,
		ProvenDepth:   true,
	}
	return nil
}

// StoreTxBytes appends a chunk to txID's accumulating buffer.
func (v *TxVerifier) StoreTxBytes(txID [32]byte, chunk []byte) error {
	st, ok := v.bigTx[txID]
	if !ok || st.State != VerificationInitialized {
		return rerrors.New(rerrors.TxDecodeFailure, "no pending big-tx verification for %x", txID)
	}
	st.TxBytes = append(st.TxBytes, chunk...)
	return nil
}

// FinalizeTx decodes the accumulated bytes, confirms the decoded txid
// matches the one the buffer was created for, runs the deposit-script
// check, releases the payout, and destroys the BigTxState.
func (v *TxVerifier) FinalizeTx(txID [32]byte) (DepositTxVerified, error) {
	st, ok := v.bigTx[txID]
	if !ok || st.State != VerificationInitialized {
		return DepositTxVerified{}, rerrors.New(rerrors.TxDecodeFailure, "no pending big-tx verification for %x", txID)
	}

	tx, err := bt.NewTxFromBytes(st.TxBytes)
	if err != nil {
		return DepositTxVerified{}, rerrors.New(rerrors.TxDecodeFailure, "accumulated bytes do not parse as a transaction", err)
	}
	decodedID := nonWitnessTxID(tx)
	if decodedID != txID {
		return DepositTxVerified{}, rerrors.New(rerrors.UnexpectedTxId, "decoded txid %x does not match expected %x", decodedID, txID)
	}

	valueSats, err := checkDepositScript(tx, st.Recipient, v.Main.DepositPubkeyHash)
	if err != nil {
		return DepositTxVerified{}, err
	}

	payout := valueSats * DepositPayoutMultiplier
	v.Deposit.payout(payout)
	v.txRelayed[txID] = true
	delete(v.bigTx, txID)

	return DepositTxVerified{TxID: txID, Recipient: st.Recipient, DepositPubkeyHash: v.Main.DepositPubkeyHash}, nil
}
