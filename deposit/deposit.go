// Package deposit builds the canonical bridge-deposit witness script and
// its P2WSH address: the output form a recipient sends Bitcoin to in order
// to mint a collateralized claim recognized by the relay core's
// transaction verifier (C9/C10).
package deposit

import (
	"github.com/libsv/go-bt/v2/bscript"
	"github.com/libsv/go-bt/v2/chainhash"
	"github.com/yona-labs/btc-relay/header"
)

// Script constructs the canonical deposit witness script binding funds to
// recipient and requiring the bridge's key (identified by its pubkey hash)
// to spend.
//
// spec.md §4.8 describes the requirement ("binds a recipient identifier to
// a bridge public-key hash [and] requires the bridge's key to spend") but
// leaves the exact opcode sequence unpinned, and original_source does not
// retrieve the construction code (the deposit/bridge feature postdates the
// retrieved Rust snapshot — see DESIGN.md). This resolves it as: a
// standard P2PKH-equivalent spend condition (OP_DUP OP_HASH160 <hash>
// OP_EQUALVERIFY OP_CHECKSIG) gated behind a no-op push of the recipient
// id, so each deposit output is addressed to exactly one recipient for
// indexing/matching purposes:
//
//	OP_DATA_32 <recipient_id>
//	OP_DROP
//	OP_DUP OP_HASH160 OP_DATA_20 <bridge_pubkey_hash> OP_EQUALVERIFY OP_CHECKSIG
func Script(recipient [32]byte, bridgePubkeyHash [20]byte) (*bscript.Script, error) {
	s := &bscript.Script{}

	if err := s.AppendPushData(recipient[:]); err != nil {
		return nil, err
	}
	if err := s.AppendOpcodes(bscript.OpDROP); err != nil {
		return nil, err
	}
	if err := s.AppendOpcodes(bscript.OpDUP, bscript.OpHASH160); err != nil {
		return nil, err
	}
	if err := s.AppendPushData(bridgePubkeyHash[:]); err != nil {
		return nil, err
	}
	if err := s.AppendOpcodes(bscript.OpEQUALVERIFY, bscript.OpCHECKSIG); err != nil {
		return nil, err
	}
	return s, nil
}

// WitnessProgram returns the P2WSH witness program (SHA-256 of the
// deposit script) that the on-chain output's scriptPubKey commits to.
func WitnessProgram(recipient [32]byte, bridgePubkeyHash [20]byte) ([32]byte, error) {
	s, err := Script(recipient, bridgePubkeyHash)
	if err != nil {
		return [32]byte{}, err
	}
	return chainhash.HashH(*s), nil
}

// ScriptPubKey returns the P2WSH scriptPubKey (OP_0 <32-byte witness
// program>) a deposit transaction's first output must carry.
func ScriptPubKey(recipient [32]byte, bridgePubkeyHash [20]byte) (*bscript.Script, error) {
	program, err := WitnessProgram(recipient, bridgePubkeyHash)
	if err != nil {
		return nil, err
	}
	s := &bscript.Script{}
	if err := s.AppendOpcodes(bscript.Op0); err != nil {
		return nil, err
	}
	if err := s.AppendPushData(program[:]); err != nil {
		return nil, err
	}
	return s, nil
}

// Address renders the Bech32 P2WSH address for the given network.
func Address(recipient [32]byte, bridgePubkeyHash [20]byte, net *header.Network) (string, error) {
	program, err := WitnessProgram(recipient, bridgePubkeyHash)
	if err != nil {
		return "", err
	}
	return encodeBech32SegwitV0(net.Bech32HRP, program[:])
}
