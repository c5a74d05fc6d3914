// Package bridgekey loads the bridge operator's signing key for UTXO
// bookkeeping and address derivation. Transaction construction/signing is
// outside SPEC_FULL.md's scope (the core only bookkeeps; withdrawal
// transactions are built by whatever external wallet tooling the operator
// chooses) — this package exists so the relayer/faucet binaries can derive
// the bridge's own P2WSH-spending pubkey hash from a configured WIF key,
// the same way teranode's coinbase service loads its wallet key.
package bridgekey

import (
	"fmt"

	"github.com/libsv/go-bk/wif"
	"github.com/libsv/go-bt/v2/bscript"
)

// Key wraps the decoded bridge operator key.
type Key struct {
	WIF *wif.WIF
}

// Load decodes a WIF-encoded private key string (spec.md's deposit-script
// construction needs only the corresponding pubkey hash, never the key
// itself, but the relayer/faucet need the key to eventually sign
// withdrawal/faucet transactions with external tooling).
func Load(wifKey string) (*Key, error) {
	if wifKey == "" {
		return nil, fmt.Errorf("bridgekey: no private key configured")
	}
	decoded, err := wif.DecodeWIF(wifKey)
	if err != nil {
		return nil, fmt.Errorf("bridgekey: failed to decode WIF key: %w", err)
	}
	return &Key{WIF: decoded}, nil
}

// PubKeyHash160 returns the hash160 of this key's compressed public key —
// the pubkey hash deposit.Script's bridgePubkeyHash parameter expects.
// Derived via bscript.NewAddressFromPublicKey the same way the teacher's
// coinbase service derives its own wallet address (services/coinbase/
// Coinbase.go), rather than hand-rolling RIPEMD160(SHA256(...)).
func (k *Key) PubKeyHash160() ([20]byte, error) {
	addr, err := bscript.NewAddressFromPublicKey(k.WIF.PrivKey.PubKey(), true)
	if err != nil {
		return [20]byte{}, fmt.Errorf("bridgekey: failed to derive pubkey hash: %w", err)
	}
	var out [20]byte
	copy(out[:], addr.PublicKeyHash)
	return out, nil
}
