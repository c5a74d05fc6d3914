package relay

import (
	"github.com/yona-labs/btc-relay/deposit"
	"github.com/yona-labs/btc-relay/rerrors"
)

// BridgeWithdraw records a withdrawal intent (spec.md §4.9). The core does
// not construct or sign any Bitcoin transaction; it only validates that
// bitcoinAddress is a well-formed bech32 address for the configured
// network and emits the observation the host acts on.
func (e *Engine) BridgeWithdraw(amountSats uint64, bitcoinAddress string) (Withdrawal, error) {
	hrp, _, ok := deposit.DecodeBech32(bitcoinAddress)
	if !ok || hrp != e.Validator.Network.Bech32HRP {
		return Withdrawal{}, rerrors.New(rerrors.InvalidBitcoinAddress, "%q is not a valid bech32 address for network %q", bitcoinAddress, e.Validator.Network.Name)
	}

	return Withdrawal{
		AmountSats:     amountSats,
		BitcoinAddress: bitcoinAddress,
	}, nil
}
