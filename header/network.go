package header

import "fmt"

// Network carries the small set of chain parameters this repo's components
// actually read: the Bech32 human-readable part used to render P2WSH
// bridge-deposit addresses, plus the PoW-limit and difficulty-check
// settings. GenesisHash and PowLimit are left zero in every network; the
// trusted starting checkpoint is supplied per deployment, not carried
// here. Trimmed hard from a
// full btcsuite/BSV-style chaincfg.Params — this repo has no P2P wire layer
// of its own (the relayer talks to a full node over RPC), so fields like
// DNSSeeds, protocol magic, and fork-activation heights have no reader here.
type Network struct {
	Name             string
	Bech32HRP        string
	GenesisHash      [32]byte
	GenesisHeight    uint32
	PowLimit         [32]byte
	PowLimitBits     uint32
	DiffAdjustOff    bool // production default: diff target check enabled
}

var (
	// Mainnet is Bitcoin's production network.
	Mainnet = Network{
		Name:          "mainnet",
		Bech32HRP:     "bc",
		PowLimitBits:  0x1d00ffff,
		GenesisHeight: 0,
	}

	// Testnet3 is Bitcoin's public test network.
	Testnet3 = Network{
		Name:          "testnet3",
		Bech32HRP:     "tb",
		PowLimitBits:  0x1d00ffff,
		GenesisHeight: 0,
	}

	// Regtest is a local regression-test network with a trivial PoW
	// limit and, per spec.md §4.3 step 1's test-network allowance, the
	// difficulty target check may be configured off.
	Regtest = Network{
		Name:          "regtest",
		Bech32HRP:     "bcrt",
		PowLimitBits:  0x207fffff,
		GenesisHeight: 0,
		DiffAdjustOff: true,
	}
)

// NetworkByName resolves the relayer config's
// "mainnet"/"testnet3"/"regtest" setting to its Network value.
func NetworkByName(name string) (*Network, error) {
	switch name {
	case Mainnet.Name:
		return &Mainnet, nil
	case Testnet3.Name:
		return &Testnet3, nil
	case Regtest.Name:
		return &Regtest, nil
	default:
		return nil, fmt.Errorf("header: unknown network %q", name)
	}
}
