package relay

// Observation is the common shape of everything the engine emits for an
// external subscriber (the relayer's websocket stream, indexers, etc.) to
// react to. Delivered in the commit order the host establishes (spec.md §5).
type Observation interface {
	observation()
}

// StoreHeader is emitted once per header appended to the main chain by
// SubmitBlockHeaders. Headers that reach the main chain through a fork are
// reported as StoreFork instead.
type StoreHeader struct {
	BlockHeight uint32
	BlockHash   [32]byte
	CommitHash  [32]byte
}

func (StoreHeader) observation() {}

// StoreFork is emitted once per header submitted through
// SubmitShortForkHeaders or SubmitForkHeaders, whether or not that fork
// goes on to replace the main chain.
type StoreFork struct {
	ForkID      uint64
	BlockHeight uint32
	BlockHash   [32]byte
	CommitHash  [32]byte
}

func (StoreFork) observation() {}

// ChainReorg is emitted exactly once when a fork's accumulated work
// overtakes the main chain and the ring is atomically rewritten.
type ChainReorg struct {
	ForkID      uint64
	StartHeight uint32
	NewTipHeight uint32
}

func (ChainReorg) observation() {}

// DepositTxVerified is emitted when a bridge deposit transaction passes
// verification and its payout has been moved.
type DepositTxVerified struct {
	TxID             [32]byte
	Recipient        [32]byte
	DepositPubkeyHash [20]byte
}

func (DepositTxVerified) observation() {}

// Withdrawal is emitted exactly once per recorded bridge_withdraw intent,
// carrying its original parameters unchanged. The core does not itself
// construct or sign any Bitcoin transaction (spec.md §4.9).
type Withdrawal struct {
	AmountSats     uint64
	BitcoinAddress string
}

func (Withdrawal) observation() {}
