package rerrors

// Code is a flat error-code taxonomy for every failure the relay core can
// raise, ordered roughly by when each fires in a session.
type Code int32

const (
	Unknown Code = iota

	// PrevBlockCommitment: supplied prior header's digest does not match
	// the stored commitment at that height (or the fork's tip).
	PrevBlockCommitment
	// PrevBlock: claimed parent hash of a header does not match its
	// predecessor's hash.
	PrevBlock
	// ErrDiffTarget: nBits does not satisfy the retarget rule.
	ErrDiffTarget
	// ErrPowTooLow: block hash exceeds target.
	ErrPowTooLow
	// ErrTimestampTooLow: timestamp not strictly greater than the median
	// of the 11 previous timestamps.
	ErrTimestampTooLow
	// ErrTimestampTooHigh: timestamp exceeds host clock + 4 hours.
	ErrTimestampTooHigh
	// InvalidHeaderTopic: indexer-PDA address mismatch.
	InvalidHeaderTopic
	// NoHeaders: empty batch.
	NoHeaders
	// InvalidRemainingAccounts: count of supplied per-header side
	// accounts does not match the number of headers in the batch.
	InvalidRemainingAccounts
	// ForkTooShort: short-fork accumulated work did not strictly exceed
	// the main chain's.
	ForkTooShort
	// ErrInit: init_flag disagrees with the fork account's existing state.
	ErrInit
	// InvalidForkId: fork_id for a new fork did not equal the current
	// fork_counter.
	InvalidForkId
	// BlockConfirmations: insufficient depth at verification time.
	BlockConfirmations
	// MerkleRoot: recomputed root does not equal the header's stored root.
	MerkleRoot
	// InvalidBlockheight: block_height gate failed the requested relation.
	InvalidBlockheight
	// NoDepositOutputs: the transaction has no outputs to check against
	// the bridge deposit script.
	NoDepositOutputs
	// InvalidDepositAddress: the transaction's output script does not
	// match the expected bridge deposit script-pubkey for the recipient.
	InvalidDepositAddress
	// UnexpectedTxId: chunked-mode finalization found a decoded txid
	// different from the one the buffer was created for.
	UnexpectedTxId
	// TxDecodeFailure: the accumulated bytes do not parse as a Bitcoin
	// transaction.
	TxDecodeFailure
	// InvalidBitcoinAddress: withdrawal address cannot be parsed on the
	// configured network.
	InvalidBitcoinAddress
)

var codeNames = map[Code]string{
	Unknown:                  "Unknown",
	PrevBlockCommitment:      "PrevBlockCommitment",
	PrevBlock:                "PrevBlock",
	ErrDiffTarget:            "ErrDiffTarget",
	ErrPowTooLow:             "ErrPowTooLow",
	ErrTimestampTooLow:       "ErrTimestampTooLow",
	ErrTimestampTooHigh:      "ErrTimestampTooHigh",
	InvalidHeaderTopic:       "InvalidHeaderTopic",
	NoHeaders:                "NoHeaders",
	InvalidRemainingAccounts: "InvalidRemainingAccounts",
	ForkTooShort:             "ForkTooShort",
	ErrInit:                  "ErrInit",
	InvalidForkId:            "InvalidForkId",
	BlockConfirmations:       "BlockConfirmations",
	MerkleRoot:               "MerkleRoot",
	InvalidBlockheight:       "InvalidBlockheight",
	NoDepositOutputs:         "NoDepositOutputs",
	InvalidDepositAddress:    "InvalidDepositAddress",
	UnexpectedTxId:           "UnexpectedTxId",
	TxDecodeFailure:          "TxDecodeFailure",
	InvalidBitcoinAddress:    "InvalidBitcoinAddress",
}

// String implements fmt.Stringer.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "Unknown"
}
