package relay

import (
	"github.com/yona-labs/btc-relay/bignum"
	"github.com/yona-labs/btc-relay/header"
	"github.com/yona-labs/btc-relay/rerrors"
)

// MaxHeadersPerBatch is the practical cap on headers per
// submit_block_headers invocation, bounded by the host environment's
// transaction size (spec.md §4.5.2).
const MaxHeadersPerBatch = 7

// BlockHeightOp is one of the five relations the block_height gate
// operation (spec.md §6) may test the tip height against.
type BlockHeightOp int

const (
	OpLT BlockHeightOp = iota
	OpLTE
	OpGT
	OpGTE
	OpEQ
)

// Engine orchestrates main-chain append, short-fork replacement, long-fork
// accumulation, and atomic reorg. It owns fork-counter allocation and the
// main-chain state (Main); a long fork's ForkState is held by the caller
// and passed in on each call.
//
// Grounded on original_source/programs/btc-relay/src/lib.rs's instruction
// handler bodies (submit_block_headers / submit_short_fork_headers /
// submit_fork_headers / verify_transaction / block_height), which remain
// the single richest source for this exact control flow.
type Engine struct {
	Main      *MainState
	Validator *Validator
}

// NewEngine constructs an Engine over an existing MainState.
func NewEngine(main *MainState, v *Validator) *Engine {
	return &Engine{Main: main, Validator: v}
}

// Initialize installs a trusted checkpoint (spec.md §4.5.1): one-shot,
// writes tip and anchors the ring, records the deposit pubkey hash.
func Initialize(checkpoint header.CommittedBlockHeader, depositPubkeyHash [20]byte) *MainState {
	m := &MainState{
		StartHeight:        checkpoint.BlockHeight,
		LastDiffAdjustment: checkpoint.LastDiffAdjustment,
		BlockHeight:        checkpoint.BlockHeight,
		ChainWork:          checkpoint.ChainWork,
		TipBlockHash:       checkpoint.Header.BlockHash(),
		TipCommitHash:      checkpoint.CommitDigest(),
		DepositPubkeyHash:  depositPubkeyHash,
	}
	m.BlockCommitments[m.Position(checkpoint.BlockHeight)] = m.TipCommitHash
	return m
}

// commitEcho refuses to proceed unless prev's digest equals the store's
// committed value at prev's height — the pattern that makes the on-chain
// state a verifiable MMR over header records (spec.md §4.5 intro).
func (e *Engine) commitEcho(prev header.CommittedBlockHeader) error {
	if prev.CommitDigest() != e.Main.GetCommitment(prev.BlockHeight) {
		return rerrors.New(rerrors.PrevBlockCommitment, "supplied prior header does not match stored commitment at height %d", prev.BlockHeight)
	}
	return nil
}

// validateSequence walks headers in order from parent p, checking parent
// linkage plus the §4.3 rules for each, and returns the committed record
// for each accepted header, in order; its last element is the final
// committed record.
func (e *Engine) validateSequence(headers []header.BlockHeader, p header.CommittedBlockHeader, topics [][32]byte) ([]header.CommittedBlockHeader, error) {
	if len(headers) == 0 {
		return nil, rerrors.New(rerrors.NoHeaders, "empty batch")
	}
	if topics != nil && len(topics) != len(headers) {
		return nil, rerrors.New(rerrors.InvalidRemainingAccounts, "side-account count %d does not match header count %d", len(topics), len(headers))
	}

	out := make([]header.CommittedBlockHeader, 0, len(headers))
	prev := p
	for i, h := range headers {
		parentHash := prev.Header.BlockHash()
		if h.ReversedPrevBlockhash != [32]byte(parentHash) {
			return nil, rerrors.New(rerrors.PrevBlock, "header %d does not link to its predecessor", i)
		}
		var topic [32]byte
		if topics != nil {
			topic = topics[i]
		}
		next, err := e.Validator.Validate(h, prev, topic)
		if err != nil {
			return nil, err
		}
		out = append(out, next)
		prev = next
	}
	return out, nil
}

// SubmitBlockHeaders extends the main chain (spec.md §4.5.2).
func (e *Engine) SubmitBlockHeaders(headers []header.BlockHeader, prev header.CommittedBlockHeader, topics [][32]byte) ([]Observation, error) {
	if err := e.commitEcho(prev); err != nil {
		return nil, err
	}

	committed, err := e.validateSequence(headers, prev, topics)
	if err != nil {
		return nil, err
	}

	var obs []Observation
	for _, c := range committed {
		digest := c.CommitDigest()
		e.Main.StoreBlockCommitment(c.BlockHeight, digest)
		obs = append(obs, StoreHeader{
			BlockHeight: c.BlockHeight,
			BlockHash:   c.Header.BlockHash(),
			CommitHash:  digest,
		})
	}

	tip := committed[len(committed)-1]
	e.Main.BlockHeight = tip.BlockHeight
	e.Main.ChainWork = tip.ChainWork
	e.Main.LastDiffAdjustment = tip.LastDiffAdjustment
	e.Main.TipBlockHash = tip.Header.BlockHash()
	e.Main.TipCommitHash = tip.CommitDigest()

	return obs, nil
}

// SubmitShortForkHeaders reorgs the main chain in a single call if the
// supplied fork outweighs it (spec.md §4.5.3).
func (e *Engine) SubmitShortForkHeaders(headers []header.BlockHeader, prev header.CommittedBlockHeader, topics [][32]byte) ([]Observation, error) {
	if err := e.commitEcho(prev); err != nil {
		return nil, err
	}

	committed, err := e.validateSequence(headers, prev, topics)
	if err != nil {
		return nil, err
	}

	tip := committed[len(committed)-1]
	if !bignum.Gt(bignum.Uint256(tip.ChainWork), bignum.Uint256(e.Main.ChainWork)) {
		return nil, rerrors.New(rerrors.ForkTooShort, "short-fork accumulated work did not strictly exceed main chain")
	}

	forkID := e.Main.ForkCounter
	e.Main.ForkCounter++

	var obs []Observation
	for _, c := range committed {
		digest := c.CommitDigest()
		e.Main.StoreBlockCommitment(c.BlockHeight, digest)
		obs = append(obs, StoreFork{ForkID: forkID, BlockHeight: c.BlockHeight, BlockHash: c.Header.BlockHash(), CommitHash: digest})
	}

	e.Main.BlockHeight = tip.BlockHeight
	e.Main.ChainWork = tip.ChainWork
	e.Main.LastDiffAdjustment = tip.LastDiffAdjustment
	e.Main.TipBlockHash = tip.Header.BlockHash()
	e.Main.TipCommitHash = tip.CommitDigest()

	obs = append(obs, ChainReorg{ForkID: forkID, StartHeight: prev.BlockHeight, NewTipHeight: tip.BlockHeight})
	return obs, nil
}

// SubmitForkHeaders accumulates a long fork across multiple calls,
// reorging atomically once it outweighs the main chain (spec.md §4.5.4).
// forkID/initFlag are the caller-supplied identity/new-fork-declaration;
// fork is nil on the first call for a brand-new fork and non-nil (from
// the caller's persisted ForkState) on continuation calls.
func (e *Engine) SubmitForkHeaders(fork *ForkState, forkID uint64, initFlag bool, headers []header.BlockHeader, prev header.CommittedBlockHeader, submitter string, topics [][32]byte) (*ForkState, []Observation, error) {
	isNew := fork == nil || !fork.Initialized

	if isNew != initFlag {
		return fork, nil, rerrors.New(rerrors.ErrInit, "init_flag disagrees with fork account's existing state")
	}

	if isNew {
		if forkID != e.Main.ForkCounter {
			return fork, nil, rerrors.New(rerrors.InvalidForkId, "fork_id %d does not equal current fork_counter %d", forkID, e.Main.ForkCounter)
		}
		e.Main.ForkCounter++

		if prev.CommitDigest() != e.Main.GetCommitment(prev.BlockHeight) {
			return fork, nil, rerrors.New(rerrors.PrevBlockCommitment, "fork point is not a real main-chain block at height %d", prev.BlockHeight)
		}

		fork = &ForkState{
			Initialized: true,
			ForkID:      forkID,
			Submitter:   submitter,
			StartHeight: prev.BlockHeight,
		}
	} else {
		if prev.CommitDigest() != fork.TipCommitHash {
			return fork, nil, rerrors.New(rerrors.PrevBlockCommitment, "supplied prior header does not match fork tip")
		}
	}

	committed, err := e.validateSequence(headers, prev, topics)
	if err != nil {
		return fork, nil, err
	}

	var obs []Observation
	for _, c := range committed {
		digest := c.CommitDigest()
		if !fork.StoreBlockCommitment(digest) {
			return fork, nil, rerrors.New(rerrors.InvalidRemainingAccounts, "fork buffer exhausted at length %d; abandon and recreate", fork.Length)
		}
		obs = append(obs, StoreFork{ForkID: fork.ForkID, BlockHeight: c.BlockHeight, BlockHash: c.Header.BlockHash(), CommitHash: digest})
	}

	tip := committed[len(committed)-1]
	fork.TipBlockHash = tip.Header.BlockHash()
	fork.TipCommitHash = tip.CommitDigest()

	if bignum.Gt(bignum.Uint256(tip.ChainWork), bignum.Uint256(e.Main.ChainWork)) {
		for i := uint32(0); i < fork.Length; i++ {
			height := fork.HeightAt(i)
			e.Main.StoreBlockCommitment(height, fork.BlockCommitments[i])
		}
		e.Main.BlockHeight = tip.BlockHeight
		e.Main.ChainWork = tip.ChainWork
		e.Main.LastDiffAdjustment = tip.LastDiffAdjustment
		e.Main.TipBlockHash = tip.Header.BlockHash()
		e.Main.TipCommitHash = tip.CommitDigest()

		obs = append(obs, ChainReorg{ForkID: fork.ForkID, StartHeight: fork.StartHeight, NewTipHeight: tip.BlockHeight})
		return nil, obs, nil // fork account closed; storage reclaimed
	}

	return fork, obs, nil
}

// CloseForkAccount lets a submitter explicitly discard their own fork,
// reclaiming storage with no effect on the main chain (spec.md §4.5.5).
func CloseForkAccount(fork *ForkState) *ForkState {
	return nil
}

// BlockHeightGate tests value against the tip height using op (spec.md §6).
func (e *Engine) BlockHeightGate(value uint32, op BlockHeightOp) error {
	tip := e.Main.BlockHeight
	var ok bool
	switch op {
	case OpLT:
		ok = tip < value
	case OpLTE:
		ok = tip <= value
	case OpGT:
		ok = tip > value
	case OpGTE:
		ok = tip >= value
	case OpEQ:
		ok = tip == value
	}
	if !ok {
		return rerrors.New(rerrors.InvalidBlockheight, "block_height gate failed: tip=%d op=%d value=%d", tip, op, value)
	}
	return nil
}
