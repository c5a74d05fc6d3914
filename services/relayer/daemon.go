package relayer

import (
	"context"
	"fmt"
	"time"

	utils "github.com/ordishs/go-utils"

	"github.com/yona-labs/btc-relay/header"
	"github.com/yona-labs/btc-relay/internal/bridgeutxo"
	"github.com/yona-labs/btc-relay/relay"
	"github.com/yona-labs/btc-relay/relayconfig"
	"github.com/yona-labs/btc-relay/stores/headercache"
	"github.com/yona-labs/btc-relay/ulog"
	"github.com/yona-labs/btc-relay/util/retry"
)

// Daemon keeps the relay core's main chain caught up with a Bitcoin full
// node: each tick it fetches the node's current tip, compares it against
// the core's, and submits whatever header batch (or fork) bridges the gap.
//
// A reorg deeper than one batch is tracked as an in-memory long fork
// (activeFork/activeForkTip) across ticks until it either overtakes the
// main chain or the node's view changes again; a daemon restart mid-reorg
// simply abandons the in-progress fork and starts a fresh one next tick,
// since ForkState itself is reconstructible from the node at any time.
type Daemon struct {
	cfg      relayconfig.RelayerConfig
	logger   utils.Logger
	rpc      rpcClient
	cache    *headercache.Store
	engine   *relay.Engine
	verifier *relay.TxVerifier
	utxos    *bridgeutxo.Store

	activeForkID  uint64
	activeFork    *relay.ForkState
	activeForkTip header.CommittedBlockHeader
}

// NewDaemon wires a Daemon against a live bitcoind RPC endpoint.
func NewDaemon(cfg relayconfig.RelayerConfig, cache *headercache.Store, engine *relay.Engine, verifier *relay.TxVerifier, utxos *bridgeutxo.Store) (*Daemon, error) {
	rpc, err := newRPCClient(cfg.RPCHost, cfg.RPCPort, cfg.RPCUser, cfg.RPCPassword)
	if err != nil {
		return nil, fmt.Errorf("relayer: failed to create Bitcoin RPC client: %w", err)
	}
	return newDaemon(cfg, rpc, cache, engine, verifier, utxos), nil
}

func newDaemon(cfg relayconfig.RelayerConfig, rpc rpcClient, cache *headercache.Store, engine *relay.Engine, verifier *relay.TxVerifier, utxos *bridgeutxo.Store) *Daemon {
	return &Daemon{
		cfg:      cfg,
		logger:   ulog.New("relayer", cfg.LogLevel),
		rpc:      rpc,
		cache:    cache,
		engine:   engine,
		verifier: verifier,
		utxos:    utxos,
	}
}

// Run polls until ctx is cancelled. Transient RPC errors back off at least
// 10s (spec.md §7); an already-at-tip result backs off the full configured
// poll interval (≥30s in production, per spec.md §7's second backoff rung).
func (d *Daemon) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		advanced, err := d.syncOnce(ctx)
		if err != nil {
			d.logger.Errorf("sync attempt failed: %v", err)
			if !d.wait(ctx, 10*time.Second) {
				return ctx.Err()
			}
			continue
		}
		if !advanced {
			if !d.wait(ctx, d.cfg.PollInterval) {
				return ctx.Err()
			}
		}
	}
}

func (d *Daemon) wait(ctx context.Context, dur time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(dur):
		return true
	}
}

// syncOnce submits at most one batch of headers. It reports whether it
// made any progress, so Run knows whether to poll again immediately (more
// blocks may already be waiting) or back off.
func (d *Daemon) syncOnce(ctx context.Context) (bool, error) {
	tip, err := d.cache.GetTip(ctx)
	if err != nil {
		return false, fmt.Errorf("reading cached tip: %w", err)
	}

	bestHash, err := retry.Retry(ctx, d.logger, func() (string, error) {
		return d.rpc.GetBestBlockHash()
	})
	if err != nil {
		return false, fmt.Errorf("GetBestBlockHash: %w", err)
	}

	bestHeight, err := retry.Retry(ctx, d.logger, func() (uint32, error) {
		h, err := d.rpc.GetBlockHeader(bestHash)
		if err != nil {
			return 0, err
		}
		return uint32(h.Height), nil
	})
	if err != nil {
		return false, fmt.Errorf("GetBlockHeader(%s): %w", bestHash, err)
	}

	if d.activeFork != nil {
		return d.continueFork(ctx, bestHeight)
	}

	if bestHeight <= tip.BlockHeight {
		return false, nil
	}

	// The node's block at our own tip height no longer matches our
	// committed hash: the chain below us has reorged. Walk back to find
	// the last height we both agree on, then resubmit from there.
	nodeHashAtTip, err := d.hashAtHeight(tip.BlockHeight)
	if err != nil {
		return false, fmt.Errorf("checking for reorg at height %d: %w", tip.BlockHeight, err)
	}
	if nodeHashAtTip != chainHash(tip.Header.BlockHash()) {
		return d.startFork(ctx, tip, bestHeight)
	}

	end := tip.BlockHeight + relay.MaxHeadersPerBatch
	if d.cfg.HeadersPerBatch > 0 && uint32(d.cfg.HeadersPerBatch) < relay.MaxHeadersPerBatch {
		end = tip.BlockHeight + uint32(d.cfg.HeadersPerBatch)
	}
	if end > bestHeight {
		end = bestHeight
	}

	headers, err := d.fetchHeaderRange(tip.BlockHeight+1, end)
	if err != nil {
		return false, err
	}

	committed, err := d.reconstructCommitted(headers, tip)
	if err != nil {
		return false, fmt.Errorf("reconstructing committed headers: %w", err)
	}

	if _, err := d.engine.SubmitBlockHeaders(headers, tip, nil); err != nil {
		return false, fmt.Errorf("SubmitBlockHeaders: %w", err)
	}

	for _, c := range committed {
		if err := d.cache.PutCommittedHeader(ctx, c); err != nil {
			return false, fmt.Errorf("caching committed header %d: %w", c.BlockHeight, err)
		}
	}

	d.logger.Infof("extended main chain from height %d to %d", tip.BlockHeight, end)
	return true, nil
}

// startFork begins tracking a reorg: it finds the last height the cached
// chain and the node still agree on, then submits the node's headers from
// there as a short fork (single call, spec.md §4.5.3) if they fit in one
// batch, or opens a long fork (spec.md §4.5.4) otherwise.
func (d *Daemon) startFork(ctx context.Context, staleTip header.CommittedBlockHeader, bestHeight uint32) (bool, error) {
	ancestorHeight := staleTip.BlockHeight
	for ancestorHeight > 0 {
		ancestorHeight--
		candidate, err := d.cache.GetCommittedHeader(ctx, ancestorHeight)
		if err != nil {
			return false, fmt.Errorf("reading cached header at height %d: %w", ancestorHeight, err)
		}
		nodeHash, err := d.hashAtHeight(ancestorHeight)
		if err != nil {
			return false, fmt.Errorf("checking ancestor height %d: %w", ancestorHeight, err)
		}
		if nodeHash == chainHash(candidate.Header.BlockHash()) {
			break
		}
	}

	ancestor, err := d.cache.GetCommittedHeader(ctx, ancestorHeight)
	if err != nil {
		return false, fmt.Errorf("reading common ancestor at height %d: %w", ancestorHeight, err)
	}

	end := bestHeight
	if end-ancestorHeight > relay.MaxHeadersPerBatch {
		end = ancestorHeight + relay.MaxHeadersPerBatch
	}

	headers, err := d.fetchHeaderRange(ancestorHeight+1, end)
	if err != nil {
		return false, err
	}

	if end == bestHeight {
		committed, err := d.reconstructCommitted(headers, ancestor)
		if err != nil {
			return false, err
		}
		if _, err := d.engine.SubmitShortForkHeaders(headers, ancestor, nil); err != nil {
			return false, fmt.Errorf("SubmitShortForkHeaders: %w", err)
		}
		for _, c := range committed {
			if err := d.cache.PutCommittedHeader(ctx, c); err != nil {
				return false, err
			}
		}
		d.logger.Warnf("reorged onto node's chain at height %d, new tip %d", ancestorHeight, end)
		return true, nil
	}

	forkID := d.engine.Main.ForkCounter
	fork, _, err := d.engine.SubmitForkHeaders(nil, forkID, true, headers, ancestor, "relayer", nil)
	if err != nil {
		return false, fmt.Errorf("SubmitForkHeaders: %w", err)
	}
	committed, err := d.reconstructCommitted(headers, ancestor)
	if err != nil {
		return false, err
	}
	tip := committed[len(committed)-1]

	if fork == nil {
		// Already outweighed the main chain in one batch; the engine
		// closed the fork and reorged immediately.
		for _, c := range committed {
			if err := d.cache.PutCommittedHeader(ctx, c); err != nil {
				return false, err
			}
		}
		d.logger.Warnf("reorged via long-fork path in a single batch at height %d, new tip %d", ancestorHeight, end)
		return true, nil
	}

	d.activeForkID = forkID
	d.activeFork = fork
	d.activeForkTip = tip
	d.logger.Infof("opened long fork %d at height %d, reached %d of %d", forkID, ancestorHeight, end, bestHeight)
	return true, nil
}

// continueFork appends the next batch to an in-progress long fork.
func (d *Daemon) continueFork(ctx context.Context, bestHeight uint32) (bool, error) {
	start := d.activeForkTip.BlockHeight + 1
	end := start + relay.MaxHeadersPerBatch - 1
	if end > bestHeight {
		end = bestHeight
	}
	if end < start {
		// Node has nothing new past the fork tip yet.
		return false, nil
	}

	headers, err := d.fetchHeaderRange(start, end)
	if err != nil {
		return false, err
	}

	committed, err := d.reconstructCommitted(headers, d.activeForkTip)
	if err != nil {
		return false, err
	}

	fork, _, err := d.engine.SubmitForkHeaders(d.activeFork, d.activeForkID, false, headers, d.activeForkTip, "relayer", nil)
	if err != nil {
		return false, fmt.Errorf("SubmitForkHeaders (continuation): %w", err)
	}

	if fork == nil {
		for _, c := range committed {
			if err := d.cache.PutCommittedHeader(ctx, c); err != nil {
				return false, err
			}
		}
		d.logger.Warnf("long fork %d overtook main chain, new tip %d", d.activeForkID, end)
		d.activeFork = nil
		d.activeForkTip = header.CommittedBlockHeader{}
		return true, nil
	}

	d.activeFork = fork
	d.activeForkTip = committed[len(committed)-1]
	d.logger.Infof("long fork %d extended to height %d of %d", d.activeForkID, end, bestHeight)
	return true, nil
}

// reconstructCommitted independently re-derives the committed-header chain
// for headers following prev, using the same Validator the engine itself
// calls, so the daemon can persist full records to stores/headercache
// (the engine's Observation values carry only hash/height, not the full
// record the commit-echo check needs on the next call).
func (d *Daemon) reconstructCommitted(headers []header.BlockHeader, prev header.CommittedBlockHeader) ([]header.CommittedBlockHeader, error) {
	out := make([]header.CommittedBlockHeader, 0, len(headers))
	p := prev
	for i, h := range headers {
		parentHash := p.Header.BlockHash()
		if h.ReversedPrevBlockhash != [32]byte(parentHash) {
			return nil, fmt.Errorf("header %d does not link to its predecessor", i)
		}
		next, err := d.engine.Validator.Validate(h, p, [32]byte{})
		if err != nil {
			return nil, err
		}
		out = append(out, next)
		p = next
	}
	return out, nil
}

func (d *Daemon) hashAtHeight(height uint32) (chainHash, error) {
	hashStr, err := d.rpc.GetBlockHash(int64(height))
	if err != nil {
		return chainHash{}, err
	}
	raw, err := decodeHash(hashStr)
	if err != nil {
		return chainHash{}, err
	}
	return chainHash(raw), nil
}

// chainHash is a local 32-byte hash type; header.BlockHash()'s
// chainhash.Hash converts to it directly, which avoids a chainhash import
// just for an equality comparison.
type chainHash [32]byte

func (d *Daemon) fetchHeaderRange(start, end uint32) ([]header.BlockHeader, error) {
	out := make([]header.BlockHeader, 0, end-start+1)
	for height := start; height <= end; height++ {
		hashStr, err := d.rpc.GetBlockHash(int64(height))
		if err != nil {
			return nil, fmt.Errorf("GetBlockHash(%d): %w", height, err)
		}
		rpcHeader, err := d.rpc.GetBlockHeader(hashStr)
		if err != nil {
			return nil, fmt.Errorf("GetBlockHeader(%d): %w", height, err)
		}
		h, err := toBlockHeader(rpcHeader)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}
