// cmd/relayer is the relay daemon's entrypoint: it wires
// services/relayer.Daemon and services/httpapi.Server against one Bitcoin
// node and sqlite-backed stores, bootstrapping the relay core's state from
// an operator-trusted checkpoint on first run.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ordishs/gocore"
	"github.com/urfave/cli/v2"

	"github.com/yona-labs/btc-relay/header"
	"github.com/yona-labs/btc-relay/internal/bridgeutxo"
	"github.com/yona-labs/btc-relay/relay"
	"github.com/yona-labs/btc-relay/relayconfig"
	"github.com/yona-labs/btc-relay/services/httpapi"
	"github.com/yona-labs/btc-relay/services/relayer"
	"github.com/yona-labs/btc-relay/stores/headercache"
	"github.com/yona-labs/btc-relay/ulog"
)

const progname = "btc-relayer"

var version string
var commit string

func init() {
	gocore.SetInfo(progname, version, commit)
	gocore.Log(progname)
}

func main() {
	app := &cli.App{
		Name:  progname,
		Usage: "poll a Bitcoin node, relay its headers and deposit transactions into the bridge's relay core",
		Action: func(*cli.Context) error {
			return run()
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := relayconfig.LoadRelayerConfig()
	if err != nil {
		return fmt.Errorf("loading relayer config: %w", err)
	}
	logger := ulog.New("relayer", cfg.LogLevel)

	network, err := header.NetworkByName(cfg.Network)
	if err != nil {
		return err
	}

	cache, err := headercache.Open(cfg.HeaderCachePath)
	if err != nil {
		return fmt.Errorf("opening header cache: %w", err)
	}
	defer cache.Close()

	utxos, err := bridgeutxo.Open(cfg.BridgeUTXOPath)
	if err != nil {
		return fmt.Errorf("opening bridge UTXO store: %w", err)
	}
	defer utxos.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	depositPubkeyHash, err := decodePubkeyHash(cfg.DepositPubkeyHashHex)
	if err != nil {
		return fmt.Errorf("relayer_deposit_pubkey_hash: %w", err)
	}

	tip, err := bootstrapOrResume(ctx, cache, cfg.CheckpointHex)
	if err != nil {
		return err
	}

	mainState := relay.Initialize(tip, depositPubkeyHash)
	validator := relay.NewValidator(network)
	engine := relay.NewEngine(mainState, validator)
	verifier := relay.NewTxVerifier(mainState, &relay.DepositState{})

	daemon, err := relayer.NewDaemon(cfg, cache, engine, verifier, utxos)
	if err != nil {
		return fmt.Errorf("constructing relayer daemon: %w", err)
	}

	httpCfg := relayconfig.HTTPAPIConfig{ListenAddr: cfg.HTTPAPIListenAddr, LogLevel: cfg.LogLevel}
	httpServer := httpapi.New(httpCfg, daemon, verifier, network)

	errCh := make(chan error, 2)
	go func() { errCh <- daemon.Run(ctx) }()
	go func() { errCh <- httpServer.Start(ctx) }()

	err = <-errCh
	cancel()
	<-errCh

	if err != nil && err != context.Canceled {
		logger.Errorf("relayer exiting: %v", err)
		return err
	}
	return nil
}

// bootstrapOrResume returns the committed header the relay core should
// treat as its current main-chain tip. On first run (an empty header
// cache) it installs the operator-supplied trusted checkpoint; afterwards
// it resumes from the cache's own tip.
//
// Resuming reinitializes MainState from that tip rather than replaying the
// full 250-entry commitment ring from the cache, so short-fork detection
// has a shallower window immediately after a restart until the ring
// refills from fresh submissions.
func bootstrapOrResume(ctx context.Context, cache *headercache.Store, checkpointHex string) (header.CommittedBlockHeader, error) {
	hasTip, err := cache.HasTip(ctx)
	if err != nil {
		return header.CommittedBlockHeader{}, fmt.Errorf("checking header cache: %w", err)
	}
	if hasTip {
		return cache.GetTip(ctx)
	}

	if checkpointHex == "" {
		return header.CommittedBlockHeader{}, fmt.Errorf("relayer: header cache is empty and relayer_checkpoint_hex is not configured")
	}
	raw, err := hex.DecodeString(checkpointHex)
	if err != nil {
		return header.CommittedBlockHeader{}, fmt.Errorf("relayer_checkpoint_hex: %w", err)
	}
	checkpoint, err := header.ParseCommittedBlockHeader(raw)
	if err != nil {
		return header.CommittedBlockHeader{}, fmt.Errorf("relayer_checkpoint_hex: %w", err)
	}
	if err := cache.PutCommittedHeader(ctx, checkpoint); err != nil {
		return header.CommittedBlockHeader{}, fmt.Errorf("caching trusted checkpoint: %w", err)
	}
	return checkpoint, nil
}

func decodePubkeyHash(s string) ([20]byte, error) {
	var out [20]byte
	raw, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(raw) != 20 {
		return out, fmt.Errorf("expected 20 bytes, got %d", len(raw))
	}
	copy(out[:], raw)
	return out, nil
}
