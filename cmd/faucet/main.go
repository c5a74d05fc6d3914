// cmd/faucet is a regtest/testnet convenience binary: it answers
// GET /faucet?address=... by sending a fixed payout from the configured
// Bitcoin node's wallet, rate-limited per address. Grounded on
// original_source/btc_faucet/src/main.rs, ported from actix-web onto this
// repo's echo/urfave-cli stack.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ordishs/go-bitcoin"
	"github.com/ordishs/gocore"
	"github.com/urfave/cli/v2"

	"github.com/yona-labs/btc-relay/relayconfig"
	"github.com/yona-labs/btc-relay/ulog"
)

const progname = "btc-faucet"

var version string
var commit string

func init() {
	gocore.SetInfo(progname, version, commit)
	gocore.Log(progname)
}

func main() {
	app := &cli.App{
		Name:  progname,
		Usage: "fund test addresses from a Bitcoin node's wallet, rate-limited per address",
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
	cfg := relayconfig.LoadFaucetConfig()
	logger := ulog.New("faucet", cfg.LogLevel)

	rpc, err := bitcoin.New(cfg.RPCHost, cfg.RPCPort, cfg.RPCUser, cfg.RPCPassword, false)
	if err != nil {
		return fmt.Errorf("faucet: failed to create Bitcoin RPC client: %w", err)
	}

	limiter, err := openRequestLimiter(cfg.DBPath)
	if err != nil {
		return err
	}
	defer limiter.Close()

	server := newFaucetServer(rpc, limiter, cfg.PayoutSats, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		if err := server.echo.Start(cfg.ListenAddr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return server.echo.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}
