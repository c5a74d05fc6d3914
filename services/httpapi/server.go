// Package httpapi is the HTTP/JSON façade in front of services/relayer:
// it exposes relay_tx, get_deposit_address, get_tx_state, and
// get_tx_states as REST endpoints plus a websocket push stream for
// deposit-verification completions, grounded on the teacher's
// services/asset/http_impl package (echo-based routing,
// gorilla/websocket fan-out) in place of the Rust original's Solana
// web3.js-facing REST server (original_source/block_relayer/src/lib.rs's
// relay_transactions/relay_tx_web_api/get_tx_state_web_api/
// get_tx_states_web_api/get_deposit_address).
package httpapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	utils "github.com/ordishs/go-utils"

	"github.com/yona-labs/btc-relay/header"
	"github.com/yona-labs/btc-relay/relay"
	"github.com/yona-labs/btc-relay/relayconfig"
	"github.com/yona-labs/btc-relay/services/relayer"
	"github.com/yona-labs/btc-relay/ulog"
)

// Server wires a relayer.Daemon behind an HTTP API.
type Server struct {
	echo     *echo.Echo
	cfg      relayconfig.HTTPAPIConfig
	logger   utils.Logger
	daemon   *relayer.Daemon
	verifier *relay.TxVerifier
	network  *header.Network

	hub *notificationHub
}

// New builds a Server. network selects the Bech32 HRP get_deposit_address
// renders addresses against.
func New(cfg relayconfig.HTTPAPIConfig, daemon *relayer.Daemon, verifier *relay.TxVerifier, network *header.Network) *Server {
	s := &Server{
		echo:     echo.New(),
		cfg:      cfg,
		logger:   ulog.New("httpapi", cfg.LogLevel),
		daemon:   daemon,
		verifier: verifier,
		network:  network,
		hub:      newNotificationHub(),
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.POST("/relay_tx", s.handleRelayTx)
	s.echo.GET("/deposit_address/:recipient", s.handleGetDepositAddress)
	s.echo.GET("/tx_state/:txid", s.handleGetTxState)
	s.echo.POST("/tx_states", s.handleGetTxStates)
	s.echo.GET("/ws/tx_status", s.handleWebSocket)
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go s.hub.run(ctx)

	errCh := make(chan error, 1)
	go func() {
		if err := s.echo.Start(s.cfg.ListenAddr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.echo.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}
