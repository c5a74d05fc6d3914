package main

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	utils "github.com/ordishs/go-utils"
)

// rpcSender is the one go-bitcoin call this binary needs, narrowed from
// *bitcoin.Bitcoind the same way services/relayer.rpcClient narrows it,
// so tests can substitute a fake node.
type rpcSender interface {
	SendToAddress(address string, amount float64) (string, error)
}

// faucetServer answers GET /faucet?address=... with a fixed-size payout,
// rate-limited to one funding per address per 24 hours — the REST
// counterpart of original_source/btc_faucet/src/main.rs's request_funds.
type faucetServer struct {
	echo       *echo.Echo
	rpc        rpcSender
	limiter    *requestLimiter
	payoutSats uint64
	logger     utils.Logger
	now        func() time.Time
}

func newFaucetServer(rpc rpcSender, limiter *requestLimiter, payoutSats uint64, logger utils.Logger) *faucetServer {
	s := &faucetServer{
		echo:       echo.New(),
		rpc:        rpc,
		limiter:    limiter,
		payoutSats: payoutSats,
		logger:     logger,
		now:        time.Now,
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.GET("/faucet", s.handleFaucet)
	return s
}

func (s *faucetServer) handleFaucet(c echo.Context) error {
	address := c.QueryParam("address")
	if address == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "address query parameter is required")
	}

	ctx := c.Request().Context()
	now := s.now()
	reqID := uuid.New().String()

	limited, err := s.limiter.recentlyFunded(ctx, address, now)
	if err != nil {
		s.logger.Errorf("faucet[%s]: rate-limit check failed for %s: %v", reqID, address, err)
		return echo.NewHTTPError(http.StatusInternalServerError, "database error")
	}
	if limited {
		s.logger.Warnf("faucet[%s]: rejecting %s, funded within the last 24 hours", reqID, address)
		return echo.NewHTTPError(http.StatusTooManyRequests, "address has already received funds in the last 24 hours")
	}

	amountBTC := float64(s.payoutSats) / 1e8
	txid, err := s.rpc.SendToAddress(address, amountBTC)
	if err != nil {
		s.logger.Errorf("faucet[%s]: send_to_address failed for %s: %v", reqID, address, err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to send funds: "+err.Error())
	}
	s.logger.Infof("faucet[%s]: sent %d sats to %s, txid %s", reqID, s.payoutSats, address, txid)

	if err := s.limiter.recordRequest(ctx, address, now); err != nil {
		s.logger.Errorf("faucet[%s]: failed to record request for %s: %v", reqID, address, err)
	}

	return c.String(http.StatusOK, "Funds sent. Transaction ID: "+txid)
}
