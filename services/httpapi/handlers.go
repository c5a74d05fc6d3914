package httpapi

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yona-labs/btc-relay/deposit"
)

type relayTxRequest struct {
	Txid      string `json:"txid"`
	Recipient string `json:"recipient"`
}

type relayTxResponse struct {
	TxID              string `json:"txid"`
	Recipient         string `json:"recipient"`
	DepositPubkeyHash string `json:"deposit_pubkey_hash"`
}

// handleRelayTx drives a confirmed deposit transaction through
// verification and, on success, pushes a completion notification to any
// subscribed websocket clients — the REST counterpart of
// original_source/block_relayer/src/lib.rs's relay_tx_web_api.
func (s *Server) handleRelayTx(c echo.Context) error {
	var req relayTxRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	recipient, err := decode32(req.Recipient)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid recipient: "+err.Error())
	}

	verified, err := s.daemon.RelayTx(c.Request().Context(), req.Txid, recipient)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	resp := relayTxResponse{
		TxID:              hex.EncodeToString(verified.TxID[:]),
		Recipient:         hex.EncodeToString(verified.Recipient[:]),
		DepositPubkeyHash: hex.EncodeToString(verified.DepositPubkeyHash[:]),
	}
	s.hub.broadcast(txStatusNotification{
		TxID:    resp.TxID,
		Relayed: true,
	})
	return c.JSON(http.StatusOK, resp)
}

// handleGetDepositAddress renders the canonical P2WSH bridge-deposit
// address for a recipient, mirroring
// original_source/block_relayer/src/lib.rs's get_deposit_address.
func (s *Server) handleGetDepositAddress(c echo.Context) error {
	recipient, err := decode32(c.Param("recipient"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid recipient: "+err.Error())
	}

	addr, err := deposit.Address(recipient, s.verifier.Main.DepositPubkeyHash, s.network)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"address": addr})
}

type txStateResponse struct {
	Txid    string `json:"txid"`
	Relayed bool   `json:"relayed"`
}

// handleGetTxState reports whether txid has completed verification.
func (s *Server) handleGetTxState(c echo.Context) error {
	txid, err := decode32(c.Param("txid"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid txid: "+err.Error())
	}
	return c.JSON(http.StatusOK, txStateResponse{
		Txid:    c.Param("txid"),
		Relayed: s.verifier.IsRelayed(txid),
	})
}

type txStatesRequest struct {
	Txids []string `json:"txids"`
}

// handleGetTxStates is the batch counterpart of handleGetTxState.
func (s *Server) handleGetTxStates(c echo.Context) error {
	var req txStatesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	out := make([]txStateResponse, 0, len(req.Txids))
	for _, txidHex := range req.Txids {
		txid, err := decode32(txidHex)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid txid %q: %v", txidHex, err))
		}
		out = append(out, txStateResponse{Txid: txidHex, Relayed: s.verifier.IsRelayed(txid)})
	}
	return c.JSON(http.StatusOK, out)
}

func decode32(s string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(raw) != 32 {
		return out, errInvalidLength
	}
	copy(out[:], raw)
	return out, nil
}

var errInvalidLength = errors.New("expected 32 bytes")
