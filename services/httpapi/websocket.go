package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// txStatusNotification is pushed to every connected client whenever a
// relay_tx call completes verification.
type txStatusNotification struct {
	Type    string `json:"type"`
	TxID    string `json:"txid,omitempty"`
	Relayed bool   `json:"relayed,omitempty"`
}

const notificationTypePing = "ping"
const notificationTypeTxVerified = "tx_verified"

// notificationHub fans deposit-verification completions out to every
// connected websocket client, adapted from the teacher's
// services/asset/http_impl.HandleWebSocket (client-channel registry plus
// a periodic ping so idle connections aren't silently dropped by
// intermediate proxies).
type notificationHub struct {
	register   chan chan []byte
	unregister chan chan []byte
	broadcastC chan txStatusNotification
}

func newNotificationHub() *notificationHub {
	return &notificationHub{
		register:   make(chan chan []byte, 16),
		unregister: make(chan chan []byte, 16),
		broadcastC: make(chan txStatusNotification, 256),
	}
}

func (h *notificationHub) broadcast(n txStatusNotification) {
	if n.Type == "" {
		n.Type = notificationTypeTxVerified
	}
	h.broadcastC <- n
}

func (h *notificationHub) run(ctx context.Context) {
	clients := make(map[chan []byte]struct{})
	pingTimer := time.NewTicker(30 * time.Second)
	defer pingTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ch := <-h.register:
			clients[ch] = struct{}{}

		case ch := <-h.unregister:
			delete(clients, ch)

		case <-pingTimer.C:
			if len(clients) == 0 {
				continue
			}
			data, err := json.Marshal(txStatusNotification{Type: notificationTypePing})
			if err != nil {
				continue
			}
			for ch := range clients {
				ch <- data
			}

		case n := <-h.broadcastC:
			if len(clients) == 0 {
				continue
			}
			data, err := json.Marshal(n)
			if err != nil {
				continue
			}
			for ch := range clients {
				ch <- data
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWebSocket upgrades the connection and streams
// txStatusNotification frames to it until the client disconnects.
func (s *Server) handleWebSocket(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	ch := make(chan []byte, 16)
	s.hub.register <- ch
	defer func() { s.hub.unregister <- ch }()

	for data := range ch {
		if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
			s.logger.Errorf("httpapi: failed to send tx_status notification: %v", err)
			return nil
		}
	}
	return nil
}
