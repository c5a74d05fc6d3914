package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/yona-labs/btc-relay/ulog"
)

type fakeSender struct {
	sent   []string
	nextID string
	err    error
}

func (f *fakeSender) SendToAddress(address string, amount float64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, address)
	return f.nextID, nil
}

func testFaucetServer(t *testing.T) (*faucetServer, *fakeSender) {
	t.Helper()
	limiter, err := openRequestLimiter(t.TempDir() + "/faucet.db")
	if err != nil {
		t.Fatalf("openRequestLimiter: %v", err)
	}
	t.Cleanup(func() { limiter.Close() })

	sender := &fakeSender{nextID: "deadbeef"}
	s := newFaucetServer(sender, limiter, 10_000_000, ulog.New("faucet-test", "ERROR"))
	return s, sender
}

func TestHandleFaucetSendsFundsOnce(t *testing.T) {
	s, sender := testFaucetServer(t)
	s.now = func() time.Time { return time.Unix(1_700_000_000, 0) }

	req := httptest.NewRequest(http.MethodGet, "/faucet?address=bcrt1qtest", nil)
	rec := httptest.NewRecorder()
	if err := s.handleFaucet(s.echo.NewContext(req, rec)); err != nil {
		t.Fatalf("handleFaucet: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if len(sender.sent) != 1 || sender.sent[0] != "bcrt1qtest" {
		t.Fatalf("expected one payout to bcrt1qtest, got %v", sender.sent)
	}
}

func TestHandleFaucetRateLimitsSecondRequest(t *testing.T) {
	s, sender := testFaucetServer(t)
	s.now = func() time.Time { return time.Unix(1_700_000_000, 0) }

	req := httptest.NewRequest(http.MethodGet, "/faucet?address=bcrt1qtest", nil)
	if err := s.handleFaucet(s.echo.NewContext(req, httptest.NewRecorder())); err != nil {
		t.Fatalf("first handleFaucet: %v", err)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/faucet?address=bcrt1qtest", nil)
	rec2 := httptest.NewRecorder()
	err := s.handleFaucet(s.echo.NewContext(req2, rec2))
	if err == nil {
		t.Fatal("expected the second request to be rate-limited")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", httpErr.Code)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected only one payout to have been sent, got %d", len(sender.sent))
	}
}

func TestHandleFaucetRejectsMissingAddress(t *testing.T) {
	s, _ := testFaucetServer(t)

	req := httptest.NewRequest(http.MethodGet, "/faucet", nil)
	err := s.handleFaucet(s.echo.NewContext(req, httptest.NewRecorder()))
	if err == nil {
		t.Fatal("expected an error for a missing address parameter")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", httpErr.Code)
	}
}
