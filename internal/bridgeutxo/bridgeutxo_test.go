package bridgeutxo

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "bridgeutxo.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAddAndListUnspent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u := UTXO{Satoshis: 1000, LockingScript: []byte{0x76, 0xa9}}
	u.TxID[0] = 0x01
	if err := s.Add(ctx, u); err != nil {
		t.Fatalf("Add: %v", err)
	}

	unspent, err := s.ListUnspent(ctx)
	if err != nil {
		t.Fatalf("ListUnspent: %v", err)
	}
	if len(unspent) != 1 || unspent[0].Satoshis != 1000 {
		t.Fatalf("unexpected unspent set: %+v", unspent)
	}
}

func TestMarkSpentRemovesFromUnspentSet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u := UTXO{Satoshis: 500}
	u.TxID[0] = 0x02
	if err := s.Add(ctx, u); err != nil {
		t.Fatalf("Add: %v", err)
	}

	var spender [32]byte
	spender[0] = 0xFF
	if err := s.MarkSpent(ctx, u.TxID, u.Vout, spender); err != nil {
		t.Fatalf("MarkSpent: %v", err)
	}

	unspent, err := s.ListUnspent(ctx)
	if err != nil {
		t.Fatalf("ListUnspent: %v", err)
	}
	if len(unspent) != 0 {
		t.Fatalf("expected no unspent coins after spending, got %d", len(unspent))
	}
}

func TestSelectCoinsAccumulatesLargestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i, sats := range []uint64{100, 500, 200} {
		u := UTXO{Satoshis: sats}
		u.TxID[0] = byte(i + 1)
		if err := s.Add(ctx, u); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	selected, total, err := s.SelectCoins(ctx, 600)
	if err != nil {
		t.Fatalf("SelectCoins: %v", err)
	}
	if total < 600 {
		t.Fatalf("total = %d, want >= 600", total)
	}
	if len(selected) != 2 || selected[0].Satoshis != 500 {
		t.Fatalf("expected largest-first selection of [500, 200], got %+v", selected)
	}
}

func TestSelectCoinsFailsWhenInsufficientFunds(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u := UTXO{Satoshis: 100}
	u.TxID[0] = 0x09
	if err := s.Add(ctx, u); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if _, _, err := s.SelectCoins(ctx, 1000); err == nil {
		t.Fatal("expected an error when available coins are insufficient")
	}
}
