package relay

import "testing"

func TestDepositStateFundAndPayout(t *testing.T) {
	d := &DepositState{}
	d.Fund(1000)
	if d.BalanceSats != 1000 {
		t.Fatalf("BalanceSats = %d, want 1000", d.BalanceSats)
	}
	d.payout(400)
	if d.BalanceSats != 600 {
		t.Fatalf("BalanceSats = %d, want 600", d.BalanceSats)
	}
}
