package relay

// DepositPayoutMultiplier is the native-unit scaling factor applied to a
// verified deposit's first-output value. spec.md §9 Open Question 3 notes
// the source hardcodes this; it is treated as a design constant here
// rather than made configurable.
const DepositPayoutMultiplier = 10

// DepositState is the singleton collateral vault the core disburses from
// on verified deposit transactions (spec.md §3).
type DepositState struct {
	BalanceSats uint64
}

// Fund adds amount to the vault (the `deposit` operation, spec.md §6).
func (d *DepositState) Fund(amountSats uint64) {
	d.BalanceSats += amountSats
}

// payout moves amountSats out of the vault. The recipient-side credit is
// the host environment's concern; the core's contract is only that the
// vault balance decreases by exactly this amount and the amount is
// reported via DepositTxVerified.
func (d *DepositState) payout(amountSats uint64) {
	d.BalanceSats -= amountSats
}
