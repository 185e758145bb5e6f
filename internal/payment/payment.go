// Package payment holds the pure money math behind the cashier payment
// screen: normalizing keyed-in amounts and previewing how a tendered amount
// splits into the portion applied to the bill and the change handed back.
// Nothing here touches the database; the balance actually owed is always
// recomputed server-side.
package payment

import (
	"strings"

	"github.com/bersih-laundry/api/internal/enum"
	"github.com/shopspring/decimal"
)

// MaxAmountDigits caps keyed-in amounts at nine digits (under one billion
// rupiah), which keeps fat-fingered input from producing absurd tenders.
const MaxAmountDigits = 9

// Preview describes how a tendered amount settles against an amount due.
type Preview struct {
	Tendered decimal.Decimal
	Applied  decimal.Decimal
	Change   decimal.Decimal
}

// NormalizeAmountInput cleans a raw keypad string into canonical digit form:
// non-digits are dropped, leading zeros stripped, and the result truncated to
// MaxAmountDigits. An all-zero input normalizes to the empty string.
func NormalizeAmountInput(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := strings.TrimLeft(b.String(), "0")
	if len(digits) > MaxAmountDigits {
		digits = digits[:MaxAmountDigits]
	}
	return digits
}

// ParseAmountInput converts a raw keypad string to a decimal amount. Empty or
// all-zero input parses to zero.
func ParseAmountInput(raw string) decimal.Decimal {
	digits := NormalizeAmountInput(raw)
	if digits == "" {
		return decimal.Zero
	}
	// NormalizeAmountInput guarantees digits-only, so this cannot fail.
	amount, _ := decimal.NewFromString(digits)
	return amount
}

// ComputePreview splits a tendered amount against the amount due. The applied
// portion never exceeds the due amount, and change is only owed for cash:
// transfer and other methods take exact amounts, so over-tendering them
// simply caps at due with no change line.
func ComputePreview(due, tendered decimal.Decimal, method enum.PaymentMethod) Preview {
	if due.IsNegative() {
		due = decimal.Zero
	}
	if tendered.IsNegative() {
		tendered = decimal.Zero
	}
	applied := tendered
	if applied.GreaterThan(due) {
		applied = due
	}
	change := decimal.Zero
	if method == enum.PaymentMethodCash && tendered.GreaterThan(due) {
		change = tendered.Sub(due)
	}
	return Preview{Tendered: tendered, Applied: applied, Change: change}
}

// RemainingDue computes the outstanding balance from an order total and the
// payments recorded so far, clamped at zero so refund bookkeeping can never
// surface as a negative bill.
func RemainingDue(total decimal.Decimal, paid decimal.Decimal) decimal.Decimal {
	due := total.Sub(paid)
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}
