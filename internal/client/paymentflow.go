package client

import (
	"context"
	"errors"
	"sync"

	"github.com/bersih-laundry/api/internal/enum"
	"github.com/bersih-laundry/api/internal/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrSubmitInFlight is returned when Submit is called while a previous
	// Submit on the same flow has not finished.
	ErrSubmitInFlight = errors.New("a payment submission is already in progress")
	// ErrAlreadySettled is returned when the order has no outstanding balance.
	ErrAlreadySettled = errors.New("order is already fully paid")
	// ErrNoAmount is returned when Submit is called with no amount keyed in.
	ErrNoAmount = errors.New("no payment amount entered")
)

// Result is the frozen outcome of one payment submission. Remaining always
// comes from the server's recomputed balance, never from local math.
type Result struct {
	Applied   decimal.Decimal
	Tendered  decimal.Decimal
	Change    decimal.Decimal
	Remaining decimal.Decimal
	Deferred  bool
}

// PaymentFlow drives the cashier payment screen for one order: it tracks the
// keyed-in amount and method, previews the split locally, and submits through
// the Client. A flow is safe for use from multiple goroutines, though the UI
// normally drives it from one.
type PaymentFlow struct {
	client   *Client
	outletID uuid.UUID
	orderID  uuid.UUID

	mu            sync.Mutex
	due           decimal.Decimal
	method        enum.PaymentMethod
	rawInput      string
	reference     string
	allowDeferred bool
	busy          bool
}

// NewPaymentFlow starts a payment flow from a fetched order detail. The
// balance shown and checked locally is the server's amount_due at fetch time;
// the submit path re-reads it server-side under a row lock, so a stale due
// here can cost a round trip but never a wrong charge.
func NewPaymentFlow(c *Client, detail *OrderDetail) (*PaymentFlow, error) {
	due, err := decimal.NewFromString(detail.AmountDue)
	if err != nil {
		return nil, errors.New("order has an unreadable balance")
	}
	return &PaymentFlow{
		client:   c,
		outletID: detail.OutletID,
		orderID:  detail.ID,
		due:      due,
		method:   enum.PaymentMethodCash,
	}, nil
}

// SetMethod switches the payment method.
func (f *PaymentFlow) SetMethod(method enum.PaymentMethod) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.method = method
}

// SetAmountInput replaces the keyed-in amount with the normalized form of raw.
func (f *PaymentFlow) SetAmountInput(raw string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rawInput = payment.NormalizeAmountInput(raw)
}

// AmountInput returns the current normalized keypad input.
func (f *PaymentFlow) AmountInput() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rawInput
}

// SetReference sets the reference number sent with non-cash payments.
func (f *PaymentFlow) SetReference(ref string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reference = ref
}

// SetAllowDeferred marks the order as payable later. With deferral allowed,
// submitting with nothing tendered or nothing due succeeds locally without
// touching the server.
func (f *PaymentFlow) SetAllowDeferred(allowed bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allowDeferred = allowed
}

// Due returns the outstanding balance the flow currently knows about.
func (f *PaymentFlow) Due() decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.due
}

// Preview computes the applied/change split for the current input. It is
// pure local math over the last known balance; call it on every keystroke.
func (f *PaymentFlow) Preview() payment.Preview {
	f.mu.Lock()
	defer f.mu.Unlock()
	return payment.ComputePreview(f.due, payment.ParseAmountInput(f.rawInput), f.method)
}

// Submit records the payment. Local short-circuits come first: a deferred
// no-op when deferral is allowed, then the settled and empty-amount checks,
// all before any network traffic. On success the flow's balance moves to the
// server's recomputed due and the input clears. On error nothing changes and
// the submission can be retried; a cancelled ctx behaves the same way.
func (f *PaymentFlow) Submit(ctx context.Context) (*Result, error) {
	f.mu.Lock()
	if f.busy {
		f.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	f.busy = true
	due := f.due
	tendered := payment.ParseAmountInput(f.rawInput)
	method := f.method
	reference := f.reference
	allowDeferred := f.allowDeferred
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.busy = false
		f.mu.Unlock()
	}()

	if allowDeferred && (tendered.IsZero() || due.IsZero()) {
		return &Result{
			Applied:   decimal.Zero,
			Tendered:  tendered,
			Change:    decimal.Zero,
			Remaining: due,
			Deferred:  true,
		}, nil
	}
	if due.IsZero() {
		return nil, ErrAlreadySettled
	}
	if tendered.IsZero() {
		return nil, ErrNoAmount
	}

	req := AddPaymentRequest{
		PaymentMethod: string(method),
		Amount:        tendered.String(),
	}
	if method != enum.PaymentMethodCash {
		req.ReferenceNumber = reference
	}

	resp, err := f.client.AddPayment(ctx, f.outletID, f.orderID, req)
	if err != nil {
		return nil, err
	}

	applied, err := decimal.NewFromString(resp.Payment.Amount)
	if err != nil {
		return nil, errors.New("server returned an unreadable payment amount")
	}
	remaining, err := decimal.NewFromString(resp.AmountDue)
	if err != nil {
		return nil, errors.New("server returned an unreadable balance")
	}
	change := decimal.Zero
	if resp.Payment.ChangeAmount != nil {
		change, err = decimal.NewFromString(*resp.Payment.ChangeAmount)
		if err != nil {
			return nil, errors.New("server returned an unreadable change amount")
		}
	}

	f.mu.Lock()
	f.due = remaining
	f.rawInput = ""
	f.mu.Unlock()

	return &Result{
		Applied:   applied,
		Tendered:  tendered,
		Change:    change,
		Remaining: remaining,
	}, nil
}
