// Package ledger implements the customer ledger core: consolidation of bills
// and return credits into per-customer positions, deterministic oldest-first
// payment allocation, manual balance issuance, and the query layer used for
// display. Everything in this package is pure computation — persistence is the
// service layer's job.
package ledger

import (
	"errors"
	"strings"
	"time"

	"khatapos/internal/model"

	"github.com/shopspring/decimal"
)

// CustomerKey identifies one customer ledger. The phone number is the grouping
// key inherited from the point of sale: two customers sharing a phone collide
// into a single ledger, and a bill with a blank phone lands under
// UnknownCustomerKey. A stronger identity scheme would replace this type
// without touching the consolidation fold.
type CustomerKey string

// UnknownCustomerKey groups records that carry no phone number.
const UnknownCustomerKey CustomerKey = "unknown"

// KeyForPhone normalizes a raw phone string into a CustomerKey.
func KeyForPhone(phone string) CustomerKey {
	p := strings.TrimSpace(phone)
	if p == "" {
		return UnknownCustomerKey
	}
	return CustomerKey(p)
}

// Payment status values shared by bills and consolidated customers.
const (
	StatusUnpaid     = "unpaid"
	StatusPartial    = "partial"
	StatusPaid       = "paid"
	StatusFullReturn = "full_return"
)

// Refund methods on return credits.
const (
	RefundCash     = "cash"
	RefundCredited = "credited"
)

var (
	// ErrInvalidAmount rejects a non-positive payment amount.
	ErrInvalidAmount = errors.New("payment amount must be greater than zero")
	// ErrExceedsOutstanding rejects a payment larger than the customer owes.
	ErrExceedsOutstanding = errors.New("payment amount exceeds outstanding balance")
	// ErrInvalidInput rejects a manual balance with missing identity fields or
	// a non-positive amount.
	ErrInvalidInput = errors.New("manual balance requires customer name, phone and a positive amount")
)

// RoundMoney normalizes a monetary value to 2 decimal places. It is applied
// after every accumulation step, not only at the end, so rounding drift cannot
// compound across many small entries.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ConsolidatedCustomer is the derived per-customer position. It is recomputed
// from raw bills and credits on every read and never persisted.
type ConsolidatedCustomer struct {
	Key   CustomerKey
	Name  string
	Phone string
	// Bills holds every non-full_return bill for this customer.
	Bills              []model.Bill
	TotalAmount        decimal.Decimal
	TotalPaid          decimal.Decimal
	TotalReturnCredits decimal.Decimal
	// TotalOutstanding may be negative when credits exceed debt. It is
	// deliberately not clamped — a negative value signals an overpayment or
	// over-credit that must stay visible for investigation.
	TotalOutstanding decimal.Decimal
	OldestBillDate   time.Time
	DaysOverdue      int
	PaymentStatus    string
}

// billOutstanding is the open amount on a single bill, rounded.
func billOutstanding(b *model.Bill) decimal.Decimal {
	return RoundMoney(b.TotalAmount.Sub(b.AmountPaid))
}
