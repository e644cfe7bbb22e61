package ledger

import (
	"sort"
	"time"

	"khatapos/internal/model"

	"github.com/shopspring/decimal"
)

// Consolidate folds every known bill and return credit into one snapshot per
// customer. Pure function: same inputs and clock always produce the same
// output, so repeated calls are byte-identical and safe to run on every read.
//
// Rules:
//   - bills with status full_return are excluded before aggregation
//   - records group by phone; blank phones fall under UnknownCustomerKey
//   - only credited refunds reduce the outstanding balance
//   - every monetary field is rounded after each accumulation step
//
// A customer that only has credits (no surviving bills) still gets a snapshot:
// its negative outstanding is exactly the kind of anomaly that must stay
// visible. The store guarantees numeric fields, and decimal zero values decode
// malformed input as 0, so consolidation never fails.
func Consolidate(bills []model.Bill, credits []model.ReturnCredit, now time.Time) []ConsolidatedCustomer {
	groups := make(map[CustomerKey]*ConsolidatedCustomer)

	group := func(key CustomerKey, name, phone string) *ConsolidatedCustomer {
		c, ok := groups[key]
		if !ok {
			c = &ConsolidatedCustomer{
				Key:                key,
				Name:               name,
				Phone:              phone,
				TotalAmount:        decimal.Zero,
				TotalPaid:          decimal.Zero,
				TotalReturnCredits: decimal.Zero,
			}
			groups[key] = c
		}
		if c.Name == "" {
			c.Name = name
		}
		if c.Phone == "" {
			c.Phone = phone
		}
		return c
	}

	for _, b := range bills {
		if b.PaymentStatus == StatusFullReturn {
			continue
		}
		c := group(KeyForPhone(b.CustomerPhone), b.CustomerName, b.CustomerPhone)
		c.Bills = append(c.Bills, b)
		c.TotalAmount = RoundMoney(c.TotalAmount.Add(b.TotalAmount))
		c.TotalPaid = RoundMoney(c.TotalPaid.Add(b.AmountPaid))
		if c.OldestBillDate.IsZero() || b.CreatedAt.Before(c.OldestBillDate) {
			c.OldestBillDate = b.CreatedAt
		}
	}

	for _, r := range credits {
		if r.RefundMethod != RefundCredited {
			continue
		}
		c := group(KeyForPhone(r.CustomerPhone), r.CustomerName, r.CustomerPhone)
		c.TotalReturnCredits = RoundMoney(c.TotalReturnCredits.Add(r.TotalRefund))
	}

	out := make([]ConsolidatedCustomer, 0, len(groups))
	for _, c := range groups {
		c.TotalOutstanding = RoundMoney(RoundMoney(c.TotalAmount.Sub(c.TotalPaid)).Sub(c.TotalReturnCredits))
		if !c.OldestBillDate.IsZero() {
			c.DaysOverdue = int(now.Sub(c.OldestBillDate).Hours() / 24)
		}
		switch {
		case c.TotalOutstanding.LessThanOrEqual(decimal.Zero):
			c.PaymentStatus = StatusPaid
		case c.TotalPaid.GreaterThan(decimal.Zero):
			c.PaymentStatus = StatusPartial
		default:
			c.PaymentStatus = StatusUnpaid
		}
		out = append(out, *c)
	}

	// Map iteration order is random; sort by key so identical input yields
	// identical output. Presentation ordering belongs to QueryCustomers.
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
