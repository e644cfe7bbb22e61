package ledger

import (
	"sort"
	"time"

	"khatapos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillUpdate is the pending single-row mutation for one bill touched by an
// allocation.
type BillUpdate struct {
	BillID        uuid.UUID
	NewAmountPaid decimal.Decimal
	NewStatus     string
}

// AllocationStep pairs the payment event to append with the bill update it
// belongs to. Steps must be executed strictly in order: later bills'
// outstanding amounts are only correct once earlier writes complete.
type AllocationStep struct {
	Event  model.PaymentEvent
	Update BillUpdate
}

// AllocationPlan is the full, deterministic result of distributing one payment
// across a customer's open bills.
type AllocationPlan struct {
	Steps  []AllocationStep
	Amount decimal.Decimal
	// Remaining is non-zero only when the bills were exhausted before the
	// payment — possible on a stale snapshot. The allocator stops rather than
	// raising; the caller decides what to do with the leftover.
	Remaining decimal.Decimal
}

// PlanAllocation distributes amount across the customer's open bills,
// oldest-first. Bills sharing a createdAt are processed in ascending id order
// so repeated runs against the same input always produce the same allocation.
//
// Preconditions: amount > 0 (ErrInvalidAmount) and amount does not exceed the
// customer's outstanding balance (ErrExceedsOutstanding). The allocator never
// pays a customer into a negative ledger; adjustments go through the manual
// balance path instead.
func PlanAllocation(customer ConsolidatedCustomer, amount decimal.Decimal, method, notes string, now time.Time) (*AllocationPlan, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	if amount.GreaterThan(customer.TotalOutstanding) {
		return nil, ErrExceedsOutstanding
	}

	open := make([]model.Bill, 0, len(customer.Bills))
	for _, b := range customer.Bills {
		if billOutstanding(&b).GreaterThan(decimal.Zero) {
			open = append(open, b)
		}
	}
	sort.Slice(open, func(i, j int) bool {
		if open[i].CreatedAt.Equal(open[j].CreatedAt) {
			return open[i].ID.String() < open[j].ID.String()
		}
		return open[i].CreatedAt.Before(open[j].CreatedAt)
	})

	var noteRef *string
	if notes != "" {
		noteRef = &notes
	}

	plan := &AllocationPlan{Amount: amount, Remaining: amount}
	for _, b := range open {
		if plan.Remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		outstanding := billOutstanding(&b)
		applied := decimal.Min(outstanding, plan.Remaining)
		resulting := RoundMoney(outstanding.Sub(applied))

		newPaid := RoundMoney(b.AmountPaid.Add(applied))
		newStatus := StatusPartial
		if resulting.LessThanOrEqual(decimal.Zero) {
			newStatus = StatusPaid
		}

		plan.Steps = append(plan.Steps, AllocationStep{
			Event: model.PaymentEvent{
				ID:               uuid.New(),
				SaleID:           b.ID,
				Amount:           applied,
				PaymentMethod:    method,
				Notes:            noteRef,
				ResultingBalance: resulting,
				CreatedAt:        now,
			},
			Update: BillUpdate{
				BillID:        b.ID,
				NewAmountPaid: newPaid,
				NewStatus:     newStatus,
			},
		})
		plan.Remaining = RoundMoney(plan.Remaining.Sub(applied))
	}
	return plan, nil
}
