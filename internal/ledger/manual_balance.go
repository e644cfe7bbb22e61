package ledger

import (
	"strings"
	"time"

	"khatapos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NewManualBalanceBill builds a synthetic bill representing a balance not
// backed by an actual sale — an opening balance carried over from a paper
// khata, or an adjustment. The bill participates in consolidation and
// allocation exactly like a sale-backed bill; nothing downstream special-cases
// it.
func NewManualBalanceBill(name, phone string, total decimal.Decimal, dueDate *time.Time, notes *string, now time.Time) (*model.Bill, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(phone) == "" {
		return nil, ErrInvalidInput
	}
	if total.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidInput
	}
	return &model.Bill{
		ID:              uuid.New(),
		CustomerPhone:   strings.TrimSpace(phone),
		CustomerName:    strings.TrimSpace(name),
		TotalAmount:     RoundMoney(total),
		AmountPaid:      decimal.Zero,
		PaymentStatus:   StatusUnpaid,
		IsManualBalance: true,
		Notes:           notes,
		DueDate:         dueDate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}
