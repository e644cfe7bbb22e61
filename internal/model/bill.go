package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bill is one completed sale on a customer's ledger.
// PaymentStatus: "unpaid" | "partial" | "paid" | "full_return"
// A fully returned bill is void and excluded from consolidation; bills are
// never deleted. AmountPaid and PaymentStatus are mutated only by the payment
// allocator.
type Bill struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CustomerPhone string    `gorm:"type:varchar(20);index;not null"`
	CustomerName  string    `gorm:"not null"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	AmountPaid    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	PaymentStatus string          `gorm:"type:varchar(20);not null;default:'unpaid'"`
	// IsManualBalance marks synthetic bills (opening balances, adjustments)
	// that are not backed by a point-of-sale transaction.
	IsManualBalance bool `gorm:"not null;default:false"`
	Notes           *string
	DueDate         *time.Time
	// CreatedAt is immutable; it defines bill age and allocation order.
	CreatedAt time.Time
	UpdatedAt time.Time
}
