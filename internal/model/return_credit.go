package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReturnCredit records a refund against a customer's account, not against a
// specific bill line. RefundMethod: "cash" | "credited". Only credited refunds
// reduce the balance owed — cash refunds already left the drawer. Immutable
// once written.
type ReturnCredit struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	// SaleID references the originating bill; informational only.
	SaleID        uuid.UUID `gorm:"type:uuid;index;not null"`
	CustomerPhone string    `gorm:"type:varchar(20);index;not null"`
	CustomerName  string    `gorm:"not null"`
	TotalRefund   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	RefundMethod  string          `gorm:"type:varchar(10);not null"`
	CreatedAt     time.Time
}
