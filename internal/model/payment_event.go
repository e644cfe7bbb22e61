package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentEvent is the append-only audit record of one application of money
// against one bill. Events are never edited or deleted.
type PaymentEvent struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID        uuid.UUID `gorm:"type:uuid;index;not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentMethod string          `gorm:"type:varchar(20);not null"`
	Notes         *string
	// ResultingBalance is the bill's outstanding amount immediately after this
	// event, denormalized for statement display.
	ResultingBalance decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt        time.Time
}
