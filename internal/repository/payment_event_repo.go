package repository

import (
	"context"

	"khatapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentEventRepository is append-only: events form the audit trail and are
// never edited or deleted.
type PaymentEventRepository interface {
	Append(ctx context.Context, e *model.PaymentEvent) error
	ListBySaleID(ctx context.Context, saleID uuid.UUID) ([]model.PaymentEvent, error)
	ListBySaleIDs(ctx context.Context, saleIDs []uuid.UUID) ([]model.PaymentEvent, error)
}

type paymentEventRepo struct{ db *gorm.DB }

func NewPaymentEventRepository(db *gorm.DB) PaymentEventRepository {
	return &paymentEventRepo{db: db}
}

func (r *paymentEventRepo) Append(ctx context.Context, e *model.PaymentEvent) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *paymentEventRepo) ListBySaleID(ctx context.Context, saleID uuid.UUID) ([]model.PaymentEvent, error) {
	var events []model.PaymentEvent
	err := r.db.WithContext(ctx).Where("sale_id = ?", saleID).
		Order("created_at ASC").Find(&events).Error
	return events, err
}

func (r *paymentEventRepo) ListBySaleIDs(ctx context.Context, saleIDs []uuid.UUID) ([]model.PaymentEvent, error) {
	if len(saleIDs) == 0 {
		return nil, nil
	}
	var events []model.PaymentEvent
	err := r.db.WithContext(ctx).Where("sale_id IN ?", saleIDs).
		Order("created_at ASC").Find(&events).Error
	return events, err
}
