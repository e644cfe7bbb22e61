package repository

import (
	"context"

	"khatapos/internal/model"

	"gorm.io/gorm"
)

// ReturnCreditRepository persists refund records. Credits are immutable:
// create and read only.
type ReturnCreditRepository interface {
	Create(ctx context.Context, rc *model.ReturnCredit) error
	ListAll(ctx context.Context) ([]model.ReturnCredit, error)
	ListByPhone(ctx context.Context, phone string) ([]model.ReturnCredit, error)
}

type returnCreditRepo struct{ db *gorm.DB }

func NewReturnCreditRepository(db *gorm.DB) ReturnCreditRepository {
	return &returnCreditRepo{db: db}
}

func (r *returnCreditRepo) Create(ctx context.Context, rc *model.ReturnCredit) error {
	return r.db.WithContext(ctx).Create(rc).Error
}

func (r *returnCreditRepo) ListAll(ctx context.Context) ([]model.ReturnCredit, error) {
	var credits []model.ReturnCredit
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&credits).Error
	return credits, err
}

func (r *returnCreditRepo) ListByPhone(ctx context.Context, phone string) ([]model.ReturnCredit, error) {
	var credits []model.ReturnCredit
	err := r.db.WithContext(ctx).Where("customer_phone = ?", phone).
		Order("created_at ASC").Find(&credits).Error
	return credits, err
}
