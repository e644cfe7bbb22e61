package repository

import (
	"context"

	"khatapos/internal/dto"
	"khatapos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BillRepository is the data access contract for bills. Services depend on
// this interface, not on the concrete GORM implementation, enabling clean
// unit testing via in-memory stubs.
type BillRepository interface {
	Create(ctx context.Context, b *model.Bill) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Bill, error)
	// ListAll delivers the complete bill set — consolidation assumes no
	// pagination inside the engine.
	ListAll(ctx context.Context) ([]model.Bill, error)
	ListByPhone(ctx context.Context, phone string) ([]model.Bill, error)
	List(ctx context.Context, filter dto.BillFilter) ([]model.Bill, int64, error)
	// UpdatePayment is the single-row conditional write used by the payment
	// allocator, one call per affected bill.
	UpdatePayment(ctx context.Context, id uuid.UUID, amountPaid decimal.Decimal, status string) error
	DB() *gorm.DB
}

type billRepo struct{ db *gorm.DB }

func NewBillRepository(db *gorm.DB) BillRepository { return &billRepo{db: db} }

func (r *billRepo) DB() *gorm.DB { return r.db }

func (r *billRepo) Create(ctx context.Context, b *model.Bill) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *billRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Bill, error) {
	var b model.Bill
	err := r.db.WithContext(ctx).First(&b, id).Error
	return &b, err
}

func (r *billRepo) ListAll(ctx context.Context) ([]model.Bill, error) {
	var bills []model.Bill
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&bills).Error
	return bills, err
}

func (r *billRepo) ListByPhone(ctx context.Context, phone string) ([]model.Bill, error) {
	var bills []model.Bill
	err := r.db.WithContext(ctx).Where("customer_phone = ?", phone).
		Order("created_at ASC").Find(&bills).Error
	return bills, err
}

func (r *billRepo) List(ctx context.Context, filter dto.BillFilter) ([]model.Bill, int64, error) {
	var bills []model.Bill
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Bill{})
	if filter.Phone != "" {
		q = q.Where("customer_phone = ?", filter.Phone)
	}
	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("payment_status = ?", filter.Status)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("created_at DESC").Offset(offset).Limit(filter.Limit).Find(&bills).Error
	return bills, total, err
}

func (r *billRepo) UpdatePayment(ctx context.Context, id uuid.UUID, amountPaid decimal.Decimal, status string) error {
	res := r.db.WithContext(ctx).Model(&model.Bill{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"amount_paid":    amountPaid,
			"payment_status": status,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
