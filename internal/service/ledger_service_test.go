package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"khatapos/internal/dto"
	"khatapos/internal/ledger"
	"khatapos/internal/model"
	"khatapos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

// stubBillRepo is an in-memory BillRepository for testing. failUpdateOn
// injects a store failure on a specific bill to exercise the partial
// allocation path.
type stubBillRepo struct {
	bills        map[uuid.UUID]*model.Bill
	order        []uuid.UUID
	updates      []uuid.UUID
	failUpdateOn uuid.UUID
}

var _ repository.BillRepository = (*stubBillRepo)(nil)

func newStubBillRepo() *stubBillRepo {
	return &stubBillRepo{bills: make(map[uuid.UUID]*model.Bill)}
}

func (r *stubBillRepo) Create(_ context.Context, b *model.Bill) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	r.bills[b.ID] = b
	r.order = append(r.order, b.ID)
	return nil
}

func (r *stubBillRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Bill, error) {
	b, ok := r.bills[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return b, nil
}

func (r *stubBillRepo) ListAll(_ context.Context) ([]model.Bill, error) {
	out := make([]model.Bill, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.bills[id])
	}
	return out, nil
}

func (r *stubBillRepo) ListByPhone(_ context.Context, phone string) ([]model.Bill, error) {
	var out []model.Bill
	for _, id := range r.order {
		if r.bills[id].CustomerPhone == phone {
			out = append(out, *r.bills[id])
		}
	}
	return out, nil
}

func (r *stubBillRepo) List(_ context.Context, filter dto.BillFilter) ([]model.Bill, int64, error) {
	var out []model.Bill
	for _, id := range r.order {
		b := r.bills[id]
		if filter.Phone != "" && b.CustomerPhone != filter.Phone {
			continue
		}
		if filter.Status != "" && filter.Status != "all" && b.PaymentStatus != filter.Status {
			continue
		}
		out = append(out, *b)
	}
	return out, int64(len(out)), nil
}

func (r *stubBillRepo) UpdatePayment(_ context.Context, id uuid.UUID, amountPaid decimal.Decimal, status string) error {
	if id == r.failUpdateOn {
		return errors.New("connection reset by peer")
	}
	b, ok := r.bills[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	b.AmountPaid = amountPaid
	b.PaymentStatus = status
	r.updates = append(r.updates, id)
	return nil
}

func (r *stubBillRepo) DB() *gorm.DB { return nil }

type stubCreditRepo struct {
	credits []model.ReturnCredit
}

var _ repository.ReturnCreditRepository = (*stubCreditRepo)(nil)

func (r *stubCreditRepo) Create(_ context.Context, rc *model.ReturnCredit) error {
	r.credits = append(r.credits, *rc)
	return nil
}

func (r *stubCreditRepo) ListAll(_ context.Context) ([]model.ReturnCredit, error) {
	return r.credits, nil
}

func (r *stubCreditRepo) ListByPhone(_ context.Context, phone string) ([]model.ReturnCredit, error) {
	var out []model.ReturnCredit
	for _, rc := range r.credits {
		if rc.CustomerPhone == phone {
			out = append(out, rc)
		}
	}
	return out, nil
}

// stubEventRepo records appends in order; failAfter > 0 fails the Nth append.
type stubEventRepo struct {
	events    []model.PaymentEvent
	failAfter int
}

var _ repository.PaymentEventRepository = (*stubEventRepo)(nil)

func (r *stubEventRepo) Append(_ context.Context, e *model.PaymentEvent) error {
	if r.failAfter > 0 && len(r.events)+1 >= r.failAfter {
		return errors.New("disk full")
	}
	r.events = append(r.events, *e)
	return nil
}

func (r *stubEventRepo) ListBySaleID(_ context.Context, saleID uuid.UUID) ([]model.PaymentEvent, error) {
	var out []model.PaymentEvent
	for _, e := range r.events {
		if e.SaleID == saleID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *stubEventRepo) ListBySaleIDs(_ context.Context, saleIDs []uuid.UUID) ([]model.PaymentEvent, error) {
	idx := make(map[uuid.UUID]bool, len(saleIDs))
	for _, id := range saleIDs {
		idx[id] = true
	}
	var out []model.PaymentEvent
	for _, e := range r.events {
		if idx[e.SaleID] {
			out = append(out, e)
		}
	}
	return out, nil
}

func newTestService() (LedgerService, *stubBillRepo, *stubCreditRepo, *stubEventRepo) {
	bills := newStubBillRepo()
	credits := &stubCreditRepo{}
	events := &stubEventRepo{}
	return NewLedgerService(bills, credits, events, nil), bills, credits, events
}

func seedBill(t *testing.T, bills *stubBillRepo, phone, name, total, paid string, age time.Duration) *model.Bill {
	t.Helper()
	totalD, err := decimal.NewFromString(total)
	require.NoError(t, err)
	paidD, err := decimal.NewFromString(paid)
	require.NoError(t, err)

	status := ledger.StatusUnpaid
	switch {
	case paidD.GreaterThanOrEqual(totalD):
		status = ledger.StatusPaid
	case paidD.GreaterThan(decimal.Zero):
		status = ledger.StatusPartial
	}
	b := &model.Bill{
		ID:            uuid.New(),
		CustomerPhone: phone,
		CustomerName:  name,
		TotalAmount:   totalD,
		AmountPaid:    paidD,
		PaymentStatus: status,
		CreatedAt:     time.Now().Add(-age),
	}
	require.NoError(t, bills.Create(context.Background(), b))
	return b
}

// ── Bills ─────────────────────────────────────────────────────────────────────

func TestCreateBill_StatusDerivedFromUpfrontPayment(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	cases := []struct {
		paid   string
		expect string
	}{
		{"0", ledger.StatusUnpaid},
		{"40", ledger.StatusPartial},
		{"100", ledger.StatusPaid},
	}
	for _, tc := range cases {
		resp, err := svc.CreateBill(ctx, dto.CreateBillRequest{
			CustomerPhone: "0300-1234567",
			CustomerName:  "Ayesha",
			TotalAmount:   decimal.NewFromInt(100),
			AmountPaid:    mustDecimal(t, tc.paid),
		})
		require.NoError(t, err)
		assert.Equal(t, tc.expect, resp.PaymentStatus)
	}
}

func TestCreateBill_RejectsOverpaidBill(t *testing.T) {
	svc, bills, _, _ := newTestService()

	_, err := svc.CreateBill(context.Background(), dto.CreateBillRequest{
		CustomerPhone: "0300-1234567",
		CustomerName:  "Ayesha",
		TotalAmount:   decimal.NewFromInt(100),
		AmountPaid:    decimal.NewFromInt(150),
	})
	require.Error(t, err)
	assert.Empty(t, bills.bills)
}

func TestCreateBill_RejectsBadDueDate(t *testing.T) {
	svc, _, _, _ := newTestService()
	bad := "31-08-2026"
	_, err := svc.CreateBill(context.Background(), dto.CreateBillRequest{
		CustomerPhone: "0300-1234567",
		CustomerName:  "Ayesha",
		TotalAmount:   decimal.NewFromInt(100),
		DueDate:       &bad,
	})
	assert.Error(t, err)
}

// ── Customers ─────────────────────────────────────────────────────────────────

func TestGetCustomer_NotFound(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, err := svc.GetCustomer(context.Background(), "0399-0000000")
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestListCustomers_ConsolidatesAcrossBillsAndCredits(t *testing.T) {
	svc, bills, credits, _ := newTestService()
	ctx := context.Background()

	seedBill(t, bills, "0300-1234567", "Ayesha", "1000", "200", 40*24*time.Hour)
	seedBill(t, bills, "0300-1234567", "Ayesha", "500", "0", 35*24*time.Hour)
	require.NoError(t, credits.Create(ctx, &model.ReturnCredit{
		ID:            uuid.New(),
		SaleID:        uuid.New(),
		CustomerPhone: "0300-1234567",
		CustomerName:  "Ayesha",
		TotalRefund:   decimal.NewFromInt(100),
		RefundMethod:  ledger.RefundCredited,
		CreatedAt:     time.Now(),
	}))

	out, err := svc.ListCustomers(ctx, dto.CustomerQuery{Status: "all", Sort: "highest"})
	require.NoError(t, err)
	require.Len(t, out, 1)

	c := out[0]
	assert.Equal(t, "0300-1234567", c.Phone)
	assert.Equal(t, 2, c.BillCount)
	assert.True(t, c.TotalOutstanding.Equal(decimal.NewFromInt(1200)), "got %s", c.TotalOutstanding)
	assert.Equal(t, ledger.StatusPartial, c.PaymentStatus)
}

func TestGetStatement_IncludesVoidedBills(t *testing.T) {
	svc, bills, _, _ := newTestService()
	ctx := context.Background()

	seedBill(t, bills, "0300-1234567", "Ayesha", "500", "0", 24*time.Hour)
	voided := seedBill(t, bills, "0300-1234567", "Ayesha", "300", "0", 48*time.Hour)
	voided.PaymentStatus = ledger.StatusFullReturn

	stmt, err := svc.GetStatement(ctx, "0300-1234567")
	require.NoError(t, err)

	// The consolidated header excludes the voided bill...
	assert.Equal(t, 1, stmt.Customer.BillCount)
	// ...but the statement body is the audit view and keeps it.
	assert.Len(t, stmt.Bills, 2)
}

// ── Payment allocation ────────────────────────────────────────────────────────

func TestRecordPayment_SagaWritesInFIFOOrder(t *testing.T) {
	svc, bills, _, events := newTestService()
	ctx := context.Background()

	oldest := seedBill(t, bills, "0300-1234567", "Ayesha", "50", "0", 3*24*time.Hour)
	middle := seedBill(t, bills, "0300-1234567", "Ayesha", "30", "0", 2*24*time.Hour)
	newest := seedBill(t, bills, "0300-1234567", "Ayesha", "20", "0", 24*time.Hour)

	resp, err := svc.RecordPayment(ctx, "0300-1234567", dto.RecordPaymentRequest{
		Amount:        decimal.NewFromInt(60),
		PaymentMethod: "cash",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.BillsTouched)
	assert.True(t, resp.AmountApplied.Equal(decimal.NewFromInt(60)))
	assert.True(t, resp.RemainingOutstanding.Equal(decimal.NewFromInt(40)))

	// Bill updates happen strictly oldest-first.
	require.Equal(t, []uuid.UUID{oldest.ID, middle.ID}, bills.updates)
	assert.Equal(t, ledger.StatusPaid, bills.bills[oldest.ID].PaymentStatus)
	assert.Equal(t, ledger.StatusPartial, bills.bills[middle.ID].PaymentStatus)
	assert.Equal(t, ledger.StatusUnpaid, bills.bills[newest.ID].PaymentStatus)

	// One event per touched bill, matching the update order.
	require.Len(t, events.events, 2)
	assert.Equal(t, oldest.ID, events.events[0].SaleID)
	assert.Equal(t, middle.ID, events.events[1].SaleID)
}

func TestRecordPayment_RejectionLeavesNoWrites(t *testing.T) {
	svc, bills, _, events := newTestService()
	ctx := context.Background()

	seedBill(t, bills, "0300-1234567", "Ayesha", "100", "40", 24*time.Hour)

	_, err := svc.RecordPayment(ctx, "0300-1234567", dto.RecordPaymentRequest{
		Amount:        decimal.NewFromInt(61),
		PaymentMethod: "cash",
	})
	assert.ErrorIs(t, err, ledger.ErrExceedsOutstanding)
	assert.Empty(t, bills.updates)
	assert.Empty(t, events.events)

	_, err = svc.RecordPayment(ctx, "0300-1234567", dto.RecordPaymentRequest{
		Amount:        decimal.Zero,
		PaymentMethod: "cash",
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
	assert.Empty(t, bills.updates)
}

func TestRecordPayment_UnknownCustomer(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, err := svc.RecordPayment(context.Background(), "0399-0000000", dto.RecordPaymentRequest{
		Amount:        decimal.NewFromInt(10),
		PaymentMethod: "cash",
	})
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestRecordPayment_MidSequenceFailureReturnsAppliedEvents(t *testing.T) {
	svc, bills, _, events := newTestService()
	ctx := context.Background()

	first := seedBill(t, bills, "0300-1234567", "Ayesha", "50", "0", 3*24*time.Hour)
	second := seedBill(t, bills, "0300-1234567", "Ayesha", "30", "0", 2*24*time.Hour)
	bills.failUpdateOn = second.ID

	_, err := svc.RecordPayment(ctx, "0300-1234567", dto.RecordPaymentRequest{
		Amount:        decimal.NewFromInt(60),
		PaymentMethod: "cash",
	})
	require.Error(t, err)

	var partial *PartialAllocationError
	require.ErrorAs(t, err, &partial)
	require.Len(t, partial.Applied, 1, "only the first bill's event was persisted")
	assert.Equal(t, first.ID, partial.Applied[0].SaleID)
	assert.ErrorIs(t, err, ErrStoreWrite)

	// No rollback: the first bill keeps its settled state.
	assert.Equal(t, ledger.StatusPaid, bills.bills[first.ID].PaymentStatus)
	assert.Equal(t, ledger.StatusUnpaid, bills.bills[second.ID].PaymentStatus)
	require.Len(t, events.events, 1)
}

func TestRecordPayment_EventAppendFailureAfterBillUpdate(t *testing.T) {
	svc, bills, _, events := newTestService()
	ctx := context.Background()

	first := seedBill(t, bills, "0300-1234567", "Ayesha", "50", "0", 2*24*time.Hour)
	events.failAfter = 1 // very first append fails

	_, err := svc.RecordPayment(ctx, "0300-1234567", dto.RecordPaymentRequest{
		Amount:        decimal.NewFromInt(50),
		PaymentMethod: "cash",
	})
	require.Error(t, err)

	var partial *PartialAllocationError
	require.ErrorAs(t, err, &partial)
	assert.Empty(t, partial.Applied)

	// The bill row was already updated when the append failed — the audit
	// gap is surfaced, not rolled back.
	assert.Equal(t, ledger.StatusPaid, bills.bills[first.ID].PaymentStatus)
}

// ── Manual balance ────────────────────────────────────────────────────────────

func TestIssueManualBalance(t *testing.T) {
	svc, bills, _, _ := newTestService()
	ctx := context.Background()

	resp, err := svc.IssueManualBalance(ctx, dto.ManualBalanceRequest{
		CustomerName:  "Bilal",
		CustomerPhone: "0301-1111111",
		TotalAmount:   decimal.NewFromInt(2500),
	})
	require.NoError(t, err)
	assert.True(t, resp.IsManualBalance)
	assert.Equal(t, ledger.StatusUnpaid, resp.PaymentStatus)
	require.Len(t, bills.bills, 1)

	// The synthetic bill is allocatable like any other.
	pay, err := svc.RecordPayment(ctx, "0301-1111111", dto.RecordPaymentRequest{
		Amount:        decimal.NewFromInt(500),
		PaymentMethod: "cash",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, pay.BillsTouched)
	assert.True(t, pay.RemainingOutstanding.Equal(decimal.NewFromInt(2000)))
}

func TestIssueManualBalance_Invalid(t *testing.T) {
	svc, bills, _, _ := newTestService()
	_, err := svc.IssueManualBalance(context.Background(), dto.ManualBalanceRequest{
		CustomerName:  "",
		CustomerPhone: "0301-1111111",
		TotalAmount:   decimal.NewFromInt(100),
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)
	assert.Empty(t, bills.bills)
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return v
}
