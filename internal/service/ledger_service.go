package service

import (
	"context"
	"fmt"
	"time"

	"khatapos/internal/dto"
	"khatapos/internal/ledger"
	"khatapos/internal/model"
	"khatapos/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type LedgerService interface {
	CreateBill(ctx context.Context, req dto.CreateBillRequest) (*dto.BillResponse, error)
	ListBills(ctx context.Context, filter dto.BillFilter) (*dto.BillListResponse, error)
	ListBillPayments(ctx context.Context, billID uuid.UUID) ([]dto.PaymentEventResponse, error)

	CreateReturnCredit(ctx context.Context, req dto.CreateReturnRequest) (*dto.ReturnCreditResponse, error)
	ListReturnCredits(ctx context.Context, phone string) ([]dto.ReturnCreditResponse, error)

	ListCustomers(ctx context.Context, q dto.CustomerQuery) ([]dto.CustomerResponse, error)
	GetCustomer(ctx context.Context, phone string) (*dto.CustomerDetailResponse, error)
	GetStatement(ctx context.Context, phone string) (*dto.StatementResponse, error)

	RecordPayment(ctx context.Context, phone string, req dto.RecordPaymentRequest) (*dto.PaymentResultResponse, error)
	IssueManualBalance(ctx context.Context, req dto.ManualBalanceRequest) (*dto.BillResponse, error)
}

type ledgerService struct {
	bills   repository.BillRepository
	credits repository.ReturnCreditRepository
	events  repository.PaymentEventRepository
	rdb     *redis.Client
}

func NewLedgerService(
	bills repository.BillRepository,
	credits repository.ReturnCreditRepository,
	events repository.PaymentEventRepository,
	rdb *redis.Client,
) LedgerService {
	return &ledgerService{bills: bills, credits: credits, events: events, rdb: rdb}
}

// allocationLockTTL bounds how long a crashed allocator can block a customer.
const allocationLockTTL = 15 * time.Second

// ── Bills ─────────────────────────────────────────────────────────────────────

func (s *ledgerService) CreateBill(ctx context.Context, req dto.CreateBillRequest) (*dto.BillResponse, error) {
	if req.AmountPaid.GreaterThan(req.TotalAmount) {
		return nil, fmt.Errorf("amount_paid cannot exceed total_amount")
	}

	status := ledger.StatusUnpaid
	switch {
	case req.AmountPaid.GreaterThanOrEqual(req.TotalAmount):
		status = ledger.StatusPaid
	case req.AmountPaid.GreaterThan(decimal.Zero):
		status = ledger.StatusPartial
	}

	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		return nil, err
	}

	bill := &model.Bill{
		ID:            uuid.New(),
		CustomerPhone: req.CustomerPhone,
		CustomerName:  req.CustomerName,
		TotalAmount:   ledger.RoundMoney(req.TotalAmount),
		AmountPaid:    ledger.RoundMoney(req.AmountPaid),
		PaymentStatus: status,
		Notes:         req.Notes,
		DueDate:       dueDate,
		CreatedAt:     time.Now(),
	}
	if err := s.bills.Create(ctx, bill); err != nil {
		return nil, fmt.Errorf("%w: create bill: %v", ErrStoreWrite, err)
	}
	return billToResponse(bill), nil
}

func (s *ledgerService) ListBills(ctx context.Context, filter dto.BillFilter) (*dto.BillListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	bills, total, err := s.bills.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.BillResponse, 0, len(bills))
	for i := range bills {
		items = append(items, *billToResponse(&bills[i]))
	}
	return &dto.BillListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *ledgerService) ListBillPayments(ctx context.Context, billID uuid.UUID) ([]dto.PaymentEventResponse, error) {
	events, err := s.events.ListBySaleID(ctx, billID)
	if err != nil {
		return nil, err
	}
	return eventsToResponses(events), nil
}

// ── Return credits ───────────────────────────────────────────────────────────

func (s *ledgerService) CreateReturnCredit(ctx context.Context, req dto.CreateReturnRequest) (*dto.ReturnCreditResponse, error) {
	saleID, err := uuid.Parse(req.SaleID)
	if err != nil {
		return nil, fmt.Errorf("invalid sale_id: %w", err)
	}
	rc := &model.ReturnCredit{
		ID:            uuid.New(),
		SaleID:        saleID,
		CustomerPhone: req.CustomerPhone,
		CustomerName:  req.CustomerName,
		TotalRefund:   ledger.RoundMoney(req.TotalRefund),
		RefundMethod:  req.RefundMethod,
		CreatedAt:     time.Now(),
	}
	if err := s.credits.Create(ctx, rc); err != nil {
		return nil, fmt.Errorf("%w: create return credit: %v", ErrStoreWrite, err)
	}
	return returnToResponse(rc), nil
}

func (s *ledgerService) ListReturnCredits(ctx context.Context, phone string) ([]dto.ReturnCreditResponse, error) {
	var credits []model.ReturnCredit
	var err error
	if phone == "" {
		credits, err = s.credits.ListAll(ctx)
	} else {
		credits, err = s.credits.ListByPhone(ctx, phone)
	}
	if err != nil {
		return nil, err
	}
	out := make([]dto.ReturnCreditResponse, 0, len(credits))
	for i := range credits {
		out = append(out, *returnToResponse(&credits[i]))
	}
	return out, nil
}

// ── Consolidated views ───────────────────────────────────────────────────────

// consolidateAll recomputes every customer position from the raw record sets.
// Derived on every read by design: no stored running balance to drift.
func (s *ledgerService) consolidateAll(ctx context.Context) ([]ledger.ConsolidatedCustomer, error) {
	bills, err := s.bills.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	credits, err := s.credits.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.Consolidate(bills, credits, time.Now()), nil
}

func (s *ledgerService) findCustomer(ctx context.Context, phone string) (*ledger.ConsolidatedCustomer, error) {
	all, err := s.consolidateAll(ctx)
	if err != nil {
		return nil, err
	}
	key := ledger.KeyForPhone(phone)
	for i := range all {
		if all[i].Key == key {
			return &all[i], nil
		}
	}
	return nil, ErrCustomerNotFound
}

func (s *ledgerService) ListCustomers(ctx context.Context, q dto.CustomerQuery) ([]dto.CustomerResponse, error) {
	all, err := s.consolidateAll(ctx)
	if err != nil {
		return nil, err
	}
	filtered := ledger.QueryCustomers(all, ledger.QueryOptions{
		Search:       q.Search,
		Status:       q.Status,
		Sort:         q.Sort,
		ShowAllBills: q.ShowAllBills,
	})
	out := make([]dto.CustomerResponse, 0, len(filtered))
	for i := range filtered {
		out = append(out, *customerToResponse(&filtered[i]))
	}
	return out, nil
}

func (s *ledgerService) GetCustomer(ctx context.Context, phone string) (*dto.CustomerDetailResponse, error) {
	c, err := s.findCustomer(ctx, phone)
	if err != nil {
		return nil, err
	}
	resp := &dto.CustomerDetailResponse{CustomerResponse: *customerToResponse(c)}
	for i := range c.Bills {
		resp.Bills = append(resp.Bills, *billToResponse(&c.Bills[i]))
	}
	return resp, nil
}

func (s *ledgerService) GetStatement(ctx context.Context, phone string) (*dto.StatementResponse, error) {
	c, err := s.findCustomer(ctx, phone)
	if err != nil {
		return nil, err
	}

	// The statement is the audit view: voided bills included.
	bills, err := s.bills.ListByPhone(ctx, c.Phone)
	if err != nil {
		return nil, err
	}
	billIDs := make([]uuid.UUID, 0, len(bills))
	billResponses := make([]dto.BillResponse, 0, len(bills))
	for i := range bills {
		billIDs = append(billIDs, bills[i].ID)
		billResponses = append(billResponses, *billToResponse(&bills[i]))
	}

	events, err := s.events.ListBySaleIDs(ctx, billIDs)
	if err != nil {
		return nil, err
	}
	credits, err := s.credits.ListByPhone(ctx, c.Phone)
	if err != nil {
		return nil, err
	}
	creditResponses := make([]dto.ReturnCreditResponse, 0, len(credits))
	for i := range credits {
		creditResponses = append(creditResponses, *returnToResponse(&credits[i]))
	}

	return &dto.StatementResponse{
		Customer: *customerToResponse(c),
		Bills:    billResponses,
		Payments: eventsToResponses(events),
		Returns:  creditResponses,
	}, nil
}

// ── Payment allocation ───────────────────────────────────────────────────────

// RecordPayment distributes a payment across the customer's open bills,
// oldest-first, and persists the result as an ordered saga of single-row
// writes: per bill, one conditional update plus one appended payment event.
// There is no cross-bill rollback — on a mid-sequence store failure the
// already-applied events are returned inside a PartialAllocationError.
//
// A redis lock keyed by phone serializes concurrent allocations for the same
// customer; without it two callers could both pass the outstanding-balance
// precondition against the same stale snapshot.
func (s *ledgerService) RecordPayment(ctx context.Context, phone string, req dto.RecordPaymentRequest) (*dto.PaymentResultResponse, error) {
	unlock, err := s.lockCustomer(ctx, phone)
	if err != nil {
		return nil, err
	}
	defer unlock()

	customer, err := s.findCustomer(ctx, phone)
	if err != nil {
		return nil, err
	}

	plan, err := ledger.PlanAllocation(*customer, req.Amount, req.PaymentMethod, req.Notes, time.Now())
	if err != nil {
		return nil, err
	}

	applied := make([]model.PaymentEvent, 0, len(plan.Steps))
	for i := range plan.Steps {
		step := &plan.Steps[i]
		if err := s.bills.UpdatePayment(ctx, step.Update.BillID, step.Update.NewAmountPaid, step.Update.NewStatus); err != nil {
			log.Error().Err(err).
				Str("phone", phone).
				Str("bill_id", step.Update.BillID.String()).
				Int("applied_events", len(applied)).
				Msg("allocation: bill update failed mid-sequence")
			return nil, &PartialAllocationError{Applied: applied, Err: fmt.Errorf("%w: update bill %s: %v", ErrStoreWrite, step.Update.BillID, err)}
		}
		if err := s.events.Append(ctx, &step.Event); err != nil {
			// The bill row is already updated; the missing event is an audit
			// gap the caller must reconcile, not something to hide.
			log.Error().Err(err).
				Str("phone", phone).
				Str("bill_id", step.Update.BillID.String()).
				Msg("allocation: payment event append failed after bill update")
			return nil, &PartialAllocationError{Applied: applied, Err: fmt.Errorf("%w: append payment event for bill %s: %v", ErrStoreWrite, step.Update.BillID, err)}
		}
		applied = append(applied, step.Event)
	}

	log.Info().
		Str("phone", phone).
		Str("amount", req.Amount.String()).
		Int("bills_touched", len(applied)).
		Msg("payment allocated")

	return &dto.PaymentResultResponse{
		Events:               eventsToResponses(applied),
		BillsTouched:         len(applied),
		AmountApplied:        ledger.RoundMoney(req.Amount.Sub(plan.Remaining)),
		RemainingOutstanding: ledger.RoundMoney(customer.TotalOutstanding.Sub(req.Amount)),
	}, nil
}

// lockCustomer acquires the per-customer allocation lock. Returns a no-op
// unlock when no redis client is wired (unit tests).
func (s *ledgerService) lockCustomer(ctx context.Context, phone string) (func(), error) {
	if s.rdb == nil {
		return func() {}, nil
	}
	key := "ledger:lock:" + string(ledger.KeyForPhone(phone))
	ok, err := s.rdb.SetNX(ctx, key, "1", allocationLockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: acquire allocation lock: %v", ErrStoreWrite, err)
	}
	if !ok {
		return nil, ErrAllocationInProgress
	}
	return func() { _ = s.rdb.Del(context.Background(), key).Err() }, nil
}

// ── Manual balance ───────────────────────────────────────────────────────────

func (s *ledgerService) IssueManualBalance(ctx context.Context, req dto.ManualBalanceRequest) (*dto.BillResponse, error) {
	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		return nil, err
	}
	bill, err := ledger.NewManualBalanceBill(req.CustomerName, req.CustomerPhone, req.TotalAmount, dueDate, req.Notes, time.Now())
	if err != nil {
		return nil, err
	}
	if err := s.bills.Create(ctx, bill); err != nil {
		return nil, fmt.Errorf("%w: create manual balance: %v", ErrStoreWrite, err)
	}
	log.Info().
		Str("phone", bill.CustomerPhone).
		Str("amount", bill.TotalAmount.String()).
		Msg("manual balance issued")
	return billToResponse(bill), nil
}

// ── Mapping helpers ──────────────────────────────────────────────────────────

const timeFormat = "2006-01-02T15:04:05Z"

func parseDueDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, fmt.Errorf("invalid due_date (want YYYY-MM-DD): %w", err)
	}
	return &t, nil
}

func billToResponse(b *model.Bill) *dto.BillResponse {
	var due *string
	if b.DueDate != nil {
		d := b.DueDate.Format("2006-01-02")
		due = &d
	}
	return &dto.BillResponse{
		ID:              b.ID.String(),
		CustomerPhone:   b.CustomerPhone,
		CustomerName:    b.CustomerName,
		TotalAmount:     b.TotalAmount,
		AmountPaid:      b.AmountPaid,
		Outstanding:     ledger.RoundMoney(b.TotalAmount.Sub(b.AmountPaid)),
		PaymentStatus:   b.PaymentStatus,
		IsManualBalance: b.IsManualBalance,
		Notes:           b.Notes,
		DueDate:         due,
		CreatedAt:       b.CreatedAt.UTC().Format(timeFormat),
	}
}

func returnToResponse(rc *model.ReturnCredit) *dto.ReturnCreditResponse {
	return &dto.ReturnCreditResponse{
		ID:            rc.ID.String(),
		SaleID:        rc.SaleID.String(),
		CustomerPhone: rc.CustomerPhone,
		CustomerName:  rc.CustomerName,
		TotalRefund:   rc.TotalRefund,
		RefundMethod:  rc.RefundMethod,
		CreatedAt:     rc.CreatedAt.UTC().Format(timeFormat),
	}
}

func customerToResponse(c *ledger.ConsolidatedCustomer) *dto.CustomerResponse {
	oldest := ""
	if !c.OldestBillDate.IsZero() {
		oldest = c.OldestBillDate.UTC().Format(timeFormat)
	}
	return &dto.CustomerResponse{
		Phone:              string(c.Key),
		Name:               c.Name,
		BillCount:          len(c.Bills),
		TotalAmount:        c.TotalAmount,
		TotalPaid:          c.TotalPaid,
		TotalReturnCredits: c.TotalReturnCredits,
		TotalOutstanding:   c.TotalOutstanding,
		OldestBillDate:     oldest,
		DaysOverdue:        c.DaysOverdue,
		PaymentStatus:      c.PaymentStatus,
	}
}

func eventsToResponses(events []model.PaymentEvent) []dto.PaymentEventResponse {
	out := make([]dto.PaymentEventResponse, 0, len(events))
	for i := range events {
		e := &events[i]
		out = append(out, dto.PaymentEventResponse{
			ID:               e.ID.String(),
			SaleID:           e.SaleID.String(),
			Amount:           e.Amount,
			PaymentMethod:    e.PaymentMethod,
			Notes:            e.Notes,
			ResultingBalance: e.ResultingBalance,
			CreatedAt:        e.CreatedAt.UTC().Format(timeFormat),
		})
	}
	return out
}
