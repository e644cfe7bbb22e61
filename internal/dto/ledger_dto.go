package dto

import "github.com/shopspring/decimal"

// ─── Bills ───────────────────────────────────────────────────────────────────

// BillFilter is bound from the query string of GET /v1/bills.
type BillFilter struct {
	Phone  string `form:"phone"`
	Status string `form:"status"` // unpaid | partial | paid | full_return | all
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type CreateBillRequest struct {
	CustomerPhone string          `json:"customer_phone" validate:"required"`
	CustomerName  string          `json:"customer_name"  validate:"required"`
	TotalAmount   decimal.Decimal `json:"total_amount"   validate:"required,gt=0"`
	AmountPaid    decimal.Decimal `json:"amount_paid"    validate:"min=0"`
	Notes         *string         `json:"notes"`
	DueDate       *string         `json:"due_date"` // YYYY-MM-DD
}

type BillResponse struct {
	ID              string          `json:"id"`
	CustomerPhone   string          `json:"customer_phone"`
	CustomerName    string          `json:"customer_name"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	AmountPaid      decimal.Decimal `json:"amount_paid"`
	Outstanding     decimal.Decimal `json:"outstanding"`
	PaymentStatus   string          `json:"payment_status"`
	IsManualBalance bool            `json:"is_manual_balance"`
	Notes           *string         `json:"notes,omitempty"`
	DueDate         *string         `json:"due_date,omitempty"`
	CreatedAt       string          `json:"created_at"`
}

type BillListResponse struct {
	Data  []BillResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// ─── Return credits ──────────────────────────────────────────────────────────

type CreateReturnRequest struct {
	SaleID        string          `json:"sale_id"        validate:"required,uuid"`
	CustomerPhone string          `json:"customer_phone" validate:"required"`
	CustomerName  string          `json:"customer_name"  validate:"required"`
	TotalRefund   decimal.Decimal `json:"total_refund"   validate:"required,gt=0"`
	RefundMethod  string          `json:"refund_method"  validate:"required,oneof=cash credited"`
}

type ReturnCreditResponse struct {
	ID            string          `json:"id"`
	SaleID        string          `json:"sale_id"`
	CustomerPhone string          `json:"customer_phone"`
	CustomerName  string          `json:"customer_name"`
	TotalRefund   decimal.Decimal `json:"total_refund"`
	RefundMethod  string          `json:"refund_method"`
	CreatedAt     string          `json:"created_at"`
}

// ─── Consolidated customers ──────────────────────────────────────────────────

// CustomerQuery is bound from the query string of GET /v1/customers.
type CustomerQuery struct {
	Search       string `form:"search"`
	Status       string `form:"status,default=all" validate:"oneof=all paid unpaid"`
	Sort         string `form:"sort,default=highest" validate:"oneof=highest lowest oldest newest"`
	ShowAllBills bool   `form:"show_all_bills"`
}

type CustomerResponse struct {
	Phone              string          `json:"phone"`
	Name               string          `json:"name"`
	BillCount          int             `json:"bill_count"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	TotalPaid          decimal.Decimal `json:"total_paid"`
	TotalReturnCredits decimal.Decimal `json:"total_return_credits"`
	TotalOutstanding   decimal.Decimal `json:"total_outstanding"`
	OldestBillDate     string          `json:"oldest_bill_date,omitempty"`
	DaysOverdue        int             `json:"days_overdue"`
	PaymentStatus      string          `json:"payment_status"`
}

type CustomerDetailResponse struct {
	CustomerResponse
	Bills []BillResponse `json:"bills"`
}

// StatementResponse is the per-customer history view: every bill (voided ones
// included), every payment event, every credit.
type StatementResponse struct {
	Customer CustomerResponse       `json:"customer"`
	Bills    []BillResponse         `json:"bills"`
	Payments []PaymentEventResponse `json:"payments"`
	Returns  []ReturnCreditResponse `json:"returns"`
}

// ─── Payments ────────────────────────────────────────────────────────────────

type RecordPaymentRequest struct {
	Amount        decimal.Decimal `json:"amount"         validate:"required"`
	PaymentMethod string          `json:"payment_method" validate:"required,oneof=cash card transfer"`
	Notes         string          `json:"notes"`
}

type PaymentEventResponse struct {
	ID               string          `json:"id"`
	SaleID           string          `json:"sale_id"`
	Amount           decimal.Decimal `json:"amount"`
	PaymentMethod    string          `json:"payment_method"`
	Notes            *string         `json:"notes,omitempty"`
	ResultingBalance decimal.Decimal `json:"resulting_balance"`
	CreatedAt        string          `json:"created_at"`
}

type PaymentResultResponse struct {
	Events               []PaymentEventResponse `json:"events"`
	BillsTouched         int                    `json:"bills_touched"`
	AmountApplied        decimal.Decimal        `json:"amount_applied"`
	RemainingOutstanding decimal.Decimal        `json:"remaining_outstanding"`
}

// ─── Manual balance ──────────────────────────────────────────────────────────

type ManualBalanceRequest struct {
	CustomerPhone string          `json:"customer_phone" validate:"required"`
	CustomerName  string          `json:"customer_name"  validate:"required"`
	TotalAmount   decimal.Decimal `json:"total_amount"   validate:"required"`
	DueDate       *string         `json:"due_date"` // YYYY-MM-DD
	Notes         *string         `json:"notes"`
}
