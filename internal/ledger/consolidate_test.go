package ledger

import (
	"testing"
	"time"

	"khatapos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func bill(phone, name string, total, paid string, status string, createdAt time.Time) model.Bill {
	return model.Bill{
		ID:            uuid.New(),
		CustomerPhone: phone,
		CustomerName:  name,
		TotalAmount:   d(total),
		AmountPaid:    d(paid),
		PaymentStatus: status,
		CreatedAt:     createdAt,
	}
}

func credit(phone, name, refund, method string, createdAt time.Time) model.ReturnCredit {
	return model.ReturnCredit{
		ID:            uuid.New(),
		SaleID:        uuid.New(),
		CustomerPhone: phone,
		CustomerName:  name,
		TotalRefund:   d(refund),
		RefundMethod:  method,
		CreatedAt:     createdAt,
	}
}

func TestConsolidate_SingleCustomerTotals(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	day0 := now.AddDate(0, 0, -40)

	bills := []model.Bill{
		bill("0300-1234567", "Ayesha", "1000", "200", StatusPartial, day0),
		bill("0300-1234567", "Ayesha", "500", "0", StatusUnpaid, day0.AddDate(0, 0, 5)),
	}
	credits := []model.ReturnCredit{
		credit("0300-1234567", "Ayesha", "100", RefundCredited, day0.AddDate(0, 0, 10)),
	}

	out := Consolidate(bills, credits, now)
	require.Len(t, out, 1)

	c := out[0]
	assert.Equal(t, CustomerKey("0300-1234567"), c.Key)
	assert.Equal(t, "Ayesha", c.Name)
	assert.True(t, c.TotalAmount.Equal(d("1500")), "TotalAmount = %s", c.TotalAmount)
	assert.True(t, c.TotalPaid.Equal(d("200")), "TotalPaid = %s", c.TotalPaid)
	assert.True(t, c.TotalReturnCredits.Equal(d("100")), "TotalReturnCredits = %s", c.TotalReturnCredits)
	assert.True(t, c.TotalOutstanding.Equal(d("1200")), "TotalOutstanding = %s", c.TotalOutstanding)
	assert.Equal(t, StatusPartial, c.PaymentStatus)
	assert.Equal(t, day0, c.OldestBillDate)
	assert.Equal(t, 40, c.DaysOverdue)
	assert.Len(t, c.Bills, 2)
}

func TestConsolidate_CashRefundDoesNotReduceBalance(t *testing.T) {
	now := time.Now().UTC()
	bills := []model.Bill{
		bill("0301-0000001", "Hassan", "500", "0", StatusUnpaid, now.AddDate(0, 0, -1)),
	}
	credits := []model.ReturnCredit{
		credit("0301-0000001", "Hassan", "200", RefundCash, now),
	}

	out := Consolidate(bills, credits, now)
	require.Len(t, out, 1)
	assert.True(t, out[0].TotalReturnCredits.IsZero())
	assert.True(t, out[0].TotalOutstanding.Equal(d("500")))
}

func TestConsolidate_FullReturnBillsExcluded(t *testing.T) {
	now := time.Now().UTC()
	bills := []model.Bill{
		bill("0301-0000002", "Sana", "300", "0", StatusFullReturn, now.AddDate(0, 0, -9)),
		bill("0301-0000002", "Sana", "150", "0", StatusUnpaid, now.AddDate(0, 0, -2)),
	}

	out := Consolidate(bills, nil, now)
	require.Len(t, out, 1)
	c := out[0]
	assert.Len(t, c.Bills, 1)
	assert.True(t, c.TotalAmount.Equal(d("150")))
	// The voided bill must not drag OldestBillDate back either.
	assert.Equal(t, now.AddDate(0, 0, -2), c.OldestBillDate)
}

func TestConsolidate_BlankPhoneGroupsUnderUnknown(t *testing.T) {
	now := time.Now().UTC()
	bills := []model.Bill{
		bill("", "Walk-in", "80", "0", StatusUnpaid, now),
		bill("   ", "Walk-in 2", "20", "0", StatusUnpaid, now),
	}

	out := Consolidate(bills, nil, now)
	require.Len(t, out, 1)
	assert.Equal(t, UnknownCustomerKey, out[0].Key)
	assert.True(t, out[0].TotalAmount.Equal(d("100")))
}

func TestConsolidate_CreditsOnlyCustomerGetsNegativeOutstanding(t *testing.T) {
	now := time.Now().UTC()
	credits := []model.ReturnCredit{
		credit("0302-0000003", "Tariq", "250", RefundCredited, now),
	}

	out := Consolidate(nil, credits, now)
	require.Len(t, out, 1)
	c := out[0]
	assert.True(t, c.TotalOutstanding.Equal(d("-250")), "negative balance must stay visible, got %s", c.TotalOutstanding)
	assert.Equal(t, StatusPaid, c.PaymentStatus)
	assert.Equal(t, 0, c.DaysOverdue)
}

func TestConsolidate_OverCreditNotClamped(t *testing.T) {
	now := time.Now().UTC()
	bills := []model.Bill{
		bill("0302-0000004", "Zara", "100", "100", StatusPaid, now.AddDate(0, 0, -3)),
	}
	credits := []model.ReturnCredit{
		credit("0302-0000004", "Zara", "40", RefundCredited, now),
	}

	out := Consolidate(bills, credits, now)
	require.Len(t, out, 1)
	assert.True(t, out[0].TotalOutstanding.Equal(d("-40")))
	assert.Equal(t, StatusPaid, out[0].PaymentStatus)
}

func TestConsolidate_RepeatedCallsIdentical(t *testing.T) {
	now := time.Now().UTC()
	bills := []model.Bill{
		bill("0303-1", "A", "10.555", "1.111", StatusPartial, now.AddDate(0, 0, -5)),
		bill("0303-2", "B", "99.99", "0", StatusUnpaid, now.AddDate(0, 0, -4)),
		bill("0303-3", "C", "7", "7", StatusPaid, now.AddDate(0, 0, -3)),
	}
	credits := []model.ReturnCredit{
		credit("0303-2", "B", "9.99", RefundCredited, now),
	}

	first := Consolidate(bills, credits, now)
	for i := 0; i < 10; i++ {
		again := Consolidate(bills, credits, now)
		require.Equal(t, first, again, "run %d diverged", i)
	}
}

func TestConsolidate_RoundingAppliedPerStep(t *testing.T) {
	now := time.Now().UTC()
	// Three bills of 0.333 each: per-step rounding gives 0.33*3 = 0.99,
	// not round(0.999) = 1.00.
	bills := []model.Bill{
		bill("0304-1", "R", "0.333", "0", StatusUnpaid, now),
		bill("0304-1", "R", "0.333", "0", StatusUnpaid, now),
		bill("0304-1", "R", "0.333", "0", StatusUnpaid, now),
	}

	out := Consolidate(bills, nil, now)
	require.Len(t, out, 1)
	assert.True(t, out[0].TotalAmount.Equal(d("0.99")), "got %s", out[0].TotalAmount)
}

func TestConsolidate_StatusClassification(t *testing.T) {
	now := time.Now().UTC()

	cases := []struct {
		name   string
		total  string
		paid   string
		expect string
	}{
		{"nothing paid", "100", "0", StatusUnpaid},
		{"partially paid", "100", "40", StatusPartial},
		{"exactly settled", "100", "100", StatusPaid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bills := []model.Bill{bill("0305-"+tc.name, "X", tc.total, tc.paid, StatusUnpaid, now)}
			out := Consolidate(bills, nil, now)
			require.Len(t, out, 1)
			assert.Equal(t, tc.expect, out[0].PaymentStatus)
		})
	}
}
