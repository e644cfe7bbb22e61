package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"khatapos/internal/infra"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ReminderJobPayload carries everything the worker needs to compose the
// reminder email, so processing never touches the database.
type ReminderJobPayload struct {
	CustomerName string          `json:"customer_name"`
	Phone        string          `json:"phone"`
	Outstanding  decimal.Decimal `json:"outstanding"`
	DaysOverdue  int             `json:"days_overdue"`
	OldestBill   string          `json:"oldest_bill"` // ISO 8601
}

// ReminderWorker sends overdue-balance notifications to the shop owner's
// inbox. All SMTP calls go through the circuit breaker so a downed relay
// fails fast instead of stalling the pool.
type ReminderWorker struct {
	mailer *infra.Mailer
	cb     *infra.CircuitBreaker
	to     string
}

func NewReminderWorker(mailer *infra.Mailer, cb *infra.CircuitBreaker, to string) *ReminderWorker {
	return &ReminderWorker{mailer: mailer, cb: cb, to: to}
}

// Process handles a single reminder job. A returned error triggers the
// pool's retry/DLQ logic.
func (w *ReminderWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ReminderJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		// Malformed payload will never succeed, log and drop.
		log.Error().Err(err).Msg("reminder: invalid payload, dropping")
		return nil
	}
	if w.to == "" {
		log.Warn().Msg("reminder: no recipient configured, dropping")
		return nil
	}

	subject := fmt.Sprintf("Overdue balance: %s (%d days)", payload.CustomerName, payload.DaysOverdue)
	body := fmt.Sprintf(
		"Customer %s (%s) has an outstanding balance of %s.\n"+
			"Oldest unpaid bill: %s (%d days overdue).\n\n"+
			"Consider following up for payment collection.\n",
		payload.CustomerName, payload.Phone,
		payload.Outstanding.StringFixed(2),
		payload.OldestBill, payload.DaysOverdue,
	)

	err := w.cb.Execute(func() error {
		return w.mailer.SendReminder(w.to, subject, body)
	})
	if err != nil {
		log.Error().
			Str("phone", payload.Phone).
			Err(err).
			Msg("reminder: send failed")
		return err
	}

	log.Info().
		Str("phone", payload.Phone).
		Str("outstanding", payload.Outstanding.StringFixed(2)).
		Msg("reminder: sent")
	return nil
}
