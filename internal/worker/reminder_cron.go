package worker

import (
	"context"
	"time"

	"khatapos/internal/ledger"
	"khatapos/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// reminderSentPrefix marks customers already reminded this cycle.
const reminderSentPrefix = "reminder:sent:"

// ReminderCronConfig wires the periodic overdue-balance scan.
type ReminderCronConfig struct {
	Bills      repository.BillRepository
	Credits    repository.ReturnCreditRepository
	Dispatcher *Dispatcher
	RDB        *redis.Client
	MinDays    int           // minimum days overdue before a reminder fires
	Interval   time.Duration // scan period
	DedupeTTL  time.Duration // how long a sent marker suppresses repeats
}

// StartReminderCron runs the overdue scan on a ticker until ctx is done.
// Each pass consolidates the ledger, picks customers whose oldest open
// bill is at least MinDays overdue, and enqueues one reminder job per
// customer. A Redis SETNX marker keeps repeated scans from re-mailing
// the same customer within DedupeTTL.
func StartReminderCron(ctx context.Context, cfg ReminderCronConfig) {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.DedupeTTL <= 0 {
		cfg.DedupeTTL = 20 * time.Hour
	}

	go func() {
		log.Info().
			Dur("interval", cfg.Interval).
			Int("min_days", cfg.MinDays).
			Msg("reminder cron started")

		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		// First pass shortly after boot so restarts don't skip a day.
		timer := time.NewTimer(time.Minute)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("reminder cron shutting down")
				return
			case <-timer.C:
				scanOverdue(ctx, cfg)
			case <-ticker.C:
				scanOverdue(ctx, cfg)
			}
		}
	}()
}

func scanOverdue(ctx context.Context, cfg ReminderCronConfig) {
	bills, err := cfg.Bills.ListAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("reminder cron: failed to list bills")
		return
	}
	credits, err := cfg.Credits.ListAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("reminder cron: failed to list return credits")
		return
	}

	customers := ledger.Consolidate(bills, credits, time.Now().UTC())

	enqueued := 0
	for _, c := range customers {
		if c.TotalOutstanding.Sign() <= 0 || c.DaysOverdue < cfg.MinDays {
			continue
		}

		// SETNX dedupe: only the first scan within the TTL window enqueues.
		key := reminderSentPrefix + string(c.Key)
		ok, err := cfg.RDB.SetNX(ctx, key, "1", cfg.DedupeTTL).Result()
		if err != nil {
			log.Error().Err(err).Str("customer", string(c.Key)).Msg("reminder cron: dedupe check failed")
			continue
		}
		if !ok {
			continue
		}

		payload := ReminderJobPayload{
			CustomerName: c.Name,
			Phone:        c.Phone,
			Outstanding:  c.TotalOutstanding,
			DaysOverdue:  c.DaysOverdue,
			OldestBill:   c.OldestBillDate.UTC().Format(time.RFC3339),
		}
		if err := cfg.Dispatcher.EnqueueReminder(ctx, payload); err != nil {
			log.Error().Err(err).Str("customer", string(c.Key)).Msg("reminder cron: enqueue failed")
			continue
		}
		enqueued++
	}

	if enqueued > 0 {
		log.Info().Int("count", enqueued).Msg("reminder cron: reminders enqueued")
	}
}
