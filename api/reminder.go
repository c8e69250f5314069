/*
reminder.go - Scheduled presence reminders

PURPOSE:
  Runs a cron job that nudges active users who have no explicit entry for
  the next working day. Weekends and holidays are skipped when picking
  that day. Delivery goes through the Notifier interface so transports
  can be swapped without touching the job.

SEE ALSO:
  - notify/notify.go: Notifier interface and the log-backed default
  - config/config.go: ReminderCron expression
*/
package api

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/warp/presence-engine/notify"
	"github.com/warp/presence-engine/presence"
	"github.com/warp/presence-engine/store/sqlite"
)

// Reminder owns the cron schedule and the notification fan-out.
type Reminder struct {
	store    *sqlite.Store
	notifier notify.Notifier
	cron     *cron.Cron

	// now returns today's date; overridable for tests.
	now func() string
}

// NewReminder creates a reminder job; call Start to schedule it.
func NewReminder(store *sqlite.Store, notifier notify.Notifier) *Reminder {
	return &Reminder{
		store:    store,
		notifier: notifier,
		cron:     cron.New(),
		now:      presence.Today,
	}
}

// Start registers the job under the given cron spec and starts the
// scheduler. An empty spec disables reminders.
func (j *Reminder) Start(spec string) error {
	if spec == "" {
		return nil
	}
	if _, err := j.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := j.Run(ctx); err != nil {
			log.Printf("reminder run failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid reminder cron spec %q: %w", spec, err)
	}
	j.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for an in-flight run to finish.
func (j *Reminder) Stop() {
	<-j.cron.Stop().Done()
}

// Run executes one reminder pass: it picks the next working day and
// notifies every active user without an entry for it.
func (j *Reminder) Run(ctx context.Context) error {
	target, err := j.nextWorkday(ctx)
	if err != nil {
		return err
	}

	users, err := j.store.FindActive(ctx)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}

	for _, u := range users {
		entries, err := j.store.FindRange(ctx, u.ID, target, target)
		if err != nil {
			return fmt.Errorf("load entries for %s: %w", u.ID, err)
		}
		if len(entries) > 0 {
			continue
		}
		err = j.notifier.Notify(ctx, notify.Notification{
			UserID: u.ID,
			Title:  "Plan your day",
			Body:   fmt.Sprintf("No status set for %s yet. It defaults to WFH unless you pick office or leave.", target),
		})
		if err != nil {
			log.Printf("reminder to %s failed: %v", u.ID, err)
		}
	}
	return nil
}

// nextWorkday returns the first date after today that is neither a weekend
// nor a holiday.
func (j *Reminder) nextWorkday(ctx context.Context) (string, error) {
	date := j.now()
	for i := 0; i < 14; i++ {
		date = presence.AddDays(date, 1)
		if presence.IsWeekend(date) {
			continue
		}
		holidays, err := j.store.FindInRange(ctx, date, date)
		if err != nil {
			return "", fmt.Errorf("load holidays: %w", err)
		}
		if len(holidays) == 0 {
			return date, nil
		}
	}
	// Two straight weeks of weekends and holidays; fall back to tomorrow.
	return presence.AddDays(j.now(), 1), nil
}
