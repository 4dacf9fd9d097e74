// Package reminder dispatches future notifications back to the channel a
// request came from. Delivery is best effort: a failed send is logged, not
// retried.
package reminder

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openclaw/openclaw/internal/channel"
	"github.com/openclaw/openclaw/internal/scheduler"
)

// Engine schedules reminder notifications on the generic task scheduler and
// routes fired ones through the channel adapter registry.
type Engine struct {
	sched    *scheduler.Scheduler
	adapters *channel.AdapterRegistry
	store    *Store
}

func NewEngine(sched *scheduler.Scheduler, adapters *channel.AdapterRegistry, store *Store) *Engine {
	return &Engine{sched: sched, adapters: adapters, store: store}
}

func newID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Create schedules a one-shot reminder and returns its id.
func (e *Engine) Create(userID, channelID, threadID string, source channel.Type, content string, remindAt time.Time) (string, error) {
	id := newID("reminder-")
	slog.Info("creating reminder", "id", id, "user", userID, "at", remindAt)

	rec := Record{
		ID: id, UserID: userID, ChannelID: channelID, ThreadID: threadID,
		Source: source, Content: content, RemindAt: remindAt, CreatedAt: time.Now(),
	}
	if err := e.store.Put(rec); err != nil {
		return "", err
	}

	e.sched.ScheduleOnce(id, func() { e.fireOnce(rec) }, remindAt)
	return id, nil
}

// CreateCron schedules a recurring reminder and returns its id.
func (e *Engine) CreateCron(userID, channelID, threadID string, source channel.Type, content, cronExpr string) (string, error) {
	id := newID("reminder-cron-")
	slog.Info("creating cron reminder", "id", id, "user", userID, "cron", cronExpr)

	rec := Record{
		ID: id, UserID: userID, ChannelID: channelID, ThreadID: threadID,
		Source: source, Content: content, CronExpr: cronExpr, CreatedAt: time.Now(),
	}
	if err := e.store.Put(rec); err != nil {
		return "", err
	}

	if err := e.sched.ScheduleRecurring(id, func() { e.notify(rec) }, cronExpr); err != nil {
		_ = e.store.Delete(id)
		return "", fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}
	return id, nil
}

// Cancel removes a reminder from the scheduler and the store.
func (e *Engine) Cancel(id string) {
	e.sched.Cancel(id)
	if err := e.store.Delete(id); err != nil {
		slog.Warn("failed to delete cancelled reminder", "id", id, "error", err)
	}
}

// Start re-arms persisted reminders after a restart. Past-due one-shots are
// dropped: a stale notification is worse than none.
func (e *Engine) Start() error {
	records, err := e.store.List()
	if err != nil {
		return fmt.Errorf("load persisted reminders: %w", err)
	}

	rearmed := 0
	for _, rec := range records {
		rec := rec
		if rec.Recurring() {
			if err := e.sched.ScheduleRecurring(rec.ID, func() { e.notify(rec) }, rec.CronExpr); err != nil {
				slog.Error("failed to re-arm cron reminder", "id", rec.ID, "error", err)
				continue
			}
			rearmed++
			continue
		}
		if rec.RemindAt.Before(time.Now()) {
			slog.Info("dropping past-due reminder", "id", rec.ID, "was_due", rec.RemindAt)
			_ = e.store.Delete(rec.ID)
			continue
		}
		e.sched.ScheduleOnce(rec.ID, func() { e.fireOnce(rec) }, rec.RemindAt)
		rearmed++
	}

	if rearmed > 0 {
		slog.Info("re-armed persisted reminders", "count", rearmed)
	}
	return nil
}

func (e *Engine) fireOnce(rec Record) {
	e.notify(rec)
	if err := e.store.Delete(rec.ID); err != nil {
		slog.Warn("failed to delete fired reminder", "id", rec.ID, "error", err)
	}
}

func (e *Engine) notify(rec Record) {
	slog.Info("firing reminder", "id", rec.ID, "channel", rec.ChannelID)

	adapter, ok := e.adapters.Get(rec.Source)
	if !ok {
		slog.Error("no channel adapter for reminder", "id", rec.ID, "source", rec.Source)
		return
	}

	msg, err := channel.NewOutbound(rec.ChannelID, rec.ThreadID, "🔔 **Reminder:** "+rec.Content, rec.Source, nil)
	if err != nil {
		slog.Error("failed to build reminder notification", "id", rec.ID, "error", err)
		return
	}
	if err := adapter.Send(msg); err != nil {
		slog.Error("failed to send reminder notification", "id", rec.ID, "error", err)
	}
}
