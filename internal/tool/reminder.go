package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/openclaw/openclaw/internal/reminder"
)

// RegisterReminderTools wires the reminder capabilities. The model supplies
// only what it uniquely knows — what to remind about and when; channel and
// user identity come from the request's RunInfo.
func RegisterReminderTools(r *Registry, engine *reminder.Engine) {
	r.Register(&setReminderTool{engine: engine})
	r.Register(&setCronReminderTool{engine: engine})
	r.Register(&cancelReminderTool{engine: engine})
}

type setReminderTool struct {
	engine *reminder.Engine
}

func (t *setReminderTool) Name() string { return "set_reminder" }

func (t *setReminderTool) Description() string {
	return "Set a one-time reminder for the current user. " +
		"'content' is what to remind them about. " +
		"'remind_at' MUST be a full ISO-8601 datetime WITH a timezone offset (e.g. 2026-02-20T22:00:00-06:00). " +
		"Use the 'Current Time' from the system context as the reference for relative times like 'in 5 minutes'. " +
		"The channel, thread, and user details are provided automatically."
}

func (t *setReminderTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"content": {"type": "string", "description": "What to remind the user about"},
			"remind_at": {"type": "string", "description": "ISO-8601 datetime with timezone offset, e.g. 2026-02-20T22:00:00-06:00"}
		},
		"required": ["content", "remind_at"]
	}`)
}

func (t *setReminderTool) Execute(ctx context.Context, params json.RawMessage) (string, error) {
	var p struct {
		Content  string `json:"content"`
		RemindAt string `json:"remind_at"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}

	info, ok := RunInfoFromContext(ctx)
	if !ok {
		slog.Error("run info missing, cannot dispatch reminder notification")
		return "Error: Reminder context is not available. Please try again.", nil
	}

	remindAt, err := time.Parse(time.RFC3339, p.RemindAt)
	if err != nil {
		slog.Warn("failed to parse reminder time", "remind_at", p.RemindAt, "error", err)
		return fmt.Sprintf("Error: Invalid date format '%s'. Please use ISO-8601 with timezone offset, e.g. 2026-02-20T22:00:00-06:00.", p.RemindAt), nil
	}

	slog.Info("setting reminder", "user", info.UserID, "channel", info.ChannelID, "at", p.RemindAt)

	id, err := t.engine.Create(info.UserID, info.ChannelID, info.ThreadID, info.Source, p.Content, remindAt)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Reminder set successfully! I'll notify you at %s. (ID: %s)", p.RemindAt, id), nil
}

type setCronReminderTool struct {
	engine *reminder.Engine
}

func (t *setCronReminderTool) Name() string { return "set_cron_reminder" }

func (t *setCronReminderTool) Description() string {
	return "Set a recurring reminder using a cron schedule. " +
		"'content' is what to remind them about. " +
		"'cron_expression' is a 6-part cron expression (includes a leading seconds field), " +
		"e.g. '0 0 9 * * MON' for every Monday 9am. " +
		"The channel, thread, and user details are provided automatically."
}

func (t *setCronReminderTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"content": {"type": "string", "description": "What to remind the user about"},
			"cron_expression": {"type": "string", "description": "6-part cron expression with seconds, e.g. '0 0 9 * * MON'"}
		},
		"required": ["content", "cron_expression"]
	}`)
}

func (t *setCronReminderTool) Execute(ctx context.Context, params json.RawMessage) (string, error) {
	var p struct {
		Content  string `json:"content"`
		CronExpr string `json:"cron_expression"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}

	info, ok := RunInfoFromContext(ctx)
	if !ok {
		slog.Error("run info missing, cannot dispatch reminder notification")
		return "Error: Reminder context is not available. Please try again.", nil
	}

	slog.Info("setting cron reminder", "user", info.UserID, "channel", info.ChannelID, "cron", p.CronExpr)

	id, err := t.engine.CreateCron(info.UserID, info.ChannelID, info.ThreadID, info.Source, p.Content, p.CronExpr)
	if err != nil {
		return fmt.Sprintf("Error: %s", err), nil
	}
	return fmt.Sprintf("✅ Recurring reminder set! Pattern: %s. (ID: %s)", p.CronExpr, id), nil
}

type cancelReminderTool struct {
	engine *reminder.Engine
}

func (t *cancelReminderTool) Name() string { return "cancel_reminder" }

func (t *cancelReminderTool) Description() string {
	return "Cancel a previously set reminder by its id."
}

func (t *cancelReminderTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"reminder_id": {"type": "string", "description": "The reminder id returned when it was created"}
		},
		"required": ["reminder_id"]
	}`)
}

func (t *cancelReminderTool) Execute(_ context.Context, params json.RawMessage) (string, error) {
	var p struct {
		ReminderID string `json:"reminder_id"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if p.ReminderID == "" {
		return "", fmt.Errorf("reminder_id is required")
	}
	t.engine.Cancel(p.ReminderID)
	return fmt.Sprintf("Reminder %s cancelled.", p.ReminderID), nil
}
