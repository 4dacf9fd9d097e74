package tool

import (
	"context"
	"encoding/json"
	"time"
)

// DatetimeTool reports the current wall-clock time with its timezone offset,
// so the model can resolve relative expressions like "in 5 minutes" into
// absolute timestamps for set_reminder.
type DatetimeTool struct {
	// Now is swappable for tests; nil means time.Now.
	Now func() time.Time
}

func (t *DatetimeTool) Name() string { return "get_current_datetime" }

func (t *DatetimeTool) Description() string {
	return "Get the current date and time as an ISO-8601 string with timezone offset."
}

func (t *DatetimeTool) Parameters() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {}}`)
}

func (t *DatetimeTool) Execute(_ context.Context, _ json.RawMessage) (string, error) {
	now := time.Now()
	if t.Now != nil {
		now = t.Now()
	}
	return now.Format("2006-01-02T15:04:05-07:00"), nil
}
