package tool

import (
	"context"

	"github.com/openclaw/openclaw/internal/channel"
)

type contextKey string

const runInfoKey contextKey = "runInfo"

// RunInfo carries the identity of the request a reasoning cycle serves:
// which channel, thread, and user. Tools that need "who/where" (the
// reminder tool) read it from the context instead of trusting
// model-supplied metadata, which proved unreliable.
type RunInfo struct {
	ChannelID string
	ThreadID  string
	UserID    string
	Source    channel.Type
}

// WithRunInfo attaches RunInfo to ctx. The orchestrator sets it immediately
// before each reasoning cycle; the value's scope ends with the context's.
func WithRunInfo(ctx context.Context, info RunInfo) context.Context {
	return context.WithValue(ctx, runInfoKey, info)
}

// RunInfoFromContext returns the RunInfo if present.
func RunInfoFromContext(ctx context.Context) (RunInfo, bool) {
	info, ok := ctx.Value(runInfoKey).(RunInfo)
	return info, ok
}
