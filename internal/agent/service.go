package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openclaw/openclaw/internal/channel"
	"github.com/openclaw/openclaw/internal/llm"
	"github.com/openclaw/openclaw/internal/memory"
	"github.com/openclaw/openclaw/internal/tool"
)

// FallbackReply is returned whenever the loop produces no usable text.
// The user never sees a raw error or an empty reply.
const FallbackReply = "I've processed your request, but I don't have a specific response to provide at the moment. Is there anything else I can help with?"

// Service is the outermost boundary of the agent core. Process always
// returns a sendable reply; nothing below it may leak a panic or error to
// the channel adapter.
type Service struct {
	assembler *Assembler
	planner   *Planner
	shortTerm *memory.ShortTerm
	notes     *memory.NoteStore
}

func NewService(assembler *Assembler, planner *Planner, shortTerm *memory.ShortTerm, notes *memory.NoteStore) *Service {
	return &Service{
		assembler: assembler,
		planner:   planner,
		shortTerm: shortTerm,
		notes:     notes,
	}
}

// Process handles one inbound message end to end: assemble context, run the
// reasoning loop with the request identity attached, record the exchange,
// and build the outbound reply.
func (s *Service) Process(ctx context.Context, msg channel.Inbound) channel.Outbound {
	actx := s.assembler.Assemble(ctx, msg)

	ctx = tool.WithRunInfo(ctx, tool.RunInfo{
		ChannelID: msg.ChannelID,
		ThreadID:  msg.ThreadID,
		UserID:    msg.UserID,
		Source:    msg.Source,
	})

	text, err := s.planner.Plan(ctx, actx)
	if err != nil {
		slog.Error("reasoning loop failed", "context", msg.ContextID(), "error", err)
		text = ""
	}
	if strings.TrimSpace(text) == "" {
		text = FallbackReply
	}

	contextID := msg.ContextID()
	s.shortTerm.Add(contextID, llm.RoleUser, msg.Content)
	s.shortTerm.Add(contextID, llm.RoleAssistant, text)

	if err := s.notes.LogEvent(fmt.Sprintf("[%s] %s -> %s", msg.UserID, truncate(msg.Content, 80), truncate(text, 80))); err != nil {
		slog.Warn("failed to write daily log", "error", err)
	}

	reply, err := channel.TextReply(msg, text)
	if err != nil {
		slog.Error("failed to build reply", "error", err)
		reply, _ = channel.TextReply(msg, FallbackReply)
	}
	return reply
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
