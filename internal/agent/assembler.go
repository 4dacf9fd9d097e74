package agent

import (
	"context"
	"log/slog"

	"github.com/openclaw/openclaw/internal/channel"
	"github.com/openclaw/openclaw/internal/memory"
	"github.com/openclaw/openclaw/internal/rag"
	"github.com/openclaw/openclaw/internal/tool"
)

// Assembler gathers context from every store before a reasoning cycle.
// Each step degrades independently: a failed store contributes its empty
// or default value and the request continues with less context.
type Assembler struct {
	shortTerm *memory.ShortTerm
	notes     *memory.NoteStore
	profiles  *memory.ProfileStore
	retriever rag.Retriever
	tools     *tool.Registry

	ragEnabled bool
}

func NewAssembler(shortTerm *memory.ShortTerm, notes *memory.NoteStore, profiles *memory.ProfileStore, retriever rag.Retriever, tools *tool.Registry, ragEnabled bool) *Assembler {
	return &Assembler{
		shortTerm:  shortTerm,
		notes:      notes,
		profiles:   profiles,
		retriever:  retriever,
		tools:      tools,
		ragEnabled: ragEnabled,
	}
}

// Assemble builds the full Context for one inbound message. It never fails:
// every degraded step is logged and replaced with its zero value.
func (a *Assembler) Assemble(ctx context.Context, msg channel.Inbound) Context {
	history := a.shortTerm.History(msg.ContextID())

	profile, err := a.profiles.Profile()
	if err != nil {
		slog.Warn("profile unavailable, using defaults", "error", err)
	}

	memories := a.notes.RelevantMemories()

	var docs []rag.Document
	if a.ragEnabled && a.retriever != nil {
		docs, err = a.retriever.FindRelevantDocuments(ctx, msg.Content)
		if err != nil {
			slog.Warn("document retrieval failed, continuing without", "error", err)
			docs = nil
		}
	}

	return Context{
		Message:   msg,
		History:   history,
		Memory: memory.Snapshot{
			RelevantMemories: memories,
			Preferences:      profile.Preferences,
			SoulDirective:    profile.Personality,
			ToolsContext:     "",
		},
		Documents: docs,
		Profile:   profile,
		ToolDefs:  a.tools.Defs(),
	}
}
