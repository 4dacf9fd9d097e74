// Package memory holds the agent's two memory tiers: the in-process
// short-term conversation buffer and the file-backed long-term note store.
// The split is deliberate: short-term history does not survive a restart,
// the note files do.
package memory

import (
	"sync"

	"github.com/openclaw/openclaw/internal/llm"
)

// DefaultHistoryLimit is the per-context message cap.
const DefaultHistoryLimit = 50

// ShortTerm is the bounded per-conversation message buffer. Each context id
// keeps at most the limit's most recent entries; older entries are evicted
// in insertion order. Contexts never block each other.
type ShortTerm struct {
	limit    int
	mu       sync.Mutex
	contexts map[string]*contextBuffer
}

type contextBuffer struct {
	mu       sync.Mutex
	messages []llm.Message
}

func NewShortTerm(limit int) *ShortTerm {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &ShortTerm{
		limit:    limit,
		contexts: make(map[string]*contextBuffer),
	}
}

func (s *ShortTerm) buffer(contextID string) *contextBuffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf, ok := s.contexts[contextID]
	if !ok {
		buf = &contextBuffer{}
		s.contexts[contextID] = buf
	}
	return buf
}

// Add appends a message to the context's history, evicting the oldest
// entries beyond the cap. Additions to the same context are serialized.
func (s *ShortTerm) Add(contextID, role, content string) {
	buf := s.buffer(contextID)
	buf.mu.Lock()
	defer buf.mu.Unlock()

	buf.messages = append(buf.messages, llm.Message{Role: role, Content: content})
	if len(buf.messages) > s.limit {
		trimmed := make([]llm.Message, s.limit)
		copy(trimmed, buf.messages[len(buf.messages)-s.limit:])
		buf.messages = trimmed
	}
}

// History returns the context's messages in insertion order. The returned
// slice is a copy; callers may not mutate the buffer through it.
func (s *ShortTerm) History(contextID string) []llm.Message {
	s.mu.Lock()
	buf, ok := s.contexts[contextID]
	s.mu.Unlock()
	if !ok {
		return nil
	}

	buf.mu.Lock()
	defer buf.mu.Unlock()
	out := make([]llm.Message, len(buf.messages))
	copy(out, buf.messages)
	return out
}

// Clear drops all history for a context.
func (s *ShortTerm) Clear(contextID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.contexts, contextID)
}
