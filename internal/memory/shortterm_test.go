package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openclaw/openclaw/internal/llm"
)

func TestShortTermKeepsOrder(t *testing.T) {
	s := NewShortTerm(10)
	s.Add("ctx", llm.RoleUser, "first")
	s.Add("ctx", llm.RoleAssistant, "second")
	s.Add("ctx", llm.RoleUser, "third")

	h := s.History("ctx")
	assert.Len(t, h, 3)
	assert.Equal(t, "first", h[0].Content)
	assert.Equal(t, "third", h[2].Content)
}

func TestShortTermEvictsOldestBeyondLimit(t *testing.T) {
	s := NewShortTerm(5)
	for i := 0; i < 12; i++ {
		s.Add("ctx", llm.RoleUser, fmt.Sprintf("msg-%d", i))
	}

	h := s.History("ctx")
	assert.Len(t, h, 5)
	assert.Equal(t, "msg-7", h[0].Content)
	assert.Equal(t, "msg-11", h[4].Content)
}

func TestShortTermContextsAreIndependent(t *testing.T) {
	s := NewShortTerm(10)
	s.Add("a", llm.RoleUser, "in a")
	s.Add("b", llm.RoleUser, "in b")

	assert.Len(t, s.History("a"), 1)
	assert.Len(t, s.History("b"), 1)
	assert.Equal(t, "in a", s.History("a")[0].Content)

	s.Clear("a")
	assert.Empty(t, s.History("a"))
	assert.Len(t, s.History("b"), 1)
}

func TestShortTermHistoryReturnsCopy(t *testing.T) {
	s := NewShortTerm(10)
	s.Add("ctx", llm.RoleUser, "original")

	h := s.History("ctx")
	h[0].Content = "mutated"

	assert.Equal(t, "original", s.History("ctx")[0].Content)
}

func TestShortTermConcurrentAdds(t *testing.T) {
	s := NewShortTerm(100)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				s.Add("ctx", llm.RoleUser, fmt.Sprintf("w%d-%d", n, j))
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.History("ctx"), 100)
}
