package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/openclaw/internal/channel"
)

func newTestRouter(a *Adapter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/webhook", a.ginVerify)
	engine.POST("/webhook", a.ginReceive)
	return engine
}

type sink struct {
	mu   sync.Mutex
	msgs []channel.Inbound
}

func (s *sink) handler(_ context.Context, msg channel.Inbound) channel.Outbound {
	s.mu.Lock()
	s.msgs = append(s.msgs, msg)
	s.mu.Unlock()
	reply, _ := channel.TextReply(msg, "ok")
	return reply
}

func (s *sink) received() []channel.Inbound {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]channel.Inbound(nil), s.msgs...)
}

func newTestAdapter(t *testing.T) (*Adapter, *sink) {
	t.Helper()
	adapters := channel.NewAdapterRegistry()
	s := &sink{}
	dispatcher := channel.NewDispatcher(s.handler, adapters, 2)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	dispatcher.Start(ctx)

	dedup := channel.NewDedup(time.Minute)
	t.Cleanup(dedup.Close)

	a := New(Options{VerifyToken: "secret"}, dispatcher, dedup)
	adapters.Register(&nullAdapter{})
	return a, s
}

type nullAdapter struct{}

func (*nullAdapter) Type() channel.Type { return channel.TypeWhatsApp }

func (*nullAdapter) Send(_ channel.Outbound) error { return nil }

func TestVerificationHandshake(t *testing.T) {
	a, _ := newTestAdapter(t)
	router := newTestRouter(a)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=secret&hub.challenge=12345", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "12345", w.Body.String())
}

func TestVerificationRejectsBadToken(t *testing.T) {
	a, _ := newTestAdapter(t)
	router := newTestRouter(a)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

const eventPayload = `{
	"entry": [{
		"changes": [{
			"value": {
				"messages": [{
					"id": "wamid.1",
					"from": "15551234567",
					"timestamp": "1767220200",
					"type": "text",
					"text": {"body": "hello there"}
				}]
			}
		}]
	}]
}`

func TestReceiveAcksImmediatelyAndEnqueues(t *testing.T) {
	a, s := newTestAdapter(t)
	router := newTestRouter(a)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(eventPayload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "EVENT_RECEIVED", w.Body.String())

	require.Eventually(t, func() bool {
		return len(s.received()) == 1
	}, time.Second, 10*time.Millisecond)

	got := s.received()[0]
	assert.Equal(t, "15551234567", got.ChannelID)
	assert.Equal(t, "15551234567", got.UserID)
	assert.Equal(t, "hello there", got.Content)
	assert.Equal(t, channel.TypeWhatsApp, got.Source)
}

func TestReceiveDeduplicatesRetries(t *testing.T) {
	a, s := newTestAdapter(t)
	router := newTestRouter(a)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(eventPayload))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		assert.Equal(t, "EVENT_RECEIVED", w.Body.String())
	}

	require.Eventually(t, func() bool {
		return len(s.received()) >= 1
	}, time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, s.received(), 1)
}

func TestReceiveMalformedPayloadStillAcks(t *testing.T) {
	a, _ := newTestAdapter(t)
	router := newTestRouter(a)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "EVENT_RECEIVED", w.Body.String())
}
