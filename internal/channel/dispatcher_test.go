package channel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureAdapter struct {
	typ Type

	mu   sync.Mutex
	sent []Outbound
}

func (a *captureAdapter) Type() Type { return a.typ }

func (a *captureAdapter) Send(out Outbound) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sent = append(a.sent, out)
	return nil
}

func (a *captureAdapter) Sent() []Outbound {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Outbound(nil), a.sent...)
}

func TestDispatcherRoutesReplyToSourceAdapter(t *testing.T) {
	adapters := NewAdapterRegistry()
	capture := &captureAdapter{typ: TypeConsole}
	adapters.Register(capture)

	handler := func(_ context.Context, msg Inbound) Outbound {
		reply, _ := TextReply(msg, "echo: "+msg.Content)
		return reply
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := NewDispatcher(handler, adapters, 2)
	d.Start(ctx)

	msg, err := NewInbound("C1", "", "U1", "ping", TypeConsole, time.Now(), nil)
	require.NoError(t, err)
	d.Enqueue(msg)

	assert.Eventually(t, func() bool {
		return len(capture.Sent()) == 1
	}, time.Second, 10*time.Millisecond)

	sent := capture.Sent()
	assert.Equal(t, "echo: ping", sent[0].Content)
	assert.Equal(t, "C1", sent[0].ChannelID)
}

func TestDispatcherMissingAdapterDoesNotBlockWorkers(t *testing.T) {
	adapters := NewAdapterRegistry()
	capture := &captureAdapter{typ: TypeConsole}
	adapters.Register(capture)

	handler := func(_ context.Context, msg Inbound) Outbound {
		reply, _ := TextReply(msg, "ok")
		return reply
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := NewDispatcher(handler, adapters, 1)
	d.Start(ctx)

	// No adapter registered for whatsapp; the worker logs and moves on.
	orphan, err := NewInbound("C1", "", "U1", "lost", TypeWhatsApp, time.Now(), nil)
	require.NoError(t, err)
	d.Enqueue(orphan)

	routed, err := NewInbound("C2", "", "U1", "found", TypeConsole, time.Now(), nil)
	require.NoError(t, err)
	d.Enqueue(routed)

	assert.Eventually(t, func() bool {
		return len(capture.Sent()) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestDispatcherWaitReturnsAfterCancel(t *testing.T) {
	adapters := NewAdapterRegistry()
	handler := func(_ context.Context, msg Inbound) Outbound {
		reply, _ := TextReply(msg, "ok")
		return reply
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := NewDispatcher(handler, adapters, 2)
	d.Start(ctx)

	cancel()
	done := make(chan struct{})
	go func() {
		d.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("workers did not exit after cancel")
	}
}
