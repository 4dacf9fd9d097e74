// Package socket is the persistent-connection channel: a websocket client
// that receives message envelopes, acks them by id, and writes replies back
// over the same connection.
package socket

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/openclaw/openclaw/internal/channel"
)

// Options configures the websocket connection.
type Options struct {
	URL   string
	Token string
}

// envelope is one frame on the wire, both directions.
type envelope struct {
	Type      string `json:"type"` // "message" | "ack" | "reply"
	ID        string `json:"id,omitempty"`
	ChannelID string `json:"channelId,omitempty"`
	ThreadID  string `json:"threadId,omitempty"`
	UserID    string `json:"userId,omitempty"`
	Text      string `json:"text,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// Adapter maintains the connection and reconnects with a fixed delay when
// it drops.
type Adapter struct {
	opts       Options
	dispatcher *channel.Dispatcher
	dedup      *channel.Dedup

	mu      sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func New(opts Options, dispatcher *channel.Dispatcher, dedup *channel.Dedup) *Adapter {
	return &Adapter{opts: opts, dispatcher: dispatcher, dedup: dedup}
}

func (a *Adapter) Type() channel.Type { return channel.TypeSlack }

// Start runs the connect/read loop until ctx is cancelled.
func (a *Adapter) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := a.runOnce(ctx); err != nil {
			slog.Warn("socket connection lost, reconnecting", "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
		}
	}
}

func (a *Adapter) runOnce(ctx context.Context) error {
	header := http.Header{}
	if a.opts.Token != "" {
		header.Set("Authorization", "Bearer "+a.opts.Token)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, a.opts.URL, header)
	if err != nil {
		return fmt.Errorf("dial %s: %w", a.opts.URL, err)
	}
	defer conn.Close()

	a.mu.Lock()
	a.conn = conn
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.conn = nil
		a.mu.Unlock()
	}()

	slog.Info("socket connected", "url", a.opts.URL)

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			return err
		}
		a.handle(env)
	}
}

func (a *Adapter) handle(env envelope) {
	if env.Type != "message" || env.Text == "" {
		return
	}
	if env.ID != "" {
		if err := a.writeJSON(envelope{Type: "ack", ID: env.ID}); err != nil {
			slog.Warn("failed to ack", "id", env.ID, "error", err)
		}
		if a.dedup.Seen(env.ID) {
			slog.Debug("duplicate event skipped", "id", env.ID)
			return
		}
	}

	ts := time.Now()
	if env.Timestamp > 0 {
		ts = time.Unix(env.Timestamp, 0)
	}
	msg, err := channel.NewInbound(env.ChannelID, env.ThreadID, env.UserID, env.Text, channel.TypeSlack, ts, nil)
	if err != nil {
		slog.Warn("dropping invalid message", "id", env.ID, "error", err)
		return
	}
	a.dispatcher.Enqueue(msg)
}

// Send writes a reply envelope over the live connection.
func (a *Adapter) Send(out channel.Outbound) error {
	return a.writeJSON(envelope{
		Type:      "reply",
		ChannelID: out.ChannelID,
		ThreadID:  out.ThreadID,
		Text:      out.Content,
	})
}

func (a *Adapter) writeJSON(v any) error {
	a.mu.Lock()
	conn := a.conn
	a.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("socket not connected")
	}
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	return conn.WriteJSON(v)
}
