// Package webhook is the WhatsApp-style channel: an HTTP server that
// answers the platform's verification handshake, acknowledges event batches
// immediately, and pushes the contained messages onto the dispatcher.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openclaw/openclaw/internal/channel"
)

const graphAPIBase = "https://graph.facebook.com/v19.0"

// Options configures the webhook server and the outbound send path.
type Options struct {
	Port          int
	VerifyToken   string
	PhoneNumberID string
	APIToken      string
}

// Adapter serves the webhook endpoints and sends replies through the
// platform's message API.
type Adapter struct {
	opts       Options
	dispatcher *channel.Dispatcher
	dedup      *channel.Dedup
	sendBase   string
	client     *http.Client
	httpSrv    *http.Server
}

func New(opts Options, dispatcher *channel.Dispatcher, dedup *channel.Dedup) *Adapter {
	return &Adapter{
		opts:       opts,
		dispatcher: dispatcher,
		dedup:      dedup,
		sendBase:   graphAPIBase,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *Adapter) Type() channel.Type { return channel.TypeWhatsApp }

// Start begins listening. It blocks until ctx is cancelled, then shuts the
// server down gracefully.
func (a *Adapter) Start(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/health", a.ginHealth)
	engine.GET("/webhook", a.ginVerify)
	engine.POST("/webhook", a.ginReceive)

	a.httpSrv = &http.Server{
		Addr:    fmt.Sprintf(":%d", a.opts.Port),
		Handler: engine,
	}

	slog.Info("webhook server starting", "port", a.opts.Port)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.httpSrv.Shutdown(shutdownCtx)
	}()

	if err := a.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("webhook server: %w", err)
	}
	return nil
}

func (a *Adapter) ginHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ginVerify answers the subscription handshake: echo hub.challenge when the
// verify token matches, 403 otherwise.
func (a *Adapter) ginVerify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == a.opts.VerifyToken {
		slog.Info("webhook verified")
		c.String(http.StatusOK, challenge)
		return
	}
	slog.Warn("webhook verification rejected", "mode", mode)
	c.Status(http.StatusForbidden)
}

// event mirrors the platform's nested batch payload. Only text messages are
// consumed; other entry kinds (status updates, media) are skipped.
type event struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []struct {
					ID        string `json:"id"`
					From      string `json:"from"`
					Timestamp string `json:"timestamp"`
					Type      string `json:"type"`
					Text      struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// ginReceive acknowledges the batch immediately and enqueues each new text
// message. The platform retries unacknowledged batches, so the ack must not
// wait on the reasoning loop.
func (a *Adapter) ginReceive(c *gin.Context) {
	var ev event
	if err := c.ShouldBindJSON(&ev); err != nil {
		slog.Warn("malformed webhook payload", "error", err)
		c.String(http.StatusOK, "EVENT_RECEIVED")
		return
	}
	c.String(http.StatusOK, "EVENT_RECEIVED")

	for _, entry := range ev.Entry {
		for _, change := range entry.Changes {
			for _, m := range change.Value.Messages {
				if m.Type != "text" || m.Text.Body == "" {
					continue
				}
				if a.dedup.Seen(m.ID) {
					slog.Debug("duplicate event skipped", "id", m.ID)
					continue
				}
				ts := time.Now()
				if unix, err := strconv.ParseInt(m.Timestamp, 10, 64); err == nil {
					ts = time.Unix(unix, 0)
				}
				msg, err := channel.NewInbound(m.From, "", m.From, m.Text.Body, channel.TypeWhatsApp, ts, nil)
				if err != nil {
					slog.Warn("dropping invalid message", "id", m.ID, "error", err)
					continue
				}
				a.dispatcher.Enqueue(msg)
			}
		}
	}
}

// Send posts a text message through the platform's message API.
func (a *Adapter) Send(out channel.Outbound) error {
	payload, err := json.Marshal(map[string]any{
		"messaging_product": "whatsapp",
		"to":                out.ChannelID,
		"type":              "text",
		"text":              map[string]string{"body": out.Content},
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/%s/messages", a.sendBase, a.opts.PhoneNumberID)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+a.opts.APIToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("message API returned status %d: %s", resp.StatusCode, string(data))
	}
	return nil
}
