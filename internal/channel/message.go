// Package channel defines the normalized message types and the adapter
// contract every communication platform implements.
package channel

import (
	"fmt"
	"strings"
	"time"
)

// Type tags which messaging platform a message belongs to.
type Type string

const (
	TypeWhatsApp Type = "whatsapp"
	TypeSlack    Type = "slack-socket"
	TypeConsole  Type = "console"
)

// Inbound is a platform-neutral incoming message. Adapters normalize their
// native event formats into this shape before handing off to the agent.
type Inbound struct {
	ChannelID string            `json:"channelId"`
	ThreadID  string            `json:"threadId,omitempty"`
	UserID    string            `json:"userId"`
	Content   string            `json:"content"`
	Source    Type              `json:"source"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// NewInbound validates and constructs an Inbound message. A zero timestamp
// defaults to now; a nil metadata map becomes empty.
func NewInbound(channelID, threadID, userID, content string, source Type, ts time.Time, metadata map[string]string) (Inbound, error) {
	if strings.TrimSpace(channelID) == "" {
		return Inbound{}, fmt.Errorf("channel id must not be blank")
	}
	if strings.TrimSpace(userID) == "" {
		return Inbound{}, fmt.Errorf("user id must not be blank")
	}
	if source == "" {
		return Inbound{}, fmt.Errorf("source channel type must not be empty")
	}
	if ts.IsZero() {
		ts = time.Now()
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	return Inbound{
		ChannelID: channelID,
		ThreadID:  threadID,
		UserID:    userID,
		Content:   content,
		Source:    source,
		Timestamp: ts,
		Metadata:  metadata,
	}, nil
}

// ContextID is the unit of short-term memory partitioning: the thread id
// when the message belongs to a thread, otherwise the channel id.
func (m Inbound) ContextID() string {
	if m.ThreadID != "" {
		return m.ThreadID
	}
	return m.ChannelID
}

// Outbound is a platform-neutral reply. Adapters translate it into their
// native send call.
type Outbound struct {
	ChannelID   string   `json:"channelId"`
	ThreadID    string   `json:"threadId,omitempty"`
	Content     string   `json:"content"`
	Destination Type     `json:"destination"`
	Attachments []string `json:"attachments,omitempty"`
}

// NewOutbound validates and constructs an Outbound message.
func NewOutbound(channelID, threadID, content string, destination Type, attachments []string) (Outbound, error) {
	if strings.TrimSpace(channelID) == "" {
		return Outbound{}, fmt.Errorf("channel id must not be blank")
	}
	if strings.TrimSpace(content) == "" {
		return Outbound{}, fmt.Errorf("content must not be blank")
	}
	if destination == "" {
		return Outbound{}, fmt.Errorf("destination channel type must not be empty")
	}
	if attachments == nil {
		attachments = []string{}
	}
	return Outbound{
		ChannelID:   channelID,
		ThreadID:    threadID,
		Content:     content,
		Destination: destination,
		Attachments: attachments,
	}, nil
}

// TextReply builds a plain text reply addressed back to where the inbound
// message came from.
func TextReply(msg Inbound, content string) (Outbound, error) {
	return NewOutbound(msg.ChannelID, msg.ThreadID, content, msg.Source, nil)
}
