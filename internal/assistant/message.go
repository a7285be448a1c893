// Package assistant implements the conversational opportunity-matching
// assistant: the dialogue state machine, the per-session transcript, saved
// opportunity records, and the engagement timers that proactively surface
// the widget.
package assistant

import (
	"time"

	"github.com/google/uuid"

	"github.com/volunteerhub/assistant/internal/catalog"
)

// Message roles as stored in transcripts.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// Message is one entry in a conversation transcript. It is a sealed
// variant: only UserMessage and BotMessage implement it, and only
// BotMessage can carry attached opportunities.
type Message interface {
	Role() string
	Text() string
	When() time.Time

	sealed()
}

// UserMessage is a verbatim user utterance.
type UserMessage struct {
	ID        string
	Content   string
	Timestamp time.Time
}

// BotMessage is an assistant reply, optionally carrying the opportunities
// produced by one completed retrieval cycle. Opportunities is nil for
// plain-text replies.
type BotMessage struct {
	ID            string
	Content       string
	Opportunities []catalog.Opportunity
	Timestamp     time.Time
}

func (m UserMessage) Role() string    { return RoleUser }
func (m UserMessage) Text() string    { return m.Content }
func (m UserMessage) When() time.Time { return m.Timestamp }
func (m UserMessage) sealed()         {}

func (m BotMessage) Role() string    { return RoleBot }
func (m BotMessage) Text() string    { return m.Content }
func (m BotMessage) When() time.Time { return m.Timestamp }
func (m BotMessage) sealed()         {}

// NewUserMessage builds a timestamped user message.
func NewUserMessage(content string) UserMessage {
	return UserMessage{
		ID:        uuid.NewString(),
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// NewBotMessage builds a timestamped bot reply. opportunities may be nil.
func NewBotMessage(content string, opportunities []catalog.Opportunity) BotMessage {
	return BotMessage{
		ID:            uuid.NewString(),
		Content:       content,
		Opportunities: opportunities,
		Timestamp:     time.Now().UTC(),
	}
}

// transcriptRecord is the flat wire/storage form of a Message.
type transcriptRecord struct {
	ID            string                `json:"id"`
	Role          string                `json:"role"`
	Content       string                `json:"content"`
	Opportunities []catalog.Opportunity `json:"opportunities,omitempty"`
	Timestamp     time.Time             `json:"timestamp"`
}

func toRecord(msg Message) transcriptRecord {
	switch m := msg.(type) {
	case UserMessage:
		return transcriptRecord{ID: m.ID, Role: RoleUser, Content: m.Content, Timestamp: m.Timestamp}
	case BotMessage:
		return transcriptRecord{ID: m.ID, Role: RoleBot, Content: m.Content, Opportunities: m.Opportunities, Timestamp: m.Timestamp}
	default:
		return transcriptRecord{}
	}
}

func (r transcriptRecord) toMessage() Message {
	if r.Role == RoleUser {
		return UserMessage{ID: r.ID, Content: r.Content, Timestamp: r.Timestamp}
	}
	return BotMessage{ID: r.ID, Content: r.Content, Opportunities: r.Opportunities, Timestamp: r.Timestamp}
}
