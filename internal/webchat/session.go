package webchat

import (
	"context"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"github.com/volunteerhub/assistant/internal/assistant"
	"github.com/volunteerhub/assistant/internal/catalog"
)

// session binds one visitor's conversation and engagement scheduler to the
// currently attached WebSocket connection, if any. The session outlives
// individual connections so a reconnecting visitor resumes where they left
// off.
type session struct {
	id   string
	conv *assistant.Conversation
	eng  *assistant.Engagement

	mu   sync.Mutex
	conn *websocket.Conn
}

// newSession builds a conversation plus scheduler pair wired so every bot
// message is pushed to the attached connection as it is appended.
func (h *Handler) newSession(ctx context.Context, sessionID string) *session {
	s := &session{id: sessionID}

	s.conv = assistant.NewConversation(assistant.ConversationConfig{
		SessionID:  sessionID,
		Retriever:  h.retriever,
		Saved:      h.saved,
		Transcript: h.transcript,
		Archive:    h.archive,
		Metrics:    h.metrics,
		Logger:     h.logger,
		OnUserMessage: func(m assistant.UserMessage) {
			s.eng.ObserveUser(m)
		},
		OnBotMessage: func(m assistant.BotMessage) {
			s.eng.ObserveBot(m)
			s.push(OutboundMessage{
				Type:          "message",
				Role:          m.Role(),
				Text:          m.Content,
				Opportunities: m.Opportunities,
				Timestamp:     m.Timestamp.Format(time.RFC3339),
			})
		},
	})
	s.conv.Restore(ctx)

	s.eng = assistant.NewEngagement(assistant.EngagementConfig{
		Conversation:  s.conv,
		Seen:          h.seen,
		AutoOpenDelay: h.autoOpenDelay,
		FollowUpDelay: h.followUpDelay,
		Logger:        h.logger,
		OnAutoOpen: func() {
			s.push(OutboundMessage{Type: "open"})
			s.pushState()
		},
	})
	s.eng.Start(ctx)

	return s
}

// attach makes conn the session's active connection.
func (s *session) attach(conn *websocket.Conn) {
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
}

// detach clears the connection if it is still the attached one. The
// engagement timers stay armed; messages they produce land in the
// transcript and are replayed on reconnect.
func (s *session) detach(conn *websocket.Conn) {
	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
	}
	s.mu.Unlock()
}

// push sends a message to the attached connection, dropping it when the
// visitor is disconnected.
func (s *session) push(msg OutboundMessage) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return
	}
	_ = websocket.JSON.Send(conn, msg)
}

// pushState sends the current engagement snapshot.
func (s *session) pushState() {
	state := s.eng.State()
	s.push(OutboundMessage{Type: "state", State: &state})
}

// history renders the transcript for replay.
func (s *session) history() []HistoryMessage {
	transcript := s.conv.Transcript()
	out := make([]HistoryMessage, 0, len(transcript))
	for _, msg := range transcript {
		entry := HistoryMessage{
			Role:      msg.Role(),
			Text:      msg.Text(),
			Timestamp: msg.When().Format(time.RFC3339),
		}
		if bot, ok := msg.(assistant.BotMessage); ok {
			entry.Opportunities = bot.Opportunities
		}
		out = append(out, entry)
	}
	return out
}

// HistoryMessage is one replayed transcript entry.
type HistoryMessage struct {
	Role          string                `json:"role"`
	Text          string                `json:"text"`
	Timestamp     string                `json:"timestamp"`
	Opportunities []catalog.Opportunity `json:"opportunities,omitempty"`
}
