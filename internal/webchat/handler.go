// Package webchat exposes the assistant over a WebSocket widget plus an
// HTTP fallback for clients that cannot hold a socket open.
package webchat

import (
	"crypto/rand"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/volunteerhub/assistant/internal/assistant"
	"github.com/volunteerhub/assistant/internal/catalog"
	"github.com/volunteerhub/assistant/internal/observability/metrics"
	"github.com/volunteerhub/assistant/pkg/logging"
)

//go:embed widget.js
var defaultWidgetJS []byte

// Config wires a webchat handler's collaborators. Retriever is required.
type Config struct {
	Retriever  assistant.Retriever
	Saved      *assistant.SavedStore
	Transcript *assistant.TranscriptStore
	Archive    *assistant.ArchiveStore
	Seen       assistant.KV
	Metrics    *metrics.ChatMetrics
	Logger     *logging.Logger

	AutoOpenDelay time.Duration
	FollowUpDelay time.Duration
	WidgetJS      []byte
}

// Handler manages webchat sessions and their connections.
type Handler struct {
	retriever  assistant.Retriever
	saved      *assistant.SavedStore
	transcript *assistant.TranscriptStore
	archive    *assistant.ArchiveStore
	seen       assistant.KV
	metrics    *metrics.ChatMetrics
	logger     *logging.Logger

	autoOpenDelay time.Duration
	followUpDelay time.Duration
	widgetJS      []byte

	mu       sync.Mutex
	sessions map[string]*session
}

// InboundMessage is what the widget sends.
type InboundMessage struct {
	Type string `json:"type"` // "message", "open", "close", "ping"
	Text string `json:"text"`
}

// OutboundMessage is what we send to the widget.
type OutboundMessage struct {
	Type          string                     `json:"type"` // "message", "history", "session", "state", "open", "typing", "pong", "error"
	Role          string                     `json:"role,omitempty"`
	Text          string                     `json:"text,omitempty"`
	Opportunities []catalog.Opportunity      `json:"opportunities,omitempty"`
	Timestamp     string                     `json:"timestamp,omitempty"`
	SessionID     string                     `json:"session_id,omitempty"`
	Messages      []HistoryMessage           `json:"messages,omitempty"`
	State         *assistant.EngagementState `json:"state,omitempty"`
}

// NewHandler creates a webchat handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	widgetJS := cfg.WidgetJS
	if len(widgetJS) == 0 {
		widgetJS = defaultWidgetJS
	}
	return &Handler{
		retriever:     cfg.Retriever,
		saved:         cfg.Saved,
		transcript:    cfg.Transcript,
		archive:       cfg.Archive,
		seen:          cfg.Seen,
		metrics:       cfg.Metrics,
		logger:        logger,
		autoOpenDelay: cfg.AutoOpenDelay,
		followUpDelay: cfg.FollowUpDelay,
		widgetJS:      widgetJS,
		sessions:      make(map[string]*session),
	}
}

// generateSessionID creates a random session identifier.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(b)
}

// sessionFor returns the session for an ID, creating it on first use.
func (h *Handler) sessionFor(r *http.Request, sessionID string) *session {
	h.mu.Lock()
	s, ok := h.sessions[sessionID]
	h.mu.Unlock()
	if ok {
		return s
	}

	s = h.newSession(r.Context(), sessionID)

	h.mu.Lock()
	if existing, ok := h.sessions[sessionID]; ok {
		// Another connection raced the creation; keep theirs.
		h.mu.Unlock()
		s.eng.Stop()
		return existing
	}
	h.sessions[sessionID] = s
	h.mu.Unlock()
	return s
}

// HandleWebSocket upgrades to WebSocket and handles real-time messaging.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = generateSessionID()
	}

	_ = websocket.JSON.Send(conn, OutboundMessage{Type: "session", SessionID: sessionID})

	s := h.sessionFor(r, sessionID)
	s.attach(conn)
	defer s.detach(conn)

	if history := s.history(); len(history) > 0 {
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "history", Messages: history})
	}
	s.pushState()

	h.logger.Info("webchat: connection opened", "session_id", sessionID)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("webchat: connection closed", "session_id", sessionID, "error", err)
			return
		}

		switch msg.Type {
		case "ping":
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
		case "open":
			s.eng.Open(r.Context())
			s.pushState()
		case "close":
			s.eng.Close()
			s.pushState()
		case "message":
			if strings.TrimSpace(msg.Text) == "" {
				continue
			}
			s.push(OutboundMessage{Type: "typing"})
			if _, err := s.conv.HandleMessage(r.Context(), msg.Text); err != nil {
				h.sendHandleError(s, err)
			}
			s.pushState()
		}
	}
}

func (h *Handler) sendHandleError(s *session, err error) {
	switch {
	case errors.Is(err, assistant.ErrBusy):
		s.push(OutboundMessage{Type: "error", Text: "Still searching, one moment..."})
	default:
		h.logger.Error("webchat: failed to handle message", "session_id", s.id, "error", err)
		s.push(OutboundMessage{Type: "error", Text: "Sorry, something went wrong. Please try again."})
	}
}

// HandleMessage is the HTTP fallback for sending messages. It replies
// synchronously with the bot messages the utterance produced.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Text      string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		req.SessionID = generateSessionID()
	}

	s := h.sessionFor(r, req.SessionID)
	s.eng.Open(r.Context())

	replies, err := s.conv.HandleMessage(r.Context(), req.Text)
	if err != nil {
		if errors.Is(err, assistant.ErrBusy) {
			http.Error(w, "conversation busy", http.StatusConflict)
			return
		}
		h.logger.Error("webchat: failed to handle message", "session_id", req.SessionID, "error", err)
		http.Error(w, "failed to handle message", http.StatusInternalServerError)
		return
	}

	out := make([]HistoryMessage, 0, len(replies))
	for _, m := range replies {
		out = append(out, HistoryMessage{
			Role:          m.Role(),
			Text:          m.Content,
			Timestamp:     m.Timestamp.Format(time.RFC3339),
			Opportunities: m.Opportunities,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"session_id": req.SessionID,
		"messages":   out,
	})
}

// HandleHistory returns chat history for a session.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	s, ok := h.sessions[sessionID]
	h.mu.Unlock()

	var history []HistoryMessage
	if ok {
		history = s.history()
	} else {
		msgs, err := h.transcript.List(r.Context(), sessionID, 100)
		if err != nil {
			h.logger.Error("webchat: failed to load history", "error", err)
			http.Error(w, "failed to load history", http.StatusInternalServerError)
			return
		}
		for _, m := range msgs {
			entry := HistoryMessage{
				Role:      m.Role(),
				Text:      m.Text(),
				Timestamp: m.When().Format(time.RFC3339),
			}
			if bot, ok := m.(assistant.BotMessage); ok {
				entry.Opportunities = bot.Opportunities
			}
			history = append(history, entry)
		}
	}
	if history == nil {
		history = []HistoryMessage{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"messages": history})
}

// HandleWidgetJS serves the embeddable widget JavaScript.
func (h *Handler) HandleWidgetJS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	_, _ = w.Write(h.widgetJS)
}

// Shutdown stops every session's timers and closes their conversations.
func (h *Handler) Shutdown() {
	h.mu.Lock()
	sessions := make([]*session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.sessions = make(map[string]*session)
	h.mu.Unlock()

	for _, s := range sessions {
		s.eng.Stop()
	}
}
