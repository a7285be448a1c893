package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/volunteerhub/assistant/internal/catalog"
	"github.com/volunteerhub/assistant/internal/observability/metrics"
	"github.com/volunteerhub/assistant/pkg/logging"
)

// Phase is the current dialogue state, constraining which responses are
// valid next. Transitions are the only mutations and happen exclusively
// inside HandleMessage.
type Phase string

const (
	PhaseGreeting              Phase = "greeting"
	PhaseCollectingPreferences Phase = "collecting_preferences"
	PhaseShowingSuggestions    Phase = "showing_suggestions"
)

// ErrBusy is returned when a message arrives while a retrieval cycle for
// this conversation is still in flight. Callers are expected to disable
// the send action while busy.
var ErrBusy = errors.New("assistant: conversation busy")

// ErrClosed is returned once the conversation has been closed; late
// messages are dropped rather than mutating torn-down state.
var ErrClosed = errors.New("assistant: conversation closed")

// Canned assistant replies.
const (
	greetingText = "Hi! I'm here to help you find volunteer opportunities. What kind of work interests you? (e.g., 'remote grant writing' or 'beach cleanup in Boca Raton')"
	clarifyText  = "I'd love to help! Could you tell me more about what you're looking for? For example: 'food bank work' or 'environmental projects in Seattle'"
	searchText   = "Great! Let me find some opportunities for you..."
	noMatchText  = "I couldn't find any opportunities matching those criteria. Try different keywords or location, or type 'help' to start over."
	resultsHint  = "Click on any opportunity to view details and apply, or type 'save these' to save them for later!"
	resetText    = "No problem! What kind of volunteer work are you interested in? You can mention the type of work and location."
	savedHint    = "Would you like to apply to any of these? Just click on one!"
	noSavedText  = "You don't have any saved opportunities yet. Let me help you find some!"
	savedMore    = "Is there anything else I can help you with?"
	remindText   = "You can click on any opportunity card above to view details, or type 'save these' to save them for later. Need help? Just ask!"
)

// Retriever runs one retrieval cycle for a preference.
type Retriever interface {
	Retrieve(ctx context.Context, pref catalog.Preference) []catalog.Opportunity
}

// ConversationConfig wires a conversation's collaborators. Retriever is
// required; everything else is optional.
type ConversationConfig struct {
	SessionID  string
	Retriever  Retriever
	Saved      *SavedStore
	Transcript *TranscriptStore
	Archive    *ArchiveStore
	Metrics    *metrics.ChatMetrics
	Logger     *logging.Logger

	// OnUserMessage/OnBotMessage observe transcript appends; the
	// engagement scheduler and the chat surface hook in here.
	OnUserMessage func(UserMessage)
	OnBotMessage  func(BotMessage)
}

// Conversation drives the assistant dialogue for one session: it owns the
// phase, the transcript, the latest suggestion set, and the busy flag.
type Conversation struct {
	mu          sync.Mutex
	sessionID   string
	phase       Phase
	transcript  []Message
	suggestions []catalog.Opportunity
	busy        bool
	closed      bool
	greeted     bool

	retriever Retriever
	saved     *SavedStore
	store     *TranscriptStore
	archive   *ArchiveStore
	metrics   *metrics.ChatMetrics
	logger    *logging.Logger

	onUser func(UserMessage)
	onBot  func(BotMessage)
}

// NewConversation creates a conversation in the greeting phase.
func NewConversation(cfg ConversationConfig) *Conversation {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Conversation{
		sessionID: cfg.SessionID,
		phase:     PhaseGreeting,
		retriever: cfg.Retriever,
		saved:     cfg.Saved,
		store:     cfg.Transcript,
		archive:   cfg.Archive,
		metrics:   cfg.Metrics,
		logger:    logger.With("session_id", cfg.SessionID),
		onUser:    cfg.OnUserMessage,
		onBot:     cfg.OnBotMessage,
	}
}

// SessionID returns the session this conversation belongs to.
func (c *Conversation) SessionID() string { return c.sessionID }

// Phase returns the current dialogue phase.
func (c *Conversation) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Busy reports whether a retrieval cycle is in flight.
func (c *Conversation) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Transcript returns a copy of the message log.
func (c *Conversation) Transcript() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.transcript))
	copy(out, c.transcript)
	return out
}

// HasUserMessage reports whether the user has spoken yet.
func (c *Conversation) HasUserMessage() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, msg := range c.transcript {
		if msg.Role() == RoleUser {
			return true
		}
	}
	return false
}

// Restore replays previously stored history into the transcript, so a
// returning session does not get re-greeted.
func (c *Conversation) Restore(ctx context.Context) {
	history, err := c.store.List(ctx, c.sessionID, 0)
	if err != nil {
		c.logger.Warn("assistant: failed to restore transcript", "error", err)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.transcript) > 0 || len(history) == 0 {
		return
	}
	c.transcript = history
	for _, msg := range history {
		if msg.Role() == RoleBot {
			c.greeted = true
			break
		}
	}
}

// Greet appends the opening bot message once per conversation. Returns
// false when the greeting was already sent.
func (c *Conversation) Greet(ctx context.Context) bool {
	c.mu.Lock()
	if c.greeted || c.closed {
		c.mu.Unlock()
		return false
	}
	c.greeted = true
	c.mu.Unlock()

	c.appendBot(ctx, NewBotMessage(greetingText, nil))
	return true
}

// Notify appends an unsolicited bot message (e.g. the follow-up nudge).
func (c *Conversation) Notify(ctx context.Context, content string) {
	c.appendBot(ctx, NewBotMessage(content, nil))
}

// Close marks the conversation torn down. In-flight retrievals complete
// but their results are discarded instead of mutating closed state.
func (c *Conversation) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// HandleMessage consumes one user utterance and returns the bot replies it
// produced. Exactly one user message is appended (verbatim), followed by
// one or more bot messages. Keyword triggers are checked before the phase
// logic, in priority order: the suggestion-save flow, the saved-records
// query, then help/start over.
func (c *Conversation) HandleMessage(ctx context.Context, text string) ([]BotMessage, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.busy {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.busy = true
	phase := c.phase
	suggestions := c.suggestions
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
	}()

	c.appendUser(ctx, NewUserMessage(trimmed))

	lower := strings.ToLower(trimmed)
	switch {
	case strings.Contains(lower, "save") && phase == PhaseShowingSuggestions && len(suggestions) > 0:
		return c.saveSuggestions(ctx, suggestions), nil
	case strings.Contains(lower, "saved") || strings.Contains(lower, "save"):
		return c.listSaved(ctx), nil
	case strings.Contains(lower, "help") || strings.Contains(lower, "start over"):
		return c.reset(ctx), nil
	}

	switch phase {
	case PhaseGreeting, PhaseCollectingPreferences:
		return c.searchForPreferences(ctx, trimmed), nil
	default: // PhaseShowingSuggestions
		return c.replyAll(ctx, NewBotMessage(remindText, nil)), nil
	}
}

// saveSuggestions runs the suggestion-save flow: dedupe-append the last
// suggestion set into the persisted record and return to greeting.
func (c *Conversation) saveSuggestions(ctx context.Context, suggestions []catalog.Opportunity) []BotMessage {
	if err := c.saved.Save(ctx, suggestions); err != nil {
		// Persistence failures degrade to a silent no-op; the dialogue
		// proceeds as if the save happened.
		c.logger.Warn("assistant: save failed", "error", err)
	}
	c.metrics.ObserveSave()

	c.setPhase(PhaseGreeting)
	return c.replyAll(ctx,
		NewBotMessage(fmt.Sprintf("Saved %s! Type 'show saved' anytime to see them.", countOpportunities(len(suggestions))), nil),
		NewBotMessage(savedMore, nil),
	)
}

// listSaved answers a saved-records query, or prompts for a search when
// nothing has been saved yet.
func (c *Conversation) listSaved(ctx context.Context) []BotMessage {
	saved := c.saved.List(ctx)
	if len(saved) == 0 {
		c.setPhase(PhaseCollectingPreferences)
		return c.replyAll(ctx, NewBotMessage(noSavedText, nil))
	}
	return c.replyAll(ctx,
		NewBotMessage(fmt.Sprintf("You have %d saved %s:", len(saved), opportunityWord(len(saved))), saved),
		NewBotMessage(savedHint, nil),
	)
}

// reset clears the suggestion set and returns to the greeting phase.
func (c *Conversation) reset(ctx context.Context) []BotMessage {
	c.mu.Lock()
	c.suggestions = nil
	c.phase = PhaseGreeting
	c.mu.Unlock()
	return c.replyAll(ctx, NewBotMessage(resetText, nil))
}

// searchForPreferences extracts a preference from the utterance and runs a
// retrieval cycle, or asks a clarifying question when the utterance carried
// no constraint.
func (c *Conversation) searchForPreferences(ctx context.Context, text string) []BotMessage {
	pref := catalog.ExtractPreferences(text)
	if pref.Empty() {
		c.setPhase(PhaseCollectingPreferences)
		return c.replyAll(ctx, NewBotMessage(clarifyText, nil))
	}

	replies := c.replyAll(ctx, NewBotMessage(searchText, nil))

	results := c.retriever.Retrieve(ctx, pref)

	c.mu.Lock()
	if c.closed {
		// Widget unmounted while the retrieval was in flight; discard.
		c.mu.Unlock()
		return replies
	}
	c.mu.Unlock()

	if len(results) == 0 {
		c.setPhase(PhaseCollectingPreferences)
		return append(replies, c.replyAll(ctx, NewBotMessage(noMatchText, nil))...)
	}

	c.mu.Lock()
	c.suggestions = results
	c.phase = PhaseShowingSuggestions
	c.mu.Unlock()

	return append(replies, c.replyAll(ctx,
		NewBotMessage(fmt.Sprintf("I found %s for you:", countOpportunities(len(results))), results),
		NewBotMessage(resultsHint, nil),
	)...)
}

func (c *Conversation) setPhase(p Phase) {
	c.mu.Lock()
	c.phase = p
	c.mu.Unlock()
}

// replyAll appends the given bot messages to the transcript and returns
// them.
func (c *Conversation) replyAll(ctx context.Context, msgs ...BotMessage) []BotMessage {
	out := make([]BotMessage, 0, len(msgs))
	for _, msg := range msgs {
		if c.appendBot(ctx, msg) {
			out = append(out, msg)
		}
	}
	return out
}

func (c *Conversation) appendUser(ctx context.Context, msg UserMessage) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.transcript = append(c.transcript, msg)
	c.mu.Unlock()

	c.persist(ctx, msg)
	c.metrics.ObserveMessage(RoleUser)
	if c.onUser != nil {
		c.onUser(msg)
	}
}

func (c *Conversation) appendBot(ctx context.Context, msg BotMessage) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.transcript = append(c.transcript, msg)
	c.mu.Unlock()

	c.persist(ctx, msg)
	c.metrics.ObserveMessage(RoleBot)
	if c.onBot != nil {
		c.onBot(msg)
	}
	return true
}

// persist writes a message to the transcript and archive stores,
// best-effort.
func (c *Conversation) persist(ctx context.Context, msg Message) {
	if err := c.store.Append(ctx, c.sessionID, msg); err != nil {
		c.logger.Warn("assistant: transcript append failed", "error", err)
	}
	if err := c.archive.AppendMessage(ctx, c.sessionID, msg); err != nil {
		c.logger.Warn("assistant: archive append failed", "error", err)
	}
}

// countOpportunities renders "1 opportunity" / "3 opportunities".
func countOpportunities(n int) string {
	return fmt.Sprintf("%d %s", n, opportunityWord(n))
}

func opportunityWord(n int) string {
	if n == 1 {
		return "opportunity"
	}
	return "opportunities"
}
