package assistant

import (
	"context"
	"sync"
	"time"

	"github.com/volunteerhub/assistant/pkg/logging"
)

const (
	// DefaultAutoOpenDelay is how long after page load the widget
	// auto-opens for a first-time visitor.
	DefaultAutoOpenDelay = 7 * time.Second
	// DefaultFollowUpDelay is how long after the greeting the single
	// follow-up nudge fires when the user has not replied.
	DefaultFollowUpDelay = 30 * time.Second

	seenKeyPrefix = "vh_chat_seen:"

	followUpText = "Need ideas? Tell me your city or say 'remote' and what you'd like to do, and I'll suggest matches."
)

// EngagementState is a snapshot of the scheduler's observable outputs.
type EngagementState struct {
	Open          bool `json:"open"`
	AutoOpenFired bool `json:"auto_open_fired"`
	FollowUpFired bool `json:"follow_up_fired"`
	UnreadCount   int  `json:"unread_count"`
}

// EngagementConfig wires an engagement scheduler to its conversation.
type EngagementConfig struct {
	Conversation  *Conversation
	Seen          KV
	AutoOpenDelay time.Duration
	FollowUpDelay time.Duration
	Logger        *logging.Logger

	// OnAutoOpen is invoked when the auto-open timer elapses, so the
	// surface can push an open event to the client.
	OnAutoOpen func()
}

// Engagement runs the proactive-engagement timers for one session: a
// one-shot auto-open for first-time visitors and a single follow-up nudge
// when the greeting goes unanswered. It also tracks the unread indicator
// shown while the widget is closed.
type Engagement struct {
	mu   sync.Mutex
	conv *Conversation
	seen KV

	autoOpenDelay time.Duration
	followUpDelay time.Duration
	logger        *logging.Logger
	onAutoOpen    func()

	autoOpenTimer *time.Timer
	followUpTimer *time.Timer

	open          bool
	stopped       bool
	autoOpenFired bool
	followUpFired bool
	userReplied   bool
	unread        int
	botSinceOpen  int
}

// NewEngagement creates a scheduler for the given conversation. Timers are
// not armed until Start.
func NewEngagement(cfg EngagementConfig) *Engagement {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	autoOpen := cfg.AutoOpenDelay
	if autoOpen <= 0 {
		autoOpen = DefaultAutoOpenDelay
	}
	followUp := cfg.FollowUpDelay
	if followUp <= 0 {
		followUp = DefaultFollowUpDelay
	}
	return &Engagement{
		conv:          cfg.Conversation,
		seen:          cfg.Seen,
		autoOpenDelay: autoOpen,
		followUpDelay: followUp,
		logger:        logger.With("session_id", cfg.Conversation.SessionID()),
		onAutoOpen:    cfg.OnAutoOpen,
	}
}

// ObserveUser cancels the follow-up and clears the unread indicator on
// the first user message. Meant for ConversationConfig.OnUserMessage; the
// surface chains it with its own observers.
func (e *Engagement) ObserveUser(UserMessage) {
	e.mu.Lock()
	e.userReplied = true
	e.unread = 0
	if e.followUpTimer != nil {
		e.followUpTimer.Stop()
		e.followUpTimer = nil
	}
	e.mu.Unlock()
}

// ObserveBot flags an unread indicator when the widget is closed. The
// indicator signals "unread exists"; it does not count messages.
func (e *Engagement) ObserveBot(BotMessage) {
	e.mu.Lock()
	e.botSinceOpen++
	if !e.open {
		e.unread = 1
	}
	e.mu.Unlock()
}

// Start arms the auto-open timer unless this session has already seen the
// widget open once.
func (e *Engagement) Start(ctx context.Context) {
	if e.seen != nil {
		if _, seen, err := e.seen.Get(ctx, e.seenKey()); err != nil {
			e.logger.Warn("assistant: failed to read seen flag", "error", err)
		} else if seen {
			return
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped || e.open || e.autoOpenTimer != nil {
		return
	}
	e.autoOpenTimer = time.AfterFunc(e.autoOpenDelay, e.fireAutoOpen)
}

func (e *Engagement) fireAutoOpen() {
	e.mu.Lock()
	if e.stopped || e.open {
		e.mu.Unlock()
		return
	}
	e.autoOpenFired = true
	e.mu.Unlock()

	e.Open(context.Background())
	if e.onAutoOpen != nil {
		e.onAutoOpen()
	}
}

// Open marks the widget open: the unread indicator clears, the session is
// flagged seen, the greeting is sent once, and the follow-up timer is
// armed after a fresh greeting.
func (e *Engagement) Open(ctx context.Context) {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.open = true
	e.unread = 0
	e.botSinceOpen = 0
	if e.autoOpenTimer != nil {
		e.autoOpenTimer.Stop()
		e.autoOpenTimer = nil
	}
	e.mu.Unlock()

	if e.seen != nil {
		if err := e.seen.Set(ctx, e.seenKey(), "1"); err != nil {
			e.logger.Warn("assistant: failed to write seen flag", "error", err)
		}
	}

	if e.conv.Greet(ctx) {
		e.armFollowUp()
	}

	// Opening clears any indicator the greeting itself raised.
	e.mu.Lock()
	e.unread = 0
	e.mu.Unlock()
}

func (e *Engagement) armFollowUp() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped || e.followUpFired || e.userReplied || e.followUpTimer != nil {
		return
	}
	e.followUpTimer = time.AfterFunc(e.followUpDelay, e.fireFollowUp)
}

func (e *Engagement) fireFollowUp() {
	e.mu.Lock()
	if e.stopped || e.followUpFired || e.userReplied {
		e.mu.Unlock()
		return
	}
	e.followUpFired = true
	e.followUpTimer = nil
	e.mu.Unlock()

	e.conv.Notify(context.Background(), followUpText)
}

// Close marks the widget closed. If the bot spoke during the open interval
// and the user never replied, a single pending indicator is preserved.
func (e *Engagement) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.open = false
	if !e.userReplied && e.botSinceOpen > 0 {
		e.unread = 1
	} else {
		e.unread = 0
	}
}

// Stop cancels all timers and closes the conversation. Late timer fires
// become no-ops.
func (e *Engagement) Stop() {
	e.mu.Lock()
	e.stopped = true
	if e.autoOpenTimer != nil {
		e.autoOpenTimer.Stop()
		e.autoOpenTimer = nil
	}
	if e.followUpTimer != nil {
		e.followUpTimer.Stop()
		e.followUpTimer = nil
	}
	e.mu.Unlock()

	e.conv.Close()
}

// State returns a snapshot of the scheduler's observable outputs.
func (e *Engagement) State() EngagementState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return EngagementState{
		Open:          e.open,
		AutoOpenFired: e.autoOpenFired,
		FollowUpFired: e.followUpFired,
		UnreadCount:   e.unread,
	}
}

func (e *Engagement) seenKey() string {
	return seenKeyPrefix + e.conv.SessionID()
}
