package assistant

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volunteerhub/assistant/internal/catalog"
)

const (
	testWait = 2 * time.Second
	testTick = 5 * time.Millisecond
)

// newEngagementPair wires a conversation and its scheduler the way the
// chat surface does, with short timer delays for tests.
func newEngagementPair(t *testing.T, seen KV, autoOpen, followUp time.Duration) (*Conversation, *Engagement) {
	t.Helper()

	var eng *Engagement
	conv := NewConversation(ConversationConfig{
		SessionID:     "sess-engage",
		Retriever:     &stubRetriever{results: []catalog.Opportunity{{ID: "1", Title: "Food Pantry Assistant"}}},
		Saved:         NewSavedStore(NewMemoryKV(), nil),
		OnUserMessage: func(m UserMessage) { eng.ObserveUser(m) },
		OnBotMessage:  func(m BotMessage) { eng.ObserveBot(m) },
	})
	eng = NewEngagement(EngagementConfig{
		Conversation:  conv,
		Seen:          seen,
		AutoOpenDelay: autoOpen,
		FollowUpDelay: followUp,
	})
	t.Cleanup(eng.Stop)
	return conv, eng
}

func transcriptContains(conv *Conversation, text string) bool {
	for _, msg := range conv.Transcript() {
		if msg.Text() == text {
			return true
		}
	}
	return false
}

func TestAutoOpenFiresForNewSession(t *testing.T) {
	seen := NewMemoryKV()
	conv, eng := newEngagementPair(t, seen, 10*time.Millisecond, time.Hour)
	ctx := context.Background()

	eng.Start(ctx)

	assert.Eventually(t, func() bool {
		return eng.State().AutoOpenFired
	}, testWait, testTick)

	state := eng.State()
	assert.True(t, state.Open)
	assert.Zero(t, state.UnreadCount)
	assert.True(t, transcriptContains(conv, greetingText))

	_, flagged, err := seen.Get(ctx, "vh_chat_seen:sess-engage")
	require.NoError(t, err)
	assert.True(t, flagged)
}

func TestAutoOpenSkippedForSeenSession(t *testing.T) {
	seen := NewMemoryKV()
	require.NoError(t, seen.Set(context.Background(), "vh_chat_seen:sess-engage", "1"))

	conv, eng := newEngagementPair(t, seen, 10*time.Millisecond, time.Hour)
	eng.Start(context.Background())

	time.Sleep(50 * time.Millisecond)
	assert.False(t, eng.State().AutoOpenFired)
	assert.False(t, eng.State().Open)
	assert.Empty(t, conv.Transcript())
}

func TestManualOpenCancelsAutoOpen(t *testing.T) {
	conv, eng := newEngagementPair(t, NewMemoryKV(), 30*time.Millisecond, time.Hour)
	ctx := context.Background()

	eng.Start(ctx)
	eng.Open(ctx)

	time.Sleep(60 * time.Millisecond)
	state := eng.State()
	assert.True(t, state.Open)
	assert.False(t, state.AutoOpenFired)
	assert.True(t, transcriptContains(conv, greetingText))
}

func TestFollowUpFiresWhenUnanswered(t *testing.T) {
	conv, eng := newEngagementPair(t, NewMemoryKV(), time.Hour, 10*time.Millisecond)

	eng.Open(context.Background())

	assert.Eventually(t, func() bool {
		return eng.State().FollowUpFired
	}, testWait, testTick)
	assert.True(t, transcriptContains(conv, followUpText))
}

func TestFollowUpCancelledByUserReply(t *testing.T) {
	conv, eng := newEngagementPair(t, NewMemoryKV(), time.Hour, 40*time.Millisecond)
	ctx := context.Background()

	eng.Open(ctx)
	_, err := conv.HandleMessage(ctx, "food pantry work")
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	assert.False(t, eng.State().FollowUpFired)
	assert.False(t, transcriptContains(conv, followUpText))
}

func TestFollowUpFiresAtMostOnce(t *testing.T) {
	conv, eng := newEngagementPair(t, NewMemoryKV(), time.Hour, 10*time.Millisecond)
	ctx := context.Background()

	eng.Open(ctx)
	assert.Eventually(t, func() bool {
		return eng.State().FollowUpFired
	}, testWait, testTick)

	// Reopening must not arm a second follow-up.
	eng.Close()
	eng.Open(ctx)
	time.Sleep(50 * time.Millisecond)

	count := 0
	for _, msg := range conv.Transcript() {
		if msg.Text() == followUpText {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestUnreadIndicatorWhileClosed(t *testing.T) {
	conv, eng := newEngagementPair(t, NewMemoryKV(), time.Hour, time.Hour)
	ctx := context.Background()

	// Bot speaks while the widget is closed.
	conv.Notify(ctx, "first")
	conv.Notify(ctx, "second")

	// The indicator signals "unread exists"; it never counts past one.
	assert.Equal(t, 1, eng.State().UnreadCount)

	eng.Open(ctx)
	assert.Zero(t, eng.State().UnreadCount)
}

func TestClosePreservesPendingIndicator(t *testing.T) {
	_, eng := newEngagementPair(t, NewMemoryKV(), time.Hour, time.Hour)
	ctx := context.Background()

	eng.Open(ctx) // greeting lands while open
	eng.Close()

	assert.Equal(t, 1, eng.State().UnreadCount)
}

func TestCloseClearsIndicatorAfterUserReply(t *testing.T) {
	conv, eng := newEngagementPair(t, NewMemoryKV(), time.Hour, time.Hour)
	ctx := context.Background()

	eng.Open(ctx)
	_, err := conv.HandleMessage(ctx, "food pantry work")
	require.NoError(t, err)
	eng.Close()

	assert.Zero(t, eng.State().UnreadCount)
}

func TestStopCancelsTimersAndClosesConversation(t *testing.T) {
	conv, eng := newEngagementPair(t, NewMemoryKV(), 10*time.Millisecond, 10*time.Millisecond)

	eng.Start(context.Background())
	eng.Stop()

	time.Sleep(50 * time.Millisecond)
	state := eng.State()
	assert.False(t, state.AutoOpenFired)
	assert.False(t, state.FollowUpFired)
	assert.Empty(t, conv.Transcript())

	_, err := conv.HandleMessage(context.Background(), "food pantry work")
	assert.ErrorIs(t, err, ErrClosed)
}