package assistant

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volunteerhub/assistant/internal/catalog"
)

func TestTranscriptStoreAppendAndList(t *testing.T) {
	_, client := newTestRedis(t)
	store := NewTranscriptStore(client)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "sess-1", NewBotMessage(greetingText, nil)))
	require.NoError(t, store.Append(ctx, "sess-1", NewUserMessage("beach cleanup in Boca Raton")))
	require.NoError(t, store.Append(ctx, "sess-1", NewBotMessage("I found 1 opportunity for you:", []catalog.Opportunity{
		{ID: "2", Title: "Beach Cleanup Crew", Organization: "OceanCare"},
	})))

	messages, err := store.List(ctx, "sess-1", 0)
	require.NoError(t, err)
	require.Len(t, messages, 3)

	assert.Equal(t, RoleBot, messages[0].Role())
	assert.Equal(t, RoleUser, messages[1].Role())
	assert.Equal(t, "beach cleanup in Boca Raton", messages[1].Text())

	bot, ok := messages[2].(BotMessage)
	require.True(t, ok)
	require.Len(t, bot.Opportunities, 1)
	assert.Equal(t, "Beach Cleanup Crew", bot.Opportunities[0].Title)
}

func TestTranscriptStoreListLimit(t *testing.T) {
	_, client := newTestRedis(t)
	store := NewTranscriptStore(client)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, "sess-1", NewUserMessage(fmt.Sprintf("msg %d", i))))
	}

	messages, err := store.List(ctx, "sess-1", 2)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "msg 3", messages[0].Text())
	assert.Equal(t, "msg 4", messages[1].Text())
}

func TestTranscriptStoreSessionsIsolated(t *testing.T) {
	_, client := newTestRedis(t)
	store := NewTranscriptStore(client)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "sess-a", NewUserMessage("a")))
	require.NoError(t, store.Append(ctx, "sess-b", NewUserMessage("b")))

	messages, err := store.List(ctx, "sess-a", 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "a", messages[0].Text())
}

func TestTranscriptStoreHasUserMessage(t *testing.T) {
	_, client := newTestRedis(t)
	store := NewTranscriptStore(client)
	ctx := context.Background()

	has, err := store.HasUserMessage(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, store.Append(ctx, "sess-1", NewBotMessage(greetingText, nil)))
	has, err = store.HasUserMessage(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, store.Append(ctx, "sess-1", NewUserMessage("hi")))
	has, err = store.HasUserMessage(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestTranscriptStoreTrimsToCap(t *testing.T) {
	_, client := newTestRedis(t)
	store := NewTranscriptStore(client)
	store.maxMessages = 3
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		require.NoError(t, store.Append(ctx, "sess-1", NewUserMessage(fmt.Sprintf("msg %d", i))))
	}

	messages, err := store.List(ctx, "sess-1", 0)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "msg 3", messages[0].Text())
}

func TestTranscriptStoreNilSafe(t *testing.T) {
	var store *TranscriptStore
	ctx := context.Background()

	assert.NoError(t, store.Append(ctx, "sess-1", NewUserMessage("hi")))

	messages, err := store.List(ctx, "sess-1", 0)
	require.NoError(t, err)
	assert.Nil(t, messages)

	assert.Nil(t, NewTranscriptStore(nil))
}