package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const transcriptKeyPrefix = "chat_transcript:"

// transcriptTTL bounds how long an idle session's history is kept.
const transcriptTTL = 24 * time.Hour

// TranscriptStore keeps per-session conversation history in redis so a
// returning visitor sees their transcript replayed. Nil-safe: a nil store
// silently drops appends and lists nothing.
type TranscriptStore struct {
	redis       *redis.Client
	tracer      trace.Tracer
	maxMessages int64
}

// NewTranscriptStore creates a transcript store. Returns nil when the redis
// client is nil, which disables history persistence.
func NewTranscriptStore(redisClient *redis.Client) *TranscriptStore {
	if redisClient == nil {
		return nil
	}
	return &TranscriptStore{
		redis:       redisClient,
		tracer:      otel.Tracer("volunteerhub.internal.assistant.transcript"),
		maxMessages: 250,
	}
}

// Append persists one message at the end of the session transcript.
func (s *TranscriptStore) Append(ctx context.Context, sessionID string, msg Message) error {
	if s == nil || s.redis == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if sessionID == "" {
		return errors.New("assistant: transcript sessionID required")
	}

	data, err := json.Marshal(toRecord(msg))
	if err != nil {
		return fmt.Errorf("assistant: marshal transcript message: %w", err)
	}

	ctx, span := s.tracer.Start(ctx, "assistant.transcript.append")
	defer span.End()

	key := transcriptKey(sessionID)
	pipe := s.redis.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, transcriptTTL)
	if s.maxMessages > 0 {
		pipe.LTrim(ctx, key, -s.maxMessages, -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("assistant: append transcript message: %w", err)
	}
	return nil
}

// List returns the most recent messages for a session, oldest first.
// limit <= 0 returns the whole stored transcript.
func (s *TranscriptStore) List(ctx context.Context, sessionID string, limit int64) ([]Message, error) {
	if s == nil || s.redis == nil {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if sessionID == "" {
		return nil, errors.New("assistant: transcript sessionID required")
	}

	ctx, span := s.tracer.Start(ctx, "assistant.transcript.list")
	defer span.End()

	start := int64(0)
	if limit > 0 {
		start = -limit
	}

	raw, err := s.redis.LRange(ctx, transcriptKey(sessionID), start, -1).Result()
	if err != nil {
		span.RecordError(err)
		if err == redis.Nil {
			return []Message{}, nil
		}
		return nil, fmt.Errorf("assistant: list transcript: %w", err)
	}

	out := make([]Message, 0, len(raw))
	for _, item := range raw {
		var rec transcriptRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			span.RecordError(err)
			continue
		}
		out = append(out, rec.toMessage())
	}
	return out, nil
}

// HasUserMessage reports whether the stored transcript contains any user
// message.
func (s *TranscriptStore) HasUserMessage(ctx context.Context, sessionID string) (bool, error) {
	if s == nil || s.redis == nil {
		return false, nil
	}
	messages, err := s.List(ctx, sessionID, 0)
	if err != nil {
		return false, err
	}
	for _, msg := range messages {
		if msg.Role() == RoleUser {
			return true, nil
		}
	}
	return false, nil
}

func transcriptKey(sessionID string) string {
	return transcriptKeyPrefix + sessionID
}
