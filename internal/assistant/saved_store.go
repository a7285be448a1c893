package assistant

import (
	"context"
	"encoding/json"

	"github.com/volunteerhub/assistant/internal/catalog"
	"github.com/volunteerhub/assistant/pkg/logging"
)

const savedKey = "vh_saved_opportunities"

// SavedStore persists the user's saved opportunity record: a single
// JSON-serialized array in the injected KV, deduplicated by id. Store
// failures and corrupt payloads degrade to "no saved records" / silent
// no-op; they never reach the dialogue layer.
type SavedStore struct {
	kv     KV
	key    string
	logger *logging.Logger
}

// NewSavedStore creates a saved-opportunity store over the given KV.
func NewSavedStore(kv KV, logger *logging.Logger) *SavedStore {
	if logger == nil {
		logger = logging.Default()
	}
	return &SavedStore{kv: kv, key: savedKey, logger: logger}
}

// List returns the saved opportunities, or nil when none exist or the
// record cannot be read.
func (s *SavedStore) List(ctx context.Context) []catalog.Opportunity {
	if s == nil || s.kv == nil {
		return nil
	}
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		s.logger.Warn("assistant: failed to read saved opportunities", "error", err)
		return nil
	}
	if !ok || raw == "" {
		return nil
	}
	var saved []catalog.Opportunity
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		s.logger.Warn("assistant: corrupt saved opportunities record", "error", err)
		return nil
	}
	return saved
}

// Save appends the given opportunities to the record, skipping ids already
// present. The read-append-write sequence is atomic from the caller's
// perspective: each conversation issues saves sequentially.
func (s *SavedStore) Save(ctx context.Context, opps []catalog.Opportunity) error {
	if s == nil || s.kv == nil {
		return nil
	}
	saved := s.List(ctx)

	seen := make(map[catalog.ID]struct{}, len(saved))
	for _, o := range saved {
		seen[o.ID] = struct{}{}
	}
	for _, o := range opps {
		if _, dup := seen[o.ID]; dup {
			continue
		}
		saved = append(saved, o)
		seen[o.ID] = struct{}{}
	}

	data, err := json.Marshal(saved)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		s.logger.Warn("assistant: failed to write saved opportunities", "error", err)
		return err
	}
	return nil
}
