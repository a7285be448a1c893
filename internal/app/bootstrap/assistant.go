package bootstrap

import (
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/volunteerhub/assistant/internal/assistant"
	"github.com/volunteerhub/assistant/internal/catalog"
	appconfig "github.com/volunteerhub/assistant/internal/config"
	"github.com/volunteerhub/assistant/internal/observability/metrics"
	"github.com/volunteerhub/assistant/internal/webchat"
	"github.com/volunteerhub/assistant/pkg/logging"
)

// BuildRetriever wires the tiered opportunity retriever. With no catalog
// URL configured, every cycle serves the bundled fallback dataset.
func BuildRetriever(cfg *appconfig.Config, reg prometheus.Registerer, logger *logging.Logger) *catalog.Retriever {
	if logger == nil {
		logger = logging.Default()
	}

	var client catalog.Lister
	if cfg != nil && cfg.CatalogBaseURL != "" {
		timeout := cfg.CatalogTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = catalog.NewClient(cfg.CatalogBaseURL, timeout, logger)
	} else {
		logger.Warn("no catalog URL configured; serving fallback dataset only")
	}

	max := catalog.DefaultMaxResults
	if cfg != nil && cfg.MaxSuggestions > 0 {
		max = cfg.MaxSuggestions
	}

	return catalog.NewRetriever(client, max, logger, metrics.NewRetrievalMetrics(reg))
}

// BuildWebchat wires the chat surface: the conversation stores on top of
// redis and the optional SQL archive, plus the engagement timer settings.
func BuildWebchat(cfg *appconfig.Config, retriever assistant.Retriever, redisClient *redis.Client, db *sql.DB, reg prometheus.Registerer, widgetJS []byte, logger *logging.Logger) *webchat.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	var kv assistant.KV
	if redisClient != nil {
		kv = assistant.NewRedisKV(redisClient, 0)
	} else {
		logger.Warn("redis unavailable; saved records and seen flags are in-memory only")
		kv = assistant.NewMemoryKV()
	}

	wcfg := webchat.Config{
		Retriever:  retriever,
		Saved:      assistant.NewSavedStore(kv, logger),
		Transcript: assistant.NewTranscriptStore(redisClient),
		Archive:    assistant.NewArchiveStore(db),
		Seen:       kv,
		Metrics:    metrics.NewChatMetrics(reg),
		Logger:     logger,
		WidgetJS:   widgetJS,
	}
	if cfg != nil {
		wcfg.AutoOpenDelay = cfg.AutoOpenDelay
		wcfg.FollowUpDelay = cfg.FollowUpDelay
	}
	return webchat.NewHandler(wcfg)
}
