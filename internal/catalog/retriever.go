package catalog

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/volunteerhub/assistant/internal/observability/metrics"
	"github.com/volunteerhub/assistant/internal/textmatch"
	"github.com/volunteerhub/assistant/pkg/logging"
)

// DefaultMaxResults caps how many opportunities a retrieval cycle returns.
const DefaultMaxResults = 3

// Retrieval tiers, in attempt order.
const (
	tierPrimary    = "primary"    // remote query with server-side location filter
	tierUnfiltered = "unfiltered" // remote query over the full catalog
	tierFallback   = "fallback"   // bundled dataset
)

// Retriever runs the tiered retrieval strategy against the remote catalog
// with the bundled dataset as a last resort. Remote failures degrade to the
// fallback tier and are never surfaced to callers.
type Retriever struct {
	client   Lister
	fallback []Opportunity
	max      int
	logger   *logging.Logger
	metrics  *metrics.RetrievalMetrics
	tracer   trace.Tracer
}

// NewRetriever creates a retriever over the given catalog client. A nil
// metrics receiver disables instrumentation.
func NewRetriever(client Lister, max int, logger *logging.Logger, m *metrics.RetrievalMetrics) *Retriever {
	if max <= 0 {
		max = DefaultMaxResults
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Retriever{
		client:   client,
		fallback: Fallback(),
		max:      max,
		logger:   logger,
		metrics:  m,
		tracer:   otel.Tracer("volunteerhub.internal.catalog.retriever"),
	}
}

// Retrieve returns up to the configured maximum of opportunities matching
// the preference. Tiers are attempted in order, stopping at the first
// non-empty filtered result:
//
//  1. remote query with the location constraint applied server-side,
//     locally filtered
//  2. remote query over the full catalog (only when a location was
//     supplied), locally filtered
//  3. the bundled fallback dataset, locally filtered
//
// The original implementation issued the unfiltered query twice; the two
// calls were byte-for-byte identical, so they are collapsed here. Any
// remote error skips straight to the fallback tier.
func (r *Retriever) Retrieve(ctx context.Context, pref Preference) []Opportunity {
	ctx, span := r.tracer.Start(ctx, "catalog.retrieve")
	defer span.End()

	tier := tierPrimary
	var matched []Opportunity
	var err error
	if r.client == nil {
		// No remote catalog configured; serve the bundled dataset.
		tier = tierFallback
	} else {
		matched, err = r.attempt(ctx, pref, pref.Location)
		if err == nil && len(matched) == 0 && pref.Location != "" {
			tier = tierUnfiltered
			matched, err = r.attempt(ctx, pref, "")
		}
	}

	if err != nil {
		span.RecordError(err)
		r.metrics.ObserveCatalogError()
		r.logger.Warn("catalog: remote retrieval failed, using fallback dataset", "error", err)
		matched = nil
	}

	if len(matched) == 0 {
		tier = tierFallback
		matched = filterOpportunities(r.fallback, pref)
	}

	if len(matched) > r.max {
		matched = matched[:r.max]
	}

	span.SetAttributes(
		attribute.String("retrieval.tier", tier),
		attribute.Int("retrieval.results", len(matched)),
	)
	r.metrics.ObserveTier(tier)
	r.metrics.ObserveResultCount(len(matched))
	r.logger.Debug("catalog: retrieval complete",
		"tier", tier,
		"results", len(matched),
		"location", pref.Location,
	)
	return matched
}

// attempt queries the remote catalog and applies the local filters.
func (r *Retriever) attempt(ctx context.Context, pref Preference, location string) ([]Opportunity, error) {
	list, err := r.client.List(ctx, location)
	if err != nil {
		return nil, err
	}
	return filterOpportunities(list, pref), nil
}

// filterOpportunities applies the location and keyword filters to a
// candidate list, preserving catalog order.
func filterOpportunities(list []Opportunity, pref Preference) []Opportunity {
	var out []Opportunity
	for _, opp := range list {
		if matchesLocation(opp, pref.Location) && matchesKeywords(opp, pref.Keywords) {
			out = append(out, opp)
		}
	}
	return out
}

// matchesLocation is bidirectional: "boca" matches "Boca Raton, FL" and
// "boca raton florida" matches "Boca Raton".
func matchesLocation(opp Opportunity, location string) bool {
	if location == "" {
		return true
	}
	return textmatch.FuzzyContains(location, opp.Location) ||
		textmatch.FuzzyContains(opp.Location, location)
}

func matchesKeywords(opp Opportunity, keywords string) bool {
	if keywords == "" {
		return true
	}
	return textmatch.FuzzyContains(keywords, opp.Title) ||
		textmatch.FuzzyContains(keywords, opp.Description) ||
		textmatch.FuzzyContains(keywords, opp.TagText())
}
