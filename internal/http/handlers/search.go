// Package handlers holds the plain HTTP endpoints that sit outside the
// webchat surface.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/volunteerhub/assistant/internal/assistant"
	"github.com/volunteerhub/assistant/internal/catalog"
	"github.com/volunteerhub/assistant/pkg/logging"
)

// SearchHandler serves the listing-page search box. It runs the same
// preference extraction and retrieval pipeline as the assistant, so the
// two surfaces cannot drift apart.
type SearchHandler struct {
	retriever assistant.Retriever
	logger    *logging.Logger
}

// NewSearchHandler creates a search handler.
func NewSearchHandler(retriever assistant.Retriever, logger *logging.Logger) *SearchHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &SearchHandler{retriever: retriever, logger: logger}
}

type searchResponse struct {
	Query         string                `json:"query"`
	Location      string                `json:"location,omitempty"`
	Keywords      string                `json:"keywords,omitempty"`
	Opportunities []catalog.Opportunity `json:"opportunities"`
}

// Search handles GET /api/opportunities/search?q=<free text>.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		http.Error(w, "q parameter required", http.StatusBadRequest)
		return
	}

	pref := catalog.ExtractPreferences(query)

	resp := searchResponse{
		Query:         query,
		Location:      pref.Location,
		Keywords:      pref.Keywords,
		Opportunities: []catalog.Opportunity{},
	}
	if !pref.Empty() {
		if results := h.retriever.Retrieve(r.Context(), pref); results != nil {
			resp.Opportunities = results
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("handlers: failed to encode search response", "error", err)
	}
}
