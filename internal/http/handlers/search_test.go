package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volunteerhub/assistant/internal/catalog"
)

type stubRetriever struct {
	results []catalog.Opportunity
	prefs   []catalog.Preference
}

func (s *stubRetriever) Retrieve(_ context.Context, pref catalog.Preference) []catalog.Opportunity {
	s.prefs = append(s.prefs, pref)
	return s.results
}

func TestSearchExtractsAndRetrieves(t *testing.T) {
	retriever := &stubRetriever{results: []catalog.Opportunity{
		{ID: "2", Title: "Beach Cleanup Crew", Organization: "OceanCare"},
	}}
	h := NewSearchHandler(retriever, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/opportunities/search?q=beach+cleanup+in+Boca+Raton", nil)
	w := httptest.NewRecorder()
	h.Search(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Query         string                `json:"query"`
		Location      string                `json:"location"`
		Keywords      string                `json:"keywords"`
		Opportunities []catalog.Opportunity `json:"opportunities"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "beach cleanup in Boca Raton", resp.Query)
	assert.Equal(t, "boca raton", resp.Location)
	assert.Equal(t, "beach cleanup", resp.Keywords)
	require.Len(t, resp.Opportunities, 1)
	assert.Equal(t, "Beach Cleanup Crew", resp.Opportunities[0].Title)

	require.Len(t, retriever.prefs, 1)
	assert.Equal(t, "boca raton", retriever.prefs[0].Location)
}

func TestSearchRequiresQuery(t *testing.T) {
	h := NewSearchHandler(&stubRetriever{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/opportunities/search", nil)
	w := httptest.NewRecorder()
	h.Search(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchEmptyPreferenceSkipsRetrieval(t *testing.T) {
	retriever := &stubRetriever{}
	h := NewSearchHandler(retriever, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/opportunities/search?q=%3F%3F", nil)
	w := httptest.NewRecorder()
	h.Search(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, retriever.prefs)
	assert.Contains(t, w.Body.String(), `"opportunities":[]`)
}
