// Package catalog provides access to the volunteer opportunity catalog:
// an HTTP client for the remote listing API, a bundled fallback dataset,
// preference extraction from free text, and the tiered retrieval engine
// shared by the assistant and the listing search endpoint.
package catalog

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ID is an opportunity identifier. The catalog API serves ids as either
// JSON numbers or strings; they are compared as strings.
type ID string

// UnmarshalJSON accepts both string and numeric ids.
func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// IDFromInt builds an ID from a numeric identifier.
func IDFromInt(n int) ID { return ID(strconv.Itoa(n)) }

// Opportunity is a volunteer opportunity as served by the catalog.
// Records are immutable once fetched; identity is ID.
type Opportunity struct {
	ID           ID       `json:"id"`
	Title        string   `json:"title"`
	Organization string   `json:"organization,omitempty"`
	Location     string   `json:"location,omitempty"`
	Category     string   `json:"category,omitempty"`
	Description  string   `json:"description,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Date         string   `json:"date,omitempty"`
}

// TagText joins the tag list into a single searchable string.
func (o Opportunity) TagText() string {
	return strings.Join(o.Tags, " ")
}
