package urlstate

import (
	"net/url"
	"strings"

	"github.com/five82/tally/internal/filter"
)

const (
	paramExecution = "executionId"
	paramFilters   = "filters"
)

// State is the canonical view triple mirrored into the shareable query.
type State struct {
	ExecutionID string
	Filters     []filter.Filter
	Resource    string
}

// IsZero reports whether s is the default state.
func (s State) IsZero() bool {
	return s.ExecutionID == "" && len(s.Filters) == 0 && s.Resource == ""
}

// readable restores the filter separators after query escaping. The result
// is not strictly URI encoded; keeping key:value;key:v1,v2 legible in the
// footer and in shared links is intentional.
var readable = strings.NewReplacer("%3A", ":", "%2C", ",", "%3B", ";")

// Encode renders s as executionId=<id>&filters=<tokens>. Empty parts are
// omitted. A selected resource without a matching resource filter is added
// to the tokens.
//
// Values are grouped per key in first-seen order, so a round trip keeps the
// filter set but not the order of interleaved keys. Tag tokens split on the
// last colon: a value that itself contains ':' comes back under a longer key.
func Encode(s State) string {
	values := url.Values{}
	if id := strings.TrimSpace(s.ExecutionID); id != "" {
		values.Set(paramExecution, id)
	}

	filters := s.Filters
	if s.Resource != "" && !hasResource(filters, s.Resource) {
		filters = append([]filter.Filter{filter.Resource(s.Resource)}, filters...)
	}
	if tokens := filter.FormatTokens(filters); tokens != "" {
		values.Set(paramFilters, tokens)
	}
	if len(values) == 0 {
		return ""
	}
	return readable.Replace(values.Encode())
}

// Decode parses a query string, a query with a leading '?', or a full URL.
// Empty or malformed input yields the default state.
func Decode(raw string) State {
	query := strings.TrimSpace(raw)
	if strings.Contains(query, "://") {
		u, err := url.Parse(query)
		if err != nil {
			return State{}
		}
		query = u.RawQuery
	}
	query = strings.TrimPrefix(query, "?")
	if query == "" {
		return State{}
	}

	// net/url rejects bare semicolons, which Encode leaves readable.
	values, err := url.ParseQuery(strings.ReplaceAll(query, ";", "%3B"))
	if err != nil {
		return State{}
	}

	var s State
	s.ExecutionID = strings.TrimSpace(values.Get(paramExecution))

	parsed, _ := filter.ParseTokens(values.Get(paramFilters))
	store := filter.NewStore(parsed...)
	s.Filters = store.List()
	s.Resource, _ = store.Resource()
	return s
}

func hasResource(filters []filter.Filter, name string) bool {
	for _, f := range filters {
		if f.Type == filter.TypeResource && f.Value == name {
			return true
		}
	}
	return false
}
