package filter

// Store holds the active filter set. It is not safe for concurrent use; the
// orchestrator serialises access.
//
// After every operation the list holds no duplicate IDs, at most one
// resource filter, and no incomplete placeholders. The placeholder lives in
// its own slot and is only visible through Pending.
type Store struct {
	filters []Filter
	pending *Filter
}

// NewStore returns a store seeded with filters.
func NewStore(filters ...Filter) *Store {
	s := &Store{}
	s.ReplaceAll(filters)
	return s
}

// Add inserts f. A resource filter replaces any existing one. Adding an
// incomplete filter records it as the pending placeholder; adding anything
// else drops the placeholder. Reports whether the list changed.
func (s *Store) Add(f Filter) bool {
	if f.Type == TypeTagIncomplete {
		s.AddIncomplete(f.Key)
		return false
	}
	s.pending = nil
	if s.indexOf(f.ID) >= 0 {
		return false
	}
	if f.Type == TypeResource {
		s.removeType(TypeResource)
	}
	s.filters = append(s.filters, f)
	return true
}

// Remove drops the filter with id and returns it.
func (s *Store) Remove(id string) (Filter, bool) {
	s.pending = nil
	idx := s.indexOf(id)
	if idx < 0 {
		return Filter{}, false
	}
	removed := s.filters[idx]
	s.filters = append(s.filters[:idx:idx], s.filters[idx+1:]...)
	return removed, true
}

// ReplaceAll swaps in a new filter set. Duplicates are dropped, the last
// resource filter wins, and incomplete placeholders are discarded.
func (s *Store) ReplaceAll(filters []Filter) {
	s.pending = nil
	lastResource := -1
	for i, f := range filters {
		if f.Type == TypeResource {
			lastResource = i
		}
	}
	out := make([]Filter, 0, len(filters))
	seen := make(map[string]struct{}, len(filters))
	for i, f := range filters {
		if f.Type == TypeTagIncomplete {
			continue
		}
		if f.Type == TypeResource && i != lastResource {
			continue
		}
		if _, dup := seen[f.ID]; dup {
			continue
		}
		seen[f.ID] = struct{}{}
		out = append(out, f)
	}
	s.filters = out
}

// LoadFromHistory replaces the set with the filters encoded in raw and
// returns them along with the resource name they carry, if any.
func (s *Store) LoadFromHistory(raw string) ([]Filter, string) {
	filters, resource := ParseTokens(raw)
	s.ReplaceAll(filters)
	return s.List(), resource
}

// AddIncomplete records the placeholder for a tag key awaiting a value.
func (s *Store) AddIncomplete(key string) {
	f := Incomplete(key)
	s.pending = &f
}

// Pending returns the incomplete placeholder, if one is open.
func (s *Store) Pending() (Filter, bool) {
	if s.pending == nil {
		return Filter{}, false
	}
	return *s.pending, true
}

// ClearPending drops the placeholder without touching the list.
func (s *Store) ClearPending() {
	s.pending = nil
}

// List returns a copy of every active filter, resource included.
func (s *Store) List() []Filter {
	if len(s.filters) == 0 {
		return nil
	}
	out := make([]Filter, len(s.filters))
	copy(out, s.filters)
	return out
}

// Settled returns the filters that shape API queries: everything except the
// resource filter.
func (s *Store) Settled() []Filter {
	var out []Filter
	for _, f := range s.filters {
		if f.Type == TypeResource {
			continue
		}
		out = append(out, f)
	}
	return out
}

// SettledKey identifies the settled set; a change means the summary must be
// fetched again.
func (s *Store) SettledKey() string {
	return Key(s.Settled())
}

// Resource returns the resource named by the resource filter.
func (s *Store) Resource() (string, bool) {
	for _, f := range s.filters {
		if f.Type == TypeResource {
			return f.Value, true
		}
	}
	return "", false
}

// Len returns the number of active filters.
func (s *Store) Len() int {
	return len(s.filters)
}

func (s *Store) indexOf(id string) int {
	for i, f := range s.filters {
		if f.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) removeType(t Type) {
	out := s.filters[:0]
	for _, f := range s.filters {
		if f.Type != t {
			out = append(out, f)
		}
	}
	s.filters = out
}
