package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/tally/internal/filter"
	"github.com/five82/tally/internal/finala"
)

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	ExecutionID      string
	Executions       []finala.Execution
	ExecutionsLoaded bool

	Summary       finala.Summary
	SummaryLoaded bool
	IsScanning    bool

	Resource      string
	Rows          []finala.Row
	Headers       []string
	DetailLoaded  bool
	DetailMessage string // scan-reported failure for the selected resource
	DetailError   error

	Vocabulary        finala.Vocabulary
	VocabularyPending bool // a refresh is parked until the picker closes
	PickerOpen        bool

	Filters    []filter.Filter
	Pending    filter.Filter
	HasPending bool
	Query      string

	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive summary failures
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Waiting reports whether the backend has no executions yet.
func (s Snapshot) Waiting() bool {
	return s.ExecutionsLoaded && len(s.Executions) == 0
}

// View is the canonical state mirrored into the snapshot after every change.
type View struct {
	ExecutionID string
	Filters     []filter.Filter
	Pending     *filter.Filter
	Resource    string
	Query       string
}

// Store coordinates concurrent updates to the snapshot. Each poller writes
// only its own slot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	parked   *finala.Vocabulary

	summaryKey string // fetch key of the summary on screen
	detailKey  string // fetch key of the rows on screen
}

// SetView records the canonical state. Switching execution drops every slot
// that belonged to the previous one; switching resource drops the rows.
func (s *Store) SetView(v View) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v.ExecutionID != s.snapshot.ExecutionID {
		s.snapshot.Summary = nil
		s.snapshot.SummaryLoaded = false
		s.snapshot.IsScanning = false
		s.snapshot.Vocabulary = finala.Vocabulary{}
		s.snapshot.VocabularyPending = false
		s.parked = nil
		s.summaryKey = ""
		s.clearDetailLocked()
	}
	if v.Resource != s.snapshot.Resource {
		s.clearDetailLocked()
	}
	s.snapshot.ExecutionID = v.ExecutionID
	s.snapshot.Resource = v.Resource
	s.snapshot.Filters = cloneFilters(v.Filters)
	if v.Pending != nil {
		s.snapshot.Pending = *v.Pending
		s.snapshot.HasPending = true
	} else {
		s.snapshot.Pending = filter.Filter{}
		s.snapshot.HasPending = false
	}
	s.snapshot.Query = v.Query
}

// UpdateExecutions records the execution list. When err is non-nil the
// previous list is kept.
func (s *Store) UpdateExecutions(list []finala.Execution, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastUpdated = time.Now()
	if err != nil {
		s.snapshot.LastError = err
		return
	}
	s.snapshot.Executions = cloneExecutions(list)
	s.snapshot.ExecutionsLoaded = true
}

// UpdateSummary replaces the summary wholesale. key identifies the request
// (execution and settled filters). When err is non-nil the error is recorded
// and the previous data is kept only if it was fetched for the same key.
func (s *Store) UpdateSummary(key string, summary finala.Summary, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastUpdated = time.Now()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		if key != s.summaryKey {
			s.snapshot.Summary = nil
			s.snapshot.SummaryLoaded = false
			s.snapshot.IsScanning = false
			s.summaryKey = ""
		}
		return
	}

	s.snapshot.Summary = summary.Clone()
	if s.snapshot.Summary == nil {
		s.snapshot.Summary = finala.Summary{}
	}
	s.snapshot.SummaryLoaded = true
	s.snapshot.IsScanning = summary.Scanning()
	s.summaryKey = key
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// UpdateDetail replaces the rows for resource. Results for a resource that is
// no longer selected are ignored. When err is non-nil the previous rows stay
// only if they were fetched for the same key.
func (s *Store) UpdateDetail(resource, key string, rows []finala.Row, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if resource != s.snapshot.Resource {
		return
	}
	if err != nil {
		if key != s.detailKey {
			s.clearDetailLocked()
		}
		s.snapshot.DetailError = err
		return
	}
	s.detailKey = key
	s.snapshot.Rows = cloneRows(rows)
	s.snapshot.Headers = finala.Headers(rows)
	s.snapshot.DetailLoaded = true
	s.snapshot.DetailMessage = ""
	s.snapshot.DetailError = nil
}

// FailDetail shows a scan-reported failure for resource in place of rows.
func (s *Store) FailDetail(resource, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if resource != s.snapshot.Resource {
		return
	}
	s.snapshot.Rows = nil
	s.snapshot.Headers = nil
	s.detailKey = ""
	s.snapshot.DetailLoaded = true
	s.snapshot.DetailMessage = message
	s.snapshot.DetailError = nil
}

// ClearDetail drops the rows immediately.
func (s *Store) ClearDetail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearDetailLocked()
}

// UpdateVocabulary stores the filter vocabulary. While the picker is open the
// value is parked and applied when it closes.
func (s *Store) UpdateVocabulary(v finala.Vocabulary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dup := v.Clone()
	if s.snapshot.PickerOpen {
		s.parked = &dup
		s.snapshot.VocabularyPending = true
		return
	}
	s.snapshot.Vocabulary = dup
}

// SetPickerOpen tracks whether the filter picker is showing options.
// Closing it promotes any parked vocabulary.
func (s *Store) SetPickerOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.PickerOpen = open
	if !open && s.parked != nil {
		s.snapshot.Vocabulary = *s.parked
		s.parked = nil
		s.snapshot.VocabularyPending = false
	}
}

// SummaryEntry returns the latest summary entry for resource.
func (s *Store) SummaryEntry(resource string) (finala.SummaryEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.snapshot.Summary[resource]
	return entry, ok
}

// DetailMessage returns the scan-reported failure currently shown.
func (s *Store) DetailMessage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.DetailMessage
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Executions = cloneExecutions(s.snapshot.Executions)
	snap.Summary = s.snapshot.Summary.Clone()
	snap.Rows = cloneRows(s.snapshot.Rows)
	snap.Headers = append([]string(nil), s.snapshot.Headers...)
	snap.Vocabulary = s.snapshot.Vocabulary.Clone()
	snap.Filters = cloneFilters(s.snapshot.Filters)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func (s *Store) clearDetailLocked() {
	s.detailKey = ""
	s.snapshot.Rows = nil
	s.snapshot.Headers = nil
	s.snapshot.DetailLoaded = false
	s.snapshot.DetailMessage = ""
	s.snapshot.DetailError = nil
}

func cloneExecutions(items []finala.Execution) []finala.Execution {
	if len(items) == 0 {
		return nil
	}
	dup := make([]finala.Execution, len(items))
	copy(dup, items)
	return dup
}

func cloneRows(rows []finala.Row) []finala.Row {
	if len(rows) == 0 {
		return nil
	}
	dup := make([]finala.Row, len(rows))
	for i, row := range rows {
		dup[i] = append(finala.Row(nil), row...)
	}
	return dup
}

func cloneFilters(filters []filter.Filter) []filter.Filter {
	if len(filters) == 0 {
		return nil
	}
	dup := make([]filter.Filter, len(filters))
	copy(dup, filters)
	return dup
}
