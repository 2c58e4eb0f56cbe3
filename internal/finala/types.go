package finala

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Status mirrors the collector event status reported per resource type.
type Status int

const (
	StatusScanning Status = iota
	StatusError
	StatusComplete
)

func (s Status) String() string {
	switch s {
	case StatusScanning:
		return "scanning"
	case StatusError:
		return "error"
	case StatusComplete:
		return "complete"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Settings mirrors /api/v1/settings served next to the UI.
type Settings struct {
	APIEndpoint string `json:"api_endpoint"`
}

// Execution describes a single collector run.
type Execution struct {
	ID   string    `json:"ID"`
	Name string    `json:"Name"`
	Time time.Time `json:"Time"`
}

// SummaryEntry aggregates findings for one resource type.
type SummaryEntry struct {
	ResourceName  string             `json:"ResourceName"`
	ResourceCount int64              `json:"ResourceCount"`
	TotalSpent    float64            `json:"TotalSpent"`
	SpentAccounts map[string]float64 `json:"SpentAccounts,omitempty"`
	Status        Status             `json:"Status"`
	ErrorMessage  string             `json:"ErrorMessage"`
}

// Summary maps resource names to their aggregate entry.
type Summary map[string]SummaryEntry

// Scanning reports whether any resource type is still being collected.
func (s Summary) Scanning() bool {
	for _, entry := range s {
		if entry.Status == StatusScanning {
			return true
		}
	}
	return false
}

// ScanningResource returns the first still-scanning resource in name order.
func (s Summary) ScanningResource() (string, bool) {
	for _, name := range s.Names() {
		if s[name].Status == StatusScanning {
			return name, true
		}
	}
	return "", false
}

// Names returns resource names sorted by total spend, highest first.
func (s Summary) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := s[names[i]], s[names[j]]
		if a.TotalSpent != b.TotalSpent {
			return a.TotalSpent > b.TotalSpent
		}
		return names[i] < names[j]
	})
	return names
}

// TotalSpent sums spend across every entry.
func (s Summary) TotalSpent() float64 {
	var total float64
	for _, entry := range s {
		total += entry.TotalSpent
	}
	return total
}

// DailySpent spreads the total over a 30-day month.
func (s Summary) DailySpent() float64 {
	return s.TotalSpent() / 30
}

// Highest returns the resource with the largest positive spend.
func (s Summary) Highest() (string, bool) {
	names := s.Names()
	if len(names) == 0 || s[names[0]].TotalSpent <= 0 {
		return "", false
	}
	return names[0], true
}

// Clone returns a deep copy.
func (s Summary) Clone() Summary {
	if s == nil {
		return nil
	}
	dup := make(Summary, len(s))
	for name, entry := range s {
		if entry.SpentAccounts != nil {
			accounts := make(map[string]float64, len(entry.SpentAccounts))
			for id, v := range entry.SpentAccounts {
				accounts[id] = v
			}
			entry.SpentAccounts = accounts
		}
		dup[name] = entry
	}
	return dup
}

// Field is a single named value inside a resource row.
type Field struct {
	Name  string
	Value any
}

// Row is one resource finding. Field order follows the JSON payload.
type Row []Field

// Get returns the value for name.
func (r Row) Get(name string) (any, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// UnmarshalJSON decodes a JSON object keeping key order.
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("row: expected object, got %v", tok)
	}
	var out Row
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("row: expected key, got %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("row: field %q: %w", key, err)
		}
		out = append(out, Field{Name: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = out
	return nil
}

// MarshalJSON encodes the row as an object in field order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type resourceEnvelope struct {
	Data Row `json:"Data"`
}

// headerExclude lists fields that are never shown as columns.
var headerExclude = map[string]struct{}{
	"TotalSpendPrice": {},
}

// Headers infers the column set from the first row.
func Headers(rows []Row) []string {
	if len(rows) == 0 {
		return nil
	}
	headers := make([]string, 0, len(rows[0]))
	for _, f := range rows[0] {
		if _, skip := headerExclude[f.Name]; skip {
			continue
		}
		headers = append(headers, f.Name)
	}
	return headers
}

// Account identifies a cloud account seen by an execution.
type Account struct {
	ID   string `json:"ID"`
	Name string `json:"Name"`
}

// Vocabulary is the set of values available for building filters.
type Vocabulary struct {
	Tags     map[string][]string
	Accounts []Account
}

// TagKeys returns the tag keys in sorted order.
func (v Vocabulary) TagKeys() []string {
	keys := make([]string, 0, len(v.Tags))
	for k := range v.Tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy.
func (v Vocabulary) Clone() Vocabulary {
	out := Vocabulary{}
	if v.Tags != nil {
		out.Tags = make(map[string][]string, len(v.Tags))
		for k, vals := range v.Tags {
			out.Tags[k] = append([]string(nil), vals...)
		}
	}
	if v.Accounts != nil {
		out.Accounts = append([]Account(nil), v.Accounts...)
	}
	return out
}
