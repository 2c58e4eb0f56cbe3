package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/five82/tally/internal/finala"
)

type summaryItem struct {
	Resource      string             `json:"resource"`
	Status        string             `json:"status"`
	ResourceCount int64              `json:"resourceCount"`
	TotalSpent    float64            `json:"totalSpent"`
	SpentAccounts map[string]float64 `json:"spentAccounts,omitempty"`
	Error         string             `json:"error,omitempty"`
}

type summaryOutput struct {
	ExecutionID string        `json:"executionId"`
	Scanning    bool          `json:"scanning"`
	TotalSpent  float64       `json:"totalSpent"`
	Resources   []summaryItem `json:"resources"`
}

// RenderSummary writes one line per resource type, highest spend first.
func (f *Formatter) RenderSummary(w io.Writer, executionID string, summary finala.Summary) error {
	names := summary.Names()
	if f.Format == FormatJSON {
		out := summaryOutput{
			ExecutionID: executionID,
			Scanning:    summary.Scanning(),
			TotalSpent:  summary.TotalSpent(),
			Resources:   make([]summaryItem, 0, len(names)),
		}
		for _, name := range names {
			e := summary[name]
			out.Resources = append(out.Resources, summaryItem{
				Resource:      name,
				Status:        e.Status.String(),
				ResourceCount: e.ResourceCount,
				TotalSpent:    e.TotalSpent,
				SpentAccounts: e.SpentAccounts,
				Error:         e.ErrorMessage,
			})
		}
		return f.writeJSON(w, out)
	}

	tw := f.newTable(w)
	tw.AppendHeader(table.Row{"Resource", "Status", "Count", "Spent", "Error"})
	for _, name := range names {
		e := summary[name]
		tw.AppendRow(table.Row{name, f.statusCell(e.Status), e.ResourceCount, money(e.TotalSpent), e.ErrorMessage})
	}
	if f.Format == FormatConsole {
		tw.AppendFooter(table.Row{"Total", "", "", money(summary.TotalSpent()), ""})
	}
	tw.SetColumnConfigs(f.columnConfigs(w, 5))
	if err := f.render(tw); err != nil {
		return err
	}
	if f.Format == FormatConsole && summary.Scanning() {
		if _, err := fmt.Fprintln(w, "Scan in progress, totals may still change."); err != nil {
			return fmt.Errorf("write scanning note: %w", err)
		}
	}
	return nil
}

type resourcesOutput struct {
	Resource string       `json:"resource"`
	Headers  []string     `json:"headers"`
	Rows     []finala.Row `json:"rows"`
}

// RenderResources writes the detail rows of one resource type. Columns come
// from the first row.
func (f *Formatter) RenderResources(w io.Writer, resource string, rows []finala.Row) error {
	headers := finala.Headers(rows)
	if f.Format == FormatJSON {
		if rows == nil {
			rows = []finala.Row{}
		}
		return f.writeJSON(w, resourcesOutput{Resource: resource, Headers: headers, Rows: rows})
	}

	tw := f.newTable(w)
	if f.Format == FormatConsole {
		tw.SetTitle(resource)
	}
	header := make(table.Row, 0, len(headers))
	for _, h := range headers {
		header = append(header, h)
	}
	tw.AppendHeader(header)
	for _, row := range rows {
		cells := make(table.Row, 0, len(headers))
		for _, h := range headers {
			v, ok := row.Get(h)
			if !ok || v == nil {
				cells = append(cells, "")
				continue
			}
			cells = append(cells, fmt.Sprint(v))
		}
		tw.AppendRow(cells)
	}
	tw.SetColumnConfigs(f.columnConfigs(w, len(headers)))
	return f.render(tw)
}

type executionItem struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	Time time.Time `json:"time"`
}

// RenderExecutions lists executions in the order the API returned them.
func (f *Formatter) RenderExecutions(w io.Writer, list []finala.Execution) error {
	if f.Format == FormatJSON {
		out := make([]executionItem, 0, len(list))
		for _, e := range list {
			out = append(out, executionItem{ID: e.ID, Name: e.Name, Time: e.Time})
		}
		return f.writeJSON(w, out)
	}

	tw := f.newTable(w)
	tw.AppendHeader(table.Row{"ID", "Name", "Time"})
	for _, e := range list {
		when := ""
		if !e.Time.IsZero() {
			when = e.Time.UTC().Format(time.RFC3339)
		}
		tw.AppendRow(table.Row{e.ID, e.Name, when})
	}
	tw.SetColumnConfigs(f.columnConfigs(w, 3))
	return f.render(tw)
}

func (f *Formatter) statusCell(s finala.Status) string {
	switch s {
	case finala.StatusScanning:
		return f.color(s.String(), text.FgYellow)
	case finala.StatusError:
		return f.color(s.String(), text.FgRed)
	default:
		return f.color(s.String(), text.FgGreen)
	}
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
