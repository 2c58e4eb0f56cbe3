package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/tally/internal/filter"
	"github.com/five82/tally/internal/finala"
)

// renderHeader renders the status bar: execution, scan state, monthly and
// daily spend with the costliest resource, then connection health.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := newBarStyle(m.theme.Surface)
	snap := m.snapshot

	parts := []string{bg.Render("tally", styles.Logo)}

	switch {
	case !snap.ExecutionsLoaded && snap.LastError != nil:
		parts = append(parts,
			bg.Render("FINALA "+classifyConnectionError(snap.LastError), styles.DangerText),
			bg.Render("Retrying...", styles.WarningText.Bold(true)))
	case !snap.ExecutionsLoaded:
		parts = append(parts, bg.Render("Connecting to Finala...", styles.WarningText.Bold(true)))
	case snap.Waiting():
		parts = append(parts, bg.Render("Waiting for the first execution...", styles.WarningText.Bold(true)))
	default:
		parts = append(parts, bg.Render(m.executionLabel(), styles.Text.Bold(true)))
		switch {
		case !snap.SummaryLoaded:
			parts = append(parts, bg.Render("Loading...", styles.MutedText))
		case snap.IsScanning:
			label := "Scanning"
			if name, ok := snap.Summary.ScanningResource(); ok {
				label += " " + name
			}
			parts = append(parts, m.spin.View()+bg.Space()+bg.Render(label, styles.InfoText))
		default:
			parts = append(parts, bg.Render("● Complete", styles.SuccessText))
		}
		if snap.SummaryLoaded {
			parts = append(parts,
				bg.Stat("spent", money(snap.Summary.TotalSpent()), styles.FaintText, styles.AccentText),
				bg.Stat("daily", money(snap.Summary.DailySpent()), styles.FaintText, styles.AccentText))
			if name, ok := snap.Summary.Highest(); ok {
				parts = append(parts, bg.Stat("top", name, styles.FaintText, styles.Text))
			}
		}
	}

	if snap.IsOffline() {
		parts = append(parts, bg.Render(fmt.Sprintf("OFFLINE (%d failures)", snap.ConsecutiveFailures), styles.DangerText))
	} else if snap.ConsecutiveFailures > 0 && snap.LastError != nil {
		parts = append(parts, bg.Render("retrying", styles.WarningText))
	}
	if !m.lastUpdated.IsZero() {
		parts = append(parts, bg.Render(m.lastUpdated.Format("15:04:05"), styles.MutedText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

func (m Model) executionLabel() string {
	snap := m.snapshot
	if snap.ExecutionID == "" {
		return "no execution"
	}
	for _, e := range snap.Executions {
		if e.ID == snap.ExecutionID {
			if e.Name != "" {
				return e.Name
			}
			break
		}
	}
	return snap.ExecutionID
}

// renderFilterBar shows the active filters as chips, the pending tag
// placeholder, or the text input while filters are typed.
func (m Model) renderFilterBar() string {
	styles := m.theme.Styles()
	if m.overlay == overlayInput {
		return lipgloss.NewStyle().Width(m.width).Render(m.input.View())
	}

	var chips []string
	for _, f := range m.snapshot.Filters {
		chips = append(chips, styles.Chip.Render(chipLabel(f)))
	}
	if m.snapshot.HasPending {
		chips = append(chips, styles.PendingChip.Render(m.snapshot.Pending.Title))
	}
	if len(chips) == 0 {
		return styles.FaintText.Render(" no filters · / to type, t tag, a account")
	}
	return " " + strings.Join(chips, " ")
}

func chipLabel(f filter.Filter) string {
	if f.Title != "" {
		return f.Title
	}
	return f.ID
}

// renderCommandBar renders the command hints, or a transient notice.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := newBarStyle(m.theme.Surface)

	if m.notice != "" {
		return styles.Header.Width(m.width).Render(bg.Render(m.notice, styles.WarningText))
	}

	type cmd struct{ key, desc string }
	var commands []cmd
	switch {
	case m.overlay == overlayInput:
		commands = []cmd{{"enter", "Apply"}, {"esc", "Cancel"}}
	case m.focusedPane == paneDetail:
		commands = []cmd{{"j/k", "Rows"}, {"tab", "Summary"}, {"x", "Close"}, {"r", "Refresh"}, {"?", "More"}}
	default:
		commands = []cmd{
			{"enter", "Resources"},
			{"e", "Execution"},
			{"/", "Filters"},
			{"t", "Tag"},
			{"a", "Account"},
			{"-", "Remove"},
			{"r", "Refresh"},
			{"?", "More"},
		}
		if m.snapshot.Resource != "" {
			commands = append(commands, cmd{"tab", "Detail"})
		}
	}

	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments, bg.Hint(c.key, c.desc, styles.AccentText, styles.MutedText))
	}
	segments = append(segments, bg.Hint("T", m.theme.Name, styles.AccentText, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}

// renderFooter prints the share query for the current view.
func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	query := m.snapshot.Query
	if query == "" {
		return styles.FaintText.Render(" view: (default)")
	}
	link := "?" + query
	if m.uiURL != "" {
		link = strings.TrimRight(m.uiURL, "/") + "/" + link
	}
	return styles.FaintText.Render(" view: ") + styles.MutedText.Render(truncateMiddle(link, max(m.width-8, 10)))
}

// classifyConnectionError maps transport errors to a short label.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, finala.ErrUnauthorized) {
		return "UNAUTHORIZED"
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "TIMEOUT"
	default:
		return "ERROR"
	}
}

// truncate truncates s to max bytes with an ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// truncateMiddle keeps the start and the end of s.
func truncateMiddle(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	if max <= 5 {
		return s[:max]
	}
	endLen := (max - 3) * 2 / 3
	startLen := max - 3 - endLen
	return s[:startLen] + "..." + s[len(s)-endLen:]
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}
