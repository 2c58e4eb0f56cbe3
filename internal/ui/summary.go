package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/tally/internal/finala"
)

// renderMain lays out header, filter bar, panes, command bar and footer.
func (m Model) renderMain() string {
	body := m.renderBody()
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderFilterBar(),
		body,
		m.renderCommandBar(),
		m.renderFooter(),
	)
}

func (m Model) renderBody() string {
	styles := m.theme.Styles()
	height := m.bodyHeight()
	snap := m.snapshot

	if snap.ExecutionID == "" || (!snap.SummaryLoaded && snap.LastError == nil) {
		msg := m.spin.View() + " " + styles.MutedText.Render("Waiting for data...")
		if snap.Waiting() {
			msg = styles.MutedText.Render("No executions yet. Checking again shortly.")
		}
		return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, msg)
	}

	summaryWidth := m.summaryWidth()
	summaryPane := m.renderTitledBox(m.summaryTitle(), m.renderSummaryList(summaryWidth-2), summaryWidth, height, m.focusedPane == paneSummary)
	if snap.Resource == "" {
		return summaryPane
	}
	detailPane := m.renderTitledBox(snap.Resource, m.renderDetailContent(), m.detailWidth(), height, m.focusedPane == paneDetail)
	return lipgloss.JoinHorizontal(lipgloss.Top, summaryPane, detailPane)
}

func (m Model) summaryTitle() string {
	n := len(m.snapshot.Summary)
	if n == 0 {
		return "Resources"
	}
	return fmt.Sprintf("Resources (%d)", n)
}

// renderSummaryList renders one row per resource type, highest spend first.
func (m Model) renderSummaryList(width int) string {
	styles := m.theme.Styles()
	snap := m.snapshot
	names := snap.Summary.Names()
	if len(names) == 0 {
		if snap.LastError != nil {
			return styles.WarningText.Render("Summary unavailable, retrying")
		}
		return styles.MutedText.Render("No resources reported")
	}

	visible := max(m.bodyHeight()-2, 1)
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	end := min(start+visible, len(names))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		name := names[i]
		entry := snap.Summary[name]
		selected := i == m.cursor
		active := name == snap.Resource
		lines = append(lines, m.formatSummaryRow(entry, name, width, selected, active))
	}
	return strings.Join(lines, "\n")
}

// formatSummaryRow formats "marker name · count · $spent".
func (m Model) formatSummaryRow(entry finala.SummaryEntry, name string, width int, selected, active bool) string {
	marker := " "
	switch entry.Status {
	case finala.StatusScanning:
		marker = m.spin.View()
	case finala.StatusError:
		marker = "!"
	}
	if active {
		marker = "▶"
	}

	right := fmt.Sprintf("%d · %s", entry.ResourceCount, money(entry.TotalSpent))
	if entry.Status == finala.StatusError {
		right = "error"
	}
	nameWidth := max(width-lipgloss.Width(right)-4, 6)
	label := fmt.Sprintf("%-*s", nameWidth, truncate(name, nameWidth))

	if selected {
		return lipgloss.NewStyle().
			Background(lipgloss.Color(m.theme.SelectionBg)).
			Foreground(lipgloss.Color(m.theme.SelectionText)).
			Width(width).
			Render(marker + " " + label + " " + right)
	}

	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.StatusColor(entry.Status)))
	styles := m.theme.Styles()
	return statusStyle.Render(marker) + " " + styles.Text.Render(label) + " " + styles.MutedText.Render(right)
}

// renderTitledBox renders content in a box with the title in the top border.
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	borderColor := m.theme.Border
	if focused {
		borderColor = m.theme.BorderFocus
	}
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColor))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	innerWidth := max(width-2, 0)
	title = truncate(title, max(innerWidth-4, 0))
	titleLen := lipgloss.Width(title)
	leftPad := max((innerWidth-titleLen-2)/2, 0)
	rightPad := max(innerWidth-titleLen-2-leftPad, 0)

	top := borderStyle.Render("┌"+strings.Repeat("─", leftPad)) +
		titleStyle.Render(" "+title+" ") +
		borderStyle.Render(strings.Repeat("─", rightPad)+"┐")
	bottom := borderStyle.Render("└" + strings.Repeat("─", innerWidth) + "┘")

	contentStyle := lipgloss.NewStyle().Width(innerWidth).MaxWidth(innerWidth)
	contentLines := strings.Split(content, "\n")
	boxHeight := max(height-2, 0)

	lines := make([]string, 0, boxHeight+2)
	lines = append(lines, top)
	for i := 0; i < boxHeight; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		lines = append(lines, borderStyle.Render("│")+contentStyle.Render(line)+borderStyle.Render("│"))
	}
	lines = append(lines, bottom)
	return strings.Join(lines, "\n")
}
