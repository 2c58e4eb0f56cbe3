package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"

	"github.com/five82/tally/internal/finala"
)

// Chrome rows outside the panes: header, filter bar, command bar, footer.
const chromeRows = 4

func (m Model) bodyHeight() int {
	return max(m.height-chromeRows, 3)
}

func (m Model) summaryWidth() int {
	if m.snapshot.Resource == "" {
		return m.width
	}
	if m.width >= 160 {
		return m.width * 30 / 100
	}
	return m.width * 40 / 100
}

func (m Model) detailWidth() int {
	return max(m.width-m.summaryWidth(), 0)
}

// syncDetail loads the snapshot rows into the table, keeping the cursor when
// the resource did not change.
func (m *Model) syncDetail() {
	snap := m.snapshot
	cursor := 0
	if snap.Resource == m.detailIdent {
		cursor = m.detail.Cursor()
	}
	m.detailIdent = snap.Resource

	rows := detailRows(snap.Headers, snap.Rows)
	m.detail.SetRows(nil)
	m.detail.SetColumns(detailColumns(snap.Headers, m.detailWidth()-2))
	m.detail.SetRows(rows)
	if cursor < len(rows) {
		m.detail.SetCursor(cursor)
	}
	m.layoutDetail()
}

// layoutDetail sizes the table to the detail pane.
func (m *Model) layoutDetail() {
	if !m.ready {
		return
	}
	// Borders and the status line under the table.
	m.detail.SetHeight(max(m.bodyHeight()-3, 1))
	m.detail.SetWidth(max(m.detailWidth()-2, 1))
	m.detail.SetColumns(detailColumns(m.snapshot.Headers, m.detailWidth()-2))
}

func (m *Model) focusDetail() {
	if m.focusedPane == paneDetail {
		m.detail.Focus()
		return
	}
	m.detail.Blur()
}

func detailColumns(headers []string, width int) []table.Column {
	if len(headers) == 0 {
		return nil
	}
	// Each cell carries one column of padding on either side.
	per := max(width/len(headers)-2, 8)
	cols := make([]table.Column, 0, len(headers))
	for _, h := range headers {
		cols = append(cols, table.Column{Title: h, Width: per})
	}
	return cols
}

func detailRows(headers []string, rows []finala.Row) []table.Row {
	out := make([]table.Row, 0, len(rows))
	for _, row := range rows {
		cells := make(table.Row, len(headers))
		for i, h := range headers {
			if v, ok := row.Get(h); ok && v != nil {
				cells[i] = fmt.Sprint(v)
			}
		}
		out = append(out, cells)
	}
	return out
}

func (m Model) renderDetailContent() string {
	styles := m.theme.Styles()
	snap := m.snapshot
	switch {
	case snap.DetailMessage != "":
		return styles.DangerText.Render(snap.DetailMessage)
	case !snap.DetailLoaded && snap.DetailError == nil:
		return m.spin.View() + " " + styles.MutedText.Render("Loading "+snap.Resource+"...")
	case len(snap.Rows) == 0 && snap.DetailError != nil:
		return styles.WarningText.Render("Retrying: " + snap.DetailError.Error())
	case len(snap.Rows) == 0:
		return styles.MutedText.Render("No resources found")
	}

	status := styles.FaintText.Render(fmt.Sprintf("%d resources", len(snap.Rows)))
	if entry, ok := snap.Summary[snap.Resource]; ok && entry.Status == finala.StatusScanning {
		status = m.spin.View() + " " + styles.InfoText.Render("still scanning") + "  " + status
	}
	if snap.DetailError != nil {
		status += "  " + styles.WarningText.Render("Retrying: "+snap.DetailError.Error())
	}
	return m.detail.View() + "\n" + status
}
