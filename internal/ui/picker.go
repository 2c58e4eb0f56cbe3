package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/tally/internal/filter"
	"github.com/five82/tally/internal/state"
)

type pickerKind int

const (
	pickExecution pickerKind = iota
	pickTagKey
	pickTagValue
	pickAccount
)

type pickerItem struct {
	label string
	value string
	note  string
}

// picker is a modal list rebuilt from each snapshot. Vocabulary refreshes are
// parked while a filter picker is open, so its items hold still.
type picker struct {
	kind   pickerKind
	tagKey string
	items  []pickerItem
	cursor int
}

func (p picker) title() string {
	switch p.kind {
	case pickExecution:
		return "Executions"
	case pickTagKey:
		return "Tag key"
	case pickTagValue:
		return "Value for " + p.tagKey
	case pickAccount:
		return "Accounts"
	default:
		return ""
	}
}

func (p *picker) refresh(snap state.Snapshot) {
	p.items = pickerItems(p.kind, p.tagKey, snap)
	if p.cursor >= len(p.items) {
		p.cursor = max(len(p.items)-1, 0)
	}
}

func (p *picker) move(delta int) {
	if len(p.items) == 0 {
		return
	}
	p.cursor = min(max(p.cursor+delta, 0), len(p.items)-1)
}

func (p picker) selected() (pickerItem, bool) {
	if p.cursor < 0 || p.cursor >= len(p.items) {
		return pickerItem{}, false
	}
	return p.items[p.cursor], true
}

func pickerItems(kind pickerKind, tagKey string, snap state.Snapshot) []pickerItem {
	var items []pickerItem
	switch kind {
	case pickExecution:
		for _, e := range snap.Executions {
			note := ""
			if !e.Time.IsZero() {
				note = e.Time.Local().Format("2006-01-02 15:04")
			}
			if e.ID == snap.ExecutionID {
				note = strings.TrimSpace(note + " (current)")
			}
			items = append(items, pickerItem{label: e.Name, value: e.ID, note: note})
		}
	case pickTagKey:
		for _, k := range snap.Vocabulary.TagKeys() {
			items = append(items, pickerItem{
				label: k,
				value: k,
				note:  fmt.Sprintf("%d values", len(snap.Vocabulary.Tags[k])),
			})
		}
	case pickTagValue:
		for _, v := range snap.Vocabulary.Tags[tagKey] {
			items = append(items, pickerItem{label: v, value: v})
		}
	case pickAccount:
		for _, a := range snap.Vocabulary.Accounts {
			label := a.Name
			if label == "" {
				label = a.ID
			}
			items = append(items, pickerItem{label: label, value: a.ID, note: a.ID})
		}
	}
	return items
}

// openPicker shows a picker. Filter pickers mark the picker open so a
// vocabulary refresh is parked until they close.
func (m Model) openPicker(kind pickerKind) (tea.Model, tea.Cmd) {
	p := picker{kind: kind}
	p.refresh(m.snapshot)
	if len(p.items) == 0 {
		switch kind {
		case pickExecution:
			m.notice = "No executions yet"
		case pickAccount:
			m.notice = "No accounts loaded yet"
		default:
			m.notice = "No tags loaded yet"
		}
		return m, nil
	}
	if kind == pickExecution {
		for i, item := range p.items {
			if item.value == m.snapshot.ExecutionID {
				p.cursor = i
			}
		}
	}
	if kind == pickTagKey || kind == pickAccount {
		m.ctrl.SetPickerOpen(true)
	}
	m.picker = p
	m.overlay = overlayPicker
	return m, nil
}

func (m Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Escape), key.Matches(msg, k.Quit):
		m.cancelPicker()
		return m, nil
	case key.Matches(msg, k.Up):
		m.picker.move(-1)
	case key.Matches(msg, k.Down):
		m.picker.move(1)
	case key.Matches(msg, k.Top):
		m.picker.cursor = 0
	case key.Matches(msg, k.Bottom):
		m.picker.move(len(m.picker.items))
	case key.Matches(msg, k.Confirm):
		item, ok := m.picker.selected()
		if !ok {
			return m, nil
		}
		switch m.picker.kind {
		case pickExecution:
			m.overlay = overlayNone
			m.ctrl.SelectExecution(item.value)
		case pickTagKey:
			// The placeholder stays visible in the filter bar while the
			// value is picked.
			m.ctrl.BeginTagFilter(item.value)
			m.picker = picker{kind: pickTagValue, tagKey: item.value}
			m.picker.refresh(m.snapshot)
		case pickTagValue:
			m.overlay = overlayNone
			m.ctrl.CompleteTagFilter(item.value)
		case pickAccount:
			m.overlay = overlayNone
			m.ctrl.AddFilter(filter.Account(item.value, item.label))
			m.ctrl.SetPickerOpen(false)
		}
	}
	return m, nil
}

// cancelPicker dismisses the picker without applying a choice.
func (m *Model) cancelPicker() {
	switch m.picker.kind {
	case pickTagValue:
		m.ctrl.CancelTagFilter()
	case pickTagKey, pickAccount:
		m.ctrl.SetPickerOpen(false)
	}
	m.overlay = overlayNone
}

func (m Model) renderPicker() string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(m.picker.title()))
	b.WriteString("\n\n")

	visible := max(m.height-10, 5)
	start := 0
	if m.picker.cursor >= visible {
		start = m.picker.cursor - visible + 1
	}
	end := min(start+visible, len(m.picker.items))
	width := min(max(m.width/2, 30), 70)

	for i := start; i < end; i++ {
		item := m.picker.items[i]
		line := truncate(item.label, width-18)
		if item.note != "" {
			line = fmt.Sprintf("%-*s %s", width-18, line, styles.MutedText.Render(item.note))
		}
		if i == m.picker.cursor {
			line = lipgloss.NewStyle().
				Background(lipgloss.Color(m.theme.SelectionBg)).
				Foreground(lipgloss.Color(m.theme.SelectionText)).
				Width(width).
				Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("enter select · esc cancel"))

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(width + 4).
		Render(b.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}
