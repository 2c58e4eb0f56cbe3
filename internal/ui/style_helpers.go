package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// barStyle paints the header and command bars. Every segment, spaces
// included, carries the bar background; lipgloss resets between styled
// segments would otherwise punch holes in it.
type barStyle struct {
	bg    lipgloss.Color
	space string
}

func newBarStyle(bgColor string) barStyle {
	bg := lipgloss.Color(bgColor)
	return barStyle{
		bg:    bg,
		space: lipgloss.NewStyle().Background(bg).Render(" "),
	}
}

// Render styles text word by word on the bar background.
func (b barStyle) Render(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	wordStyle := style.Background(b.bg)
	if !strings.Contains(text, " ") {
		return wordStyle.Render(text)
	}
	words := strings.Split(text, " ")
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w == "" {
			out = append(out, "")
			continue
		}
		out = append(out, wordStyle.Render(w))
	}
	return strings.Join(out, b.space)
}

// Stat renders "label value", e.g. "spent $12.00".
func (b barStyle) Stat(label, value string, labelStyle, valueStyle lipgloss.Style) string {
	return b.Render(label, labelStyle) + b.space + b.Render(value, valueStyle)
}

// Hint renders a "key:desc" command hint.
func (b barStyle) Hint(key, desc string, keyStyle, descStyle lipgloss.Style) string {
	return b.Render(key, keyStyle) + b.Sep(":") + b.Render(desc, descStyle)
}

// Space returns a single styled space.
func (b barStyle) Space() string {
	return b.space
}

// Spaces returns n styled spaces.
func (b barStyle) Spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return lipgloss.NewStyle().Background(b.bg).Render(strings.Repeat(" ", n))
}

// Sep returns a styled separator.
func (b barStyle) Sep(sep string) string {
	return lipgloss.NewStyle().Background(b.bg).Render(sep)
}

// Join joins parts with a styled separator.
func (b barStyle) Join(parts []string, sep string) string {
	return strings.Join(parts, b.Sep(sep))
}
