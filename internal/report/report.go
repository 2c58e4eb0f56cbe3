package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/term"
)

// Format selects how a report is written.
type Format string

const (
	FormatConsole  Format = "console"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat maps a flag value to a Format.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case "", FormatConsole:
		return FormatConsole, nil
	case FormatCSV, FormatMarkdown, FormatJSON:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", raw)
	}
}

// Formatter renders Finala data for one-shot commands.
type Formatter struct {
	Format Format

	// EnableColors toggles ANSI status colors in console output.
	EnableColors bool

	// Width caps the table width. Zero detects the terminal width when the
	// writer is a terminal and leaves the table unconstrained otherwise.
	Width int

	// JSONIndent pretty-prints JSON output.
	JSONIndent bool
}

// NewFormatter returns a console formatter with colors on.
func NewFormatter() *Formatter {
	return &Formatter{Format: FormatConsole, EnableColors: true}
}

func (f *Formatter) newTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateRows = false
	tw.Style().Options.DrawBorder = true
	return tw
}

func (f *Formatter) render(tw table.Writer) error {
	switch f.Format {
	case FormatCSV:
		tw.RenderCSV()
	case FormatMarkdown:
		tw.RenderMarkdown()
	case "", FormatConsole:
		tw.Render()
	default:
		return fmt.Errorf("unsupported format: %s", f.Format)
	}
	return nil
}

func (f *Formatter) writeJSON(w io.Writer, payload any) error {
	var (
		data []byte
		err  error
	)
	if f.JSONIndent {
		data, err = json.MarshalIndent(payload, "", "  ")
	} else {
		data, err = json.Marshal(payload)
	}
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// columnConfigs spreads the available width over cols columns. Only console
// output is constrained.
func (f *Formatter) columnConfigs(w io.Writer, cols int) []table.ColumnConfig {
	if f.Format != FormatConsole || cols == 0 {
		return nil
	}
	width := f.Width
	if width <= 0 {
		width = detectTerminalWidth(w)
	}
	if width <= 0 {
		return nil
	}
	if width < 60 {
		width = 60
	}
	per := (width - 3*cols - 1) / cols
	if per < 8 {
		per = 8
	}
	configs := make([]table.ColumnConfig, 0, cols)
	for i := 0; i < cols; i++ {
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			WidthMax:    per,
			Transformer: truncTransformer(per),
		})
	}
	return configs
}

func (f *Formatter) color(s string, c text.Color) string {
	if !f.EnableColors || f.Format != FormatConsole {
		return s
	}
	return text.Colors{c}.Sprint(s)
}

// detectTerminalWidth returns the width of w when it is a terminal, or -1.
func detectTerminalWidth(w io.Writer) int {
	file, ok := w.(*os.File)
	if !ok {
		return -1
	}
	if width, _, err := term.GetSize(int(file.Fd())); err == nil {
		return width
	}
	return -1
}

// truncTransformer ellipsizes cells wider than max runes.
func truncTransformer(max int) text.Transformer {
	return func(val interface{}) string {
		return truncateRunes(fmt.Sprint(val), max)
	}
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	var b strings.Builder
	count := 0
	for _, r := range s {
		if count >= max-1 {
			break
		}
		b.WriteRune(r)
		count++
	}
	b.WriteRune('…')
	return b.String()
}
