package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Entry is a log line written by slog's text handler, split into the fields
// every record carries and the remaining attributes.
type Entry struct {
	Time    string
	Level   string
	Message string
	Attrs   string
}

// Parse splits a "time=... level=... msg=... k=v" line. Lines in any other
// shape report false.
func Parse(line string) (Entry, bool) {
	rest := strings.TrimSpace(line)
	var e Entry
	var ok bool
	if e.Time, rest, ok = field(rest, "time"); !ok {
		return Entry{}, false
	}
	if e.Level, rest, ok = field(rest, "level"); !ok {
		return Entry{}, false
	}
	if e.Message, rest, ok = field(rest, "msg"); !ok {
		return Entry{}, false
	}
	e.Attrs = strings.TrimSpace(rest)
	return e, true
}

// field consumes name=value from the front of s. Quoted values are unquoted.
func field(s, name string) (string, string, bool) {
	prefix := name + "="
	if !strings.HasPrefix(s, prefix) {
		return "", s, false
	}
	s = s[len(prefix):]
	if strings.HasPrefix(s, `"`) {
		end := closingQuote(s)
		if end < 0 {
			return "", s, false
		}
		value, err := strconv.Unquote(s[:end+1])
		if err != nil {
			return "", s, false
		}
		return value, strings.TrimLeft(s[end+1:], " "), true
	}
	value, rest, _ := strings.Cut(s, " ")
	return value, rest, true
}

func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

var (
	timeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	attrsStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#87AFFF"))
	levelStyle = map[string]lipgloss.Style{
		"DEBUG": lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Bold(true),
		"INFO":  lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD75F")).Bold(true),
		"WARN":  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true),
		"ERROR": lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
	}
)

// ColorizeLine renders a slog text line as "time LEVEL message attrs" with
// the level colored. Lines that do not parse are returned unchanged.
func ColorizeLine(line string) string {
	e, ok := Parse(line)
	if !ok {
		return line
	}
	style, known := levelStyle[e.Level]
	if !known {
		style = lipgloss.NewStyle().Bold(true)
	}
	out := timeStyle.Render(e.Time) + " " + style.Render(fmt.Sprintf("%-5s", e.Level)) + " " + e.Message
	if e.Attrs != "" {
		out += " " + attrsStyle.Render(e.Attrs)
	}
	return out
}

// ColorizeLines applies ColorizeLine to each line.
func ColorizeLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = ColorizeLine(line)
	}
	return out
}
