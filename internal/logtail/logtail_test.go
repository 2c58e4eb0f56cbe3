package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{
			name:     "read all (0)",
			maxLines: 0,
			expected: expectedAll,
		},
		{
			name:     "read all (negative)",
			maxLines: -1,
			expected: expectedAll,
		},
		{
			name:     "read partial (5)",
			maxLines: 5,
			expected: expectedAll[5:],
		},
		{
			name:     "read exactly all (10)",
			maxLines: 10,
			expected: expectedAll,
		},
		{
			name:     "read more than exists (20)",
			maxLines: 20,
			expected: expectedAll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestReadMissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "missing.log"), 10)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got != nil {
		t.Fatalf("Read() = %v, want nil", got)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Entry
		ok    bool
	}{
		{
			name:  "quoted message with attrs",
			input: `time=2026-10-16T10:00:00.000Z level=INFO msg="execution selected" previous="" execution=E1`,
			want:  Entry{Time: "2026-10-16T10:00:00.000Z", Level: "INFO", Message: "execution selected", Attrs: `previous="" execution=E1`},
			ok:    true,
		},
		{
			name:  "bare message",
			input: `time=2026-10-16T10:00:00.000Z level=DEBUG msg=tick`,
			want:  Entry{Time: "2026-10-16T10:00:00.000Z", Level: "DEBUG", Message: "tick"},
			ok:    true,
		},
		{
			name:  "escaped quote in message",
			input: `time=t level=WARN msg="fetch \"summary\" failed" error="boom"`,
			want:  Entry{Time: "t", Level: "WARN", Message: `fetch "summary" failed`, Attrs: `error="boom"`},
			ok:    true,
		},
		{
			name:  "not a slog line",
			input: "panic: runtime error",
			ok:    false,
		},
		{
			name:  "unterminated quote",
			input: `time=t level=INFO msg="oops`,
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.input)
			if ok != tt.ok {
				t.Fatalf("Parse() ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("Parse() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestColorizeLine(t *testing.T) {
	plain := "goroutine 1 [running]:"
	if got := ColorizeLine(plain); got != plain {
		t.Errorf("ColorizeLine(%q) = %q, want unchanged", plain, got)
	}

	got := ColorizeLine(`time=t level=ERROR msg="summary fetch failed" error=timeout`)
	for _, want := range []string{"t", "ERROR", "summary fetch failed", "error=timeout"} {
		if !strings.Contains(got, want) {
			t.Errorf("ColorizeLine() = %q, missing %q", got, want)
		}
	}
	if strings.Contains(got, "msg=") || strings.Contains(got, "level=") {
		t.Errorf("ColorizeLine() = %q, want field names stripped", got)
	}
}

func TestColorizeLines(t *testing.T) {
	input := []string{
		"time=t level=INFO msg=start",
		"    continuation",
	}
	got := ColorizeLines(input)
	if len(got) != len(input) {
		t.Fatalf("ColorizeLines() returned %d lines, want %d", len(got), len(input))
	}
	if got[1] != input[1] {
		t.Errorf("ColorizeLines()[1] = %q, want unchanged", got[1])
	}
}
