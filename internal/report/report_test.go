package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/five82/tally/internal/finala"
)

func sampleSummary() finala.Summary {
	return finala.Summary{
		"aws_ec2": {ResourceName: "aws_ec2", ResourceCount: 3, TotalSpent: 120.5, Status: finala.StatusComplete},
		"aws_rds": {ResourceName: "aws_rds", ResourceCount: 1, TotalSpent: 29.5, Status: finala.StatusScanning},
		"aws_elb": {ResourceName: "aws_elb", Status: finala.StatusError, ErrorMessage: "access denied"},
	}
}

func expectContains(t *testing.T, out, want string) {
	t.Helper()
	if !strings.Contains(out, want) {
		t.Fatalf("output missing %q:\n%s", want, out)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatConsole, false},
		{"console", FormatConsole, false},
		{" CSV ", FormatCSV, false},
		{"md", FormatMarkdown, false},
		{"json", FormatJSON, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderSummary_Console(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter()
	f.EnableColors = false

	if err := f.RenderSummary(&buf, "E1", sampleSummary()); err != nil {
		t.Fatalf("RenderSummary returned error: %v", err)
	}
	out := buf.String()

	expectContains(t, out, "aws_ec2")
	expectContains(t, out, "120.50")
	expectContains(t, out, "access denied")
	expectContains(t, out, "150.00")
	expectContains(t, strings.ToUpper(out), "TOTAL")
	expectContains(t, out, "Scan in progress")
	if strings.Index(out, "aws_ec2") > strings.Index(out, "aws_rds") {
		t.Fatalf("expected highest spend first:\n%s", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("unexpected ANSI sequences with colors disabled:\n%s", out)
	}
}

func TestRenderSummary_ColorsMarkStatus(t *testing.T) {
	text.EnableColors()
	var buf bytes.Buffer
	f := NewFormatter()

	if err := f.RenderSummary(&buf, "E1", sampleSummary()); err != nil {
		t.Fatalf("RenderSummary returned error: %v", err)
	}
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("expected ANSI sequences with colors enabled")
	}
}

func TestRenderSummary_CSVHasNoFooter(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{Format: FormatCSV}

	if err := f.RenderSummary(&buf, "E1", sampleSummary()); err != nil {
		t.Fatalf("RenderSummary returned error: %v", err)
	}
	out := buf.String()
	expectContains(t, out, "aws_ec2,complete,3,120.50")
	if strings.Contains(strings.ToUpper(out), "TOTAL") {
		t.Fatalf("csv output should not carry a footer:\n%s", out)
	}
	if strings.Contains(out, "Scan in progress") {
		t.Fatalf("csv output should not carry the scanning note:\n%s", out)
	}
}

func TestRenderSummary_JSON(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{Format: FormatJSON}

	if err := f.RenderSummary(&buf, "E1", sampleSummary()); err != nil {
		t.Fatalf("RenderSummary returned error: %v", err)
	}
	var got summaryOutput
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, buf.String())
	}
	if got.ExecutionID != "E1" || !got.Scanning || got.TotalSpent != 150 {
		t.Fatalf("summary = %+v", got)
	}
	if len(got.Resources) != 3 || got.Resources[0].Resource != "aws_ec2" {
		t.Fatalf("resources = %+v", got.Resources)
	}
	if got.Resources[2].Error != "access denied" || got.Resources[2].Status != "error" {
		t.Fatalf("error entry = %+v", got.Resources[2])
	}
}

func decodeRows(t *testing.T, raw string) []finala.Row {
	t.Helper()
	var rows []finala.Row
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		t.Fatalf("unmarshal rows: %v", err)
	}
	return rows
}

func TestRenderResources_ColumnsFollowFirstRow(t *testing.T) {
	rows := decodeRows(t, `[
		{"ID":"i-1","Region":"us-east-1","TotalSpendPrice":12.5},
		{"ID":"i-2","Region":"eu-west-1","TotalSpendPrice":3}
	]`)

	var buf bytes.Buffer
	f := &Formatter{Format: FormatCSV}
	if err := f.RenderResources(&buf, "aws_ec2", rows); err != nil {
		t.Fatalf("RenderResources returned error: %v", err)
	}
	out := buf.String()
	expectContains(t, out, "i-1,us-east-1")
	expectContains(t, out, "i-2,eu-west-1")
	if strings.Contains(out, "12.5") {
		t.Fatalf("TotalSpendPrice should not be rendered:\n%s", out)
	}
}

func TestRenderResources_JSONKeepsEmptyRows(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{Format: FormatJSON}
	if err := f.RenderResources(&buf, "aws_ec2", nil); err != nil {
		t.Fatalf("RenderResources returned error: %v", err)
	}
	expectContains(t, buf.String(), `"rows":[]`)
}

func TestRenderExecutions_Markdown(t *testing.T) {
	list := []finala.Execution{
		{ID: "E2", Name: "nightly", Time: time.Date(2024, 5, 2, 3, 0, 0, 0, time.UTC)},
		{ID: "E1", Name: "initial"},
	}

	var buf bytes.Buffer
	f := &Formatter{Format: FormatMarkdown}
	if err := f.RenderExecutions(&buf, list); err != nil {
		t.Fatalf("RenderExecutions returned error: %v", err)
	}
	out := buf.String()
	expectContains(t, out, "| E2 | nightly | 2024-05-02T03:00:00Z |")
	if strings.Index(out, "E2") > strings.Index(out, "E1") {
		t.Fatalf("expected API order preserved:\n%s", out)
	}
}

func TestColumnConfigs_ConstrainConsoleOnly(t *testing.T) {
	f := &Formatter{Format: FormatConsole, Width: 100}
	configs := f.columnConfigs(&bytes.Buffer{}, 4)
	if len(configs) != 4 {
		t.Fatalf("len(configs) = %d, want 4", len(configs))
	}
	if configs[0].WidthMax != (100-3*4-1)/4 {
		t.Fatalf("WidthMax = %d", configs[0].WidthMax)
	}

	f.Format = FormatCSV
	if got := f.columnConfigs(&bytes.Buffer{}, 4); got != nil {
		t.Fatalf("csv configs = %v, want nil", got)
	}

	f = &Formatter{Format: FormatConsole}
	if got := f.columnConfigs(&bytes.Buffer{}, 4); got != nil {
		t.Fatalf("non-terminal writer configs = %v, want nil", got)
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"truncated", 5, "trun…"},
		{"x", 0, ""},
		{"long", 1, "…"},
	}
	for _, tt := range tests {
		if got := truncateRunes(tt.in, tt.max); got != tt.want {
			t.Fatalf("truncateRunes(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
