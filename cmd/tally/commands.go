package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/five82/tally/internal/app"
	"github.com/five82/tally/internal/filter"
	"github.com/five82/tally/internal/finala"
	"github.com/five82/tally/internal/logtail"
	"github.com/five82/tally/internal/report"
	"github.com/five82/tally/internal/urlstate"
)

// report command flags
type reportFlags struct {
	execution    string
	filters      string
	outputFormat string
	outputFile   string
	noColor      bool
	width        int
	jsonIndent   bool
	timeout      time.Duration
}

var repFlags reportFlags

func addReportFlags(c *cobra.Command) {
	c.Flags().StringVarP(&repFlags.execution, "execution", "e", "", "Execution ID (default: latest, or the one in --view)")
	c.Flags().StringVar(&repFlags.filters, "filters", "", "Filters as key:v1,v2;account:id (default: the ones in --view)")
	c.Flags().StringVarP(&repFlags.outputFormat, "format", "f", "console", "Output format: console|csv|markdown|json")
	c.Flags().StringVarP(&repFlags.outputFile, "out", "o", "", "Write output to file instead of stdout")
	c.Flags().BoolVar(&repFlags.noColor, "no-color", false, "Disable ANSI colors (console format)")
	c.Flags().IntVar(&repFlags.width, "width", 0, "Max table width (console format; 0=auto)")
	c.Flags().BoolVar(&repFlags.jsonIndent, "json-indent", false, "Pretty-print JSON output")
	c.Flags().DurationVar(&repFlags.timeout, "timeout", time.Minute, "Timeout for talking to Finala")
}

func newSummaryCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "summary",
		Short: "Print per-resource spend for an execution",
		Long: strings.TrimSpace(`
Print the resource summary of an execution: status, resource count and spend
per resource type, highest spend first.

Examples:
  tally summary
  tally summary --execution 1714532400 --filters "env:prod,staging"
  tally summary --view "executionId=1714532400&filters=team:core" --format json --json-indent
`),
		Args: cobra.NoArgs,
		RunE: runSummary,
	}
	addReportFlags(c)
	return c
}

func newResourcesCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "resources [resource-type]",
		Short: "Print the resources found for one resource type",
		Long: strings.TrimSpace(`
Print the resources behind one summary row. The resource type defaults to the
one selected in --view.

Examples:
  tally resources aws_ec2
  tally resources aws_ebs --filters "account:123456789012" --format csv
`),
		Args: cobra.MaximumNArgs(1),
		RunE: runResources,
	}
	addReportFlags(c)
	return c
}

func newExecutionsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "executions",
		Short: "List collector executions",
		Args:  cobra.NoArgs,
		RunE:  runExecutions,
	}
	addReportFlags(c)
	return c
}

// query is the view a one-shot command reports on.
type query struct {
	executionID string
	filters     []filter.Filter
	resource    string
}

// resolveQuery merges --view with the explicit --execution and --filters
// flags. Flags win.
func resolveQuery() query {
	view := urlstate.Decode(flagView)
	q := query{executionID: view.ExecutionID, resource: view.Resource}
	for _, f := range view.Filters {
		if f.Type != filter.TypeResource {
			q.filters = append(q.filters, f)
		}
	}
	if id := strings.TrimSpace(repFlags.execution); id != "" {
		q.executionID = id
	}
	if raw := strings.TrimSpace(repFlags.filters); raw != "" {
		parsed, resource := filter.ParseTokens(raw)
		q.filters = q.filters[:0]
		for _, f := range parsed {
			if f.Type != filter.TypeResource {
				q.filters = append(q.filters, f)
			}
		}
		if resource != "" {
			q.resource = resource
		}
	}
	return q
}

// connect loads the config and returns a logged-in client.
func connect(ctx context.Context) (*finala.Client, error) {
	cfg, err := app.LoadConfig(rootOptions())
	if err != nil {
		return nil, err
	}
	return app.Connect(ctx, cfg, slog.Default())
}

// latestExecution returns id when set, otherwise the first listed execution.
func latestExecution(ctx context.Context, client *finala.Client, id string) (string, error) {
	if id != "" {
		return id, nil
	}
	list, err := client.FetchExecutions(ctx)
	if err != nil {
		return "", fmt.Errorf("list executions: %w", err)
	}
	if len(list) == 0 {
		return "", errors.New("no executions yet; run a Finala collection first")
	}
	return list[0].ID, nil
}

func newFormatter() (*report.Formatter, error) {
	format, err := report.ParseFormat(repFlags.outputFormat)
	if err != nil {
		return nil, err
	}
	f := report.NewFormatter()
	f.Format = format
	f.EnableColors = !repFlags.noColor
	f.Width = repFlags.width
	f.JSONIndent = repFlags.jsonIndent
	return f, nil
}

// output opens the report destination.
func output() (io.WriteCloser, error) {
	if repFlags.outputFile == "" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(repFlags.outputFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func runSummary(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(cmd.Context(), repFlags.timeout)
	defer cancel()

	formatter, err := newFormatter()
	if err != nil {
		return err
	}
	client, err := connect(ctx)
	if err != nil {
		return err
	}
	q := resolveQuery()
	executionID, err := latestExecution(ctx, client, q.executionID)
	if err != nil {
		return err
	}

	slog.Info("Fetching summary", "execution", executionID, "filters", filter.FormatTokens(q.filters))
	summary, err := client.FetchSummary(ctx, executionID, filter.QueryParams(q.filters))
	if err != nil {
		return fmt.Errorf("fetch summary: %w", err)
	}

	out, err := output()
	if err != nil {
		return err
	}
	defer out.Close()
	if err := formatter.RenderSummary(out, executionID, summary); err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}
	slog.Info("Summary complete", "resources", len(summary), "duration", time.Since(start).String())
	return nil
}

func runResources(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), repFlags.timeout)
	defer cancel()

	formatter, err := newFormatter()
	if err != nil {
		return err
	}
	q := resolveQuery()
	resource := q.resource
	if len(args) == 1 {
		resource = strings.TrimSpace(args[0])
	}
	if resource == "" {
		return errors.New("resource type required (argument or resource:<name> in --view)")
	}

	client, err := connect(ctx)
	if err != nil {
		return err
	}
	executionID, err := latestExecution(ctx, client, q.executionID)
	if err != nil {
		return err
	}

	slog.Info("Fetching resources", "execution", executionID, "resource", resource)
	rows, err := client.FetchResources(ctx, resource, executionID, filter.QueryParams(q.filters))
	if err != nil {
		return fmt.Errorf("fetch %s: %w", resource, err)
	}

	out, err := output()
	if err != nil {
		return err
	}
	defer out.Close()
	if err := formatter.RenderResources(out, resource, rows); err != nil {
		return fmt.Errorf("failed to render resources: %w", err)
	}
	return nil
}

func runExecutions(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), repFlags.timeout)
	defer cancel()

	formatter, err := newFormatter()
	if err != nil {
		return err
	}
	client, err := connect(ctx)
	if err != nil {
		return err
	}
	list, err := client.FetchExecutions(ctx)
	if err != nil {
		return fmt.Errorf("list executions: %w", err)
	}

	out, err := output()
	if err != nil {
		return err
	}
	defer out.Close()
	if err := formatter.RenderExecutions(out, list); err != nil {
		return fmt.Errorf("failed to render executions: %w", err)
	}
	return nil
}

// url command flags
var urlFlags struct {
	execution string
	filters   string
	resource  string
}

func newURLCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "url",
		Short: "Encode or decode shareable view queries",
	}

	encode := &cobra.Command{
		Use:   "encode",
		Short: "Build the query string for a view",
		Long: strings.TrimSpace(`
Build the executionId=...&filters=... query the dashboard and the Finala web UI
share.

Example:
  tally url encode --execution 1714532400 --filters "env:prod,staging" --resource aws_ec2
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, resource := filter.ParseTokens(urlFlags.filters)
			if r := strings.TrimSpace(urlFlags.resource); r != "" {
				resource = r
			}
			q := urlstate.Encode(urlstate.State{
				ExecutionID: urlFlags.execution,
				Filters:     filters,
				Resource:    resource,
			})
			fmt.Fprintln(cmd.OutOrStdout(), q)
			return nil
		},
	}
	encode.Flags().StringVarP(&urlFlags.execution, "execution", "e", "", "Execution ID")
	encode.Flags().StringVar(&urlFlags.filters, "filters", "", "Filters as key:v1,v2;account:id")
	encode.Flags().StringVar(&urlFlags.resource, "resource", "", "Selected resource type")

	decode := &cobra.Command{
		Use:   "decode <query-or-url>",
		Short: "Show the view described by a query string or Finala URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := urlstate.Decode(args[0])
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "execution: %s\n", orNone(s.ExecutionID))
			fmt.Fprintf(w, "resource:  %s\n", orNone(s.Resource))
			if len(s.Filters) == 0 {
				fmt.Fprintln(w, "filters:   (none)")
				return nil
			}
			fmt.Fprintln(w, "filters:")
			for _, f := range s.Filters {
				fmt.Fprintf(w, "  %-10s %s\n", f.Type, f.ID)
			}
			return nil
		},
	}

	c.AddCommand(encode, decode)
	return c
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

// logs command flags
var logFlags struct {
	lines   int
	noColor bool
}

func newLogsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "logs",
		Short: "Print the end of the dashboard log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(rootOptions())
			if err != nil {
				return err
			}
			lines, err := logtail.Read(cfg.LogFile, logFlags.lines)
			if err != nil {
				return err
			}
			if len(lines) == 0 {
				slog.Info("Log is empty", "path", cfg.LogFile)
				return nil
			}
			if !logFlags.noColor && term.IsTerminal(int(os.Stdout.Fd())) {
				lines = logtail.ColorizeLines(lines)
			}
			w := cmd.OutOrStdout()
			for _, line := range lines {
				fmt.Fprintln(w, line)
			}
			return nil
		},
	}
	c.Flags().IntVarP(&logFlags.lines, "lines", "n", 200, "Number of lines to show (0 = all)")
	c.Flags().BoolVar(&logFlags.noColor, "no-color", false, "Disable ANSI colors")
	return c
}
