// Package report renders Finala summaries, resource rows, and executions as
// console tables, CSV, Markdown, or JSON for the one-shot tally commands.
package report
