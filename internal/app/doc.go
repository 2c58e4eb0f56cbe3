// Package app provides the orchestration layer for tally.
//
// # Overview
//
// The Orchestrator owns the canonical view (execution, filters, selected
// resource) and the four pollers that keep the state.Store in sync with it.
// Run is the composition root: it wires configuration, logging, the Finala
// client, history and the UI together.
//
// # Components
//
//   - app.go: Run plus the LoadConfig, LogLevel, OpenLog and Connect helpers
//     shared with the one-shot commands
//   - orchestrator.go: view mutations, history commits and poller restarts
//   - executions.go: the execution list loop
//   - summary.go: per-execution summary, re-polled while scanning
//   - detail.go: rows for the selected resource type
//   - vocabulary.go: tag and account values for the filter pickers
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> LoadConfig()        Read config, apply flags
//	       ├─────> OpenLog()           slog text handler on the log file
//	       ├─────> Connect()           Settings, then login
//	       ├─────> NewOrchestrator()   Store, selector, filter store
//	       ├─────> Mount()             Restore view, start executions loop
//	       └─────> ui.Run()            Start TUI (blocks)
//
// Every view mutation follows the same path: update the filter store and
// selector under the orchestrator lock, commit the encoded view to history
// once, then restart only the pollers whose inputs changed. Each poller
// drops results from superseded generations, so a late response never
// overwrites newer data.
//
// # Polling Behavior
//
// Summaries and detail rows are re-fetched after the poll interval while the
// execution is still scanning and stop once it completes. A transient error
// keeps the previous data and schedules a retry at the same interval. Errors
// reported by the scan itself are shown and not retried.
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Configuration file invalid
//   - Log file cannot be opened
//   - Login rejected or unreachable when credentials are configured
//
// Recoverable errors (logged, polling continues):
//   - Executions, summary, detail or vocabulary fetch failures
//   - Network timeouts during polling
package app
