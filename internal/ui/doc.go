// Package ui provides the tally terminal dashboard built on Bubble Tea.
//
// # Architecture Overview
//
// The dashboard renders snapshots of the resource store and forwards user
// intent to a Controller (the app orchestrator). It never fetches data
// itself: every selection or filter change goes through the controller,
// which commits the view to history and restarts the affected pollers.
//
// # Layout
//
//   - Header: execution name, scan state with spinner, total and daily
//     spend, the costliest resource, connection health
//   - Filter bar: active filters as chips, the pending tag placeholder, or
//     the filter text input
//   - Summary pane: one row per resource type, highest spend first
//   - Detail pane: rows of the selected resource in a table
//   - Command bar and footer: key hints and the share query for the view
//
// # Event Flow
//
//  1. Run starts the program; Init subscribes to the controller's update
//     channel and starts a refresh tick.
//  2. Each update message re-reads the snapshot and re-arms the wait.
//  3. Keys map to controller calls (SelectExecution, AddFilter,
//     SelectResource, ...). The resulting snapshot arrives as an update.
//
// # Key Bindings
//
//   - j/k, g/G: Move in the focused pane
//   - enter: Show resources of the selected type
//   - x or esc: Close the resource detail
//   - tab: Switch between summary and detail
//   - e: Pick execution
//   - /: Type filters (key:v1,v2;account:id)
//   - t / a: Add tag / account filter from the picker
//   - - / C: Remove last filter / clear filters
//   - r: Refresh now
//   - T: Cycle theme
//   - ?: Help
//   - q or Ctrl+C: Quit
package ui
