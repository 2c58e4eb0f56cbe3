// Package state provides thread-safe state shared between the pollers and the
// dashboard.
//
// # Overview
//
// Store holds one slot per kind of resource data (executions, summary,
// detail rows, filter vocabulary) plus a mirror of the canonical view
// (execution, filters, selected resource, share query). Each poller writes
// only its own slot; the UI reads immutable snapshots.
//
//	Pollers:                        Consumer (UI):
//	┌──────────────────────┐        ┌──────────────────┐
//	│ UpdateExecutions()   │        │                  │
//	│ UpdateSummary()      │───────→│ store.Snapshot() │
//	│ UpdateDetail()       │(mutex) │       ↓          │
//	│ UpdateVocabulary()   │        │   render UI      │
//	└──────────────────────┘        └──────────────────┘
//
// Selector holds the active execution id and the scan flag derived from the
// latest successful summary, and notifies subscribers when the execution
// changes.
//
// # Update Semantics
//
// Summary results replace the previous map wholesale:
//
//	store.UpdateSummary(key, summary, nil)
//	→ snapshot.Summary = summary (never merged)
//	→ snapshot.IsScanning = summary.Scanning()
//	→ snapshot.ConsecutiveFailures = 0
//
//	store.UpdateSummary(key, nil, err)
//	→ snapshot.Summary = <unchanged> when key matches the data on screen,
//	  otherwise cleared
//	→ snapshot.LastError = err
//	→ snapshot.ConsecutiveFailures++
//
// Detail results carry the resource they were fetched for and are ignored
// when the selection has moved on. SetView clears the rows as soon as the
// selected resource changes, and clears every slot when the execution
// changes, so data from a previous key is never shown under a new one.
//
// # Picker Parking
//
// While the filter picker is open (SetPickerOpen(true)) vocabulary refreshes
// are parked instead of replacing the options the user is typing against.
// Closing the picker promotes the parked value.
//
// # Defensive Copying
//
// Snapshot deep-copies maps, rows and filter slices, and wraps LastError in
// a fresh value, so the UI can hold a snapshot across renders without
// racing the pollers.
//
// The zero Store is ready to use.
package state
