package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/five82/tally/internal/filter"
	"github.com/five82/tally/internal/finala"
	"github.com/five82/tally/internal/poll"
	"github.com/five82/tally/internal/state"
	"github.com/five82/tally/internal/urlstate"
)

// ErrMounted is returned when Mount is called twice.
var ErrMounted = errors.New("orchestrator already mounted")

// OrchestratorOptions configure an Orchestrator.
type OrchestratorOptions struct {
	Fetcher finala.Fetcher
	History urlstate.History
	Store   *state.Store
	Clock   poll.Clock
	Delay   time.Duration
	Logger  *slog.Logger
	// Query restores the view instead of History's current entry when set.
	Query string
}

// Orchestrator owns the canonical view state and the four pollers that keep
// the store in sync with it.
//
// Lock order is orchestrator, then poller, then store. Jobs take the
// orchestrator lock only while reading their parameters, never while a
// poller lock is held.
type Orchestrator struct {
	fetcher  finala.Fetcher
	history  urlstate.History
	store    *state.Store
	selector *state.Selector
	clock    poll.Clock
	delay    time.Duration
	log      *slog.Logger
	query    string
	updates  chan struct{}

	summary    *poll.Poller
	detail     *poll.Poller
	vocabulary *poll.Poller
	executions *poll.Poller

	mu          sync.Mutex
	filters     *filter.Store
	requested   string // execution named by the restored view
	awaitFirst  bool   // selected resource not yet confirmed by a summary
	mounted     bool
	unmounted   bool
	unsubscribe func()
}

// NewOrchestrator wires an orchestrator. Nothing is fetched until Mount.
func NewOrchestrator(opts OrchestratorOptions) *Orchestrator {
	store := opts.Store
	if store == nil {
		store = &state.Store{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = poll.RealClock{}
	}
	delay := opts.Delay
	if delay <= 0 {
		delay = poll.DefaultDelay
	}
	return &Orchestrator{
		fetcher:  opts.Fetcher,
		history:  opts.History,
		store:    store,
		selector: &state.Selector{},
		clock:    clock,
		delay:    delay,
		log:      logger,
		query:    opts.Query,
		updates:  make(chan struct{}, 1),
		filters:  filter.NewStore(),
	}
}

// Mount restores the view and starts the executions bootstrap loop. Pollers
// derive their request contexts from ctx.
func (o *Orchestrator) Mount(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mounted {
		return ErrMounted
	}
	o.mounted = true

	opts := []poll.Option{
		poll.WithContext(ctx),
		poll.WithClock(o.clock),
		poll.WithDelay(o.delay),
		poll.WithLogger(o.log),
	}
	o.summary = poll.New("summary", o.summaryJob, opts...)
	o.detail = poll.New("detail", o.detailJob, opts...)
	o.vocabulary = poll.New("vocabulary", o.vocabularyJob, opts...)
	o.executions = poll.New("executions", o.executionsJob, opts...)

	o.unsubscribe = o.selector.Subscribe(func(prev, next string) {
		o.log.Info("execution selected", "previous", prev, "execution", next)
	})

	restored := urlstate.Restore(o.history, o.query)
	o.filters.ReplaceAll(restored.Filters)
	if restored.Resource != "" {
		o.filters.Add(filter.Resource(restored.Resource))
	}
	o.requested = restored.ExecutionID
	o.publishLocked()

	o.executions.Start()
	return nil
}

// Unmount cancels every timer and in-flight fetch across all pollers. When it
// returns no commit or callback will run.
func (o *Orchestrator) Unmount() {
	o.mu.Lock()
	if !o.mounted || o.unmounted {
		o.mu.Unlock()
		return
	}
	o.unmounted = true
	pollers := o.pollersLocked()
	unsubscribe := o.unsubscribe
	o.mu.Unlock()

	// Closing waits for running jobs, whose After hooks need the
	// orchestrator lock, so it must happen outside it.
	for _, p := range pollers {
		p.Close()
	}
	if unsubscribe != nil {
		unsubscribe()
	}
	o.log.Debug("orchestrator unmounted")
}

// Snapshot returns the latest state for rendering.
func (o *Orchestrator) Snapshot() state.Snapshot {
	return o.store.Snapshot()
}

// Updates receives a value whenever the snapshot may have changed. Bursts
// are coalesced.
func (o *Orchestrator) Updates() <-chan struct{} {
	return o.updates
}

// Selector exposes the execution selector for change subscriptions.
func (o *Orchestrator) Selector() *state.Selector {
	return o.selector
}

// SelectExecution switches to execution id, superseding all polling for the
// previous one.
func (o *Orchestrator) SelectExecution(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.activeLocked() || id == "" {
		return
	}
	o.requested = ""
	o.selectExecutionLocked(id)
}

// AddFilter adds f. A resource filter selects that resource.
func (o *Orchestrator) AddFilter(f filter.Filter) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.activeLocked() {
		return
	}
	if f.Type == filter.TypeTagIncomplete {
		o.filters.AddIncomplete(f.Key)
		o.publishLocked()
		return
	}
	key, res := o.markLocked()
	o.filters.Add(f)
	o.applyLocked(key, res)
}

// RemoveFilter removes the filter with id. Removing the resource filter
// clears the selected resource.
func (o *Orchestrator) RemoveFilter(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.activeLocked() {
		return
	}
	key, res := o.markLocked()
	if _, ok := o.filters.Remove(id); !ok {
		return
	}
	o.applyLocked(key, res)
}

// ReplaceFilters swaps the whole filter set.
func (o *Orchestrator) ReplaceFilters(filters []filter.Filter) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.activeLocked() {
		return
	}
	key, res := o.markLocked()
	o.filters.ReplaceAll(filters)
	o.applyLocked(key, res)
}

// BeginTagFilter opens a placeholder for key and marks the picker open.
func (o *Orchestrator) BeginTagFilter(key string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.activeLocked() || key == "" {
		return
	}
	o.filters.AddIncomplete(key)
	o.store.SetPickerOpen(true)
	o.publishLocked()
}

// CompleteTagFilter turns the open placeholder into a tag filter.
func (o *Orchestrator) CompleteTagFilter(value string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.activeLocked() {
		return
	}
	pending, ok := o.filters.Pending()
	if !ok {
		// Nothing left to complete; release parked vocabulary.
		o.store.SetPickerOpen(false)
		o.publishLocked()
		return
	}
	if value == "" {
		return
	}
	key, res := o.markLocked()
	o.filters.Add(filter.Tag(pending.Key, value))
	o.store.SetPickerOpen(false)
	o.applyLocked(key, res)
}

// CancelTagFilter drops the open placeholder.
func (o *Orchestrator) CancelTagFilter() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.activeLocked() {
		return
	}
	o.filters.ClearPending()
	o.store.SetPickerOpen(false)
	o.publishLocked()
}

// SetPickerOpen tracks a picker opened outside the tag flow.
func (o *Orchestrator) SetPickerOpen(open bool) {
	o.store.SetPickerOpen(open)
	o.notify()
}

// SelectResource shows the detail view for name. The summary is not fetched
// again.
func (o *Orchestrator) SelectResource(name string) {
	if name == "" {
		o.ClearResource()
		return
	}
	o.AddFilter(filter.Resource(name))
}

// ClearResource hides the detail view.
func (o *Orchestrator) ClearResource() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.activeLocked() {
		return
	}
	name, ok := o.filters.Resource()
	if !ok {
		return
	}
	key, res := o.markLocked()
	o.filters.Remove(filter.Resource(name).ID)
	o.applyLocked(key, res)
}

// Refresh fetches now on every poller that is not already fetching.
func (o *Orchestrator) Refresh() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.activeLocked() {
		return
	}
	o.executions.Refresh()
	if o.selector.Current() == "" {
		return
	}
	o.summary.Refresh()
	o.vocabulary.Refresh()
	if _, ok := o.filters.Resource(); ok {
		o.detail.Refresh()
	}
}

func (o *Orchestrator) activeLocked() bool {
	return o.mounted && !o.unmounted
}

func (o *Orchestrator) pollersLocked() []*poll.Poller {
	return []*poll.Poller{o.executions, o.summary, o.detail, o.vocabulary}
}

func (o *Orchestrator) markLocked() (string, string) {
	res, _ := o.filters.Resource()
	return o.filters.SettledKey(), res
}

// applyLocked commits a filter mutation and restarts whatever it affects: the
// summary only when the settled set changed, the detail when the resource or
// the settled set changed.
func (o *Orchestrator) applyLocked(prevKey, prevResource string) {
	res, _ := o.filters.Resource()
	settledChanged := o.filters.SettledKey() != prevKey
	resourceChanged := res != prevResource

	if resourceChanged || (settledChanged && res != "") {
		// Supersede before the rows are cleared so a late result cannot
		// repopulate them.
		o.detail.Stop()
	}
	if resourceChanged {
		o.awaitFirst = false
	}
	o.commitLocked()

	if o.selector.Current() == "" {
		return
	}
	if settledChanged {
		o.log.Debug("settled filters changed", "filters", o.filters.SettledKey())
		o.summary.Start()
	}
	if res != "" && (resourceChanged || settledChanged) {
		o.detail.Start()
	}
}

func (o *Orchestrator) selectExecutionLocked(id string) {
	if !o.selector.Select(id) {
		return
	}
	for _, p := range []*poll.Poller{o.summary, o.detail, o.vocabulary} {
		p.Stop()
	}
	_, hasResource := o.filters.Resource()
	o.awaitFirst = hasResource
	o.commitLocked()

	o.summary.Start()
	if hasResource {
		o.detail.Start()
	}
	o.vocabulary.Start()
}

func (o *Orchestrator) viewLocked() urlstate.State {
	res, _ := o.filters.Resource()
	return urlstate.State{
		ExecutionID: o.selector.Current(),
		Filters:     o.filters.List(),
		Resource:    res,
	}
}

// publishLocked mirrors the canonical state into the store without touching
// history.
func (o *Orchestrator) publishLocked() {
	view := o.viewLocked()
	sv := state.View{
		ExecutionID: view.ExecutionID,
		Filters:     view.Filters,
		Resource:    view.Resource,
		Query:       urlstate.Encode(view),
	}
	if pending, ok := o.filters.Pending(); ok {
		sv.Pending = &pending
	}
	o.store.SetView(sv)
	o.notify()
}

// commitLocked publishes and writes history with exactly one replace.
func (o *Orchestrator) commitLocked() {
	o.publishLocked()
	if err := urlstate.Commit(o.history, o.viewLocked()); err != nil {
		o.log.Warn("history replace failed", "error", err)
	}
}

func (o *Orchestrator) notify() {
	select {
	case o.updates <- struct{}{}:
	default:
	}
}

// settle blocks until no poller has a job running. Used by tests.
func (o *Orchestrator) settle() {
	o.mu.Lock()
	pollers := o.pollersLocked()
	o.mu.Unlock()
	for {
		for _, p := range pollers {
			p.Wait()
		}
		busy := false
		for _, p := range pollers {
			if p.Busy() {
				busy = true
			}
		}
		if !busy {
			return
		}
	}
}

// pendingTimers counts scheduled follow-ups across pollers.
func (o *Orchestrator) pendingTimers() map[string]int {
	o.mu.Lock()
	pollers := o.pollersLocked()
	o.mu.Unlock()
	out := make(map[string]int, len(pollers))
	for _, p := range pollers {
		out[p.Name()] = p.PendingTimers()
	}
	return out
}
