package app

import (
	"context"

	"github.com/five82/tally/internal/filter"
	"github.com/five82/tally/internal/finala"
	"github.com/five82/tally/internal/poll"
)

// params is the live input of a fetch, read when the job starts.
type params struct {
	executionID string
	resource    string
	settled     []filter.Filter
}

// key identifies the summary request: execution plus settled filters.
func (p params) key() string {
	return p.executionID + "|" + filter.Key(p.settled)
}

func (o *Orchestrator) params() params {
	o.mu.Lock()
	defer o.mu.Unlock()
	res, _ := o.filters.Resource()
	return params{
		executionID: o.selector.Current(),
		resource:    res,
		settled:     o.filters.Settled(),
	}
}

// summaryJob fetches the per-resource aggregates. It re-polls while any
// resource is still scanning and retries transient failures, keeping the
// previous summary on screen unless it was fetched for other filters.
func (o *Orchestrator) summaryJob(ctx context.Context) poll.Outcome {
	p := o.params()
	if p.executionID == "" {
		return poll.Outcome{}
	}

	summary, err := o.fetcher.FetchSummary(ctx, p.executionID, filter.QueryParams(p.settled))
	if err != nil {
		if ctx.Err() != nil {
			return poll.Outcome{}
		}
		o.log.Warn("summary fetch failed", "execution", p.executionID, "error", err)
		return poll.Outcome{
			Commit: func() { o.store.UpdateSummary(p.key(), nil, err) },
			Again:  true,
			After:  o.notify,
		}
	}

	scanning := summary.Scanning()
	if name, ok := summary.ScanningResource(); ok {
		o.log.Debug("scan in progress", "execution", p.executionID, "resource", name)
	}
	return poll.Outcome{
		Commit: func() {
			o.store.UpdateSummary(p.key(), summary, nil)
			o.selector.SetScanning(scanning)
		},
		Again: scanning,
		After: func() { o.afterSummary(p.executionID, summary, scanning) },
	}
}

// afterSummary reconciles the selection with a freshly committed summary.
func (o *Orchestrator) afterSummary(executionID string, summary finala.Summary, scanning bool) {
	defer o.notify()

	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.activeLocked() || o.selector.Current() != executionID {
		return
	}

	res, hasResource := o.filters.Resource()
	if hasResource && o.awaitFirst {
		_, present := summary[res]
		switch {
		case present:
			o.awaitFirst = false
		case !scanning:
			// The new execution finished without this resource type.
			o.log.Info("clearing resource missing from execution", "execution", executionID, "resource", res)
			o.awaitFirst = false
			key, prev := o.markLocked()
			pending, picking := o.filters.Pending()
			o.filters.Remove(filter.Resource(res).ID)
			if picking {
				o.filters.AddIncomplete(pending.Key)
			}
			o.applyLocked(key, prev)
			hasResource = false
		}
	}

	if hasResource && o.detail.State() == poll.Idle {
		entry, known := summary[res]
		switch {
		case known && entry.Status == finala.StatusError && o.store.DetailMessage() != scanError(res, entry):
			o.detail.Refresh()
		case known && entry.Status == finala.StatusScanning, !known && scanning:
			o.detail.Refresh()
		}
	}

	if scanning && o.vocabulary.State() == poll.Idle {
		o.vocabulary.Refresh()
	}
}
