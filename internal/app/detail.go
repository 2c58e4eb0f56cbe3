package app

import (
	"context"

	"github.com/five82/tally/internal/filter"
	"github.com/five82/tally/internal/finala"
	"github.com/five82/tally/internal/poll"
)

// detailJob fetches rows for the selected resource.
//
// A resource the scan reported as failed shows its error message and is not
// fetched. A fetch failure for a resource carrying an error message shows
// that message and stops; other failures retry and keep the rows when they
// were fetched for the same filters. Rows are
// re-polled while the resource is scanning, or while the scan is running and
// the resource has not appeared in the summary yet.
func (o *Orchestrator) detailJob(ctx context.Context) poll.Outcome {
	p := o.params()
	if p.resource == "" || p.executionID == "" {
		return poll.Outcome{Commit: o.store.ClearDetail, After: o.notify}
	}

	if entry, ok := o.store.SummaryEntry(p.resource); ok && entry.Status == finala.StatusError {
		return o.failDetail(p.resource, scanError(p.resource, entry))
	}

	rows, err := o.fetcher.FetchResources(ctx, p.resource, p.executionID, filter.QueryParams(p.settled))
	entry, known := o.store.SummaryEntry(p.resource)
	if err != nil {
		if ctx.Err() != nil {
			return poll.Outcome{}
		}
		if known && entry.ErrorMessage != "" {
			return o.failDetail(p.resource, scanError(p.resource, entry))
		}
		o.log.Warn("detail fetch failed", "execution", p.executionID, "resource", p.resource, "error", err)
		return poll.Outcome{
			Commit: func() { o.store.UpdateDetail(p.resource, p.key(), nil, err) },
			Again:  true,
			After:  o.notify,
		}
	}

	again := (known && entry.Status == finala.StatusScanning) || (!known && o.selector.IsScanning())
	return poll.Outcome{
		Commit: func() { o.store.UpdateDetail(p.resource, p.key(), rows, nil) },
		Again:  again,
		After:  o.notify,
	}
}

func (o *Orchestrator) failDetail(resource, message string) poll.Outcome {
	o.log.Info("resource scan failed", "resource", resource, "message", message)
	return poll.Outcome{
		Commit: func() { o.store.FailDetail(resource, message) },
		After:  o.notify,
	}
}

// scanError is the message shown for a resource the scan reported as failed.
func scanError(resource string, entry finala.SummaryEntry) string {
	if entry.ErrorMessage != "" {
		return entry.ErrorMessage
	}
	return "scan failed for " + resource
}
