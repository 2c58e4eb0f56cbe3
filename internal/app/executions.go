package app

import (
	"context"

	"github.com/five82/tally/internal/finala"
	"github.com/five82/tally/internal/poll"
)

// executionsJob loads the execution list. An empty list is a waiting state
// and is polled until a run appears. Settings are resolved once by Connect.
func (o *Orchestrator) executionsJob(ctx context.Context) poll.Outcome {
	list, err := o.fetcher.FetchExecutions(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return poll.Outcome{}
		}
		o.log.Warn("executions fetch failed", "error", err)
		return poll.Outcome{
			Commit: func() { o.store.UpdateExecutions(nil, err) },
			Again:  true,
			After:  o.notify,
		}
	}
	if len(list) == 0 {
		o.log.Debug("no executions yet")
		return poll.Outcome{
			Commit: func() { o.store.UpdateExecutions(nil, nil) },
			Again:  true,
			After:  o.notify,
		}
	}
	return poll.Outcome{
		Commit: func() { o.store.UpdateExecutions(list, nil) },
		After:  func() { o.afterExecutions(list) },
	}
}

// afterExecutions selects the restored execution when the list contains it,
// otherwise the first one. An execution already selected is left alone.
func (o *Orchestrator) afterExecutions(list []finala.Execution) {
	defer o.notify()

	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.activeLocked() || o.selector.Current() != "" {
		return
	}

	target := list[0].ID
	if o.requested != "" {
		found := false
		for _, e := range list {
			if e.ID == o.requested {
				found = true
				break
			}
		}
		if found {
			target = o.requested
		} else {
			o.log.Info("restored execution not found, using latest", "requested", o.requested, "execution", target)
		}
	}
	o.requested = ""
	o.selectExecutionLocked(target)
}
