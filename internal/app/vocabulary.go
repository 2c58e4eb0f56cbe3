package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/five82/tally/internal/finala"
	"github.com/five82/tally/internal/poll"
)

// vocabularyJob loads tag keys/values and accounts for the filter picker.
// Failures retry indefinitely; a successful load repeats only while the scan
// is still running.
func (o *Orchestrator) vocabularyJob(ctx context.Context) poll.Outcome {
	id := o.params().executionID
	if id == "" {
		return poll.Outcome{}
	}

	var (
		tags     map[string][]string
		accounts []finala.Account
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := o.fetcher.FetchTags(gctx, id)
		if err != nil {
			return fmt.Errorf("fetch tags: %w", err)
		}
		tags = t
		return nil
	})
	g.Go(func() error {
		a, err := o.fetcher.FetchAccounts(gctx, id)
		if err != nil {
			return fmt.Errorf("fetch accounts: %w", err)
		}
		accounts = a
		return nil
	})
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return poll.Outcome{}
		}
		o.log.Warn("vocabulary fetch failed", "execution", id, "error", err)
		return poll.Outcome{Again: true}
	}

	vocab := finala.Vocabulary{Tags: tags, Accounts: accounts}
	again := o.selector.IsScanning()
	return poll.Outcome{
		Commit: func() { o.store.UpdateVocabulary(vocab) },
		Again:  again,
		After: func() {
			// The scan may have been reported while this fetch was in flight.
			if !again && o.selector.IsScanning() && o.vocabulary.State() == poll.Idle {
				o.vocabulary.Refresh()
			}
			o.notify()
		},
	}
}
