package analysis

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one game in a batch.
type Result struct {
	Envelope *Envelope
	Err      error
}

// AnalyzeBatch analyzes games concurrently, each with its own engine
// session, using at most Options.Workers sessions at a time. Results are
// in input order; a failed game does not stop the others.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, reqs []Request) []Result {
	results := make([]Result, len(reqs))
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)

	for i, req := range reqs {
		g.Go(func() error {
			env, err := a.Analyze(ctx, req)
			results[i] = Result{Envelope: env, Err: err}
			if err != nil {
				a.log.Warn().Err(err).Int("game", i).Str("game_id", req.ID).Msg("game analysis failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	a.log.Info().
		Int("games", len(reqs)).
		Int("failed", failed).
		Int("workers", a.opts.Workers).
		Dur("elapsed", time.Since(start)).
		Msg("batch complete")

	return results
}
