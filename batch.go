package backtest

import (
	"context"
	"fmt"

	"github.com/etnz/backtest/date"
	"golang.org/x/sync/errgroup"
)

// Scenario is one independent run of a batch.
type Scenario struct {
	Name    string
	Range   date.Range
	Capital Money
	Signals *SignalLog
}

// RunAll runs every scenario against the shared repo, at most limit at a time
// (no limit if limit <= 0). Results are in scenario order.
//
// The first fatal error cancels the scenarios not started yet and is returned.
func RunAll(ctx context.Context, repo PriceRepository, scenarios []Scenario, limit int, opts ...Option) ([]*Result, error) {
	results := make([]*Result, len(scenarios))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, sc := range scenarios {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			e, err := NewEngine(repo, sc.Range, sc.Capital, opts...)
			if err != nil {
				return fmt.Errorf("scenario %q: %w", sc.Name, err)
			}
			e.log = e.log.With().Str("scenario", sc.Name).Logger()
			signals := sc.Signals
			if signals == nil {
				signals = NewSignalLog()
			}
			res, err := e.Run(signals)
			if err != nil {
				return fmt.Errorf("scenario %q: %w", sc.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
