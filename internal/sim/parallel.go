package sim

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/milnesim/internal/dynamo"
)

// Sweep runs one simulation per config concurrently. newSim(i) must return a
// simulator for cfgs[i] that shares no metrics, observers or equation state
// with the others. limit caps the number of runs in flight; zero means no cap.
// Results are returned in the order of cfgs.
func Sweep(ctx context.Context, newSim func(i int) *Simulator, cfgs []dynamo.Config, limit int) ([]*dynamo.Result, error) {
	results := make([]*dynamo.Result, len(cfgs))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, cfg := range cfgs {
		g.Go(func() error {
			res, err := newSim(i).Run(ctx, cfg)
			if err != nil {
				return err
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
