package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/andishehs/MetaGen/core"
)

// RunAll runs independent sessions concurrently with at most limit in
// flight (limit <= 0 means no limit). Outcomes are returned in request
// order. Sessions never fail the group; each failure is reported in its
// own outcome.
func (c *Coordinator) RunAll(ctx context.Context, reqs []Request, limit int) []core.Outcome {
	outcomes := make([]core.Outcome, len(reqs))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			outcomes[i] = c.Run(ctx, req)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}
