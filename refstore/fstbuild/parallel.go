package fstbuild

import (
	"context"
	"fmt"

	"github.com/carbocation/pfx"
	"golang.org/x/sync/errgroup"
)

// BuildAll runs BuildShard for every shard in opts concurrently, one worker
// goroutine per input VCF (spec §5 "FST build: one worker thread per input
// VCF shard"). Within a shard, parsing and writing stay sequential inside
// BuildShard because the builder demands monotonically non-decreasing keys;
// only the across-shard fan-out is parallel. The first shard to fail
// cancels the others via the errgroup's shared context.
func BuildAll(ctx context.Context, opts []Options, workers int) error {
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for _, o := range opts {
		o := o
		g.Go(func() error {
			if err := BuildShard(gctx, o); err != nil {
				return pfx.Err(fmt.Errorf("building shard from %s: %w", o.VCFPath, err))
			}
			return nil
		})
	}
	return g.Wait()
}
