package shardfuse

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// BulkAdd builds and appends shards for a random-order key slice.
//
// Keys are grouped by shard prefix, the per-shard filters are built
// concurrently (bounded by GOMAXPROCS), and the results are appended in
// ascending prefix order so the body layout matches what the streaming
// protocol would have produced. Prefixes with no keys stay empty.
//
// Every target slot must be empty; an ErrSlotOccupied aborts the append
// loop, leaving earlier shards in place.
func (s *Sink[T]) BulkAdd(ctx context.Context, keys []uint64) error {
	groups := make([][]uint64, s.Capacity())
	for _, key := range keys {
		prefix := s.Prefix(key)
		groups[prefix] = append(groups[prefix], key)
	}

	filters := make([]*Filter[T], s.Capacity())

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for prefix, group := range groups {
		if len(group) == 0 {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			f := &Filter[T]{}
			err := f.Populate(group)
			s.metrics.RecordBuild(len(group), time.Since(start), err)
			s.logger.LogBuild(len(group), time.Since(start), err)
			if err != nil {
				return fmt.Errorf("shard %d: %w", prefix, err)
			}
			filters[prefix] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for prefix, f := range filters {
		if f == nil {
			continue
		}
		if err := s.Add(f, uint32(prefix)); err != nil {
			return err
		}
	}
	return nil
}
