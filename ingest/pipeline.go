package ingest

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/teranos/globi/errors"
	"github.com/teranos/globi/record"
)

// readAhead bounds how many records the reader may get ahead of the writer.
const readAhead = 256

// RunPipeline reads srcs in order on one goroutine and feeds them to in on
// another. The ingester stays the only writer. A read failure stops the
// writer without flushing its pending batch.
func RunPipeline(ctx context.Context, in *Ingester, srcs ...record.Source) (*Stats, error) {
	g, gctx := errgroup.WithContext(ctx)
	records := make(chan record.Record, readAhead)

	g.Go(func() error {
		for i, src := range srcs {
			if err := drain(gctx, src, records); err != nil {
				// records stays open so the writer stops on cancellation, not EOF
				return errors.Wrapf(err, "source %d", i+1)
			}
		}
		close(records)
		return nil
	})

	var stats *Stats
	g.Go(func() error {
		var err error
		stats, err = in.Run(gctx, &chanSource{ctx: gctx, records: records})
		return err
	})

	err := g.Wait()
	if stats == nil {
		stats = in.Stats()
	}
	return stats, err
}

func drain(ctx context.Context, src record.Source, out chan<- record.Record) error {
	for {
		r, err := src.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		select {
		case out <- r:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

type chanSource struct {
	ctx     context.Context
	records <-chan record.Record
}

func (s *chanSource) Next() (record.Record, error) {
	select {
	case r, ok := <-s.records:
		if !ok {
			return nil, io.EOF
		}
		return r, nil
	case <-s.ctx.Done():
		return nil, s.ctx.Err()
	}
}
