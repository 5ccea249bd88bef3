package ingest

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/teranos/globi/errors"
	"github.com/teranos/globi/graph"
	"github.com/teranos/globi/logger"
	"github.com/teranos/globi/metrics"
	"github.com/teranos/globi/record"
)

// Outcome is the result of offering one record to the Ingester.
type Outcome int

const (
	// OutcomeOK means the record was written, or queued in the open batch.
	OutcomeOK Outcome = iota
	// OutcomeSkip means the record failed validation or could not be built.
	OutcomeSkip
	// OutcomeFatal means a store failure rolled back the current batch.
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeSkip:
		return "skip"
	default:
		return "fatal"
	}
}

// Ingester validates records and writes them through a Builder in
// transactions of up to CommitEvery records.
type Ingester struct {
	store     graph.Store
	validator *record.Validator
	builder   *Builder
	metrics   *metrics.Metrics
	logger    *zap.SugaredLogger

	commitEvery   int
	progressEvery int
	emitter       ProgressEmitter

	pending []record.Record
	stats   *Stats
}

// IngesterConfig holds the batching knobs.
type IngesterConfig struct {
	CommitEvery   int
	ProgressEvery int
	RunID         string
	Emitter       ProgressEmitter
	Metrics       *metrics.Metrics
	Logger        *zap.SugaredLogger
}

// NewIngester creates an Ingester.
func NewIngester(store graph.Store, validator *record.Validator, builder *Builder, cfg IngesterConfig) *Ingester {
	if cfg.CommitEvery <= 0 {
		cfg.CommitEvery = 1
	}
	if cfg.Emitter == nil {
		cfg.Emitter = nopEmitter{}
	}
	return &Ingester{
		store:         store,
		validator:     validator,
		builder:       builder,
		metrics:       cfg.Metrics,
		logger:        logger.OrNop(cfg.Logger).Named("ingest"),
		commitEvery:   cfg.CommitEvery,
		progressEvery: cfg.ProgressEvery,
		emitter:       cfg.Emitter,
		stats:         NewStats(cfg.RunID),
	}
}

// Stats returns the running counts.
func (in *Ingester) Stats() *Stats {
	return in.stats
}

// Ingest validates r and writes it. Invalid records are skipped with a
// warning, as are records the builder rejects once their batch is flushed. A valid record joins the open batch, which is committed once it
// holds CommitEvery records; the error is non-nil only for OutcomeFatal.
func (in *Ingester) Ingest(ctx context.Context, r record.Record) (Outcome, error) {
	in.stats.Seen++
	ok, warnings := in.validator.Validate(r)
	if !ok {
		in.stats.Skipped++
		for _, w := range warnings {
			in.stats.AddWarnings(w.Message)
			in.metrics.ValidationFailure(w.Reason)
		}
		in.metrics.Record(metrics.OutcomeSkipped)
		return OutcomeSkip, nil
	}

	in.pending = append(in.pending, r)
	if len(in.pending) < in.commitEvery {
		return OutcomeOK, nil
	}
	skipped := in.stats.Skipped
	if err := in.Flush(ctx); err != nil {
		return OutcomeFatal, err
	}
	if in.commitEvery == 1 && in.stats.Skipped > skipped {
		return OutcomeSkip, nil
	}
	return OutcomeOK, nil
}

// Flush commits the open batch. A record the builder rejects for any reason
// other than a store failure is dropped from the batch and counted as
// skipped, and the rest is retried. On a store failure the batch is rolled
// back and counted as failed.
func (in *Ingester) Flush(ctx context.Context) error {
	batch := in.pending
	in.pending = nil

	for len(batch) > 0 {
		var (
			warnings []string
			edges    int
			bad      = -1
			cause    error
		)
		err := in.store.Update(ctx, func(tx graph.Tx) error {
			for i, r := range batch {
				link, w, err := in.builder.Build(ctx, tx, r)
				warnings = append(warnings, w...)
				if err != nil {
					bad, cause = i, err
					return errors.Wrapf(err, "record [%s]", r.Context())
				}
				if link.Created {
					edges++
				}
			}
			return nil
		})
		if err == nil {
			in.stats.Ingested += len(batch)
			in.stats.Edges += edges
			in.stats.AddWarnings(warnings...)
			for range batch {
				in.metrics.Record(metrics.OutcomeIngested)
			}
			return nil
		}

		in.builder.Reset()
		if bad < 0 || errors.IsStoreFailure(err) || ctx.Err() != nil {
			in.stats.Failed += len(batch)
			for range batch {
				in.metrics.Record(metrics.OutcomeFailed)
			}
			in.logger.Errorw("Batch rolled back",
				logger.FieldBatchSize, len(batch),
				logger.FieldError, err,
			)
			return err
		}

		in.stats.Skipped++
		in.stats.AddWarnings(cause.Error())
		in.metrics.Record(metrics.OutcomeSkipped)
		in.logger.Warnw("Record skipped",
			logger.FieldError, err,
		)
		batch = append(batch[:bad:bad], batch[bad+1:]...)
	}
	return nil
}

// Run drains src, stopping at the first store failure. Progress is emitted
// every ProgressEvery records.
func (in *Ingester) Run(ctx context.Context, src record.Source) (*Stats, error) {
	defer in.stats.Finish()
	in.emitter.EmitStage("ingest", "reading records")

	for {
		if err := ctx.Err(); err != nil {
			return in.stats, errors.Wrap(err, "ingestion interrupted")
		}
		r, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			in.emitter.EmitError("read", err)
			return in.stats, errors.Wrap(err, "failed to read record")
		}
		if outcome, err := in.Ingest(ctx, r); outcome == OutcomeFatal {
			in.emitter.EmitError("write", err)
			return in.stats, err
		}
		if in.progressEvery > 0 && in.stats.Seen%in.progressEvery == 0 {
			in.emitter.EmitProgress(in.stats.Seen, map[string]interface{}{"type": "records"})
		}
	}

	if err := in.Flush(ctx); err != nil {
		in.emitter.EmitError("write", err)
		return in.stats, err
	}
	in.stats.Finish()
	in.emitter.EmitComplete(in.stats)
	return in.stats, nil
}
