// Package aggregate rolls specimen interactions up into taxon summary edges.
//
// A pass has three phases: summary edges from an earlier pass are removed,
// every (source taxon, interaction type, target taxon) triple reachable
// through CLASSIFIED_AS is counted into a Buffer, and the buffer is replayed
// in key order as Taxon to Taxon edges carrying the count. Writes are
// committed every BatchSize edges; committed batches stay when a later one
// fails.
package aggregate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/globi/errors"
	"github.com/teranos/globi/graph"
	"github.com/teranos/globi/interaction"
	"github.com/teranos/globi/logger"
	"github.com/teranos/globi/metrics"
)

const (
	DefaultBatchSize   = 1000
	DefaultReportEvery = 1000
)

// Config tunes an Aggregator.
type Config struct {
	BatchSize   int
	ReportEvery int
	Vocabulary  *interaction.Vocabulary
	Metrics     *metrics.Metrics
	Logger      *zap.SugaredLogger
}

// Aggregator writes taxon interaction summaries.
type Aggregator struct {
	store  graph.Store
	buffer Buffer
	vocab  *interaction.Vocabulary
	types  []string

	batchSize   int
	reportEvery int
	metrics     *metrics.Metrics
	logger      *zap.SugaredLogger
}

// New creates an Aggregator counting into buffer. The caller closes buffer.
func New(store graph.Store, buffer Buffer, cfg Config) *Aggregator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.ReportEvery <= 0 {
		cfg.ReportEvery = DefaultReportEvery
	}
	if cfg.Vocabulary == nil {
		cfg.Vocabulary = interaction.Default()
	}
	return &Aggregator{
		store:       store,
		buffer:      buffer,
		vocab:       cfg.Vocabulary,
		types:       cfg.Vocabulary.Names(),
		batchSize:   cfg.BatchSize,
		reportEvery: cfg.ReportEvery,
		metrics:     cfg.Metrics,
		logger:      logger.OrNop(cfg.Logger).Named("aggregate"),
	}
}

// Aggregate runs one pass and returns the number of summary edges created.
func (a *Aggregator) Aggregate(ctx context.Context) (int, error) {
	start := time.Now()
	defer func() { a.metrics.AggregateDuration(time.Since(start)) }()

	removed, err := a.clear(ctx)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		a.logger.Infow("Removed previous summary edges", logger.FieldCount, removed)
	}

	if err := a.walk(ctx); err != nil {
		return 0, err
	}
	created, err := a.write(ctx)
	a.metrics.SummaryEdges(created)
	if err != nil {
		return created, err
	}
	elapsed := time.Since(start).Seconds()
	a.logger.Infow(fmt.Sprintf("created [%d] taxon interactions in [%.2f] s", created, elapsed),
		logger.FieldCount, created,
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	return created, nil
}

// clear deletes interaction-typed edges leaving Taxon nodes, one batch of
// taxa per transaction.
func (a *Aggregator) clear(ctx context.Context) (int, error) {
	var (
		removed int
		after   int64
	)
	for {
		var ids []int64
		err := a.store.Update(ctx, func(tx graph.Tx) error {
			var err error
			ids, err = tx.NodeIDs(ctx, graph.KindTaxon, after, a.batchSize)
			if err != nil {
				return err
			}
			for _, id := range ids {
				edges, err := tx.Edges(ctx, id, graph.Outgoing, a.types...)
				if err != nil {
					return err
				}
				for _, e := range edges {
					if err := tx.DeleteEdge(ctx, e.ID); err != nil {
						return err
					}
					removed++
				}
			}
			return nil
		})
		if err != nil {
			return removed, errors.Wrap(err, "failed to remove summary edges")
		}
		if len(ids) < a.batchSize {
			return removed, nil
		}
		after = ids[len(ids)-1]
	}
}

func (a *Aggregator) walk(ctx context.Context) error {
	start := time.Now()
	var taxa, walked int

	report := func() {
		elapsed := time.Since(start).Seconds()
		rate := 0.0
		if elapsed > 0 {
			rate = float64(taxa) / elapsed
		}
		a.logger.Infow(fmt.Sprintf("walked [%d] interactions in [%.2f] taxon/s over [%.2f] s", walked, rate, elapsed),
			logger.FieldCount, walked,
			logger.FieldTotal, taxa,
			logger.FieldRate, rate,
		)
	}

	err := a.store.View(ctx, func(tx graph.Tx) error {
		return graph.ForEachNode(ctx, tx, graph.KindTaxon, a.batchSize, func(taxonID int64) error {
			n, err := a.walkTaxon(ctx, tx, taxonID)
			if err != nil {
				return err
			}
			walked += n
			taxa++
			if taxa%a.reportEvery == 0 {
				report()
			}
			return nil
		})
	})
	if err != nil {
		return errors.Wrap(err, "failed to walk interactions")
	}
	report()
	return nil
}

// walkTaxon counts the interactions of the specimens classified as taxonID.
func (a *Aggregator) walkTaxon(ctx context.Context, tx graph.Tx, taxonID int64) (int, error) {
	specimens, err := tx.Edges(ctx, taxonID, graph.Incoming, graph.EdgeClassifiedAs)
	if err != nil {
		return 0, err
	}
	walked := 0
	for _, classified := range specimens {
		interactions, err := tx.Edges(ctx, classified.Start, graph.Outgoing, a.types...)
		if err != nil {
			return walked, err
		}
		for _, e := range interactions {
			targets, err := tx.Edges(ctx, e.End, graph.Outgoing, graph.EdgeClassifiedAs)
			if err != nil {
				return walked, err
			}
			for _, target := range targets {
				k := Key{Source: taxonID, Type: e.Type, Target: target.End}
				if err := a.buffer.Increment(k, 1); err != nil {
					return walked, err
				}
			}
			walked++
		}
	}
	return walked, nil
}

type summary struct {
	key   Key
	count int64
}

func (a *Aggregator) write(ctx context.Context) (int, error) {
	created := 0
	batch := make([]summary, 0, a.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n := 0
		err := a.store.Update(ctx, func(tx graph.Tx) error {
			n = 0
			for _, s := range batch {
				ok, err := a.writeOne(ctx, tx, s)
				if err != nil {
					return err
				}
				if ok {
					n++
				}
			}
			return nil
		})
		if err != nil {
			return errors.Wrapf(err, "failed to commit batch of %d summary edges", len(batch))
		}
		created += n
		batch = batch[:0]
		return nil
	}

	err := a.buffer.Each(func(k Key, count int64) error {
		batch = append(batch, summary{key: k, count: count})
		if len(batch) >= a.batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return created, err
	}
	return created, flush()
}

// writeOne creates one summary edge. Keys whose taxa no longer exist are
// logged and skipped.
func (a *Aggregator) writeOne(ctx context.Context, tx graph.Tx, s summary) (bool, error) {
	for _, id := range []int64{s.key.Source, s.key.Target} {
		if _, err := tx.Node(ctx, id); err != nil {
			if errors.IsNotFoundError(err) {
				a.logger.Warnw("Skipping summary for missing taxon",
					logger.FieldNodeID, id,
					"type", s.key.Type,
				)
				return false, nil
			}
			return false, err
		}
	}

	props := graph.Props{interaction.PropCount: s.count}
	if t, ok := a.vocab.ByName(s.key.Type); ok {
		for k, v := range a.vocab.EdgeProps(t) {
			props[k] = v
		}
	}
	if _, err := tx.CreateEdge(ctx, s.key.Source, s.key.Target, s.key.Type, props); err != nil {
		return false, err
	}
	return true, nil
}
