// Package neo4jexport mirrors taxa and taxon interaction summaries into a
// Neo4j database for interactive querying.
package neo4jexport

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/teranos/globi/errors"
	"github.com/teranos/globi/graph"
	"github.com/teranos/globi/interaction"
	"github.com/teranos/globi/logger"
	"github.com/teranos/globi/taxon"
)

// Writer receives batches of rows.
type Writer interface {
	WriteTaxa(ctx context.Context, rows []map[string]any) error
	WriteInteractions(ctx context.Context, rows []map[string]any) error
}

// Result counts exported rows.
type Result struct {
	Taxa         int `json:"taxa"`
	Interactions int `json:"interactions"`
}

// Exporter reads the summary graph and hands it to a Writer in batches.
type Exporter struct {
	store     graph.Store
	writer    Writer
	vocab     *interaction.Vocabulary
	batchSize int
	logger    *zap.SugaredLogger
}

// NewExporter creates an Exporter.
func NewExporter(store graph.Store, w Writer, batchSize int, log *zap.SugaredLogger) *Exporter {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &Exporter{
		store:     store,
		writer:    w,
		vocab:     interaction.Default(),
		batchSize: batchSize,
		logger:    logger.OrNop(log).Named("neo4j.export"),
	}
}

// TaxonKey is the identity of a taxon in the export: its external id,
// else its name, else its status.
func TaxonKey(n *graph.Node) string {
	if id := n.Props.String(taxon.PropExternal); id != "" {
		return id
	}
	if name := n.Props.String(taxon.PropName); name != "" {
		return name
	}
	if status := n.Props.String(taxon.PropStatus); status != "" {
		return status
	}
	return "node:" + strconv.FormatInt(n.ID, 10)
}

// Export writes all canonical taxa, then all summary edges. Taxa go first
// so every edge finds both endpoints.
func (e *Exporter) Export(ctx context.Context) (Result, error) {
	var res Result
	err := e.store.View(ctx, func(tx graph.Tx) error {
		taxa := newBatch(e.batchSize, e.writer.WriteTaxa)
		err := graph.ForEachNode(ctx, tx, graph.KindTaxon, e.batchSize, func(id int64) error {
			n, err := tx.Node(ctx, id)
			if err != nil {
				return err
			}
			if verbatim, _ := n.Props[taxon.PropVerbatim].(bool); verbatim {
				return nil
			}
			res.Taxa++
			return taxa.add(ctx, taxonRow(n))
		})
		if err != nil {
			return err
		}
		if err := taxa.flush(ctx); err != nil {
			return err
		}

		interactions := newBatch(e.batchSize, e.writer.WriteInteractions)
		names := e.vocab.Names()
		err = graph.ForEachNode(ctx, tx, graph.KindTaxon, e.batchSize, func(id int64) error {
			edges, err := tx.Edges(ctx, id, graph.Outgoing, names...)
			if err != nil || len(edges) == 0 {
				return err
			}
			from, err := tx.Node(ctx, id)
			if err != nil {
				return err
			}
			for _, edge := range edges {
				to, err := tx.Node(ctx, edge.End)
				if err != nil {
					return err
				}
				count, _ := edge.Props.Int(interaction.PropCount)
				res.Interactions++
				if err := interactions.add(ctx, map[string]any{
					"from":  TaxonKey(from),
					"to":    TaxonKey(to),
					"type":  edge.Type,
					"label": edge.Props.String(interaction.PropLabel),
					"iri":   edge.Props.String(interaction.PropIRI),
					"count": count,
				}); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		return interactions.flush(ctx)
	})
	if err != nil {
		return res, errors.Wrap(err, "neo4j export failed")
	}
	e.logger.Infow("Exported summary graph", "taxa", res.Taxa, "interactions", res.Interactions)
	return res, nil
}

func taxonRow(n *graph.Node) map[string]any {
	row := map[string]any{"key": TaxonKey(n)}
	for _, k := range []string{taxon.PropName, taxon.PropExternal, taxon.PropPath, taxon.PropStatus} {
		if v := n.Props.String(k); v != "" {
			row[k] = v
		}
	}
	return row
}

type batch struct {
	size  int
	rows  []map[string]any
	write func(context.Context, []map[string]any) error
}

func newBatch(size int, write func(context.Context, []map[string]any) error) *batch {
	return &batch{size: size, write: write}
}

func (b *batch) add(ctx context.Context, row map[string]any) error {
	b.rows = append(b.rows, row)
	if len(b.rows) >= b.size {
		return b.flush(ctx)
	}
	return nil
}

func (b *batch) flush(ctx context.Context) error {
	if len(b.rows) == 0 {
		return nil
	}
	err := b.write(ctx, b.rows)
	b.rows = nil
	return err
}
