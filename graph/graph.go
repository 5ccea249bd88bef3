// Package graph defines the property-graph store the ingestion engine writes
// to: typed nodes with JSON-able properties, directed typed edges, a degree
// query and exact-match secondary indexes.
//
// All access happens inside a transaction obtained from Store.Update or
// Store.View. Implementations mark backend I/O errors with
// errors.ErrStoreFailure; a missing node is errors.ErrNotFound.
package graph

import (
	"context"
	"strconv"

	"github.com/teranos/globi/errors"
)

// Node kinds.
const (
	KindStudy       = "Study"
	KindSpecimen    = "Specimen"
	KindTaxon       = "Taxon"
	KindLocation    = "Location"
	KindEnvironment = "Environment"
)

// Structural edge types. Interaction edges use the vocabulary name as type.
const (
	EdgeCollected             = "COLLECTED"
	EdgeSupports              = "SUPPORTS"
	EdgeRefutes               = "REFUTES"
	EdgeClassifiedAs          = "CLASSIFIED_AS"
	EdgeOriginallyDescribedAs = "ORIGINALLY_DESCRIBED_AS"
	EdgeCollectedAt           = "COLLECTED_AT"
	EdgeHasEnvironment        = "HAS_ENVIRONMENT"
)

// ErrEdgeExists reports an attempt to create an edge that is already present.
// Callers that create edges idempotently treat it as a no-op.
var ErrEdgeExists = errors.New("edge already exists")

// ErrSelfLoop reports an attempt to relate a node to itself.
var ErrSelfLoop = errors.New("self loop")

// Direction selects which adjacency of a node to traverse.
type Direction int

const (
	Outgoing Direction = iota
	Incoming
	Both
)

func (d Direction) String() string {
	switch d {
	case Outgoing:
		return "outgoing"
	case Incoming:
		return "incoming"
	default:
		return "both"
	}
}

// Props is a property bag. Values must be JSON-representable; numbers read
// back as float64.
type Props map[string]any

// String returns the property as a string, or "" when absent.
func (p Props) String(key string) string {
	switch v := p[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Float returns the property as a float64.
func (p Props) Float(key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Int returns the property as an int64, truncating floats.
func (p Props) Int(key string) (int64, bool) {
	f, ok := p.Float(key)
	return int64(f), ok
}

// Strings returns a []string property. JSON round trips turn it into []any.
func (p Props) Strings(key string) []string {
	switch v := p[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Node is a stored vertex.
type Node struct {
	ID    int64
	Kind  string
	Props Props
}

// Edge is a stored directed relationship from Start to End.
type Edge struct {
	ID    int64
	Start int64
	End   int64
	Type  string
	Props Props
}

// Other returns the endpoint opposite to nodeID.
func (e *Edge) Other(nodeID int64) int64 {
	if e.Start == nodeID {
		return e.End
	}
	return e.Start
}

// Tx is a unit of work against the graph.
type Tx interface {
	CreateNode(ctx context.Context, kind string, props Props) (*Node, error)
	Node(ctx context.Context, id int64) (*Node, error)
	// SetProps merges props into the node; a nil value removes the key.
	SetProps(ctx context.Context, id int64, props Props) error
	// NodeIDs pages through node ids of a kind in ascending order, starting after afterID.
	NodeIDs(ctx context.Context, kind string, afterID int64, limit int) ([]int64, error)

	CreateEdge(ctx context.Context, start, end int64, typ string, props Props) (*Edge, error)
	DeleteEdge(ctx context.Context, id int64) error
	// Edges lists the node's relationships in dir, restricted to types when given.
	Edges(ctx context.Context, nodeID int64, dir Direction, types ...string) ([]*Edge, error)
	// Degree counts all relationships of the node, both directions, all types.
	Degree(ctx context.Context, nodeID int64) (int, error)

	// AddIndex maps key to nodeID in the named index. Adding an existing entry is a no-op.
	AddIndex(ctx context.Context, index, key string, nodeID int64) error
	// Lookup returns the nodes mapped to key, oldest first.
	Lookup(ctx context.Context, index, key string) ([]int64, error)
}

// Store hands out transactions. Update commits when fn returns nil and rolls
// back otherwise; View always rolls back.
type Store interface {
	Update(ctx context.Context, fn func(Tx) error) error
	View(ctx context.Context, fn func(Tx) error) error
}

// Stats summarizes store contents by node kind and edge type.
type Stats struct {
	Nodes map[string]int `json:"nodes"`
	Edges map[string]int `json:"edges"`
}

// LookupFirst returns the first node mapped to key, or 0 when none is.
func LookupFirst(ctx context.Context, tx Tx, index, key string) (int64, error) {
	ids, err := tx.Lookup(ctx, index, key)
	if err != nil || len(ids) == 0 {
		return 0, err
	}
	return ids[0], nil
}

// ForEachNode visits every node of kind in id order, paging through ids
// so no cursor stays open while fn runs.
func ForEachNode(ctx context.Context, tx Tx, kind string, pageSize int, fn func(id int64) error) error {
	if pageSize <= 0 {
		pageSize = 500
	}
	var after int64
	for {
		ids, err := tx.NodeIDs(ctx, kind, after, pageSize)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return errors.Wrap(err, "node scan interrupted")
			}
			if err := fn(id); err != nil {
				return err
			}
		}
		if len(ids) < pageSize {
			return nil
		}
		after = ids[len(ids)-1]
	}
}

// FindEdge returns the typ edge from start to end, or nil. It scans the
// adjacency of whichever endpoint has fewer relationships, outgoing from
// start or incoming to end.
func FindEdge(ctx context.Context, tx Tx, start, end int64, typ string) (*Edge, error) {
	startDegree, err := tx.Degree(ctx, start)
	if err != nil {
		return nil, err
	}
	endDegree, err := tx.Degree(ctx, end)
	if err != nil {
		return nil, err
	}

	if startDegree <= endDegree {
		edges, err := tx.Edges(ctx, start, Outgoing, typ)
		if err != nil {
			return nil, err
		}
		for _, e := range edges {
			if e.End == end {
				return e, nil
			}
		}
		return nil, nil
	}

	edges, err := tx.Edges(ctx, end, Incoming, typ)
	if err != nil {
		return nil, err
	}
	for _, e := range edges {
		if e.Start == start {
			return e, nil
		}
	}
	return nil, nil
}

// CreateEdgeOnce creates the typ edge from start to end unless one exists.
// An existing edge is returned together with ErrEdgeExists; start == end
// returns ErrSelfLoop.
func CreateEdgeOnce(ctx context.Context, tx Tx, start, end int64, typ string, props Props) (*Edge, error) {
	if start == end {
		return nil, errors.Wrapf(ErrSelfLoop, "node %d", start)
	}
	existing, err := FindEdge(ctx, tx, start, end, typ)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, errors.Wrapf(ErrEdgeExists, "%d-[%s]->%d", start, typ, end)
	}
	return tx.CreateEdge(ctx, start, end, typ, props)
}
