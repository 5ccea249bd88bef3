// Package sqlstore implements graph.Store on SQLite.
//
// Nodes, edges and index entries live in the nodes, edges and node_index
// tables created by the db migrations. Properties are stored as JSON text.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/globi/db"
	"github.com/teranos/globi/errors"
	"github.com/teranos/globi/graph"
	"github.com/teranos/globi/logger"
)

// Query constants
const (
	nodeInsertQuery = `INSERT INTO nodes (kind, props) VALUES (?, ?)`
	nodeSelectQuery = `SELECT kind, props FROM nodes WHERE id = ?`
	nodeUpdateQuery = `UPDATE nodes SET props = ? WHERE id = ?`
	nodeIDsQuery    = `SELECT id FROM nodes WHERE kind = ? AND id > ? ORDER BY id LIMIT ?`

	edgeInsertQuery = `INSERT INTO edges (start_id, end_id, type, props) VALUES (?, ?, ?, ?)`
	edgeDeleteQuery = `DELETE FROM edges WHERE id = ?`
	edgeColumns     = `SELECT id, start_id, end_id, type, props FROM edges`
	degreeQuery     = `SELECT (SELECT COUNT(*) FROM edges WHERE start_id = ?) + (SELECT COUNT(*) FROM edges WHERE end_id = ?)`

	indexInsertQuery = `INSERT OR IGNORE INTO node_index (idx, key, node_id) VALUES (?, ?, ?)`
	indexLookupQuery = `SELECT node_id FROM node_index WHERE idx = ? AND key = ? ORDER BY node_id`

	nodeStatsQuery = `SELECT kind, COUNT(*) FROM nodes GROUP BY kind`
	edgeStatsQuery = `SELECT type, COUNT(*) FROM edges GROUP BY type`
)

// Store implements graph.Store with a SQLite backend
type Store struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

var _ graph.Store = (*Store)(nil)

// New wraps an already migrated database.
func New(database *sql.DB, log *zap.SugaredLogger) *Store {
	return &Store{
		db:     database,
		logger: logger.OrNop(log).Named("graph.sqlstore"),
	}
}

// Open opens (creating and migrating if needed) the graph database at path.
func Open(path string, log *zap.SugaredLogger) (*Store, error) {
	database, err := db.OpenWithMigrations(path, log)
	if err != nil {
		return nil, errors.MarkStoreFailure(err, "open graph store")
	}
	return New(database, log), nil
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Update runs fn in a read-write transaction.
func (s *Store) Update(ctx context.Context, fn func(graph.Tx) error) error {
	return s.run(ctx, fn, true)
}

// View runs fn in a transaction that is always rolled back.
func (s *Store) View(ctx context.Context, fn func(graph.Tx) error) error {
	return s.run(ctx, fn, false)
}

func (s *Store) run(ctx context.Context, fn func(graph.Tx) error, commit bool) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		if db.IsDatabaseClosed(err) {
			err = errors.Mark(err, db.ErrDatabaseClosed)
		}
		return errors.MarkStoreFailure(err, "begin transaction")
	}

	if err := fn(&tx{tx: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Warnw("Rollback failed", logger.FieldError, rbErr.Error())
		}
		return err
	}

	if !commit {
		return errors.MarkStoreFailure(ignoreTxDone(sqlTx.Rollback()), "end read transaction")
	}
	return errors.MarkStoreFailure(sqlTx.Commit(), "commit transaction")
}

func ignoreTxDone(err error) error {
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

// Stats counts nodes per kind and edges per type.
func (s *Store) Stats(ctx context.Context) (*graph.Stats, error) {
	stats := &graph.Stats{Nodes: map[string]int{}, Edges: map[string]int{}}
	if err := countInto(ctx, s.db, nodeStatsQuery, stats.Nodes); err != nil {
		return nil, errors.MarkStoreFailure(err, "count nodes")
	}
	if err := countInto(ctx, s.db, edgeStatsQuery, stats.Edges); err != nil {
		return nil, errors.MarkStoreFailure(err, "count edges")
	}
	return stats, nil
}

func countInto(ctx context.Context, q *sql.DB, query string, into map[string]int) error {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return err
		}
		into[name] = n
	}
	return rows.Err()
}

// tx implements graph.Tx over a *sql.Tx.
type tx struct {
	tx *sql.Tx
}

func (t *tx) CreateNode(ctx context.Context, kind string, props graph.Props) (*graph.Node, error) {
	raw, err := encodeProps(props)
	if err != nil {
		return nil, err
	}
	res, err := t.tx.ExecContext(ctx, nodeInsertQuery, kind, raw)
	if err != nil {
		return nil, errors.MarkStoreFailure(err, "insert node")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.MarkStoreFailure(err, "node id")
	}
	return &graph.Node{ID: id, Kind: kind, Props: copyProps(props)}, nil
}

func (t *tx) Node(ctx context.Context, id int64) (*graph.Node, error) {
	var kind, raw string
	err := t.tx.QueryRowContext(ctx, nodeSelectQuery, id).Scan(&kind, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("node %d", id)
	}
	if err != nil {
		return nil, errors.MarkStoreFailure(err, "select node")
	}
	props, err := decodeProps(raw)
	if err != nil {
		return nil, err
	}
	return &graph.Node{ID: id, Kind: kind, Props: props}, nil
}

func (t *tx) SetProps(ctx context.Context, id int64, props graph.Props) error {
	node, err := t.Node(ctx, id)
	if err != nil {
		return err
	}
	for k, v := range props {
		if v == nil {
			delete(node.Props, k)
		} else {
			node.Props[k] = v
		}
	}
	raw, err := encodeProps(node.Props)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(ctx, nodeUpdateQuery, raw, id)
	return errors.MarkStoreFailure(err, "update node")
}

func (t *tx) NodeIDs(ctx context.Context, kind string, afterID int64, limit int) ([]int64, error) {
	rows, err := t.tx.QueryContext(ctx, nodeIDsQuery, kind, afterID, limit)
	if err != nil {
		return nil, errors.MarkStoreFailure(err, "select node ids")
	}
	return scanIDs(rows)
}

func (t *tx) CreateEdge(ctx context.Context, start, end int64, typ string, props graph.Props) (*graph.Edge, error) {
	raw, err := encodeProps(props)
	if err != nil {
		return nil, err
	}
	res, err := t.tx.ExecContext(ctx, edgeInsertQuery, start, end, typ, raw)
	if err != nil {
		if db.IsConstraintViolation(err) {
			return nil, errors.Wrapf(errors.Mark(err, errors.ErrNotFound), "edge %d-[%s]->%d endpoint", start, typ, end)
		}
		return nil, errors.MarkStoreFailure(err, "insert edge")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.MarkStoreFailure(err, "edge id")
	}
	return &graph.Edge{ID: id, Start: start, End: end, Type: typ, Props: copyProps(props)}, nil
}

func (t *tx) DeleteEdge(ctx context.Context, id int64) error {
	_, err := t.tx.ExecContext(ctx, edgeDeleteQuery, id)
	return errors.MarkStoreFailure(err, "delete edge")
}

func (t *tx) Edges(ctx context.Context, nodeID int64, dir graph.Direction, types ...string) ([]*graph.Edge, error) {
	var where string
	args := []any{}
	switch dir {
	case graph.Outgoing:
		where = "start_id = ?"
		args = append(args, nodeID)
	case graph.Incoming:
		where = "end_id = ?"
		args = append(args, nodeID)
	default:
		where = "(start_id = ? OR end_id = ?)"
		args = append(args, nodeID, nodeID)
	}
	if len(types) > 0 {
		where += " AND type IN (?" + strings.Repeat(", ?", len(types)-1) + ")"
		for _, typ := range types {
			args = append(args, typ)
		}
	}

	rows, err := t.tx.QueryContext(ctx, edgeColumns+" WHERE "+where+" ORDER BY id", args...)
	if err != nil {
		return nil, errors.MarkStoreFailure(err, "select edges")
	}
	defer rows.Close()

	var edges []*graph.Edge
	for rows.Next() {
		var e graph.Edge
		var raw string
		if err := rows.Scan(&e.ID, &e.Start, &e.End, &e.Type, &raw); err != nil {
			return nil, errors.MarkStoreFailure(err, "scan edge")
		}
		if e.Props, err = decodeProps(raw); err != nil {
			return nil, err
		}
		edges = append(edges, &e)
	}
	return edges, errors.MarkStoreFailure(rows.Err(), "iterate edges")
}

func (t *tx) Degree(ctx context.Context, nodeID int64) (int, error) {
	var n int
	if err := t.tx.QueryRowContext(ctx, degreeQuery, nodeID, nodeID).Scan(&n); err != nil {
		return 0, errors.MarkStoreFailure(err, "count degree")
	}
	return n, nil
}

func (t *tx) AddIndex(ctx context.Context, index, key string, nodeID int64) error {
	_, err := t.tx.ExecContext(ctx, indexInsertQuery, index, key, nodeID)
	return errors.MarkStoreFailure(err, "insert index entry")
}

func (t *tx) Lookup(ctx context.Context, index, key string) ([]int64, error) {
	rows, err := t.tx.QueryContext(ctx, indexLookupQuery, index, key)
	if err != nil {
		return nil, errors.MarkStoreFailure(err, "lookup index")
	}
	return scanIDs(rows)
}

func scanIDs(rows *sql.Rows) ([]int64, error) {
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.MarkStoreFailure(err, "scan id")
		}
		ids = append(ids, id)
	}
	return ids, errors.MarkStoreFailure(rows.Err(), "iterate ids")
}

func encodeProps(props graph.Props) (string, error) {
	if len(props) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return "", errors.Wrap(err, "encode properties")
	}
	return string(raw), nil
}

func decodeProps(raw string) (graph.Props, error) {
	props := graph.Props{}
	if raw == "" {
		return props, nil
	}
	if err := json.Unmarshal([]byte(raw), &props); err != nil {
		return nil, errors.MarkStoreFailure(err, "decode properties")
	}
	return props, nil
}

func copyProps(props graph.Props) graph.Props {
	out := make(graph.Props, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}
