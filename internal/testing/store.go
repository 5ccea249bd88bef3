package testing

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/teranos/globi/graph/sqlstore"
)

// NewStore returns a graph store over a fresh test database, logging to t.
func NewStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	return sqlstore.New(CreateTestDB(t), zaptest.NewLogger(t).Sugar())
}
