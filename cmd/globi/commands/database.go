package commands

import (
	"github.com/teranos/globi/am"
	"github.com/teranos/globi/errors"
	"github.com/teranos/globi/graph/sqlstore"
	"github.com/teranos/globi/logger"
)

// loadConfig loads and validates the configuration.
func loadConfig() (*am.Config, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// openStore opens and migrates the graph store at dbPath, falling back to
// the configured database path.
func openStore(cfg *am.Config, dbPath string) (*sqlstore.Store, string, error) {
	if dbPath == "" {
		dbPath = cfg.Database.Path
	}
	if dbPath == "" {
		dbPath = "globi.db"
	}

	store, err := sqlstore.Open(dbPath, logger.Logger)
	if err != nil {
		return nil, dbPath, errors.Wrapf(err, "failed to open database at %s", dbPath)
	}
	return store, dbPath, nil
}
