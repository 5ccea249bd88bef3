package neo4jexport

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/teranos/globi/am"
	"github.com/teranos/globi/errors"
	"github.com/teranos/globi/logger"
)

const (
	mergeTaxaQuery = `
UNWIND $rows AS r
MERGE (t:Taxon {key: r.key})
SET t += r`

	mergeInteractionsQuery = `
UNWIND $rows AS r
MATCH (a:Taxon {key: r.from})
MATCH (b:Taxon {key: r.to})
MERGE (a)-[e:INTERACTS_WITH {type: r.type}]->(b)
SET e.label = r.label, e.iri = r.iri, e.count = r.count`

	taxonKeyConstraint = `CREATE CONSTRAINT taxon_key_unique IF NOT EXISTS FOR (t:Taxon) REQUIRE t.key IS UNIQUE`
)

// Client writes rows to Neo4j.
type Client struct {
	Driver   neo4j.DriverWithContext
	Database string
	logger   *zap.SugaredLogger
}

// Connect opens a driver for cfg and verifies connectivity. It returns nil
// without error when no URI is configured.
func Connect(ctx context.Context, cfg am.Neo4jConfig, log *zap.SugaredLogger) (*Client, error) {
	if cfg.URI == "" {
		return nil, nil
	}
	user := cfg.User
	if user == "" {
		user = "neo4j"
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(user, cfg.Password, ""), func(c *neo4j.Config) {
		if cfg.MaxPoolSize > 0 {
			c.MaxConnectionPoolSize = cfg.MaxPoolSize
		}
		c.SocketConnectTimeout = timeout
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create neo4j driver")
	}

	verifyCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, errors.WithHintf(errors.Wrap(err, "failed to reach neo4j"), "check neo4j.uri (%s) and credentials", cfg.URI)
	}

	return &Client{
		Driver:   driver,
		Database: cfg.Database,
		logger:   logger.OrNop(log).Named("neo4j"),
	}, nil
}

// Close releases the driver.
func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.Driver == nil {
		return nil
	}
	err := c.Driver.Close(ctx)
	c.Driver = nil
	return err
}

// EnsureSchema creates the taxon key constraint. Failures are logged, since
// restricted users may not manage schema.
func (c *Client) EnsureSchema(ctx context.Context) {
	session := c.session(ctx)
	defer session.Close(ctx)
	res, err := session.Run(ctx, taxonKeyConstraint, nil)
	if err == nil {
		_, err = res.Consume(ctx)
	}
	if err != nil {
		c.logger.Warnw("Neo4j schema init failed (continuing)", logger.FieldError, err)
	}
}

func (c *Client) WriteTaxa(ctx context.Context, rows []map[string]any) error {
	return c.write(ctx, mergeTaxaQuery, rows)
}

func (c *Client) WriteInteractions(ctx context.Context, rows []map[string]any) error {
	return c.write(ctx, mergeInteractionsQuery, rows)
}

func (c *Client) session(ctx context.Context) neo4j.SessionWithContext {
	return c.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: c.Database,
	})
}

func (c *Client) write(ctx context.Context, query string, rows []map[string]any) error {
	if len(rows) == 0 {
		return nil
	}
	session := c.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"rows": rows})
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	return errors.Wrapf(err, "neo4j write of %d rows", len(rows))
}

var _ Writer = (*Client)(nil)
