// Package adapter loads schema snapshots from live database servers. Each
// supported engine has an Adapter that knows its driver, how to turn a DSN
// into a driver connection string and which catalog queries describe a
// schema.
package adapter

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/pingcap/errors"
	"go.uber.org/zap"

	"github.com/mudrockdev/schemadiff/snapshot"
)

// TableFilter decides whether a table is loaded. A nil TableFilter loads
// every table.
type TableFilter func(table string) bool

func (f TableFilter) allows(table string) bool {
	return f == nil || f(table)
}

// Adapter defines the database specific operations.
type Adapter interface {
	// Name is the value accepted by Get.
	Name() string
	// DriverName is the database/sql driver used by Open.
	DriverName() string
	// FormatDSN builds the driver connection string.
	FormatDSN(d DSN) string
	// Scoped reports whether a connection only sees the database named in
	// its DSN, so another database needs another connection.
	Scoped() bool
	// ListDatabases returns the databases visible on the connection.
	ListDatabases(ctx context.Context, db *sql.DB) ([]string, error)
	// LoadSnapshot reads the metadata of one database.
	LoadSnapshot(ctx context.Context, db *sql.DB, database string, allow TableFilter) (*snapshot.Snapshot, error)
	// DatabaseInfo returns size figures for one database.
	DatabaseInfo(ctx context.Context, db *sql.DB, database string) (DatabaseInfo, error)
}

var adapters = map[string]Adapter{
	"mysql":     &MySQLAdapter{},
	"postgres":  &PostgreSQLAdapter{},
	"sqlite":    &SQLiteAdapter{},
	"sqlserver": &SQLServerAdapter{},
}

// Get returns the adapter for the given database type.
func Get(dbType string) (Adapter, error) {
	a, ok := adapters[dbType]
	if !ok {
		return nil, errors.Errorf("unsupported database type: %s", dbType)
	}
	return a, nil
}

// Names lists the supported database types.
func Names() []string {
	names := make([]string, 0, len(adapters))
	for name := range adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open connects to the server described by d and checks the connection.
func Open(ctx context.Context, a Adapter, d DSN) (*sql.DB, error) {
	db, err := sql.Open(a.DriverName(), a.FormatDSN(d))
	if err != nil {
		return nil, &ConnectionError{Driver: a.Name(), Host: d.Host, Err: err}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &ConnectionError{Driver: a.Name(), Host: d.Host, Err: err}
	}
	return db, nil
}

// OpenFunc opens a connection; Connector uses Open unless told otherwise.
type OpenFunc func(ctx context.Context, a Adapter, d DSN) (*sql.DB, error)

// Connector hands out connections for one DSN. For scoped engines it opens
// one connection per database and keeps it until Close.
type Connector struct {
	Adapter Adapter
	DSN     DSN
	Open    OpenFunc
	Log     *zap.Logger

	mu    sync.Mutex
	conns map[string]*sql.DB
}

// NewConnector returns a Connector using Open.
func NewConnector(a Adapter, d DSN, log *zap.Logger) *Connector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Connector{Adapter: a, DSN: d, Open: Open, Log: log}
}

// DB returns a connection able to read database. An empty name returns the
// connection for the DSN as given.
func (c *Connector) DB(ctx context.Context, database string) (*sql.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	d := c.DSN
	key := ""
	if c.Adapter.Scoped() && database != "" {
		d = d.WithDatabase(database)
		key = database
	}

	if db, ok := c.conns[key]; ok {
		return db, nil
	}

	open := c.Open
	if open == nil {
		open = Open
	}
	c.logger().Debug("open connection",
		zap.String("driver", c.Adapter.Name()), zap.Stringer("dsn", d))
	db, err := open(ctx, c.Adapter, d)
	if err != nil {
		return nil, errors.Trace(err)
	}

	if c.conns == nil {
		c.conns = make(map[string]*sql.DB)
	}
	c.conns[key] = db
	return db, nil
}

// Load reads the snapshot of database through the right connection.
func (c *Connector) Load(ctx context.Context, database string, allow TableFilter) (*snapshot.Snapshot, error) {
	db, err := c.DB(ctx, database)
	if err != nil {
		return nil, errors.Trace(err)
	}
	c.logger().Debug("fetching schema details", zap.String("database", database))
	snap, err := c.Adapter.LoadSnapshot(ctx, db, database, allow)
	return snap, errors.Trace(err)
}

// Close closes every connection handed out.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for key, db := range c.conns {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(c.conns, key)
	}
	return errors.Trace(firstErr)
}

func (c *Connector) logger() *zap.Logger {
	if c.Log == nil {
		return zap.NewNop()
	}
	return c.Log
}
