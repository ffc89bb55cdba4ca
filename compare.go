package main

import (
	"context"
	"io"

	"github.com/pingcap/errors"
	"go.uber.org/zap"

	"github.com/mudrockdev/schemadiff/adapter"
	"github.com/mudrockdev/schemadiff/diff"
	"github.com/mudrockdev/schemadiff/filter"
	"github.com/mudrockdev/schemadiff/report"
	"github.com/mudrockdev/schemadiff/snapshot"
)

// comparison holds everything one run of the root command needs.
type comparison struct {
	cfg     *Config
	adapter adapter.Adapter
	filter  *filter.Filter
	console *report.Console
	summary *report.Summary
	log     *zap.Logger

	// open replaces adapter.Open in tests.
	open adapter.OpenFunc
}

func newComparison(cfg *Config, out io.Writer, log *zap.Logger) (*comparison, error) {
	a, err := adapter.Get(cfg.Driver)
	if err != nil {
		return nil, errors.Trace(err)
	}
	f, err := filter.New(cfg.Filter, log)
	if err != nil {
		return nil, errors.Trace(err)
	}

	var opts []report.ConsoleOption
	if cfg.NoColor {
		opts = append(opts, report.WithColor(false))
	}

	return &comparison{
		cfg:     cfg,
		adapter: a,
		filter:  f,
		console: report.NewConsole(out, opts...),
		summary: &report.Summary{},
		log:     log,
		open:    adapter.Open,
	}, nil
}

func (c *comparison) connector(d adapter.DSN) *adapter.Connector {
	conn := adapter.NewConnector(c.adapter, d, c.log)
	conn.Open = c.open
	return conn
}

// run compares the schema named by dsn1 with the schema named by dsn2, or
// with every allowed database on the dsn2 server when dsn2 names none. It
// returns whether any difference was found.
func (c *comparison) run(ctx context.Context, dsn1, dsn2 string) (bool, error) {
	d1, err := adapter.ParseDSN(dsn1)
	if err != nil {
		return false, errors.Annotate(err, "DSN 1")
	}
	if d1.Database == "" {
		return false, errors.New("DSN 1 missing database (D)")
	}
	d2, err := adapter.ParseDSN(dsn2)
	if err != nil {
		return false, errors.Annotate(err, "DSN 2")
	}

	conn1 := c.connector(d1)
	defer conn1.Close()
	conn2 := c.connector(d2)
	defer conn2.Close()

	left, err := c.load(ctx, conn1, d1.Database)
	if err != nil {
		return false, errors.Trace(err)
	}

	if c.cfg.Info {
		c.printInfo(ctx, "Source", conn1, d1, d1.Database)
	}

	databases := []string{d2.Database}
	if !d2.HasDatabase {
		databases, err = c.databases(ctx, conn2)
		if err != nil {
			return false, errors.Trace(err)
		}
	}

	// Each database is reported before the next one is loaded.
	differ := diff.New(report.Tee(c.console, c.summary), diff.WithLogger(c.log))
	found := false
	for i, database := range databases {
		right, err := c.load(ctx, conn2, database)
		if err != nil {
			c.log.Info("comparison aborted",
				zap.Int("schemas", i),
				zap.Int("differences", c.summary.Total()))
			return found, errors.Trace(err)
		}
		if c.cfg.Info {
			c.printInfo(ctx, "Target", conn2, d2, right.Name())
		}
		if differ.Compare(left, right) {
			found = true
		}
	}

	c.log.Info("comparison finished",
		zap.Int("schemas", len(databases)),
		zap.Int("differences", c.summary.Total()),
		zap.Strings("tables", c.summary.Tables()))
	return found, nil
}

// databases lists the databases of the server behind conn that pass the
// database filters.
func (c *comparison) databases(ctx context.Context, conn *adapter.Connector) ([]string, error) {
	db, err := conn.DB(ctx, "")
	if err != nil {
		return nil, errors.Trace(err)
	}
	all, err := c.adapter.ListDatabases(ctx, db)
	if err != nil {
		return nil, errors.Annotate(err, "list databases of DSN 2")
	}
	var allowed []string
	for _, database := range all {
		if c.filter.DatabaseAllowed(database) {
			allowed = append(allowed, database)
		}
	}
	return allowed, nil
}

func (c *comparison) load(ctx context.Context, conn *adapter.Connector, database string) (*snapshot.Snapshot, error) {
	snap, err := conn.Load(ctx, database, c.filter.TablesOf(database))
	if err != nil {
		return nil, errors.Annotatef(err, "load schema %s", database)
	}
	return snap, nil
}

// printInfo writes the size summary of one database. Failures are logged
// and do not stop the comparison.
func (c *comparison) printInfo(ctx context.Context, label string, conn *adapter.Connector, d adapter.DSN, database string) {
	db, err := conn.DB(ctx, database)
	if err != nil {
		c.log.Warn("couldn't collect database info", zap.String("database", database), zap.Error(err))
		return
	}
	info, err := c.adapter.DatabaseInfo(ctx, db, database)
	if err != nil {
		c.log.Warn("couldn't collect database info", zap.String("database", database), zap.Error(err))
		return
	}
	if info.Host == "" {
		info.Host = d.HostOr("localhost")
	}
	c.console.Writeln(label + ": " + info.String())
}
