package adapter

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pingcap/errors"

	"github.com/mudrockdev/schemadiff/snapshot"
)

// Attribute names shared by every adapter.
const (
	AttrDefaultCharset   = "default character set"
	AttrDefaultCollation = "default collation"

	AttrEngine       = "engine"
	AttrCollation    = "collation"
	AttrTableComment = "table comment"

	AttrColumnPosition = "column position"
	AttrDefault        = "default"
	AttrNullable       = "nullable"
	AttrColumnType     = "column type"
	AttrCharset        = "character set"
	AttrExtra          = "extra"
	AttrColumnComment  = "column comment"

	AttrIndexColumns = "columns"
	AttrUnique       = "unique"
)

type attr struct {
	name  string
	value any
}

// entityRow is a table or a column with its attributes.
type entityRow struct {
	name  string
	attrs []attr
}

// indexRow is one column of one index, in index order.
type indexRow struct {
	index  string
	column string
	unique bool
}

// catalog describes how an engine exposes schema metadata. load walks it
// the same way for every engine: schema attributes, then the tables, then
// columns and indexes of each allowed table.
type catalog struct {
	schema  func(ctx context.Context, db *sql.DB, database string) ([]attr, error)
	tables  func(ctx context.Context, db *sql.DB, database string) ([]entityRow, error)
	columns func(ctx context.Context, db *sql.DB, database, table string) ([]entityRow, error)
	indexes func(ctx context.Context, db *sql.DB, database, table string) ([]indexRow, error)
}

func (c catalog) load(ctx context.Context, db *sql.DB, database string, allow TableFilter) (*snapshot.Snapshot, error) {
	schemaAttrs, err := c.schema(ctx, db, database)
	if err != nil {
		return nil, errors.Trace(err)
	}

	b := snapshot.NewBuilder(database)
	for _, a := range schemaAttrs {
		b.Attr(a.name, a.value)
	}

	tables, err := c.tables(ctx, db, database)
	if err != nil {
		return nil, errors.Annotatef(err, "list tables of %s", database)
	}

	for _, table := range tables {
		if !allow.allows(table.name) {
			continue
		}

		tb := b.Table(table.name)
		for _, a := range table.attrs {
			tb.Attr(a.name, a.value)
		}

		columns, err := c.columns(ctx, db, database, table.name)
		if err != nil {
			return nil, errors.Annotatef(err, "load columns of %s.%s", database, table.name)
		}
		for _, col := range columns {
			cb := tb.Column(col.name)
			for _, a := range col.attrs {
				cb.Attr(a.name, a.value)
			}
		}

		indexes, err := c.indexes(ctx, db, database, table.name)
		if err != nil {
			return nil, errors.Annotatef(err, "load indexes of %s.%s", database, table.name)
		}
		addIndexes(tb, indexes)
	}

	return b.Build(), nil
}

// addIndexes groups index rows by index name. The column list keeps row
// order; uniqueness comes from the first row of each index.
func addIndexes(tb *snapshot.TableBuilder, rows []indexRow) {
	type index struct {
		columns []string
		unique  bool
	}
	var order []string
	indexes := make(map[string]*index)
	for _, r := range rows {
		idx, ok := indexes[r.index]
		if !ok {
			idx = &index{unique: r.unique}
			indexes[r.index] = idx
			order = append(order, r.index)
		}
		idx.columns = append(idx.columns, r.column)
	}

	for _, name := range order {
		idx := indexes[name]
		tb.Index(name).
			Attr(AttrIndexColumns, strings.Join(idx.columns, ",")).
			Attr(AttrUnique, yesNo(idx.unique))
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// nullable turns a scanned NullString into a string or nil.
func nullable(ns sql.NullString) any {
	if !ns.Valid {
		return nil
	}
	return ns.String
}

// queryRows runs a query and calls scan for every row.
func queryRows(ctx context.Context, db *sql.DB, query string, scan func(*sql.Rows) error, args ...any) error {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return errors.Trace(err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(rows.Err())
}

// queryStrings returns the first column of every row.
func queryStrings(ctx context.Context, db *sql.DB, query string, args ...any) ([]string, error) {
	var out []string
	err := queryRows(ctx, db, query, func(rows *sql.Rows) error {
		var s string
		if err := rows.Scan(&s); err != nil {
			return err
		}
		out = append(out, s)
		return nil
	}, args...)
	return out, err
}
