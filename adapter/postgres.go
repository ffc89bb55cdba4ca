package adapter

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/pingcap/errors"

	"github.com/mudrockdev/schemadiff/snapshot"
)

const (
	pgSchemaQuery = `
SELECT
    pg_encoding_to_char(encoding),
    datcollate
FROM pg_database
WHERE datname = $1`

	pgTablesQuery = `
SELECT
    c.relname,
    am.amname,
    obj_description(c.oid, 'pg_class')
FROM pg_class c
JOIN pg_namespace n ON n.oid = c.relnamespace
LEFT JOIN pg_am am ON am.oid = c.relam
WHERE n.nspname = current_schema()
    AND c.relkind IN ('r', 'p')
ORDER BY c.relname`

	pgColumnsQuery = `
SELECT
    a.attname,
    a.attnum::text,
    pg_get_expr(d.adbin, d.adrelid),
    CASE WHEN a.attnotnull THEN 'NO' ELSE 'YES' END,
    format_type(a.atttypid, a.atttypmod),
    co.collname,
    CASE a.attidentity
        WHEN 'a' THEN 'GENERATED ALWAYS AS IDENTITY'
        WHEN 'd' THEN 'GENERATED BY DEFAULT AS IDENTITY'
        ELSE ''
    END,
    col_description(a.attrelid, a.attnum)
FROM pg_attribute a
JOIN pg_class c ON c.oid = a.attrelid
JOIN pg_namespace n ON n.oid = c.relnamespace
LEFT JOIN pg_attrdef d ON d.adrelid = a.attrelid AND d.adnum = a.attnum
LEFT JOIN pg_collation co ON co.oid = a.attcollation AND a.attcollation <> 0
WHERE n.nspname = current_schema()
    AND c.relname = $1
    AND a.attnum > 0
    AND NOT a.attisdropped
ORDER BY a.attnum`

	pgIndexesQuery = `
SELECT
    i.relname,
    a.attname,
    ix.indisunique
FROM pg_index ix
JOIN pg_class t ON t.oid = ix.indrelid
JOIN pg_class i ON i.oid = ix.indexrelid
JOIN pg_namespace n ON n.oid = t.relnamespace
JOIN LATERAL unnest(ix.indkey::int2[]) WITH ORDINALITY AS k(attnum, ord) ON true
JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
WHERE n.nspname = current_schema()
    AND t.relname = $1
ORDER BY i.relname, k.ord`

	pgDatabasesQuery = `SELECT datname FROM pg_database WHERE NOT datistemplate ORDER BY datname`

	pgInfoQuery = `
SELECT
    (SELECT COUNT(*) FROM information_schema.tables
        WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'),
    pg_database_size(current_database())`
)

// PostgreSQLAdapter implements Adapter for PostgreSQL. A connection is bound
// to one database; tables are read from the current schema of that
// database.
type PostgreSQLAdapter struct{}

func (a *PostgreSQLAdapter) Name() string       { return "postgres" }
func (a *PostgreSQLAdapter) DriverName() string { return "postgres" }
func (a *PostgreSQLAdapter) Scoped() bool       { return true }

// FormatDSN builds a lib/pq key/value connection string.
func (a *PostgreSQLAdapter) FormatDSN(d DSN) string {
	database := d.Database
	if database == "" {
		database = "postgres"
	}
	parts := []string{
		"host=" + pqQuote(d.HostOr("localhost")),
		"port=" + strconv.Itoa(d.PortOr(5432)),
		"dbname=" + pqQuote(database),
		"sslmode=disable",
	}
	if d.User != "" {
		parts = append(parts, "user="+pqQuote(d.User))
	}
	if d.Password != "" {
		parts = append(parts, "password="+pqQuote(d.Password))
	}
	return strings.Join(parts, " ")
}

// pqQuote quotes a connection string value when it needs it.
func pqQuote(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

func (a *PostgreSQLAdapter) ListDatabases(ctx context.Context, db *sql.DB) ([]string, error) {
	names, err := queryStrings(ctx, db, pgDatabasesQuery)
	return names, errors.Trace(err)
}

func (a *PostgreSQLAdapter) LoadSnapshot(ctx context.Context, db *sql.DB, database string, allow TableFilter) (*snapshot.Snapshot, error) {
	return a.catalog().load(ctx, db, database, allow)
}

func (a *PostgreSQLAdapter) catalog() catalog {
	return catalog{
		schema: func(ctx context.Context, db *sql.DB, database string) ([]attr, error) {
			var encoding, collation sql.NullString
			err := db.QueryRowContext(ctx, pgSchemaQuery, database).Scan(&encoding, &collation)
			if err == sql.ErrNoRows {
				return nil, &SchemaNotFoundError{Schema: database}
			}
			if err != nil {
				return nil, errors.Trace(err)
			}
			return []attr{
				{AttrDefaultCharset, nullable(encoding)},
				{AttrDefaultCollation, nullable(collation)},
			}, nil
		},

		tables: func(ctx context.Context, db *sql.DB, _ string) ([]entityRow, error) {
			var tables []entityRow
			err := queryRows(ctx, db, pgTablesQuery, func(rows *sql.Rows) error {
				var name string
				var engine, comment sql.NullString
				if err := rows.Scan(&name, &engine, &comment); err != nil {
					return err
				}
				tables = append(tables, entityRow{name: name, attrs: []attr{
					{AttrEngine, nullable(engine)},
					{AttrTableComment, nullable(comment)},
				}})
				return nil
			})
			return tables, err
		},

		columns: func(ctx context.Context, db *sql.DB, _, table string) ([]entityRow, error) {
			var columns []entityRow
			err := queryRows(ctx, db, pgColumnsQuery, func(rows *sql.Rows) error {
				var name string
				var position, def, nullableCol, colType, collation, extra, comment sql.NullString
				if err := rows.Scan(&name, &position, &def, &nullableCol, &colType, &collation, &extra, &comment); err != nil {
					return err
				}
				columns = append(columns, entityRow{name: name, attrs: []attr{
					{AttrColumnPosition, nullable(position)},
					{AttrDefault, nullable(def)},
					{AttrNullable, nullable(nullableCol)},
					{AttrColumnType, nullable(colType)},
					{AttrCollation, nullable(collation)},
					{AttrExtra, nullable(extra)},
					{AttrColumnComment, nullable(comment)},
				}})
				return nil
			}, table)
			return columns, err
		},

		indexes: func(ctx context.Context, db *sql.DB, _, table string) ([]indexRow, error) {
			var indexes []indexRow
			err := queryRows(ctx, db, pgIndexesQuery, func(rows *sql.Rows) error {
				var r indexRow
				if err := rows.Scan(&r.index, &r.column, &r.unique); err != nil {
					return err
				}
				indexes = append(indexes, r)
				return nil
			}, table)
			return indexes, err
		},
	}
}

func (a *PostgreSQLAdapter) DatabaseInfo(ctx context.Context, db *sql.DB, database string) (DatabaseInfo, error) {
	info := DatabaseInfo{DatabaseName: database}
	err := db.QueryRowContext(ctx, pgInfoQuery).Scan(&info.TableCount, &info.TotalSize)
	return info, errors.Trace(err)
}
