package adapter

import (
	"context"
	"database/sql"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/pingcap/errors"

	"github.com/mudrockdev/schemadiff/snapshot"
)

const (
	mysqlSchemaQuery = `
SELECT
    DEFAULT_CHARACTER_SET_NAME,
    DEFAULT_COLLATION_NAME
FROM INFORMATION_SCHEMA.SCHEMATA
WHERE SCHEMA_NAME = ?`

	mysqlTablesQuery = `
SELECT
    TABLE_NAME,
    ENGINE,
    TABLE_COLLATION,
    TABLE_COMMENT
FROM INFORMATION_SCHEMA.TABLES
WHERE TABLE_SCHEMA = ?
ORDER BY TABLE_NAME`

	mysqlColumnsQuery = `
SELECT
    COLUMN_NAME,
    ORDINAL_POSITION,
    COLUMN_DEFAULT,
    IS_NULLABLE,
    COLUMN_TYPE,
    CHARACTER_SET_NAME,
    COLLATION_NAME,
    EXTRA,
    COLUMN_COMMENT
FROM INFORMATION_SCHEMA.COLUMNS
WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
ORDER BY ORDINAL_POSITION`

	mysqlIndexesQuery = `
SELECT
    INDEX_NAME,
    COLUMN_NAME,
    NON_UNIQUE
FROM INFORMATION_SCHEMA.STATISTICS
WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
ORDER BY INDEX_NAME, SEQ_IN_INDEX`

	mysqlInfoQuery = `
SELECT
    COUNT(*),
    COALESCE(SUM(DATA_LENGTH + INDEX_LENGTH), 0)
FROM INFORMATION_SCHEMA.TABLES
WHERE TABLE_SCHEMA = ?`
)

// MySQLAdapter implements Adapter for MySQL and MariaDB. One connection
// reads every schema on the server through INFORMATION_SCHEMA.
type MySQLAdapter struct{}

func (a *MySQLAdapter) Name() string       { return "mysql" }
func (a *MySQLAdapter) DriverName() string { return "mysql" }
func (a *MySQLAdapter) Scoped() bool       { return false }

// FormatDSN builds a go-sql-driver DSN. The database is not selected on
// the connection; queries name it explicitly.
func (a *MySQLAdapter) FormatDSN(d DSN) string {
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(d.HostOr("127.0.0.1"), strconv.Itoa(d.PortOr(3306)))
	cfg.Params = map[string]string{"charset": "utf8"}
	return cfg.FormatDSN()
}

func (a *MySQLAdapter) ListDatabases(ctx context.Context, db *sql.DB) ([]string, error) {
	names, err := queryStrings(ctx, db, "SHOW DATABASES")
	return names, errors.Trace(err)
}

func (a *MySQLAdapter) LoadSnapshot(ctx context.Context, db *sql.DB, database string, allow TableFilter) (*snapshot.Snapshot, error) {
	return a.catalog().load(ctx, db, database, allow)
}

func (a *MySQLAdapter) catalog() catalog {
	return catalog{
		schema: func(ctx context.Context, db *sql.DB, database string) ([]attr, error) {
			var charset, collation sql.NullString
			err := db.QueryRowContext(ctx, mysqlSchemaQuery, database).Scan(&charset, &collation)
			if err == sql.ErrNoRows {
				return nil, &SchemaNotFoundError{Schema: database}
			}
			if err != nil {
				return nil, errors.Trace(err)
			}
			return []attr{
				{AttrDefaultCharset, nullable(charset)},
				{AttrDefaultCollation, nullable(collation)},
			}, nil
		},

		tables: func(ctx context.Context, db *sql.DB, database string) ([]entityRow, error) {
			var tables []entityRow
			err := queryRows(ctx, db, mysqlTablesQuery, func(rows *sql.Rows) error {
				var name string
				var engine, collation, comment sql.NullString
				if err := rows.Scan(&name, &engine, &collation, &comment); err != nil {
					return err
				}
				tables = append(tables, entityRow{name: name, attrs: []attr{
					{AttrEngine, nullable(engine)},
					{AttrCollation, nullable(collation)},
					{AttrTableComment, nullable(comment)},
				}})
				return nil
			}, database)
			return tables, err
		},

		columns: func(ctx context.Context, db *sql.DB, database, table string) ([]entityRow, error) {
			var columns []entityRow
			err := queryRows(ctx, db, mysqlColumnsQuery, func(rows *sql.Rows) error {
				var name string
				var position, def, nullableCol, colType, charset, collation, extra, comment sql.NullString
				if err := rows.Scan(&name, &position, &def, &nullableCol, &colType, &charset, &collation, &extra, &comment); err != nil {
					return err
				}
				columns = append(columns, entityRow{name: name, attrs: []attr{
					{AttrColumnPosition, nullable(position)},
					{AttrDefault, nullable(def)},
					{AttrNullable, nullable(nullableCol)},
					{AttrColumnType, nullable(colType)},
					{AttrCharset, nullable(charset)},
					{AttrCollation, nullable(collation)},
					{AttrExtra, nullable(extra)},
					{AttrColumnComment, nullable(comment)},
				}})
				return nil
			}, database, table)
			return columns, err
		},

		indexes: func(ctx context.Context, db *sql.DB, database, table string) ([]indexRow, error) {
			var indexes []indexRow
			err := queryRows(ctx, db, mysqlIndexesQuery, func(rows *sql.Rows) error {
				var r indexRow
				var nonUnique int
				if err := rows.Scan(&r.index, &r.column, &nonUnique); err != nil {
					return err
				}
				r.unique = nonUnique == 0
				indexes = append(indexes, r)
				return nil
			}, database, table)
			return indexes, err
		},
	}
}

func (a *MySQLAdapter) DatabaseInfo(ctx context.Context, db *sql.DB, database string) (DatabaseInfo, error) {
	info := DatabaseInfo{DatabaseName: database}
	err := db.QueryRowContext(ctx, mysqlInfoQuery, database).Scan(&info.TableCount, &info.TotalSize)
	return info, errors.Trace(err)
}
