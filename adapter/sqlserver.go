package adapter

import (
	"context"
	"database/sql"
	"net"
	"net/url"
	"strconv"

	_ "github.com/microsoft/go-mssqldb"
	"github.com/pingcap/errors"

	"github.com/mudrockdev/schemadiff/snapshot"
)

const (
	mssqlSchemaQuery = `
SELECT collation_name
FROM sys.databases
WHERE name = @p1`

	mssqlTablesQuery = `
SELECT
    t.name,
    CAST(ep.value AS nvarchar(4000))
FROM sys.tables t
LEFT JOIN sys.extended_properties ep
    ON ep.major_id = t.object_id AND ep.minor_id = 0 AND ep.name = 'MS_Description'
WHERE t.schema_id = SCHEMA_ID()
ORDER BY t.name`

	mssqlColumnsQuery = `
SELECT
    COLUMN_NAME,
    CAST(ORDINAL_POSITION AS varchar(10)),
    COLUMN_DEFAULT,
    IS_NULLABLE,
    DATA_TYPE +
        CASE
            WHEN CHARACTER_MAXIMUM_LENGTH = -1 THEN '(max)'
            WHEN CHARACTER_MAXIMUM_LENGTH IS NOT NULL THEN '(' + CAST(CHARACTER_MAXIMUM_LENGTH AS varchar(10)) + ')'
            WHEN DATA_TYPE IN ('decimal', 'numeric') THEN '(' + CAST(NUMERIC_PRECISION AS varchar(10)) + ',' + CAST(NUMERIC_SCALE AS varchar(10)) + ')'
            ELSE ''
        END,
    CHARACTER_SET_NAME,
    COLLATION_NAME,
    CASE WHEN COLUMNPROPERTY(OBJECT_ID(TABLE_SCHEMA + '.' + TABLE_NAME), COLUMN_NAME, 'IsIdentity') = 1
        THEN 'identity' ELSE '' END
FROM INFORMATION_SCHEMA.COLUMNS
WHERE TABLE_SCHEMA = SCHEMA_NAME() AND TABLE_NAME = @p1
ORDER BY ORDINAL_POSITION`

	mssqlIndexesQuery = `
SELECT
    i.name,
    c.name,
    i.is_unique
FROM sys.indexes i
JOIN sys.index_columns ic ON ic.object_id = i.object_id AND ic.index_id = i.index_id
JOIN sys.columns c ON c.object_id = ic.object_id AND c.column_id = ic.column_id
WHERE i.object_id = OBJECT_ID(SCHEMA_NAME() + '.' + @p1)
    AND i.name IS NOT NULL
    AND ic.is_included_column = 0
ORDER BY i.name, ic.key_ordinal`

	mssqlDatabasesQuery = `SELECT name FROM sys.databases WHERE database_id > 4 ORDER BY name`

	mssqlInfoQuery = `
SELECT
    (SELECT COUNT(*) FROM sys.tables),
    CAST(COALESCE(SUM(size), 0) AS bigint) * 8192
FROM sys.database_files`
)

// SQLServerAdapter implements Adapter for Microsoft SQL Server. Like
// PostgreSQL, a connection is bound to one database and tables are read
// from the default schema of the login.
type SQLServerAdapter struct{}

func (a *SQLServerAdapter) Name() string       { return "sqlserver" }
func (a *SQLServerAdapter) DriverName() string { return "sqlserver" }
func (a *SQLServerAdapter) Scoped() bool       { return true }

// FormatDSN builds a sqlserver:// URL as understood by go-mssqldb.
func (a *SQLServerAdapter) FormatDSN(d DSN) string {
	u := &url.URL{
		Scheme: "sqlserver",
		Host:   net.JoinHostPort(d.HostOr("localhost"), strconv.Itoa(d.PortOr(1433))),
	}
	if d.User != "" {
		u.User = url.UserPassword(d.User, d.Password)
	}
	if d.Database != "" {
		q := url.Values{}
		q.Set("database", d.Database)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (a *SQLServerAdapter) ListDatabases(ctx context.Context, db *sql.DB) ([]string, error) {
	names, err := queryStrings(ctx, db, mssqlDatabasesQuery)
	return names, errors.Trace(err)
}

func (a *SQLServerAdapter) LoadSnapshot(ctx context.Context, db *sql.DB, database string, allow TableFilter) (*snapshot.Snapshot, error) {
	return a.catalog().load(ctx, db, database, allow)
}

func (a *SQLServerAdapter) catalog() catalog {
	return catalog{
		schema: func(ctx context.Context, db *sql.DB, database string) ([]attr, error) {
			var collation sql.NullString
			err := db.QueryRowContext(ctx, mssqlSchemaQuery, database).Scan(&collation)
			if err == sql.ErrNoRows {
				return nil, &SchemaNotFoundError{Schema: database}
			}
			if err != nil {
				return nil, errors.Trace(err)
			}
			return []attr{{AttrDefaultCollation, nullable(collation)}}, nil
		},

		tables: func(ctx context.Context, db *sql.DB, _ string) ([]entityRow, error) {
			var tables []entityRow
			err := queryRows(ctx, db, mssqlTablesQuery, func(rows *sql.Rows) error {
				var name string
				var comment sql.NullString
				if err := rows.Scan(&name, &comment); err != nil {
					return err
				}
				tables = append(tables, entityRow{name: name, attrs: []attr{
					{AttrTableComment, nullable(comment)},
				}})
				return nil
			})
			return tables, err
		},

		columns: func(ctx context.Context, db *sql.DB, _, table string) ([]entityRow, error) {
			var columns []entityRow
			err := queryRows(ctx, db, mssqlColumnsQuery, func(rows *sql.Rows) error {
				var name string
				var position, def, nullableCol, colType, charset, collation, extra sql.NullString
				if err := rows.Scan(&name, &position, &def, &nullableCol, &colType, &charset, &collation, &extra); err != nil {
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
				}})
				return nil
			}, table)
			return columns, err
		},

		indexes: func(ctx context.Context, db *sql.DB, _, table string) ([]indexRow, error) {
			var indexes []indexRow
			err := queryRows(ctx, db, mssqlIndexesQuery, func(rows *sql.Rows) error {
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

func (a *SQLServerAdapter) DatabaseInfo(ctx context.Context, db *sql.DB, database string) (DatabaseInfo, error) {
	info := DatabaseInfo{DatabaseName: database}
	err := db.QueryRowContext(ctx, mssqlInfoQuery).Scan(&info.TableCount, &info.TotalSize)
	return info, errors.Trace(err)
}
