package adapter

import (
	"context"
	"database/sql"
	"sort"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pingcap/errors"

	"github.com/mudrockdev/schemadiff/snapshot"
)

// SQLiteAdapter implements Adapter for SQLite. The database of a DSN is the
// path of the database file; the snapshot is named after it.
type SQLiteAdapter struct{}

func (a *SQLiteAdapter) Name() string       { return "sqlite" }
func (a *SQLiteAdapter) DriverName() string { return "sqlite3" }
func (a *SQLiteAdapter) Scoped() bool       { return true }

// FormatDSN opens the file read-write without creating it, so a mistyped
// path fails instead of yielding an empty schema.
func (a *SQLiteAdapter) FormatDSN(d DSN) string {
	if d.Database == "" {
		return ":memory:"
	}
	return "file:" + d.Database + "?mode=rw"
}

// ListDatabases is not supported: there is no server to ask.
func (a *SQLiteAdapter) ListDatabases(ctx context.Context, db *sql.DB) ([]string, error) {
	return nil, errors.New("sqlite cannot list databases, name the database file with D")
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (a *SQLiteAdapter) LoadSnapshot(ctx context.Context, db *sql.DB, database string, allow TableFilter) (*snapshot.Snapshot, error) {
	return a.catalog().load(ctx, db, database, allow)
}

func (a *SQLiteAdapter) catalog() catalog {
	return catalog{
		schema: func(ctx context.Context, db *sql.DB, _ string) ([]attr, error) {
			var encoding string
			if err := db.QueryRowContext(ctx, "PRAGMA encoding").Scan(&encoding); err != nil {
				return nil, errors.Trace(err)
			}
			return []attr{{AttrDefaultCharset, encoding}}, nil
		},

		tables: func(ctx context.Context, db *sql.DB, _ string) ([]entityRow, error) {
			var tables []entityRow
			err := queryRows(ctx, db, "PRAGMA table_list", func(rows *sql.Rows) error {
				var schema, name, kind string
				var ncol, withoutRowid, strict int
				if err := rows.Scan(&schema, &name, &kind, &ncol, &withoutRowid, &strict); err != nil {
					return err
				}
				if schema != "main" || kind != "table" || strings.HasPrefix(name, "sqlite_") {
					return nil
				}
				tables = append(tables, entityRow{name: name, attrs: []attr{
					{"without rowid", yesNo(withoutRowid != 0)},
					{"strict", yesNo(strict != 0)},
				}})
				return nil
			})
			sort.Slice(tables, func(i, j int) bool { return tables[i].name < tables[j].name })
			return tables, err
		},

		columns: func(ctx context.Context, db *sql.DB, _, table string) ([]entityRow, error) {
			var columns []entityRow
			err := queryRows(ctx, db, "PRAGMA table_info("+quoteIdent(table)+")", func(rows *sql.Rows) error {
				var cid, notNull, pk int
				var name, typeName string
				var def sql.NullString
				if err := rows.Scan(&cid, &name, &typeName, &notNull, &def, &pk); err != nil {
					return err
				}
				extra := ""
				if pk > 0 {
					extra = "PRIMARY KEY"
				}
				nullableCol := "YES"
				if notNull != 0 {
					nullableCol = "NO"
				}
				columns = append(columns, entityRow{name: name, attrs: []attr{
					{AttrColumnPosition, strconv.Itoa(cid + 1)},
					{AttrDefault, nullable(def)},
					{AttrNullable, nullableCol},
					{AttrColumnType, typeName},
					{AttrExtra, extra},
				}})
				return nil
			})
			return columns, err
		},

		indexes: func(ctx context.Context, db *sql.DB, _, table string) ([]indexRow, error) {
			type index struct {
				name   string
				unique bool
			}
			var list []index
			err := queryRows(ctx, db, "PRAGMA index_list("+quoteIdent(table)+")", func(rows *sql.Rows) error {
				var seq, unique, partial int
				var name, origin string
				if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
					return err
				}
				list = append(list, index{name: name, unique: unique != 0})
				return nil
			})
			if err != nil {
				return nil, err
			}
			sort.Slice(list, func(i, j int) bool { return list[i].name < list[j].name })

			var indexes []indexRow
			for _, idx := range list {
				err := queryRows(ctx, db, "PRAGMA index_info("+quoteIdent(idx.name)+")", func(rows *sql.Rows) error {
					var seqno, cid int
					var column sql.NullString
					if err := rows.Scan(&seqno, &cid, &column); err != nil {
						return err
					}
					name := column.String
					if !column.Valid {
						name = "<expr>"
					}
					indexes = append(indexes, indexRow{index: idx.name, column: name, unique: idx.unique})
					return nil
				})
				if err != nil {
					return nil, errors.Annotatef(err, "index %s", idx.name)
				}
			}
			return indexes, nil
		},
	}
}

func (a *SQLiteAdapter) DatabaseInfo(ctx context.Context, db *sql.DB, database string) (DatabaseInfo, error) {
	info := DatabaseInfo{Host: "local", DatabaseName: database}
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").Scan(&info.TableCount)
	if err != nil {
		return info, errors.Trace(err)
	}
	err = db.QueryRowContext(ctx,
		"SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()").Scan(&info.TotalSize)
	return info, errors.Trace(err)
}
