// Package populator creates small SQLite databases with known schemas. Two
// fixture variants differ in a fixed set of ways, which makes them useful
// for trying out and testing schema comparison without a database server.
package populator

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/pingcap/errors"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// DriverName is the database/sql driver used for fixture files.
const DriverName = "sqlite"

const batchSize = 1000

// ColumnType is the storage class of a fixture column.
type ColumnType int

const (
	TypeInteger ColumnType = iota
	TypeReal
	TypeText
	TypeBlob
	TypeDateTime
)

func (t ColumnType) sql() string {
	switch t {
	case TypeInteger:
		return "INTEGER"
	case TypeReal:
		return "REAL"
	case TypeText:
		return "TEXT"
	case TypeBlob:
		return "BLOB"
	case TypeDateTime:
		return "DATETIME"
	}
	return ""
}

// Column describes one fixture column. A column named id is the integer
// primary key.
type Column struct {
	Name     string
	Type     ColumnType
	TextSize int // For TEXT columns: 0=small, 1=medium, 2=large
	NotNull  bool
	Default  string
	// Declared overrides the declared type while keeping Type for values.
	Declared string
}

// Index describes one fixture index.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// Table describes one fixture table.
type Table struct {
	Name    string
	Columns []Column
	Indexes []Index
}

// Options tune Populate.
type Options struct {
	// Rows is the number of rows inserted into every table.
	Rows int
	// Seed makes the generated row data reproducible.
	Seed int64
	Log  *zap.Logger
}

// Create replaces the file at path with a new database holding the given
// fixture variant.
func Create(ctx context.Context, path, variant string, opts Options) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Trace(err)
	}

	db, err := sql.Open(DriverName, path)
	if err != nil {
		return errors.Trace(err)
	}
	defer db.Close()

	for _, pragma := range []string{
		"PRAGMA synchronous = OFF",
		"PRAGMA journal_mode = MEMORY",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return errors.Annotate(err, pragma)
		}
	}
	return Populate(ctx, db, variant, opts)
}

// Populate creates the tables of a fixture variant on db and fills them
// with generated rows. The database is expected to be empty.
func Populate(ctx context.Context, db *sql.DB, variant string, opts Options) error {
	tables, err := Tables(variant)
	if err != nil {
		return errors.Trace(err)
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	rng := rand.New(rand.NewSource(opts.Seed))

	for _, table := range tables {
		log.Info("creating table",
			zap.String("table", table.Name), zap.Int("columns", len(table.Columns)))
		if _, err := db.ExecContext(ctx, createTableSQL(table)); err != nil {
			return errors.Annotatef(err, "create table %s", table.Name)
		}
		for _, idx := range table.Indexes {
			if _, err := db.ExecContext(ctx, createIndexSQL(table.Name, idx)); err != nil {
				return errors.Annotatef(err, "create index %s", idx.Name)
			}
		}
		if err := insertRows(ctx, db, table, opts.Rows, rng); err != nil {
			return errors.Annotatef(err, "populate table %s", table.Name)
		}
	}

	log.Info("fixture created",
		zap.String("variant", variant), zap.Int("tables", len(tables)), zap.Int("rows", opts.Rows))
	return nil
}

func createTableSQL(table Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", table.Name)

	for i, col := range table.Columns {
		if i > 0 {
			b.WriteString(",\n")
		}
		typ := col.Type.sql()
		if col.Declared != "" {
			typ = col.Declared
		}
		fmt.Fprintf(&b, "    %s %s", col.Name, typ)
		if col.Name == "id" {
			b.WriteString(" PRIMARY KEY")
		}
		if col.NotNull {
			b.WriteString(" NOT NULL")
		}
		if col.Default != "" {
			b.WriteString(" DEFAULT " + col.Default)
		}
	}

	b.WriteString("\n)")
	return b.String()
}

func createIndexSQL(table string, idx Index) string {
	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX %s ON %s(%s)",
		unique, idx.Name, table, strings.Join(idx.Columns, ", "))
}

// generateInsertStatement skips the id column, which is assigned by SQLite.
func generateInsertStatement(table Table) string {
	names := make([]string, 0, len(table.Columns))
	for _, col := range table.Columns {
		if col.Name != "id" {
			names = append(names, col.Name)
		}
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table.Name, strings.Join(names, ", "), placeholders)
}

func insertRows(ctx context.Context, db *sql.DB, table Table, rows int, rng *rand.Rand) error {
	for done := 0; done < rows; done += batchSize {
		n := rows - done
		if n > batchSize {
			n = batchSize
		}
		if err := insertBatch(ctx, db, table, n, done, rng); err != nil {
			return err
		}
	}
	return nil
}

func insertBatch(ctx context.Context, db *sql.DB, table Table, n, offset int, rng *rand.Rand) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Trace(err)
	}
	stmt, err := tx.PrepareContext(ctx, generateInsertStatement(table))
	if err != nil {
		tx.Rollback()
		return errors.Trace(err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		values := make([]any, 0, len(table.Columns))
		for _, col := range table.Columns {
			if col.Name == "id" {
				continue
			}
			values = append(values, generateValue(col, offset+i, rng))
		}
		if _, err := stmt.ExecContext(ctx, values...); err != nil {
			tx.Rollback()
			return errors.Trace(err)
		}
	}
	return errors.Trace(tx.Commit())
}

var epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// generateValue returns a value for col. Text values start with the row
// number so unique indexes accept them.
func generateValue(col Column, row int, rng *rand.Rand) any {
	switch col.Type {
	case TypeInteger:
		return rng.Int63n(1_000_000)
	case TypeReal:
		return rng.Float64() * 1000
	case TypeText:
		var s string
		switch col.TextSize {
		case 0: // Small
			s = randomString(rng, 10+rng.Intn(20))
		case 1: // Medium
			s = randomString(rng, 100+rng.Intn(200))
		default: // Large
			s = randomString(rng, 1000+rng.Intn(4000))
		}
		return fmt.Sprintf("%d-%s", row, s)
	case TypeBlob:
		return randomBytes(rng, 500+rng.Intn(1500))
	case TypeDateTime:
		return epoch.Add(time.Duration(rng.Intn(86400*365)) * time.Second)
	}
	return nil
}

func randomString(rng *rand.Rand, length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rng.Intn(len(charset))]
	}
	return string(b)
}

func randomBytes(rng *rand.Rand, length int) []byte {
	b := make([]byte, length)
	rng.Read(b)
	return b
}
