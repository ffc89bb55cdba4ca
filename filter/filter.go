// Package filter decides which databases and tables take part in a
// comparison.
package filter

import (
	"regexp"
	"strings"

	"github.com/pingcap/errors"
	"go.uber.org/zap"
)

// AnyDatabase keys table rules that apply to every database.
const AnyDatabase = "*"

var systemDatabases = regexp.MustCompile(`mysql|information_schema|performance_schema|lost\+found|percona|percona_schema|test`)

// Options are the raw filter settings as given on the command line or in
// the config file. List options are comma separated; table entries may be
// qualified as database.table and quoted with backticks.
type Options struct {
	IgnoreDatabases      string `toml:"ignore-databases" json:"ignore-databases"`
	IgnoreDatabasesRegex string `toml:"ignore-databases-regex" json:"ignore-databases-regex"`
	Databases            string `toml:"databases" json:"databases"`
	DatabasesRegex       string `toml:"databases-regex" json:"databases-regex"`
	IgnoreTables         string `toml:"ignore-tables" json:"ignore-tables"`
	IgnoreTablesRegex    string `toml:"ignore-tables-regex" json:"ignore-tables-regex"`
	Tables               string `toml:"tables" json:"tables"`
	TablesRegex          string `toml:"tables-regex" json:"tables-regex"`
}

type tableSet map[string]map[string]struct{}

func (s tableSet) add(database, table string) {
	if s[database] == nil {
		s[database] = make(map[string]struct{})
	}
	s[database][table] = struct{}{}
}

func (s tableSet) has(database, table string) bool {
	if _, ok := s[AnyDatabase][table]; ok {
		return true
	}
	_, ok := s[database][table]
	return ok
}

// Filter applies Options. The zero value allows every non-system database
// and every table.
type Filter struct {
	ignoreDatabases      map[string]struct{}
	ignoreDatabasesRegex *regexp.Regexp
	databases            map[string]struct{}
	databasesRegex       *regexp.Regexp

	ignoreTables      tableSet
	ignoreTablesRegex *regexp.Regexp
	tables            tableSet
	tablesRegex       *regexp.Regexp

	log *zap.Logger
}

// New builds a Filter. It fails when one of the regexes does not compile.
func New(opts Options, log *zap.Logger) (*Filter, error) {
	if log == nil {
		log = zap.NewNop()
	}
	f := &Filter{
		ignoreDatabases: splitList(opts.IgnoreDatabases),
		databases:       splitList(opts.Databases),
		ignoreTables:    splitTables(opts.IgnoreTables),
		tables:          splitTables(opts.Tables),
		log:             log,
	}

	var err error
	regexes := []struct {
		flag string
		expr string
		dst  **regexp.Regexp
	}{
		{"ignore-databases-regex", opts.IgnoreDatabasesRegex, &f.ignoreDatabasesRegex},
		{"databases-regex", opts.DatabasesRegex, &f.databasesRegex},
		{"ignore-tables-regex", opts.IgnoreTablesRegex, &f.ignoreTablesRegex},
		{"tables-regex", opts.TablesRegex, &f.tablesRegex},
	}
	for _, r := range regexes {
		if r.expr == "" {
			continue
		}
		if *r.dst, err = regexp.Compile(r.expr); err != nil {
			return nil, errors.Annotatef(err, "invalid --%s", r.flag)
		}
	}

	return f, nil
}

func splitList(s string) map[string]struct{} {
	set := make(map[string]struct{})
	if s == "" {
		return set
	}
	for _, item := range strings.Split(s, ",") {
		set[item] = struct{}{}
	}
	return set
}

func splitTables(s string) tableSet {
	set := make(tableSet)
	if s == "" {
		return set
	}
	for _, item := range strings.Split(s, ",") {
		set.add(SplitTable(item))
	}
	return set
}

// SplitTable splits an optionally qualified, optionally backtick quoted
// table name. An unqualified name belongs to AnyDatabase.
func SplitTable(name string) (database, table string) {
	database, table, _ = strings.Cut(name, ".")
	if table == "" {
		table = database
		database = AnyDatabase
	}
	return unquote(database), unquote(table)
}

func unquote(s string) string {
	s = strings.TrimPrefix(s, "`")
	s = strings.TrimSuffix(s, "`")
	return strings.ReplaceAll(s, "``", "`")
}

// DatabaseAllowed reports whether a database found on the second
// connection should be compared.
func (f *Filter) DatabaseAllowed(database string) bool {
	log := f.logger().With(zap.String("database", database))

	if systemDatabases.MatchString(database) {
		log.Debug("database is a system database, ignoring")
		return false
	}

	if _, ok := f.ignoreDatabases[database]; ok {
		log.Debug("database is in --ignore-databases list")
		return false
	}

	if f.ignoreDatabasesRegex != nil && f.ignoreDatabasesRegex.MatchString(database) {
		log.Debug("database matches --ignore-databases-regex")
		return false
	}

	if len(f.databases) > 0 {
		if _, ok := f.databases[database]; !ok {
			log.Debug("database is not in --databases list, ignoring")
			return false
		}
	}

	if f.databasesRegex != nil && !f.databasesRegex.MatchString(database) {
		log.Debug("database does not match --databases-regex, ignoring")
		return false
	}

	return true
}

// TableAllowed reports whether a table of the given database should be
// loaded.
func (f *Filter) TableAllowed(database, table string) bool {
	log := f.logger().With(zap.String("database", database), zap.String("table", table))

	if f.ignoreTables.has(database, table) {
		log.Debug("table is in --ignore-tables list")
		return false
	}

	if f.ignoreTablesRegex != nil && f.ignoreTablesRegex.MatchString(table) {
		log.Debug("table matches --ignore-tables-regex")
		return false
	}

	if len(f.tables) > 0 && !f.tables.has(database, table) {
		log.Debug("table is not in --tables list, ignoring")
		return false
	}

	if f.tablesRegex != nil && !f.tablesRegex.MatchString(table) {
		log.Debug("table does not match --tables-regex, ignoring")
		return false
	}

	return true
}

// TablesOf returns a predicate over the table names of one database.
func (f *Filter) TablesOf(database string) func(table string) bool {
	return func(table string) bool {
		return f.TableAllowed(database, table)
	}
}

func (f *Filter) logger() *zap.Logger {
	if f.log == nil {
		return zap.NewNop()
	}
	return f.log
}
