package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSplitTable(t *testing.T) {
	tests := []struct {
		in       string
		database string
		table    string
	}{
		{"users", AnyDatabase, "users"},
		{"shop.users", "shop", "users"},
		{"`shop`.`users`", "shop", "users"},
		{"`we``ird`", AnyDatabase, "we`ird"},
		{"shop.", AnyDatabase, "shop"},
		{"a.b.c", "a", "b.c"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			database, table := SplitTable(tt.in)
			assert.Equal(t, tt.database, database)
			assert.Equal(t, tt.table, table)
		})
	}
}

func TestZeroFilterAllowsUserDatabases(t *testing.T) {
	var f Filter
	assert.True(t, f.DatabaseAllowed("shop"))
	assert.True(t, f.TableAllowed("shop", "users"))
}

func TestSystemDatabases(t *testing.T) {
	f, err := New(Options{}, nil)
	require.NoError(t, err)

	for _, name := range []string{"mysql", "information_schema", "performance_schema", "lost+found", "percona", "percona_schema", "test", "shop_test"} {
		assert.False(t, f.DatabaseAllowed(name), name)
	}
	assert.True(t, f.DatabaseAllowed("shop"))
}

func TestDatabaseRules(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		allowed []string
		denied  []string
	}{
		{
			name:    "ignore list",
			opts:    Options{IgnoreDatabases: "db1,db3"},
			allowed: []string{"db2"},
			denied:  []string{"db1", "db3"},
		},
		{
			name:    "ignore regex",
			opts:    Options{IgnoreDatabasesRegex: `^tmp_\d+$`},
			allowed: []string{"shop", "tmp_x"},
			denied:  []string{"tmp_1", "tmp_42"},
		},
		{
			name:    "allow list",
			opts:    Options{Databases: "db2,db3"},
			allowed: []string{"db2", "db3"},
			denied:  []string{"db1", "db4"},
		},
		{
			name:    "allow regex",
			opts:    Options{DatabasesRegex: `^shop`},
			allowed: []string{"shop", "shop_eu"},
			denied:  []string{"blog"},
		},
		{
			name:    "ignore wins over allow",
			opts:    Options{Databases: "db1,db2", IgnoreDatabases: "db2"},
			allowed: []string{"db1"},
			denied:  []string{"db2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.opts, nil)
			require.NoError(t, err)
			for _, db := range tt.allowed {
				assert.True(t, f.DatabaseAllowed(db), db)
			}
			for _, db := range tt.denied {
				assert.False(t, f.DatabaseAllowed(db), db)
			}
		})
	}
}

func TestTableRules(t *testing.T) {
	f, err := New(Options{
		IgnoreTables:      "cache,shop.sessions,`blog`.`drafts`",
		IgnoreTablesRegex: `custom_table_\d+|other_custom_\d+`,
	}, nil)
	require.NoError(t, err)

	assert.False(t, f.TableAllowed("shop", "cache"))
	assert.False(t, f.TableAllowed("blog", "cache"))
	assert.False(t, f.TableAllowed("shop", "sessions"))
	assert.True(t, f.TableAllowed("blog", "sessions"))
	assert.False(t, f.TableAllowed("blog", "drafts"))
	assert.False(t, f.TableAllowed("shop", "custom_table_12"))
	assert.True(t, f.TableAllowed("shop", "custom_table"))
	assert.True(t, f.TableAllowed("shop", "users"))

	f, err = New(Options{Tables: "users,shop.orders", TablesRegex: `^(users|orders)$`}, nil)
	require.NoError(t, err)

	assert.True(t, f.TableAllowed("shop", "users"))
	assert.True(t, f.TableAllowed("shop", "orders"))
	assert.False(t, f.TableAllowed("blog", "orders"))
	assert.False(t, f.TableAllowed("shop", "items"))

	allowed := f.TablesOf("blog")
	assert.True(t, allowed("users"))
	assert.False(t, allowed("orders"))
}

func TestInvalidRegex(t *testing.T) {
	_, err := New(Options{TablesRegex: "("}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --tables-regex")
}

func TestRejectionsAreLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	f, err := New(Options{IgnoreDatabases: "db1", IgnoreTables: "t1"}, zap.New(core))
	require.NoError(t, err)

	f.DatabaseAllowed("mysql")
	f.DatabaseAllowed("db1")
	f.TableAllowed("db2", "t1")

	assert.Equal(t, 1, logs.FilterMessage("database is a system database, ignoring").Len())
	assert.Equal(t, 1, logs.FilterMessage("database is in --ignore-databases list").Len())
	entries := logs.FilterMessage("table is in --ignore-tables list").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "t1", entries[0].ContextMap()["table"])
}
