// Package snapshot holds the structural metadata of one database schema:
// its own attributes and, per table, the table attributes, columns and
// indexes. Every level is an insertion-ordered mapping so that anything
// walking a snapshot sees entities in the order the loader produced them.
//
// Snapshots are built with a Builder and are read-only afterwards.
package snapshot

// Attributes is an ordered attribute-name to value mapping. Values are
// scalars: string, an integer type, or nil for SQL NULL.
type Attributes struct {
	m OrderedMap[any]
}

// Keys returns the attribute names in insertion order.
func (a *Attributes) Keys() []string {
	if a == nil {
		return nil
	}
	return a.m.Keys()
}

// Get returns the value of the named attribute. An absent attribute yields
// (nil, false).
func (a *Attributes) Get(name string) (any, bool) {
	if a == nil {
		return nil, false
	}
	return a.m.Get(name)
}

// Len returns the number of attributes.
func (a *Attributes) Len() int {
	if a == nil {
		return 0
	}
	return a.m.Len()
}

func (a *Attributes) set(name string, value any) {
	if b, ok := value.([]byte); ok {
		value = string(b)
	}
	a.m.Set(name, value)
}

// Table is one table's metadata.
type Table struct {
	name    string
	attrs   *Attributes
	columns *OrderedMap[*Attributes]
	indexes *OrderedMap[*Attributes]
}

func newTable(name string) *Table {
	return &Table{
		name:    name,
		attrs:   &Attributes{},
		columns: NewOrderedMap[*Attributes](),
		indexes: NewOrderedMap[*Attributes](),
	}
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Attributes returns the table level attributes (engine, collation, ...).
func (t *Table) Attributes() *Attributes { return t.attrs }

// Columns returns the column names in order.
func (t *Table) Columns() []string { return t.columns.Keys() }

// Column returns the attributes of the named column.
func (t *Table) Column(name string) (*Attributes, bool) { return t.columns.Get(name) }

// Indexes returns the index names in order.
func (t *Table) Indexes() []string { return t.indexes.Keys() }

// Index returns the attributes of the named index.
func (t *Table) Index(name string) (*Attributes, bool) { return t.indexes.Get(name) }

// Snapshot is the metadata of one schema at one point in time.
type Snapshot struct {
	name   string
	attrs  *Attributes
	tables *OrderedMap[*Table]
}

// Name returns the schema name. It labels output and plays no part in
// equality.
func (s *Snapshot) Name() string { return s.name }

// Attributes returns the schema level attributes.
func (s *Snapshot) Attributes() *Attributes { return s.attrs }

// Tables returns the table names in order.
func (s *Snapshot) Tables() []string { return s.tables.Keys() }

// Table returns the named table.
func (s *Snapshot) Table(name string) (*Table, bool) { return s.tables.Get(name) }

// HasTable reports whether the schema contains the named table.
func (s *Snapshot) HasTable(name string) bool { return s.tables.Has(name) }
