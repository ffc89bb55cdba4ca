package snapshot

// Builder assembles a Snapshot. A Builder is single use: after Build every
// mutating call panics, so a published snapshot can never change.
type Builder struct {
	snap  *Snapshot
	built bool
}

// NewBuilder starts a snapshot for the named schema.
func NewBuilder(name string) *Builder {
	return &Builder{snap: &Snapshot{
		name:   name,
		attrs:  &Attributes{},
		tables: NewOrderedMap[*Table](),
	}}
}

func (b *Builder) check() {
	if b.built {
		panic("snapshot: builder used after Build")
	}
}

// Attr sets a schema level attribute.
func (b *Builder) Attr(name string, value any) *Builder {
	b.check()
	b.snap.attrs.set(name, value)
	return b
}

// Table returns the builder for the named table, adding the table if it is
// not present yet.
func (b *Builder) Table(name string) *TableBuilder {
	b.check()
	t, ok := b.snap.tables.Get(name)
	if !ok {
		t = newTable(name)
		b.snap.tables.Set(name, t)
	}
	return &TableBuilder{b: b, t: t}
}

// Build returns the finished snapshot.
func (b *Builder) Build() *Snapshot {
	b.check()
	b.built = true
	return b.snap
}

// TableBuilder adds attributes, columns and indexes to one table.
type TableBuilder struct {
	b *Builder
	t *Table
}

// Attr sets a table level attribute.
func (tb *TableBuilder) Attr(name string, value any) *TableBuilder {
	tb.b.check()
	tb.t.attrs.set(name, value)
	return tb
}

// Column returns the builder for the named column, adding it if needed.
func (tb *TableBuilder) Column(name string) *AttrBuilder {
	tb.b.check()
	return &AttrBuilder{b: tb.b, attrs: entity(tb.t.columns, name)}
}

// Index returns the builder for the named index, adding it if needed.
func (tb *TableBuilder) Index(name string) *AttrBuilder {
	tb.b.check()
	return &AttrBuilder{b: tb.b, attrs: entity(tb.t.indexes, name)}
}

func entity(m *OrderedMap[*Attributes], name string) *Attributes {
	attrs, ok := m.Get(name)
	if !ok {
		attrs = &Attributes{}
		m.Set(name, attrs)
	}
	return attrs
}

// AttrBuilder sets the attributes of a column or an index.
type AttrBuilder struct {
	b     *Builder
	attrs *Attributes
}

// Attr sets one attribute.
func (ab *AttrBuilder) Attr(name string, value any) *AttrBuilder {
	ab.b.check()
	ab.attrs.set(name, value)
	return ab
}
