package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderedMapKeepsFirstPosition(t *testing.T) {
	m := NewOrderedMap[int]()
	m.Set("b", 1)
	m.Set("a", 2)
	m.Set("b", 3)

	assert.Equal(t, []string{"b", "a"}, m.Keys())
	v, ok := m.Get("b")
	require.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, 2, m.Len())
	assert.False(t, m.Has("c"))
}

func TestOrderedMapKeysIsCopy(t *testing.T) {
	m := NewOrderedMap[string]()
	m.Set("x", "1")
	keys := m.Keys()
	keys[0] = "y"

	assert.Equal(t, []string{"x"}, m.Keys())
}

func TestNilReceivers(t *testing.T) {
	var m *OrderedMap[int]
	assert.Nil(t, m.Keys())
	assert.Equal(t, 0, m.Len())
	assert.False(t, m.Has("a"))

	var a *Attributes
	v, ok := a.Get("a")
	assert.Nil(t, v)
	assert.False(t, ok)
	assert.Equal(t, 0, a.Len())
}

func TestBuilder(t *testing.T) {
	b := NewBuilder("shop")
	b.Attr("default character set", "utf8mb4").
		Attr("default collation", []byte("utf8mb4_general_ci"))
	users := b.Table("users").Attr("engine", "InnoDB")
	users.Column("id").Attr("column type", "int").Attr("default", nil)
	users.Column("email").Attr("column type", "varchar(255)")
	users.Index("PRIMARY").Attr("columns", "id").Attr("unique", "Yes")
	b.Table("orders")
	s := b.Build()

	assert.Equal(t, "shop", s.Name())
	assert.Equal(t, []string{"default character set", "default collation"}, s.Attributes().Keys())

	collation, ok := s.Attributes().Get("default collation")
	require.True(t, ok)
	assert.Equal(t, "utf8mb4_general_ci", collation, "[]byte values are stored as strings")

	assert.Equal(t, []string{"users", "orders"}, s.Tables())
	assert.True(t, s.HasTable("orders"))
	assert.False(t, s.HasTable("missing"))

	tbl, ok := s.Table("users")
	require.True(t, ok)
	assert.Equal(t, "users", tbl.Name())
	assert.Equal(t, []string{"id", "email"}, tbl.Columns())
	assert.Equal(t, []string{"PRIMARY"}, tbl.Indexes())

	id, ok := tbl.Column("id")
	require.True(t, ok)
	def, ok := id.Get("default")
	assert.True(t, ok)
	assert.Nil(t, def)

	idx, ok := tbl.Index("PRIMARY")
	require.True(t, ok)
	unique, _ := idx.Get("unique")
	assert.Equal(t, "Yes", unique)

	_, ok = tbl.Index("nope")
	assert.False(t, ok)
}

func TestBuilderTableReuse(t *testing.T) {
	b := NewBuilder("db")
	b.Table("t").Column("a")
	b.Table("t").Column("b")
	s := b.Build()

	tbl, _ := s.Table("t")
	assert.Equal(t, []string{"a", "b"}, tbl.Columns())
}

func TestBuilderSealedAfterBuild(t *testing.T) {
	b := NewBuilder("db")
	tb := b.Table("t")
	b.Build()

	assert.Panics(t, func() { b.Attr("a", "b") })
	assert.Panics(t, func() { tb.Attr("a", "b") })
	assert.Panics(t, func() { tb.Column("c") })
	assert.Panics(t, func() { b.Build() })
}
