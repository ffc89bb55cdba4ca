package adapter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mudrockdev/schemadiff/snapshot"
)

func mustTable(t *testing.T, s *snapshot.Snapshot, name string) *snapshot.Table {
	t.Helper()
	tbl, ok := s.Table(name)
	require.True(t, ok, "table %s", name)
	return tbl
}

func mustColumn(t *testing.T, tbl *snapshot.Table, name string) *snapshot.Attributes {
	t.Helper()
	col, ok := tbl.Column(name)
	require.True(t, ok, "column %s.%s", tbl.Name(), name)
	return col
}

func mustIndex(t *testing.T, tbl *snapshot.Table, name string) *snapshot.Attributes {
	t.Helper()
	idx, ok := tbl.Index(name)
	require.True(t, ok, "index %s.%s", tbl.Name(), name)
	return idx
}

// attrValue returns the attribute value, or nil when absent.
func attrValue(a *snapshot.Attributes, name string) any {
	v, _ := a.Get(name)
	return v
}
