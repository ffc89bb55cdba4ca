package populator

import (
	"sort"

	"github.com/pingcap/errors"
)

// Variant names accepted by Tables and Populate.
const (
	VariantA = "a"
	VariantB = "b"
)

// Variant b drifts from variant a in these ways:
//   - table audit_log exists only in a, table sessions only in b
//   - orders.total has default 0.0 instead of 0
//   - orders.shipped_at exists only in b
//   - index orders_user covers (user_id, id) instead of (user_id)
//   - users.name is VARCHAR(100) instead of TEXT
//   - index users_email is not unique
func fixtureA() []Table {
	return []Table{
		{
			Name: "users",
			Columns: []Column{
				{Name: "id", Type: TypeInteger},
				{Name: "email", Type: TypeText, NotNull: true},
				{Name: "name", Type: TypeText, TextSize: 1},
				{Name: "created_at", Type: TypeDateTime},
			},
			Indexes: []Index{{Name: "users_email", Columns: []string{"email"}, Unique: true}},
		},
		{
			Name: "orders",
			Columns: []Column{
				{Name: "id", Type: TypeInteger},
				{Name: "user_id", Type: TypeInteger, NotNull: true},
				{Name: "total", Type: TypeReal, Default: "0"},
				{Name: "note", Type: TypeText, TextSize: 2},
			},
			Indexes: []Index{{Name: "orders_user", Columns: []string{"user_id"}}},
		},
		{
			Name: "audit_log",
			Columns: []Column{
				{Name: "id", Type: TypeInteger},
				{Name: "payload", Type: TypeBlob},
			},
		},
	}
}

func fixtureB() []Table {
	return []Table{
		{
			Name: "users",
			Columns: []Column{
				{Name: "id", Type: TypeInteger},
				{Name: "email", Type: TypeText, NotNull: true},
				{Name: "name", Type: TypeText, TextSize: 1, Declared: "VARCHAR(100)"},
				{Name: "created_at", Type: TypeDateTime},
			},
			Indexes: []Index{{Name: "users_email", Columns: []string{"email"}}},
		},
		{
			Name: "orders",
			Columns: []Column{
				{Name: "id", Type: TypeInteger},
				{Name: "user_id", Type: TypeInteger, NotNull: true},
				{Name: "total", Type: TypeReal, Default: "0.0"},
				{Name: "note", Type: TypeText, TextSize: 2},
				{Name: "shipped_at", Type: TypeDateTime},
			},
			Indexes: []Index{{Name: "orders_user", Columns: []string{"user_id", "id"}}},
		},
		{
			Name: "sessions",
			Columns: []Column{
				{Name: "id", Type: TypeInteger},
				{Name: "user_id", Type: TypeInteger, NotNull: true},
				{Name: "token", Type: TypeText},
			},
		},
	}
}

var fixtures = map[string]func() []Table{
	VariantA: fixtureA,
	VariantB: fixtureB,
}

// Tables returns the table definitions of a fixture variant.
func Tables(variant string) ([]Table, error) {
	f, ok := fixtures[variant]
	if !ok {
		return nil, errors.Errorf("unknown fixture variant %q, expected one of %v", variant, Variants())
	}
	return f(), nil
}

// Variants lists the fixture variants.
func Variants() []string {
	names := make([]string, 0, len(fixtures))
	for name := range fixtures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
