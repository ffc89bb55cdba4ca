// Package diff compares two schema snapshots level by level and reports
// every difference it finds.
//
// The walk is exhaustive and deterministic. Schema attributes come first,
// then every table in union order (left's tables as loaded, followed by
// tables found only on the right). For a table present on both sides the
// table attributes are compared, then its columns, then its indexes, each
// set again walked in union order. An entity present on one side only is
// reported once and not descended into.
//
// Attribute comparison iterates the left entity's keys only; keys that
// exist solely on the right are not checked.
package diff

import (
	"go.uber.org/zap"

	"github.com/mudrockdev/schemadiff/snapshot"
)

// Differ compares snapshots and sends the differences to a Reporter.
// A Differ keeps no state between calls and may be shared by goroutines as
// long as its Reporter is safe for concurrent use.
type Differ struct {
	reporter Reporter
	log      *zap.Logger
}

// Option configures a Differ.
type Option func(*Differ)

// WithLogger makes the Differ log its progress at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(d *Differ) {
		if l != nil {
			d.log = l
		}
	}
}

// New returns a Differ reporting to r.
func New(r Reporter, opts ...Option) *Differ {
	if r == nil {
		r = ReporterFunc(func(Record) {})
	}
	d := &Differ{reporter: r, log: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Compare reports every difference between left and right and returns
// whether any was found. left is labeled position 1, right position 2.
func (d *Differ) Compare(left, right *snapshot.Snapshot) bool {
	c := &comparison{
		reporter: d.reporter,
		left:     left,
		right:    right,
	}

	d.log.Debug("compare schemas",
		zap.String("left", left.Name()), zap.String("right", right.Name()))

	c.attributes(LevelSchema, "", "", left.Attributes(), right.Attributes())

	for _, name := range UnionNames(left.Tables(), right.Tables()) {
		t1, ok1 := left.Table(name)
		t2, ok2 := right.Table(name)
		if !c.presence(LevelTable, name, "", ok1, ok2) {
			continue
		}

		d.log.Debug("compare table", zap.String("table", name))
		c.attributes(LevelTable, name, "", t1.Attributes(), t2.Attributes())

		for _, col := range UnionNames(t1.Columns(), t2.Columns()) {
			a1, ok1 := t1.Column(col)
			a2, ok2 := t2.Column(col)
			if c.presence(LevelColumn, name, col, ok1, ok2) {
				c.attributes(LevelColumn, name, col, a1, a2)
			}
		}

		for _, idx := range UnionNames(t1.Indexes(), t2.Indexes()) {
			a1, ok1 := t1.Index(idx)
			a2, ok2 := t2.Index(idx)
			if c.presence(LevelIndex, name, idx, ok1, ok2) {
				c.attributes(LevelIndex, name, idx, a1, a2)
			}
		}
	}

	d.log.Debug("schemas compared",
		zap.String("left", left.Name()), zap.String("right", right.Name()),
		zap.Int("differences", c.count))

	return c.count > 0
}

// CompareAll compares left against each of rights in turn and returns
// whether any comparison found a difference.
func (d *Differ) CompareAll(left *snapshot.Snapshot, rights ...*snapshot.Snapshot) bool {
	differences := false
	for _, right := range rights {
		differences = d.Compare(left, right) || differences
	}
	return differences
}

// Compare is a shorthand for New(r).Compare(left, right).
func Compare(left, right *snapshot.Snapshot, r Reporter) bool {
	return New(r).Compare(left, right)
}

// UnionNames returns left's names followed by the names of right that do
// not appear in left, keeping the first occurrence of each.
func UnionNames(left, right []string) []string {
	seen := make(map[string]struct{}, len(left)+len(right))
	names := make([]string, 0, len(left)+len(right))
	for _, list := range [2][]string{left, right} {
		for _, name := range list {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names
}

type comparison struct {
	reporter Reporter
	left     *snapshot.Snapshot
	right    *snapshot.Snapshot
	count    int
}

func (c *comparison) emit(r Record) {
	c.count++
	c.reporter.Report(r)
}

func (c *comparison) side(pos int) Side {
	if pos == 1 {
		return Side{Schema: c.left.Name(), Position: 1}
	}
	return Side{Schema: c.right.Name(), Position: 2}
}

// presence reports an entity missing on either side and returns true only
// when it exists on both.
func (c *comparison) presence(level Level, table, entity string, inLeft, inRight bool) bool {
	switch {
	case !inLeft:
		c.emit(Record{
			Kind: KindMissing, Level: level, Table: table, Entity: entity,
			Missing: c.side(1), Present: c.side(2),
		})
		return false
	case !inRight:
		c.emit(Record{
			Kind: KindMissing, Level: level, Table: table, Entity: entity,
			Missing: c.side(2), Present: c.side(1),
		})
		return false
	}
	return true
}

func (c *comparison) attributes(level Level, table, entity string, a1, a2 *snapshot.Attributes) {
	for _, key := range a1.Keys() {
		v1, _ := a1.Get(key)
		v2, _ := a2.Get(key)
		if Equal(v1, v2) {
			continue
		}

		left, right := c.side(1), c.side(2)
		left.Value, right.Value = v1, v2
		c.emit(Record{
			Kind: KindMismatch, Level: level, Table: table, Entity: entity,
			Attribute: key, Left: left, Right: right,
		})
	}
}
