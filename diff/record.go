package diff

import (
	"fmt"
	"strings"
)

// Kind tells what sort of difference a Record describes.
type Kind int

const (
	// KindMissing means an entity exists on one side only.
	KindMissing Kind = iota
	// KindMismatch means an attribute value differs between the sides.
	KindMismatch
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindMismatch:
		return "mismatch"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Level is the depth of the metadata tree a Record refers to.
type Level int

const (
	LevelSchema Level = iota
	LevelTable
	LevelColumn
	LevelIndex
)

var (
	levelNames  = [...]string{"schema", "table", "column", "index"}
	levelTitles = [...]string{"Schema", "Table", "Column", "Index"}
)

func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// Title is the capitalized level name used by mismatch headers.
func (l Level) Title() string {
	if l < 0 || int(l) >= len(levelTitles) {
		return l.String()
	}
	return levelTitles[l]
}

// Side identifies one of the two compared schemas by name and argument
// position (1 for the first argument of Compare, 2 for the second).
type Side struct {
	Schema   string
	Position int
	// Value is only set on mismatch records.
	Value any
}

// Label renders the side as name@position.
func (s Side) Label() string {
	return fmt.Sprintf("%s@%d", s.Schema, s.Position)
}

// Record is one difference found by the Differ.
type Record struct {
	Kind  Kind
	Level Level
	// Table is empty for schema level records.
	Table string
	// Entity is the column or index name for column and index records.
	Entity string
	// Attribute is set on mismatch records.
	Attribute string

	// Missing and Present are set on missing records.
	Missing Side
	Present Side

	// Left and Right are set on mismatch records.
	Left  Side
	Right Side
}

// Path is the qualified name of the entity: table, table.column or
// table.index. It is empty at schema level.
func (r Record) Path() string {
	if r.Entity == "" {
		return r.Table
	}
	return r.Table + "." + r.Entity
}

// Header is the leading category text of the record's first line.
func (r Record) Header() string {
	if r.Kind == KindMissing {
		return "Missing " + r.Level.String()
	}
	return r.Level.Title() + " attribute mismatch"
}

// Categories of the tokens a record renders to. Plain text has none.
const (
	StyleError     = "error"
	StyleSchema    = "schema"
	StyleTable     = "table"
	StyleColumn    = "column"
	StyleIndex     = "index"
	StyleAttribute = "attribute"
)

// Token is a piece of a rendered line.
type Token struct {
	Text  string
	Style string
}

// Line is a rendered line as a sequence of tokens.
type Line []Token

func (l Line) String() string {
	var b strings.Builder
	for _, t := range l {
		b.WriteString(t.Text)
	}
	return b.String()
}

// path appends table, table.column or table.index.
func (r Record) path(l Line) Line {
	if r.Table == "" {
		return l
	}
	l = append(l, Token{r.Table, StyleTable})
	switch r.Level {
	case LevelColumn:
		l = append(l, Token{Text: "."}, Token{r.Entity, StyleColumn})
	case LevelIndex:
		l = append(l, Token{Text: "."}, Token{r.Entity, StyleIndex})
	}
	return l
}

// Tokens renders the record as lines of categorized tokens. Missing
// records take one line, mismatches take three.
func (r Record) Tokens() []Line {
	header := Line{{r.Header(), StyleError}}

	if r.Kind == KindMissing {
		l := append(header, Token{Text: " "})
		l = r.path(l)
		return []Line{append(l,
			Token{Text: " missing on "}, Token{r.Missing.Label(), StyleSchema},
			Token{Text: " exists on "}, Token{r.Present.Label(), StyleSchema})}
	}

	if r.Path() != "" {
		header = r.path(append(header, Token{Text: " "}))
	}
	return []Line{
		append(header, Token{Text: " attribute "}, Token{r.Attribute, StyleAttribute}, Token{Text: " differs:"}),
		r.Left.line(),
		r.Right.line(),
	}
}

func (s Side) line() Line {
	return Line{{Text: "\t"}, {s.Label(), StyleSchema}, {Text: "=" + FormatValue(s.Value)}}
}

// Lines renders the record as plain text.
func (r Record) Lines() []string {
	tokens := r.Tokens()
	lines := make([]string, len(tokens))
	for i, l := range tokens {
		lines[i] = l.String()
	}
	return lines
}

// Reporter receives the records emitted during a comparison.
type Reporter interface {
	Report(r Record)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(r Record)

// Report calls f(r).
func (f ReporterFunc) Report(r Record) { f(r) }
