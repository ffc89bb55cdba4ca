// Package report holds diff.Reporter implementations: a colored console
// writer for people, an in-memory collector for tests and a summary counter.
package report

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/mudrockdev/schemadiff/diff"
)

// Style categories used when rendering records.
const (
	StyleError     = diff.StyleError
	StyleSchema    = diff.StyleSchema
	StyleTable     = diff.StyleTable
	StyleColumn    = diff.StyleColumn
	StyleIndex     = diff.StyleIndex
	StyleAttribute = diff.StyleAttribute
)

func defaultStyles() map[string]*color.Color {
	return map[string]*color.Color{
		StyleError:     color.New(color.FgWhite, color.BgRed),
		StyleSchema:    color.New(color.FgGreen),
		StyleTable:     color.New(color.FgBlue),
		StyleColumn:    color.New(color.FgMagenta),
		StyleIndex:     color.New(color.FgCyan),
		StyleAttribute: color.New(color.FgYellow),
	}
}

// Console writes records as text lines, coloring each token by category.
type Console struct {
	mu     sync.Mutex
	w      io.Writer
	styles map[string]*color.Color
	color  bool
}

// ConsoleOption configures a Console.
type ConsoleOption func(*Console)

// WithStyle sets the style of a category. Styles set this way are kept
// when the defaults are registered.
func WithStyle(name string, style *color.Color) ConsoleOption {
	return func(c *Console) { c.styles[name] = style }
}

// WithColor forces colored output on or off. Without it color is enabled
// only when the writer is a terminal.
func WithColor(enabled bool) ConsoleOption {
	return func(c *Console) { c.color = enabled }
}

// NewConsole returns a Console writing to w.
func NewConsole(w io.Writer, opts ...ConsoleOption) *Console {
	c := &Console{
		w:      w,
		styles: make(map[string]*color.Color),
		color:  isTerminal(w),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.initStyles()
	return c
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// initStyles registers the default style of every category that has none.
func (c *Console) initStyles() {
	for name, style := range defaultStyles() {
		if c.HasStyle(name) {
			continue
		}
		c.styles[name] = style
	}
	if c.color {
		for _, style := range c.styles {
			style.EnableColor()
		}
	}
}

// HasStyle reports whether a style is registered for the category.
func (c *Console) HasStyle(name string) bool {
	_, ok := c.styles[name]
	return ok
}

// Style returns the style registered for the category.
func (c *Console) Style(name string) *color.Color {
	return c.styles[name]
}

func (c *Console) paint(category, s string) string {
	if !c.color {
		return s
	}
	style, ok := c.styles[category]
	if !ok {
		return s
	}
	return style.Sprint(s)
}

// Format renders a record the way Report writes it.
func (c *Console) Format(r diff.Record) []string {
	tokens := r.Tokens()
	lines := make([]string, len(tokens))
	for i, l := range tokens {
		var b strings.Builder
		for _, t := range l {
			b.WriteString(c.paint(t.Style, t.Text))
		}
		lines[i] = b.String()
	}
	return lines
}

// Report implements diff.Reporter.
func (c *Console) Report(r diff.Record) {
	c.Writeln(c.Format(r)...)
}

// Writeln writes each line followed by a newline.
func (c *Console) Writeln(lines ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(lines) == 0 {
		return
	}
	io.WriteString(c.w, strings.Join(lines, "\n")+"\n")
}
