package report

import (
	"sync"

	"github.com/mudrockdev/schemadiff/diff"
)

// Collector keeps every reported record in memory.
type Collector struct {
	mu      sync.Mutex
	records []diff.Record
}

// Report implements diff.Reporter.
func (c *Collector) Report(r diff.Record) {
	c.mu.Lock()
	c.records = append(c.records, r)
	c.mu.Unlock()
}

// Records returns a copy of the collected records.
func (c *Collector) Records() []diff.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]diff.Record, len(c.records))
	copy(out, c.records)
	return out
}

// Lines returns the plain text of every collected record, in order.
func (c *Collector) Lines() []string {
	var lines []string
	for _, r := range c.Records() {
		lines = append(lines, r.Lines()...)
	}
	return lines
}

// Len returns the number of collected records.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// Summary counts records per level and kind.
type Summary struct {
	mu     sync.Mutex
	counts map[diff.Level]map[diff.Kind]int
	tables map[string]struct{}
	order  []string
}

// Report implements diff.Reporter.
func (s *Summary) Report(r diff.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counts == nil {
		s.counts = make(map[diff.Level]map[diff.Kind]int)
		s.tables = make(map[string]struct{})
	}
	if s.counts[r.Level] == nil {
		s.counts[r.Level] = make(map[diff.Kind]int)
	}
	s.counts[r.Level][r.Kind]++

	if r.Table == "" {
		return
	}
	if _, ok := s.tables[r.Table]; !ok {
		s.tables[r.Table] = struct{}{}
		s.order = append(s.order, r.Table)
	}
}

// Count returns how many records of the given level and kind were seen.
func (s *Summary) Count(level diff.Level, kind diff.Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[level][kind]
}

// Total returns the number of records seen.
func (s *Summary) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, kinds := range s.counts {
		for _, n := range kinds {
			total += n
		}
	}
	return total
}

// Tables returns the tables named by any record, in first-seen order.
func (s *Summary) Tables() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Tee forwards every record to each of the reporters.
func Tee(reporters ...diff.Reporter) diff.Reporter {
	return diff.ReporterFunc(func(r diff.Record) {
		for _, rep := range reporters {
			rep.Report(r)
		}
	})
}
