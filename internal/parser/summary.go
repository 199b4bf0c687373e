package parser

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"sjsage522/catalogworker/internal/extract"
)

// Summary counts what happened during one or more category parses.
// Extracted is the number of pages whose fields were extracted; field
// coverage is measured against it.
type Summary struct {
	Attempted int
	Extracted int
	Stored    int
	Dropped   int
	Failed    int
	FieldHits map[string]int
}

// NewSummary returns an empty summary
func NewSummary() Summary {
	return Summary{FieldHits: make(map[string]int, len(extract.FieldKeys))}
}

// Merge adds o into s
func (s *Summary) Merge(o Summary) {
	if s.FieldHits == nil {
		s.FieldHits = make(map[string]int, len(o.FieldHits))
	}
	s.Attempted += o.Attempted
	s.Extracted += o.Extracted
	s.Stored += o.Stored
	s.Dropped += o.Dropped
	s.Failed += o.Failed
	for field, hits := range o.FieldHits {
		s.FieldHits[field] += hits
	}
}

func (s *Summary) recordHits(hits map[string]bool) {
	if s.FieldHits == nil {
		s.FieldHits = make(map[string]int, len(hits))
	}
	s.Extracted++
	for field, hit := range hits {
		if hit {
			s.FieldHits[field]++
		}
	}
}

// Coverage returns the fraction of extracted pages on which field was found
func (s Summary) Coverage(field string) float64 {
	if s.Extracted == 0 {
		return 0
	}
	return float64(s.FieldHits[field]) / float64(s.Extracted)
}

// Render writes the counts and per-field coverage as two tables
func (s Summary) Render(w io.Writer) {
	counts := table.NewWriter()
	counts.SetStyle(table.StyleRounded)
	counts.SetOutputMirror(w)
	counts.AppendHeader(table.Row{"Attempted", "Extracted", "Stored", "Dropped", "Failed"})
	counts.AppendRow(table.Row{s.Attempted, s.Extracted, s.Stored, s.Dropped, s.Failed})
	counts.Render()

	coverage := table.NewWriter()
	coverage.SetStyle(table.StyleRounded)
	coverage.SetOutputMirror(w)
	coverage.AppendHeader(table.Row{"Field", "Hits", "Coverage"})
	for _, field := range extract.FieldKeys {
		coverage.AppendRow(table.Row{field, s.FieldHits[field], fmt.Sprintf("%.0f%%", s.Coverage(field)*100)})
	}
	coverage.Render()
}
