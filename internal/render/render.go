// Package render formats a Blast-Radius Result for a human terminal or as
// JSON.
//
// Adapted from internal/output/formatter.go's Formatter interface and
// FormatterFactory dispatch, narrowed from ripgrep-style match/file/summary
// events down to the three events a blast-radius report needs: roots,
// impacts, and a closing summary.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/dhivijit/ripplecheck/internal/blast"
)

// Format selects the output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Formatter is the narrow interface both encodings satisfy.
type Formatter interface {
	FormatRoots(roots []blast.Root) error
	FormatImpacts(impacts []blast.Impact) error
	FormatSummary(summary Summary) error
	Flush() error
}

// Summary is the closing statistics block.
type Summary struct {
	RootCount     int
	DirectCount   int
	IndirectCount int
}

// NewFormatter dispatches to the concrete encoder, mirroring a
// FormatterFactory.CreateFormatter switch.
func NewFormatter(w io.Writer, format Format) Formatter {
	switch format {
	case FormatJSON:
		return &jsonFormatter{w: w}
	default:
		return &textFormatter{w: w}
	}
}

// SummaryFor derives a Summary from a Blast-Radius Result.
func SummaryFor(result blast.Result) Summary {
	s := Summary{RootCount: len(result.Roots)}
	for _, imp := range result.Impacts {
		if imp.Classification == blast.Direct {
			s.DirectCount++
		} else {
			s.IndirectCount++
		}
	}
	return s
}

// RenderResult runs roots, impacts (sorted by classification then symbol
// ID for deterministic output), and the summary through f in sequence.
func RenderResult(f Formatter, result blast.Result) error {
	if err := f.FormatRoots(result.Roots); err != nil {
		return err
	}
	impacts := make([]blast.Impact, len(result.Impacts))
	copy(impacts, result.Impacts)
	sort.Slice(impacts, func(i, j int) bool {
		if impacts[i].Classification != impacts[j].Classification {
			return impacts[i].Classification == blast.Direct
		}
		return impacts[i].SymbolID < impacts[j].SymbolID
	})
	if err := f.FormatImpacts(impacts); err != nil {
		return err
	}
	if err := f.FormatSummary(SummaryFor(result)); err != nil {
		return err
	}
	return f.Flush()
}

type textFormatter struct {
	w io.Writer
}

func (t *textFormatter) FormatRoots(roots []blast.Root) error {
	if len(roots) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(t.w, "Roots:"); err != nil {
		return err
	}
	for _, r := range roots {
		if _, err := fmt.Fprintf(t.w, "  [%s/%s] %s\n", r.PropagationMode, r.Reason, r.SymbolID); err != nil {
			return err
		}
	}
	return nil
}

func (t *textFormatter) FormatImpacts(impacts []blast.Impact) error {
	if len(impacts) == 0 {
		if _, err := fmt.Fprintln(t.w, "No impacted symbols."); err != nil {
			return err
		}
		return nil
	}
	if _, err := fmt.Fprintln(t.w, "Impacted:"); err != nil {
		return err
	}
	for _, imp := range impacts {
		if _, err := fmt.Fprintf(t.w, "  %s  %s (depth %d)\n", imp.Classification, imp.SymbolID, imp.Depth); err != nil {
			return err
		}
		for _, path := range imp.Paths {
			if _, err := fmt.Fprintf(t.w, "      via %s\n", joinArrow(path)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *textFormatter) FormatSummary(s Summary) error {
	_, err := fmt.Fprintf(t.w, "\n%d root(s), %d direct, %d indirect\n", s.RootCount, s.DirectCount, s.IndirectCount)
	return err
}

func (t *textFormatter) Flush() error { return nil }

func joinArrow(path []string) string {
	out := ""
	for i, p := range path {
		if i > 0 {
			out += " -> "
		}
		out += p
	}
	return out
}

type jsonFormatter struct {
	w       io.Writer
	roots   []blast.Root
	impacts []blast.Impact
	summary Summary
}

func (j *jsonFormatter) FormatRoots(roots []blast.Root) error {
	j.roots = roots
	return nil
}

func (j *jsonFormatter) FormatImpacts(impacts []blast.Impact) error {
	j.impacts = impacts
	return nil
}

func (j *jsonFormatter) FormatSummary(s Summary) error {
	j.summary = s
	return nil
}

// jsonDocument is the single-object wire shape the CLI's --format=json
// emits in one shot, rather than streaming NDJSON events per match the way
// a text-search formatter would: a blast-radius report is small and
// bounded, so one document is simpler for downstream tooling to consume.
type jsonDocument struct {
	Roots   []blast.Root   `json:"roots"`
	Impacts []blast.Impact `json:"impacts"`
	Summary Summary        `json:"summary"`
}

func (j *jsonFormatter) Flush() error {
	doc := jsonDocument{Roots: j.roots, Impacts: j.impacts, Summary: j.summary}
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
