// Package vcsdiff is the Staged-Diff Mapper: it runs the Incremental
// Updater against a shadow index/graph seeded from staged VCS content, maps
// staged hunks to overlapped symbols, and classifies every affected symbol
// into an Impact Root (spec.md §4.7).
//
// Grounded on the process-exec collaborator pattern in internal/search
// (external tool invoked through a narrow interface, output parsed
// line-by-line) generalized to the VCS abstraction spec.md §6 calls for;
// the BFS-root shape mirrors internal/blast.
package vcsdiff

import (
	"github.com/dhivijit/ripplecheck/internal/apperr"
	"github.com/dhivijit/ripplecheck/internal/blast"
	"github.com/dhivijit/ripplecheck/internal/cache"
	"github.com/dhivijit/ripplecheck/internal/graph"
	"github.com/dhivijit/ripplecheck/internal/siganalyze"
	"github.com/dhivijit/ripplecheck/internal/symbol"
	"github.com/dhivijit/ripplecheck/internal/updater"
)

// Status mirrors a staged file's VCS status letter.
type Status string

const (
	StatusAdded     Status = "A"
	StatusModified  Status = "M"
	StatusDeleted   Status = "D"
	StatusRenamed   Status = "R"
	StatusCopied    Status = "C"
	StatusTypeChang Status = "T"
)

// StagedFile is one entry from the VCS collaborator's stagedFiles() call.
type StagedFile struct {
	Status  Status
	Path    string
	OldPath string // set for R/C
}

// Hunk is a staged diff hunk's new-side line range. Pure-deletion hunks
// (LineCount == 0) are excluded by the collaborator per spec.md §4.7.
type Hunk struct {
	Path         string
	NewStartLine int
	NewLineCount int
}

// VCS is the external collaborator interface spec.md §6 names: staged file
// list, staged file content, and staged hunks. A real implementation shells
// out to `git diff --cached`; it is supplied by the host, never by this
// package.
type VCS interface {
	StagedFiles() ([]StagedFile, error)
	StagedContent(path string) ([]byte, bool, error)
	StagedHunks() ([]Hunk, error)
}

// Reason values mirror the Impact Root reason enum, in descending dedup
// priority. They are plain strings assigned into blast.Root.Reason — every
// root producer (this package, intent) fills the same blast.Root shape
// rather than its own subtype (spec.md §9).
const (
	ReasonDeleted         = "deleted"
	ReasonSignatureRipple = "signature-ripple"
	ReasonRenamed         = "renamed"
	ReasonBodyChange      = "body-change"
)

var reasonPriority = map[string]int{
	ReasonDeleted:         4,
	ReasonSignatureRipple: 3,
	ReasonRenamed:         2,
	ReasonBodyChange:      1,
}

// Mapper runs the staged-diff analysis against a shadow index/graph cloned
// from the live orchestrator state.
type Mapper struct {
	vcs VCS
}

func New(vcs VCS) *Mapper {
	return &Mapper{vcs: vcs}
}

// Analyze produces the deduplicated Impact Root list for the current staged
// change set, operating entirely on a shadow copy of idx/g — neither is
// mutated (the live state belongs solely to the orchestrator per spec.md
// §5's shared-resource policy).
func (m *Mapper) Analyze(idx map[string]*symbol.Symbol, g *graph.Graph) ([]blast.Root, error) {
	files, err := m.vcs.StagedFiles()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindVCSUnavailable, "cannot list staged files", "", err)
	}

	shadowIdx := make(map[string]*symbol.Symbol, len(idx))
	for k, v := range idx {
		shadowIdx[k] = v
	}
	shadowGraph := g.DeepClone()

	orch := updater.NewShadow(shadowIdx, shadowGraph)

	var candidates []blast.Root

	for _, f := range files {
		switch f.Status {
		case StatusDeleted:
			report := orch.HandleFileDeleted(f.Path)
			for _, id := range report.Removed {
				candidates = append(candidates, blast.Root{SymbolID: id, PropagationMode: blast.PropagationDeep, Reason: ReasonDeleted})
			}

		case StatusRenamed, StatusCopied:
			orch.HandleFileDeleted(f.OldPath)
			content, ok, err := m.vcs.StagedContent(f.Path)
			if err != nil {
				return nil, apperr.Wrap(apperr.KindStagedRead, "cannot read staged content", f.Path, err)
			}
			if !ok {
				continue
			}
			report := orch.HandleFileChanged(f.Path, content)
			if report.Err != nil {
				continue // parse failure recoverable (spec.md §7)
			}
			for _, id := range append(append([]string{}, report.Added...), report.Ripple...) {
				candidates = append(candidates, blast.Root{SymbolID: id, PropagationMode: blast.PropagationDeep, Reason: ReasonRenamed})
			}
			for _, id := range report.Safe {
				candidates = append(candidates, blast.Root{SymbolID: id, PropagationMode: blast.PropagationDeep, Reason: ReasonRenamed})
			}

		case StatusAdded, StatusModified, StatusTypeChang:
			content, ok, err := m.vcs.StagedContent(f.Path)
			if err != nil {
				return nil, apperr.Wrap(apperr.KindStagedRead, "cannot read staged content", f.Path, err)
			}
			if !ok {
				continue
			}
			report := orch.HandleFileChanged(f.Path, content)
			if report.Err != nil {
				continue
			}
			for _, id := range report.Ripple {
				candidates = append(candidates, blast.Root{SymbolID: id, PropagationMode: blast.PropagationDeep, Reason: ReasonSignatureRipple})
			}
		}
	}

	// Ghost sweep: every id still referenced in the shadow graph but no
	// longer present in the shadow index is a deleted/renamed-away symbol.
	idSet := make(map[string]struct{}, len(shadowIdx))
	for id := range shadowIdx {
		idSet[id] = struct{}{}
	}
	for _, id := range siganalyze.Ghosts(shadowGraph, idSet) {
		candidates = append(candidates, blast.Root{SymbolID: id, PropagationMode: blast.PropagationDeep, Reason: ReasonDeleted})
	}

	hunks, err := m.vcs.StagedHunks()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindVCSUnavailable, "cannot read staged hunks", "", err)
	}

	nameIndex, err := cache.OpenNameIndex()
	if err != nil {
		return nil, err
	}
	defer nameIndex.Close()
	if err := nameIndex.Rebuild(shadowIdx); err != nil {
		return nil, err
	}

	bodyChanges, err := m.mapHunksToSymbols(hunks, shadowIdx, nameIndex)
	if err != nil {
		return nil, err
	}
	candidates = append(candidates, bodyChanges...)

	return dedup(candidates), nil
}

// mapHunksToSymbols converts each hunk's line range to a byte range via a
// newline scan of the staged content (read once per file) and collects
// every symbol whose [startPos,endPos] overlaps as a body-change root. No
// symbol is excluded here: a symbol that also carries a higher-priority
// reason (signature-ripple, deleted, renamed) keeps that reason through
// dedup, and a symbol that is new in the staged content and overlaps a
// hunk is reported as body-change. Per
// file, the candidate symbol set comes from the name index's LookupByFile
// rather than a full scan of shadowIdx, so a hunk never pays for symbols
// belonging to other files.
func (m *Mapper) mapHunksToSymbols(hunks []Hunk, shadowIdx map[string]*symbol.Symbol, nameIndex *cache.NameIndex) ([]blast.Root, error) {
	byFile := make(map[string][]Hunk)
	for _, h := range hunks {
		byFile[h.Path] = append(byFile[h.Path], h)
	}

	var roots []blast.Root
	for path, fileHunks := range byFile {
		content, ok, err := m.vcs.StagedContent(path)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindStagedRead, "cannot read staged content for hunk mapping", path, err)
		}
		if !ok {
			continue
		}
		lineOffsets := lineStartOffsets(content)

		ids, err := nameIndex.LookupByFile(symbol.NormalizePath(path))
		if err != nil {
			return nil, err
		}

		for _, h := range fileHunks {
			startPos, endPos := lineRangeToByteRange(lineOffsets, len(content), h.NewStartLine, h.NewStartLine+h.NewLineCount-1)
			for _, id := range ids {
				sym, ok := shadowIdx[id]
				if !ok {
					continue
				}
				if overlaps(sym.StartOffset, sym.EndOffset, startPos, endPos) {
					roots = append(roots, blast.Root{SymbolID: sym.ID, PropagationMode: blast.PropagationShallow, Reason: ReasonBodyChange})
				}
			}
		}
	}
	return roots, nil
}

func overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart <= bEnd && bStart <= aEnd
}

// lineStartOffsets returns the byte offset of the first character of each
// line (1-indexed access via lineStartOffsets[line-1]).
func lineStartOffsets(content []byte) []int {
	offsets := []int{0}
	for i, b := range content {
		if b == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// lineRangeToByteRange clamps startLine/endLine to the file's line count
// and converts to a byte range; endPos is the last character of endLine,
// excluding its trailing newline.
func lineRangeToByteRange(lineOffsets []int, contentLen, startLine, endLine int) (startPos, endPos int) {
	lastLine := len(lineOffsets)
	if startLine < 1 {
		startLine = 1
	}
	if endLine > lastLine {
		endLine = lastLine
	}
	if startLine > lastLine {
		startLine = lastLine
	}
	if endLine < startLine {
		endLine = startLine
	}

	startPos = lineOffsets[startLine-1]
	if endLine == lastLine {
		endPos = contentLen - 1
	} else {
		endPos = lineOffsets[endLine] - 2 // char before the next line's start, minus the newline itself
	}
	if endPos < startPos {
		endPos = startPos
	}
	return startPos, endPos
}

// dedup keeps the highest dedup-priority reason per symbol ID.
func dedup(roots []blast.Root) []blast.Root {
	best := make(map[string]blast.Root)
	var order []string
	for _, r := range roots {
		existing, ok := best[r.SymbolID]
		if !ok {
			best[r.SymbolID] = r
			order = append(order, r.SymbolID)
			continue
		}
		if reasonPriority[r.Reason] > reasonPriority[existing.Reason] {
			best[r.SymbolID] = r
		}
	}
	out := make([]blast.Root, 0, len(order))
	for _, id := range order {
		out = append(out, best[id])
	}
	return out
}
