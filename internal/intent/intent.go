// Package intent is the Intent Pipeline: it resolves an externally-provided
// IntentDescriptor to a set of Impact Roots against a virtual (shallow
// index + deep graph) diff, runs the Blast-Radius Engine against the live
// graph, and annotates results with resolver confidence (spec.md §4.9).
//
// Grounded on the two-pass candidate scoring shape in internal/search (a
// broad recall pass followed by a stricter precision filter) generalized
// to the symbol/file hint scoring spec.md §4.9 specifies, and on
// cache.NameTokens for the shared tokenizer.
package intent

import (
	"sort"
	"strings"

	"github.com/dhivijit/ripplecheck/internal/blast"
	"github.com/dhivijit/ripplecheck/internal/cache"
	"github.com/dhivijit/ripplecheck/internal/graph"
	"github.com/dhivijit/ripplecheck/internal/symbol"
)

// ChangeType mirrors the IntentDescriptor's changeType enum.
type ChangeType string

const (
	ChangeAdd      ChangeType = "add"
	ChangeModify   ChangeType = "modify"
	ChangeDelete   ChangeType = "delete"
	ChangeRefactor ChangeType = "refactor"
	ChangeUnknown  ChangeType = "unknown"
)

// Descriptor is the external oracle's IntentDescriptor (spec.md §4.9).
type Descriptor struct {
	Prompt           string
	ChangeType       ChangeType
	SymbolHints      []string
	FileHints        []string
	AffectsPublicAPI bool
	Summary          string
}

// Confidence is the resolver confidence band.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

func bandFor(score float64) Confidence {
	switch {
	case score >= 0.85:
		return ConfidenceHigh
	case score >= 0.45:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func demote(c Confidence) Confidence {
	switch c {
	case ConfidenceHigh:
		return ConfidenceMedium
	case ConfidenceMedium:
		return ConfidenceLow
	default:
		return ConfidenceLow
	}
}

// candidate is a scored symbol during resolution.
type candidate struct {
	id    string
	score float64
}

const (
	passAAccept    = 0.45
	passBRelevance = 0.30
	passACapHigh   = 20
	passBCapLow    = 10
)

// stopLengthMin is the minimum token length counted toward Jaccard overlap
// (single-character tokens are too noisy to score on their own).
const stopLengthMin = 2

var metaWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "this": {}, "that": {}, "these": {}, "those": {},
	"it": {}, "its": {}, "they": {}, "them": {}, "he": {}, "she": {}, "we": {}, "i": {}, "you": {},
	"add": {}, "remove": {}, "delete": {}, "change": {}, "update": {}, "use": {}, "make": {},
	"create": {}, "modify": {}, "fix": {}, "rename": {}, "refactor": {}, "implement": {},
	"file": {}, "function": {}, "method": {}, "module": {}, "class": {}, "code": {}, "symbol": {},
	"to": {}, "of": {}, "in": {}, "for": {}, "with": {}, "and": {}, "or": {}, "is": {}, "are": {},
	"be": {}, "on": {}, "as": {}, "by": {},
}

// Resolver scores symbols against an IntentDescriptor's hints and prompt. It
// owns an in-memory name index (rebuilt once from symbols at construction)
// so both passes seed their candidate set via an indexed token lookup
// instead of a full scan of symbols.
type Resolver struct {
	symbols []*symbol.Symbol
	byID    map[string]*symbol.Symbol
	index   *cache.NameIndex
}

func NewResolver(symbols []*symbol.Symbol) *Resolver {
	r := &Resolver{symbols: symbols, byID: make(map[string]*symbol.Symbol, len(symbols))}
	snapshot := make(map[string]*symbol.Symbol, len(symbols))
	for _, s := range symbols {
		r.byID[s.ID] = s
		snapshot[s.ID] = s
	}
	if index, err := cache.OpenNameIndex(); err == nil {
		if err := index.Rebuild(snapshot); err == nil {
			r.index = index
		} else {
			index.Close()
		}
	}
	return r
}

// Close releases the resolver's in-memory name index. Safe to call on a
// Resolver whose index failed to open.
func (r *Resolver) Close() error {
	if r.index == nil {
		return nil
	}
	return r.index.Close()
}

// candidateSymbols returns the union of symbols indexed under any token
// derived from hints, falling back to every live symbol when the index is
// unavailable, no hints were given, or the lookup comes back empty (e.g.
// hints whose tokens were all filtered out).
func (r *Resolver) candidateSymbols(hints []string) []*symbol.Symbol {
	if r.index == nil || len(hints) == 0 {
		return r.symbols
	}
	seen := make(map[string]struct{})
	var out []*symbol.Symbol
	for _, hint := range hints {
		for _, tok := range cache.NameTokens(hint) {
			ids, err := r.index.LookupByToken(tok)
			if err != nil {
				return r.symbols
			}
			for _, id := range ids {
				if _, dup := seen[id]; dup {
					continue
				}
				sym, ok := r.byID[id]
				if !ok {
					continue
				}
				seen[id] = struct{}{}
				out = append(out, sym)
			}
		}
	}
	if len(out) == 0 {
		return r.symbols
	}
	return out
}

// resolvedCandidate pairs a resolved symbol with its final combined score.
type resolvedCandidate struct {
	sym   *symbol.Symbol
	score float64
	pass  string // "A" or "B"
}

// Resolve runs the two-pass resolution and reports whether the prompt is
// relevant to the codebase at all.
func (r *Resolver) Resolve(d Descriptor) (resolved []resolvedCandidate, isRelevant bool) {
	passA := r.passA(d)
	sort.Slice(passA, func(i, j int) bool { return passA[i].score > passA[j].score })

	var bestB float64
	passB := r.passB(d)
	sort.Slice(passB, func(i, j int) bool { return passB[i].score > passB[j].score })
	if len(passB) > 0 {
		bestB = passB[0].score
	}

	isRelevant = len(passA) > 0 || bestB >= passBRelevance
	if !isRelevant {
		return nil, false
	}

	if len(passA) > 0 {
		if len(passA) > passACapHigh {
			passA = passA[:passACapHigh]
		}
		for _, c := range passA {
			resolved = append(resolved, resolvedCandidate{sym: c.sym, score: c.score, pass: "A"})
		}
		return resolved, true
	}

	if len(passB) > passBCapLow {
		passB = passB[:passBCapLow]
	}
	for _, c := range passB {
		resolved = append(resolved, resolvedCandidate{sym: c.sym, score: c.score, pass: "B"})
	}
	return resolved, true
}

type scored struct {
	sym   *symbol.Symbol
	score float64
}

// passA is the high-precision hint-matching pass. When symbol hints are
// given, the candidate set is seeded from the name index's token lookup
// rather than a full scan of every live symbol; a file-hint-only query has
// no token index to seed from (the index stores full file paths, not
// tokenized ones) and falls back to a full scan.
func (r *Resolver) passA(d Descriptor) []scored {
	var out []scored
	haveName, haveFile := len(d.SymbolHints) > 0, len(d.FileHints) > 0
	candidates := r.symbols
	if haveName {
		candidates = r.candidateSymbols(d.SymbolHints)
	}
	for _, sym := range candidates {
		var nameScore, fileScore float64

		if haveName {
			for _, hint := range d.SymbolHints {
				if s := symbolHintScore(hint, sym.QualifiedName); s > nameScore {
					nameScore = s
				}
			}
		}
		if haveFile {
			for _, hint := range d.FileHints {
				if s := symbolHintScore(hint, sym.FilePath); s > fileScore {
					fileScore = s
				}
			}
		}

		var combined float64
		switch {
		case haveName && haveFile:
			combined = 0.7*nameScore + 0.3*fileScore
		case haveName:
			combined = nameScore
		case haveFile:
			combined = fileScore
		default:
			continue
		}

		if sym.Exported {
			combined += 0.05
		}
		if combined > 1.0 {
			combined = 1.0
		}

		if combined >= passAAccept {
			out = append(out, scored{sym: sym, score: combined})
		}
	}
	return out
}

// symbolHintScore implements the exact/substring/token-overlap tiers
// spec.md §4.9 defines for both symbol-name and file-hint scoring.
func symbolHintScore(hint, candidate string) float64 {
	h, c := strings.ToLower(hint), strings.ToLower(candidate)
	if h == c {
		return 1.0
	}

	shorter, longer := h, c
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(longer) > 0 && strings.Contains(longer, shorter) {
		similarity := float64(len(shorter)) / float64(len(longer))
		if similarity >= 0.4 {
			return 0.5 + 0.3*similarity
		}
	}

	overlap := jaccardTokens(cache.NameTokens(h), cache.NameTokens(c))
	if overlap >= 0.25 {
		return overlap * 0.9
	}
	return 0
}

func jaccardTokens(a, b []string) float64 {
	setA := filteredTokenSet(a)
	setB := filteredTokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	inter := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func filteredTokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if len(t) < stopLengthMin {
			continue
		}
		set[t] = struct{}{}
	}
	return set
}

// passB is the recall/relevance-gate keyword pass over the raw prompt. The
// candidate set is seeded from the name index's token lookup over the
// prompt's keywords, same as passA.
func (r *Resolver) passB(d Descriptor) []scored {
	keywords := domainKeywords(d.Prompt)
	if len(keywords) == 0 {
		return nil
	}

	var out []scored
	for _, sym := range r.candidateSymbols(keywords) {
		nameTokens := cache.NameTokens(sym.QualifiedName)
		var sum float64
		for _, kw := range keywords {
			sum += keywordScore(kw, nameTokens)
		}
		score := sum / float64(len(keywords))
		if score > 1 {
			score = 1
		}
		if sym.Exported {
			score += 0.05
			if score > 1 {
				score = 1
			}
		}
		if score > 0 {
			out = append(out, scored{sym: sym, score: score})
		}
	}
	return out
}

func keywordScore(keyword string, nameTokens []string) float64 {
	var best float64
	for _, tok := range nameTokens {
		switch {
		case tok == keyword:
			if 1.0 > best {
				best = 1.0
			}
		case strings.HasPrefix(tok, keyword) || strings.HasSuffix(tok, keyword) ||
			strings.HasPrefix(keyword, tok) || strings.HasSuffix(keyword, tok):
			if 0.7 > best {
				best = 0.7
			}
		case strings.Contains(tok, keyword) || strings.Contains(keyword, tok):
			if 0.4 > best {
				best = 0.4
			}
		}
	}
	return best
}

// domainKeywords splits the raw prompt on non-alphanumerics, lowercases,
// and strips stopwords/meta-words per the fixed closed list.
func domainKeywords(prompt string) []string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() == 0 {
			return
		}
		w := strings.ToLower(cur.String())
		cur.Reset()
		if _, isMeta := metaWords[w]; isMeta {
			return
		}
		words = append(words, w)
	}
	for _, r := range prompt {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return words
}

// VirtualDiff holds the shadow state the Intent Pipeline builds before
// running the Blast-Radius Engine: a shallow index clone and a deep graph
// clone (spec.md §4.9).
type VirtualDiff struct {
	Index map[string]*symbol.Symbol
	Graph *graph.Graph
}

// BuildVirtualDiff applies the resolved candidates' change semantics to a
// shadow copy of idx/g and returns the resulting Impact Root list, ready
// for blast.Run against the LIVE graph (spec.md §4.9: "we want who
// currently depends on these").
func BuildVirtualDiff(idx map[string]*symbol.Symbol, g *graph.Graph, d Descriptor, resolved []resolvedCandidate) ([]blast.Root, VirtualDiff) {
	shadowIdx := make(map[string]*symbol.Symbol, len(idx))
	for k, v := range idx {
		shadowIdx[k] = v
	}
	shadowGraph := g.DeepClone()

	resolvedIDs := make(map[string]struct{}, len(resolved))
	var roots []blast.Root

	for _, c := range resolved {
		resolvedIDs[c.sym.ID] = struct{}{}
		switch d.ChangeType {
		case ChangeDelete:
			delete(shadowIdx, c.sym.ID)
			roots = append(roots, blast.Root{SymbolID: c.sym.ID, PropagationMode: blast.PropagationDeep, Reason: "deleted"})
		default:
			if d.AffectsPublicAPI {
				roots = append(roots, blast.Root{SymbolID: c.sym.ID, PropagationMode: blast.PropagationDeep, Reason: "signature-ripple"})
			} else {
				roots = append(roots, blast.Root{SymbolID: c.sym.ID, PropagationMode: blast.PropagationShallow, Reason: "body-change"})
			}
		}
	}

	if d.ChangeType == ChangeAdd {
		for _, hint := range d.SymbolHints {
			if alreadyResolved(hint, resolved) {
				continue
			}
			id := symbol.PhantomID(hint)
			shadowIdx[id] = &symbol.Symbol{
				ID:            id,
				QualifiedName: hint,
				Kind:          symbol.KindFunction,
			}
			// Phantoms are display-only: never roots, never reachable via
			// BFS (they have no reverse edges in the shadow graph).
		}
	}

	return dedupRoots(roots), VirtualDiff{Index: shadowIdx, Graph: shadowGraph}
}

func alreadyResolved(hint string, resolved []resolvedCandidate) bool {
	for _, c := range resolved {
		if strings.EqualFold(c.sym.QualifiedName, hint) {
			return true
		}
	}
	return false
}

var rootReasonPriority = map[string]int{
	"deleted":          4,
	"signature-ripple": 3,
	"renamed":          2,
	"body-change":      1,
}

func dedupRoots(roots []blast.Root) []blast.Root {
	best := make(map[string]blast.Root)
	var order []string
	for _, r := range roots {
		existing, ok := best[r.SymbolID]
		if !ok {
			best[r.SymbolID] = r
			order = append(order, r.SymbolID)
			continue
		}
		if rootReasonPriority[r.Reason] > rootReasonPriority[existing.Reason] {
			best[r.SymbolID] = r
		}
	}
	out := make([]blast.Root, 0, len(order))
	for _, id := range order {
		out = append(out, best[id])
	}
	return out
}

// RootConfidence pairs a resolved root's symbol ID with the resolver
// confidence it carries into BFS depth-degradation.
type RootConfidence struct {
	SymbolID   string
	Confidence Confidence
}

// RootConfidences derives each root's confidence band from its resolver
// score, for use by DegradeConfidence.
func RootConfidences(resolved []resolvedCandidate) map[string]Confidence {
	out := make(map[string]Confidence, len(resolved))
	for _, c := range resolved {
		out[c.sym.ID] = bandFor(c.score)
	}
	return out
}

// ImpactConfidence is the final, degradation-applied confidence for one
// impacted symbol.
type ImpactConfidence struct {
	SymbolID   string
	Confidence Confidence
}

// DegradeConfidence implements spec.md §4.9's confidence degradation: for
// each impacted symbol, each explanation path's effective confidence is
// its root's confidence, demoted one tier if the path's depth is >= 2; the
// final confidence is the max across all paths.
func DegradeConfidence(result blast.Result, rootConf map[string]Confidence) []ImpactConfidence {
	rank := map[Confidence]int{ConfidenceLow: 0, ConfidenceMedium: 1, ConfidenceHigh: 2}

	out := make([]ImpactConfidence, 0, len(result.Impacts))
	for _, impact := range result.Impacts {
		best := ConfidenceLow
		haveAny := false
		for _, path := range impact.Paths {
			if len(path) == 0 {
				continue
			}
			rootID := path[0]
			rc, ok := rootConf[rootID]
			if !ok {
				continue
			}
			depth := len(path) - 1
			effective := rc
			if depth >= 2 {
				effective = demote(rc)
			}
			if !haveAny || rank[effective] > rank[best] {
				best = effective
				haveAny = true
			}
		}
		if haveAny {
			out = append(out, ImpactConfidence{SymbolID: impact.SymbolID, Confidence: best})
		}
	}
	return out
}

// DeletePostFilter strips from impacts any symbol whose file matches one of
// the delete-intent roots' files (spec.md §4.9's delete post-filter).
func DeletePostFilter(result blast.Result, rootFiles map[string]string, idx map[string]*symbol.Symbol, deleteRootIDs map[string]struct{}) blast.Result {
	if len(deleteRootIDs) == 0 {
		return result
	}
	excludedFiles := make(map[string]struct{})
	for rootID := range deleteRootIDs {
		if f, ok := rootFiles[rootID]; ok {
			excludedFiles[f] = struct{}{}
		}
	}

	filtered := result.Impacts[:0]
	for _, impact := range result.Impacts {
		sym, ok := idx[impact.SymbolID]
		if ok {
			if _, excluded := excludedFiles[sym.FilePath]; excluded {
				continue
			}
		}
		filtered = append(filtered, impact)
	}
	result.Impacts = filtered
	return result
}
