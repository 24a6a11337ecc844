// Package updater is the Incremental Updater: it owns the live symbol
// index and live graph, and orchestrates the per-file
// snapshot -> evict -> reparse -> reindex -> rewalk sequence plus a
// cooperative-yielding full rebuild (spec.md §4.5/§5).
//
// Grounded on a BuildProgress atomic-counter/phase-tracking builder but
// restructured from a worker-pool model to the single-threaded cooperative
// model spec.md §5 mandates: mutation of the shared index/graph never
// happens from more than one goroutine at a time. errgroup is kept only for
// the read-only bootstrap file-content fan-out, never for the mutation
// loop itself. File discovery delegates to internal/walker, scoped to
// TS/TSX at the call site.
package updater

import (
	"context"
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/dhivijit/ripplecheck/internal/apperr"
	"github.com/dhivijit/ripplecheck/internal/graph"
	"github.com/dhivijit/ripplecheck/internal/refwalk"
	"github.com/dhivijit/ripplecheck/internal/siganalyze"
	"github.com/dhivijit/ripplecheck/internal/symbol"
	"github.com/dhivijit/ripplecheck/internal/tsparse"
	"github.com/dhivijit/ripplecheck/internal/walker"
)

const DefaultBatchYieldSize = 20

// ChangeReport is the signature-change report handleFileChanged returns
// (spec.md §4.5).
type ChangeReport struct {
	siganalyze.Report
	Err error
}

// Orchestrator owns the live symbol index and graph. It is the single
// owner referenced by spec.md §9 ("Ownership of mutable graph"); every
// other component receives a read-only view or an explicit clone.
type Orchestrator struct {
	mu             sync.RWMutex
	index          map[string]*symbol.Symbol
	g              *graph.Graph
	version        uint64
	batchYieldSize int
	extractor      *symbol.Extractor
}

func New() *Orchestrator {
	return &Orchestrator{
		index:          make(map[string]*symbol.Symbol),
		g:              graph.New(),
		batchYieldSize: DefaultBatchYieldSize,
		extractor:      symbol.NewExtractor(),
	}
}

// NewShadow wraps an already-populated index/graph pair (a shallow index
// clone plus a deep graph clone) with the same snapshot/evict/reparse/
// reindex/rewalk machinery, so speculative analyses (staged diff, intent)
// can reuse this package instead of duplicating it (spec.md §5's
// shallow-clone/deep-clone shared-resource policy).
func NewShadow(index map[string]*symbol.Symbol, g *graph.Graph) *Orchestrator {
	return &Orchestrator{
		index:          index,
		g:              g,
		batchYieldSize: DefaultBatchYieldSize,
		extractor:      symbol.NewExtractor(),
	}
}

// Graph returns the live graph (read/mutate only via this orchestrator's
// own methods; speculative callers must DeepClone first).
func (o *Orchestrator) Graph() *graph.Graph { return o.g }

// Version returns the current monotone version counter.
func (o *Orchestrator) Version() uint64 {
	return atomic.LoadUint64(&o.version)
}

// NextVersion increments and returns the version counter. Every speculative
// analysis (staged, intent, editor) should call this at the start and
// discard its result if the counter has moved again by the time it
// finishes (spec.md §5).
func (o *Orchestrator) NextVersion() uint64 {
	return atomic.AddUint64(&o.version, 1)
}

// CloneIndex returns an independent shallow clone of the live index
// (spec.md §3: "every reader that speculatively modifies receives an
// independent shallow clone").
func (o *Orchestrator) CloneIndex() map[string]*symbol.Symbol {
	o.mu.RLock()
	defer o.mu.RUnlock()
	clone := make(map[string]*symbol.Symbol, len(o.index))
	for k, v := range o.index {
		clone[k] = v
	}
	return clone
}

// IndexIDs returns the set of ids currently in the index (used by the
// ghost sweep).
func (o *Orchestrator) IndexIDs() map[string]struct{} {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make(map[string]struct{}, len(o.index))
	for k := range o.index {
		out[k] = struct{}{}
	}
	return out
}

// Lookup returns a live symbol by ID.
func (o *Orchestrator) Lookup(id string) (*symbol.Symbol, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	s, ok := o.index[id]
	return s, ok
}

// All returns every live symbol (read-only snapshot slice; callers must
// not mutate the returned Symbol values).
func (o *Orchestrator) All() []*symbol.Symbol {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]*symbol.Symbol, 0, len(o.index))
	for _, s := range o.index {
		out = append(out, s)
	}
	return out
}

// resolver does the pragmatic lexical-name resolution that stands in for
// the out-of-scope type checker (see internal/refwalk doc comment): it
// matches an identifier's text against every live symbol's qualified name
// or, for nested members, its final dotted segment, and deterministically
// picks the lexicographically smallest matching ID when more than one
// candidate exists.
type resolver struct {
	byName map[string][]string
}

func newResolver(index map[string]*symbol.Symbol) *resolver {
	r := &resolver{byName: make(map[string][]string)}
	for id, sym := range index {
		r.byName[sym.QualifiedName] = append(r.byName[sym.QualifiedName], id)
		if last := lastSegment(sym.QualifiedName); last != sym.QualifiedName {
			r.byName[last] = append(r.byName[last], id)
		}
	}
	for k := range r.byName {
		sort.Strings(r.byName[k])
	}
	return r
}

func lastSegment(qualified string) string {
	for i := len(qualified) - 1; i >= 0; i-- {
		if qualified[i] == '.' {
			return qualified[i+1:]
		}
	}
	return qualified
}

func (r *resolver) Resolve(name string) (string, bool) {
	ids, ok := r.byName[name]
	if !ok || len(ids) == 0 {
		return "", false
	}
	return ids[0], true
}

var _ refwalk.Resolver = (*resolver)(nil)

// fileSymbolIDs returns the ids (and hash snapshot) of every symbol
// currently indexed for path.
func (o *Orchestrator) fileSymbolIDs(path string) (ids []string, snapshot siganalyze.Snapshot) {
	snapshot = make(siganalyze.Snapshot)
	norm := symbol.NormalizePath(path)
	for id, sym := range o.index {
		if sym.FilePath == norm {
			ids = append(ids, id)
			snapshot[id] = sym.SignatureHash
		}
	}
	return ids, snapshot
}

// HandleFileChanged runs the five-step sequence for a single file.
// Invariant: if reparse fails, every symbol formerly belonging to path
// stays evicted and the report's Removed set equals the snapshot's keys.
func (o *Orchestrator) HandleFileChanged(path string, newText []byte) ChangeReport {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.handleFileChangedLocked(path, newText)
}

func (o *Orchestrator) handleFileChangedLocked(path string, newText []byte) ChangeReport {
	ids, snapshot := o.fileSymbolIDs(path)

	o.g.EvictFile(ids)
	for _, id := range ids {
		delete(o.index, id)
	}

	pf, err := tsparse.Parse(path, newText)
	if err != nil {
		removed := make([]string, 0, len(snapshot))
		for id := range snapshot {
			removed = append(removed, id)
		}
		return ChangeReport{Report: siganalyze.Report{Removed: removed}, Err: err}
	}
	defer pf.Close()

	symbols := o.extractor.Extract(pf)
	for _, sym := range symbols {
		o.index[sym.ID] = sym
	}

	o.rewalkFileLocked(pf, symbols)

	current := make([]siganalyze.CurrentSymbol, len(symbols))
	for i, sym := range symbols {
		current[i] = siganalyze.CurrentSymbol{ID: sym.ID, Hash: sym.SignatureHash}
	}
	return ChangeReport{Report: siganalyze.Diff(snapshot, current)}
}

// rewalkFileLocked runs the Reference Walker over a freshly-(re)extracted
// file and adds its edges to the live graph, resolving identifiers against
// the full (just-updated) index.
func (o *Orchestrator) rewalkFileLocked(pf *tsparse.ParsedFile, symbols []*symbol.Symbol) {
	byStart := make(map[uint]string, len(symbols))
	for _, sym := range symbols {
		byStart[uint(sym.StartOffset)] = sym.ID
	}
	res := newResolver(o.index)
	for _, edge := range refwalk.Walk(pf, byStart, res) {
		o.g.AddEdge(edge.From, edge.To)
	}
}

// HandleFileCreated is the obvious specialization of HandleFileChanged for
// a file with no prior symbols.
func (o *Orchestrator) HandleFileCreated(path string, text []byte) ChangeReport {
	return o.HandleFileChanged(path, text)
}

// HandleFileDeleted evicts every symbol belonging to path and returns them
// as the report's Removed set.
func (o *Orchestrator) HandleFileDeleted(path string) ChangeReport {
	o.mu.Lock()
	defer o.mu.Unlock()
	ids, snapshot := o.fileSymbolIDs(path)
	o.g.EvictFile(ids)
	for _, id := range ids {
		delete(o.index, id)
	}
	removed := make([]string, 0, len(snapshot))
	for id := range snapshot {
		removed = append(removed, id)
	}
	return ChangeReport{Report: siganalyze.Report{Removed: removed}}
}

// FileReader abstracts disk access so tests can substitute an in-memory
// filesystem; production callers pass os.ReadFile-backed implementation.
type FileReader func(path string) ([]byte, error)

// FullRebuild clears the graph and index in place (preserving the
// Orchestrator's own identity so existing holders observe the rebuild),
// refreshes every parsed source from disk, re-extracts all symbols, then
// re-walks all references. It yields cooperatively every batchYieldSize
// files via the yield callback so a single-event-loop host stays
// responsive (spec.md §5 — no threads are introduced inside this loop;
// only the read-only file-content fan-out below uses errgroup).
func (o *Orchestrator) FullRebuild(ctx context.Context, files []string, read FileReader, yield func()) error {
	if read == nil {
		read = os.ReadFile
	}

	contents, err := readAllConcurrently(ctx, files, read)
	if err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	for k := range o.index {
		delete(o.index, k)
	}
	o.g.Reset()

	type parsed struct {
		pf      *tsparse.ParsedFile
		symbols []*symbol.Symbol
	}
	var parsedFiles []parsed

	for i, path := range files {
		content, ok := contents[path]
		if !ok {
			continue // read failed; readAllConcurrently skipped this file; skip per §7 policy
		}
		pf, err := tsparse.Parse(path, content)
		if err != nil {
			continue
		}
		symbols := o.extractor.Extract(pf)
		for _, sym := range symbols {
			o.index[sym.ID] = sym
		}
		parsedFiles = append(parsedFiles, parsed{pf: pf, symbols: symbols})

		if (i+1)%o.batchYieldSize == 0 && yield != nil {
			yield()
		}
	}

	// Two-pass invariant (spec.md §4.5): every eviction/re-extraction above
	// completes before any re-walk below, so an edge recorded here never
	// references a stale pre-rebuild symbol that a later iteration would
	// otherwise have erased.
	for i, pf := range parsedFiles {
		o.rewalkFileLocked(pf.pf, pf.symbols)
		pf.pf.Close()
		if (i+1)%o.batchYieldSize == 0 && yield != nil {
			yield()
		}
	}

	return nil
}

// readAllConcurrently fans out file reads (bootstrap I/O only, no shared
// mutable state) using errgroup, matching a conventional builder worker
// pool — but strictly confined to read-only disk access before any graph
// mutation begins.
func readAllConcurrently(ctx context.Context, files []string, read FileReader) (map[string][]byte, error) {
	var mu sync.Mutex
	out := make(map[string][]byte, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, path := range files {
		path := path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			content, err := read(path)
			if err != nil {
				// Parse/read failure for a single file is recoverable
				// (spec.md §7): skip it, don't abort the rebuild.
				return nil
			}
			mu.Lock()
			out[path] = content
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperr.Wrap(apperr.KindParseFailure, "full rebuild file read cancelled", "", err)
	}
	return out, nil
}

// DiscoverFiles walks root for TypeScript/TSX files using the gitignore-aware
// Walker, restricted to this analyzer's file universe via a
// TypeScript/TSX-only Filters (spec.md's TS/TSX source universe).
func DiscoverFiles(root string) ([]string, error) {
	filters := walker.NewFilters()
	filters.IncludeExtension(".ts")
	filters.IncludeExtension(".tsx")

	ignoreRules, err := walker.NewIgnoreManager()
	if err != nil {
		return nil, err
	}
	_ = ignoreRules.AddCommonPatterns("node")
	_ = ignoreRules.AddCommonPatterns("common")
	_ = ignoreRules.AddRule(".git/")

	cfg := walker.DefaultConfig()
	cfg.Filters = filters
	cfg.IgnoreRules = ignoreRules

	w, err := walker.New(cfg)
	if err != nil {
		return nil, err
	}
	results, err := w.Walk(root)
	if err != nil {
		return nil, err
	}

	var files []string
	for res := range results {
		if res.Error != nil || res.Info == nil || res.Info.IsDir() {
			continue
		}
		if tsparse.IsSupported(res.Path) {
			files = append(files, res.Path)
		}
	}
	sort.Strings(files)
	return files, nil
}
