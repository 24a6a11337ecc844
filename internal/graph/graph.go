// Package graph is the Graph Store: forward and reverse symbol-reference
// adjacency maps with O(1) neighbor queries and file-scoped eviction.
// Grounded on the reference pack's in-memory symbol graph
// (internal/codegraph/graph.go's Graph/TraverseFrom shape) and the
// key-naming conventions of internal/index/storage.go.
package graph

import (
	"encoding/json"
	"sort"
	"sync"
)

// Graph holds the live bidirectional dependency graph. The mirror
// invariant (y in forward[x] iff x in reverse[y]) is maintained by every
// mutator in this file; callers never touch the maps directly.
type Graph struct {
	mu      sync.RWMutex
	forward map[string]map[string]struct{}
	reverse map[string]map[string]struct{}
}

func New() *Graph {
	return &Graph{
		forward: make(map[string]map[string]struct{}),
		reverse: make(map[string]map[string]struct{}),
	}
}

// AddEdge records that src references tgt. Self-loops are suppressed (the
// reference walker is responsible for not calling this with src==tgt, but
// the store enforces the invariant regardless).
func (g *Graph) AddEdge(src, tgt string) {
	if src == tgt {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	addTo(g.forward, src, tgt)
	addTo(g.reverse, tgt, src)
}

// RemoveEdge removes a single src->tgt edge, pruning empty neighbor sets.
func (g *Graph) RemoveEdge(src, tgt string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	removeFrom(g.forward, src, tgt)
	removeFrom(g.reverse, tgt, src)
}

func addTo(m map[string]map[string]struct{}, k, v string) {
	set, ok := m[k]
	if !ok {
		set = make(map[string]struct{})
		m[k] = set
	}
	set[v] = struct{}{}
}

func removeFrom(m map[string]map[string]struct{}, k, v string) {
	set, ok := m[k]
	if !ok {
		return
	}
	delete(set, v)
	if len(set) == 0 {
		delete(m, k)
	}
}

// Dependents returns the set of ids that reference id (reverse neighbors).
func (g *Graph) Dependents(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return keysOf(g.reverse[id])
}

// Dependencies returns the set of ids id references (forward neighbors).
func (g *Graph) Dependencies(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return keysOf(g.forward[id])
}

func keysOf(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

// HasForwardKey reports whether id appears as a source in the forward map —
// used by the Signature Analyzer's index-graph-domain / ghost check.
func (g *Graph) HasForwardKey(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.forward[id]
	return ok
}

// AllKeys returns the union of every id appearing as a key in either map
// (used for the ghost sweep: forward-keys ∪ reverse-keys).
func (g *Graph) AllKeys() map[string]struct{} {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[string]struct{}, len(g.forward)+len(g.reverse))
	for k := range g.forward {
		out[k] = struct{}{}
	}
	for k := range g.reverse {
		out[k] = struct{}{}
	}
	return out
}

// EvictFile removes every edge whose source or target belongs to
// filePath's symbols (fileSymbolIDs), per spec.md §4.3. It does not touch
// any index; the caller (Incremental Updater) owns deleting the symbols
// themselves.
func (g *Graph) EvictFile(fileSymbolIDs []string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	owned := make(map[string]struct{}, len(fileSymbolIDs))
	for _, id := range fileSymbolIDs {
		owned[id] = struct{}{}
	}

	for src, targets := range g.forward {
		_, srcOwned := owned[src]
		for tgt := range targets {
			_, tgtOwned := owned[tgt]
			if srcOwned || tgtOwned {
				delete(targets, tgt)
				if rset, ok := g.reverse[tgt]; ok {
					delete(rset, src)
					if len(rset) == 0 {
						delete(g.reverse, tgt)
					}
				}
			}
		}
		if len(targets) == 0 {
			delete(g.forward, src)
		}
	}
}

// DeepClone returns an independent copy of both adjacency maps (used by
// speculative analyses: staged-diff and intent virtual diffs never mutate
// the live graph).
func (g *Graph) DeepClone() *Graph {
	g.mu.RLock()
	defer g.mu.RUnlock()
	clone := New()
	clone.forward = cloneAdjacency(g.forward)
	clone.reverse = cloneAdjacency(g.reverse)
	return clone
}

func cloneAdjacency(m map[string]map[string]struct{}) map[string]map[string]struct{} {
	out := make(map[string]map[string]struct{}, len(m))
	for k, set := range m {
		ns := make(map[string]struct{}, len(set))
		for v := range set {
			ns[v] = struct{}{}
		}
		out[k] = ns
	}
	return out
}

// Reset clears both maps in place, preserving the *Graph reference so
// existing holders keep seeing the cleared state (fullRebuild's contract).
func (g *Graph) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.forward = make(map[string]map[string]struct{})
	g.reverse = make(map[string]map[string]struct{})
}

// Equal reports whether two graphs hold identical adjacency (used by the
// shadow-isolation property test).
func (g *Graph) Equal(other *Graph) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	other.mu.RLock()
	defer other.mu.RUnlock()
	return adjacencyEqual(g.forward, other.forward) && adjacencyEqual(g.reverse, other.reverse)
}

func adjacencyEqual(a, b map[string]map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok || len(va) != len(vb) {
			return false
		}
		for v := range va {
			if _, ok := vb[v]; !ok {
				return false
			}
		}
	}
	return true
}

// wireFormat is the on-disk shape from spec.md §6: object-of-arrays JSON.
// The reverse map is serialized, not recomputed, so a reload never needs a
// re-walk.
type wireFormat struct {
	Forward map[string][]string `json:"forward"`
	Reverse map[string][]string `json:"reverse"`
}

// legacySectioned is the transparently-readable legacy form with
// present/future top-level keys (spec.md §6): present holds the live graph,
// future (if any) holds a coexisting speculative graph. Only present is
// loaded; future is ignored, and since MarshalJSON always writes the flat
// form, a graph loaded from this form is saved without its future section.
type legacySectioned struct {
	Present *wireFormat     `json:"present"`
	Future  json.RawMessage `json:"future,omitempty"`
}

// MarshalJSON writes the flat (non-legacy) wire form.
func (g *Graph) MarshalJSON() ([]byte, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return json.Marshal(toWire(g.forward, g.reverse))
}

func toWire(forward, reverse map[string]map[string]struct{}) wireFormat {
	wf := wireFormat{
		Forward: make(map[string][]string, len(forward)),
		Reverse: make(map[string][]string, len(reverse)),
	}
	for k, set := range forward {
		wf.Forward[k] = sortedKeys(set)
	}
	for k, set := range reverse {
		wf.Reverse[k] = sortedKeys(set)
	}
	return wf
}

func sortedKeys(set map[string]struct{}) []string {
	out := keysOf(set)
	sort.Strings(out)
	return out
}

// UnmarshalJSON transparently accepts either the flat wire form or the
// legacy present/future sectioned form.
func (g *Graph) UnmarshalJSON(data []byte) error {
	var sectioned legacySectioned
	if err := json.Unmarshal(data, &sectioned); err == nil && sectioned.Present != nil {
		return g.loadWire(*sectioned.Present)
	}

	var wf wireFormat
	if err := json.Unmarshal(data, &wf); err != nil {
		return err
	}
	return g.loadWire(wf)
}

func (g *Graph) loadWire(wf wireFormat) error {
	forward := make(map[string]map[string]struct{}, len(wf.Forward))
	for k, ids := range wf.Forward {
		forward[k] = toSet(ids)
	}
	reverse := make(map[string]map[string]struct{}, len(wf.Reverse))
	for k, ids := range wf.Reverse {
		reverse[k] = toSet(ids)
	}
	g.mu.Lock()
	g.forward = forward
	g.reverse = reverse
	g.mu.Unlock()
	return nil
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
