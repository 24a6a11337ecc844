// Package blast is the Blast-Radius Engine: a two-pass multi-source BFS
// over the graph's reverse edges that turns a list of Impact Roots into a
// classified, path-annotated Blast-Radius Result (spec.md §4.8).
//
// Grounded on the reference pack's single-source TraverseFrom/visited-set
// BFS (other_examples: internal/codegraph/graph.go), generalized here to
// the multi-root, per-root-parent-map model spec.md §4.8 requires — a
// single global parent map would collapse explanations to one arbitrary
// root, so each deep root gets its own parent map.
package blast

// PropagationMode mirrors vcsdiff.PropagationMode without importing it,
// keeping this package usable standalone by any root producer (vcsdiff,
// intent, or the editor path).
type PropagationMode string

const (
	PropagationDeep    PropagationMode = "deep"
	PropagationShallow PropagationMode = "shallow"
)

// Root is the common Impact-Root protocol every producer (vcsdiff, intent,
// editor) satisfies: a plain struct, not a subtype hierarchy (spec.md §9).
type Root struct {
	SymbolID        string
	PropagationMode PropagationMode
	Reason          string
}

// ReverseNeighbors abstracts the graph's reverse-edge lookup so this
// package never imports internal/graph directly; both the live graph and
// any transient overlay (the pre-eviction snapshot overlay of
// `ripplecheck edit`, cmd/ripplecheck/edit.go) satisfy it.
type ReverseNeighbors interface {
	Dependents(id string) []string
}

// Classification is "direct" (depth 1) or "indirect" (depth >= 2).
type Classification string

const (
	Direct   Classification = "direct"
	Indirect Classification = "indirect"
)

// Impact is one non-root symbol reached by the traversal.
type Impact struct {
	SymbolID       string
	Depth          int
	Classification Classification
	Paths          [][]string // each path: [root, ..., symbolID]
}

// Result is the Blast-Radius Result (spec.md §3).
type Result struct {
	Roots   []Root
	Impacts []Impact
}

// Run executes the two-pass BFS described in spec.md §4.8 over g's reverse
// edges, starting from roots.
func Run(g ReverseNeighbors, roots []Root) Result {
	rootSet := make(map[string]struct{}, len(roots))
	for _, r := range roots {
		rootSet[r.SymbolID] = struct{}{}
	}

	globalDepth := make(map[string]int)
	// parentMaps[rootID][node] = predecessor ("" for the root itself).
	parentMaps := make(map[string]map[string]string)

	var deepRoots, shallowRoots []Root
	for _, r := range roots {
		if r.PropagationMode == PropagationDeep {
			deepRoots = append(deepRoots, r)
		} else {
			shallowRoots = append(shallowRoots, r)
		}
	}

	// Pass 1: deep roots, unbounded BFS, per-root parent map + shared
	// minimum-depth map.
	for _, r := range deepRoots {
		parent := map[string]string{r.SymbolID: ""}
		visited := map[string]struct{}{r.SymbolID: {}}
		queue := []string{r.SymbolID}
		depth := map[string]int{r.SymbolID: 0}

		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, next := range g.Dependents(cur) {
				if _, seen := visited[next]; seen {
					continue
				}
				visited[next] = struct{}{}
				parent[next] = cur
				depth[next] = depth[cur] + 1
				queue = append(queue, next)

				if _, isRoot := rootSet[next]; !isRoot {
					if prev, ok := globalDepth[next]; !ok || depth[next] < prev {
						globalDepth[next] = depth[next]
					}
				}
			}
		}
		parentMaps[r.SymbolID] = parent
	}

	// Pass 2: shallow roots, one hop only. Deep always wins: skip a
	// neighbor that is itself a root or already reached by a deep BFS.
	shallowParent := make(map[string]string) // node -> shallow root id
	for _, r := range shallowRoots {
		for _, next := range g.Dependents(r.SymbolID) {
			if _, isRoot := rootSet[next]; isRoot {
				continue
			}
			if _, deepReached := globalDepth[next]; deepReached {
				continue
			}
			if _, already := shallowParent[next]; already {
				continue // first shallow root wins in case of collision
			}
			shallowParent[next] = r.SymbolID
		}
	}

	// Classification + path reconstruction.
	impacted := make(map[string]struct{})
	for id := range globalDepth {
		impacted[id] = struct{}{}
	}
	for id := range shallowParent {
		impacted[id] = struct{}{}
	}

	impacts := make([]Impact, 0, len(impacted))
	for id := range impacted {
		depth, deepReached := globalDepth[id]
		if !deepReached {
			depth = 1
		}
		class := Direct
		if depth >= 2 {
			class = Indirect
		}

		var paths [][]string
		for rootID, parent := range parentMaps {
			if _, ok := parent[id]; ok {
				paths = append(paths, reconstructPath(parent, id, rootID))
			}
		}
		if shallowRoot, ok := shallowParent[id]; ok {
			paths = append(paths, []string{shallowRoot, id})
		}

		impacts = append(impacts, Impact{
			SymbolID:       id,
			Depth:          depth,
			Classification: class,
			Paths:          paths,
		})
	}

	return Result{Roots: roots, Impacts: impacts}
}

// reconstructPath walks parent links from id back to root (parent[root] ==
// ""), returning [root, ..., id].
func reconstructPath(parent map[string]string, id, rootID string) []string {
	rev := []string{id}
	cur := id
	for cur != rootID {
		cur = parent[cur]
		rev = append(rev, cur)
	}
	out := make([]string, len(rev))
	for i, v := range rev {
		out[len(rev)-1-i] = v
	}
	return out
}
