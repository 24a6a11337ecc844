package intent

import (
	"testing"

	"github.com/dhivijit/ripplecheck/internal/blast"
	"github.com/dhivijit/ripplecheck/internal/graph"
	"github.com/dhivijit/ripplecheck/internal/symbol"
)

func TestDomainKeywordsStripsStopwords(t *testing.T) {
	got := domainKeywords("Please rename the getUserName function to fetchUserName")
	for _, w := range got {
		if _, isMeta := metaWords[w]; isMeta {
			t.Fatalf("expected stopword %q to be stripped, got %v", w, got)
		}
	}
	found := false
	for _, w := range got {
		if w == "getusername" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected 'getusername' to survive stopword stripping, got %v", got)
	}
}

func TestSymbolHintScoreExactMatch(t *testing.T) {
	if s := symbolHintScore("foo", "foo"); s != 1.0 {
		t.Fatalf("expected exact match score of 1.0, got %v", s)
	}
}

func TestSymbolHintScoreNoOverlapIsZero(t *testing.T) {
	if s := symbolHintScore("completelyUnrelated", "zzz"); s != 0 {
		t.Fatalf("expected zero score for unrelated strings, got %v", s)
	}
}

func TestResolverPassAHighPrecisionHint(t *testing.T) {
	syms := []*symbol.Symbol{
		{ID: "/repo/a.ts#getUserName", FilePath: "/repo/a.ts", QualifiedName: "getUserName", Exported: true},
		{ID: "/repo/a.ts#unrelatedThing", FilePath: "/repo/a.ts", QualifiedName: "unrelatedThing", Exported: true},
	}
	r := NewResolver(syms)
	resolved, relevant := r.Resolve(Descriptor{
		Prompt:      "rename getUserName",
		ChangeType:  ChangeModify,
		SymbolHints: []string{"getUserName"},
	})
	if !relevant {
		t.Fatal("expected the descriptor to be relevant")
	}
	found := false
	for _, c := range resolved {
		if c.sym.ID == "/repo/a.ts#getUserName" {
			found = true
		}
		if c.sym.ID == "/repo/a.ts#unrelatedThing" {
			t.Fatal("expected the unrelated symbol to not be resolved via passA")
		}
	}
	if !found {
		t.Fatalf("expected getUserName to be resolved, got %+v", resolved)
	}
}

func TestResolverFallsBackToPassBWhenNoHints(t *testing.T) {
	syms := []*symbol.Symbol{
		{ID: "/repo/a.ts#parseConfig", FilePath: "/repo/a.ts", QualifiedName: "parseConfig", Exported: true},
	}
	r := NewResolver(syms)
	resolved, relevant := r.Resolve(Descriptor{
		Prompt:     "update the config parser",
		ChangeType: ChangeModify,
	})
	if !relevant {
		t.Fatal("expected the prompt to be relevant via passB keyword scoring")
	}
	if len(resolved) == 0 {
		t.Fatal("expected at least one passB candidate")
	}
}

func TestResolverNotRelevantWhenNoSignal(t *testing.T) {
	syms := []*symbol.Symbol{
		{ID: "/repo/a.ts#parseConfig", FilePath: "/repo/a.ts", QualifiedName: "parseConfig"},
	}
	r := NewResolver(syms)
	_, relevant := r.Resolve(Descriptor{Prompt: "xyz totally unrelated gibberish qqq"})
	if relevant {
		t.Fatal("expected an unrelated prompt to be classified not relevant")
	}
}

func TestBandForThresholds(t *testing.T) {
	if bandFor(0.9) != ConfidenceHigh {
		t.Fatal("expected 0.9 to be high confidence")
	}
	if bandFor(0.5) != ConfidenceMedium {
		t.Fatal("expected 0.5 to be medium confidence")
	}
	if bandFor(0.1) != ConfidenceLow {
		t.Fatal("expected 0.1 to be low confidence")
	}
}

func TestDemoteStepsDownOneTier(t *testing.T) {
	if demote(ConfidenceHigh) != ConfidenceMedium {
		t.Fatal("expected high to demote to medium")
	}
	if demote(ConfidenceMedium) != ConfidenceLow {
		t.Fatal("expected medium to demote to low")
	}
	if demote(ConfidenceLow) != ConfidenceLow {
		t.Fatal("expected low to stay low")
	}
}

func TestBuildVirtualDiffDeleteIntentRemovesFromShadowIndex(t *testing.T) {
	idx := map[string]*symbol.Symbol{
		"/repo/a.ts#foo": {ID: "/repo/a.ts#foo", FilePath: "/repo/a.ts", QualifiedName: "foo"},
	}
	g := graph.New()
	resolved := []resolvedCandidate{{sym: idx["/repo/a.ts#foo"], score: 0.9, pass: "A"}}

	roots, vd := BuildVirtualDiff(idx, g, Descriptor{ChangeType: ChangeDelete}, resolved)

	if len(roots) != 1 || roots[0].Reason != "deleted" {
		t.Fatalf("expected one deleted root, got %+v", roots)
	}
	if _, ok := vd.Index["/repo/a.ts#foo"]; ok {
		t.Fatal("expected the deleted symbol to be removed from the shadow index")
	}
	if _, ok := idx["/repo/a.ts#foo"]; !ok {
		t.Fatal("BuildVirtualDiff must not mutate the caller's live index")
	}
}

func TestBuildVirtualDiffAddIntentInsertsPhantom(t *testing.T) {
	idx := map[string]*symbol.Symbol{}
	g := graph.New()

	_, vd := BuildVirtualDiff(idx, g, Descriptor{ChangeType: ChangeAdd, SymbolHints: []string{"newThing"}}, nil)

	phantomID := symbol.PhantomID("newThing")
	sym, ok := vd.Index[phantomID]
	if !ok {
		t.Fatalf("expected a phantom symbol for 'newThing', got index %+v", vd.Index)
	}
	if !symbol.IsPhantom(sym.ID) {
		t.Fatal("expected the inserted symbol's id to be recognized as phantom")
	}
}

func TestDegradeConfidenceDemotesDeepPaths(t *testing.T) {
	result := blast.Result{
		Impacts: []blast.Impact{
			{SymbolID: "direct", Paths: [][]string{{"root", "direct"}}},
			{SymbolID: "indirect", Paths: [][]string{{"root", "mid", "indirect"}}},
		},
	}
	rootConf := map[string]Confidence{"root": ConfidenceHigh}

	out := DegradeConfidence(result, rootConf)
	byID := make(map[string]Confidence)
	for _, ic := range out {
		byID[ic.SymbolID] = ic.Confidence
	}
	if byID["direct"] != ConfidenceHigh {
		t.Fatalf("expected direct impact to keep root confidence, got %v", byID["direct"])
	}
	if byID["indirect"] != ConfidenceMedium {
		t.Fatalf("expected indirect impact (depth>=2) to be demoted one tier, got %v", byID["indirect"])
	}
}

func TestDeletePostFilterExcludesSameFileSymbols(t *testing.T) {
	idx := map[string]*symbol.Symbol{
		"/repo/a.ts#bar": {ID: "/repo/a.ts#bar", FilePath: "/repo/a.ts"},
		"/repo/b.ts#baz": {ID: "/repo/b.ts#baz", FilePath: "/repo/b.ts"},
	}
	result := blast.Result{
		Impacts: []blast.Impact{
			{SymbolID: "/repo/a.ts#bar"},
			{SymbolID: "/repo/b.ts#baz"},
		},
	}
	rootFiles := map[string]string{"/repo/a.ts#foo": "/repo/a.ts"}
	deleteRootIDs := map[string]struct{}{"/repo/a.ts#foo": {}}

	filtered := DeletePostFilter(result, rootFiles, idx, deleteRootIDs)
	if len(filtered.Impacts) != 1 || filtered.Impacts[0].SymbolID != "/repo/b.ts#baz" {
		t.Fatalf("expected only the cross-file impact to survive, got %+v", filtered.Impacts)
	}
}
