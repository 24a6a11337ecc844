package updater

import (
	"context"
	"testing"

	"github.com/dhivijit/ripplecheck/internal/graph"
	"github.com/dhivijit/ripplecheck/internal/symbol"
)

func TestHandleFileCreatedIndexesSymbols(t *testing.T) {
	o := New()
	report := o.HandleFileCreated("/repo/a.ts", []byte(`export function foo() {}`))
	if report.Err != nil {
		t.Fatalf("unexpected error: %v", report.Err)
	}
	if len(report.Added) != 1 {
		t.Fatalf("expected one added symbol, got %+v", report.Added)
	}
	if _, ok := o.Lookup("/repo/a.ts#foo"); !ok {
		t.Fatal("expected foo to be indexed")
	}
}

func TestHandleFileChangedRippleOnSignatureChange(t *testing.T) {
	o := New()
	o.HandleFileChanged("/repo/a.ts", []byte(`export function foo(): number { return 1; }`))

	report := o.HandleFileChanged("/repo/a.ts", []byte(`export function foo(): string { return "x"; }`))
	if report.Err != nil {
		t.Fatalf("unexpected error: %v", report.Err)
	}
	found := false
	for _, id := range report.Ripple {
		if id == "/repo/a.ts#foo" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected foo's signature change to be classified as ripple, got %+v", report)
	}
}

func TestHandleFileChangedSafeWhenSignatureUnchanged(t *testing.T) {
	o := New()
	o.HandleFileChanged("/repo/a.ts", []byte(`export function foo(): number { return 1; }`))
	report := o.HandleFileChanged("/repo/a.ts", []byte(`export function foo(): number { return 2; }`))
	if report.Err != nil {
		t.Fatalf("unexpected error: %v", report.Err)
	}
	found := false
	for _, id := range report.Safe {
		if id == "/repo/a.ts#foo" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected foo to be safe when only the body changed, got %+v", report)
	}
}

func TestHandleFileDeletedEvictsSymbols(t *testing.T) {
	o := New()
	o.HandleFileCreated("/repo/a.ts", []byte(`export function foo() {}`))

	report := o.HandleFileDeleted("/repo/a.ts")
	if len(report.Removed) != 1 || report.Removed[0] != "/repo/a.ts#foo" {
		t.Fatalf("expected foo to be reported removed, got %+v", report)
	}
	if _, ok := o.Lookup("/repo/a.ts#foo"); ok {
		t.Fatal("expected foo to no longer be indexed after deletion")
	}
}

func TestHandleFileChangedParseFailureEvictsAndReportsRemoved(t *testing.T) {
	// foo is indexed under a path whose extension the parser rejects, so the
	// reparse fails after foo has been evicted.
	idx := map[string]*symbol.Symbol{
		"/repo/a.bogus#foo": {ID: "/repo/a.bogus#foo", FilePath: "/repo/a.bogus", QualifiedName: "foo"},
	}
	o := NewShadow(idx, graph.New())

	report := o.HandleFileChanged("/repo/a.bogus", []byte(`whatever`))
	if report.Err == nil {
		t.Fatal("expected a parse error for an unsupported extension")
	}
	if len(report.Removed) != 1 || report.Removed[0] != "/repo/a.bogus#foo" {
		t.Fatalf("expected foo to be reported removed, got %+v", report)
	}
	if _, ok := o.Lookup("/repo/a.bogus#foo"); ok {
		t.Fatal("expected foo to stay evicted after the failed reparse")
	}
}

func TestHandleFileChangedRecordsReferenceEdge(t *testing.T) {
	o := New()
	o.HandleFileCreated("/repo/a.ts", []byte(`
export function callee() {}
export function caller() { callee(); }
`))

	deps := o.Graph().Dependencies("/repo/a.ts#caller")
	found := false
	for _, d := range deps {
		if d == "/repo/a.ts#callee" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an edge caller->callee, got %v", deps)
	}
}

func TestFullRebuildIndexesAllFilesAndYields(t *testing.T) {
	o := New()
	o.batchYieldSize = 1

	files := []string{"/repo/a.ts", "/repo/b.ts"}
	contents := map[string][]byte{
		"/repo/a.ts": []byte(`export function callee() {}`),
		"/repo/b.ts": []byte(`import { callee } from "./a"; export function caller() { callee(); }`),
	}
	read := func(path string) ([]byte, error) { return contents[path], nil }

	yieldCount := 0
	err := o.FullRebuild(context.Background(), files, read, func() { yieldCount++ })
	if err != nil {
		t.Fatalf("full rebuild: %v", err)
	}
	if yieldCount == 0 {
		t.Fatal("expected at least one yield callback invocation with batchYieldSize=1")
	}

	if _, ok := o.Lookup("/repo/a.ts#callee"); !ok {
		t.Fatal("expected callee to be indexed after full rebuild")
	}
	if _, ok := o.Lookup("/repo/b.ts#caller"); !ok {
		t.Fatal("expected caller to be indexed after full rebuild")
	}
}

func TestFullRebuildClearsPriorState(t *testing.T) {
	o := New()
	o.HandleFileCreated("/repo/stale.ts", []byte(`export function stale() {}`))

	files := []string{"/repo/a.ts"}
	contents := map[string][]byte{"/repo/a.ts": []byte(`export function fresh() {}`)}
	read := func(path string) ([]byte, error) { return contents[path], nil }

	if err := o.FullRebuild(context.Background(), files, read, nil); err != nil {
		t.Fatalf("full rebuild: %v", err)
	}
	if _, ok := o.Lookup("/repo/stale.ts#stale"); ok {
		t.Fatal("expected pre-rebuild symbols to be cleared")
	}
	if _, ok := o.Lookup("/repo/a.ts#fresh"); !ok {
		t.Fatal("expected the rebuilt file's symbol to be indexed")
	}
}

func TestNewShadowWrapsProvidedState(t *testing.T) {
	base := New()
	base.HandleFileCreated("/repo/a.ts", []byte(`export function foo() {}`))

	idx := base.CloneIndex()
	g := base.Graph().DeepClone()

	shadow := NewShadow(idx, g)
	if _, ok := shadow.Lookup("/repo/a.ts#foo"); !ok {
		t.Fatal("expected shadow orchestrator to see the provided index")
	}

	shadow.HandleFileChanged("/repo/a.ts", []byte(`export function bar() {}`))
	if _, ok := base.Lookup("/repo/a.ts#foo"); !ok {
		t.Fatal("mutating the shadow orchestrator must not affect the original orchestrator's index")
	}
}
