package cache

import (
	"testing"

	"github.com/dhivijit/ripplecheck/internal/graph"
	"github.com/dhivijit/ripplecheck/internal/symbol"
)

func TestContentHashDeterministic(t *testing.T) {
	a := ContentHash([]byte("hello"))
	b := ContentHash([]byte("hello"))
	if a != b {
		t.Fatalf("identical content must hash identically: %q vs %q", a, b)
	}
	c := ContentHash([]byte("world"))
	if a == c {
		t.Fatal("different content should (overwhelmingly likely) hash differently")
	}
}

func TestProjectHashIsSHA256Hex(t *testing.T) {
	h := ProjectHash([]byte(`{"compilerOptions":{}}`))
	if len(h) != 64 {
		t.Fatalf("expected a 64-hex-char sha256 digest, got %d chars: %q", len(h), h)
	}
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, "")

	idx := map[string]*symbol.Symbol{
		"/repo/a.ts#foo": {ID: "/repo/a.ts#foo", FilePath: "/repo/a.ts", QualifiedName: "foo", Kind: symbol.KindFunction},
	}
	g := graph.New()
	g.AddEdge("/repo/a.ts#foo", "/repo/a.ts#bar")
	hashes := map[string]string{"/repo/a.ts": "deadbeef"}

	if err := store.Save(idx, g, hashes, "projecthash123"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !store.Exists() {
		t.Fatal("expected all four artifacts to exist after Save")
	}

	loadedIdx, loadedGraph, loadedHashes, meta, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loadedIdx) != 1 || loadedIdx["/repo/a.ts#foo"].QualifiedName != "foo" {
		t.Fatalf("unexpected loaded index: %+v", loadedIdx)
	}
	if deps := loadedGraph.Dependencies("/repo/a.ts#foo"); len(deps) != 1 || deps[0] != "/repo/a.ts#bar" {
		t.Fatalf("unexpected loaded graph edges: %v", deps)
	}
	if loadedHashes["/repo/a.ts"] != "deadbeef" {
		t.Fatalf("unexpected loaded hashes: %+v", loadedHashes)
	}
	if meta.ProjectHash != "projecthash123" {
		t.Fatalf("unexpected project hash: %q", meta.ProjectHash)
	}
}

func TestStoreExistsFalseWhenMissing(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, "")
	if store.Exists() {
		t.Fatal("expected Exists to be false for an empty directory")
	}
}

func TestStoreLoadErrorsOnMissingArtifacts(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, "")
	if _, _, _, _, err := store.Load(); err == nil {
		t.Fatal("expected an error loading from an empty cache directory")
	}
}
