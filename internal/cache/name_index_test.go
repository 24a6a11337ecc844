package cache

import (
	"sort"
	"testing"

	"github.com/dhivijit/ripplecheck/internal/symbol"
)

func TestNameIndexRebuildAndLookup(t *testing.T) {
	ni, err := OpenNameIndex()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer ni.Close()

	symbols := map[string]*symbol.Symbol{
		"/repo/a.ts#getUserName": {ID: "/repo/a.ts#getUserName", FilePath: "/repo/a.ts", QualifiedName: "getUserName"},
		"/repo/b.ts#getUserAge":  {ID: "/repo/b.ts#getUserAge", FilePath: "/repo/b.ts", QualifiedName: "getUserAge"},
	}
	if err := ni.Rebuild(symbols); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	ids, err := ni.LookupByToken("user")
	if err != nil {
		t.Fatalf("lookup by token: %v", err)
	}
	sort.Strings(ids)
	want := []string{"/repo/a.ts#getUserName", "/repo/b.ts#getUserAge"}
	sort.Strings(want)
	if len(ids) != len(want) {
		t.Fatalf("got %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("got %v, want %v", ids, want)
		}
	}

	fileIDs, err := ni.LookupByFile("/repo/a.ts")
	if err != nil {
		t.Fatalf("lookup by file: %v", err)
	}
	if len(fileIDs) != 1 || fileIDs[0] != "/repo/a.ts#getUserName" {
		t.Fatalf("unexpected file lookup result: %v", fileIDs)
	}
}

func TestNameIndexRebuildClearsPriorState(t *testing.T) {
	ni, err := OpenNameIndex()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer ni.Close()

	if err := ni.Rebuild(map[string]*symbol.Symbol{
		"/repo/a.ts#foo": {ID: "/repo/a.ts#foo", FilePath: "/repo/a.ts", QualifiedName: "foo"},
	}); err != nil {
		t.Fatalf("first rebuild: %v", err)
	}
	if err := ni.Rebuild(map[string]*symbol.Symbol{
		"/repo/b.ts#bar": {ID: "/repo/b.ts#bar", FilePath: "/repo/b.ts", QualifiedName: "bar"},
	}); err != nil {
		t.Fatalf("second rebuild: %v", err)
	}

	ids, err := ni.LookupByToken("foo")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected the first rebuild's data to be cleared, got %v", ids)
	}
}
