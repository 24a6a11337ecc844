package tsparse

import "testing"

func TestIsSupported(t *testing.T) {
	cases := map[string]bool{
		"foo.ts":      true,
		"foo.tsx":     true,
		"foo.d.ts":    true,
		"foo.TS":      true,
		"foo.js":      false,
		"foo.go":      false,
		"noext":       false,
	}
	for path, want := range cases {
		if got := IsSupported(path); got != want {
			t.Errorf("IsSupported(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestParseRejectsUnsupportedExtension(t *testing.T) {
	if _, err := Parse("foo.js", []byte("const x = 1;")); err == nil {
		t.Fatal("expected an error parsing an unsupported file extension")
	}
}

func TestParseProducesRootNode(t *testing.T) {
	pf, err := Parse("/repo/a.ts", []byte("const x: number = 1;"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	defer pf.Close()

	root := pf.Root()
	if root == nil {
		t.Fatal("expected a non-nil root node")
	}
	if root.ChildCount() == 0 {
		t.Fatal("expected the root node to have children")
	}
}

func TestParseTSX(t *testing.T) {
	pf, err := Parse("/repo/a.tsx", []byte("const el = <div />;"))
	if err != nil {
		t.Fatalf("parse tsx: %v", err)
	}
	defer pf.Close()
	if !pf.TSX {
		t.Fatal("expected TSX flag to be set for a .tsx file")
	}
}

func TestTextReturnsNodeSpan(t *testing.T) {
	src := []byte("const x = 1;")
	pf, err := Parse("/repo/a.ts", src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	defer pf.Close()

	root := pf.Root()
	got := Text(root, src)
	if got != "const x = 1;" {
		t.Fatalf("got %q, want full source text", got)
	}
}

func TestTextHandlesNilNode(t *testing.T) {
	if got := Text(nil, []byte("anything")); got != "" {
		t.Fatalf("expected empty string for nil node, got %q", got)
	}
}

func TestFirstChildOfKindFindsMatch(t *testing.T) {
	src := []byte("function foo() {}")
	pf, err := Parse("/repo/a.ts", src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	defer pf.Close()

	root := pf.Root()
	fn := FirstChildOfKind(root, "function_declaration")
	if fn == nil {
		t.Fatal("expected to find a function_declaration as a descendant chain from root")
	}
}

func TestFirstChildOfKindReturnsNilWhenAbsent(t *testing.T) {
	src := []byte("const x = 1;")
	pf, err := Parse("/repo/a.ts", src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	defer pf.Close()

	root := pf.Root()
	if got := FirstChildOfKind(root, "function_declaration"); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestLineColIsOneBased(t *testing.T) {
	src := []byte("const x = 1;\nconst y = 2;")
	pf, err := Parse("/repo/a.ts", src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	defer pf.Close()

	line, col := LineCol(pf.Root().StartPosition())
	if line != 1 || col != 1 {
		t.Fatalf("expected root to start at line 1, col 1, got line=%d col=%d", line, col)
	}
}

func TestCloseIsSafeOnNil(t *testing.T) {
	var pf *ParsedFile
	pf.Close() // must not panic
}
