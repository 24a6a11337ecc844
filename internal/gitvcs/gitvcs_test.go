package gitvcs

import "testing"

func TestSplitNUL(t *testing.T) {
	got := splitNUL([]byte("A\x00foo.ts\x00M\x00bar.ts\x00"))
	want := []string{"A", "foo.ts", "M", "bar.ts"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestSplitNULEmpty(t *testing.T) {
	if got := splitNUL([]byte{}); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}

func TestParseHunkHeaderWithCount(t *testing.T) {
	start, count, ok := parseHunkHeader("@@ -10,3 +12,5 @@ function foo() {")
	if !ok || start != 12 || count != 5 {
		t.Fatalf("got start=%d count=%d ok=%v, want start=12 count=5 ok=true", start, count, ok)
	}
}

func TestParseHunkHeaderDefaultCountOfOne(t *testing.T) {
	start, count, ok := parseHunkHeader("@@ -10 +12 @@")
	if !ok || start != 12 || count != 1 {
		t.Fatalf("got start=%d count=%d ok=%v, want start=12 count=1 ok=true", start, count, ok)
	}
}

func TestParseHunkHeaderPureDeletion(t *testing.T) {
	start, count, ok := parseHunkHeader("@@ -10,3 +12,0 @@")
	if !ok || count != 0 {
		t.Fatalf("got start=%d count=%d ok=%v, want count=0", start, count, ok)
	}
}

func TestParseHunkHeaderMalformed(t *testing.T) {
	if _, _, ok := parseHunkHeader("not a hunk header"); ok {
		t.Fatal("expected malformed header to report ok=false")
	}
}
