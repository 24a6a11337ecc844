package watch

import (
	"testing"

	"github.com/fsnotify/fsnotify"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		op   fsnotify.Op
		want string
	}{
		{fsnotify.Create, "create"},
		{fsnotify.Write, "write"},
		{fsnotify.Remove, "remove"},
		{fsnotify.Rename, "rename"},
		{fsnotify.Chmod, ""},
	}
	for _, c := range cases {
		if got := classify(c.op); got != c.want {
			t.Errorf("classify(%v) = %q, want %q", c.op, got, c.want)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.DebounceDuration <= 0 {
		t.Fatal("expected a positive default debounce duration")
	}
	if cfg.BatchSize <= 0 {
		t.Fatal("expected a positive default batch size")
	}
}
