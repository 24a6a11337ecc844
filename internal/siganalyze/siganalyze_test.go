package siganalyze

import "testing"

func TestDiffPartitionsAddedRippleSafeRemoved(t *testing.T) {
	snapshot := Snapshot{
		"f#a": "hash1",
		"f#b": "hash2",
		"f#c": "hash3",
	}
	current := []CurrentSymbol{
		{ID: "f#a", Hash: "hash1"},       // unchanged -> safe
		{ID: "f#b", Hash: "hash2-new"},   // changed -> ripple
		{ID: "f#d", Hash: "hash4"},       // new -> added
		// f#c absent -> removed
	}

	report := Diff(snapshot, current)

	if len(report.Safe) != 1 || report.Safe[0] != "f#a" {
		t.Fatalf("expected safe=[f#a], got %v", report.Safe)
	}
	if len(report.Ripple) != 1 || report.Ripple[0] != "f#b" {
		t.Fatalf("expected ripple=[f#b], got %v", report.Ripple)
	}
	if len(report.Added) != 1 || report.Added[0] != "f#d" {
		t.Fatalf("expected added=[f#d], got %v", report.Added)
	}
	if len(report.Removed) != 1 || report.Removed[0] != "f#c" {
		t.Fatalf("expected removed=[f#c], got %v", report.Removed)
	}
}

type fakeGraphKeys struct {
	keys map[string]struct{}
}

func (f fakeGraphKeys) AllKeys() map[string]struct{} { return f.keys }

func TestGhostsFindsReferencedButUnindexed(t *testing.T) {
	g := fakeGraphKeys{keys: map[string]struct{}{
		"f#a": {}, "f#b": {}, "f#ghost": {},
	}}
	indexIDs := map[string]struct{}{"f#a": {}, "f#b": {}}

	ghosts := Ghosts(g, indexIDs)
	if len(ghosts) != 1 || ghosts[0] != "f#ghost" {
		t.Fatalf("expected ghosts=[f#ghost], got %v", ghosts)
	}
}
