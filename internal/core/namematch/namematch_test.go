package namematch

import "testing"

func TestResolvePicksBestMatch(t *testing.T) {
	candidates := []string{"go-review", "python-lint", "go-release-notes"}
	got, ok := Resolve("gorev", candidates)
	if !ok || got != "go-review" {
		t.Fatalf("Resolve = %q, %v", got, ok)
	}
}

func TestResolveNoCandidates(t *testing.T) {
	if _, ok := Resolve("anything", nil); ok {
		t.Fatal("expected ok=false with no candidates")
	}
}

func TestRankMatchesOrdersByQuality(t *testing.T) {
	candidates := []string{"docs-filesystem", "docs", "other"}
	ranked := RankMatches("docs", candidates)
	if len(ranked) < 2 || ranked[0] != "docs" {
		t.Fatalf("ranked = %v, want exact match first", ranked)
	}
}
