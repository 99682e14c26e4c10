// Package namematch resolves a user-typed, possibly-partial name against a
// list of candidate names, for interactive name-resolution spots such as
// onboarding-discovered skills and tool-side MCP import candidates.
package namematch

import "github.com/sahilm/fuzzy"

// stringSource adapts a plain []string to fuzzy.Source.
type stringSource []string

func (s stringSource) String(i int) string { return s[i] }
func (s stringSource) Len() int            { return len(s) }

// Resolve returns the best fuzzy match for query among candidates. ok is
// false if candidates is empty or nothing matches.
func Resolve(query string, candidates []string) (name string, ok bool) {
	ranked := RankMatches(query, candidates)
	if len(ranked) == 0 {
		return "", false
	}
	return ranked[0], true
}

// RankMatches returns every candidate whose name matches query, in
// descending match-quality order, for callers presenting a disambiguation
// list instead of auto-picking the top hit.
func RankMatches(query string, candidates []string) []string {
	if len(candidates) == 0 {
		return nil
	}
	matches := fuzzy.FindFrom(query, stringSource(candidates))
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = candidates[m.Index]
	}
	return out
}
