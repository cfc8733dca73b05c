package ranking

import (
	"strings"
	"testing"
	"time"

	"github.com/frankwiles/gg/internal/model"
)

func repoCandidate(fullName string) model.Candidate {
	name := fullName
	if idx := strings.LastIndex(fullName, "/"); idx >= 0 {
		name = fullName[idx+1:]
	}

	return model.Candidate{Kind: model.TargetRepo, FullName: fullName, Name: name}
}

func eventsFor(target string, count int, age time.Duration, now time.Time) []model.UsageEvent {
	out := make([]model.UsageEvent, 0, count)

	for i := 0; i < count; i++ {
		out = append(out, model.UsageEvent{
			Target:     target,
			TargetKind: model.TargetRepo,
			Action:     "overview",
			CreatedAt:  now.Add(-age),
		})
	}

	return out
}

func rankedNames(matches []Match) []string {
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Candidate.FullName)
	}

	return out
}

func TestMatchScore_Gate(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		text    string
		wantOK  bool
	}{
		{"exact", "gg", "gg", true},
		{"subsequence with gaps", "fwg", "frankwiles/gg", true},
		{"case insensitive", "GG", "frankwiles/gg", true},
		{"missing character", "ggx", "frankwiles/gg", false},
		{"out of order", "gf", "frankwiles/gg", false},
		{"empty query matches", "", "anything", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := matchScore(tt.query, tt.text); ok != tt.wantOK {
				t.Errorf("matchScore(%q, %q) ok = %v, want %v", tt.query, tt.text, ok, tt.wantOK)
			}
		})
	}
}

func TestMatchScore_Bonuses(t *testing.T) {
	boundary, _ := matchScore("g", "frankwiles/gg")
	interior, _ := matchScore("g", "frankwiles/blog")

	if boundary <= interior {
		t.Errorf("word-boundary match (%f) should outscore interior match (%f)", boundary, interior)
	}

	contiguous, _ := matchScore("gg", "frankwiles/gg")
	scattered, _ := matchScore("gg", "gale/wing")

	if contiguous <= scattered {
		t.Errorf("contiguous run (%f) should outscore scattered match (%f)", contiguous, scattered)
	}

	exact, _ := matchScore("GG", "frankwiles/GG")
	folded, _ := matchScore("GG", "frankwiles/gg")

	if exact <= folded {
		t.Errorf("case-exact match (%f) should outscore folded match (%f)", exact, folded)
	}

	tight, _ := matchScore("fg", "fg")
	gappy, _ := matchScore("fg", "faraway-thing")

	if tight <= gappy {
		t.Errorf("tight match (%f) should outscore gappy match (%f)", tight, gappy)
	}
}

func TestRank_NoMatchYieldsEmpty(t *testing.T) {
	candidates := []model.Candidate{
		repoCandidate("frankwiles/gg"),
		repoCandidate("frankwiles/blog"),
	}

	matches := Rank("ggx", candidates, nil, time.Now())

	if len(matches) != 0 {
		t.Errorf("Rank(%q) = %v, want empty", "ggx", rankedNames(matches))
	}
}

func TestRank_UsageNeverResurrectsNonMatch(t *testing.T) {
	now := time.Now()
	candidates := []model.Candidate{repoCandidate("frankwiles/blog")}
	events := eventsFor("frankwiles/blog", 50, time.Hour, now)

	if matches := Rank("zz", candidates, events, now); len(matches) != 0 {
		t.Errorf("heavily used non-matching candidate appeared in output: %v", rankedNames(matches))
	}
}

func TestRank_UsageBreaksTies(t *testing.T) {
	now := time.Now()
	candidates := []model.Candidate{
		repoCandidate("frankwiles/blog"),
		repoCandidate("frankwiles/gg"),
	}

	// 5 events within the last day for gg, none for blog
	events := eventsFor("frankwiles/gg", 5, 6*time.Hour, now)

	matches := Rank("g", candidates, events, now)

	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}

	if matches[0].Candidate.FullName != "frankwiles/gg" {
		t.Errorf("expected frankwiles/gg first, got %v", rankedNames(matches))
	}
}

func TestRank_UsageMonotonicWithinTie(t *testing.T) {
	now := time.Now()

	// Both match "g" at a word boundary with identical scores
	candidates := []model.Candidate{
		repoCandidate("frankwiles/gg"),
		repoCandidate("frankwiles/gx"),
	}

	events := eventsFor("frankwiles/gx", 3, time.Hour, now)

	matches := Rank("g", candidates, events, now)

	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}

	if matches[0].Candidate.FullName != "frankwiles/gx" {
		t.Errorf("used candidate should rank first among equals, got %v", rankedNames(matches))
	}

	if matches[0].Relevance != matches[1].Relevance {
		t.Fatalf("test candidates no longer have equal relevance: %f vs %f",
			matches[0].Relevance, matches[1].Relevance)
	}
}

func TestRank_UsageDoesNotOverrideBetterMatch(t *testing.T) {
	now := time.Now()
	candidates := []model.Candidate{
		repoCandidate("frankwiles/gg"),   // boundary match for "g"
		repoCandidate("frankwiles/blog"), // interior match for "g"
	}

	// blog has a mountain of recent usage
	events := eventsFor("frankwiles/blog", 100, time.Hour, now)

	matches := Rank("g", candidates, events, now)

	if matches[0].Candidate.FullName != "frankwiles/gg" {
		t.Errorf("usage overrode a clearly better textual match: %v", rankedNames(matches))
	}
}

func TestRank_AlphabeticalTieBreak(t *testing.T) {
	candidates := []model.Candidate{
		repoCandidate("acme/widget-b"),
		repoCandidate("acme/widget-a"),
		repoCandidate("acme/widget-c"),
	}

	matches := Rank("widget", candidates, nil, time.Now())

	want := []string{"acme/widget-a", "acme/widget-b", "acme/widget-c"}
	got := rankedNames(matches)

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tie-break order = %v, want %v", got, want)
		}
	}
}

func TestRank_EmptyQueryOrdersByUsage(t *testing.T) {
	now := time.Now()
	candidates := []model.Candidate{
		repoCandidate("acme/alpha"),
		repoCandidate("acme/beta"),
	}

	events := eventsFor("acme/beta", 2, time.Hour, now)

	matches := Rank("", candidates, events, now)

	if len(matches) != 2 {
		t.Fatalf("empty query should keep all candidates, got %d", len(matches))
	}

	if matches[0].Candidate.FullName != "acme/beta" {
		t.Errorf("expected usage ordering on empty query, got %v", rankedNames(matches))
	}
}

func TestUsageDecay(t *testing.T) {
	now := time.Now()

	recent := usageByTarget(eventsFor("a/b", 1, time.Hour, now), now)["a/b"]
	stale := usageByTarget(eventsFor("a/b", 1, 30*24*time.Hour, now), now)["a/b"]

	if recent <= stale {
		t.Errorf("recent event weight (%f) should exceed stale weight (%f)", recent, stale)
	}

	// a single recent use outranks a pile of month-old ones
	pile := usageByTarget(eventsFor("a/b", 5, 30*24*time.Hour, now), now)["a/b"]
	if recent <= pile {
		t.Errorf("one recent use (%f) should outweigh five month-old uses (%f)", recent, pile)
	}
}
