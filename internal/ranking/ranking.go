// Package ranking orders search candidates by combining subsequence fuzzy
// relevance with recency/frequency-weighted usage history. It is a pure
// per-candidate scan recomputed on every keystroke; no index is kept.
package ranking

import (
	"math"
	"sort"
	"time"
	"unicode"

	"github.com/frankwiles/gg/internal/model"
)

const (
	// usageHalfLife controls how fast usage weight decays: an event
	// contributes 0.5^(age/usageHalfLife). Tunable.
	usageHalfLife = 72 * time.Hour

	// nearTieBand is the relative relevance window inside which usage is
	// allowed to reorder candidates. Outside it, relevance wins outright.
	nearTieBand = 0.10

	matchBase         = 1.0
	contiguousBonus   = 4.0
	wordBoundaryBonus = 8.0
	caseExactBonus    = 1.0
	gapPenalty        = 0.5
)

// Match is one ranked candidate with its score components.
type Match struct {
	Candidate model.Candidate
	Relevance float64
	Usage     float64
}

// Rank scores every candidate against query and returns the ordered result.
// Candidates whose text does not contain the query as a case-insensitive
// subsequence are excluded; usage can never resurrect them. An empty query
// keeps everything and orders by usage alone.
func Rank(query string, candidates []model.Candidate, events []model.UsageEvent, now time.Time) []Match {
	usage := usageByTarget(events, now)

	matches := make([]Match, 0, len(candidates))

	for _, c := range candidates {
		rel, ok := relevance(query, c)
		if !ok {
			continue
		}

		matches = append(matches, Match{
			Candidate: c,
			Relevance: rel,
			Usage:     usage[c.FullName],
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Relevance != matches[j].Relevance {
			return matches[i].Relevance > matches[j].Relevance
		}

		return matches[i].Candidate.FullName < matches[j].Candidate.FullName
	})

	reorderNearTies(matches)

	return matches
}

// relevance returns the textual sub-score for the candidate, taking the
// better of its short name and full name.
func relevance(query string, c model.Candidate) (float64, bool) {
	full, okFull := matchScore(query, c.FullName)
	short, okShort := matchScore(query, c.Name)

	switch {
	case okFull && okShort:
		return math.Max(full, short), true
	case okFull:
		return full, true
	case okShort:
		return short, true
	default:
		return 0, false
	}
}

// matchScore runs a single greedy scan matching query as a subsequence of
// text. Contiguous runs, word-boundary starts (after '/', '-', '_' or the
// beginning of the string) and case-exact hits score up; characters skipped
// between matched runs score down.
func matchScore(query, text string) (float64, bool) {
	q := []rune(query)
	t := []rune(text)

	if len(q) == 0 {
		return 0, true
	}

	var (
		score   float64
		qi      int
		lastHit = -1
		gaps    int
	)

	for ti := 0; ti < len(t) && qi < len(q); ti++ {
		if unicode.ToLower(t[ti]) != unicode.ToLower(q[qi]) {
			if lastHit >= 0 {
				gaps++
			}

			continue
		}

		score += matchBase

		if lastHit == ti-1 {
			score += contiguousBonus
		}

		if ti == 0 || isBoundary(t[ti-1]) {
			score += wordBoundaryBonus
		}

		if t[ti] == q[qi] {
			score += caseExactBonus
		}

		lastHit = ti
		qi++
	}

	if qi < len(q) {
		return 0, false
	}

	score -= gapPenalty * float64(gaps)

	return score, true
}

func isBoundary(r rune) bool {
	return r == '/' || r == '-' || r == '_'
}

// usageByTarget collapses the event log into one decayed weight per target.
// Every action kind counts toward the same target total.
func usageByTarget(events []model.UsageEvent, now time.Time) map[string]float64 {
	if len(events) == 0 {
		return nil
	}

	out := make(map[string]float64)

	for _, ev := range events {
		age := now.Sub(ev.CreatedAt)
		if age < 0 {
			age = 0
		}

		out[ev.Target] += math.Pow(0.5, age.Hours()/usageHalfLife.Hours())
	}

	return out
}

// reorderNearTies walks the relevance-sorted slice, groups adjacent
// candidates whose relevance sits within nearTieBand of the group head,
// and reorders each group by usage. Relevance outside the band is never
// overridden by usage.
func reorderNearTies(matches []Match) {
	start := 0

	for start < len(matches) {
		end := start + 1
		head := matches[start].Relevance

		for end < len(matches) && withinBand(head, matches[end].Relevance) {
			end++
		}

		group := matches[start:end]
		sort.Slice(group, func(i, j int) bool {
			if group[i].Usage != group[j].Usage {
				return group[i].Usage > group[j].Usage
			}

			if group[i].Relevance != group[j].Relevance {
				return group[i].Relevance > group[j].Relevance
			}

			return group[i].Candidate.FullName < group[j].Candidate.FullName
		})

		start = end
	}
}

func withinBand(head, other float64) bool {
	if head == other {
		return true
	}

	if head <= 0 {
		return false
	}

	return head-other <= nearTieBand*head
}
