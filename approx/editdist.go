package approx

import (
	"context"

	"github.com/stitchfork/seqbond/symbol"
)

// Lexicon enumerates known symbol texts with their identifiers. The store
// backends can provide one; tests use a map.
type Lexicon interface {
	// Each calls fn for every (text, id) pair until fn returns false.
	Each(ctx context.Context, fn func(text string, id symbol.ID) bool) error
}

// EditDistanceSource ranks lexicon entries by Levenshtein distance to the
// unresolved span, keeping those within MaxDistance. It is the reference
// constraint-narrowing strategy: monotone, deterministic, and cheap enough
// for interactive use on moderate lexicons.
type EditDistanceSource struct {
	Lexicon Lexicon

	// MaxDistance bounds accepted edit distance. Zero means 2.
	MaxDistance int

	// MaxCandidates caps the result set. Zero means 8.
	MaxCandidates int
}

// Candidates implements CandidateSource.
func (s *EditDistanceSource) Candidates(ctx context.Context, span string, _ Context) ([]Candidate, error) {
	maxDist := s.MaxDistance
	if maxDist <= 0 {
		maxDist = 2
	}
	maxOut := s.MaxCandidates
	if maxOut <= 0 {
		maxOut = 8
	}

	var out []Candidate
	err := s.Lexicon.Each(ctx, func(text string, id symbol.ID) bool {
		if d, ok := boundedLevenshtein(span, text, maxDist); ok {
			out = append(out, Candidate{ID: id, Text: text, Score: float64(d)})
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	// Insertion sort by (score, text) keeps ranking stable across runs.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && less(out[j], out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	if len(out) > maxOut {
		out = out[:maxOut]
	}
	return out, nil
}

func less(a, b Candidate) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.Text < b.Text
}

// MaxDistanceNarrower drops candidates whose score exceeds the bound,
// tightening the bound each round. Used with Refine it walks the accepted
// distance down until the set stops shrinking.
type MaxDistanceNarrower struct {
	Bound float64
	Step  float64
}

// Narrow implements Narrower.
func (n *MaxDistanceNarrower) Narrow(_ context.Context, _ string, candidates []Candidate) ([]Candidate, error) {
	kept := candidates[:0]
	for _, c := range candidates {
		if c.Score <= n.Bound {
			kept = append(kept, c)
		}
	}
	if n.Step > 0 && n.Bound > n.Step {
		n.Bound -= n.Step
	}
	return kept, nil
}

// boundedLevenshtein computes edit distance, bailing out once the distance
// provably exceeds maxDist. Runs in O(len(a)*len(b)) worst case with two
// rows of state.
func boundedLevenshtein(a, b string, maxDist int) (int, bool) {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la-lb > maxDist || lb-la > maxDist {
		return 0, false
	}

	prev := make([]int, lb+1)
	cur := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		cur[0] = i
		rowMin := cur[0]
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, min(cur[j-1]+1, prev[j-1]+cost))
			if cur[j] < rowMin {
				rowMin = cur[j]
			}
		}
		if rowMin > maxDist {
			return 0, false
		}
		prev, cur = cur, prev
	}
	if prev[lb] > maxDist {
		return 0, false
	}
	return prev[lb], true
}
