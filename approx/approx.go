// Package approx defines the approximate-resolution collaborator: an
// opaque strategy that maps an unresolved span to ranked identifier
// candidates. The core never depends on any particular matching technique;
// anything that narrows candidates monotonically satisfies the contract.
package approx

import (
	"context"
	"sort"

	"github.com/stitchfork/seqbond/symbol"
)

// Context describes where an unresolved span was encountered.
type Context struct {
	ScopeID  string
	Position int
	Tags     map[string]string
}

// Candidate is one ranked resolution candidate. Lower Rank is better;
// Score is strategy-specific and only comparable within one source.
type Candidate struct {
	ID    symbol.ID
	Text  string
	Score float64
}

// CandidateSource returns zero or more candidates for an unresolved span,
// best first. Returning an empty slice is a valid "I don't know".
type CandidateSource interface {
	Candidates(ctx context.Context, span string, c Context) ([]Candidate, error)
}

// Narrower shrinks a candidate set. A Narrower must be monotone: its
// output is a subset of its input (reordering allowed).
type Narrower interface {
	Narrow(ctx context.Context, span string, candidates []Candidate) ([]Candidate, error)
}

// Refine runs an iterative-refinement loop: starting from source's
// candidates, it applies the narrowers round-robin until the set reaches a
// fixed point, collapses to one candidate, or the iteration budget runs
// out. The surviving candidates are returned best-first.
func Refine(ctx context.Context, source CandidateSource, span string, c Context, budget int, narrowers ...Narrower) ([]Candidate, error) {
	candidates, err := source.Candidates(ctx, span, c)
	if err != nil {
		return nil, err
	}

	for i := 0; i < budget && len(candidates) > 1; i++ {
		before := len(candidates)
		for _, n := range narrowers {
			candidates, err = n.Narrow(ctx, span, candidates)
			if err != nil {
				return nil, err
			}
			if len(candidates) <= 1 {
				break
			}
		}
		if len(candidates) == before {
			break // fixed point
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score < candidates[j].Score
	})
	return candidates, nil
}
