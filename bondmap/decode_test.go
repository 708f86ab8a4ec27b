package bondmap

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stitchfork/seqbond/symbol"
)

func TestDecodeScenarioAlternating(t *testing.T) {
	a, b := wordID(1), wordID(2)
	m := Encode([]symbol.ID{a, b, a, b, a}, nil)

	ids, err := m.Decode()
	require.NoError(t, err)
	require.Equal(t, []symbol.ID{a, b, a, b, a}, ids)
}

func TestRoundTripUniqueTrails(t *testing.T) {
	sequences := [][]symbol.ID{
		{wordID(1), wordID(2)},
		{wordID(1), wordID(2), wordID(3)},
		{wordID(1), wordID(1), wordID(1)},
		{wordID(1), wordID(2), wordID(1), wordID(2), wordID(1)},
		{wordID(5), wordID(3), wordID(5), wordID(3), wordID(5), wordID(7)},
		{wordID(1), wordID(3), wordID(1), wordID(2)},
		{wordID(4), wordID(9), wordID(4), wordID(9), wordID(4), wordID(1)},
	}
	for _, seq := range sequences {
		ids, err := Encode(seq, nil).Decode()
		require.NoError(t, err, "sequence %v", seq)
		require.Equal(t, seq, ids, "sequence %v", seq)
	}
}

func TestDecodeDeterministic(t *testing.T) {
	a, b, c := wordID(1), wordID(2), wordID(3)
	m := Encode([]symbol.ID{a, b, a, c, a, b, a}, nil)

	first, err := m.Decode()
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := m.Decode()
		require.NoError(t, err)
		require.Equal(t, first, again, "decode must be deterministic")
	}
}

func TestDecodeAmbiguousCycles(t *testing.T) {
	a, b, c := wordID(1), wordID(2), wordID(3)

	// Two short cycles (a,b) and (a,c) hanging off the same hub: the
	// graph admits several valid trails, so decode may not equal the
	// original sequence. It must still be a valid trail over the exact
	// same bond multiset.
	original := []symbol.ID{a, c, a, b, a}
	m := Encode(original, nil)

	ids, err := m.Decode()
	require.NoError(t, err)
	require.Len(t, ids, len(original))
	require.Equal(t, m.Start(), ids[0])
	require.Equal(t, m.End(), ids[len(ids)-1])

	// Tie-break: equal counts pick the smaller target, so b's cycle
	// comes out first regardless of the original order.
	require.Equal(t, []symbol.ID{a, b, a, c, a}, ids)

	// The reconstruction consumes precisely the original bonds.
	require.Equal(t, m.Bonds(), Encode(ids, nil).Bonds())
	for _, bond := range m.Bonds() {
		require.Equal(t, m.Count(bond.A, bond.B), Encode(ids, nil).Count(bond.A, bond.B))
	}
}

func TestDecodeHighestCountFirst(t *testing.T) {
	a, b, c := wordID(1), wordID(2), wordID(3)

	// a->b twice, a->c once: the heavier edge is consumed first.
	m := Encode([]symbol.ID{a, b, a, b, a, c, a}, nil)
	ids, err := m.Decode()
	require.NoError(t, err)
	require.Equal(t, b, ids[1], "edge with highest remaining count goes first")
}

func TestDecodeSplicesCycleAtEndAnchor(t *testing.T) {
	a, b, c := wordID(1), wordID(2), wordID(3)

	// The end anchor b outranks c at the hub under the tie-break, so a
	// single greedy pass would walk a->b and strand the (a,c) cycle. The
	// walk must unwind and splice the cycle back in before the exit.
	original := []symbol.ID{a, c, a, b}
	ids, err := Encode(original, nil).Decode()
	require.NoError(t, err)
	require.Equal(t, original, ids)
}

func TestDecodeMalformedStuck(t *testing.T) {
	a, b, c := wordID(1), wordID(2), wordID(3)

	// b is a dead end but edges remain elsewhere.
	m := &BondMap{
		counts: map[Bond]uint32{
			{a, b}: 1,
			{c, a}: 1,
		},
		start: a,
		end:   c,
	}

	_, err := m.Decode()
	var malformed *ErrMalformedBondMap
	require.ErrorAs(t, err, &malformed)
	require.Equal(t, b, malformed.Node)
	require.NotZero(t, malformed.Remaining)
}

func TestDecodeMalformedWrongEnd(t *testing.T) {
	a, b, c := wordID(1), wordID(2), wordID(3)

	// Trail exists but terminates at b, not the declared end anchor.
	m := &BondMap{
		counts: map[Bond]uint32{{a, b}: 1},
		start:  a,
		end:    c,
	}

	_, err := m.Decode()
	var malformed *ErrMalformedBondMap
	require.ErrorAs(t, err, &malformed)
}

func TestDecodeRandomSequencesConsumeAllBonds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 50; trial++ {
		n := 2 + rng.Intn(200)
		seq := make([]symbol.ID, n)
		for i := range seq {
			seq[i] = wordID(uint64(1 + rng.Intn(8)))
		}

		m := Encode(seq, nil)
		require.NoError(t, m.Validate())

		ids, err := m.Decode()
		require.NoError(t, err, "trial %d", trial)
		require.Len(t, ids, n, "trial %d", trial)

		// Always a valid trail: re-encoding reproduces the bond map.
		re := Encode(ids, nil)
		require.Equal(t, m.Bonds(), re.Bonds(), "trial %d", trial)
		for _, bond := range m.Bonds() {
			require.Equal(t, m.Count(bond.A, bond.B), re.Count(bond.A, bond.B), "trial %d", trial)
		}
	}
}
