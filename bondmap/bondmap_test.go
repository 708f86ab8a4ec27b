package bondmap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stitchfork/seqbond/symbol"
)

func wordID(n uint64) symbol.ID { return symbol.MakeID(symbol.NamespaceWord, n) }

func TestEncodeScenarioAlternating(t *testing.T) {
	a, b := wordID(1), wordID(2)
	m := Encode([]symbol.ID{a, b, a, b, a}, nil)

	require.Equal(t, uint32(2), m.Count(a, b))
	require.Equal(t, uint32(2), m.Count(b, a))
	require.Equal(t, 2, m.Len())
	require.Equal(t, a, m.Start())
	require.Equal(t, a, m.End())
	require.NoError(t, m.Validate())
}

func TestEncodeSingleSymbol(t *testing.T) {
	a := wordID(1)
	m := Encode([]symbol.ID{a}, nil)
	require.Equal(t, 0, m.Len())
	require.Equal(t, a, m.Start())
	require.Equal(t, a, m.End())
	require.NoError(t, m.Validate())

	ids, err := m.Decode()
	require.NoError(t, err)
	require.Equal(t, []symbol.ID{a}, ids)
}

func TestEncodeEmpty(t *testing.T) {
	m := Encode(nil, nil)
	require.True(t, m.Empty())
	require.NoError(t, m.Validate())

	ids, err := m.Decode()
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestEncodeSkippable(t *testing.T) {
	a, b, c := wordID(1), wordID(2), wordID(3)
	sep := symbol.MakeID(symbol.NamespaceCharacter, 99)
	skip := func(id symbol.ID) bool { return id == sep }

	// Separators are bypassed when choosing the next relevant identifier.
	m := Encode([]symbol.ID{a, sep, b, sep, c}, skip)
	require.Equal(t, uint32(1), m.Count(a, b))
	require.Equal(t, uint32(1), m.Count(b, c))
	require.Equal(t, 2, m.Len())
	require.Equal(t, a, m.Start())
	require.Equal(t, c, m.End())
	require.NoError(t, m.Validate())
	require.False(t, m.Symbols().Contains(uint64(sep)))
}

func TestEncodeAllSkippable(t *testing.T) {
	sep := symbol.MakeID(symbol.NamespaceCharacter, 99)
	m := Encode([]symbol.ID{sep, sep}, func(symbol.ID) bool { return true })
	require.True(t, m.Empty())
}

func TestSymbols(t *testing.T) {
	a, b, c := wordID(1), wordID(2), wordID(3)
	m := Encode([]symbol.ID{a, b, c, a}, nil)

	set := m.Symbols()
	require.Equal(t, uint64(3), set.GetCardinality())
	require.True(t, set.Contains(uint64(a)))
	require.True(t, set.Contains(uint64(b)))
	require.True(t, set.Contains(uint64(c)))
}

func TestValidateConservationLaw(t *testing.T) {
	// Every encoded sequence satisfies the balance condition.
	sequences := [][]symbol.ID{
		{wordID(1)},
		{wordID(1), wordID(2)},
		{wordID(1), wordID(2), wordID(1), wordID(2), wordID(1)},
		{wordID(1), wordID(1), wordID(1)},
		{wordID(3), wordID(1), wordID(4), wordID(1), wordID(5), wordID(9), wordID(2), wordID(6)},
	}
	for _, seq := range sequences {
		require.NoError(t, Encode(seq, nil).Validate(), "sequence %v", seq)
	}
}

func TestValidateRejectsImbalance(t *testing.T) {
	a, b, c := wordID(1), wordID(2), wordID(3)

	// Hand-built map where b has two in-edges but one out-edge and the
	// anchors do not account for the surplus.
	m := &BondMap{
		counts: map[Bond]uint32{
			{a, b}: 2,
			{b, c}: 1,
		},
		start: a,
		end:   c,
	}
	require.Error(t, m.Validate())

	// Edgeless map with distinct anchors is inconsistent.
	m = &BondMap{counts: map[Bond]uint32{}, start: a, end: b}
	require.Error(t, m.Validate())
}

func TestBondsCanonicalOrder(t *testing.T) {
	a, b, c := wordID(1), wordID(2), wordID(3)
	m := Encode([]symbol.ID{c, a, b, a, c}, nil)

	bonds := m.Bonds()
	for i := 1; i < len(bonds); i++ {
		prev, cur := bonds[i-1], bonds[i]
		require.True(t, prev.A < cur.A || (prev.A == cur.A && prev.B < cur.B),
			"bonds out of order: %s before %s", prev, cur)
	}
	_ = b
}
