// Package seqbond is an embeddable lossless sequence codec built on a
// tiered symbol-resolution cache.
//
// Raw input is split into units, mapped to stable numeric identifiers
// through a many-reader cache backed by an authoritative store, and
// encoded as a weighted directed multigraph of adjacent-pair bonds. The
// bond map plus its two anchors reconstructs the exact identifier
// sequence, so decode is lossless even though the representation is
// order-free.
//
// # Quick Start
//
// Local mode:
//
//	ctx := context.Background()
//	st, _ := store.OpenBolt("./data/symbols.db")
//	eng, _ := seqbond.NewEngine(st)
//	defer eng.Close()
//
//	scope := uuid.New()
//	m, _ := eng.EncodeScope(ctx, scope, "the quick brown fox")
//	text, _ := eng.DecodeScope(ctx, m)  // "the quick brown fox"
//
// Cloud archives:
//
//	s3Store, _ := s3.New(ctx, "my-bucket", s3.WithPrefix("archives/"))
//	eng, _ := seqbond.NewEngine(st, seqbond.WithBlobStore(s3Store))
//	eng.ArchiveScope(ctx, scope, m)
//	m2, _ := eng.LoadScope(ctx, scope)
//
// # Recognized Spans
//
// Multi-unit spans registered in the phrase namespace collapse to a
// single identifier during encode. The tokenizer discovers them with a
// tri-state continuation walk, so long recognized runs cost one symbol
// instead of many:
//
//	eng.RegisterSpan(ctx, []string{"as", "soon", "as", "possible"})
//	m, _ := eng.EncodeScope(ctx, scope, "reply as soon as possible")
//
// # Key Properties
//
//   - Lossless round trip: decode(encode(s)) == s
//   - Deterministic encode: equal sequences produce equal bond maps
//   - Exactly-once minting under concurrent resolution
//   - Negative caching for the append-only continuation namespace
//   - Self-describing archives (checksummed, optionally compressed)
package seqbond
