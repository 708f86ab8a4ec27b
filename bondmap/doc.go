// Package bondmap implements the pair-bond codec: pure functions that
// compress an identifier sequence into a weighted pair-adjacency map and
// reconstruct the sequence from that map alone.
//
// Encode records, for each identifier, a directed bond to the next
// relevant identifier, with a recurrence count, plus the first and last
// identifier as anchors. Decode walks an Eulerian trail over the resulting
// multigraph with a documented deterministic tie-break. Both functions are
// pure and share no state; arbitrarily many scopes encode and decode in
// parallel.
//
// The formatting half (Format) reinserts boundary-skippable units that
// the graph omits, completing byte-level reconstruction.
package bondmap
