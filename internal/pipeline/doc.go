// Package pipeline defines the collector/processor/formatter contracts,
// the projection protocol that reshapes staged entries into output
// records, and the runner that enforces the phase barrier.
//
// ARCHITECTURE:
//
// Three strictly ordered phases:
//  1. Collect: every collector's Read runs to completion, populating the
//     collector store.
//  2. Process: every processor's Process runs to completion, merging into
//     the processor store.
//  3. Format: every formatter's Write serializes the processor store.
//
// The barrier is the only ordering guarantee. Within a phase, components
// are independent: by convention each collector owns one (namespace,
// category) coordinate and each processor writes only the qualified key
// subspace of the categories it handles, so order within a phase does not
// affect the final records.
//
// Projection qualifies every output key with "<category>." before merging,
// which makes the contributions of different categories disjoint by
// construction. Relation joins write bare namespace keys instead, since a
// relation namespace has exactly one contributor.
//
// The run is fail-fast: the first error from any component aborts the run
// with no partial-result recovery. Every operation here is a deterministic
// in-memory lookup or merge, so there is no retry logic.
package pipeline
