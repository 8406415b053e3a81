// Package state implements the two staging areas of the pipeline.
//
// The collector store is the first stage. Collectors write raw entries
// keyed by (namespace, category, identifier) and relation pairs keyed by
// (relation namespace, category, from-identifier). Writes are
// last-write-wins per key; there is no merging at this layer.
//
// The processor store is the second stage. Processors merge flattened
// field dictionaries into records keyed by (namespace, identifier). Each
// merge also unions the field keys into the namespace's field-name
// registry, the dynamically discovered schema the formatter uses as its
// column set. The registry only ever grows within a run.
//
// Backends:
//   - Memory: the default, everything resident, rebuilt each run.
//   - SQLite (collector store only): staging spilled to disk, useful when
//     collected source data exceeds memory or should be inspected with
//     sqlite3 after a run.
//
// Reads of never-written coordinates return empty sequences, never errors.
// Both stores expect single-threaded use: all collectors run before any
// processor, all processors before the formatter. Each mutation is a
// single in-memory update (or a single statement on the SQLite backend),
// so there is no caller-visible partial state.
package state
