package state

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// MemoryProcessorStore is the resident output store. Records are merged
// field dictionaries; the per-namespace registry accumulates every field
// key ever merged and never shrinks within a run.
type MemoryProcessorStore struct {
	// namespace -> id -> record
	records map[string]map[string]Record
	// namespace -> set of qualified field names
	fields map[string]map[string]struct{}
}

// NewMemoryProcessorStore creates an empty processor store.
func NewMemoryProcessorStore() *MemoryProcessorStore {
	return &MemoryProcessorStore{
		records: make(map[string]map[string]Record),
		fields:  make(map[string]map[string]struct{}),
	}
}

// Merge implements ProcessorStore. The record update and the registry
// update happen in the same call, so a record's key set is always a subset
// of its namespace's registry once Merge returns. Field keys are NFC
// normalized before use.
func (s *MemoryProcessorStore) Merge(namespace, id string, fields map[string]any) error {
	ids, ok := s.records[namespace]
	if !ok {
		ids = make(map[string]Record)
		s.records[namespace] = ids
	}
	record, ok := ids[id]
	if !ok {
		record = make(Record, len(fields))
		ids[id] = record
	}

	registry, ok := s.fields[namespace]
	if !ok {
		registry = make(map[string]struct{})
		s.fields[namespace] = registry
	}

	for key, value := range fields {
		key = normalizeKey(key)
		record[key] = value
		registry[key] = struct{}{}
	}
	return nil
}

// FieldNames implements ProcessorStore, returning a sorted snapshot.
func (s *MemoryProcessorStore) FieldNames(namespace string) []string {
	return slices.Sorted(maps.Keys(s.fields[namespace]))
}

// All implements ProcessorStore. Records are copied so callers cannot
// mutate store internals.
func (s *MemoryProcessorStore) All() map[string]map[string]Record {
	out := make(map[string]map[string]Record, len(s.records))
	for namespace, ids := range s.records {
		nsOut := make(map[string]Record, len(ids))
		for id, record := range ids {
			nsOut[id] = maps.Clone(record)
		}
		out[namespace] = nsOut
	}
	return out
}

// String renders the output store for debug dumps, sorted for stability.
func (s *MemoryProcessorStore) String() string {
	var b strings.Builder
	for _, namespace := range slices.Sorted(maps.Keys(s.records)) {
		fmt.Fprintf(&b, "NAMESPACE %s (%s)\n", namespace, strings.Join(s.FieldNames(namespace), ", "))
		ids := s.records[namespace]
		for _, id := range slices.Sorted(maps.Keys(ids)) {
			record := ids[id]
			fmt.Fprintf(&b, "\tENTRY(%s):\n", id)
			for _, key := range slices.Sorted(maps.Keys(record)) {
				fmt.Fprintf(&b, "\t\t%s = %v\n", key, record[key])
			}
		}
	}
	return b.String()
}
