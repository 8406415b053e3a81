package state

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// MemoryCollectorStore is the default, fully resident collector store.
// It is rebuilt from scratch on every run.
type MemoryCollectorStore struct {
	// namespace -> category -> id -> entry
	data map[string]map[string]map[string]Entry
	// relation namespace -> category -> fromID -> toID
	relations map[string]map[string]map[string]string
}

// NewMemoryCollectorStore creates an empty in-memory collector store.
func NewMemoryCollectorStore() *MemoryCollectorStore {
	return &MemoryCollectorStore{
		data:      make(map[string]map[string]map[string]Entry),
		relations: make(map[string]map[string]map[string]string),
	}
}

// DefineField implements CollectorStore. Last write per triple wins.
func (s *MemoryCollectorStore) DefineField(_ context.Context, namespace, category, id string, entry Entry) error {
	categories, ok := s.data[namespace]
	if !ok {
		categories = make(map[string]map[string]Entry)
		s.data[namespace] = categories
	}
	entries, ok := categories[category]
	if !ok {
		entries = make(map[string]Entry)
		categories[category] = entries
	}
	entries[id] = entry
	return nil
}

// DefineRelation implements CollectorStore. At most one toID per
// (namespace, category, fromID); later writes replace earlier ones.
func (s *MemoryCollectorStore) DefineRelation(_ context.Context, namespace, category, fromID, toID string) error {
	categories, ok := s.relations[namespace]
	if !ok {
		categories = make(map[string]map[string]string)
		s.relations[namespace] = categories
	}
	pairs, ok := categories[category]
	if !ok {
		pairs = make(map[string]string)
		categories[category] = pairs
	}
	pairs[fromID] = toID
	return nil
}

// Entries implements CollectorStore. The returned slice is a fresh copy;
// entries themselves are shared and must not be mutated by callers.
func (s *MemoryCollectorStore) Entries(_ context.Context, namespace, category string) ([]Item, error) {
	entries := s.data[namespace][category]
	items := make([]Item, 0, len(entries))
	for id, entry := range entries {
		items = append(items, Item{ID: id, Entry: entry})
	}
	return items, nil
}

// Relations implements CollectorStore, reading DefaultCategory only.
func (s *MemoryCollectorStore) Relations(_ context.Context, namespace string) ([]Link, error) {
	pairs := s.relations[namespace][DefaultCategory]
	links := make([]Link, 0, len(pairs))
	for fromID, toID := range pairs {
		links = append(links, Link{FromID: fromID, ToID: toID})
	}
	return links, nil
}

// String renders the full staging contents for debug dumps. Namespaces,
// categories and identifiers are sorted so dumps are stable.
func (s *MemoryCollectorStore) String() string {
	var b strings.Builder
	for _, namespace := range slices.Sorted(maps.Keys(s.data)) {
		fmt.Fprintf(&b, "NAMESPACE %s\n", namespace)
		categories := s.data[namespace]
		for _, category := range slices.Sorted(maps.Keys(categories)) {
			fmt.Fprintf(&b, "\tCATEGORY %s\n", category)
			entries := categories[category]
			for _, id := range slices.Sorted(maps.Keys(entries)) {
				fmt.Fprintf(&b, "\t\tENTRY(%s) = %v\n", id, entries[id])
			}
		}
	}
	for _, namespace := range slices.Sorted(maps.Keys(s.relations)) {
		fmt.Fprintf(&b, "RELATION %s\n", namespace)
		categories := s.relations[namespace]
		for _, category := range slices.Sorted(maps.Keys(categories)) {
			fmt.Fprintf(&b, "\tCATEGORY %s\n", category)
			pairs := categories[category]
			for _, fromID := range slices.Sorted(maps.Keys(pairs)) {
				fmt.Fprintf(&b, "\t\t%s -> %s\n", fromID, pairs[fromID])
			}
		}
	}
	return b.String()
}
