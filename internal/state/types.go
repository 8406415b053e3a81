package state

import (
	"context"

	"golang.org/x/text/unicode/norm"
)

// DefaultCategory is the sentinel category for collectors that do not
// declare one, and the only category the Relations accessor consults.
// Relation pairs written under any other category are invisible to joins.
const DefaultCategory = "_root"

// RelationSeparator joins two entity namespaces into a relation namespace,
// e.g. RelationNamespace("amo.addon", "amo.user") == "amo.addon--amo.user".
const RelationSeparator = "--"

// Entry is a raw collector record: field name to value, shape unvalidated.
// Collectors store whatever their source produced; filtering and reshaping
// is the processors' job.
type Entry map[string]any

// Record is a merged processor-side record. Keys are qualified field names
// ("<category>.<field>", or a bare namespace name for relation fields).
type Record map[string]any

// Item pairs an identifier with its raw entry.
type Item struct {
	ID    string
	Entry Entry
}

// Link is one directed relation pair.
type Link struct {
	FromID string
	ToID   string
}

// RelationNamespace builds the composite namespace for a relation between
// entities of type from and to.
func RelationNamespace(from, to string) string {
	return from + RelationSeparator + to
}

// CollectorStore is the staging area collectors write into and processors
// read from. Writes are last-write-wins per key and reads of never-written
// coordinates yield empty slices, never errors. Returned slices are fresh
// copies, so traversals are restartable and callers cannot mutate store
// internals.
type CollectorStore interface {
	// DefineField stores entry as the raw entry for the triple, replacing
	// any prior entry with the same namespace, category and id.
	DefineField(ctx context.Context, namespace, category, id string, entry Entry) error

	// DefineRelation records toID as related to fromID. At most one toID is
	// kept per (namespace, category, fromID); later writes replace earlier
	// ones. Fan-out requires distinct categories.
	DefineRelation(ctx context.Context, namespace, category, fromID, toID string) error

	// Entries returns all (id, entry) pairs stored at the coordinate.
	// Order is unspecified.
	Entries(ctx context.Context, namespace, category string) ([]Item, error)

	// Relations returns all pairs recorded for the namespace under
	// DefaultCategory only.
	Relations(ctx context.Context, namespace string) ([]Link, error)
}

// ProcessorStore holds the merged output records and the per-namespace
// field-name registry.
type ProcessorStore interface {
	// Merge applies a shallow union of fields into the record at
	// (namespace, id), creating the record if absent. Only keys present in
	// fields are overwritten. The same call unions fields' keys into the
	// namespace's registry.
	Merge(namespace, id string, fields map[string]any) error

	// FieldNames returns a sorted snapshot of the namespace's registry.
	// The registry may still grow after this call; the formatter must only
	// consult it once processing is complete.
	FieldNames(namespace string) []string

	// All returns every record grouped by namespace, as fresh copies.
	All() map[string]map[string]Record
}

// normalizeKey puts a field name into NFC so that visually identical
// column names arriving from different sources collapse to one registry
// entry and one CSV column.
func normalizeKey(k string) string {
	return norm.NFC.String(k)
}
