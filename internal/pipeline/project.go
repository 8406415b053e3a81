package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/amolyst/amolyst/internal/state"
)

// ErrMissingField reports a select-fields projection naming a field absent
// from a raw entry. A missing named field is fatal for the run; there is
// no default substitution.
var ErrMissingField = errors.New("field missing from entry")

// TransformFunc maps one raw entry to one flat output fragment. Returned
// keys are qualified with the category prefix before merging.
type TransformFunc func(entry state.Entry) (map[string]any, error)

// Projection reshapes collector-store entries into processor-store
// records. Concrete processors embed a Projection and call its methods
// from Process.
type Projection struct {
	Source state.CollectorStore
	Sink   state.ProcessorStore
}

// ProcessFields applies fn to every raw entry at (namespace, category) and
// merges each result under "<category>."-qualified keys into the output
// record for the same namespace and identifier. Iteration order is
// unspecified; qualified key sets are disjoint across categories, so order
// across categories cannot affect the final records.
func (p Projection) ProcessFields(ctx context.Context, namespace, category string, fn TransformFunc) error {
	items, err := p.Source.Entries(ctx, namespace, category)
	if err != nil {
		return fmt.Errorf("read %s/%s: %w", namespace, category, err)
	}
	for _, item := range items {
		fields, err := fn(item.Entry)
		if err != nil {
			return fmt.Errorf("transform %s/%s entry %q: %w", namespace, category, item.ID, err)
		}
		qualified := make(map[string]any, len(fields))
		for key, value := range fields {
			qualified[category+"."+key] = value
		}
		if err := p.Sink.Merge(namespace, item.ID, qualified); err != nil {
			return fmt.Errorf("merge %s/%s entry %q: %w", namespace, category, item.ID, err)
		}
	}
	return nil
}

// SelectFields copies the named fields from every entry at (namespace,
// category) unchanged. With no names, every field of each entry is copied.
// A named field missing from an entry fails the run with ErrMissingField.
func (p Projection) SelectFields(ctx context.Context, namespace, category string, fields ...string) error {
	if len(fields) == 0 {
		return p.ProcessFields(ctx, namespace, category, func(entry state.Entry) (map[string]any, error) {
			out := make(map[string]any, len(entry))
			for key, value := range entry {
				out[key] = value
			}
			return out, nil
		})
	}
	return p.ProcessFields(ctx, namespace, category, func(entry state.Entry) (map[string]any, error) {
		out := make(map[string]any, len(fields))
		for _, field := range fields {
			value, ok := entry[field]
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrMissingField, field)
			}
			out[field] = value
		}
		return out, nil
	})
}

// Relate exposes a collector-recorded relation between two entity
// namespaces as records in the relation namespace "from--to". Each pair
// becomes one record whose identifier concatenates the two ids with "-"
// and whose fields are the bare namespace names.
//
// The concatenated identifier is ambiguous when an id itself contains the
// separator: two distinct pairs can synthesize the same join id, and the
// later write overwrites the earlier one. Accepted as is; see the
// collision test.
func (p Projection) Relate(ctx context.Context, fromNS, toNS string) error {
	namespace := state.RelationNamespace(fromNS, toNS)
	links, err := p.Source.Relations(ctx, namespace)
	if err != nil {
		return fmt.Errorf("read relations %s: %w", namespace, err)
	}
	for _, link := range links {
		id := link.FromID + "-" + link.ToID
		err := p.Sink.Merge(namespace, id, map[string]any{
			fromNS: link.FromID,
			toNS:   link.ToID,
		})
		if err != nil {
			return fmt.Errorf("merge relation %s entry %q: %w", namespace, id, err)
		}
	}
	return nil
}
