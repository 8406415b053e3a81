// Package processor implements the processors that reshape staged AMO
// entries into the flat output records the formatter consumes.
package processor

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/amolyst/amolyst/internal/collector"
	"github.com/amolyst/amolyst/internal/pipeline"
	"github.com/amolyst/amolyst/internal/state"
)

// AMOProcessor selects and filters addon and user data:
//
//   - a validator summary (error/warning/notice counts and required
//     libraries) derived from the raw linter reports,
//   - the interesting basemeta columns of addons and users,
//   - the addon-to-user ownership relation as joined records.
type AMOProcessor struct {
	pipeline.Projection
}

// New creates an AMOProcessor over the two stores.
func New(source state.CollectorStore, sink state.ProcessorStore) *AMOProcessor {
	return &AMOProcessor{Projection: pipeline.Projection{Source: source, Sink: sink}}
}

// Process implements pipeline.Processor.
func (p *AMOProcessor) Process(ctx context.Context) error {
	if err := p.ProcessFields(ctx, collector.AddonNamespace, collector.ValidatorCategory, validatorSummary); err != nil {
		return err
	}

	if err := p.SelectFields(ctx, collector.AddonNamespace, collector.BasemetaCategory,
		"id", "guid", "name", "current_version"); err != nil {
		return err
	}

	if err := p.SelectFields(ctx, collector.UserNamespace, collector.BasemetaCategory,
		"display_name", "email", "is_verified", "lang",
		"location", "region", "username"); err != nil {
		return err
	}

	return p.Relate(ctx, collector.AddonNamespace, collector.UserNamespace)
}

// validatorSummary reduces one raw linter report to the summary counts and
// the deduplicated, sorted set of libraries flagged by FOUND_REQUIRE
// warnings.
func validatorSummary(entry state.Entry) (map[string]any, error) {
	summary, ok := entry["summary"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("validator entry has no summary object: %v", entry)
	}

	warnings, ok := entry["warnings"].([]any)
	if !ok {
		return nil, fmt.Errorf("validator entry has no warnings list: %v", entry)
	}
	libs := make(map[string]struct{})
	for _, w := range warnings {
		warning, ok := w.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("validator warning is not an object: %v", w)
		}
		if warning["code"] != "FOUND_REQUIRE" {
			continue
		}
		detail, ok := warning["detail"].(string)
		if !ok {
			return nil, fmt.Errorf("FOUND_REQUIRE warning has no detail string: %v", warning)
		}
		libs[detail] = struct{}{}
	}

	return map[string]any{
		"errors":   summary["errors"],
		"warnings": summary["warnings"],
		"notices":  summary["notices"],
		"requires": strings.Join(slices.Sorted(maps.Keys(libs)), ";"),
	}, nil
}
