package collector

import (
	"context"
	"fmt"

	"github.com/amolyst/amolyst/internal/state"
)

// ValidatorCollector collects addons-linter results from JSON files under
// a configured directory, keyed by the addon id at metadata.id.
//
// Validator message format:
//
//	{
//	   "summary" : { "errors" : 0, "warnings" : 0, "notices" : 0 },
//	   "notices" : [],
//	   "count" : 0,
//	   "warnings" : [],
//	   "metadata" : {
//	      "version" : "1.0",
//	      "id" : "amotabclose@mozilla.kewis.ch",
//	      "name" : "AMO Tab Closer",
//	      "manifestVersion" : 2,
//	      "type" : 1,
//	      "architecture" : "extension"
//	   },
//	   "errors" : []
//	}
type ValidatorCollector struct {
	Store   state.CollectorStore
	BaseDir string
}

// Read implements pipeline.Collector.
func (c *ValidatorCollector) Read(ctx context.Context) error {
	src := JSONSource{BaseDir: c.BaseDir}
	return src.Each(ctx, func(entry state.Entry) error {
		metadata, ok := entry["metadata"].(map[string]any)
		if !ok {
			return fmt.Errorf("validator entry has no metadata object: %v", entry)
		}
		id, err := identifier(metadata, "id")
		if err != nil {
			return err
		}
		return c.Store.DefineField(ctx, AddonNamespace, ValidatorCategory, id, entry)
	})
}
