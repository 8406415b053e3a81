package collector

import (
	"context"
	"fmt"

	"github.com/amolyst/amolyst/internal/state"
)

// Namespaces and categories owned by the AMO collectors. Each collector
// writes to exactly one coordinate that no other collector touches.
const (
	AddonNamespace    = "amo.addon"
	UserNamespace     = "amo.user"
	BasemetaCategory  = "basemeta"
	ValidatorCategory = "validator"
)

const addonsQuery = `
       SELECT translations.localized_string AS name,
              versions.version AS current_version,
              addons.*
         FROM addons
    LEFT JOIN translations
           ON (addons.name = translations.id
               AND translations.locale = 'en-us')
    LEFT JOIN versions
           ON (addons.current_version = versions.id)
`

const usersQuery = `SELECT * FROM users`

// Role 5 with position 0 marks the listed owner of an addon.
const junctionQuery = `
    SELECT addon_id, user_id
      FROM addons_users
     WHERE role = 5
       AND position = 0
`

// AddonsCollector collects everything about addons from the addons table,
// joined with the en-us display name and the current version string.
// Entries are keyed by the addon guid.
type AddonsCollector struct {
	Store  state.CollectorStore
	Target SQLTarget
}

// Read implements pipeline.Collector.
func (c *AddonsCollector) Read(ctx context.Context) error {
	src := SQLSource{Target: c.Target, Query: addonsQuery}
	return src.Each(ctx, func(entry state.Entry) error {
		id, err := identifier(entry, "guid")
		if err != nil {
			return err
		}
		return c.Store.DefineField(ctx, AddonNamespace, BasemetaCategory, id, entry)
	})
}

// UsersCollector collects everything about users, keyed by the id column.
type UsersCollector struct {
	Store  state.CollectorStore
	Target SQLTarget
}

// Read implements pipeline.Collector.
func (c *UsersCollector) Read(ctx context.Context) error {
	src := SQLSource{Target: c.Target, Query: usersQuery}
	return src.Each(ctx, func(entry state.Entry) error {
		id, err := identifier(entry, "id")
		if err != nil {
			return err
		}
		return c.Store.DefineField(ctx, UserNamespace, BasemetaCategory, id, entry)
	})
}

// JunctionCollector collects addon ownership rows from addons_users and
// records them as relations in the "amo.addon--amo.user" namespace under
// the default category.
type JunctionCollector struct {
	Store  state.CollectorStore
	Target SQLTarget
}

// Read implements pipeline.Collector.
func (c *JunctionCollector) Read(ctx context.Context) error {
	namespace := state.RelationNamespace(AddonNamespace, UserNamespace)
	src := SQLSource{Target: c.Target, Query: junctionQuery}
	return src.Each(ctx, func(entry state.Entry) error {
		fromID, err := identifier(entry, "addon_id")
		if err != nil {
			return err
		}
		toID, err := identifier(entry, "user_id")
		if err != nil {
			return err
		}
		return c.Store.DefineRelation(ctx, namespace, state.DefaultCategory, fromID, toID)
	})
}

// identifier extracts a key column from an entry and renders it as a
// string. Numeric ids render without an exponent. A missing or null key
// column is fatal: an entry without its identity cannot be staged.
func identifier(entry state.Entry, key string) (string, error) {
	value, ok := entry[key]
	if !ok || value == nil {
		return "", fmt.Errorf("entry has no usable %q key: %v", key, entry)
	}
	switch v := value.(type) {
	case string:
		return v, nil
	case float64:
		// JSON numbers decode as float64; ids are integral in practice.
		return fmt.Sprintf("%.0f", v), nil
	default:
		return fmt.Sprint(v), nil
	}
}
