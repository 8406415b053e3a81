// Package config loads and validates the pipeline configuration.
//
// The file is YAML; its shape is vetted against an embedded CUE schema
// before decoding, so typos and missing collaborator parameters surface as
// one schema error instead of a zero value deep in a collector.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Backends for the staging (collector) store.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Config is the full pipeline configuration.
type Config struct {
	Staging    Staging    `yaml:"staging"`
	Collectors Collectors `yaml:"collectors"`
	Formatters Formatters `yaml:"formatters"`
}

// Staging selects the collector store backend. Defaults to memory.
type Staging struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// Collectors carries per-collector source parameters.
type Collectors struct {
	AMO       AMO       `yaml:"amo"`
	Validator Validator `yaml:"validator"`
}

// AMO is the database the SQL collectors read from. Driver defaults to
// sqlite3.
type AMO struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Validator is the directory tree of addons-linter JSON reports.
type Validator struct {
	BaseDir string `yaml:"basedir"`
}

// Formatters carries per-formatter sink parameters.
type Formatters struct {
	CSV CSV `yaml:"csv"`
}

// CSV is the directory the CSV files are written into.
type CSV struct {
	BaseDir string `yaml:"basedir"`
}

// Load reads, schema-checks and decodes the configuration at path, then
// applies defaults.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := vet(tree); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.Staging.Backend == "" {
		cfg.Staging.Backend = BackendMemory
	}
	if cfg.Collectors.AMO.Driver == "" {
		cfg.Collectors.AMO.Driver = "sqlite3"
	}
	if cfg.Staging.Backend == BackendSQLite && cfg.Staging.Path == "" {
		return nil, fmt.Errorf("%s: staging.path is required with the sqlite backend", path)
	}

	return &cfg, nil
}

// vet unifies the decoded YAML tree with the #Config definition. The
// definition is closed, so unknown fields are rejected along with type and
// missing-field errors.
func vet(tree map[string]any) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	data := ctx.Encode(tree)
	if err := data.Err(); err != nil {
		return fmt.Errorf("encode config for validation: %w", err)
	}

	unified := schema.Unify(data)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %s", cueerrors.Details(err, nil))
	}
	return nil
}
