package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Collector pulls records from an external source into the collector
// store. Collectors must collect everything the source offers and leave
// filtering to processors.
type Collector interface {
	Read(ctx context.Context) error
}

// Processor reads the collector store, reshapes entries through the
// projection protocol and merges the results into the processor store.
type Processor interface {
	Process(ctx context.Context) error
}

// Formatter serializes the finished processor store for its target.
type Formatter interface {
	Write(ctx context.Context) error
}

// RunTokenGenerator generates run tokens for log correlation.
// Implemented by UUIDv7Generator (production) and fixed tokens in tests.
type RunTokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run tokens.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// StaticGenerator returns a fixed token, for deterministic tests.
type StaticGenerator string

// Generate returns the fixed token.
func (g StaticGenerator) Generate() string { return string(g) }

// Runner executes a full pipeline run. The component lists are explicit
// and ordered; there is no hidden registry. Construction order within a
// phase is preserved but, per the non-overlap conventions above, must not
// matter for the final records.
type Runner struct {
	collectors []Collector
	processors []Processor
	formatters []Formatter
	tokens     RunTokenGenerator
	log        *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRunTokens overrides the run token generator (for testing).
func WithRunTokens(g RunTokenGenerator) RunnerOption {
	return func(r *Runner) { r.tokens = g }
}

// WithLogger overrides the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) RunnerOption {
	return func(r *Runner) { r.log = log }
}

// NewRunner creates a runner over the given component lists.
func NewRunner(collectors []Collector, processors []Processor, formatters []Formatter, opts ...RunnerOption) *Runner {
	r := &Runner{
		collectors: collectors,
		processors: processors,
		formatters: formatters,
		tokens:     UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	return r
}

// Run executes collect, process and format in strict sequence. Each phase
// only begins once the previous phase has completed for every component.
// The first error aborts the run.
func (r *Runner) Run(ctx context.Context) error {
	token := r.tokens.Generate()
	log := r.log.With("run", token)

	log.Info("collect phase starting", "collectors", len(r.collectors))
	for i, c := range r.collectors {
		if err := c.Read(ctx); err != nil {
			return fmt.Errorf("collector %d (%T): %w", i, c, err)
		}
	}
	log.Info("collect phase complete")

	log.Info("process phase starting", "processors", len(r.processors))
	for i, p := range r.processors {
		if err := p.Process(ctx); err != nil {
			return fmt.Errorf("processor %d (%T): %w", i, p, err)
		}
	}
	log.Info("process phase complete")

	log.Info("format phase starting", "formatters", len(r.formatters))
	for i, f := range r.formatters {
		if err := f.Write(ctx); err != nil {
			return fmt.Errorf("formatter %d (%T): %w", i, f, err)
		}
	}
	log.Info("format phase complete")

	return nil
}
