package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/amolyst/amolyst/internal/collector"
	"github.com/amolyst/amolyst/internal/config"
	"github.com/amolyst/amolyst/internal/format"
	"github.com/amolyst/amolyst/internal/pipeline"
	"github.com/amolyst/amolyst/internal/processor"
	"github.com/amolyst/amolyst/internal/state"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <config.yaml>",
		Short: "Execute a full pipeline run",
		Long: `Execute collect, process and format as one run.

All collectors complete before any processor starts, and all processors
complete before the formatter writes. Both stores are rebuilt from
scratch; nothing persists between runs.

Example:
  amolyst run ./config.yaml
  amolyst run ./config.yaml --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(opts, args[0], cmd)
		},
	}

	return cmd
}

// RunSummary is the success payload of the run command.
type RunSummary struct {
	Namespaces int `json:"namespaces"`
	Records    int `json:"records"`
}

func (s RunSummary) String() string {
	return fmt.Sprintf("Run complete: %d records in %d namespaces.", s.Records, s.Namespaces)
}

func runPipeline(opts *RunOptions, configPath string, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	log := slog.New(handler)

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cstore, cleanup, err := openStaging(cfg.Staging)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open staging store", err)
	}
	defer cleanup(log)
	pstore := state.NewMemoryProcessorStore()

	runner := pipeline.NewRunner(
		buildCollectors(cstore, cfg.Collectors),
		[]pipeline.Processor{processor.New(cstore, pstore)},
		[]pipeline.Formatter{&format.CSVFormatter{Store: pstore, BaseDir: cfg.Formatters.CSV.BaseDir}},
		pipeline.WithLogger(log),
	)

	if err := runner.Run(ctx); err != nil {
		_ = formatter.Error(ErrCodeRun, err.Error(), nil)
		return WrapExitError(ExitFailure, "pipeline run failed", err)
	}

	// The original tool printed both stores after each phase; keep that as
	// verbose diagnostics.
	if dumper, ok := cstore.(fmt.Stringer); ok {
		formatter.VerboseLog("Collector state:\n%s", dumper)
	}
	formatter.VerboseLog("Processor state:\n%s", pstore)

	return formatter.Success(summarize(pstore))
}

// buildCollectors assembles the ordered collector list. Each collector
// owns one (namespace, category) coordinate.
func buildCollectors(store state.CollectorStore, cfg config.Collectors) []pipeline.Collector {
	target := collector.SQLTarget{Driver: cfg.AMO.Driver, DSN: cfg.AMO.DSN}
	return []pipeline.Collector{
		&collector.AddonsCollector{Store: store, Target: target},
		&collector.UsersCollector{Store: store, Target: target},
		&collector.JunctionCollector{Store: store, Target: target},
		&collector.ValidatorCollector{Store: store, BaseDir: cfg.Validator.BaseDir},
	}
}

// openStaging creates the configured collector store backend. The cleanup
// function is a no-op for the memory backend.
func openStaging(cfg config.Staging) (state.CollectorStore, func(*slog.Logger), error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		store, err := state.OpenSQLiteCollectorStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, func(log *slog.Logger) {
			if err := store.Close(); err != nil {
				log.Error("error closing staging store", "error", err)
			}
		}, nil
	case config.BackendMemory, "":
		return state.NewMemoryCollectorStore(), func(*slog.Logger) {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown staging backend %q", cfg.Backend)
	}
}

func summarize(store state.ProcessorStore) RunSummary {
	all := store.All()
	summary := RunSummary{Namespaces: len(all)}
	for _, records := range all {
		summary.Records += len(records)
	}
	return summary
}
