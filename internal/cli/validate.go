package cli

import (
	"github.com/spf13/cobra"

	"github.com/amolyst/amolyst/internal/config"
)

// ValidationResult holds config validation results.
type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Config  string `json:"config"`
	Backend string `json:"staging_backend,omitempty"`
}

func (r ValidationResult) String() string {
	if r.Valid {
		return "Config " + r.Config + " is valid (staging backend: " + r.Backend + ")."
	}
	return "Config " + r.Config + " is invalid."
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config.yaml>",
		Short: "Validate a config file without running the pipeline",
		Long: `Load a config file and check it against the embedded schema.

Reports unknown fields, missing collaborator parameters and bad staging
settings without touching any data source.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, configPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "config validation failed", err)
	}

	return formatter.Success(ValidationResult{
		Valid:   true,
		Config:  configPath,
		Backend: cfg.Staging.Backend,
	})
}
