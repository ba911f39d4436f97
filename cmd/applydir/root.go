package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/applydir/pkg/apply"
	"github.com/walteh/applydir/pkg/change"
	"github.com/walteh/applydir/pkg/config"
	"github.com/walteh/applydir/pkg/log"
	"github.com/walteh/applydir/pkg/policy"
	"gitlab.com/tozd/go/errors"
)

var (
	// Flags
	configFile     string
	baseDir        string
	nonASCIIAction string
	dryRun         bool
	async          bool
	debug          bool
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "applydir <changes.json>",
		Short:         "Apply machine-generated line edits to a codebase",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, args[0])
		},
	}

	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "config file path (.yaml, .yml, or .hcl)")
	cmd.Flags().StringVarP(&baseDir, "base-dir", "b", ".", "base directory for file paths")
	cmd.Flags().StringVar(&nonASCIIAction, "non-ascii-action", "", "override for non-ASCII findings: error, warning, or ignore")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate and locate changes without writing")
	cmd.Flags().BoolVar(&async, "async", false, "apply independent files concurrently")

	cmd.AddCommand(newFormatCmd())
	return cmd
}

// setupLogging configures zerolog on the command context
func setupLogging(cmd *cobra.Command) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().Level(level)
	cmd.SetContext(logger.WithContext(cmd.Context()))
}

// loadPolicy assembles the effective policy from the config file and flag
// overrides. With no config file the defaults apply.
func loadPolicy(cmd *cobra.Command) (*policy.Policy, error) {
	pol := policy.Default()
	if configFile != "" {
		cfg, err := config.Load(cmd.Context(), configFile)
		if err != nil {
			return nil, errors.Errorf("loading config: %w", err)
		}
		pol = cfg.Policy()
	}
	if nonASCIIAction != "" {
		switch nonASCIIAction {
		case "error", "warning", "ignore":
			pol.Charset.Default = policy.Enforcement(nonASCIIAction)
		default:
			return nil, errors.Errorf("invalid --non-ascii-action %q (want error, warning, or ignore)", nonASCIIAction)
		}
	}
	return pol, nil
}

func runApply(cmd *cobra.Command, inputFile string) error {
	ctx := cmd.Context()
	logger := zerolog.Ctx(ctx)

	pol, err := loadPolicy(cmd)
	if err != nil {
		return err
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return errors.Errorf("resolving base directory: %w", err)
	}
	if info, err := os.Stat(absBase); err != nil || !info.IsDir() {
		return errors.Errorf("base directory %q is not a directory", absBase)
	}

	data, err := os.ReadFile(inputFile)
	if err != nil {
		return errors.Errorf("reading input file: %w", err)
	}
	batch, err := change.ParseBatch(data)
	if err != nil {
		return errors.Errorf("parsing input file: %w", err)
	}

	applicator, err := apply.New(apply.Options{
		Policy: pol,
		DryRun: dryRun,
	})
	if err != nil {
		return errors.Errorf("creating applicator: %w", err)
	}
	runner := apply.NewRunner(applicator, async)

	logger.Debug().
		Int("file_entries", len(batch.FileEntries)).
		Bool("dry_run", dryRun).
		Bool("async", async).
		Msg("applying change batch")

	results := runner.Run(ctx, batch, absBase)

	userLogger := log.NewUserLogger(ctx)
	for _, o := range results {
		userLogger.LogOutcome(o)
		if diff, ok := o.Details["diff"].(string); ok && diff != "" {
			fmt.Fprintln(cmd.OutOrStdout(), log.ColorizeDiff(diff))
		}
	}
	userLogger.LogSummary(results)

	if msg := batch.CommitMessage(); msg != "" {
		logger.Info().Str("message", msg).Msg("batch commit message (not consumed here)")
	}

	if results.HasErrors() {
		return errors.Errorf("%d change(s) failed", len(results.Errors()))
	}
	return nil
}

func newFormatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "format",
		Short: "Print the JSON change-batch format description",
		Long:  "Prints a description of the expected JSON input, suitable for embedding in a prompt for an upstream change generator.",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), change.FormatDescription())
		},
	}
}
