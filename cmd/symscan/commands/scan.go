package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garagon/symscan"
	"github.com/garagon/symscan/internal/config"
	"github.com/garagon/symscan/internal/logging"
	"github.com/garagon/symscan/internal/output"
)

var (
	flagTargets        []string
	flagPresets        []string
	flagArchiveSuffix  string
	flagObjectSuffixes []string
	flagToolDir        string
	flagAr             string
	flagNm             string
	flagWorkers        int
	flagScratchDir     string
	flagToolTimeout    time.Duration
	flagNoSummary      bool
	flagProgress       bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [root]",
	Short: "Scan a build tree for archives that reference target symbols",
	Long: `Scan walks root (default: build) for archives, extracts each one into a
scratch directory and prints every object member whose symbol listing contains
a target symbol. Without --target or --preset the target is LLVMIsMultithreaded.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringSliceVarP(&flagTargets, "target", "t", nil, "Target symbol to search for (repeatable)")
	scanCmd.Flags().StringSliceVarP(&flagPresets, "preset", "p", nil, "Named target set, see list-presets (repeatable)")
	scanCmd.Flags().StringVar(&flagArchiveSuffix, "archive-suffix", "", "Archive file suffix (default .a)")
	scanCmd.Flags().StringSliceVar(&flagObjectSuffixes, "object-suffix", nil, "Member suffixes to inspect (default .o,.obj)")
	scanCmd.Flags().StringVar(&flagToolDir, "tool-dir", "", "Directory holding ar and nm, e.g. $WASI_SDK_PATH/bin")
	scanCmd.Flags().StringVar(&flagAr, "ar", "", "Archiver command (default ar)")
	scanCmd.Flags().StringVar(&flagNm, "nm", "", "Symbol lister command (default nm)")
	scanCmd.Flags().IntVar(&flagWorkers, "workers", 1, "Archives processed concurrently")
	scanCmd.Flags().StringVar(&flagScratchDir, "scratch-dir", "", "Parent directory for extraction workspaces (default: OS temp dir)")
	scanCmd.Flags().DurationVar(&flagToolTimeout, "tool-timeout", 0, "Timeout for each ar/nm invocation (0 = none)")
	scanCmd.Flags().BoolVar(&flagNoSummary, "no-summary", false, "Do not print the closing summary line")
	scanCmd.Flags().BoolVar(&flagProgress, "progress", false, "Show a progress spinner on stderr when it is a terminal; reports print once the scan ends")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadScanConfig(cmd, args)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	opts, err := scanOptions(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := contextWithInterrupt()
	defer cancel()

	w := cmd.OutOrStdout()
	formatter := &output.TextFormatter{NoSummary: flagNoSummary}
	if flagProgress {
		// Reports are held back until the spinner is cleared so the two never
		// share a terminal line.
		spinner := output.NewTerminalSpinner(os.Stderr)
		spinner.Start("Discovering archives in " + cfg.Root)
		result, err := symscan.Scan(ctx, cfg.Root, append(opts, symscan.WithProgress(spinner.Progress))...)
		spinner.Stop()
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}
		return formatter.Format(w, result)
	}

	result, err := symscan.Walk(ctx, cfg.Root, func(r symscan.Report) error {
		return formatter.WriteReport(w, r)
	}, opts...)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	return formatter.WriteSummary(w, result)
}

// loadScanConfig merges defaults, config file, environment and flags, in
// increasing order of precedence.
func loadScanConfig(cmd *cobra.Command, args []string) (config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if len(args) > 0 {
		cfg.Root = args[0]
	}
	if cfg.Root == "" {
		cfg.Root = symscan.DefaultRoot
	}
	if flags.Changed("target") {
		cfg.Targets = flagTargets
	}
	if flags.Changed("preset") {
		cfg.Presets = flagPresets
	}
	if flags.Changed("archive-suffix") {
		cfg.ArchiveSuffix = flagArchiveSuffix
	}
	if flags.Changed("object-suffix") {
		cfg.ObjectSuffixes = flagObjectSuffixes
	}
	if flags.Changed("tool-dir") {
		cfg.ToolDir = flagToolDir
	}
	if flags.Changed("ar") {
		cfg.Ar = flagAr
	}
	if flags.Changed("nm") {
		cfg.Nm = flagNm
	}
	if flags.Changed("workers") || cfg.Workers == 0 {
		cfg.Workers = flagWorkers
	}
	if flags.Changed("scratch-dir") {
		cfg.ScratchDir = flagScratchDir
	}
	if flags.Changed("tool-timeout") {
		cfg.ToolTimeout = flagToolTimeout.String()
	}
	if cfg.Workers < 1 {
		return config.Config{}, fmt.Errorf("invalid --workers %d: must be at least 1", cfg.Workers)
	}
	return cfg, nil
}

func scanOptions(cfg config.Config, logger *zap.Logger) ([]symscan.Option, error) {
	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, err
	}
	return []symscan.Option{
		symscan.WithTargets(cfg.Targets...),
		symscan.WithPresets(cfg.Presets...),
		symscan.WithPresetsDir(cfg.PresetsDir),
		symscan.WithArchiveSuffix(cfg.ArchiveSuffix),
		symscan.WithObjectSuffixes(cfg.ObjectSuffixes...),
		symscan.WithIgnorePatterns(cfg.Ignore),
		symscan.WithToolDir(cfg.ToolDir),
		symscan.WithArchiverCommand(cfg.Ar),
		symscan.WithListerCommand(cfg.Nm),
		symscan.WithToolTimeout(timeout),
		symscan.WithScratchDir(cfg.ScratchDir),
		symscan.WithWorkers(cfg.Workers),
		symscan.WithLogger(logger),
	}, nil
}

func contextWithInterrupt() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}
