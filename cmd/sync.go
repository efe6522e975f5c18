package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"harvestsync/config"
	"harvestsync/harvest"
	"harvestsync/internal/logging"
	"harvestsync/internal/timeutil"
	"harvestsync/jira"
	"harvestsync/output"
	"harvestsync/pipeline"
	"harvestsync/submitter"
)

const userAgent = "harvestsync"

type syncOptions struct {
	from         string
	to           string
	dryRun       bool
	timeout      time.Duration
	logLevel     string
	report       string
	reportMode   string
	reportFormat string
	noInput      bool
}

var syncOpts syncOptions

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Create Jira work logs for one week of Harvest time entries.",
	Long: `Fetch the Harvest time entries of one week and create a Jira work log for each
closed entry whose notes mention an issue of the mapped Jira project.

The week starts on --from (default: the most recent Monday) and ends before --to
(default: seven days after --from). Each work log is started at noon of the spent
date in the Jira user's timezone and its comment carries the Harvest entry id, which
is how entries that were already logged are recognized on the next run.

When stdin is a terminal, missing values are asked for interactively. Use --no-input
to disable prompts.`,
	Example: `
  # Preview the current week
  harvestsync sync --dry-run

  # Sync a specific week
  harvestsync sync --from 2026-10-05

  # Sync two weeks and write the created work logs to Excel
  harvestsync sync --from 2026-09-28 --to 2026-10-12 --report ./synced.xlsx

  # Daily totals as CSV, no prompts
  harvestsync sync --no-input --report ./daily.csv --report-mode daily
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd, syncOpts, time.Now())
	},
}

func runSync(cmd *cobra.Command, opts syncOptions, now time.Time) error {
	out := cmd.OutOrStdout()
	interactive := promptsEnabled(opts.noInput)

	reportMode, reportFormat, err := resolveReport(opts.report, opts.reportMode, opts.reportFormat)
	if err != nil {
		return err
	}

	cfg, err := loadSyncConfig(interactive)
	if err != nil {
		return err
	}

	if interactive {
		prompt := syncPrompt{
			askWeek:   !cmd.Flags().Changed("from"),
			askDryRun: !cmd.Flags().Changed("dry-run"),
			week:      timeutil.FormatDay(timeutil.MostRecentMonday(now)),
			dryRun:    opts.dryRun,
		}
		if err := prompt.run(); err != nil {
			return err
		}
		if prompt.askWeek {
			opts.from = prompt.week
		}
		if prompt.askDryRun {
			opts.dryRun = prompt.dryRun
		}
	}

	window, err := resolveWindow(opts.from, opts.to, now)
	if err != nil {
		return err
	}

	level := cfg.Log.Level
	if strings.TrimSpace(opts.logLevel) != "" {
		level = opts.logLevel
	}
	logger, err := logging.New(level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("run_id", uuid.NewString()))

	timeout := cfg.HTTP.Timeout
	if cmd.Flags().Changed("timeout") {
		timeout = opts.timeout
	}

	harvestClient, err := harvest.NewClient(harvest.ClientConfig{
		BaseURL:     cfg.Harvest.URL,
		AccountID:   cfg.User.HarvestAccountID,
		AccessToken: cfg.User.HarvestAccessToken,
		UserAgent:   userAgent,
		Timeout:     timeout,
	})
	if err != nil {
		return err
	}
	pool := jira.NewPool(jira.PoolConfig{UserAgent: userAgent, Timeout: timeout})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting sync",
		zap.String("from", timeutil.FormatDay(window.Floor)),
		zap.String("to", timeutil.FormatDay(window.LastDay())),
		zap.Bool("dry_run", opts.dryRun),
		zap.Int("projects", len(cfg.Projects)),
	)

	summary, err := pipeline.Run(ctx, pipeline.Deps{
		Config:   cfg,
		Harvest:  harvestClient,
		Trackers: pipeline.PoolTrackers(pool),
		Writer:   submitter.New(logger, submitter.Options{DryRun: opts.dryRun}),
		Log:      logger,
	}, window)
	if err != nil {
		return fmt.Errorf("sync failed after %d entries: %w", summary.Fetched, err)
	}

	printSummary(out, summary, opts.dryRun)

	if opts.report != "" {
		if err := writeReport(opts.report, reportMode, reportFormat, summary); err != nil {
			return err
		}
		fmt.Fprintf(out, "Report written. Mode: %s, Format: %s, File: %s\n", reportMode, reportFormat, opts.report)
	}
	return nil
}

func loadSyncConfig(interactive bool) (*config.Config, error) {
	cfg, err := loadConfig()
	if !errors.Is(err, config.ErrNoConfig) || !interactive {
		return cfg, err
	}

	path, err := promptConfigPath("")
	if err != nil {
		return nil, err
	}
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	return config.LoadAndValidate()
}

// resolveWindow turns the --from/--to flags into a half-open day range.
func resolveWindow(from, to string, now time.Time) (harvest.Window, error) {
	floor := timeutil.MostRecentMonday(now)
	if strings.TrimSpace(from) != "" {
		parsed, err := timeutil.ParseDay(from)
		if err != nil {
			return harvest.Window{}, fmt.Errorf("invalid --from: %w", err)
		}
		floor = parsed
	}

	ceiling := floor.AddDate(0, 0, 7)
	if strings.TrimSpace(to) != "" {
		parsed, err := timeutil.ParseDay(to)
		if err != nil {
			return harvest.Window{}, fmt.Errorf("invalid --to: %w", err)
		}
		ceiling = parsed
	}

	if !ceiling.After(floor) {
		return harvest.Window{}, fmt.Errorf("--to %s must be after --from %s", timeutil.FormatDay(ceiling), timeutil.FormatDay(floor))
	}
	return harvest.Window{Floor: floor, Ceiling: ceiling}, nil
}

func resolveReport(path, mode, format string) (string, string, error) {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		mode = "raw"
	}
	if mode != "raw" && mode != "daily" {
		return "", "", fmt.Errorf("invalid --report-mode %q (valid: raw, daily)", mode)
	}

	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = output.DetectFormat(path)
	}
	if format == "xlsx" {
		format = "excel"
	}
	if format != "csv" && format != "excel" {
		return "", "", fmt.Errorf("invalid --report-format %q (valid: csv, excel)", format)
	}
	return mode, format, nil
}

func writeReport(path, mode, format string, summary pipeline.Summary) error {
	if mode == "daily" {
		if err := output.WriteDailySummaries(path, format, output.BuildDailySummaries(summary.Results)); err != nil {
			return fmt.Errorf("write daily report: %w", err)
		}
		return nil
	}

	writer, err := output.WriterForFormat(format)
	if err != nil {
		return err
	}
	if err := writer.Write(path, summary.Results); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func printSummary(out io.Writer, summary pipeline.Summary, dryRun bool) {
	verb := "Logged"
	if dryRun {
		verb = "Would log"
	}
	fmt.Fprintf(out, "Sync completed. Fetched: %d, %s: %d (%.2fh), Skipped: %d, Failed: %d\n",
		summary.Fetched, verb, summary.Logged, summary.TotalHours, summary.SkippedTotal(), summary.Failed)
	for _, reason := range pipeline.Reasons {
		if count := summary.Skipped[reason]; count > 0 {
			fmt.Fprintf(out, "  skipped %s: %d\n", reason, count)
		}
	}
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringVar(&syncOpts.from, "from", "", "First day to sync, YYYY-MM-DD (default: most recent Monday)")
	syncCmd.Flags().StringVar(&syncOpts.to, "to", "", "Day after the last synced day, YYYY-MM-DD (default: --from + 7 days)")
	syncCmd.Flags().BoolVar(&syncOpts.dryRun, "dry-run", false, "Log the work logs that would be created without writing to Jira")
	syncCmd.Flags().DurationVar(&syncOpts.timeout, "timeout", 30*time.Second, "HTTP timeout per request (overrides http.timeout)")
	syncCmd.Flags().StringVar(&syncOpts.logLevel, "log-level", "", "Log level: debug|info|warn|error (overrides log.level)")
	syncCmd.Flags().StringVarP(&syncOpts.report, "report", "o", "", "Write the synced entries to this file")
	syncCmd.Flags().StringVar(&syncOpts.reportMode, "report-mode", "raw", "Report mode: raw|daily")
	syncCmd.Flags().StringVar(&syncOpts.reportFormat, "report-format", "", "Report format: csv|excel (optional, inferred from --report extension)")
	syncCmd.Flags().BoolVar(&syncOpts.noInput, "no-input", false, "Never prompt, even when stdin is a terminal")
}
