package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/DmitryBochkarev/string-tools/internal/config"
	"github.com/DmitryBochkarev/string-tools/internal/database"
	"github.com/DmitryBochkarev/string-tools/internal/model"
	"github.com/DmitryBochkarev/string-tools/internal/pipeline"
	"github.com/DmitryBochkarev/string-tools/internal/report"
	"github.com/DmitryBochkarev/string-tools/linkpolicy"
)

// NewFilterCmd creates the filter command.
func NewFilterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter [files...]",
		Short: "Remove links to non-whitelisted domains from HTML documents",
		Long: `Filter reads HTML documents and unwraps every anchor whose href does not
point to a whitelisted domain. The anchor is replaced by its content; the rest
of the document is left byte for byte as it was.

With no files, or with "-", the document is read from standard input.
Filtered documents are written to standard output, or below --output-dir.

Examples:
  # Keep links to example.com and its subdomains only
  linkfilter filter -w example.com page.html

  # Keep relative links as well
  linkfilter filter -w example.com --keep-hostless page.html

  # Filter with a profile from the configuration file
  cat page.html | linkfilter filter -P forum

  # Filter many files, encode hosts in ASCII form, write a JSON report
  linkfilter filter -w example.com --normalize -d out -j -o report.json docs/*.html

Configuration file (.linkfilter) example:
  defaults:
    whitelist:
      - example.com
  profiles:
    forum:
      whitelist:
        - forum.example.org
      removeWithoutHost: false`,
		Args: cobra.ArbitraryArgs,
		RunE: runFilterCmd,
	}

	policyFlags(cmd)

	// Processing flags
	cmd.Flags().BoolP("normalize", "n", false,
		"Encode internationalized hosts of URL attributes in ASCII form after filtering")
	cmd.Flags().StringP("output-dir", "d", "",
		"Write filtered documents below this directory instead of standard output")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of documents filtered concurrently")
	cmd.Flags().Int64("max-size", config.DefaultMaxInputSize,
		"Largest document accepted, in bytes")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Write a JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Write a Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("report-file", "o", "",
		"Write the report to this file instead of standard error")

	// History flags
	cmd.Flags().Bool("save", false,
		"Store the verdicts of this run in the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// runFilterCmd executes the filter command.
func runFilterCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildFilterConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runFilter(ctx, cfg, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
}

// buildFilterConfig creates a Config from cobra command flags.
func buildFilterConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	if err := loadPolicyConfig(cmd, cfg); err != nil {
		return nil, err
	}

	var err error

	if cmd.Flags().Changed("normalize") {
		cfg.Normalize, err = cmd.Flags().GetBool("normalize")
		if err != nil {
			return nil, err
		}
	}

	cfg.OutputDir, err = cmd.Flags().GetString("output-dir")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.MaxInputSize, err = cmd.Flags().GetInt64("max-size")
	if err != nil {
		return nil, err
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("report-file")
	if err != nil {
		return nil, err
	}

	cfg.SaveToDB, err = cmd.Flags().GetBool("save")
	if err != nil {
		return nil, err
	}

	cfg.DBDir, err = cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}

	cfg.Inputs = args
	if len(cfg.Inputs) == 0 {
		cfg.Inputs = []string{config.StdinSource}
	}

	return cfg, nil
}

// runFilter filters every input and writes documents, reports and history.
// It returns errDocumentsFailed when any document failed, after all others
// were written.
func runFilter(ctx context.Context, cfg *config.Config, stdin io.Reader, stdout, stderr io.Writer, logger *slog.Logger) error {
	for _, entry := range linkpolicy.PublicSuffixEntries(cfg.Whitelist) {
		logger.Warn("whitelist entry is a public suffix and keeps links to every domain below it",
			"entry", entry,
		)
	}

	logger.Info("starting filter",
		"inputs", len(cfg.Inputs),
		"whitelist", cfg.Whitelist,
		"removeWithoutHost", cfg.RemoveWithoutHost,
		"normalize", cfg.Normalize,
		"batchSize", cfg.BatchSize,
	)

	var db *database.HistoryDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "path", db.Path())
	}

	policy := linkpolicy.NewPolicy(cfg.Whitelist, linkpolicy.WithRemoveWithoutHost(cfg.RemoveWithoutHost))

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			return createPipeline(policy, cfg, stdin, logger)
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	startTime := time.Now()
	reports, err := bp.ProcessBatch(ctx, cfg.Inputs)
	if err != nil {
		return err
	}
	logger.Info("filter completed", "elapsed", time.Since(startTime).Round(time.Millisecond))

	failed := 0
	for _, r := range reports {
		if r == nil {
			continue
		}
		if r.Failed() {
			failed++
			fmt.Fprintf(stderr, "Filter error for %s: %s\n", r.Source, r.ErrorMessage)
			continue
		}
		if cfg.OutputDir == "" {
			if _, err := io.WriteString(stdout, r.Output); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
		if err := saveFilterReport(ctx, db, r, logger); err != nil {
			logger.Error("failed to save filter report", "source", r.Source, "error", err)
		}
	}

	if err := outputReport(cfg, reports, stderr); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errDocumentsFailed, failed, len(cfg.Inputs))
	}
	return nil
}

// createPipeline creates the per-document pipeline for the configuration.
func createPipeline(policy *linkpolicy.Policy, cfg *config.Config, stdin io.Reader, logger *slog.Logger) *pipeline.Pipeline {
	pipelineOpts := []pipeline.Option{
		pipeline.WithLogger(logger),
	}

	configOpts := []pipeline.DefaultPipelineOption{
		pipeline.WithPipelineMaxInputSize(cfg.EffectiveMaxInputSize()),
		pipeline.WithPipelineNormalize(cfg.Normalize),
		pipeline.WithPipelineStdin(stdin),
		pipeline.WithPipelineStepLogger(logger),
	}
	if cfg.OutputDir != "" {
		configOpts = append(configOpts, pipeline.WithPipelineOutputDir(cfg.OutputDir))
	}

	return pipeline.DefaultPipeline(policy, pipelineOpts, configOpts...)
}

// outputReport writes the report in the requested format. Nothing is
// written unless a format or a report file was requested.
func outputReport(cfg *config.Config, reports []*model.FilterReport, stderr io.Writer) error {
	if !cfg.JSONReport && !cfg.MarkdownReport && cfg.ReportFile == "" {
		return nil
	}

	output := stderr
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("failed to create report directory: %w", err)
			}
		}

		// Reports list every href, so only the owner may read them.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		output = f
	}

	if cfg.JSONReport {
		w := report.NewFullJSONWriter(output, getVersion(), cfg.Whitelist, report.WithPrettyPrint())
		_, err := w.WriteBatch(reports)
		return err
	}

	if cfg.MarkdownReport {
		_, err := report.WriteBatch(report.NewMarkdownWriter(output), reports)
		return err
	}

	_, err := report.WriteBatch(report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose)), reports)
	return err
}

// saveFilterReport saves the report to the database if enabled.
// If db is nil, this function is a no-op.
func saveFilterReport(ctx context.Context, db *database.HistoryDB, r *model.FilterReport, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	id, err := db.SaveFilterReport(ctx, r)
	if err != nil {
		return fmt.Errorf("failed to save filter report: %w", err)
	}

	logger.Info("filter report saved to database", "source", r.Source, "run", id)
	return nil
}
