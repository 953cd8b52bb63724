package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DmitryBochkarev/string-tools/internal/config"
	"github.com/DmitryBochkarev/string-tools/internal/database"
	"github.com/DmitryBochkarev/string-tools/internal/report"
	"github.com/DmitryBochkarev/string-tools/linkpolicy"
)

// NewHistoryCmd creates the history command.
// This command reads filter runs stored with filter --save.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [source]",
		Short: "Show stored filter runs and their link verdicts",
		Long: `History lists the filter runs stored in the history database by
'linkfilter filter --save'.

Without arguments every run is listed, newest first. With a source (the file
path given to filter, or "-" for standard input) only its runs are listed.

Examples:
  # List every stored run
  linkfilter history

  # List the runs of one document
  linkfilter history docs/page.html

  # List every source with stored runs
  linkfilter history --list-sources

  # Show the full report of a run
  linkfilter history --run 12

  # Show the links unwrapped in a run
  linkfilter history --run 12 --verdict unwrap

  # Show a run as JSON
  linkfilter history --run 12 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list-sources", "L", false,
		"List every source with stored runs")
	cmd.Flags().Int64P("run", "r", 0,
		"Show the run with this ID (use history to see available IDs)")
	cmd.Flags().String("verdict", "",
		"Only show links with this verdict: keep or unwrap")
	cmd.Flags().BoolP("json", "j", false,
		"Output the run in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output the run in Markdown format")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// historyOptions holds the parsed flags of the history command.
type historyOptions struct {
	source      string
	listSources bool
	runID       int64
	verdict     string
	json        bool
	markdown    bool
	dbDir       string
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	opts, err := parseHistoryOptions(cmd, args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	// Reading history never creates the database.
	db, err := database.Open(opts.dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if errors.Is(err, database.ErrNotFound) {
		fmt.Fprintln(out, "No filter history found.")
		fmt.Fprintln(out, "\nUse 'linkfilter filter --save' to store filter runs.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()

	switch {
	case opts.listSources:
		return listSources(ctx, out, db)
	case opts.runID != 0 && opts.verdict == "":
		return showRun(ctx, out, db, opts)
	case opts.runID != 0 || opts.verdict != "":
		return listVerdicts(ctx, out, db, opts.runID, opts.verdict)
	default:
		return listRuns(ctx, out, db, opts.source)
	}
}

// parseHistoryOptions reads and validates the history flags.
func parseHistoryOptions(cmd *cobra.Command, args []string) (*historyOptions, error) {
	opts := &historyOptions{}
	if len(args) > 0 {
		opts.source = args[0]
	}

	var err error

	opts.listSources, err = cmd.Flags().GetBool("list-sources")
	if err != nil {
		return nil, err
	}
	opts.runID, err = cmd.Flags().GetInt64("run")
	if err != nil {
		return nil, err
	}
	opts.verdict, err = cmd.Flags().GetString("verdict")
	if err != nil {
		return nil, err
	}
	opts.json, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}
	opts.markdown, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}
	opts.dbDir, err = cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}

	if opts.json && opts.markdown {
		return nil, config.ErrConflictingReportFormats
	}
	if opts.runID < 0 {
		return nil, fmt.Errorf("invalid run ID %d", opts.runID)
	}
	if opts.verdict != "" {
		var v linkpolicy.Verdict
		if err := v.UnmarshalText([]byte(opts.verdict)); err != nil {
			return nil, fmt.Errorf("invalid --verdict: %w", err)
		}
	}

	return opts, nil
}

// listSources prints every source with stored runs.
func listSources(ctx context.Context, out io.Writer, db *database.HistoryDB) error {
	sources, err := db.ListSources(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}

	if len(sources) == 0 {
		fmt.Fprintln(out, "No filter runs found in the database.")
		return nil
	}

	fmt.Fprintf(out, "Filtered sources (%d):\n\n", len(sources))
	for _, source := range sources {
		fmt.Fprintf(out, "  • %s\n", source)
	}
	fmt.Fprintln(out, "\nUse 'linkfilter history <source>' to see the runs of a source.")

	return nil
}

// listRuns prints the runs of source, or of every source when it is empty.
func listRuns(ctx context.Context, out io.Writer, db *database.HistoryDB, source string) error {
	runs, err := db.ListRuns(ctx, source)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		if source != "" {
			fmt.Fprintf(out, "No filter runs found for %s\n", source)
		} else {
			fmt.Fprintln(out, "No filter runs found in the database.")
		}
		return nil
	}

	if source != "" {
		fmt.Fprintf(out, "Filter runs for %s (%d runs):\n\n", source, len(runs))
	} else {
		fmt.Fprintf(out, "Filter runs (%d runs):\n\n", len(runs))
	}
	fmt.Fprintf(out, "  %-6s  %-19s  %5s  %9s  %10s  %s\n", "ID", "Date", "Kept", "Unwrapped", "Normalized", "Source")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 70))

	for _, run := range runs {
		fmt.Fprintf(out, "  %-6d  %-19s  %5d  %9d  %10d  %s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Kept,
			run.Unwrapped,
			run.Normalized,
			run.Source,
		)
	}

	fmt.Fprintln(out, "\nUse 'linkfilter history --run <id>' to see the links of a run.")

	return nil
}

// showRun prints the full report of one run.
func showRun(ctx context.Context, out io.Writer, db *database.HistoryDB, opts *historyOptions) error {
	r, err := db.GetRunByID(ctx, opts.runID)
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}
	if r == nil {
		return fmt.Errorf("run %d not found", opts.runID)
	}

	var w report.Writer
	switch {
	case opts.json:
		w = report.NewJSONWriter(out, report.WithPrettyPrint())
	case opts.markdown:
		w = report.NewMarkdownWriter(out)
	default:
		w = report.NewSimpleWriter(out, report.WithVerbose(true), report.WithShowEmpty(true))
	}

	_, err = w.Write(r)
	return err
}

// listVerdicts prints stored link verdicts, filtered by run and verdict.
func listVerdicts(ctx context.Context, out io.Writer, db *database.HistoryDB, runID int64, verdict string) error {
	records, err := db.QueryVerdicts(ctx, runID, verdict)
	if err != nil {
		return fmt.Errorf("failed to query verdicts: %w", err)
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "No matching links found.")
		return nil
	}

	fmt.Fprintf(out, "  %-6s  %-7s  %-10s  %s\n", "Run", "Verdict", "Kind", "Href")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 70))
	for _, rec := range records {
		fmt.Fprintf(out, "  %-6d  %-7s  %-10s  %s\n", rec.RunID, rec.Verdict, rec.Kind, rec.Href)
	}

	return nil
}
