package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nao1215/gowget/internal/database"
	"github.com/nao1215/gowget/internal/report"
)

// shortIDLen is how many characters of a run ID the list shows.
const shortIDLen = 8

// NewHistoryCmd creates the history command and its subcommands.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List mirror runs recorded with --history",
		Long: `History lists the mirror runs that were recorded with --history, newest first.

Examples:
  # List every recorded run
  gowget history

  # Only runs of one site, at most 5
  gowget history --domain example.com --limit 5

  # Show the full summary of a run (an ID prefix is enough)
  gowget history show 3f2a9c1b

  # List the files a run stored
  gowget history files 3f2a9c1b

  # Remove a run from the history
  gowget history delete 3f2a9c1b`,
		Args: cobra.NoArgs,
		RunE: runHistoryListCmd,
	}

	cmd.Flags().String("domain", "", "Only list runs of this host")
	cmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to list (0 = all)")

	cmd.AddCommand(newHistoryShowCmd())
	cmd.AddCommand(newHistoryFilesCmd())
	cmd.AddCommand(newHistoryDeleteCmd())

	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the summary of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShowCmd,
	}
	cmd.Flags().StringP("format", "f", "text", "Output format: text, markdown or json")
	return cmd
}

func newHistoryFilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "files <run-id>",
		Short: "List the files stored by a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryFilesCmd,
	}
}

func newHistoryDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryDeleteCmd,
	}
}

// openHistory opens the existing history database; it is never created here.
func openHistory(cmd *cobra.Command) (*database.HistoryDB, error) {
	dir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(filepath.Join(dir, database.DBFileName)); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no history yet: run a mirror with --history first (looked in %s)", dir)
	}

	db, err := database.Open(dir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return db, nil
}

func runHistoryListCmd(cmd *cobra.Command, _ []string) error {
	domain, err := cmd.Flags().GetString("domain")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	db, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.ListRuns(cmd.Context(), domain, limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No mirror runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tURL\tFILES\tSIZE\tFAILED\tSTATUS")
	for _, r := range runs {
		id := r.ID
		if len(id) > shortIDLen {
			id = id[:shortIDLen]
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			id,
			humanize.Time(r.StartedAt),
			r.BaseURL,
			humanize.Comma(int64(r.Stored)),
			humanize.IBytes(uint64(max(r.Bytes, 0))),
			r.Failed,
			runStatus(r),
		)
	}
	return tw.Flush()
}

func runStatus(r database.RunSummary) string {
	switch {
	case r.Error != "":
		return "error"
	case r.Canceled:
		return "canceled"
	default:
		return "complete"
	}
}

func runHistoryShowCmd(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var w report.Writer
	switch format {
	case "text":
		w = report.NewSimpleWriter(out, report.WithVerbose(true))
	case "markdown", "md":
		w = report.NewMarkdownWriter(out)
	case "json":
		w = report.NewJSONWriter(out, report.WithPrettyPrint())
	default:
		return fmt.Errorf("unknown format %q: use text, markdown or json", format)
	}

	db, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := db.ResolveRunID(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	run, err := db.GetRun(cmd.Context(), id)
	if err != nil {
		return err
	}

	_, err = w.Write(run)
	return err
}

func runHistoryFilesCmd(cmd *cobra.Command, args []string) error {
	db, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := db.ResolveRunID(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	pages, err := db.GetRunPages(cmd.Context(), id)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tSIZE\tCONTENT-TYPE\tURL")
	for _, p := range pages {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Path, humanize.IBytes(uint64(max(p.Size, 0))), p.ContentType, p.URL)
	}
	return tw.Flush()
}

func runHistoryDeleteCmd(cmd *cobra.Command, args []string) error {
	db, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := db.ResolveRunID(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := db.DeleteRun(cmd.Context(), id); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", id)
	return nil
}
