package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/nsxbet/sql-lessons/pkg/config"
	"github.com/nsxbet/sql-lessons/pkg/topics"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Compare lessons with the headings of their rendered pages",
	Long: `Every lesson directory may hold an HTML page next to each lesson document
(same file stem). The page headings are the topics the lesson should cover.`,
}

var topicsCheckCmd = &cobra.Command{
	Use:   "check [flags]",
	Short: "Report page headings that no lesson section covers",
	Args:  cobra.NoArgs,
	RunE:  runTopicsCheck,
}

var topicsSyncCmd = &cobra.Command{
	Use:   "sync [flags]",
	Short: "Append a placeholder section for every uncovered heading",
	Args:  cobra.NoArgs,
	RunE:  runTopicsSync,
}

func init() {
	rootCmd.AddCommand(topicsCmd)
	topicsCmd.AddCommand(topicsCheckCmd)
	topicsCmd.AddCommand(topicsSyncCmd)

	topicsSyncCmd.Flags().Bool("dry-run", false, "report the sections that would be added without writing files")
}

func runTopicsCheck(cmd *cobra.Command, args []string) error {
	_ = setupLogger()
	slog.Debug("Starting topics check command")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	report, checkErr := topics.Check(cfg.ExamplesDir)
	if report == nil {
		return checkErr
	}

	switch cfg.Output {
	case config.OutputJSON:
		err = writeJSON(os.Stdout, report)
	case config.OutputYAML:
		err = writeYAML(os.Stdout, report)
	default:
		writeCheckText(os.Stdout, report)
	}
	if err != nil {
		return err
	}
	return checkErr
}

func writeCheckText(w io.Writer, report *topics.CheckReport) {
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)

	for _, fc := range report.Files {
		page := filepath.Base(fc.Pair.HTML)
		doc := fc.Pair.Stem + ".json"
		switch {
		case fc.MissingJSON():
			red.Fprintf(w, "NO JSON: %s -> missing json file %s\n", page, doc)
		case len(fc.Missing) > 0:
			red.Fprintf(w, "--- %s -> %s: MISSING %d topics ---\n", page, doc, len(fc.Missing))
			for _, h := range fc.Missing {
				fmt.Fprintf(w, "  * %s\n", h)
			}
		default:
			green.Fprintf(w, "+++ %s -> %s: all headings covered\n", page, doc)
		}
	}
	fmt.Fprintf(w, "\nSummary: total missing headings across files: %d\n", report.TotalMissing)
}

func runTopicsSync(cmd *cobra.Command, args []string) error {
	_ = setupLogger()
	slog.Debug("Starting topics sync command")

	dryRun, _ := cmd.Flags().GetBool("dry-run")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	report, syncErr := topics.Sync(cfg.ExamplesDir, topics.WithDryRun(dryRun))
	if report == nil {
		return syncErr
	}

	switch cfg.Output {
	case config.OutputJSON:
		err = writeJSON(os.Stdout, report)
	case config.OutputYAML:
		err = writeYAML(os.Stdout, report)
	case config.OutputText:
		writeSyncText(os.Stdout, report)
	default:
		err = errors.Errorf("unsupported output format: %s", cfg.Output)
	}
	if err != nil {
		return err
	}
	return syncErr
}

func writeSyncText(w io.Writer, report *topics.SyncReport) {
	for _, page := range report.NoJSON {
		fmt.Fprintf(w, "NO JSON for %s; skipping\n", filepath.Base(page))
	}
	for _, fs := range report.Updated {
		for _, h := range fs.Added {
			fmt.Fprintf(w, "Added placeholder section for '%s' into %s\n", h, fs.File)
		}
	}
	fmt.Fprintf(w, "Sync complete. Files updated: %d\n", len(report.Updated))
}
