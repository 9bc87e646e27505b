package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/nsxbet/sql-lessons/pkg/config"
	"github.com/nsxbet/sql-lessons/pkg/exercise"
	"github.com/nsxbet/sql-lessons/pkg/store"
	"github.com/nsxbet/sql-lessons/pkg/types"
)

var exercisesCmd = &cobra.Command{
	Use:   "exercises [flags]",
	Short: "Generate concrete exercises from each lesson's setup statements",
	Long: `Infer the main table of every lesson from its example SQL and replace the
lesson's exercises with three generated ones: a basic select, an aggregate
and a filtered top 10.

The lesson description gains a note naming the table. Running the command
twice leaves the files unchanged.`,
	Args: cobra.NoArgs,
	RunE: runExercises,
}

func init() {
	rootCmd.AddCommand(exercisesCmd)

	exercisesCmd.Flags().Bool("dry-run", false, "report the changes without writing files")
}

func runExercises(cmd *cobra.Command, args []string) error {
	_ = setupLogger()
	slog.Debug("Starting exercises command")

	dryRun, _ := cmd.Flags().GetBool("dry-run")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	lessons, err := store.LoadDir(cfg.ExamplesDir)
	if err != nil {
		if errors.Is(err, store.ErrNoDocuments) {
			fmt.Fprintln(os.Stderr, "No JSON files found in", cfg.ExamplesDir)
			exit(types.ExitFailure)
		}
		return err
	}

	summary, procErr := exercise.NewSynthesizer(exercise.WithDryRun(dryRun)).Process(lessons)
	if summary != nil {
		if err := outputExercises(os.Stdout, summary, cfg.Output); err != nil {
			return err
		}
	}
	return procErr
}

func outputExercises(w io.Writer, summary *exercise.Summary, format string) error {
	switch format {
	case config.OutputJSON:
		return writeJSON(w, summary)
	case config.OutputYAML:
		return writeYAML(w, summary)
	case config.OutputText:
		writeExercisesText(w, summary)
		return nil
	default:
		return errors.Errorf("unsupported output format: %s", format)
	}
}

func writeExercisesText(w io.Writer, summary *exercise.Summary) {
	fmt.Fprintf(w, "Updated %d files\n", len(summary.Updated))
	for _, u := range summary.Updated {
		fmt.Fprintf(w, "  %s -> table= %s key= %s agg= %s\n", u.File, u.Plan.Table, u.Plan.Key, u.Plan.Agg)
	}
	fmt.Fprintf(w, "Skipped %d files:\n", len(summary.Skipped))
	for _, s := range summary.Skipped {
		fmt.Fprintf(w, "  (%s, %s)\n", s.File, s.Reason)
	}
}
