package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nsxbet/sql-lessons/pkg/config"
	"github.com/nsxbet/sql-lessons/pkg/logger"
	"github.com/nsxbet/sql-lessons/pkg/store"
	"github.com/nsxbet/sql-lessons/pkg/types"
	"github.com/nsxbet/sql-lessons/pkg/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate [flags]",
	Short: "Run every lesson example against the SQL engine",
	Long: `Run every example of every lesson in the lessons directory against one
engine session, in file and document order, and report the outcome of each.

Lessons are cumulative: tables created by one example are visible to the
examples after it. A failing example does not stop the run. The command exits
with status 2 when any example failed.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().Bool("no-sample", false, "do not fetch a sample row after successful examples")
	_ = viper.BindPFlag("no-sample", validateCmd.Flags().Lookup("no-sample"))
}

func runValidate(cmd *cobra.Command, args []string) error {
	_ = setupLogger()
	slog.Debug("Starting validate command")

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
	slog.Debug("Lessons loaded", "dir", cfg.ExamplesDir, "files", lessons.Len())

	ctx := context.Background()
	session, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			slog.Warn("Failed to close session", logger.Error(err))
		}
	}()

	v := validator.New(session, validator.WithSampling(!viper.GetBool("no-sample")))
	report, err := v.Validate(ctx, lessons)
	if err != nil {
		return err
	}

	if err := outputValidation(os.Stdout, report, cfg.Output); err != nil {
		return err
	}

	if code := validationExitCode(report); code != types.ExitOK {
		_ = session.Close()
		exit(code)
	}
	return nil
}

// validationExitCode maps a report to the process status: example errors
// first, then unreadable lesson files.
func validationExitCode(report *validator.Report) types.ExitCode {
	switch {
	case report.HasErrors():
		return types.ExitExampleErrors
	case len(report.Unreadable) > 0:
		return types.ExitFailure
	default:
		return types.ExitOK
	}
}

func outputValidation(w io.Writer, report *validator.Report, format string) error {
	switch format {
	case config.OutputJSON:
		return writeJSON(w, report)
	case config.OutputYAML:
		return writeYAML(w, report)
	case config.OutputText:
		writeValidationText(w, report)
		return nil
	default:
		return errors.Errorf("unsupported output format: %s", format)
	}
}

func writeValidationText(w io.Writer, report *validator.Report) {
	fmt.Fprintln(w, report.String())

	for _, u := range report.Unreadable {
		fmt.Fprintf(w, "\nFILE: %s - %s\n", u.File, statusColor(types.Status_ERROR).Sprintf("unreadable (%s)", u.Error))
	}

	for _, lesson := range report.Lessons {
		fmt.Fprintf(w, "\nFILE: %s - %s\n", lesson.File, lesson.Title)
		for _, section := range lesson.Sections {
			fmt.Fprintf(w, " SECTION: %s\n", section.Title)
			for _, ex := range section.Examples {
				line := fmt.Sprintf("  - %s: %s", ex.Name, statusColor(ex.Status).Sprint(ex.Status))
				switch {
				case ex.Status == types.Status_ERROR:
					line += fmt.Sprintf("  (ERROR: %s)", ex.Error)
				case ex.SampleRow != nil:
					line += fmt.Sprintf("  (sample_row: %s)", formatRow(ex.SampleRow))
				}
				fmt.Fprintln(w, line)
			}
		}
	}

	if !report.HasErrors() {
		fmt.Fprintln(w, "\nAll examples executed without error")
	}
}

func statusColor(status types.Status) *color.Color {
	switch status {
	case types.Status_OK:
		return color.New(color.FgGreen)
	case types.Status_ERROR:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgYellow)
	}
}
