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

	"github.com/nsxbet/sql-lessons/pkg/cleanup"
	"github.com/nsxbet/sql-lessons/pkg/logger"
	"github.com/nsxbet/sql-lessons/pkg/types"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup [flags]",
	Short: "Preview or execute the queue of pending drop statements",
	Long: `Read the cleanup queue table, print its statements in order and, with
--confirm, execute them inside a single transaction.

Without --confirm nothing is executed. When any statement fails the whole
transaction is rolled back and the command exits with status 2. A missing
queue table exits with status 3.`,
	Args: cobra.NoArgs,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)

	cleanupCmd.Flags().Bool("confirm", false, "execute the statements instead of only previewing them")
	cleanupCmd.Flags().Int("limit", cleanup.NoLimit, "process at most this many statements (negative for all)")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	_ = setupLogger()
	slog.Debug("Starting cleanup command")

	confirm, _ := cmd.Flags().GetBool("confirm")
	limit, _ := cmd.Flags().GetInt("limit")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

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

	executor, err := cleanup.New(session, cleanup.WithQueue(cfg.Cleanup.Table, cfg.Cleanup.Column))
	if err != nil {
		return err
	}

	batch, err := executor.Preview(ctx, limit)
	if err != nil {
		if errors.Is(err, cleanup.ErrQueueMissing) {
			fmt.Fprintf(os.Stderr, "No %s table found. Generate it first in SQL examples.\n", cfg.Cleanup.Table)
			_ = session.Close()
			exit(types.ExitQueueMissing)
		}
		return err
	}

	mode := cleanup.Mode_DRY_RUN
	if confirm {
		mode = cleanup.Mode_CONFIRM
	}

	writePreview(os.Stdout, batch)
	outcome := executor.Run(ctx, batch, mode)
	writeOutcome(os.Stdout, os.Stderr, outcome)

	if outcome.State == cleanup.State_ROLLED_BACK {
		_ = session.Close()
		exit(types.ExitRolledBack)
	}
	return nil
}

func writePreview(w io.Writer, batch *cleanup.Batch) {
	if batch.State() == cleanup.State_EMPTY {
		return
	}
	header := fmt.Sprintf("%d total", len(batch.Statements))
	if batch.Limited() {
		header += fmt.Sprintf(" (limited to %d)", batch.Limit)
	}
	fmt.Fprintf(w, "Preview of statements (%s):\n", header)
	for _, stmt := range batch.Statements {
		fmt.Fprintln(w, stmt)
	}
}

func writeOutcome(stdout, stderr io.Writer, outcome *cleanup.Outcome) {
	switch outcome.State {
	case cleanup.State_EMPTY:
		fmt.Fprintln(stdout, "Queue is empty. Nothing to do.")
	case cleanup.State_PREVIEWED:
		fmt.Fprintln(stdout, "\nDry-run complete. Re-run with --confirm to execute inside a transaction.")
	case cleanup.State_COMMITTED:
		color.New(color.FgGreen).Fprintf(stdout, "Executed %d statements successfully.\n", outcome.Executed)
	case cleanup.State_ROLLED_BACK:
		color.New(color.FgRed).Fprintf(stderr, "Execution failed, rolled back transaction. Error: %v\n", outcome.Err)
	}
}
