package types

// ExitCode is a process exit status reported by the command line surfaces.
type ExitCode int

// Process exit codes. Every failure kind has its own value so a pipeline can
// tell a skipped setup step from bad lesson SQL.
const (
	ExitOK ExitCode = 0

	// ExitFailure covers configuration problems and unreadable inputs.
	ExitFailure ExitCode = 1

	// ExitExampleErrors is returned by a validation run when any example errored.
	ExitExampleErrors ExitCode = 2

	// ExitQueueMissing is returned when the cleanup queue table was never created.
	ExitQueueMissing ExitCode = 3

	// ExitRolledBack is returned when a confirmed cleanup batch was rolled back.
	ExitRolledBack ExitCode = 2
)
