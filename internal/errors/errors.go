package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/abstain/internal/constants"
	"github.com/julianstephens/abstain/internal/logger"
	"github.com/julianstephens/abstain/internal/streak"
)

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// ExitCode maps an error to the process exit code the CLI reports for it
func ExitCode(err error) int {
	var perr *streak.PersistenceError
	switch {
	case err == nil:
		return 0
	case stderrors.Is(err, streak.ErrNotFound):
		return constants.ExitCodeNotFound
	case stderrors.Is(err, streak.ErrAlreadyInitialized):
		return constants.ExitCodeAlreadyInitialized
	case stderrors.Is(err, streak.ErrGracePeriodAlreadyUsed):
		return constants.ExitCodeGracePeriodUsed
	case stderrors.As(err, &perr):
		return constants.ExitCodePersistence
	default:
		return constants.ExitCodeFailure
	}
}

// Hint returns a follow-up suggestion for domain errors, or "" when there is none
func Hint(err error) string {
	switch {
	case stderrors.Is(err, streak.ErrNotFound):
		return "Run 'abstain init' to start tracking."
	case stderrors.Is(err, streak.ErrAlreadyInitialized):
		return "Use 'abstain reset' first if you really want to start over."
	case stderrors.Is(err, streak.ErrGracePeriodAlreadyUsed):
		return "The grace period becomes available again after a relapse."
	default:
		return ""
	}
}

// Fatal logs an error and exits the program with the exit code mapped by ExitCode
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		if hint := Hint(err); hint != "" {
			fmt.Fprintf(os.Stderr, "%s\n", hint)
		}
		os.Exit(ExitCode(err))
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(constants.ExitCodeFailure)
}
