// Command fuel is the command-line client of the fuel tracker: vehicles,
// full-tank refuels and consumption statistics kept in one archive on the
// fuel-server backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/and161185/fuel-tracker/internal/errs"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// Exit codes.
const (
	exitUserError = 1
	exitSysError  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(defaultDeps()).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", describe(err))
		stop()
		os.Exit(exitCode(err))
	}
}

// describe adds a hint for the errors a user can fix.
func describe(err error) string {
	switch {
	case errors.Is(err, errs.ErrUnauthorized):
		return err.Error() + " (run `fuel login`)"
	case errors.Is(err, errs.ErrNotReady):
		return err.Error() + " (run `fuel reload`)"
	case errors.Is(err, errs.ErrRateLimited):
		return err.Error() + " (too many failed logins, try again later)"
	default:
		return err.Error()
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, errs.ErrValidation),
		errors.Is(err, errs.ErrNotFound),
		errors.Is(err, errs.ErrUnauthorized),
		errors.Is(err, errs.ErrAlreadyExists),
		errors.Is(err, errs.ErrRateLimited),
		errors.Is(err, errUsage):
		return exitUserError
	default:
		return exitSysError
	}
}
