// Command monkeyctl operates a monkeycore ledger from the shell. Settings
// come from MONKEYCORE_* environment variables; see internal/config.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"monkeycore/pkg/domain"
)

// Exit codes.
const (
	exitOK       = 0
	exitFailure  = 1
	exitRejected = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, nil)
	stop()
	os.Exit(code)
}

// run executes one command line. vars replaces the process environment when
// non-nil.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, vars map[string]string) int {
	cmd := newRootCmd(&app{vars: vars, stdout: stdout, stderr: stderr})
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		if code := domain.CodeOf(err); code != "" {
			fmt.Fprintf(stderr, "code: %s (%s)\n", code, domain.KindOf(err))
			return exitRejected
		}
		return exitFailure
	}
	return exitOK
}
