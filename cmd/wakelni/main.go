package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/wakelni-client/apiclient"
	"github.com/jrsteele09/wakelni-client/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

const (
	exitFailure        = 1
	exitSessionExpired = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(errOut, "Recovered from panic: %v\n", r)
			debug.PrintStack()
			code = exitFailure
		}
	}()

	if err := config.LoadDotEnv(); err != nil {
		log.Warn().Err(err).Msg("Failed to load .env")
	}

	a := newApplication(config.New(), in, out, errOut)
	err := a.cli().RunContext(ctx, args)
	return exitCode(err, errOut)
}

// exitCode reports err on errOut. An ended session gets its own message and code so
// scripts can tell it apart from an ordinary failure.
func exitCode(err error, errOut io.Writer) int {
	if err == nil {
		return 0
	}
	if apiclient.IsSessionExpired(err) {
		fmt.Fprintln(errOut, "session expired, please sign in again")
		return exitSessionExpired
	}

	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		if msg := exitErr.Error(); msg != "" {
			fmt.Fprintln(errOut, msg)
		}
		return exitErr.ExitCode()
	}

	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		fmt.Fprintf(errOut, "Error: %s (HTTP %d)\n", apiErr.Message, apiErr.StatusCode)
		return exitFailure
	}
	fmt.Fprintf(errOut, "Error: %s\n", err)
	return exitFailure
}

func displayAppname(w io.Writer, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprint(w, myFigure.String())
	fmt.Fprintln(w)
}
