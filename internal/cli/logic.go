package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/idelchi/dupes/internal/dupes"
)

// newLogger returns the diagnostics logger, writing to w.
func newLogger(w io.Writer, debug bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	})

	log.SetLevel(logrus.WarnLevel)
	if debug {
		log.SetLevel(logrus.DebugLevel)
	}

	return log
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

func logic(cmd *cobra.Command, cfg config) error {
	stderr := cmd.ErrOrStderr()

	enableProgress := cfg.output != "json" &&
		!cfg.debug &&
		isTerminal(stderr)

	options := cfg.options
	options.Logger = newLogger(stderr, cfg.debug)

	var progress *terminalProgress
	if enableProgress {
		// Hide cursor for in-place updates; restore on exit.
		fmt.Fprint(stderr, "\033[?25l")
		defer fmt.Fprint(stderr, "\033[?25h")

		progress = newTerminalProgress(stderr)
	}

	var (
		report *dupes.Report
		err    error
	)

	if progress != nil {
		report, err = dupes.Run(cmd.Context(), options, progress)
		progress.done()
	} else {
		report, err = dupes.Run(cmd.Context(), options, nil)
	}

	if errors.Is(err, dupes.ErrPathNotFound) || errors.Is(err, dupes.ErrNotADirectory) {
		return fmt.Errorf("invalid path: %w", err)
	}

	if err != nil {
		return err
	}

	switch cfg.output {
	case "json":
		return PrintJSON(report, cmd.OutOrStdout())
	case "table":
		return PrintTable(report, cmd.OutOrStdout())
	default:
		return fmt.Errorf("unknown output format: %s", cfg.output)
	}
}
