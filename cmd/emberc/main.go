package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"emberc/internal/version"
)

// errFailed signals that a translation failed after its diagnostics were
// already printed.
var errFailed = errors.New("translation failed")

// newRootCmd builds the command tree with its persistent flags. finish
// flushes tracing and must run after Execute, whatever it returned.
func newRootCmd() (root *cobra.Command, finish func()) {
	var cleanup func()
	root = &cobra.Command{
		Use:           "emberc",
		Short:         "Translate particle simulation graphs to HLSL",
		Long:          `emberc compiles particle spawn/update/event graphs described in TOML into HLSL simulation code`,
		Version:       version.Current().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cleanup, err = setupTracing(cmd)
			return err
		},
	}

	root.AddCommand(newTranslateCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newBatchCmd())
	root.AddCommand(newVersionCmd())

	pf := root.PersistentFlags()
	pf.String("config", "", "path to emberc.toml (default: search upward from the working directory)")
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("timings", false, "show translation phase timings")
	pf.Int("max-diagnostics", 0, "maximum number of diagnostics per script (0 = config or 256)")
	pf.String("target", "", "simulation target (cpu|gpu)")
	pf.Bool("rapid-iteration", false, "keep module inputs as uniforms")
	pf.Bool("stat-scopes", false, "emit stat scope markers")
	pf.Bool("no-cache", false, "disable the translation cache")
	pf.String("cache-dir", "", "translation cache directory")

	pf.String("trace", "", "trace output file (- for stderr)")
	pf.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-mode", "stream", "trace storage (stream|ring|both)")
	pf.Int("trace-ring-size", 4096, "events kept by the ring tracer")
	pf.Duration("trace-heartbeat", time.Duration(0), "heartbeat interval (0 disables)")

	finish = func() {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
	}
	return root, finish
}

// main runs the root command. Any failure exits with status 1.
func main() {
	root, finish := newRootCmd()
	err := root.Execute()
	finish()
	if err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(os.Stderr, "emberc: %v\n", err)
		}
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
