package main

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"emberc/internal/diag"
	"emberc/internal/diagfmt"
	"emberc/internal/queue"
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [flags] [paths...]",
		Short: "Translate many scripts in parallel",
		Long: `Translate every script file named on the command line. Directories are
searched recursively for *.toml files. Without arguments the [batch].scripts
globs of emberc.toml are used.`,
		RunE: runBatch,
	}
	cmd.Flags().Int("jobs", 0, "max parallel translations (0 = config or GOMAXPROCS)")
	cmd.Flags().String("ui", "auto", "progress view (auto|on|off)")
	cmd.Flags().String("out-dir", "", "write <script>.hlsl files into this directory")
	return cmd
}

func runBatch(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	showProgress, err := progressView(uiValue)
	if err != nil {
		return err
	}
	outDir, err := cmd.Flags().GetString("out-dir")
	if err != nil {
		return fmt.Errorf("failed to get out-dir flag: %w", err)
	}
	jobs := s.cfg.Batch.Jobs
	if cmd.Flags().Changed("jobs") {
		jobs, _ = cmd.Flags().GetInt("jobs")
	}

	paths, err := collectScripts(args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		paths, err = s.cfg.ScriptPaths()
		if err != nil {
			return err
		}
	}
	if len(paths) == 0 {
		return fmt.Errorf("no scripts to translate")
	}

	queueJobs := make([]queue.Job, len(paths))
	for i, p := range paths {
		queueJobs[i] = queue.FileJob(p)
	}
	opts := queue.Options{Jobs: jobs, Translate: s.opts, Cache: s.cache}

	var results []queue.Result
	if showProgress {
		results, err = runQueueWithUI(cmd.Context(), "Translating", queueJobs, opts)
	} else {
		opts.Sink = lineSink(cmd.ErrOrStderr())
		results, err = queue.Run(cmd.Context(), queueJobs, opts)
	}
	if err != nil {
		return err
	}

	errOut := cmd.ErrOrStderr()
	for _, r := range results {
		reportResult(errOut, s, &r)
		if outDir != "" && r.HLSL != "" {
			if err := writeOutput(outDir, r.Name, r.HLSL); err != nil {
				return err
			}
		}
	}

	sum := queue.Summarize(results)
	fmt.Fprintf(cmd.OutOrStdout(), "%d translated (%d cached), %d failed, %d abandoned\n",
		sum.Done, sum.Cached, sum.Failed, sum.Abandoned)
	if sum.Failed > 0 {
		return errFailed
	}
	return nil
}

// collectScripts expands directories into the *.toml files below them.
func collectScripts(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("script %s: %w", arg, err)
		}
		if !info.IsDir() {
			add(arg)
			continue
		}
		var found []string
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(path, ".toml") && filepath.Base(path) != "emberc.toml" {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", arg, err)
		}
		sort.Strings(found)
		for _, p := range found {
			add(p)
		}
	}
	return out, nil
}

// lineSink prints one line per finished job.
func lineSink(w io.Writer) queue.Sink {
	return queue.SinkFunc(func(ev queue.Event) {
		if ev.Job == "" || !ev.Status.Finished() {
			return
		}
		status := string(ev.Status)
		if ev.Status == queue.StatusDone && ev.Stage == queue.StageCache {
			status = "cached"
		}
		fmt.Fprintf(w, "%10s %s (%.1f ms)\n", status, ev.Job, float64(ev.Elapsed.Microseconds())/1000)
	})
}

func reportResult(w io.Writer, s *settings, r *queue.Result) {
	switch {
	case r.Err != nil:
		bag := diag.NewBag(1)
		bag.Add(diag.NewError(diag.CfgScript, diag.Anchor{Graph: r.Name}, r.Err.Error()))
		diagfmt.Pretty(w, bag, diagfmt.PrettyOpts{Color: s.useColor})
	case r.Results != nil && r.Results.Diagnostics.Len() > 0:
		fmt.Fprintf(w, "%s:\n", r.Name)
		diagfmt.Pretty(w, r.Results.Diagnostics, diagfmt.PrettyOpts{
			Color:     s.useColor,
			ShowFixes: true,
		})
	}
	if r.LastGood != nil {
		fmt.Fprintf(w, "note: keeping the previous output of %s\n", r.Script)
	}
	if r.CacheErr != nil {
		fmt.Fprintf(w, "warning: %s %s: %v\n", diag.CfgCache.ID(), diag.CfgCache.Title(), r.CacheErr)
	}
}

func writeOutput(dir, scriptPath, hlsl string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	name := strings.TrimSuffix(filepath.Base(scriptPath), filepath.Ext(scriptPath)) + ".hlsl"
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(hlsl), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
