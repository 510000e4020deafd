package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"emberc/internal/cache"
	"emberc/internal/diag"
	"emberc/internal/diagfmt"
	"emberc/internal/scriptfile"
	"emberc/internal/translator"
)

func newTranslateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate [flags] <script.toml>",
		Short: "Translate one script to HLSL",
		Args:  cobra.ExactArgs(1),
		RunE:  runTranslate,
	}
	cmd.Flags().StringP("out", "o", "", "write HLSL to this file instead of stdout")
	cmd.Flags().Bool("attributes", false, "list the attributes the script binds")
	cmd.Flags().String("format", "pretty", "diagnostics format (pretty|json|short)")
	cmd.Flags().Bool("with-notes", false, "include diagnostic notes")
	return cmd
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [flags] <script.toml>",
		Short: "Translate a script and report diagnostics only",
		Args:  cobra.ExactArgs(1),
		RunE:  runCheck,
	}
	cmd.Flags().String("format", "pretty", "diagnostics format (pretty|json|short)")
	cmd.Flags().Bool("with-notes", false, "include diagnostic notes")
	return cmd
}

// translation is one translated script file.
type translation struct {
	file *scriptfile.File
	res  *translator.Results
	key  cache.Digest
}

func translateFile(cmd *cobra.Command, s *settings, path string) (*translation, error) {
	f, err := scriptfile.Load(path)
	if err != nil {
		bag := diag.NewBag(1)
		bag.Add(diag.NewError(diag.CfgScript, diag.Anchor{Graph: path}, err.Error()))
		diagfmt.Pretty(cmd.ErrOrStderr(), bag, diagfmt.PrettyOpts{Color: s.useColor})
		return nil, errFailed
	}
	opts := s.opts
	opts.Types = f.Types
	res := translator.Translate(cmd.Context(), f.Script, opts)
	return &translation{file: f, res: res, key: cache.Key(f.Raw, opts)}, nil
}

func runTranslate(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	outPath, err := cmd.Flags().GetString("out")
	if err != nil {
		return fmt.Errorf("failed to get out flag: %w", err)
	}
	showAttributes, err := cmd.Flags().GetBool("attributes")
	if err != nil {
		return fmt.Errorf("failed to get attributes flag: %w", err)
	}

	tr, err := translateFile(cmd, s, args[0])
	if err != nil {
		return err
	}
	if err := printDiagnostics(cmd, s, tr); err != nil {
		return err
	}
	if s.timings {
		printTimings(cmd.ErrOrStderr(), tr.res.Timings)
	}
	name := tr.file.Script.FullName()

	if !tr.res.OK {
		if last, ok, err := s.cache.LastGood(name); err == nil && ok {
			fmt.Fprintf(cmd.ErrOrStderr(), "note: keeping the previous output of %s from %s\n",
				name, last.StoredAt.Local().Format("2006-01-02 15:04:05"))
		}
		return errFailed
	}

	if err := s.cache.Put(name, tr.key, s.opts, tr.res); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s %s: %v\n", diag.CfgCache.ID(), diag.CfgCache.Title(), err)
	}

	out := cmd.OutOrStdout()
	if outPath != "" {
		if err := os.WriteFile(outPath, []byte(tr.res.HLSL), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", outPath, err)
		}
	} else {
		fmt.Fprint(out, tr.res.HLSL)
	}
	if showAttributes {
		w := out
		if outPath == "" {
			w = cmd.ErrOrStderr()
		}
		printAttributes(w, tr.res)
	}
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	tr, err := translateFile(cmd, s, args[0])
	if err != nil {
		return err
	}
	if err := printDiagnostics(cmd, s, tr); err != nil {
		return err
	}
	if s.timings {
		printTimings(cmd.ErrOrStderr(), tr.res.Timings)
	}
	if !tr.res.OK {
		return errFailed
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", tr.file.Script.FullName())
	return nil
}

func printDiagnostics(cmd *cobra.Command, s *settings, tr *translation) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	bag := tr.res.Diagnostics
	describe := describeScript(tr.file.Script)

	switch strings.ToLower(format) {
	case "pretty":
		if bag.Len() == 0 {
			return nil
		}
		diagfmt.Pretty(cmd.ErrOrStderr(), bag, diagfmt.PrettyOpts{
			Color:     s.useColor,
			Width:     terminalWidth(os.Stderr),
			ShowNotes: withNotes,
			ShowFixes: true,
			Summary:   true,
			Describe:  describe,
		})
	case "short":
		if out := diag.FormatGoldenDiagnostics(bag.Items(), withNotes); out != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), out)
		}
	case "json":
		return diagfmt.JSON(cmd.OutOrStdout(), bag, diagfmt.JSONOpts{
			IncludeNotes: withNotes,
			IncludeFixes: true,
			Describe:     describe,
		})
	default:
		return fmt.Errorf("unknown format %q (expected pretty|json|short)", format)
	}
	return nil
}

// printAttributes lists the bound attributes in aligned columns.
func printAttributes(w io.Writer, res *translator.Results) {
	width := 0
	for _, a := range res.Attributes {
		width = max(width, runewidth.StringWidth(a.Name))
	}
	for _, a := range res.Attributes {
		fmt.Fprintf(w, "%s  %s\n", runewidth.FillRight(a.Name, width), a.Type.HLSLName())
	}
}
