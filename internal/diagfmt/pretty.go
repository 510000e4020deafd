package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"emberc/internal/diag"
)

// Pretty writes diagnostics in human readable form. bag is expected to be
// sorted. Each diagnostic prints as
//
//	<anchor>: <SEV> <CODE>: <message>
//
// followed by its notes and fixes.
func Pretty(w io.Writer, bag *diag.Bag, opts PrettyOpts) {
	p := newPalette(opts.Color)
	var errs, warns int
	for _, d := range bag.Items() {
		switch {
		case d.Severity.IsFatal():
			errs++
		case d.Severity == diag.SevWarning:
			warns++
		}

		head := fmt.Sprintf("%s: %s %s: ", location(d.Primary, opts.Describe),
			p.severity(d.Severity), p.code.Sprint(d.Code.ID()))
		indent := runewidth.StringWidth(stripped(d.Primary, d.Severity, d.Code, opts.Describe))
		writeWrapped(w, head, d.Message, indent, opts.Width)

		if opts.ShowNotes {
			for _, n := range d.Notes {
				at := ""
				if !n.Anchor.IsZero() && n.Anchor != d.Primary {
					at = location(n.Anchor, opts.Describe) + ": "
				}
				fmt.Fprintf(w, "  %s %s%s\n", p.note.Sprint("= note:"), at, n.Msg)
			}
		}
		if opts.ShowFixes {
			for _, f := range d.Fixes {
				fmt.Fprintf(w, "  %s %s\n", p.fix.Sprint("= fix:"), f.Title)
			}
		}
	}
	if opts.Summary && (errs > 0 || warns > 0) {
		fmt.Fprintf(w, "%s, %s\n", plural(errs, "error"), plural(warns, "warning"))
	}
}

func location(a diag.Anchor, describe Describer) string {
	loc := a.String()
	if loc == "" {
		loc = "<script>"
	}
	if describe != nil {
		if name := describe(a); name != "" {
			loc += " (" + name + ")"
		}
	}
	return loc
}

// stripped is the uncoloured header, used to measure the wrap indent.
func stripped(a diag.Anchor, sev diag.Severity, code diag.Code, describe Describer) string {
	return fmt.Sprintf("%s: %s %s: ", location(a, describe), sev, code.ID())
}

// writeWrapped prints msg after head, wrapping words at width columns and
// indenting continuation lines by indent.
func writeWrapped(w io.Writer, head, msg string, indent, width int) {
	if width <= 0 || indent+runewidth.StringWidth(msg) <= width || width-indent < 20 {
		fmt.Fprintf(w, "%s%s\n", head, msg)
		return
	}
	pad := strings.Repeat(" ", indent)
	line := head
	col := indent
	first := true
	for _, word := range strings.Fields(msg) {
		ww := runewidth.StringWidth(word)
		if !first && col+1+ww > width {
			fmt.Fprintln(w, line)
			line, col, first = pad, indent, true
		}
		if !first {
			line += " "
			col++
		}
		line += word
		col += ww
		first = false
	}
	fmt.Fprintln(w, line)
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

type palette struct {
	err, warn, info, crit, code, note, fix *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:  color.New(color.FgRed, color.Bold),
		warn: color.New(color.FgYellow, color.Bold),
		info: color.New(color.FgCyan),
		crit: color.New(color.FgMagenta, color.Bold),
		code: color.New(color.Bold),
		note: color.New(color.FgBlue),
		fix:  color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.crit, p.code, p.note, p.fix} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) string {
	switch s {
	case diag.SevCritical:
		return p.crit.Sprint(s.String())
	case diag.SevError:
		return p.err.Sprint(s.String())
	case diag.SevWarning:
		return p.warn.Sprint(s.String())
	}
	return p.info.Sprint(s.String())
}
