package diag

import (
	"fmt"
	"strings"
)

// FormatGoldenDiagnostics renders diagnostics into a stable,
// single-line-per-entry representation for golden tests and short CLI
// output. Order is preserved.
func FormatGoldenDiagnostics(diags []Diagnostic, includeNotes bool) string {
	var b strings.Builder
	for _, d := range diags {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s %s %s %s", severityLabel(d.Severity), d.Code.ID(), anchorLabel(d.Primary), sanitizeMessage(d.Message))
		if !includeNotes {
			continue
		}
		for _, n := range d.Notes {
			fmt.Fprintf(&b, "\nnote %s %s %s", d.Code.ID(), anchorLabel(n.Anchor), sanitizeMessage(n.Msg))
		}
	}
	return b.String()
}

func anchorLabel(a Anchor) string {
	if a.Graph == "" && a.IsZero() {
		return "-"
	}
	return a.String()
}

func severityLabel(sev Severity) string {
	switch sev {
	case SevCritical:
		return "critical"
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	default:
		return "info"
	}
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
