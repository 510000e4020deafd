// Package version holds the build metadata of the emberc CLI. The
// variables can be overridden at build time via -ldflags.
package version

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

const Tool = "emberc"

// Tagline follows the version in the pretty banner.
const Tagline = "particle graphs in, HLSL out"

var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// GitMessage is an optional git commit message.
	GitMessage = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

// Info is a trimmed snapshot of the build metadata.
type Info struct {
	Tool       string `json:"tool"`
	Version    string `json:"version"`
	Tagline    string `json:"tagline"`
	GitCommit  string `json:"git_commit,omitempty"`
	GitMessage string `json:"git_message,omitempty"`
	BuildDate  string `json:"build_date,omitempty"`
}

// Current returns the build metadata; an empty Version reads "dev".
func Current() Info {
	v := strings.TrimSpace(Version)
	if v == "" {
		v = "dev"
	}
	return Info{
		Tool:       Tool,
		Version:    v,
		Tagline:    Tagline,
		GitCommit:  strings.TrimSpace(GitCommit),
		GitMessage: strings.TrimSpace(GitMessage),
		BuildDate:  strings.TrimSpace(BuildDate),
	}
}

// Fields selects the optional metadata a banner shows.
type Fields struct {
	Hash, Message, Date bool
}

// Any reports whether at least one optional field is selected.
func (f Fields) Any() bool { return f.Hash || f.Message || f.Date }

// WritePretty prints the human banner. Version components are coloured
// when useColor is set.
func WritePretty(w io.Writer, info Info, fields Fields, useColor bool) {
	fmt.Fprintf(w, "%s %s: %s\n", info.Tool, colorVersion(info.Version, useColor), info.Tagline)
	if fields.Hash {
		fmt.Fprintf(w, "commit:  %s\n", valueOrUnknown(info.GitCommit))
	}
	if fields.Message {
		fmt.Fprintf(w, "message: %s\n", valueOrUnknown(info.GitMessage))
	}
	if fields.Date {
		fmt.Fprintf(w, "built:   %s\n", valueOrUnknown(info.BuildDate))
	}
}

// WriteJSON prints info as indented JSON, keeping only the selected
// optional fields.
func WriteJSON(w io.Writer, info Info, fields Fields) error {
	out := Info{Tool: info.Tool, Version: info.Version, Tagline: info.Tagline}
	if fields.Hash {
		out.GitCommit = valueOrUnknown(info.GitCommit)
	}
	if fields.Message {
		out.GitMessage = valueOrUnknown(info.GitMessage)
	}
	if fields.Date {
		out.BuildDate = valueOrUnknown(info.BuildDate)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// colorVersion paints major, minor and patch in separate colours.
func colorVersion(v string, useColor bool) string {
	if !useColor {
		return v
	}
	core, suffix, _ := strings.Cut(v, "-")
	parts := strings.SplitN(core, ".", 3)
	if len(parts) != 3 {
		return v
	}
	paints := []*color.Color{
		color.New(color.FgYellow, color.Bold),
		color.New(color.FgGreen, color.Bold),
		color.New(color.FgBlue, color.Bold),
	}
	for i, p := range paints {
		p.EnableColor()
		parts[i] = p.Sprint(parts[i])
	}
	out := strings.Join(parts, ".")
	if suffix != "" {
		out += "-" + suffix
	}
	return out
}

func valueOrUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
