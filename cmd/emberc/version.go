package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"emberc/internal/version"
)

func newVersionCmd() *cobra.Command {
	var (
		format      string
		showHash    bool
		showMessage bool
		showDate    bool
		showFull    bool
	)
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show emberc build metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := version.Fields{
				Hash:    showHash || showFull,
				Message: showMessage || showFull,
				Date:    showDate || showFull,
			}
			info := version.Current()
			switch strings.ToLower(format) {
			case "json":
				return version.WriteJSON(cmd.OutOrStdout(), info, fields)
			case "pretty":
				colorFlag, err := cmd.Flags().GetString("color")
				if err != nil {
					return fmt.Errorf("failed to get color flag: %w", err)
				}
				useColor := colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stdout))
				version.WritePretty(cmd.OutOrStdout(), info, fields, useColor)
				return nil
			}
			return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
		},
	}
	cmd.Flags().BoolVar(&showHash, "hash", false, "include git commit hash")
	cmd.Flags().BoolVar(&showMessage, "message", false, "include git commit message")
	cmd.Flags().BoolVar(&showDate, "date", false, "include build timestamp")
	cmd.Flags().BoolVar(&showFull, "full", false, "show every recorded bit of build metadata")
	cmd.Flags().StringVar(&format, "format", "pretty", "output format (pretty|json)")
	return cmd
}
