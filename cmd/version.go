package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/catht823/journal-club-calendar-bot/pkg/buildinfo"
)

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != outputText {
				return renderOutput(cmd.OutOrStdout(), output, buildinfo.Get("jcbot"))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "jcbot %s\n", buildinfo.String())
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text, json, yaml")
	return cmd
}
