// Package main provides the jcbot CLI entry point.
// jcbot turns seminar announcement emails into calendar events.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/catht823/journal-club-calendar-bot/cmd"
	"github.com/catht823/journal-club-calendar-bot/pkg/buildinfo"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "jcbot",
	Short: "Journal club calendar bot",
	Long: `jcbot reads seminar and journal club announcement emails and turns them
into calendar events.

It extracts the title, speaker, date and time, location, meeting link and
abstract from free-form announcement text, detects updates and
cancellations, tags events with research categories, and keeps a record of
what has already been processed.

COMMON WORKFLOWS:
  Process a mailbox directory:  jcbot process --dir ./inbox
  Inspect one message:          jcbot parse announcement.eml
  Run as a service:             jcbot serve
  Test category keywords:       jcbot categories test "optogenetics in V1"`,
	Version:       buildinfo.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(cmd.NewProcessCommand(nil))
	rootCmd.AddCommand(cmd.NewParseCommand(nil))
	rootCmd.AddCommand(cmd.NewServeCommand(nil))
	rootCmd.AddCommand(cmd.NewCategoriesCommand(nil))
	rootCmd.AddCommand(cmd.NewAuthCommand(nil))
	rootCmd.AddCommand(cmd.NewConfigCommand())
	rootCmd.AddCommand(cmd.NewVersionCommand())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
