package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/catht823/journal-club-calendar-bot/config"
	"github.com/catht823/journal-club-calendar-bot/pkg/categorize"
	"github.com/catht823/journal-club-calendar-bot/pkg/logging"
)

// CategoriesCommandDeps holds the dependencies for the categories commands.
type CategoriesCommandDeps struct {
	LoadConfig func() (*config.Config, error)
}

// DefaultCategoriesDeps returns the default dependencies for production use.
func DefaultCategoriesDeps() *CategoriesCommandDeps {
	return &CategoriesCommandDeps{LoadConfig: config.LoadConfig}
}

// NewCategoriesCommand creates the categories command with all subcommands.
func NewCategoriesCommand(deps *CategoriesCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultCategoriesDeps()
	}

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Inspect and test the category configuration",
		Long: `Categories manages the keyword configuration used to tag events.

Each category lists keywords; an event's title, subject and abstract are
scored against them. Declaration order in the file matters: earlier
categories win score ties.`,
	}

	cmd.AddCommand(newCategoriesCheckCommand(deps))
	cmd.AddCommand(newCategoriesShowCommand(deps))
	cmd.AddCommand(newCategoriesTestCommand(deps))

	return cmd
}

// categoriesFile resolves the file argument, falling back to the configured
// path.
func categoriesFile(deps *CategoriesCommandDeps, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	cfg, err := deps.LoadConfig()
	if err != nil {
		return "", fmt.Errorf("loading configuration: %w", err)
	}
	return cfg.CategoriesPath()
}

func newCategoriesCheckCommand(deps *CategoriesCommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "check [file]",
		Short: "Validate a categories file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := categoriesFile(deps, args)
			if err != nil {
				return err
			}
			f, err := categorize.Load(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d categories OK\n", path, len(f.Categories))
			return nil
		},
	}
}

func newCategoriesShowCommand(deps *CategoriesCommandDeps) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show [file]",
		Short: "Show the parsed categories in declaration order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := categoriesFile(deps, args)
			if err != nil {
				return err
			}
			f, err := categorize.Load(path)
			if err != nil {
				return err
			}

			if output != outputText {
				return renderOutput(cmd.OutOrStdout(), output, f)
			}
			w := cmd.OutOrStdout()
			for _, c := range f.Categories {
				fmt.Fprintf(w, "%s: %s\n", c.Name, strings.Join(c.Keywords, ", "))
			}
			if f.FallbackCategory != "" {
				fmt.Fprintf(w, "fallback: %s\n", f.FallbackCategory)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text, json, yaml")
	return cmd
}

func newCategoriesTestCommand(deps *CategoriesCommandDeps) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "test <text>",
		Short: "Classify a piece of text against the configured categories",
		Example: `  jcbot categories test "Optogenetic dissection of hippocampal circuits"
  jcbot categories test --file ./categories.yaml "scRNA-seq atlas of the cortex"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pathArgs []string
			if file != "" {
				pathArgs = []string{file}
			}
			path, err := categoriesFile(deps, pathArgs)
			if err != nil {
				return err
			}
			f, err := categorize.Load(path)
			if err != nil {
				return err
			}

			classifier := categorize.New(f.Categories, f.StopPhrases, logging.NewNopLogger())
			categories := classifier.Classify(strings.Join(args, " "))
			if len(categories) == 0 && f.FallbackCategory != "" {
				categories = []string{f.FallbackCategory}
			}

			if len(categories) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "(no categories matched)")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(categories, ", "))
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Categories file (defaults to configured path)")
	return cmd
}
