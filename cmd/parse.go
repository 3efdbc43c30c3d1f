package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/catht823/journal-club-calendar-bot/config"
	"github.com/catht823/journal-club-calendar-bot/pkg/logging"
	"github.com/catht823/journal-club-calendar-bot/pkg/parser"
	"github.com/catht823/journal-club-calendar-bot/pkg/pipeline"
)

// ParseCommandDeps holds the dependencies for the parse command.
type ParseCommandDeps struct {
	LoadConfig func() (*config.Config, error)
}

// DefaultParseDeps returns the default dependencies for production use.
func DefaultParseDeps() *ParseCommandDeps {
	return &ParseCommandDeps{LoadConfig: config.LoadConfig}
}

// parseResult is the structured output of the parse command.
type parseResult struct {
	MessageID        string   `json:"message_id" yaml:"message_id"`
	Title            string   `json:"title" yaml:"title"`
	Start            string   `json:"start" yaml:"start"`
	End              string   `json:"end" yaml:"end"`
	Timezone         string   `json:"timezone" yaml:"timezone"`
	Speaker          string   `json:"speaker,omitempty" yaml:"speaker,omitempty"`
	Location         string   `json:"location,omitempty" yaml:"location,omitempty"`
	URL              string   `json:"url,omitempty" yaml:"url,omitempty"`
	Abstract         string   `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	EmailType        string   `json:"email_type" yaml:"email_type"`
	Cancelled        bool     `json:"cancelled,omitempty" yaml:"cancelled,omitempty"`
	OriginalEventRef string   `json:"original_event_ref,omitempty" yaml:"original_event_ref,omitempty"`
	Categories       []string `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// NewParseCommand creates the parse command.
func NewParseCommand(deps *ParseCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultParseDeps()
	}

	var output string

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a single announcement message and print the event",
		Long: `Parse extracts event details from one .eml or .txt message file without
touching storage or the calendar. Useful for inspecting how a message would be
interpreted before processing it.`,
		Example: `  # Inspect a saved email
  jcbot parse announcement.eml

  # Structured output for scripting
  jcbot parse announcement.txt -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			log := logging.NewNopLogger()

			msg, err := pipeline.ReadMessageFile(args[0])
			if err != nil {
				return err
			}

			p, err := parser.New(parser.Config{
				Timezone:               cfg.Parser.Timezone,
				DefaultDurationMinutes: cfg.Parser.DefaultDurationMinutes,
				AllowPlaceholderTime:   cfg.Parser.AllowPlaceholderTime,
				DefaultTitle:           cfg.Parser.DefaultTitle,
			}, log)
			if err != nil {
				return fmt.Errorf("building parser: %w", err)
			}

			event, err := p.Parse(*msg)
			if err != nil {
				return fmt.Errorf("parsing message: %w", err)
			}

			res := parseResult{
				MessageID:        msg.ID,
				Title:            event.Title,
				Start:            event.Start.Format(time.RFC3339),
				End:              event.End.Format(time.RFC3339),
				Timezone:         event.Timezone,
				Speaker:          event.Speaker,
				Location:         event.Location,
				URL:              event.URL,
				Abstract:         event.Abstract,
				EmailType:        string(event.EmailType),
				Cancelled:        event.Cancelled,
				OriginalEventRef: event.OriginalEventRef,
			}

			if classifier, fallback, err := loadClassifier(cfg, log); err == nil && classifier != nil {
				text := strings.Join([]string{msg.Subject, event.Title, event.Abstract}, "\n")
				res.Categories = classifier.Classify(text)
				if len(res.Categories) == 0 && fallback != "" {
					res.Categories = []string{fallback}
				}
			}

			if output != outputText {
				return renderOutput(cmd.OutOrStdout(), output, res)
			}
			printParseResult(cmd, res)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text, json, yaml")

	return cmd
}

func printParseResult(cmd *cobra.Command, res parseResult) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Title:     %s\n", res.Title)
	fmt.Fprintf(w, "Type:      %s\n", res.EmailType)
	fmt.Fprintf(w, "Start:     %s\n", res.Start)
	fmt.Fprintf(w, "End:       %s\n", res.End)
	if res.Speaker != "" {
		fmt.Fprintf(w, "Speaker:   %s\n", res.Speaker)
	}
	if res.Location != "" {
		fmt.Fprintf(w, "Location:  %s\n", res.Location)
	}
	if res.URL != "" {
		fmt.Fprintf(w, "URL:       %s\n", res.URL)
	}
	if res.OriginalEventRef != "" {
		fmt.Fprintf(w, "Refers to: %s\n", res.OriginalEventRef)
	}
	if len(res.Categories) > 0 {
		fmt.Fprintf(w, "Categories: %s\n", strings.Join(res.Categories, ", "))
	}
	if res.Abstract != "" {
		fmt.Fprintf(w, "Abstract:  %s\n", res.Abstract)
	}
}
