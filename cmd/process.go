package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/catht823/journal-club-calendar-bot/config"
	"github.com/catht823/journal-club-calendar-bot/pkg/categorize"
	"github.com/catht823/journal-club-calendar-bot/pkg/logging"
	"github.com/catht823/journal-club-calendar-bot/pkg/observability"
	"github.com/catht823/journal-club-calendar-bot/pkg/parser"
	"github.com/catht823/journal-club-calendar-bot/pkg/pipeline"
	"github.com/catht823/journal-club-calendar-bot/pkg/storage"
)

// ProcessCommandDeps holds the dependencies for the process command.
// Overridable for testing.
type ProcessCommandDeps struct {
	LoadConfig func() (*config.Config, error)
	OpenRepo   func(context.Context, *config.Config, logging.Logger) (storage.Repository, error)

	// Sink overrides the calendar sink; nil means the logging sink.
	Sink pipeline.CalendarSink

	// Metrics is optional; nil disables metric recording.
	Metrics *observability.Metrics
}

// DefaultProcessDeps returns the default dependencies for production use.
func DefaultProcessDeps() *ProcessCommandDeps {
	return &ProcessCommandDeps{
		LoadConfig: config.LoadConfig,
		OpenRepo:   storage.Open,
	}
}

// NewProcessCommand creates the process command.
func NewProcessCommand(deps *ProcessCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultProcessDeps()
	}

	var (
		dir      string
		watch    bool
		interval time.Duration
		output   string
	)

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Process announcement emails into calendar events",
		Long: `Process reads seminar announcement messages, extracts event details
(title, speaker, date and time, location, meeting link, abstract), classifies
each message as a new announcement, update, cancellation or reminder, and
applies the result to the calendar sink.

Messages are processed exactly once: already-processed message IDs are skipped
on later runs, and messages that yield no event (empty, or no usable date)
are recorded so they are never retried.`,
		Example: `  # Process every message in the configured directory once
  jcbot process

  # Process a specific directory
  jcbot process --dir ./inbox

  # Keep polling for new messages every two minutes
  jcbot process --watch --interval 2m`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			if dir != "" {
				cfg.MessageDir = dir
			}
			if cfg.MessageDir == "" {
				return fmt.Errorf("no message directory configured (set --dir or message_dir)")
			}

			log := newLogger(cfg)
			ctx := cmd.Context()

			repo, err := deps.OpenRepo(ctx, cfg, log)
			if err != nil {
				return fmt.Errorf("opening storage: %w", err)
			}
			defer repo.Close()

			proc, err := buildProcessor(cfg, log, repo, deps.Sink, deps.Metrics)
			if err != nil {
				return err
			}

			if watch {
				if interval == 0 {
					interval = cfg.PollInterval
				}
				ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()

				log.Info("watching for messages",
					logging.F("dir", cfg.MessageDir),
					logging.F("interval", interval.String()))
				if err := proc.Run(ctx, interval); !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			}

			res, err := proc.RunOnce(ctx)
			if err != nil {
				return err
			}
			if output != outputText {
				return renderOutput(cmd.OutOrStdout(), output, res)
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"Processed %d message(s): %d event(s), %d skipped, %d without event, %d error(s)\n",
				res.Fetched, res.Events, res.Skipped, res.NoEvent, res.Errors)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Message directory (overrides message_dir)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Keep polling for new messages")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Polling interval (defaults to poll_interval)")
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text, json, yaml")

	return cmd
}

// newLogger builds the CLI logger from the loaded configuration.
func newLogger(cfg *config.Config) logging.Logger {
	logCfg := logging.DefaultConfig()
	if cfg.Debug {
		logCfg.Level = logging.LevelDebug
	}
	return logging.NewLogger(logCfg)
}

// buildProcessor assembles the pipeline from configuration.
func buildProcessor(cfg *config.Config, log logging.Logger, repo storage.Repository,
	sink pipeline.CalendarSink, metrics *observability.Metrics) (*pipeline.Processor, error) {

	p, err := parser.New(parser.Config{
		Timezone:               cfg.Parser.Timezone,
		DefaultDurationMinutes: cfg.Parser.DefaultDurationMinutes,
		AllowPlaceholderTime:   cfg.Parser.AllowPlaceholderTime,
		DefaultTitle:           cfg.Parser.DefaultTitle,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("building parser: %w", err)
	}

	classifier, fallback, err := loadClassifier(cfg, log)
	if err != nil {
		return nil, err
	}

	if sink == nil {
		sink = pipeline.NewLogSink(log)
	}

	return pipeline.New(pipeline.Options{
		Source:           pipeline.NewDirSource(cfg.MessageDir, log),
		Parser:           p,
		Classifier:       classifier,
		Repo:             repo,
		Sink:             sink,
		Metrics:          metrics,
		Log:              log,
		FallbackCategory: fallback,
	})
}

// loadClassifier loads the category configuration. A missing categories file
// disables classification rather than failing the run.
func loadClassifier(cfg *config.Config, log logging.Logger) (*categorize.Classifier, string, error) {
	path, err := cfg.CategoriesPath()
	if err != nil {
		return nil, "", err
	}
	f, err := categorize.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Warn("categories file not found, classification disabled",
			logging.F("path", path))
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("loading categories: %w", err)
	}
	return categorize.New(f.Categories, f.StopPhrases, log), f.FallbackCategory, nil
}
