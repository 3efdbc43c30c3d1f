// Package pipeline wires the mail source, parser, category classifier,
// state storage and calendar sink into the processing loop. Messages are
// handled independently and exactly once: a message is marked processed even
// when it yields no event, so a bad message is never retried forever.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/catht823/journal-club-calendar-bot/pkg/categorize"
	jcerrors "github.com/catht823/journal-club-calendar-bot/pkg/errors"
	"github.com/catht823/journal-club-calendar-bot/pkg/logging"
	"github.com/catht823/journal-club-calendar-bot/pkg/observability"
	"github.com/catht823/journal-club-calendar-bot/pkg/parser"
	"github.com/catht823/journal-club-calendar-bot/pkg/storage"
)

// Processor drives message processing end to end.
type Processor struct {
	source     MailSource
	parser     *parser.Parser
	classifier *categorize.Classifier
	repo       storage.Repository
	sink       CalendarSink
	metrics    *observability.Metrics
	tracer     *observability.Tracer
	log        logging.Logger

	// fallbackCategory is applied when classification yields nothing.
	fallbackCategory string
}

// Options configures a Processor. Source, Parser, Repo and Sink are
// required; the rest default to no-ops.
type Options struct {
	Source           MailSource
	Parser           *parser.Parser
	Classifier       *categorize.Classifier
	Repo             storage.Repository
	Sink             CalendarSink
	Metrics          *observability.Metrics
	Tracer           *observability.Tracer
	Log              logging.Logger
	FallbackCategory string
}

// New creates a Processor.
func New(opts Options) (*Processor, error) {
	if opts.Source == nil || opts.Parser == nil || opts.Repo == nil || opts.Sink == nil {
		return nil, fmt.Errorf("pipeline requires source, parser, repo and sink")
	}
	if opts.Log == nil {
		opts.Log = logging.NewNopLogger()
	}
	if opts.Tracer == nil {
		opts.Tracer = observability.NewTracer()
	}
	return &Processor{
		source:           opts.Source,
		parser:           opts.Parser,
		classifier:       opts.Classifier,
		repo:             opts.Repo,
		sink:             opts.Sink,
		metrics:          opts.Metrics,
		tracer:           opts.Tracer,
		log:              opts.Log,
		fallbackCategory: opts.FallbackCategory,
	}, nil
}

// RunResult summarizes one polling run.
type RunResult struct {
	RunID   string
	Fetched int
	Skipped int
	Events  int
	NoEvent int
	Errors  int
}

// Run polls the source until the context is cancelled.
func (p *Processor) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := p.RunOnce(ctx); err != nil {
			p.log.Error("polling run failed", logging.Err(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce fetches and processes every pending message once.
func (p *Processor) RunOnce(ctx context.Context) (*RunResult, error) {
	res := &RunResult{RunID: uuid.New().String()}
	ctx, span := p.tracer.StartRunSpan(ctx, res.RunID)
	defer span.End()

	msgs, err := p.source.Fetch(ctx)
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("fetching messages: %w", err)
	}
	res.Fetched = len(msgs)

	for _, msg := range msgs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		switch outcome, err := p.processMessage(ctx, msg); {
		case err != nil:
			res.Errors++
			p.log.Error("message processing failed",
				logging.F("message_id", msg.ID), logging.Err(err))
		case outcome == observability.OutcomeSkipped:
			res.Skipped++
		case outcome == observability.OutcomeNoEvent:
			res.NoEvent++
		default:
			res.Events++
		}
	}

	p.log.Info("polling run complete",
		logging.F("run_id", res.RunID),
		logging.F("fetched", res.Fetched),
		logging.F("events", res.Events),
		logging.F("skipped", res.Skipped),
		logging.F("no_event", res.NoEvent),
		logging.F("errors", res.Errors))

	return res, nil
}

// processMessage handles one message and returns its outcome label.
func (p *Processor) processMessage(ctx context.Context, msg parser.RawMessage) (string, error) {
	ctx, span := p.tracer.StartMessageSpan(ctx, msg.ID)
	defer span.End()
	started := time.Now()

	done, err := p.repo.IsProcessed(ctx, msg.ID)
	if err != nil {
		p.recordStorageError("is_processed")
		observability.RecordError(span, err)
		return observability.OutcomeError, err
	}
	if done {
		p.recordMessage(observability.OutcomeSkipped, "", started)
		return observability.OutcomeSkipped, nil
	}

	event, err := p.parser.Parse(msg)
	switch {
	case jcerrors.IsEmptyMessage(err) || jcerrors.IsNoDateTime(err):
		// Processed-with-no-event: recorded so the message is not retried.
		p.log.Info("message yields no event",
			logging.F("message_id", msg.ID), logging.Err(err))
		if err := p.repo.MarkProcessed(ctx, msg.ID); err != nil {
			p.recordStorageError("mark_processed")
			return observability.OutcomeError, err
		}
		p.recordMessage(observability.OutcomeNoEvent, "", started)
		return observability.OutcomeNoEvent, nil
	case err != nil:
		observability.RecordError(span, err)
		p.recordMessage(observability.OutcomeError, "", started)
		return observability.OutcomeError, err
	}

	categories := p.classify(msg, event)

	if err := p.dispatch(ctx, msg.ID, event, categories); err != nil {
		observability.RecordError(span, err)
		p.recordMessage(observability.OutcomeError, string(event.EmailType), started)
		return observability.OutcomeError, err
	}

	if err := p.repo.MarkProcessed(ctx, msg.ID); err != nil {
		p.recordStorageError("mark_processed")
		return observability.OutcomeError, err
	}

	p.recordMessage(observability.OutcomeEvent, string(event.EmailType), started)
	return observability.OutcomeEvent, nil
}

// classify scores the subject, title and abstract together, applying the
// fallback category when nothing matches.
func (p *Processor) classify(msg parser.RawMessage, event *parser.ParsedEvent) []string {
	if p.classifier == nil {
		return nil
	}

	text := strings.Join([]string{msg.Subject, event.Title, event.Abstract}, "\n")
	categories := p.classifier.Classify(text)
	if len(categories) == 0 && p.fallbackCategory != "" {
		categories = []string{p.fallbackCategory}
	}
	if p.metrics != nil {
		p.metrics.RecordCategories(len(categories))
	}
	return categories
}

// dispatch routes the event to the calendar sink by email type.
func (p *Processor) dispatch(ctx context.Context, messageID string, event *parser.ParsedEvent, categories []string) error {
	ctx, span := p.tracer.StartSpan(ctx, observability.SpanDispatch)
	defer span.End()

	switch event.EmailType {
	case parser.EmailTypeUpdate:
		if target, ok := p.findOriginal(ctx, event.OriginalEventRef); ok {
			if err := p.sink.Update(ctx, target.EventID, event, categories); err != nil {
				return fmt.Errorf("updating event: %w", err)
			}
			p.recordEvent("updated")
			return p.saveEventMap(ctx, messageID, target.EventID, event.Title)
		}
		// No original found: treat the update as a fresh announcement.
		fallthrough

	case parser.EmailTypeNew:
		eventID, err := p.sink.Create(ctx, event, categories)
		if err != nil {
			return fmt.Errorf("creating event: %w", err)
		}
		p.recordEvent("created")
		return p.saveEventMap(ctx, messageID, eventID, event.Title)

	case parser.EmailTypeCancellation:
		target, ok := p.findOriginal(ctx, event.OriginalEventRef)
		if !ok {
			p.log.Warn("cancellation for unknown event",
				logging.F("message_id", messageID),
				logging.F("ref", event.OriginalEventRef))
			return nil
		}
		if err := p.sink.Cancel(ctx, target.EventID); err != nil {
			return fmt.Errorf("cancelling event: %w", err)
		}
		p.recordEvent("cancelled")
		// Drop the mapping so later updates cannot target the cancelled
		// event.
		if err := p.repo.DeleteEventMap(ctx, target.MessageID); err != nil {
			p.recordStorageError("delete_event_map")
			return fmt.Errorf("deleting event map: %w", err)
		}
		return nil

	case parser.EmailTypeReminder:
		// Reminders never change the calendar.
		return nil
	}

	return fmt.Errorf("unknown email type %q", event.EmailType)
}

// findOriginal matches an original-event reference against known event
// titles, case-insensitively, substring in either direction.
func (p *Processor) findOriginal(ctx context.Context, ref string) (*storage.EventMap, bool) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return nil, false
	}

	maps, err := p.repo.ListEventMaps(ctx)
	if err != nil {
		p.recordStorageError("list_event_maps")
		p.log.Error("listing event maps failed", logging.Err(err))
		return nil, false
	}

	var best *storage.EventMap
	for i := range maps {
		title := strings.ToLower(maps[i].Title)
		if title == "" {
			continue
		}
		if strings.Contains(title, ref) || strings.Contains(ref, title) {
			if best == nil || maps[i].UpdatedAt.After(best.UpdatedAt) {
				best = &maps[i]
			}
		}
	}
	return best, best != nil
}

func (p *Processor) saveEventMap(ctx context.Context, messageID, eventID, title string) error {
	err := p.repo.SaveEventMap(ctx, storage.EventMap{
		MessageID: messageID,
		EventID:   eventID,
		Title:     title,
	})
	if err != nil {
		p.recordStorageError("save_event_map")
		return fmt.Errorf("saving event map: %w", err)
	}
	return nil
}

func (p *Processor) recordMessage(outcome, emailType string, started time.Time) {
	if p.metrics != nil {
		p.metrics.RecordMessage(outcome, emailType, time.Since(started))
	}
}

func (p *Processor) recordEvent(action string) {
	if p.metrics != nil {
		p.metrics.RecordEvent(action)
	}
}

func (p *Processor) recordStorageError(op string) {
	if p.metrics != nil {
		p.metrics.RecordStorageError(op)
	}
}
