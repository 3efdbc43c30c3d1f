package pipeline

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/catht823/journal-club-calendar-bot/pkg/logging"
	"github.com/catht823/journal-club-calendar-bot/pkg/parser"
)

// CalendarSink receives the events the pipeline produces. The real calendar
// integration lives behind this interface; the bundled implementation just
// records what would happen, which is also what dry runs use.
type CalendarSink interface {
	// Create adds a new event and returns its calendar-assigned ID.
	Create(ctx context.Context, event *parser.ParsedEvent, categories []string) (string, error)

	// Update replaces the event with the given ID.
	Update(ctx context.Context, eventID string, event *parser.ParsedEvent, categories []string) error

	// Cancel removes or marks cancelled the event with the given ID.
	Cancel(ctx context.Context, eventID string) error
}

// LogSink logs every calendar operation instead of performing it.
type LogSink struct {
	log logging.Logger

	// newID is swappable for tests.
	newID func() string
}

// NewLogSink creates a sink that only logs.
func NewLogSink(log logging.Logger) *LogSink {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &LogSink{log: log, newID: func() string { return uuid.New().String() }}
}

func (s *LogSink) Create(_ context.Context, event *parser.ParsedEvent, categories []string) (string, error) {
	id := s.newID()
	s.log.Info("calendar create",
		logging.F("event_id", id),
		logging.F("title", event.Title),
		logging.F("start", event.Start),
		logging.F("speaker", event.Speaker),
		logging.F("location", event.Location),
		logging.F("categories", strings.Join(categories, ",")))
	return id, nil
}

func (s *LogSink) Update(_ context.Context, eventID string, event *parser.ParsedEvent, categories []string) error {
	s.log.Info("calendar update",
		logging.F("event_id", eventID),
		logging.F("title", event.Title),
		logging.F("start", event.Start),
		logging.F("categories", strings.Join(categories, ",")))
	return nil
}

func (s *LogSink) Cancel(_ context.Context, eventID string) error {
	s.log.Info("calendar cancel", logging.F("event_id", eventID))
	return nil
}
