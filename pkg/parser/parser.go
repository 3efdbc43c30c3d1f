package parser

import (
	"strings"
	"time"

	jcerrors "github.com/catht823/journal-club-calendar-bot/pkg/errors"
	"github.com/catht823/journal-club-calendar-bot/pkg/logging"
)

// Config controls parsing behavior. Zero values are filled with defaults by
// New.
type Config struct {
	// Timezone is the IANA zone every event is anchored in. Emails never
	// override it.
	Timezone string

	// DefaultDurationMinutes sets End relative to Start. Ends are never
	// extracted from text.
	DefaultDurationMinutes int

	// AllowPlaceholderTime permits fabricating "today at 14:00" when a
	// message carries no datetime signal at all. When false such messages
	// fail with a no-datetime error instead.
	AllowPlaceholderTime bool

	// DefaultTitle is used when no title candidate qualifies.
	DefaultTitle string
}

const (
	defaultTimezone        = "America/Los_Angeles"
	defaultDurationMinutes = 60
)

// Parser turns raw messages into parsed events. It is safe for concurrent
// use; all state is read-only after construction.
type Parser struct {
	cfg Config
	loc *time.Location
	log logging.Logger

	// now is swappable for tests.
	now func() time.Time
}

// New builds a Parser, resolving the configured timezone. An unknown zone
// name is an error; parsing with a silently wrong zone corrupts every event.
func New(cfg Config, log logging.Logger) (*Parser, error) {
	if cfg.Timezone == "" {
		cfg.Timezone = defaultTimezone
	}
	if cfg.DefaultDurationMinutes <= 0 {
		cfg.DefaultDurationMinutes = defaultDurationMinutes
	}
	if cfg.DefaultTitle == "" {
		cfg.DefaultTitle = DefaultTitle
	}
	if log == nil {
		log = logging.NewNopLogger()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	return &Parser{
		cfg: cfg,
		loc: loc,
		log: log,
		now: time.Now,
	}, nil
}

// Parse extracts a structured event from one message. It returns
// ErrEmptyMessage when normalization leaves nothing to work with, and
// ErrNoDateTime when no start can be determined and the placeholder fallback
// is disabled. Every other extraction failure degrades to a default or an
// absent field rather than an error.
func (p *Parser) Parse(msg RawMessage) (*ParsedEvent, error) {
	text := Normalize(msg.Subject, msg.BodyText, msg.HTML)
	if strings.TrimSpace(text) == "" {
		return nil, jcerrors.ErrEmptyMessage
	}

	in := extractInput{Text: text, Subject: msg.Subject, HTML: msg.HTML}

	start, ok := composeStart(text, p.now(), p.loc, p.cfg.AllowPlaceholderTime)
	if !ok {
		p.log.Debug("no datetime signal in message", logging.F("message_id", msg.ID))
		return nil, jcerrors.ErrNoDateTime
	}

	title := p.cfg.DefaultTitle
	titleSource := "default"
	if c, found := extractTitle(in); found {
		title = c.Value
		titleSource = c.Source
	}

	emailType := ClassifyEmailType(text)

	var originalRef string
	if emailType != EmailTypeNew {
		originalRef = extractOriginalEventRef(text)
	}

	event := &ParsedEvent{
		Title:            title,
		Start:            start,
		End:              start.Add(time.Duration(p.cfg.DefaultDurationMinutes) * time.Minute),
		Timezone:         p.cfg.Timezone,
		Speaker:          extractSpeaker(text),
		Location:         extractLocation(in),
		URL:              extractURL(text),
		Abstract:         extractAbstract(text),
		Cancelled:        emailType == EmailTypeCancellation,
		EmailType:        emailType,
		OriginalEventRef: originalRef,
		Attachments:      eventAttachments(msg.Attachments),
	}

	p.log.Debug("parsed message",
		logging.F("message_id", msg.ID),
		logging.F("title_source", titleSource),
		logging.F("email_type", string(emailType)),
		logging.F("start", event.Start.Format(time.RFC3339)))

	return event, nil
}

// Attachment types worth carrying onto the event. Inline signature images
// and calendar invite fragments are dropped.
var keptAttachmentTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":     true,
	"application/vnd.ms-powerpoint":                                               true,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation":   true,
}

const minImageAttachmentBytes = 50 * 1024

func eventAttachments(atts []Attachment) []EventAttachment {
	var out []EventAttachment
	for _, a := range atts {
		if a.Filename == "" {
			continue
		}
		mt := strings.ToLower(a.MimeType)
		switch {
		case keptAttachmentTypes[mt]:
		case strings.HasPrefix(mt, "image/") && a.SizeBytes >= minImageAttachmentBytes:
		default:
			continue
		}
		out = append(out, EventAttachment{
			Title:     a.Filename,
			MimeType:  a.MimeType,
			SizeBytes: a.SizeBytes,
			FileRef:   a.ContentRef,
		})
	}
	return out
}
