package parser

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jcerrors "github.com/catht823/journal-club-calendar-bot/pkg/errors"
)

func newTestParser(t *testing.T, cfg Config) *Parser {
	t.Helper()
	if cfg.Timezone == "" {
		cfg.Timezone = "America/Los_Angeles"
	}
	p, err := New(cfg, nil)
	require.NoError(t, err)
	p.now = func() time.Time { return testNow }
	return p
}

func TestParseCanonicalAnnouncement(t *testing.T) {
	p := newTestParser(t, Config{})

	event, err := p.Parse(RawMessage{
		ID: "msg-1",
		BodyText: "Title: Mechanisms of Synaptic Plasticity\n" +
			"Speaker: Dr. Jane Doe\n" +
			"Date: Monday, March 3, 2025 2:00 PM\n" +
			"Location: Room 204",
	})

	require.NoError(t, err)
	assert.Equal(t, "Mechanisms of Synaptic Plasticity", event.Title)
	assert.Equal(t, "Dr. Jane Doe", event.Speaker)
	assert.Contains(t, event.Location, "Room 204")
	assert.True(t, event.Start.Equal(time.Date(2025, time.March, 3, 14, 0, 0, 0, testLoc)))
	assert.True(t, event.End.Equal(event.Start.Add(time.Hour)))
	assert.Equal(t, "America/Los_Angeles", event.Timezone)
	assert.Equal(t, EmailTypeNew, event.EmailType)
	assert.False(t, event.Cancelled)
}

func TestParseCancellationSetsCancelled(t *testing.T) {
	p := newTestParser(t, Config{AllowPlaceholderTime: true})

	event, err := p.Parse(RawMessage{
		ID:       "msg-2",
		BodyText: "This seminar has been cancelled.",
	})

	require.NoError(t, err)
	assert.Equal(t, EmailTypeCancellation, event.EmailType)
	assert.True(t, event.Cancelled)
}

func TestParseEmptyMessage(t *testing.T) {
	p := newTestParser(t, Config{AllowPlaceholderTime: true})

	_, err := p.Parse(RawMessage{ID: "msg-3"})

	assert.True(t, jcerrors.IsEmptyMessage(err))
}

func TestParseNoiseOnlyMessage(t *testing.T) {
	body := strings.Join([]string{
		"---------- Forwarded message ----------",
		"From: lists@example.edu",
		"someone@example.edu",
		"> quoted",
	}, "\n")

	for _, placeholder := range []bool{false, true} {
		p := newTestParser(t, Config{AllowPlaceholderTime: placeholder})

		_, err := p.Parse(RawMessage{ID: "msg-4", BodyText: body})

		assert.True(t, jcerrors.IsEmptyMessage(err))
	}
}

func TestParseNoDateTimeSignal(t *testing.T) {
	body := "Hello colleagues, the reading list is attached."

	p := newTestParser(t, Config{AllowPlaceholderTime: false})
	_, err := p.Parse(RawMessage{ID: "msg-5", BodyText: body})
	assert.True(t, jcerrors.IsNoDateTime(err))

	p = newTestParser(t, Config{AllowPlaceholderTime: true})
	event, err := p.Parse(RawMessage{ID: "msg-5", BodyText: body})
	require.NoError(t, err)
	assert.True(t, event.Start.Equal(time.Date(2025, time.February, 10, defaultStartHour, 0, 0, 0, testLoc)))
}

func TestParseDefaultTitleFallback(t *testing.T) {
	p := newTestParser(t, Config{})

	event, err := p.Parse(RawMessage{
		ID:       "msg-6",
		BodyText: "Date: March 3, 2025\nTime: 2:00 PM\nLocation: Room 4",
	})

	require.NoError(t, err)
	assert.Equal(t, DefaultTitle, event.Title)
}

func TestParseDurationConfig(t *testing.T) {
	p := newTestParser(t, Config{DefaultDurationMinutes: 90})

	event, err := p.Parse(RawMessage{
		ID:       "msg-7",
		BodyText: "Journal club on March 14, 2025 at 3:00 PM.",
	})

	require.NoError(t, err)
	assert.True(t, event.End.Sub(event.Start) == 90*time.Minute)
	assert.True(t, event.End.After(event.Start))
}

func TestParseUpdateCarriesOriginalRef(t *testing.T) {
	p := newTestParser(t, Config{})

	event, err := p.Parse(RawMessage{
		ID: "msg-8",
		BodyText: `The seminar titled "Neural Coding in the Retina" has been moved to Room 12.` +
			"\nNew date: March 5, 2025 at 2:00 PM.",
	})

	require.NoError(t, err)
	assert.Equal(t, EmailTypeUpdate, event.EmailType)
	assert.Equal(t, "Neural Coding in the Retina", event.OriginalEventRef)
}

func TestParseUnknownTimezone(t *testing.T) {
	_, err := New(Config{Timezone: "Not/AZone"}, nil)

	assert.Error(t, err)
}

func TestEventAttachments(t *testing.T) {
	atts := []Attachment{
		{Filename: "paper.pdf", MimeType: "application/pdf", SizeBytes: 120_000, ContentRef: "att-1"},
		{Filename: "sig.png", MimeType: "image/png", SizeBytes: 4_096, ContentRef: "att-2"},
		{Filename: "poster.jpg", MimeType: "image/jpeg", SizeBytes: 500_000, ContentRef: "att-3"},
		{Filename: "", MimeType: "application/pdf", SizeBytes: 100, ContentRef: "att-4"},
	}

	got := eventAttachments(atts)

	require.Len(t, got, 2)
	assert.Equal(t, "paper.pdf", got[0].Title)
	assert.Equal(t, "poster.jpg", got[1].Title)
	assert.Equal(t, "att-3", got[1].FileRef)
}
