package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catht823/journal-club-calendar-bot/pkg/categorize"
	"github.com/catht823/journal-club-calendar-bot/pkg/parser"
	"github.com/catht823/journal-club-calendar-bot/pkg/storage"
)

type fakeSource struct {
	msgs []parser.RawMessage
}

func (s *fakeSource) Fetch(context.Context) ([]parser.RawMessage, error) {
	return s.msgs, nil
}

type sinkCall struct {
	op         string
	eventID    string
	title      string
	categories []string
}

type fakeSink struct {
	calls  []sinkCall
	nextID int
}

func (s *fakeSink) Create(_ context.Context, event *parser.ParsedEvent, categories []string) (string, error) {
	s.nextID++
	id := "evt-" + string(rune('0'+s.nextID))
	s.calls = append(s.calls, sinkCall{op: "create", eventID: id, title: event.Title, categories: categories})
	return id, nil
}

func (s *fakeSink) Update(_ context.Context, eventID string, event *parser.ParsedEvent, categories []string) error {
	s.calls = append(s.calls, sinkCall{op: "update", eventID: eventID, title: event.Title, categories: categories})
	return nil
}

func (s *fakeSink) Cancel(_ context.Context, eventID string) error {
	s.calls = append(s.calls, sinkCall{op: "cancel", eventID: eventID})
	return nil
}

func newTestProcessor(t *testing.T, source MailSource, sink CalendarSink) (*Processor, storage.Repository) {
	t.Helper()

	repo, err := storage.NewFileRepository(filepath.Join(t.TempDir(), "state.json"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	p, err := parser.New(parser.Config{Timezone: "America/Los_Angeles", AllowPlaceholderTime: true}, nil)
	require.NoError(t, err)

	classifier := categorize.New([]categorize.Category{
		{Name: "Synaptic Plasticity", Keywords: []string{"synaptic plasticity"}},
	}, nil, nil)

	proc, err := New(Options{
		Source:           source,
		Parser:           p,
		Classifier:       classifier,
		Repo:             repo,
		Sink:             sink,
		FallbackCategory: "General",
	})
	require.NoError(t, err)
	return proc, repo
}

const announcementBody = "Title: Mechanisms of Synaptic Plasticity\n" +
	"Speaker: Dr. Jane Doe\n" +
	"Date: Monday, March 3, 2025 2:00 PM\n" +
	"Location: Room 204"

func TestProcessorCreatesEventOnce(t *testing.T) {
	ctx := context.Background()
	sink := &fakeSink{}
	proc, repo := newTestProcessor(t, &fakeSource{msgs: []parser.RawMessage{
		{ID: "msg-1", BodyText: announcementBody},
	}}, sink)

	res, err := proc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Events)
	require.Len(t, sink.calls, 1)
	assert.Equal(t, "create", sink.calls[0].op)
	assert.Equal(t, "Mechanisms of Synaptic Plasticity", sink.calls[0].title)
	assert.Equal(t, []string{"Synaptic Plasticity"}, sink.calls[0].categories)

	m, err := repo.GetEventMap(ctx, "msg-1")
	require.NoError(t, err)
	assert.Equal(t, sink.calls[0].eventID, m.EventID)

	// The second run skips the already-processed message.
	res, err = proc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 0, res.Events)
	assert.Len(t, sink.calls, 1)
}

func TestProcessorCancelsMatchingEvent(t *testing.T) {
	ctx := context.Background()
	sink := &fakeSink{}
	source := &fakeSource{msgs: []parser.RawMessage{
		{ID: "msg-1", BodyText: announcementBody},
	}}
	proc, repo := newTestProcessor(t, source, sink)

	_, err := proc.RunOnce(ctx)
	require.NoError(t, err)

	source.msgs = []parser.RawMessage{{
		ID:       "msg-2",
		BodyText: `The seminar titled "Mechanisms of Synaptic Plasticity" has been cancelled.`,
	}}
	_, err = proc.RunOnce(ctx)
	require.NoError(t, err)

	require.Len(t, sink.calls, 2)
	assert.Equal(t, "cancel", sink.calls[1].op)
	assert.Equal(t, sink.calls[0].eventID, sink.calls[1].eventID)

	// The mapping is dropped with the event.
	_, err = repo.GetEventMap(ctx, "msg-1")
	assert.Error(t, err)
}

func TestProcessorUpdateWithoutOriginalCreates(t *testing.T) {
	ctx := context.Background()
	sink := &fakeSink{}
	proc, _ := newTestProcessor(t, &fakeSource{msgs: []parser.RawMessage{{
		ID:       "msg-1",
		BodyText: "The journal club has been moved to Room 12.\nDate: March 5, 2025 at 2:00 PM",
	}}}, sink)

	_, err := proc.RunOnce(ctx)
	require.NoError(t, err)

	require.Len(t, sink.calls, 1)
	assert.Equal(t, "create", sink.calls[0].op)
}

func TestProcessorFallbackCategory(t *testing.T) {
	ctx := context.Background()
	sink := &fakeSink{}
	proc, _ := newTestProcessor(t, &fakeSource{msgs: []parser.RawMessage{{
		ID:       "msg-1",
		BodyText: "Title: Annual Lab Outing Planning\nDate: March 3, 2025 2:00 PM",
	}}}, sink)

	_, err := proc.RunOnce(ctx)
	require.NoError(t, err)

	require.Len(t, sink.calls, 1)
	assert.Equal(t, []string{"General"}, sink.calls[0].categories)
}

func TestProcessorRecordsNoEventMessages(t *testing.T) {
	ctx := context.Background()
	sink := &fakeSink{}
	proc, repo := newTestProcessor(t, &fakeSource{msgs: []parser.RawMessage{
		{ID: "msg-1"}, // empty
	}}, sink)

	res, err := proc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.NoEvent)
	assert.Empty(t, sink.calls)

	done, err := repo.IsProcessed(ctx, "msg-1")
	require.NoError(t, err)
	assert.True(t, done)
}

func TestDirSourceReadsTextFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"),
		[]byte("Subject: Journal Club Friday\nJoin us at 2:00 PM in Room 4."), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"),
		[]byte("Plain body without subject line."), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"),
		[]byte("ignored"), 0600))

	msgs, err := NewDirSource(dir, nil).Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, msgs, 2)
	assert.Equal(t, "a.txt", msgs[0].ID)
	assert.Equal(t, "Plain body without subject line.", msgs[0].BodyText)
	assert.Equal(t, "b.txt", msgs[1].ID)
	assert.Equal(t, "Journal Club Friday", msgs[1].Subject)
	assert.Equal(t, "Join us at 2:00 PM in Room 4.", msgs[1].BodyText)
}

func TestDirSourceReadsEML(t *testing.T) {
	dir := t.TempDir()
	eml := "From: lists@example.edu\r\n" +
		"Subject: Seminar Announcement\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"Date: March 3, 2025\r\nTime: 2:00 PM\r\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "m.eml"), []byte(eml), 0600))

	msgs, err := NewDirSource(dir, nil).Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, msgs, 1)
	assert.Equal(t, "Seminar Announcement", msgs[0].Subject)
	assert.Contains(t, msgs[0].BodyText, "March 3, 2025")
}
