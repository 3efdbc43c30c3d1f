package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	jcerrors "github.com/catht823/journal-club-calendar-bot/pkg/errors"
	"github.com/catht823/journal-club-calendar-bot/pkg/logging"
)

// fileState is the on-disk JSON layout.
type fileState struct {
	Processed map[string]time.Time `json:"processed"`
	Events    map[string]EventMap  `json:"events"`
}

// FileRepository stores state in a single JSON file. Every mutation rewrites
// the file through a temp-and-rename so a crash never leaves partial JSON.
type FileRepository struct {
	path  string
	log   logging.Logger
	mu    sync.Mutex
	state fileState
}

// NewFileRepository loads existing state from path, creating the parent
// directory if needed. A missing file starts empty.
func NewFileRepository(path string, log logging.Logger) (*FileRepository, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	r := &FileRepository{
		path: path,
		log:  log,
		state: fileState{
			Processed: make(map[string]time.Time),
			Events:    make(map[string]EventMap),
		},
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state file: %w", err)
	}
	if err := json.Unmarshal(data, &r.state); err != nil {
		return nil, fmt.Errorf("parsing state file %s: %w", path, err)
	}
	if r.state.Processed == nil {
		r.state.Processed = make(map[string]time.Time)
	}
	if r.state.Events == nil {
		r.state.Events = make(map[string]EventMap)
	}

	log.Debug("loaded state file",
		logging.F("path", path),
		logging.F("processed", len(r.state.Processed)),
		logging.F("events", len(r.state.Events)))

	return r, nil
}

func (r *FileRepository) IsProcessed(_ context.Context, messageID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.state.Processed[messageID]
	return ok, nil
}

func (r *FileRepository) MarkProcessed(_ context.Context, messageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.Processed[messageID] = time.Now().UTC()
	return r.flushLocked()
}

func (r *FileRepository) SaveEventMap(_ context.Context, m EventMap) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = time.Now().UTC()
	}
	r.state.Events[m.MessageID] = m
	return r.flushLocked()
}

func (r *FileRepository) GetEventMap(_ context.Context, messageID string) (*EventMap, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.state.Events[messageID]
	if !ok {
		return nil, jcerrors.ErrNotFound
	}
	return &m, nil
}

func (r *FileRepository) ListEventMaps(_ context.Context) ([]EventMap, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventMap, 0, len(r.state.Events))
	for _, m := range r.state.Events {
		out = append(out, m)
	}
	return out, nil
}

func (r *FileRepository) DeleteEventMap(_ context.Context, messageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.state.Events[messageID]; !ok {
		return nil
	}
	delete(r.state.Events, messageID)
	return r.flushLocked()
}

func (r *FileRepository) Close() error {
	return nil
}

// flushLocked writes the state atomically. Callers hold r.mu.
func (r *FileRepository) flushLocked() error {
	data, err := json.MarshalIndent(&r.state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}
