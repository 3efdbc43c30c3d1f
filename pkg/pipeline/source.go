package pipeline

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/catht823/journal-club-calendar-bot/pkg/logging"
	"github.com/catht823/journal-club-calendar-bot/pkg/parser"
)

// MailSource yields messages to process. Implementations must be safe to
// call repeatedly; the processor deduplicates against storage, not here.
type MailSource interface {
	Fetch(ctx context.Context) ([]parser.RawMessage, error)
}

// DirSource reads announcement messages from a directory. It accepts .eml
// files (RFC 5322) and plain .txt files whose optional first "Subject:" line
// becomes the subject. The file name is the message ID, so reprocessing a
// directory is idempotent.
type DirSource struct {
	dir string
	log logging.Logger
}

// NewDirSource creates a source reading from dir.
func NewDirSource(dir string, log logging.Logger) *DirSource {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &DirSource{dir: dir, log: log}
}

func (s *DirSource) Fetch(ctx context.Context) ([]parser.RawMessage, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading message directory: %w", err)
	}

	var msgs []parser.RawMessage
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".eml" && ext != ".txt" {
			continue
		}

		path := filepath.Join(s.dir, e.Name())
		msg, err := ReadMessageFile(path)
		if err != nil {
			s.log.Warn("skipping unreadable message file",
				logging.F("path", path), logging.Err(err))
			continue
		}
		msg.ID = e.Name()
		msgs = append(msgs, *msg)
	}

	sort.Slice(msgs, func(i, j int) bool { return msgs[i].ID < msgs[j].ID })
	return msgs, nil
}

// ReadMessageFile reads a single .eml or .txt message file. The message ID
// is the file's base name.
func ReadMessageFile(path string) (*parser.RawMessage, error) {
	var msg *parser.RawMessage
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".eml":
		msg, err = readEMLFile(path)
	case ".txt":
		msg, err = readTextFile(path)
	default:
		return nil, fmt.Errorf("unsupported message file %q (want .eml or .txt)", path)
	}
	if err != nil {
		return nil, err
	}
	msg.ID = filepath.Base(path)
	return msg, nil
}

// readTextFile treats a leading "Subject: ..." line as the subject and the
// rest as the body.
func readTextFile(path string) (*parser.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	text := string(data)
	msg := &parser.RawMessage{BodyText: text}
	if first, rest, found := strings.Cut(text, "\n"); found || first != "" {
		if subj, ok := strings.CutPrefix(first, "Subject:"); ok {
			msg.Subject = strings.TrimSpace(subj)
			msg.BodyText = rest
		}
	}
	return msg, nil
}

func readEMLFile(path string) (*parser.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := mail.ReadMessage(f)
	if err != nil {
		return nil, fmt.Errorf("parsing eml: %w", err)
	}

	msg := &parser.RawMessage{Subject: decodeHeader(m.Header.Get("Subject"))}
	if err := readEntity(m.Header.Get("Content-Type"), m.Header.Get("Content-Transfer-Encoding"), m.Body, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// readEntity decodes one MIME entity into the message, descending into
// multipart bodies.
func readEntity(contentType, encoding string, body io.Reader, msg *parser.RawMessage) error {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return fmt.Errorf("multipart body without boundary")
		}
		mr := multipart.NewReader(body, boundary)
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("reading multipart: %w", err)
			}
			if name := part.FileName(); name != "" {
				size, _ := io.Copy(io.Discard, part)
				msg.Attachments = append(msg.Attachments, parser.Attachment{
					Filename:  name,
					MimeType:  part.Header.Get("Content-Type"),
					SizeBytes: size,
				})
				continue
			}
			if err := readEntity(part.Header.Get("Content-Type"),
				part.Header.Get("Content-Transfer-Encoding"), part, msg); err != nil {
				return err
			}
		}
	}

	if strings.EqualFold(encoding, "quoted-printable") {
		body = quotedprintable.NewReader(body)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("reading body: %w", err)
	}

	switch mediaType {
	case "text/html":
		if msg.HTML == "" {
			msg.HTML = string(data)
		}
	default:
		if msg.BodyText == "" {
			msg.BodyText = string(data)
		}
	}
	return nil
}

var headerDecoder = mime.WordDecoder{}

func decodeHeader(s string) string {
	decoded, err := headerDecoder.DecodeHeader(s)
	if err != nil {
		return s
	}
	return decoded
}
