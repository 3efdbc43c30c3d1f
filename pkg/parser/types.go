// Package parser extracts structured seminar announcements from unstructured
// email text. It is a cascade of heuristic strategies: each field extractor
// generates scored candidates from the normalized text and selects its own
// best one, so a message with a messy body and a clean subject (or the other
// way around) still yields a usable event.
//
// Every extractor is pure with respect to its text input and the parser
// configuration; nothing here performs I/O.
package parser

import "time"

// RawMessage is the per-message input handed over by the mail collaborator.
// It is immutable once fetched.
type RawMessage struct {
	// ID is the provider-assigned message identifier.
	ID string

	// Subject is the raw subject header.
	Subject string

	// BodyText is the plain-text body. May be empty.
	BodyText string

	// HTML is the HTML body, when the message carries one.
	HTML string

	// Attachments describe the message attachments, metadata only.
	Attachments []Attachment
}

// Attachment describes one message attachment as reported by the mail
// collaborator. Content is never fetched by the parser.
type Attachment struct {
	Filename   string
	MimeType   string
	SizeBytes  int64
	ContentRef string
}

// EmailType classifies a message's intent, governing how downstream calendar
// sync treats it.
type EmailType string

const (
	EmailTypeNew          EmailType = "new"
	EmailTypeUpdate       EmailType = "update"
	EmailTypeCancellation EmailType = "cancellation"
	EmailTypeReminder     EmailType = "reminder"
)

// EventAttachment is an attachment descriptor carried on a ParsedEvent.
// FileRef may be empty when the provider gave no stable reference.
type EventAttachment struct {
	Title     string
	MimeType  string
	SizeBytes int64
	FileRef   string
}

// ParsedEvent is the structured result of parsing one message. It is
// constructed once by Parser.Parse and never mutated afterwards.
type ParsedEvent struct {
	// Title is always populated; extraction falls back to the configured
	// default title when no candidate qualifies.
	Title string

	// Start and End are timezone-aware. End >= Start always holds; End is
	// Start plus the configured default duration, never extracted.
	Start time.Time
	End   time.Time

	// Timezone is the configured IANA zone name, not taken from the email.
	Timezone string

	// Optional fields; empty string means the extractor found no signal.
	Speaker  string
	Location string
	URL      string
	Abstract string

	// Cancelled is true iff EmailType is EmailTypeCancellation.
	Cancelled bool

	EmailType EmailType

	// OriginalEventRef is a cross-reference extracted from update,
	// cancellation and reminder messages, used by calendar sync to locate
	// the event this message refers to.
	OriginalEventRef string

	Attachments []EventAttachment
}
