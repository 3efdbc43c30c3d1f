// Package errors provides common domain error types for the journal club bot.
//
// This package defines sentinel errors for extraction and storage conditions
// like "no signal" or "not found" that can be used across all packages. Using
// typed errors enables consistent error handling patterns with errors.Is()
// checks, instead of the generic catch-and-ignore the extractors would
// otherwise need.
//
// Usage:
//
//	import jcerrors "github.com/catht823/journal-club-calendar-bot/pkg/errors"
//
//	// Return a domain error
//	return nil, jcerrors.ErrNoDateTime
//
//	// Check for domain errors
//	if jcerrors.IsNoDateTime(err) {
//	    // record as processed-with-no-event
//	}
package errors

import "errors"

// Domain errors - common sentinel errors for extraction and storage conditions.
var (
	// ErrEmptyMessage indicates the message normalized to empty text
	// (all input was noise or blank), so no event can be produced.
	ErrEmptyMessage = errors.New("empty message")

	// ErrNoDateTime indicates no date signal survived every extraction
	// fallback, including the placeholder policy when it is disabled.
	ErrNoDateTime = errors.New("no datetime signal")

	// ErrNoSignal indicates an extractor found nothing for its field.
	// Optional fields treat this as an absent value, never a failure.
	ErrNoSignal = errors.New("no signal")

	// ErrMalformedInput indicates the underlying date parser rejected a
	// candidate phrase; the cascade continues to the next strategy.
	ErrMalformedInput = errors.New("malformed input")

	// ErrNotFound indicates the requested record was not found in storage.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the record already exists in storage.
	ErrAlreadyExists = errors.New("already exists")

	// ErrValidation indicates invalid input or configuration.
	ErrValidation = errors.New("validation error")
)

// IsEmptyMessage reports whether any error in err's chain is ErrEmptyMessage.
func IsEmptyMessage(err error) bool {
	return errors.Is(err, ErrEmptyMessage)
}

// IsNoDateTime reports whether any error in err's chain is ErrNoDateTime.
func IsNoDateTime(err error) bool {
	return errors.Is(err, ErrNoDateTime)
}

// IsNoSignal reports whether any error in err's chain is ErrNoSignal.
func IsNoSignal(err error) bool {
	return errors.Is(err, ErrNoSignal)
}

// IsMalformedInput reports whether any error in err's chain is ErrMalformedInput.
func IsMalformedInput(err error) bool {
	return errors.Is(err, ErrMalformedInput)
}

// IsNotFound reports whether any error in err's chain is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists reports whether any error in err's chain is ErrAlreadyExists.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation reports whether any error in err's chain is ErrValidation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
