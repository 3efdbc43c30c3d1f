package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyEmailType(t *testing.T) {
	tests := []struct {
		name string
		text string
		want EmailType
	}{
		{"explicit cancellation", "This seminar has been cancelled.", EmailTypeCancellation},
		{"american spelling", "The talk is canceled this week.", EmailTypeCancellation},
		{"will not take place", "Journal club will not take place on Friday.", EmailTypeCancellation},
		{"apology plus cancel", "We are sorry to have to cancel this week's meeting.", EmailTypeCancellation},
		{"moved to new room", "The seminar has been moved to Room 12.", EmailTypeUpdate},
		{"new time", "Please note the new time for journal club.", EmailTypeUpdate},
		{"rescheduled", "The talk has been rescheduled.", EmailTypeUpdate},
		{"postponed with new date", "The talk has been postponed to next week.", EmailTypeUpdate},
		{"postponed without new date", "The talk has been postponed.", EmailTypeCancellation},
		{"reminder", "Reminder: journal club meets tomorrow at 2 PM.", EmailTypeReminder},
		{"dont forget", "Don't forget our seminar on Friday!", EmailTypeReminder},
		{"announcement", "We are pleased to announce a seminar on synaptic scaling.", EmailTypeNew},
		{"plain message defaults to new", "Journal club meets Friday in Room 4.", EmailTypeNew},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyEmailType(tt.text))
		})
	}
}

func TestExtractOriginalEventRefTitle(t *testing.T) {
	text := `Regarding the seminar titled "Neural Coding in the Retina", please note the room change.`

	got := extractOriginalEventRef(text)

	assert.Equal(t, "Neural Coding in the Retina", got)
}

func TestExtractOriginalEventRefQuotedEventName(t *testing.T) {
	text := `Unfortunately the talk "Predictive Coding in Visual Cortex" is postponed.`

	got := extractOriginalEventRef(text)

	assert.Equal(t, "Predictive Coding in Visual Cortex", got)
}

func TestExtractOriginalEventRefFragments(t *testing.T) {
	text := "The session originally presented by Jane Doe and originally scheduled for March 3. It is cancelled."

	got := extractOriginalEventRef(text)

	assert.Equal(t, "Jane Doe | March 3", got)
}

func TestExtractOriginalEventRefNone(t *testing.T) {
	assert.Empty(t, extractOriginalEventRef("The seminar is cancelled."))
}
