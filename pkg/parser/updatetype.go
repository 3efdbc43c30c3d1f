package parser

import (
	"regexp"
	"strings"
)

// Update-type classification is a deterministic ordered rule match: the first
// rule whose pattern set matches wins, so priority is encoded by position.

var cancellationRes = []*regexp.Regexp{
	regexp.MustCompile(`\bcancell?ed\b`),
	regexp.MustCompile(`\bwill not take place\b`),
	regexp.MustCompile(`\bhas been cancell?ed\b`),
	regexp.MustCompile(`\b(?:sorry|apologi[sz]e|regret|unfortunately)\b[^.\n]{0,80}\b(?:cancel|postpone)`),
}

var updateRes = []*regexp.Regexp{
	regexp.MustCompile(`\bupdated?\b`),
	regexp.MustCompile(`\bnew\s+(?:time|location|date|room|venue)\b`),
	regexp.MustCompile(`\bmoved to\b`),
	regexp.MustCompile(`\brescheduled\b`),
	regexp.MustCompile(`\bhas been (?:moved|changed)\b`),
	regexp.MustCompile(`\b(?:time|location|date|room|venue) (?:has )?changed?\b`),
}

var postponedRe = regexp.MustCompile(`\bpostponed\b`)

// A postponement with a replacement date is an update; without one it is a
// cancellation.
var newDateAfterPostponeRes = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:to|until|for)\s+(?:` + dayAlt + `|` + monthAlt + `|next\s+week|\d{1,2}/\d{1,2})`),
	regexp.MustCompile(`\bnew date\b`),
	regexp.MustCompile(`\brescheduled\b`),
}

var reminderRes = []*regexp.Regexp{
	regexp.MustCompile(`\breminder\b`),
	regexp.MustCompile(`\bdon'?t forget\b`),
	regexp.MustCompile(`\bcoming up\b[^.\n]{0,80}\b(?:seminar|talk|journal club|meeting)\b`),
}

// ClassifyEmailType classifies a message's intent from its normalized text.
// The text is lower-cased here; callers pass it as produced by Normalize.
func ClassifyEmailType(text string) EmailType {
	lower := strings.ToLower(text)

	if postponedRe.MatchString(lower) {
		for _, re := range newDateAfterPostponeRes {
			if re.MatchString(lower) {
				return EmailTypeUpdate
			}
		}
		return EmailTypeCancellation
	}
	if matchesAny(lower, cancellationRes) {
		return EmailTypeCancellation
	}
	if matchesAny(lower, updateRes) {
		return EmailTypeUpdate
	}
	if matchesAny(lower, reminderRes) {
		return EmailTypeReminder
	}
	return EmailTypeNew
}

func matchesAny(text string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// Reference patterns for locating the event an update or cancellation talks
// about. The title forms are authoritative; speaker and date forms are only
// fragments.
var (
	refTitleRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:regarding|about|for)\s+the\b[^"\x{201C}\n]{0,60}\b(?:titled|entitled)\s*:?\s*[\x{201C}"]?([^\x{201D}"\n]{4,200})`),
		regexp.MustCompile(`(?i)\b(?:titled|entitled)\s*:?\s*[\x{201C}"]([^\x{201D}"\n]{4,200})[\x{201D}"]`),
		regexp.MustCompile(`(?i)\b(?:the|our)\s+(?:seminar|talk|journal club|presentation)\s+[\x{201C}"]([^\x{201D}"\n]{4,200})[\x{201D}"]`),
	}
	refSpeakerRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i:\boriginally\s+presented\s+by\s+)([A-Z][\w'.-]+(?:\s+[A-Z][\w'.-]+){0,3})`),
		regexp.MustCompile(`\b((?:Dr|Prof|Professor)\.?\s+[A-Z][\w'.-]+(?:\s+[A-Z][\w'.-]+){0,2})`),
	}
	refDateRe = regexp.MustCompile(`(?i)\boriginally scheduled for\s+([^.\n]{4,80})`)
)

// extractOriginalEventRef pulls a cross-reference to the event an update,
// cancellation or reminder message refers to. A title match wins outright;
// otherwise the speaker and original-date fragments are joined with " | ".
func extractOriginalEventRef(text string) string {
	if v, ok := firstMatch(refTitleRes, text); ok {
		return cleanTitle(v)
	}

	var fragments []string
	if v, ok := firstMatch(refSpeakerRes, text); ok {
		fragments = append(fragments, strings.TrimRight(v, " .,;"))
	}
	if m := refDateRe.FindStringSubmatch(text); m != nil {
		fragments = append(fragments, strings.TrimSpace(strings.TrimRight(m[1], " .,;")))
	}
	return strings.Join(fragments, " | ")
}
