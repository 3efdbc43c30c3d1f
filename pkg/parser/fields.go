package parser

import (
	"regexp"
	"strings"
)

const (
	minSpeakerLen = 2
	maxSpeakerLen = 100
)

// labeledFieldValue scans line by line for "Label: value" where the label
// matches labelRe. Announcements put one field per line, so a per-line scan
// is both simpler and safer than a multiline regex over the whole text.
func labeledFieldValue(text string, labelRe *regexp.Regexp) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		if m := labelRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			v := strings.TrimSpace(m[1])
			if v != "" {
				return v, true
			}
		}
	}
	return "", false
}

var speakerFieldRe = regexp.MustCompile(`(?i)^(?:speaker|presenter|presented by|guest|lecturer)\s*[:\-]\s*(.{2,150})$`)

// Phrase patterns for speakers named inline rather than in a field. Group 1
// captures the name; a trailing honorific-led capitalized run keeps the match
// from swallowing the rest of the sentence.
var speakerPhraseRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i:\bpresented\s+by\s+)((?:(?:Dr|Prof|Professor|Mr|Ms|Mrs)\.?\s+)?[A-Z][\w'.-]+(?:\s+[A-Z][\w'.-]+){0,3})`),
	regexp.MustCompile(`(?i:\bjoin\s+)((?:(?:Dr|Prof|Professor)\.?\s+)?[A-Z][\w'.-]+(?:\s+[A-Z][\w'.-]+){0,3})\s+(?i:for|as|who)\b`),
	regexp.MustCompile(`\b((?:Dr|Prof|Professor)\.?\s+[A-Z][\w'.-]+(?:\s+[A-Z][\w'.-]+){0,3})`),
	regexp.MustCompile(`^((?:[A-Z][\w'.-]+\s+){1,3}[A-Z][\w'.-]+)\s+(?i:will\s+(?:present|discuss|speak|lead))\b`),
}

var speakerTrailingRe = regexp.MustCompile(`(?i)\s*[,(].*$`)

// extractSpeaker prefers an explicit field and falls back to phrase patterns.
func extractSpeaker(text string) string {
	if v, ok := labeledFieldValue(text, speakerFieldRe); ok {
		if s := cleanSpeaker(v); s != "" {
			return s
		}
	}
	for _, line := range strings.Split(text, "\n") {
		for _, re := range speakerPhraseRes {
			if m := re.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
				if s := cleanSpeaker(m[1]); s != "" {
					return s
				}
			}
		}
	}
	return ""
}

// cleanSpeaker drops affiliation tails ("Jane Doe, Stanford University") and
// enforces the length bounds.
func cleanSpeaker(s string) string {
	s = speakerTrailingRe.ReplaceAllString(strings.TrimSpace(s), "")
	s = strings.TrimRight(s, " .;:-")
	if len(s) < minSpeakerLen || len(s) > maxSpeakerLen {
		return ""
	}
	return s
}

var urlFieldRe = regexp.MustCompile(`(?i)^(?:zoom|link|meeting link|meeting|url|join|webinar|video call|teams)\s*[:\-]\s*(.+)$`)

var httpURLRe = regexp.MustCompile(`https?://[^\s<>"'\)\]]+`)

// extractURL prefers a URL on a labeled line, then the first meeting-looking
// URL anywhere, then the first URL at all.
func extractURL(text string) string {
	if v, ok := labeledFieldValue(text, urlFieldRe); ok {
		if u := httpURLRe.FindString(v); u != "" {
			return cleanURL(u)
		}
	}

	all := httpURLRe.FindAllString(text, 20)
	for _, u := range all {
		lower := strings.ToLower(u)
		if strings.Contains(lower, "zoom.") || strings.Contains(lower, "meet.google") ||
			strings.Contains(lower, "teams.microsoft") || strings.Contains(lower, "webex") {
			return cleanURL(u)
		}
	}
	if len(all) > 0 {
		return cleanURL(all[0])
	}
	return ""
}

func cleanURL(u string) string {
	return strings.TrimRight(u, ".,;:!?")
}

var abstractLabelRe = regexp.MustCompile(`(?i)^(?:abstract|summary|description|overview)\s*[:\-]?\s*(.*)$`)

// Labels whose appearance ends an abstract block.
var abstractStopRe = regexp.MustCompile(`(?i)^(?:date|time|when|where|location|room|venue|speaker|zoom|link|rsvp|best|regards|sincerely|thanks|thank you|cheers)\b`)

const (
	minAbstractLen = 40
	maxAbstractLen = 4000
)

// extractAbstract finds an abstract label and accumulates the labeled line
// plus the following continuation lines until a blank gap, a new field label
// or a sign-off. Short results are discarded; a two-word "abstract" is noise.
func extractAbstract(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		m := abstractLabelRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}

		var parts []string
		if v := strings.TrimSpace(m[1]); v != "" {
			parts = append(parts, v)
		}
		for j := i + 1; j < len(lines); j++ {
			next := strings.TrimSpace(lines[j])
			if next == "" {
				if len(parts) > 0 {
					break
				}
				continue
			}
			if abstractStopRe.MatchString(next) {
				break
			}
			parts = append(parts, next)
		}

		abstract := strings.TrimSpace(strings.Join(parts, " "))
		if len(abstract) < minAbstractLen {
			continue
		}
		if len(abstract) > maxAbstractLen {
			abstract = truncateAtRune(abstract, maxAbstractLen)
		}
		return abstract
	}
	return ""
}
