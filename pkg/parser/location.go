package parser

import (
	"regexp"
	"strings"
)

const maxLocationLen = 200

var locationFieldRe = regexp.MustCompile(`(?i)^(?:location|where|venue|place|room)\s*[:\-]\s*(.{2,200})$`)

// Inline place patterns, strongest first.
var locationPhraseRes = []struct {
	score int
	re    *regexp.Regexp
}{
	{90, regexp.MustCompile(`(?i)\b((?:room|rm\.?)\s*#?\s*[\w-]+(?:\s*,\s*[A-Z][\w .'-]{2,60})?)`)},
	{90, regexp.MustCompile(`\b((?:[A-Z][\w'-]+\s+){1,3}(?:Hall|Building|Bldg|Auditorium|Center|Centre|Library|Pavilion)\b(?:\s*,\s*(?i:room|rm\.?)\s*#?\s*[\w-]+)?)`)},
	{80, regexp.MustCompile(`(?i)\b((?:conference|seminar|lecture|meeting)\s+room\s*#?\s*[\w-]*)`)},
	{70, regexp.MustCompile(`(?i)\bin\s+the\s+([A-Z][\w .'-]{3,60}(?:hall|room|auditorium|lounge|atrium))`)},
}

var virtualLocationRe = regexp.MustCompile(`(?i)\b(?:virtual(?:ly)?|online|remote)\b.{0,40}?(https?://[^\s<>"']+)`)

// Bare keywords that make a whole short line a plausible location.
var locationKeywordRe = regexp.MustCompile(`(?i)\b(?:room|hall|building|auditorium|floor|campus|zoom|online|virtual|hybrid)\b`)

var locationStrategies = []strategy{
	{name: "location_field", extract: fieldLocations},
	{name: "phrase", extract: phraseLocations},
	{name: "virtual", extract: virtualLocations},
	{name: "keyword_line", extract: keywordLineLocations},
}

// extractLocation runs the location cascade and returns the best candidate
// value, or empty when nothing plausible appears.
func extractLocation(in extractInput) string {
	best, ok := runCascade(in, locationStrategies)
	if !ok {
		return ""
	}
	return best.Value
}

func fieldLocations(in extractInput) []Candidate {
	v, ok := labeledFieldValue(in.Text, locationFieldRe)
	if !ok {
		return nil
	}
	v = cleanLocation(v)
	if v == "" {
		return nil
	}
	return []Candidate{{Value: v, Score: 100}}
}

func phraseLocations(in extractInput) []Candidate {
	var out []Candidate
	for _, line := range strings.Split(in.Text, "\n") {
		line = strings.TrimSpace(line)
		for _, pat := range locationPhraseRes {
			m := pat.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			v := cleanLocation(m[1])
			if v == "" {
				continue
			}
			out = append(out, Candidate{Value: v, Score: pat.score})
		}
	}
	return out
}

func virtualLocations(in extractInput) []Candidate {
	m := virtualLocationRe.FindStringSubmatch(in.Text)
	if m == nil {
		return nil
	}
	return []Candidate{{Value: "Virtual: " + cleanURL(m[1]), Score: 60}}
}

// keywordLineLocations accepts a short line that mentions a place keyword but
// matched none of the structured patterns, scored below everything else.
func keywordLineLocations(in extractInput) []Candidate {
	var out []Candidate
	for _, line := range strings.Split(in.Text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < 4 || len(line) > 80 {
			continue
		}
		if !locationKeywordRe.MatchString(line) {
			continue
		}
		if httpURLRe.MatchString(line) || strings.Contains(line, "@") {
			continue
		}
		v := cleanLocation(line)
		if v == "" {
			continue
		}
		out = append(out, Candidate{Value: v, Score: 40})
	}
	return out
}

var bracketReplacer = strings.NewReplacer("[", "(", "]", ")", "{", "(", "}", ")")

func cleanLocation(s string) string {
	s = bracketReplacer.Replace(strings.TrimSpace(s))
	s = strings.TrimRight(s, " .,;:!-")
	if len(s) < 2 || len(s) > maxLocationLen {
		return ""
	}
	return s
}
