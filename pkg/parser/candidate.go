package parser

import (
	"regexp"
	"sort"
	"strings"
)

// Candidate is a scored, provisional extraction result for one field.
// Scores are comparable only within the same field; the title and location
// cascades use different scales.
type Candidate struct {
	Value  string
	Score  int
	Source string
}

// extractInput bundles the views of a message an extractor may need. Most
// strategies only read Text; the subject and HTML strategies of the title
// cascade read the raw forms.
type extractInput struct {
	Text    string
	Subject string
	HTML    string
}

// strategy is one heuristic in a cascade. Strategies are independent: each
// produces zero or more candidates and never sees another strategy's output.
type strategy struct {
	name    string
	extract func(in extractInput) []Candidate
}

// runCascade evaluates every strategy in order, merges duplicate candidates
// (case/whitespace-insensitive) keeping the highest score, and returns the
// best candidate ranked by score, ties broken by longer text.
func runCascade(in extractInput, strategies []strategy) (Candidate, bool) {
	var all []Candidate
	for _, s := range strategies {
		for _, c := range s.extract(in) {
			c.Value = strings.TrimSpace(c.Value)
			if c.Value == "" {
				continue
			}
			if c.Source == "" {
				c.Source = s.name
			}
			all = append(all, c)
		}
	}
	if len(all) == 0 {
		return Candidate{}, false
	}

	merged := make(map[string]Candidate, len(all))
	order := make([]string, 0, len(all))
	for _, c := range all {
		key := dedupeKey(c.Value)
		prev, seen := merged[key]
		if !seen {
			order = append(order, key)
		}
		if !seen || c.Score > prev.Score {
			merged[key] = c
		}
	}

	ranked := make([]Candidate, 0, len(merged))
	for _, key := range order {
		ranked = append(ranked, merged[key])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return len(ranked[i].Value) > len(ranked[j].Value)
	})

	return ranked[0], true
}

var whitespaceRe = regexp.MustCompile(`\s+`)

func dedupeKey(s string) string {
	return whitespaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
}

// firstMatch tries each pattern in order against text and returns the first
// capture group of the first pattern that matches. Patterns must carry
// exactly one capture group of interest at index 1.
func firstMatch(patterns []*regexp.Regexp, text string) (string, bool) {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}
