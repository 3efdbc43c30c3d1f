// Package categorize assigns research-topic categories to parsed seminar
// announcements by scoring configured keyword lists against the combined
// subject, title and abstract text.
package categorize

import (
	"regexp"
	"sort"
	"strings"

	"github.com/catht823/journal-club-calendar-bot/pkg/logging"
)

// Category is one configured topic with its keyword list and the calendar
// color it maps to.
type Category struct {
	Name     string
	Keywords []string
	ColorID  string
}

const (
	scoreWordBoundary = 10
	scoreSubstring    = 5

	// Substring matches on short keywords are noise ("rna" is inside
	// "alternative"), so only longer keywords get substring credit.
	minSubstringKeywordLen = 6

	includeThreshold  = 10
	minCategories     = 3
	maxCategories     = 4
	stopPhraseCeiling = 20
)

// aliasTable expands common abbreviations before matching so they hit the
// full-form keywords categories are configured with. Applied in order via
// word-boundary substitution on the lower-cased text.
var aliasTable = []struct {
	from string
	to   string
}{
	{"scrna-seq", "single-cell rna-seq"},
	{"scrnaseq", "single-cell rna-seq"},
	{"snrna-seq", "single-nucleus rna-seq"},
	{"e-phys", "electrophysiology"},
	{"ephys", "electrophysiology"},
	{"ml", "machine learning"},
	{"ai", "artificial intelligence"},
	{"fmri", "functional magnetic resonance imaging"},
	{"eeg", "electroencephalography"},
	{"crispr", "gene editing crispr"},
}

// Generic section headers that inflate scores when a full paper or long
// abstract is pasted into the email.
var defaultStopPhrases = []string{
	"introduction",
	"acknowledgments",
	"acknowledgements",
	"references",
	"supplementary material",
}

var aliasRes = func() []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(aliasTable))
	for i, a := range aliasTable {
		res[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(a.from) + `\b`)
	}
	return res
}()

type keywordMatcher struct {
	keyword string
	re      *regexp.Regexp
}

type categoryMatcher struct {
	name     string
	keywords []keywordMatcher
}

// Classifier scores text against the configured categories. Construction
// compiles one word-boundary pattern per keyword; Classify is then read-only
// and safe for concurrent use.
type Classifier struct {
	categories  []categoryMatcher
	stopPhrases []string
	log         logging.Logger
}

// New builds a Classifier from an ordered category list. Order matters: it
// breaks score ties, so configuration files list the most important
// categories first.
func New(categories []Category, stopPhrases []string, log logging.Logger) *Classifier {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if stopPhrases == nil {
		stopPhrases = defaultStopPhrases
	}

	matchers := make([]categoryMatcher, 0, len(categories))
	for _, c := range categories {
		m := categoryMatcher{name: c.Name}
		for _, kw := range c.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			m.keywords = append(m.keywords, keywordMatcher{
				keyword: kw,
				re:      regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`),
			})
		}
		matchers = append(matchers, m)
	}

	lowered := make([]string, 0, len(stopPhrases))
	for _, p := range stopPhrases {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			lowered = append(lowered, p)
		}
	}

	return &Classifier{categories: matchers, stopPhrases: lowered, log: log}
}

type scored struct {
	name  string
	score int
	order int
}

// Classify returns the ordered category names for the given text, best
// first. An empty result means no keyword matched at all; applying a
// fallback category is the caller's decision.
func (c *Classifier) Classify(text string) []string {
	lower := expandAliases(strings.ToLower(text))
	hasStopPhrase := c.containsStopPhrase(lower)

	var ranked []scored
	for i, cat := range c.categories {
		score := 0
		for _, kw := range cat.keywords {
			switch {
			case kw.re.MatchString(lower):
				score += scoreWordBoundary
			case len(kw.keyword) >= minSubstringKeywordLen && strings.Contains(lower, kw.keyword):
				score += scoreSubstring
			}
		}
		if hasStopPhrase && score > 0 && score < stopPhraseCeiling {
			score /= 2
		}
		if score > 0 {
			ranked = append(ranked, scored{name: cat.name, score: score, order: i})
		}
	}
	if len(ranked) == 0 {
		return nil
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].order < ranked[j].order
	})

	var names []string
	for _, s := range ranked {
		if s.score >= includeThreshold {
			names = append(names, s.name)
		}
	}
	// Backfill from the next-highest scores when too few cleared the
	// threshold; anything that matched at all is eligible.
	for _, s := range ranked {
		if len(names) >= minCategories {
			break
		}
		if s.score < includeThreshold {
			names = append(names, s.name)
		}
	}
	if len(names) > maxCategories {
		names = names[:maxCategories]
	}

	c.log.Debug("classified text",
		logging.F("categories", strings.Join(names, ",")),
		logging.F("candidates", len(ranked)))

	return names
}

func (c *Classifier) containsStopPhrase(lower string) bool {
	for _, p := range c.stopPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func expandAliases(lower string) string {
	for i, a := range aliasTable {
		lower = aliasRes[i].ReplaceAllString(lower, a.to)
	}
	return lower
}
