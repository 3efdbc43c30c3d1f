package parser

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// DefaultTitle is the fallback when no candidate survives the cascade.
const DefaultTitle = "Journal Club"

const (
	minTitleLen = 8
	maxTitleLen = 300

	// lineScanLimit bounds the heuristic scan; real announcements state
	// the talk near the top.
	lineScanLimit = 50
)

// Quoted talk titles are the strongest signal an announcement gives.
var quotedTitleRes = []*regexp.Regexp{
	regexp.MustCompile(`[\x{201C}]([^\x{201C}\x{201D}]{8,300})[\x{201D}]`),
	regexp.MustCompile(`"([^"\n]{8,300})"`),
}

// Explicit marker patterns, strongest first. Group 1 captures the title.
var titleMarkerRes = []struct {
	score int
	re    *regexp.Regexp
}{
	{95, regexp.MustCompile(`(?i)^(?:title|topic|talk title|seminar title|talk)\s*[:\-]\s*(.{4,300})$`)},
	{90, regexp.MustCompile(`(?i)\bentitled\s*:?\s*[\x{201C}"]?([^\x{201D}"\n]{8,200})`)},
	{88, regexp.MustCompile(`(?i)\btitled\s*:?\s*[\x{201C}"]?([^\x{201D}"\n]{8,200})`)},
	{85, regexp.MustCompile(`(?i)\bwill\s+(?:present|discuss|speak\s+on)\s*:\s*[\x{201C}"]?([^\x{201D}"\n]{8,200})`)},
}

var markdownTitleRes = []struct {
	score int
	re    *regexp.Regexp
}{
	{90, regexp.MustCompile(`(?m)^#{1,3}\s+(.{8,200})$`)},
	{80, regexp.MustCompile(`\*\*([^*\n]{8,200})\*\*`)},
	{70, regexp.MustCompile(`__([^_\n]{8,200})__`)},
}

// Scores for HTML emphasis spans, by tag.
var htmlEmphasisScores = map[string]int{
	"h1": 90, "h2": 88, "h3": 85,
	"b": 85, "strong": 85,
	"i": 75, "em": 75,
	"font": 80, "u": 75,
}

// Rejection patterns: a line matching any of these is not likely a title no
// matter where it came from.
var notTitleRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:title|topic|talk|speaker|presenter|host|contact|abstract|summary|description|overview|agenda|when|where|who|what|time|date|location|room|venue|zoom|link|rsvp)\s*[:\-]\s`),
	regexp.MustCompile(`[\w.+-]+@[\w.-]+\.[a-zA-Z]{2,}`),
	regexp.MustCompile(`https?://`),
	regexp.MustCompile(`(?i)^(?:hi|hello|dear|greetings|good\s+(?:morning|afternoon|evening))\b`),
	regexp.MustCompile(`(?i)^(?:best|regards|kind regards|sincerely|thanks|thank you|cheers)\b`),
	regexp.MustCompile(`(?i)^(?:dr|prof|professor|mr|ms|mrs)\.?\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*$`),
	regexp.MustCompile(`(?i)^(?:` + dayAlt + `)\s*,`),
	regexp.MustCompile(`(?i)^(?:` + monthAlt + `)\.?\s+\d{1,2}`),
	regexp.MustCompile(`^\d{1,2}[:/]\d{2}`),
}

// Vocabulary that makes a line look like an actual talk title rather than
// logistics. Matched case-insensitively on word boundaries.
var academicTerms = []string{
	"analysis", "mechanism", "mechanisms", "model", "models", "dynamics",
	"neural", "cortical", "synaptic", "molecular", "cellular", "genomic",
	"protein", "receptor", "pathway", "network", "networks", "plasticity",
	"cognition", "behavior", "imaging", "learning", "inference", "regulation",
	"expression", "evolution", "structure", "function", "signaling",
	"computation", "circuits", "rna", "dna", "transcription", "algorithm",
}

var academicTermRe = func() *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(academicTerms, "|") + `)\b`)
}()

var modalPhraseRe = regexp.MustCompile(`(?i)\b(?:will|please|join|you|we are|i am)\b`)

var subjectPrefixRe = regexp.MustCompile(`(?i)^(?:(?:re|fwd?|fw)\s*:\s*|\[[^\]]{1,40}\]\s*)+`)
var subjectDateSuffixRe = regexp.MustCompile(`(?i)\s*[-–—(]\s*(?:` + dayAlt + `|` + monthAlt + `)[^-–—]*$`)

var titleStrategies = []strategy{
	{name: "quoted", extract: quotedTitles},
	{name: "marker", extract: markerTitles},
	{name: "html_emphasis", extract: htmlEmphasisTitles},
	{name: "markdown", extract: markdownTitles},
	{name: "line_scan", extract: lineScanTitles},
	{name: "subject", extract: subjectTitles},
}

// extractTitle runs the full title cascade and returns the best candidate.
func extractTitle(in extractInput) (Candidate, bool) {
	return runCascade(in, titleStrategies)
}

func quotedTitles(in extractInput) []Candidate {
	var out []Candidate
	for _, re := range quotedTitleRes {
		for _, m := range re.FindAllStringSubmatch(in.Text, 5) {
			v := cleanTitle(m[1])
			if !likelyTitle(v) {
				continue
			}
			out = append(out, Candidate{Value: v, Score: 98 + qualityBonus(v)})
		}
	}
	return out
}

func markerTitles(in extractInput) []Candidate {
	var out []Candidate
	for _, line := range strings.Split(in.Text, "\n") {
		line = strings.TrimSpace(line)
		for _, pat := range titleMarkerRes {
			m := pat.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			v := cleanTitle(m[1])
			if v == "" || !likelyTitle(v) {
				continue
			}
			out = append(out, Candidate{Value: v, Score: pat.score + qualityBonus(v)})
		}
	}
	return out
}

func htmlEmphasisTitles(in extractInput) []Candidate {
	if strings.TrimSpace(in.HTML) == "" {
		return nil
	}

	var out []Candidate
	tok := html.NewTokenizer(strings.NewReader(in.HTML))
	var currentTag string
	var buf strings.Builder
	for {
		switch tok.Next() {
		case html.ErrorToken:
			return out
		case html.StartTagToken:
			name, _ := tok.TagName()
			tag := string(name)
			if _, ok := htmlEmphasisScores[tag]; ok && currentTag == "" {
				currentTag = tag
				buf.Reset()
			}
		case html.TextToken:
			if currentTag != "" {
				buf.Write(tok.Text())
			}
		case html.EndTagToken:
			name, _ := tok.TagName()
			tag := string(name)
			if tag != currentTag {
				continue
			}
			v := cleanTitle(buf.String())
			currentTag = ""
			if len(v) < minTitleLen || !likelyTitle(v) {
				continue
			}
			out = append(out, Candidate{Value: v, Score: htmlEmphasisScores[tag] + qualityBonus(v)})
		}
	}
}

func markdownTitles(in extractInput) []Candidate {
	var out []Candidate
	for _, pat := range markdownTitleRes {
		for _, m := range pat.re.FindAllStringSubmatch(in.Text, 5) {
			v := cleanTitle(m[1])
			if !likelyTitle(v) {
				continue
			}
			out = append(out, Candidate{Value: v, Score: pat.score + qualityBonus(v)})
		}
	}
	return out
}

func lineScanTitles(in extractInput) []Candidate {
	var out []Candidate
	lines := strings.Split(in.Text, "\n")
	if len(lines) > lineScanLimit {
		lines = lines[:lineScanLimit]
	}
	for i, line := range lines {
		v := cleanTitle(line)
		if len(v) < minTitleLen || len(v) > maxTitleLen || !likelyTitle(v) {
			continue
		}
		score := 50 + qualityBonus(v)
		if i < 10 {
			score += 10
		} else if i < 20 {
			score += 5
		}
		out = append(out, Candidate{Value: v, Score: score})
	}
	return out
}

func subjectTitles(in extractInput) []Candidate {
	v := cleanTitle(cleanSubject(in.Subject))
	if len(v) < 4 || !likelyTitle(v) {
		return nil
	}
	return []Candidate{{Value: v, Score: 30 + qualityBonus(v)}}
}

// cleanSubject strips reply/forward prefixes, list tags and trailing date
// fragments from a subject line.
func cleanSubject(subject string) string {
	s := strings.TrimSpace(subject)
	s = subjectPrefixRe.ReplaceAllString(s, "")
	s = subjectDateSuffixRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func cleanTitle(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`+"“”")
	s = strings.TrimRight(s, " .,;:-")
	return strings.TrimSpace(s)
}

// likelyTitle rejects candidates that match header, email, name or date
// patterns regardless of which strategy produced them.
func likelyTitle(s string) bool {
	if len(s) < 4 || len(s) > maxTitleLen {
		return false
	}
	for _, re := range notTitleRes {
		if re.MatchString(s) {
			return false
		}
	}
	return true
}

// qualityBonus rewards title-shaped content: a comfortable word count, a
// leading capital, academic vocabulary, and the absence of first/second
// person modal phrasing.
func qualityBonus(s string) int {
	bonus := 0

	words := strings.Fields(s)
	switch {
	case len(words) >= 6 && len(words) <= 10:
		bonus += 30
	case len(words) >= 5 && len(words) <= 12:
		bonus += 20
	}

	r := []rune(s)
	if len(r) > 0 && unicode.IsUpper(r[0]) {
		bonus += 15
	}

	termBonus := 10 * len(academicTermRe.FindAllString(s, 4))
	if termBonus > 40 {
		termBonus = 40
	}
	bonus += termBonus

	if !modalPhraseRe.MatchString(s) {
		bonus += 10
	}

	return bonus
}
