package parser

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// maxExtractionInput caps the text the extractors see. Email bodies are
// attacker-uncontrolled but can be arbitrarily long; bounding the input
// bounds every regex evaluation below.
const maxExtractionInput = 64 * 1024

// Lines matching any of these are mail plumbing, not content. The Date
// pattern is deliberately narrow: it only drops RFC 2822 header dates
// ("Date: Mon, 3 Mar 2025 14:00:00 -0800"), not announcement date fields
// like "Date: Monday, March 3, 2025", which the datetime extractor needs.
var noiseLinePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:from|to|cc|bcc|sent|subject|reply-to|message-id|return-path|received|x-[\w-]+)\s*:`),
	regexp.MustCompile(`(?i)^date\s*:\s*(?:mon|tue|wed|thu|fri|sat|sun)\s*,\s*\d{1,2}\s+[a-z]{3,9}\s+\d{4}\b`),
	regexp.MustCompile(`(?i)^on\s+.{1,150}\bwrote\s*:?\s*$`),
	regexp.MustCompile(`(?i)^-{2,}\s*(?:original message|forwarded message|forward)\s*-{0,}$`),
	regexp.MustCompile(`(?i)^begin forwarded message\s*:?$`),
	regexp.MustCompile(`(?i)^-{5,}\s*forwarded by\b`),
	regexp.MustCompile(`^>`),
	regexp.MustCompile(`^<?[\w.+-]+@[\w.-]+\.[a-zA-Z]{2,}>?$`),
	regexp.MustCompile(`^[\s\p{P}\p{S}]+$`),
	regexp.MustCompile(`(?i)^unsubscribe\b`),
	regexp.MustCompile(`(?i)^you are receiving this (?:email|message)\b`),
}

// Tags whose boundaries imply a line break when rendering HTML to text.
var htmlBlockTags = map[string]bool{
	"br": true, "p": true, "div": true, "li": true, "tr": true,
	"table": true, "ul": true, "ol": true, "blockquote": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// Normalize builds the single noise-free text all extractors consume. It
// concatenates subject, plain body and the HTML body rendered to text, drops
// header/forwarding noise line by line, and collapses blank runs. The result
// is empty only when all input was empty or entirely noise.
func Normalize(subject, bodyText, htmlBody string) string {
	parts := make([]string, 0, 3)
	if s := strings.TrimSpace(subject); s != "" {
		parts = append(parts, s)
	}
	if b := strings.TrimSpace(bodyText); b != "" {
		parts = append(parts, b)
	}
	if h := htmlToText(htmlBody); strings.TrimSpace(h) != "" {
		parts = append(parts, h)
	}

	combined := norm.NFKC.String(strings.Join(parts, "\n"))
	if len(combined) > maxExtractionInput {
		combined = truncateAtRune(combined, maxExtractionInput)
	}

	var out []string
	blanks := 0
	for _, line := range strings.Split(combined, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			blanks++
			continue
		}
		if isNoiseLine(line) {
			continue
		}
		// A run of blank lines separating surviving content collapses to
		// exactly one blank line.
		if blanks > 0 && len(out) > 0 {
			out = append(out, "")
		}
		blanks = 0
		out = append(out, line)
	}

	return strings.Join(out, "\n")
}

func isNoiseLine(line string) bool {
	for _, re := range noiseLinePatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// htmlToText strips tags and collapses markup to line-break-preserving plain
// text. Script and style bodies are discarded entirely.
func htmlToText(src string) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}

	tok := html.NewTokenizer(strings.NewReader(src))
	var b strings.Builder
	skipDepth := 0
	for {
		tt := tok.Next()
		switch tt {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := tok.TagName()
			tag := string(name)
			if tag == "script" || tag == "style" {
				if tt == html.StartTagToken {
					skipDepth++
				}
				continue
			}
			if htmlBlockTags[tag] {
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := tok.TagName()
			tag := string(name)
			if tag == "script" || tag == "style" {
				if skipDepth > 0 {
					skipDepth--
				}
				continue
			}
			if htmlBlockTags[tag] {
				b.WriteByte('\n')
			}
		case html.TextToken:
			if skipDepth == 0 {
				b.Write(tok.Text())
			}
		}
	}
}

func truncateAtRune(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
