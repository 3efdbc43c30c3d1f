package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Dates and times are extracted independently and composed afterwards:
// announcements routinely put them in separate fields ("Date: Monday, March
// 3, 2025" on one line, "Time: 2:00 PM" on another), so a single combined
// pattern would miss most real messages.

// defaultStartHour is the assumed start when a date is found without any
// clock time. Seminars in this corpus overwhelmingly start at 2 PM local.
const defaultStartHour = 14

// DateStatus distinguishes the three outcomes of a date parse so failure
// propagation is visible in signatures instead of being swallowed.
type DateStatus int

const (
	// DateParsed means a calendar date was extracted and parsed.
	DateParsed DateStatus = iota
	// DateNoMatch means no pattern matched anywhere in the text.
	DateNoMatch
	// DateMalformed means a pattern matched but every matched phrase was
	// rejected by the date parser.
	DateMalformed
)

// DateResult is the typed outcome of date-only extraction.
type DateResult struct {
	Time   time.Time
	Status DateStatus
	Source string
}

const (
	monthAlt = `january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec`
	dayAlt   = `monday|tuesday|wednesday|thursday|friday|saturday|sunday|mon|tues|tue|wed|thurs|thur|thu|fri|sat|sun`
)

// Ordered from most specific to least. Each pattern captures the date phrase
// at group 1; the first phrase the date parser accepts wins.
var datePatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"date_field", regexp.MustCompile(`(?i)^(?:date|when|day)\s*[:\-]\s*(.+)$`)},
	{"weekday_long", regexp.MustCompile(`(?i)\b((?:` + dayAlt + `)\s*,?\s+(?:` + monthAlt + `)\.?\s+\d{1,2}(?:st|nd|rd|th)?\s*,?\s+\d{4}(?:\s*,?\s+(?:at\s+)?\d{1,2}(?::\d{2})?\s*(?:a\.?m\.?|p\.?m\.?)?)?)`)},
	{"month_day_year", regexp.MustCompile(`(?i)\b((?:` + monthAlt + `)\.?\s+\d{1,2}(?:st|nd|rd|th)?\s*,?\s+\d{4})\b`)},
	{"day_month_year", regexp.MustCompile(`(?i)\b(\d{1,2}(?:st|nd|rd|th)?\s+(?:` + monthAlt + `)\.?\s+\d{4})\b`)},
	{"month_day", regexp.MustCompile(`(?i)\b((?:` + monthAlt + `)\.?\s+\d{1,2}(?:st|nd|rd|th)?)\b`)},
	{"numeric", regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{2,4})\b`)},
}

var (
	leadingWeekdayRe = regexp.MustCompile(`(?i)^(?:` + dayAlt + `)\s*,?\s+`)
	ordinalSuffixRe  = regexp.MustCompile(`(?i)(\d)(?:st|nd|rd|th)\b`)
	bareMonthDayRe   = regexp.MustCompile(`(?i)^(` + monthAlt + `)\.?\s+(\d{1,2})$`)
)

var monthsByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// extractDate runs the date pattern cascade over the text line by line,
// skipping anything that still looks like a mail header. There is no
// fallback to "today" here; composition decides what a missing date means.
func extractDate(text string, now time.Time, loc *time.Location) DateResult {
	lines := strings.Split(text, "\n")
	sawMalformed := false

	for _, pat := range datePatterns {
		for _, line := range lines {
			line = strings.TrimSpace(line)
			if line == "" || isNoiseLine(line) {
				continue
			}
			m := pat.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			res := parseDatePhrase(m[1], now, loc)
			if res.Status == DateParsed {
				res.Source = pat.name
				return res
			}
			sawMalformed = true
		}
	}

	if sawMalformed {
		return DateResult{Status: DateMalformed}
	}
	return DateResult{Status: DateNoMatch}
}

// parseDatePhrase normalizes one matched phrase and hands it to the date
// parser. Weekday prefixes and ordinal suffixes are stripped first; the
// parser rejects both.
func parseDatePhrase(phrase string, now time.Time, loc *time.Location) DateResult {
	phrase = strings.TrimSpace(phrase)
	phrase = leadingWeekdayRe.ReplaceAllString(phrase, "")
	phrase = ordinalSuffixRe.ReplaceAllString(phrase, "$1")
	phrase = strings.Trim(phrase, " .,;")
	if phrase == "" {
		return DateResult{Status: DateMalformed}
	}

	// Bare "Month D" has no year; resolve against the current year.
	if m := bareMonthDayRe.FindStringSubmatch(phrase); m != nil {
		month, ok := monthsByPrefix[strings.ToLower(m[1])[:3]]
		day, _ := strconv.Atoi(m[2])
		if !ok || day < 1 || day > 31 {
			return DateResult{Status: DateMalformed}
		}
		return DateResult{
			Time:   time.Date(now.Year(), month, day, 0, 0, 0, 0, loc),
			Status: DateParsed,
		}
	}

	t, err := dateparse.ParseIn(phrase, loc)
	if err != nil || t.Year() < 1990 || t.Year() > 2100 {
		return DateResult{Status: DateMalformed}
	}
	return DateResult{Time: t, Status: DateParsed}
}

type timeOfDay struct {
	hour   int
	minute int
}

// Ordered from most to least specific: an explicit AM/PM clock beats a
// labeled or "at"-anchored time, which beats a bare 24-hour clock.
var timeOfDayPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(a\.?m\.?|p\.?m\.?)\b`),
	regexp.MustCompile(`(?i)\btime\s*[:\-]\s*(\d{1,2}):(\d{2})\s*(a\.?m\.?|p\.?m\.?)?`),
	regexp.MustCompile(`(?i)\bat\s+(\d{1,2}):(\d{2})\s*(a\.?m\.?|p\.?m\.?)?`),
	regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`),
}

func extractTimeOfDay(text string) (timeOfDay, bool) {
	for _, re := range timeOfDayPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if len(m) > 2 && m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if len(m) > 3 && m[3] != "" {
			switch strings.ToLower(strings.ReplaceAll(m[3], ".", "")) {
			case "pm":
				if hour < 12 {
					hour += 12
				}
			case "am":
				if hour == 12 {
					hour = 0
				}
			}
		}
		if hour > 23 || minute > 59 {
			continue
		}
		return timeOfDay{hour: hour, minute: minute}, true
	}
	return timeOfDay{}, false
}

// naturalDateParser is the broad fallback: a natural-language date search
// over the whole text when the structured cascades find nothing.
var naturalDateParser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

func searchNaturalDate(text string, now time.Time) (time.Time, bool) {
	r, err := naturalDateParser.Parse(text, now)
	if err != nil || r == nil {
		return time.Time{}, false
	}
	t := r.Time
	if t.Hour() == 0 && t.Minute() == 0 {
		t = time.Date(t.Year(), t.Month(), t.Day(), defaultStartHour, 0, 0, 0, t.Location())
	}
	return t, true
}

// composeStart merges the independently extracted date and time into the
// event start. The placeholder branch fabricates "today at 14:00" when no
// signal exists at all; whether that is allowed is a configuration decision,
// since a plausible-but-wrong event can be preferable to silently dropping a
// message the category classifier still needs processed.
func composeStart(text string, now time.Time, loc *time.Location, allowPlaceholder bool) (time.Time, bool) {
	date := extractDate(text, now, loc)
	tod, haveTime := extractTimeOfDay(text)

	switch {
	case date.Status == DateParsed && haveTime:
		d := date.Time.In(loc)
		return time.Date(d.Year(), d.Month(), d.Day(), tod.hour, tod.minute, 0, 0, loc), true
	case date.Status == DateParsed:
		d := date.Time.In(loc)
		hour, minute := d.Hour(), d.Minute()
		if hour == 0 && minute == 0 {
			hour, minute = defaultStartHour, 0
		}
		return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, loc), true
	case haveTime:
		return time.Date(now.Year(), now.Month(), now.Day(), tod.hour, tod.minute, 0, 0, loc), true
	}

	if t, ok := searchNaturalDate(text, now.In(loc)); ok {
		return t.In(loc), true
	}

	if allowPlaceholder {
		n := now.In(loc)
		return time.Date(n.Year(), n.Month(), n.Day(), defaultStartHour, 0, 0, 0, loc), true
	}
	return time.Time{}, false
}
