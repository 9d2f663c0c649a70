// Package locate finds price-like substrings in free-form text.
package locate

import (
	"go-price-converter/domain"
	"go-price-converter/registry"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Config tunes the "part of a larger number" guard.
type Config struct {
	// ContextWindow how many characters before and after a match are inspected
	ContextWindow int `yaml:"context_window"`

	// MaxContextDigits a match is rejected when the context holds more digits than this
	MaxContextDigits int `yaml:"max_context_digits"`
}

// DefaultConfig the guard used unless configured otherwise: 10 characters, 8 digits.
func DefaultConfig() Config {
	return Config{
		ContextWindow:    10,
		MaxContextDigits: 8,
	}
}

// family of a price pattern. Lower values take priority when matches overlap.
type family int

const (
	symbolPrefixed family = iota
	symbolSuffixed
	codePrefixed
	codeSuffixed
)

// number digits with optional ',' or '.' thousands groups and an optional two-digit fraction
const number = `(\d+(?:[.,]\d{3})*(?:[.,]\d{2})?)`

// gap optional single space between token and number, non-breaking included
const gap = `[ \x{00A0}]?`

type pattern struct {
	family family
	re     *regexp.Regexp

	// submatch indexes of the token and the number
	token, number int
}

// Locator finds prices in text. A Locator is immutable and safe for concurrent use.
type Locator struct {
	patterns []pattern
	config   Config
}

// New builds a Locator recognizing the symbols and codes of reg.
func New(reg *registry.Registry, config Config) *Locator {
	if config.ContextWindow < 0 {
		config.ContextWindow = 0
	}

	symbols := alternation(reg.Symbols())
	codes := alternation(reg.CodeTokens())

	return &Locator{
		config: config,
		patterns: []pattern{
			{symbolPrefixed, regexp.MustCompile(`(` + symbols + `)` + gap + number), 1, 2},
			{symbolSuffixed, regexp.MustCompile(number + gap + `(` + symbols + `)`), 2, 1},
			{codePrefixed, regexp.MustCompile(`\b(` + codes + `)` + gap + number), 1, 2},
			{codeSuffixed, regexp.MustCompile(number + gap + `(` + codes + `)\b`), 2, 1},
		},
	}
}

type candidate struct {
	domain.PriceMatch
	family family
}

// Locate returns the prices found in text ordered by position.
// Overlapping candidates are settled by pattern priority, then position.
func (l *Locator) Locate(text string) []domain.PriceMatch {
	var candidates []candidate
	for _, p := range l.patterns {
		for _, loc := range p.re.FindAllStringSubmatchIndex(text, -1) {
			c := candidate{
				PriceMatch: domain.PriceMatch{
					Start:  loc[0],
					End:    loc[1],
					Text:   text[loc[0]:loc[1]],
					Token:  text[loc[2*p.token]:loc[2*p.token+1]],
					Number: text[loc[2*p.number]:loc[2*p.number+1]],
				},
				family: p.family,
			}
			numberStart, numberEnd := loc[2*p.number], loc[2*p.number+1]
			if !l.standalone(text, c, numberStart, numberEnd) {
				continue
			}
			candidates = append(candidates, c)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.family != b.family {
			return a.family < b.family
		}
		return a.Start < b.Start
	})

	var accepted []domain.PriceMatch
	for _, c := range candidates {
		if overlapsAny(accepted, c.PriceMatch) {
			continue
		}
		accepted = append(accepted, c.PriceMatch)
	}

	sort.Slice(accepted, func(i, j int) bool { return accepted[i].Start < accepted[j].Start })
	return accepted
}

// standalone rejects candidates that are fragments of something larger: numbers glued to
// further digits, letter tokens inside words, and matches surrounded by too many digits.
func (l *Locator) standalone(text string, c candidate, numberStart, numberEnd int) bool {
	if numberStart == c.Start && gluedBefore(text, numberStart) {
		return false
	}
	if numberEnd == c.End && gluedAfter(text, numberEnd) {
		return false
	}

	switch c.family {
	case symbolPrefixed:
		if letterAt(c.Token, true) && letterBefore(text, c.Start) {
			return false
		}
	case symbolSuffixed:
		if letterAt(c.Token, false) && letterAfter(text, c.End) {
			return false
		}
	}

	return l.contextDigits(text, c.Start, c.End) <= l.config.MaxContextDigits
}

// contextDigits counts digits within the window around [start, end), the match excluded
func (l *Locator) contextDigits(text string, start, end int) int {
	count := 0

	before := text[:start]
	for i := 0; i < l.config.ContextWindow && before != ""; i++ {
		r, size := utf8.DecodeLastRuneInString(before)
		if isDigit(r) {
			count++
		}
		before = before[:len(before)-size]
	}

	after := text[end:]
	for i := 0; i < l.config.ContextWindow && after != ""; i++ {
		r, size := utf8.DecodeRuneInString(after)
		if isDigit(r) {
			count++
		}
		after = after[size:]
	}

	return count
}

// joiners characters that bind digit groups into one larger token (phone numbers, dates)
const joiners = "-/:.,"

// gluedBefore reports whether the number starting at i continues something before it
func gluedBefore(text string, i int) bool {
	r, size := utf8.DecodeLastRuneInString(text[:i])
	if size == 0 {
		return false
	}
	if isDigit(r) || wordLetter(r) {
		return true
	}
	if strings.ContainsRune(joiners, r) {
		prev, _ := utf8.DecodeLastRuneInString(text[:i-size])
		return isDigit(prev)
	}
	return false
}

// gluedAfter reports whether the number ending at i continues after it
func gluedAfter(text string, i int) bool {
	r, size := utf8.DecodeRuneInString(text[i:])
	if size == 0 {
		return false
	}
	if isDigit(r) || wordLetter(r) {
		return true
	}
	if strings.ContainsRune(joiners, r) {
		next, _ := utf8.DecodeRuneInString(text[i+size:])
		return isDigit(next)
	}
	return false
}

// letterAt reports whether token starts (first) or ends (!first) with a letter
func letterAt(token string, first bool) bool {
	var r rune
	if first {
		r, _ = utf8.DecodeRuneInString(token)
	} else {
		r, _ = utf8.DecodeLastRuneInString(token)
	}
	return unicode.IsLetter(r)
}

func letterBefore(text string, i int) bool {
	r, size := utf8.DecodeLastRuneInString(text[:i])
	return size > 0 && wordLetter(r)
}

func letterAfter(text string, i int) bool {
	r, size := utf8.DecodeRuneInString(text[i:])
	return size > 0 && wordLetter(r)
}

// unspaced scripts write words without separators, so their letters next to a price do not
// make it part of a word
var unspaced = []*unicode.RangeTable{unicode.Han, unicode.Hiragana, unicode.Katakana}

// wordLetter reports whether r is a letter that continues a word across a price boundary
func wordLetter(r rune) bool {
	return unicode.IsLetter(r) && !unicode.In(r, unspaced...)
}

func overlapsAny(accepted []domain.PriceMatch, m domain.PriceMatch) bool {
	for _, a := range accepted {
		if m.Start < a.End && a.Start < m.End {
			return true
		}
	}
	return false
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func alternation(tokens []string) string {
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return strings.Join(quoted, "|")
}
