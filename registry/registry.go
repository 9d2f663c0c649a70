// Package registry maps currency symbols and codes to currencies.
//
// The registry is built once from a YAML table and never mutated afterwards, so a
// single instance can be shared freely.
package registry

import (
	_ "embed"
	"fmt"
	"go-price-converter/domain"
	"golang.org/x/text/currency"
	"gopkg.in/yaml.v3"
	"regexp"
	"slices"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

//go:embed currencies.yaml
var currenciesYAML []byte

// Position where a currency symbol is written relative to the amount
type Position string

const (
	Before Position = "before"
	After  Position = "after"
)

// Descriptor describes one currency
type Descriptor struct {
	Code     domain.Currency `yaml:"code"`
	Symbol   string          `yaml:"symbol"`
	Name     string          `yaml:"name"`
	Position Position        `yaml:"position"`

	// Tokens symbols and code spellings that denote the currency in text
	Tokens []string `yaml:"tokens"`
}

// SymbolAfter reports whether the symbol follows the amount.
func (d Descriptor) SymbolAfter() bool {
	return d.Position == After
}

// Resolution the currency a token stands for
type Resolution struct {
	Code domain.Currency

	// Ambiguous is set when the token is shared and Code is only the declared default
	Ambiguous bool
}

// Registry currency registry
type Registry struct {
	descriptors map[domain.Currency]Descriptor

	// tokens keyed by folded spelling
	tokens map[string]Resolution

	// symbols and codes spellings used to build locator patterns, longest first
	symbols []string
	codes   []string
}

type table struct {
	Defaults   map[string]domain.Currency `yaml:"defaults"`
	Currencies []Descriptor               `yaml:"currencies"`
}

var codePattern = regexp.MustCompile(`^[A-Z]{3}$`)

// New builds a registry from a YAML currency table.
func New(data []byte) (*Registry, error) {
	var t table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decoding currency table: %w", err)
	}

	r := &Registry{
		descriptors: map[domain.Currency]Descriptor{},
		tokens:      map[string]Resolution{},
	}

	claims := map[string][]domain.Currency{}
	spellings := map[string]bool{}

	for _, d := range t.Currencies {
		d.Code = domain.Currency(strings.ToUpper(string(d.Code)))
		if _, err := currency.ParseISO(string(d.Code)); err != nil {
			return nil, fmt.Errorf("currency %q: %w", d.Code, err)
		}
		if _, ok := r.descriptors[d.Code]; ok {
			return nil, fmt.Errorf("currency %q declared twice", d.Code)
		}
		switch d.Position {
		case "":
			d.Position = Before
		case Before, After:
		default:
			return nil, fmt.Errorf("currency %q: bad symbol position %q", d.Code, d.Position)
		}
		if !slices.Contains(d.Tokens, string(d.Code)) {
			d.Tokens = append(d.Tokens, string(d.Code))
		}

		for _, token := range d.Tokens {
			if strings.TrimSpace(token) == "" {
				return nil, fmt.Errorf("currency %q: empty token", d.Code)
			}
			key := fold(token)
			if !slices.Contains(claims[key], d.Code) {
				claims[key] = append(claims[key], d.Code)
			}
			spellings[token] = true
		}
		r.descriptors[d.Code] = d
	}

	defaults := map[string]domain.Currency{}
	for token, code := range t.Defaults {
		defaults[fold(token)] = domain.Currency(strings.ToUpper(string(code)))
	}

	for key, codes := range claims {
		if len(codes) == 1 {
			r.tokens[key] = Resolution{Code: codes[0]}
			continue
		}
		def, ok := defaults[key]
		if !ok {
			return nil, fmt.Errorf("token %q is shared by %v and has no default", key, codes)
		}
		if !slices.Contains(codes, def) {
			return nil, fmt.Errorf("token %q defaults to %q which does not claim it", key, def)
		}
		r.tokens[key] = Resolution{Code: def, Ambiguous: true}
	}

	for spelling := range spellings {
		if codePattern.MatchString(spelling) {
			r.codes = append(r.codes, spelling)
		} else {
			r.symbols = append(r.symbols, spelling)
		}
	}
	sortLongestFirst(r.symbols)
	sortLongestFirst(r.codes)

	return r, nil
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r, err := New(currenciesYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded currency table: %v", err))
	}
	return r
})

// Default returns the registry built from the embedded currency table.
func Default() *Registry {
	return defaultRegistry()
}

// Lookup resolves a symbol or code. Alphabetic tokens are matched case-insensitively,
// symbols without letters exactly.
func (r *Registry) Lookup(token string) (Resolution, bool) {
	res, ok := r.tokens[fold(strings.TrimSpace(token))]
	return res, ok
}

// Resolve returns the currency a token denotes.
func (r *Registry) Resolve(token string) (domain.Currency, bool) {
	res, ok := r.Lookup(token)
	return res.Code, ok
}

// Descriptor returns the descriptor of a currency code.
func (r *Registry) Descriptor(code domain.Currency) (Descriptor, bool) {
	d, ok := r.descriptors[domain.Currency(strings.ToUpper(string(code)))]
	return d, ok
}

// Known reports whether code is a registered currency.
func (r *Registry) Known(code domain.Currency) bool {
	_, ok := r.Descriptor(code)
	return ok
}

// Codes returns all registered currency codes in alphabetical order.
func (r *Registry) Codes() []domain.Currency {
	codes := make([]domain.Currency, 0, len(r.descriptors))
	for code := range r.descriptors {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// Symbols returns the non-code token spellings, longest first.
func (r *Registry) Symbols() []string {
	return append([]string(nil), r.symbols...)
}

// CodeTokens returns the three-letter token spellings, codes and aliases alike.
func (r *Registry) CodeTokens() []string {
	return append([]string(nil), r.codes...)
}

// fold case-folds tokens that contain letters
func fold(token string) string {
	if strings.IndexFunc(token, unicode.IsLetter) < 0 {
		return token
	}
	return strings.ToUpper(token)
}

func sortLongestFirst(s []string) {
	sort.Slice(s, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(s[i]), utf8.RuneCountInString(s[j])
		if li != lj {
			return li > lj
		}
		return s[i] < s[j]
	})
}
