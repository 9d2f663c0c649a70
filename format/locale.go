package format

import "golang.org/x/text/language"

// separators how a locale groups thousands and marks decimals
type separators struct {
	thousand string
	decimal  string
}

// locales supported for number rendering; the first entry is the fallback
var locales = []struct {
	tag language.Tag
	separators
}{
	{language.English, separators{",", "."}},
	{language.German, separators{".", ","}},
	{language.French, separators{" ", ","}},
	{language.Spanish, separators{".", ","}},
	{language.Italian, separators{".", ","}},
	{language.Portuguese, separators{".", ","}},
	{language.Dutch, separators{".", ","}},
	{language.Japanese, separators{",", "."}},
	{language.Chinese, separators{",", "."}},
}

var matcher = func() language.Matcher {
	tags := make([]language.Tag, len(locales))
	for i, l := range locales {
		tags[i] = l.tag
	}
	return language.NewMatcher(tags)
}()

// separatorsFor picks the separators of the closest supported locale
func separatorsFor(locale string) separators {
	if locale == "" {
		return locales[0].separators
	}
	_, index := language.MatchStrings(matcher, locale)
	return locales[index].separators
}
