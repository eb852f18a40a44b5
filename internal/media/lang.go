package media

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

var titleCaser = cases.Title(language.English)

// Parse returns the BCP 47 tag for l. Provider values that are not valid
// tags (e.g. "English") report ok=false.
func (l LanguageTag) Parse() (language.Tag, bool) {
	if l.Unset() {
		return language.Und, false
	}
	tag, err := language.Parse(string(l))
	if err != nil {
		return language.Und, false
	}
	return tag, true
}

// Label is the English display name of l, falling back to the raw value.
func (l LanguageTag) Label() string {
	tag, ok := l.Parse()
	if !ok {
		return titleCaser.String(string(l))
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return string(l)
}

// Matches reports whether l and other name the same language, comparing
// codes and English names case-insensitively: "en", "eng" and "English"
// all match each other.
func (l LanguageTag) Matches(other LanguageTag) bool {
	if l.Unset() || other.Unset() {
		return false
	}
	if strings.EqualFold(string(l), string(other)) {
		return true
	}
	return strings.EqualFold(l.baseName(), other.baseName())
}

// baseName is the English name of the base language, or the lowercased raw
// value when l is not a valid tag.
func (l LanguageTag) baseName() string {
	tag, ok := l.Parse()
	if !ok {
		return strings.ToLower(strings.TrimSpace(string(l)))
	}
	base, _ := tag.Base()
	return strings.ToLower(display.English.Languages().Name(base))
}
