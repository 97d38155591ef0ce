package util

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Capitalize upper-cases the first letter of s and lower-cases the rest,
// after trimming surrounding whitespace.
func Capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	_, size := utf8.DecodeRuneInString(s)
	return cases.Upper(language.Und).String(s[:size]) + cases.Lower(language.Und).String(s[size:])
}

// Humanize turns a snake_case catalog key into a title-cased label.
func Humanize(key string) string {
	return cases.Title(language.Und).String(strings.ReplaceAll(key, "_", " "))
}

// LowerFirst lower-cases only the first letter of s. The pronoun "I" and
// words that start with two capitals (acronyms like "AI" or "CRM") are left
// alone.
func LowerFirst(s string) string {
	if s == "" {
		return ""
	}
	first, size := utf8.DecodeRuneInString(s)
	next, _ := utf8.DecodeRuneInString(s[size:])
	if first == 'I' && (next == utf8.RuneError || next == ' ' || next == '\'') {
		return s
	}
	if unicode.IsUpper(first) && unicode.IsUpper(next) {
		return s
	}
	return cases.Lower(language.Und).String(s[:size]) + s[size:]
}
