package roster

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FormatName builds the display name from the first given name and the
// first surname, title-cased.
func FormatName(nombres, apellidos string) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{firstWord(nombres), firstWord(apellidos)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	// Casers are stateful, so one per call.
	return cases.Title(language.Spanish).String(strings.Join(parts, " "))
}

// Initials returns the upper-cased first letters of the first given name
// and the first surname. Missing parts are skipped.
func Initials(nombres, apellidos string) string {
	var b strings.Builder
	for _, p := range []string{firstWord(nombres), firstWord(apellidos)} {
		if r, _ := utf8.DecodeRuneInString(p); r != utf8.RuneError {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
