package textutil

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Fold lower-cases text with Unicode-aware rules so substring checks ignore case.
// A cases.Caser is stateful, so a fresh one is built per call.
func Fold(text string) string {
	return cases.Lower(language.Und).String(text)
}
