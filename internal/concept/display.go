package concept

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayName turns a topic or concept key like "newtons_first_law" into
// "Newtons First Law".
func DisplayName(key string) string {
	words := strings.ReplaceAll(key, "_", " ")
	return cases.Title(language.English).String(words)
}
