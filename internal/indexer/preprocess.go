package indexer

import "strings"

// Preprocess trims text and collapses every whitespace run to one space.
func Preprocess(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// searchableTitle splits file-name style titles so "company_profile_2021"
// matches "company profile"; the standard analyzer does not split on underscores.
func searchableTitle(title string) string {
	return strings.ReplaceAll(title, "_", " ")
}
