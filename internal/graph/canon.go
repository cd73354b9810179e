package graph

import (
	"regexp"
	"strings"
)

// Tokens removed from a type spelling. Tag keywords go too, since C spells
// record types as "struct Point".
var decoration = regexp.MustCompile(`\b(?:const|volatile|struct|union|enum|class)\b`)

var markers = strings.NewReplacer("*", " ", "&", " ")

// Canonicalize reduces a raw type spelling to the bare name it refers to by
// stripping pointer and reference markers, cv-qualifiers and tag keywords.
// It never fails; a malformed spelling yields a name that matches nothing.
func Canonicalize(raw string) string {
	s := raw
	for {
		next := markers.Replace(s)
		next = decoration.ReplaceAllString(next, " ")
		next = strings.Join(strings.Fields(next), " ")
		if next == s {
			return next
		}
		s = next
	}
}
