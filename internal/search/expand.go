package search

import "strings"

// Expansions maps generic single-word protein queries to the cut-specific
// queries sent to the catalog in their place.
var Expansions = map[string][]string{
	"chicken": {"chicken", "chicken breast", "chicken thigh", "chicken drumstick", "chicken leg", "ground chicken"},
	"beef":    {"beef", "beef chuck", "ground beef", "beef sirloin", "beef brisket", "beef tenderloin"},
	"pork":    {"pork", "pork chop", "pork tenderloin", "ground pork", "pork shoulder", "pork loin"},
	"turkey":  {"turkey", "turkey breast", "ground turkey", "turkey thigh", "turkey leg"},
	"fish":    {"fish", "salmon", "tilapia", "cod", "tuna", "mahi"},
	"salmon":  {"salmon", "salmon fillet", "salmon steak"},
	"tuna":    {"tuna", "tuna steak", "tuna fillet"},
}

// Expand returns the queries to fetch for query. Multi-word queries are
// assumed specific and come back unchanged, as do words without an entry.
func Expand(query string) []string {
	key := strings.ToLower(strings.TrimSpace(query))
	if key == "" || strings.ContainsAny(key, " \t") {
		return []string{query}
	}
	if exp, ok := Expansions[key]; ok {
		out := make([]string, len(exp))
		copy(out, exp)
		return out
	}
	return []string{query}
}
