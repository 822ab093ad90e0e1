package relevance

import (
	"strings"
	"unicode"
)

// stopwords are dropped during tokenization. Matching on them inflates
// overlap between unrelated descriptions without carrying any signal.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"but": {}, "by": {}, "for": {}, "from": {}, "has": {}, "have": {},
	"how": {}, "if": {}, "in": {}, "into": {}, "is": {}, "it": {}, "its": {},
	"of": {}, "on": {}, "or": {}, "that": {}, "the": {}, "their": {},
	"then": {}, "this": {}, "to": {}, "use": {}, "using": {}, "when": {},
	"with": {}, "you": {}, "your": {},
}

// Tokenize normalizes text into a deduplicated token set: split on
// non-alphanumeric runes and camelCase boundaries, lowercase, strip naive
// plurals, drop stopwords. Tokens are returned in first-occurrence order so
// callers never depend on map iteration order.
//
// Identifiers in task text are split on case boundaries so that
// "formatDate" matches a skill described with "format".
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		for _, word := range splitCamel(field) {
			word = stem(strings.ToLower(word))
			if _, stop := stopwords[word]; stop {
				continue
			}
			if _, dup := seen[word]; dup {
				continue
			}
			seen[word] = struct{}{}
			tokens = append(tokens, word)
		}
	}
	return tokens
}

// TokenSet converts a token slice into a set for membership tests.
func TokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// splitCamel breaks an identifier-like word on lower-to-upper case
// boundaries: "formatDate" -> ["format", "Date"].
func splitCamel(word string) []string {
	runes := []rune(word)
	var parts []string
	start := 0
	for i := 1; i < len(runes); i++ {
		if unicode.IsUpper(runes[i]) && unicode.IsLower(runes[i-1]) {
			parts = append(parts, string(runes[start:i]))
			start = i
		}
	}
	return append(parts, string(runes[start:]))
}

// stem applies a deliberately naive plural rule ("tests" -> "test") so task
// wording and skill descriptions don't miss each other on number alone.
// Anything smarter belongs in a replacement Scorer, not here.
func stem(word string) string {
	if len(word) > 3 && strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss") {
		return word[:len(word)-1]
	}
	return word
}
