package intent

import (
	"strings"

	"github.com/octoseek/searchdex/internal/backend"
)

const (
	// exactBoost favors the literal token form over its encoded spelling.
	exactBoost = 2.0
	// suggestionTieBreaker weights non-best candidate suggestions in the
	// combined clause: the top suggestion is favored, not required.
	suggestionTieBreaker = 0.7
)

// suggestionListQuery combines candidate suggestions into one lookup clause.
// A single candidate stands alone; several are combined best-of with the
// tie-break weight.
func suggestionListQuery(field string, suggestions [][]string, weight float64) backend.M {
	clauses := make([]backend.M, 0, len(suggestions))
	for _, tokens := range suggestions {
		if q := suggestionQuery(field, tokens, weight); q != nil {
			clauses = append(clauses, q)
		}
	}
	switch len(clauses) {
	case 0:
		return nil
	case 1:
		return clauses[0]
	}
	return backend.DisMax(clauses, suggestionTieBreaker)
}

// suggestionQuery scores one candidate by token overlap: a should clause per
// token matching the literal form (boosted) or its encoded alternate
// spelling, with a minimum-should-match threshold scaling with token count
// to avoid over-matching on partial overlaps.
func suggestionQuery(field string, tokens []string, weight float64) backend.M {
	if len(tokens) == 0 {
		return nil
	}
	if weight <= 0 {
		weight = 1
	}
	shoulds := make([]backend.M, 0, len(tokens))
	for _, tok := range tokens {
		shoulds = append(shoulds, backend.DisMax([]backend.M{
			backend.Boost(backend.Term(field, tok), exactBoost),
			backend.Term(field+".folded", foldToken(tok)),
		}, 0))
	}
	return backend.M{"bool": backend.M{
		"should":               shoulds,
		"minimum_should_match": minShouldMatch(len(tokens)),
		"boost":                weight,
	}}
}

// minShouldMatch scales the overlap threshold with the token count:
// 1 of up to 2 tokens, 2 of 3-4, 3 of 5 or more.
func minShouldMatch(tokens int) int {
	switch {
	case tokens <= 2:
		return 1
	case tokens <= 4:
		return 2
	default:
		return 3
	}
}

// foldToken produces the encoded alternate spelling of a token: lowercased,
// non-alphanumerics dropped, runs collapsed.
func foldToken(tok string) string {
	var b strings.Builder
	var last rune
	for _, r := range strings.ToLower(tok) {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			continue
		}
		if r == last {
			continue
		}
		b.WriteRune(r)
		last = r
	}
	return b.String()
}

// Tokenize splits query text into lowercase probe tokens.
func Tokenize(text string) []string {
	return strings.Fields(strings.ToLower(strings.TrimSpace(text)))
}
