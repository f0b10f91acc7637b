package intent

import (
	"reflect"
	"testing"

	"github.com/octoseek/searchdex/internal/backend"
)

func TestMinShouldMatch(t *testing.T) {
	tests := []struct {
		tokens int
		want   int
	}{
		{1, 1}, {2, 1}, {3, 2}, {4, 2}, {5, 3}, {9, 3},
	}
	for _, tt := range tests {
		if got := minShouldMatch(tt.tokens); got != tt.want {
			t.Errorf("minShouldMatch(%d) = %d, want %d", tt.tokens, got, tt.want)
		}
	}
}

func TestFoldToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Aparthotel", "aparthotel"},
		{"e-tron", "etron"},
		{"Bollinger", "bolinger"},
		{"CX-5", "cx5"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		if got := foldToken(tt.in); got != tt.want {
			t.Errorf("foldToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("  Audi  A4 Avant ")
	want := []string{"audi", "a4", "avant"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
	if got := Tokenize("   "); len(got) != 0 {
		t.Errorf("Tokenize(blank) = %v, want none", got)
	}
}

func TestSuggestionQuery(t *testing.T) {
	t.Run("empty tokens yield nil", func(t *testing.T) {
		if got := suggestionQuery("name", nil, 1); got != nil {
			t.Errorf("suggestionQuery = %v, want nil", got)
		}
	})

	t.Run("per-token clause shape", func(t *testing.T) {
		got := suggestionQuery("name", []string{"audi", "a4", "avant"}, 1.5)
		outer := got["bool"].(backend.M)
		if outer["minimum_should_match"] != 2 {
			t.Errorf("minimum_should_match = %v, want 2 for 3 tokens", outer["minimum_should_match"])
		}
		if outer["boost"] != 1.5 {
			t.Errorf("boost = %v, want 1.5", outer["boost"])
		}
		shoulds := outer["should"].([]backend.M)
		if len(shoulds) != 3 {
			t.Fatalf("should clauses = %d, want one per token", len(shoulds))
		}
		branches := shoulds[0]["dis_max"].(backend.M)["queries"].([]backend.M)
		exact := branches[0]["constant_score"].(backend.M)
		if exact["boost"] != exactBoost {
			t.Errorf("exact boost = %v, want %v", exact["boost"], exactBoost)
		}
		folded := branches[1]["term"].(backend.M)
		if _, ok := folded["name.folded"]; !ok {
			t.Errorf("folded branch = %v, want name.folded term", folded)
		}
	})

	t.Run("non-positive weight defaults to one", func(t *testing.T) {
		got := suggestionQuery("name", []string{"audi"}, 0)
		if boost := got["bool"].(backend.M)["boost"]; boost != 1.0 {
			t.Errorf("boost = %v, want 1", boost)
		}
	})
}

func TestSuggestionListQuery(t *testing.T) {
	t.Run("single candidate stands alone", func(t *testing.T) {
		got := suggestionListQuery("name", [][]string{{"audi"}}, 1)
		if _, ok := got["bool"]; !ok {
			t.Errorf("single candidate = %v, want bare bool clause", got)
		}
	})

	t.Run("several candidates combine best-of", func(t *testing.T) {
		got := suggestionListQuery("name", [][]string{{"audi"}, {"bmw"}}, 1)
		dm, ok := got["dis_max"].(backend.M)
		if !ok {
			t.Fatalf("combined = %v, want dis_max", got)
		}
		if dm["tie_breaker"] != suggestionTieBreaker {
			t.Errorf("tie_breaker = %v, want %v", dm["tie_breaker"], suggestionTieBreaker)
		}
	})

	t.Run("all-empty candidates yield nil", func(t *testing.T) {
		if got := suggestionListQuery("name", [][]string{{}, {}}, 1); got != nil {
			t.Errorf("suggestionListQuery = %v, want nil", got)
		}
	})
}
