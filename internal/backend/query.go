package backend

// M is an opaque structured query document fragment.
type M = map[string]any

// MatchAll matches every document.
func MatchAll() M {
	return M{"match_all": M{}}
}

// Match builds a full-text match clause on one field.
func Match(field string, text any, fuzzy bool) M {
	inner := M{"query": text}
	if fuzzy {
		inner["fuzziness"] = "AUTO"
	}
	return M{"match": M{field: inner}}
}

// MultiMatch builds a best-field full-text clause over several weighted
// fields. Fields carry caret-suffixed weights; best-field selection happens
// inside the backend.
func MultiMatch(text any, fields []string, fuzzy bool) M {
	inner := M{"query": text, "fields": fields, "type": "best_fields"}
	if fuzzy {
		inner["fuzziness"] = "AUTO"
	}
	return M{"multi_match": inner}
}

// Term builds an exact single-value clause.
func Term(field string, value any) M {
	return M{"term": M{field: value}}
}

// Terms builds an exact any-of clause.
func Terms(field string, values []any) M {
	return M{"terms": M{field: values}}
}

// Range builds a bounded clause; nil bounds are open.
func Range(field string, from, to any) M {
	bounds := M{}
	if from != nil {
		bounds["gte"] = from
	}
	if to != nil {
		bounds["lt"] = to
	}
	return M{"range": M{field: bounds}}
}

// Exists matches documents carrying the field.
func Exists(field string) M {
	return M{"exists": M{"field": field}}
}

// Missing matches documents lacking the field.
func Missing(field string) M {
	return Not(Exists(field))
}

// Not negates a clause.
func Not(clause M) M {
	return M{"bool": M{"must_not": []M{clause}}}
}

// And combines clauses conjunctively. Zero clauses yield nil, one clause is
// returned unwrapped.
func And(clauses ...M) M {
	return boolGroup("must", clauses)
}

// Or combines clauses disjunctively with the same collapsing rules as And.
func Or(clauses ...M) M {
	return boolGroup("should", clauses)
}

func boolGroup(occur string, clauses []M) M {
	kept := make([]M, 0, len(clauses))
	for _, c := range clauses {
		if c != nil {
			kept = append(kept, c)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	return M{"bool": M{occur: kept}}
}

// Bool builds a full boolean clause from occurrence groups.
func Bool(must, should, mustNot, filter []M) M {
	b := M{}
	if len(must) > 0 {
		b["must"] = must
	}
	if len(should) > 0 {
		b["should"] = should
	}
	if len(mustNot) > 0 {
		b["must_not"] = mustNot
	}
	if len(filter) > 0 {
		b["filter"] = filter
	}
	return M{"bool": b}
}

// Nested wraps a clause into a nested-document envelope so it matches within
// a single sub-document instance.
func Nested(path string, clause M) M {
	return M{"nested": M{"path": path, "query": clause}}
}

// Boost wraps a clause into a constant-score envelope with the given boost.
func Boost(clause M, boost float64) M {
	return M{"constant_score": M{"filter": clause, "boost": boost}}
}

// DisMax combines candidate clauses keeping the best score, with tieBreaker
// weighting the non-best candidates.
func DisMax(clauses []M, tieBreaker float64) M {
	return M{"dis_max": M{"queries": clauses, "tie_breaker": tieBreaker}}
}

// WeightFactor wraps a clause so the named numeric field multiplies the text
// score, with a neutral factor when the field is absent.
func WeightFactor(clause M, field string) M {
	return M{"function_score": M{
		"query": clause,
		"field_value_factor": M{
			"field":   field,
			"factor":  1.0,
			"missing": 1.0,
		},
		"boost_mode": "multiply",
	}}
}
