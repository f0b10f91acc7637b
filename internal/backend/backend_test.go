package backend

import (
	"encoding/json"
	"testing"
)

func TestSearchRequest_Body(t *testing.T) {
	req := &SearchRequest{
		Index:   "catalog",
		DocType: "_doc",
		From:    20,
		Size:    10,
		Query:   MatchAll(),
		Sort:    []M{{"price": M{"order": "asc"}}},
	}

	body := req.Body()
	if body["from"] != 20 || body["size"] != 10 {
		t.Errorf("pagination = from %v size %v, want 20/10", body["from"], body["size"])
	}
	if _, ok := body["post_filter"]; ok {
		t.Error("empty post_filter serialized")
	}
	if _, ok := body["aggs"]; ok {
		t.Error("empty aggs serialized")
	}
}

func TestSearchRequest_Fingerprint(t *testing.T) {
	a := &SearchRequest{Index: "catalog", Query: Term("brand", "acme"), Size: 10}
	b := &SearchRequest{Index: "catalog", Query: Term("brand", "acme"), Size: 10}
	c := &SearchRequest{Index: "catalog", Query: Term("brand", "other"), Size: 10}

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("identical requests produced different fingerprints")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("different queries produced the same fingerprint")
	}
}

func TestTotal_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int64
	}{
		{"bare number", `42`, 42},
		{"object form", `{"value": 42, "relation": "eq"}`, 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var total Total
			if err := json.Unmarshal([]byte(tt.raw), &total); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if total.Value != tt.want {
				t.Errorf("Value = %d, want %d", total.Value, tt.want)
			}
		})
	}
}

func TestTotal_RoundTrip(t *testing.T) {
	raw, err := json.Marshal(Hits{Total: Total{Value: 7}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var hits Hits
	if err := json.Unmarshal(raw, &hits); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if hits.Total.Value != 7 {
		t.Errorf("Total.Value = %d after round trip, want 7", hits.Total.Value)
	}
}
