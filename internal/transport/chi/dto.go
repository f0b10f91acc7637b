package chi

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/octoseek/searchdex/internal/domain/search/request"
	"github.com/octoseek/searchdex/internal/domain/search/result"
)

// filterParamPrefix marks query parameters carrying filter values.
const filterParamPrefix = "filter."

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type pageDTO struct {
	Page int    `json:"page"`
	URL  string `json:"url"`
}

type bucketDTO struct {
	Key       string             `json:"key"`
	Count     int64              `json:"count"`
	From      *float64           `json:"from,omitempty"`
	To        *float64           `json:"to,omitempty"`
	Summaries map[string]float64 `json:"summaries,omitempty"`
}

type statsDTO struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int64   `json:"count"`
}

type facetDTO struct {
	Key     string      `json:"key"`
	Buckets []bucketDTO `json:"buckets,omitempty"`
	Stats   *statsDTO   `json:"stats,omitempty"`
}

type resultDTO struct {
	Items     []map[string]any   `json:"items"`
	Facets    []facetDTO         `json:"facets,omitempty"`
	Summaries map[string]float64 `json:"summaries,omitempty"`
	Total     int64              `json:"total"`
	Took      int64              `json:"took"`
	Prev      *pageDTO           `json:"prev,omitempty"`
	Next      *pageDTO           `json:"next,omitempty"`
}

type groupedDTO struct {
	Results map[string]resultDTO `json:"results"`
	Total   int64                `json:"total"`
	Took    int64                `json:"took"`
	Prev    *pageDTO             `json:"prev,omitempty"`
	Next    *pageDTO             `json:"next,omitempty"`
}

type sectionDTO struct {
	Name       string    `json:"name"`
	Title      string    `json:"title"`
	ResultType string    `json:"result_type"`
	Result     resultDTO `json:"result"`
}

// searchBody is the JSON request body accepted by POST search endpoints.
// Filter values go through request.ParseValue, so both bare scalars and the
// wrapped {"values": [...]} / {"ranges": [...]} / {"type": "facet"} forms work.
type searchBody struct {
	Query   string         `json:"query"`
	Filters map[string]any `json:"filters"`
	Sort    string         `json:"sort"`
	Order   string         `json:"order"`
	Page    int            `json:"page"`
	Count   int            `json:"count"`
	Types   []string       `json:"types"`
	Lang    string         `json:"lang"`
	Format  string         `json:"format"`
	Fuzzy   *bool          `json:"fuzzy"`
}

func (b searchBody) toRequest() (request.Request, error) {
	filters := make(map[string]request.Value, len(b.Filters))
	for name, raw := range b.Filters {
		filters[name] = request.ParseValue(raw)
	}
	fuzzy := true
	if b.Fuzzy != nil {
		fuzzy = *b.Fuzzy
	}
	req, err := request.New(b.Query,
		request.WithFilters(filters),
		request.WithSort(b.Sort, b.Order),
		request.WithPage(b.Page, b.Count),
		request.WithTypes(b.Types...),
		request.WithLang(b.Lang),
		request.WithFuzzy(fuzzy),
		request.WithFormat(b.Format),
	)
	if err != nil {
		return request.Request{}, fmt.Errorf("build request: %w", err)
	}
	return req, nil
}

// requestFromQuery builds a search request from URL query parameters.
// Repeated filter.<name> parameters become multi-value filters.
func requestFromQuery(q url.Values) (request.Request, error) {
	filters := make(map[string]request.Value)
	for key, vals := range q {
		if !strings.HasPrefix(key, filterParamPrefix) {
			continue
		}
		name := key[len(filterParamPrefix):]
		if name == "" || len(vals) == 0 {
			continue
		}
		if len(vals) == 1 {
			filters[name] = request.NewScalar(vals[0])
			continue
		}
		anyVals := make([]any, len(vals))
		for i, v := range vals {
			anyVals[i] = v
		}
		filters[name] = request.NewValues(anyVals)
	}

	page, err := intParam(q, "page")
	if err != nil {
		return request.Request{}, err
	}
	count, err := intParam(q, "count")
	if err != nil {
		return request.Request{}, err
	}

	fuzzy := q.Get("fuzzy") != "false"

	var types []string
	if t := q.Get("type"); t != "" {
		types = strings.Split(t, ",")
	}

	req, err := request.New(q.Get("q"),
		request.WithFilters(filters),
		request.WithSort(q.Get("sort"), q.Get("order")),
		request.WithPage(page, count),
		request.WithTypes(types...),
		request.WithLang(q.Get("lang")),
		request.WithFuzzy(fuzzy),
		request.WithFormat(q.Get("format")),
	)
	if err != nil {
		return request.Request{}, fmt.Errorf("build request: %w", err)
	}
	return req, nil
}

func intParam(q url.Values, name string) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parameter %q must be an integer", name)
	}
	return v, nil
}

func resultToDTO(r *result.Result) resultDTO {
	items := make([]map[string]any, len(r.Hits()))
	for i, h := range r.Hits() {
		items[i] = h.Source()
	}
	return resultDTO{
		Items:     items,
		Facets:    facetsToDTO(r.Facets()),
		Summaries: r.Summaries(),
		Total:     r.Total(),
		Took:      r.Took(),
		Prev:      pageToDTO(r.Prev()),
		Next:      pageToDTO(r.Next()),
	}
}

func groupedToDTO(g *result.Grouped) groupedDTO {
	results := make(map[string]resultDTO, len(g.ByType))
	for id, res := range g.ByType {
		results[id] = resultToDTO(&res)
	}
	return groupedDTO{
		Results: results,
		Total:   g.Total,
		Took:    g.Took,
		Prev:    pageToDTO(g.Prev),
		Next:    pageToDTO(g.Next),
	}
}

func sectionsToDTO(sections []result.Section) []sectionDTO {
	out := make([]sectionDTO, len(sections))
	for i, s := range sections {
		out[i] = sectionDTO{
			Name:       s.Name,
			Title:      s.Title,
			ResultType: s.ResultType,
			Result:     resultToDTO(&s.Result),
		}
	}
	return out
}

func facetsToDTO(facets []result.Facet) []facetDTO {
	if len(facets) == 0 {
		return nil
	}
	out := make([]facetDTO, len(facets))
	for i, f := range facets {
		buckets := make([]bucketDTO, len(f.Buckets))
		for j, b := range f.Buckets {
			buckets[j] = bucketDTO{
				Key:       b.Key,
				Count:     b.Count,
				From:      b.From,
				To:        b.To,
				Summaries: b.Summaries,
			}
		}
		dto := facetDTO{Key: f.Key, Buckets: buckets}
		if f.Stats != nil {
			dto.Stats = &statsDTO{Min: f.Stats.Min, Max: f.Stats.Max, Count: f.Stats.Count}
		}
		out[i] = dto
	}
	return out
}

func pageToDTO(p *result.PageLink) *pageDTO {
	if p == nil {
		return nil
	}
	return &pageDTO{Page: p.Page, URL: p.URL}
}
