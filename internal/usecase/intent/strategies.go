package intent

import (
	"strings"

	domintent "github.com/octoseek/searchdex/internal/domain/intent"
	"github.com/octoseek/searchdex/internal/domain/search/request"
)

// Default is the pass-through tenant strategy: no entity probes, generic
// sections only.
type Default struct {
	// SectionTypes lists the type ids composed in the generic state.
	SectionTypes []string
}

// Levels returns three dormant probe levels; the cascade always classifies
// generic for this tenant.
func (Default) Levels() [3]domintent.Level {
	return [3]domintent.Level{}
}

// AdjustQueryText returns the text unchanged.
func (Default) AdjustQueryText(text string) string { return text }

// ComposeSections plans one plain section per configured type.
func (d Default) ComposeSections(_ domintent.State, _ [3]domintent.Probe, req *request.Request) []domintent.SectionPlan {
	plans := make([]domintent.SectionPlan, 0, len(d.SectionTypes))
	for _, id := range d.SectionTypes {
		plans = append(plans, domintent.SectionPlan{
			Name:       id,
			Title:      titleCase(id),
			ResultType: id,
			TypeID:     id,
			Request:    *req,
		})
	}
	return plans
}

// VehiclesConfig wires the vehicles tenant strategy.
type VehiclesConfig struct {
	BrandLevel   domintent.Level
	ModelLevel   domintent.Level
	VariantLevel domintent.Level
	// ListingType is the main inventory type; UsedType the used-inventory
	// type; ContentType the editorial type.
	ListingType string
	UsedType    string
	ContentType string
	// Filter names on the listing/used types for each entity level.
	BrandFilter   string
	ModelFilter   string
	VariantFilter string
}

// Vehicles composes sections around recognized brand/model/variant entities.
type Vehicles struct {
	cfg VehiclesConfig
}

// NewVehicles creates the vehicles tenant strategy.
func NewVehicles(cfg VehiclesConfig) *Vehicles {
	return &Vehicles{cfg: cfg}
}

// Levels returns the brand, model and variant probe targets.
func (v *Vehicles) Levels() [3]domintent.Level {
	return [3]domintent.Level{v.cfg.BrandLevel, v.cfg.ModelLevel, v.cfg.VariantLevel}
}

// AdjustQueryText normalizes whitespace and strips a leading marketplace
// prefix users habitually type.
func (v *Vehicles) AdjustQueryText(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	for _, prefix := range []string{"buy ", "used "} {
		if strings.HasPrefix(strings.ToLower(text), prefix) {
			text = text[len(prefix):]
			break
		}
	}
	return text
}

// ComposeSections plans the fixed, state-specific section set.
func (v *Vehicles) ComposeSections(state domintent.State, probes [3]domintent.Probe, req *request.Request) []domintent.SectionPlan {
	brand := probes[0].TopEntity
	model := probes[1].TopEntity
	variant := probes[2].TopEntity

	switch state {
	case domintent.StateBrandSingle:
		return []domintent.SectionPlan{
			v.listing("models", "Models by "+brand, v.filtered(req, v.cfg.BrandFilter, brand)),
			v.used("used", "Used "+brand, v.filtered(req, v.cfg.BrandFilter, brand)),
			v.editorial("editorial", "About "+brand, req.WithText(brand)),
		}
	case domintent.StateBrandMulti:
		return []domintent.SectionPlan{
			v.listing("brands", "Matching brands", *req),
			v.editorial("editorial", "Related reading", *req),
		}
	case domintent.StateModelSingle:
		usedReq := v.filtered(req, v.cfg.ModelFilter, model)
		if model == "" && brand != "" {
			usedReq = v.filtered(req, v.cfg.BrandFilter, brand)
		}
		return []domintent.SectionPlan{
			v.listing("variants", "Variants of "+model, v.filtered(req, v.cfg.ModelFilter, model)),
			v.used("used", "Used "+model, usedReq),
			v.editorial("editorial", "About "+model, req.WithText(model)),
		}
	case domintent.StateModelMulti:
		return []domintent.SectionPlan{
			v.listing("models", "Matching models", *req),
			v.editorial("editorial", "Related reading", *req),
		}
	case domintent.StateVariantSingle:
		return []domintent.SectionPlan{
			v.listing("variant", variant, v.filtered(req, v.cfg.VariantFilter, variant)),
			v.used("used", "Used "+variant, v.filtered(req, v.cfg.VariantFilter, variant)),
			v.editorial("editorial", "About "+variant, req.WithText(variant)),
		}
	case domintent.StateVariantMulti:
		return []domintent.SectionPlan{
			v.listing("variants", "Matching variants", *req),
			v.editorial("editorial", "Related reading", *req),
		}
	}
	// Generic fallback: intent-free composition.
	return []domintent.SectionPlan{
		v.listing("results", "Results", *req),
		v.editorial("editorial", "Related reading", *req),
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (v *Vehicles) filtered(req *request.Request, filter, entity string) request.Request {
	if filter == "" || entity == "" {
		return *req
	}
	out := req.WithoutText()
	return out.WithFilter(filter, request.NewScalar(entity))
}

func (v *Vehicles) listing(name, title string, req request.Request) domintent.SectionPlan {
	return domintent.SectionPlan{Name: name, Title: title, ResultType: v.cfg.ListingType, TypeID: v.cfg.ListingType, Request: req}
}

func (v *Vehicles) used(name, title string, req request.Request) domintent.SectionPlan {
	return domintent.SectionPlan{Name: name, Title: title, ResultType: v.cfg.UsedType, TypeID: v.cfg.UsedType, Request: req}
}

func (v *Vehicles) editorial(name, title string, req request.Request) domintent.SectionPlan {
	return domintent.SectionPlan{Name: name, Title: title, ResultType: v.cfg.ContentType, TypeID: v.cfg.ContentType, Request: req}
}
