package intent

import (
	"github.com/octoseek/searchdex/internal/domain/search/request"
)

// Level is one entity-recognition probe target. Levels are ordered coarse to
// specific: brand, model, variant.
type Level struct {
	Name    string
	Index   string
	DocType string
	// Field is the entity name field matched by the probe.
	Field string
	// Weight scales the probe suggestion score.
	Weight float64
}

// Probe is the outcome of one entity lookup.
type Probe struct {
	Level Level
	Total int64
	// TopEntity is the name field of the best hit, empty without hits.
	TopEntity string
}

// State names the cascade classification outcome.
type State string

const (
	StateGeneric       State = "generic"
	StateBrandSingle   State = "brand-single"
	StateBrandMulti    State = "brand-multi"
	StateModelSingle   State = "model-single"
	StateModelMulti    State = "model-multi"
	StateVariantSingle State = "variant-single"
	StateVariantMulti  State = "variant-multi"
)

var singleStates = [3]State{StateBrandSingle, StateModelSingle, StateVariantSingle}
var multiStates = [3]State{StateBrandMulti, StateModelMulti, StateVariantMulti}

// Classify maps the three probe hit counts to exactly one state, inspecting
// the most specific level first. Zero hits everywhere falls back to the
// generic, intent-free state. Total over all count combinations.
func Classify(probes [3]Probe) State {
	for i := 2; i >= 0; i-- {
		switch {
		case probes[i].Total == 1:
			return singleStates[i]
		case probes[i].Total > 1:
			return multiStates[i]
		}
	}
	return StateGeneric
}

// SectionPlan is one section query of a composed response.
type SectionPlan struct {
	Name       string
	Title      string
	ResultType string
	// TypeID names the registry type queried for this section.
	TypeID  string
	Request request.Request
}
