package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ConfigValue is one candidate value for a configuration parameter. The
// provider accepts either enumerated strings or numeric quantities; numeric
// values keep their numeric form so a unit suffix can be appended on the
// wire.
type ConfigValue struct {
	String   string
	Number   float64
	IsNumber bool
}

// UnmarshalJSON accepts both `"Steel"` and `50` forms.
func (v *ConfigValue) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		v.Number = n
		v.IsNumber = true
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("configuration value must be a string or a number: %s", string(data))
	}
	v.String = s
	return nil
}

// UnmarshalYAML accepts both string and number forms.
func (v *ConfigValue) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var n float64
	if err := unmarshal(&n); err == nil {
		v.Number = n
		v.IsNumber = true
		return nil
	}
	var s string
	if err := unmarshal(&s); err != nil {
		return fmt.Errorf("configuration value must be a string or a number")
	}
	v.String = s
	return nil
}

// Display renders the value for human-readable labels, without any unit.
func (v ConfigValue) Display() string {
	if v.IsNumber {
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	}
	return v.String
}

// Wire renders the value for the provider, appending the unit suffix to
// numeric values when one is defined for the parameter.
func (v ConfigValue) Wire(unit string) string {
	if v.IsNumber && unit != "" {
		return v.Display() + " " + unit
	}
	return v.Display()
}

// ConfigParameter is a provider-defined parameter that changes the generated
// geometry of a studio.
type ConfigParameter struct {
	ID          string        `json:"id" yaml:"id"`
	DisplayName string        `json:"name" yaml:"name"`
	Values      []ConfigValue `json:"values" yaml:"values"`
	Unit        string        `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// ConfigChoice is one chosen value for one parameter.
type ConfigChoice struct {
	ParameterID string
	DisplayName string
	Unit        string
	Value       ConfigValue
}

// ConfigCombination is one concrete assignment of values to every
// configuration parameter of a request, positionally aligned with the
// request's parameter list. An empty combination means "no configuration".
type ConfigCombination []ConfigChoice

// Empty reports whether the combination carries no configuration.
func (c ConfigCombination) Empty() bool { return len(c) == 0 }

// Tag renders the human-readable label of the combination, in parameter
// order: "Width = 50 | Material = Steel".
func (c ConfigCombination) Tag() string {
	if len(c) == 0 {
		return ""
	}
	parts := make([]string, len(c))
	for i, choice := range c {
		parts[i] = choice.DisplayName + " = " + choice.Value.Display()
	}
	return strings.Join(parts, " | ")
}

// Records renders the combination as provider parameter records.
func (c ConfigCombination) Records() []ParameterRecord {
	records := make([]ParameterRecord, len(c))
	for i, choice := range c {
		records[i] = ParameterRecord{
			ParameterID:    choice.ParameterID,
			ParameterValue: choice.Value.Wire(choice.Unit),
		}
	}
	return records
}

// ConfigEncoding is the provider's wire encoding of one combination. The
// query token is used by synchronous endpoints, the opaque encoded id by
// asynchronous ones. The zero value means "no configuration".
type ConfigEncoding struct {
	QueryToken string
	EncodedID  string
}

// MeshQuality carries the tessellation quality parameters for synchronous
// mesh exports. Values are passed through to the provider verbatim.
type MeshQuality struct {
	MinFacetWidth  string `json:"min_facet_width,omitempty" yaml:"min_facet_width,omitempty"`
	AngleTolerance string `json:"angle_tolerance,omitempty" yaml:"angle_tolerance,omitempty"`
	ChordTolerance string `json:"chord_tolerance,omitempty" yaml:"chord_tolerance,omitempty"`
}

// ExportRequest is the caller-facing description of one export operation.
type ExportRequest struct {
	DocumentID    string            `json:"document_id"`
	ElementID     string            `json:"element_id"`
	StudioName    string            `json:"studio_name"`
	PartID        string            `json:"part_id,omitempty"`
	PartName      string            `json:"part_name,omitempty"`
	Formats       []string          `json:"formats"`
	Configuration []ConfigParameter `json:"configuration,omitempty"`
	Combine       bool              `json:"combine,omitempty"`
	Quality       MeshQuality       `json:"quality,omitempty"`
}

// ExportUnit is the atomic work item: one (configuration, format, part)
// combination. Units are never mutated after creation; retries re-derive
// the same unit from the same inputs.
type ExportUnit struct {
	DocumentID  string
	ElementID   string
	StudioName  string
	PartID      string
	PartName    string
	Format      string
	Combination ConfigCombination
	Combine     bool
}
