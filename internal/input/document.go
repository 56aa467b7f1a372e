// Package input decodes user supplied assessment documents. Decoding is
// lenient: numbers are kept as raw text until they are resolved, so a
// malformed value never aborts the evaluation.
package input

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "https://swellcycle.dev/schemas/assessment.schema.json"

//go:embed schema.json
var schemaSource string

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(schemaURL, strings.NewReader(schemaSource)); err != nil {
		return nil, fmt.Errorf("assessment schema load failed: %w", err)
	}
	schema, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("assessment schema compile failed: %w", err)
	}
	return schema, nil
})

// Number is the raw text of a numeric field. The empty Number means the
// field was not provided.
type Number string

// Num formats v as a Number.
func Num(v float64) Number {
	return Number(strconv.FormatFloat(v, 'f', -1, 64))
}

// Document is an assessment as entered by the user.
type Document struct {
	SolarPercent Number     `json:"solar_percent,omitempty" yaml:"solar_percent,omitempty" mapstructure:"solar_percent"`
	Materials    []Material `json:"materials,omitempty" yaml:"materials,omitempty" mapstructure:"materials"`
	Processes    []Process  `json:"processes,omitempty" yaml:"processes,omitempty" mapstructure:"processes"`
	Transport    []Leg      `json:"transport,omitempty" yaml:"transport,omitempty" mapstructure:"transport"`
}

type Material struct {
	Name           string `json:"name" yaml:"name" mapstructure:"name"`
	Quantity       Number `json:"quantity" yaml:"quantity" mapstructure:"quantity"`
	EmissionFactor Number `json:"emission_factor,omitempty" yaml:"emission_factor,omitempty" mapstructure:"emission_factor"`
}

type Process struct {
	Name       string `json:"name" yaml:"name" mapstructure:"name"`
	Hours      Number `json:"hours" yaml:"hours" mapstructure:"hours"`
	KWhPerHour Number `json:"kwh_per_hour" yaml:"kwh_per_hour" mapstructure:"kwh_per_hour"`
}

type Leg struct {
	Name          string            `json:"name" yaml:"name" mapstructure:"name"`
	DistanceMiles Number            `json:"distance_miles" yaml:"distance_miles" mapstructure:"distance_miles"`
	PayloadKg     Number            `json:"payload_kg" yaml:"payload_kg" mapstructure:"payload_kg"`
	Shares        map[string]Number `json:"shares" yaml:"shares" mapstructure:"shares"`
	Factors       map[string]Number `json:"factors,omitempty" yaml:"factors,omitempty" mapstructure:"factors"`
}

// Decode validates a generic document against the assessment schema and
// decodes it. Values must be shaped as produced by encoding/json.
func Decode(raw any) (Document, error) {
	schema, err := compileSchema()
	if err != nil {
		return Document{}, err
	}
	if err := schema.Validate(raw); err != nil {
		return Document{}, fmt.Errorf("invalid assessment document: %w", err)
	}

	doc := Document{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       numberHook,
		WeaklyTypedInput: true,
		Result:           &doc,
	})
	if err != nil {
		return Document{}, fmt.Errorf("failed to create document decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return Document{}, fmt.Errorf("failed to decode assessment document: %w", err)
	}
	return doc, nil
}

var numberType = reflect.TypeOf(Number(""))

// numberHook keeps the textual form of any scalar decoded into a Number.
func numberHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != numberType {
		return data, nil
	}
	switch v := data.(type) {
	case nil:
		return Number(""), nil
	case json.Number:
		return Number(v.String()), nil
	case string:
		return Number(v), nil
	case float64:
		return Num(v), nil
	case int:
		return Number(strconv.Itoa(v)), nil
	case bool:
		return Number(strconv.FormatBool(v)), nil
	}
	return Number(fmt.Sprint(data)), nil
}

func blank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func blankNumbers(numbers map[string]Number) bool {
	for _, n := range numbers {
		if !blank(string(n)) {
			return false
		}
	}
	return true
}

// Compact drops the rows left entirely blank, such as the spare rows of the
// input form.
func (doc Document) Compact() Document {
	compacted := Document{SolarPercent: doc.SolarPercent}
	for _, m := range doc.Materials {
		if !blank(m.Name, string(m.Quantity), string(m.EmissionFactor)) {
			compacted.Materials = append(compacted.Materials, m)
		}
	}
	for _, p := range doc.Processes {
		if !blank(p.Name, string(p.Hours), string(p.KWhPerHour)) {
			compacted.Processes = append(compacted.Processes, p)
		}
	}
	for _, leg := range doc.Transport {
		if !blank(leg.Name, string(leg.DistanceMiles), string(leg.PayloadKg)) ||
			!blankNumbers(leg.Shares) || !blankNumbers(leg.Factors) {
			compacted.Transport = append(compacted.Transport, leg)
		}
	}
	return compacted
}
