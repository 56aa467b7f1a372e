package input

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	surfboardgwp "github.com/swellcycle/surfboard-gwp"
	"github.com/swellcycle/surfboard-gwp/model"
)

func TestParseJSON(t *testing.T) {
	doc, err := ParseJSON(strings.NewReader(`{
		"solar_percent": 20,
		"materials": [
			{"name": "PET", "quantity": 2, "emission_factor": 3.468},
			{"name": "Epoxy", "quantity": "abc"}
		],
		"transport": [
			{"name": "ship", "distance_miles": 100, "payload_kg": "5", "shares": {"road": 60, "sea": 40}}
		]
	}`))
	require.NoError(t, err)

	want := Document{
		SolarPercent: "20",
		Materials: []Material{
			{Name: "PET", Quantity: "2", EmissionFactor: "3.468"},
			{Name: "Epoxy", Quantity: "abc"},
		},
		Transport: []Leg{
			{Name: "ship", DistanceMiles: "100", PayloadKg: "5", Shares: map[string]Number{"road": "60", "sea": "40"}},
		},
	}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestParseJSONRejectsInvalidDocument(t *testing.T) {
	tests := map[string]string{
		"unknown section":   `{"engines": []}`,
		"materials object":  `{"materials": {"name": "PET"}}`,
		"nested number":     `{"materials": [{"quantity": {"value": 2}}]}`,
		"not a json object": `[1, 2]`,
		"broken json":       `{"materials": [`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseJSON(strings.NewReader(body))
			assert.Error(t, err)
		})
	}
}

func TestParseYAML(t *testing.T) {
	doc, err := ParseYAML([]byte(`
solar_percent: 35
processes:
  - name: 3D printing
    hours: 10
    kwh_per_hour: 1.2
`))
	require.NoError(t, err)

	assert.Equal(t, Number("35"), doc.SolarPercent)
	require.Len(t, doc.Processes, 1)
	assert.Equal(t, Process{Name: "3D printing", Hours: "10", KWhPerHour: "1.2"}, doc.Processes[0])
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.yml")
	require.NoError(t, os.WriteFile(path, []byte("materials:\n  - name: PET\n    quantity: 2\n"), 0o600))

	doc, err := ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, doc.Materials, 1)

	txt := filepath.Join(dir, "board.txt")
	require.NoError(t, os.WriteFile(txt, []byte("PET 2"), 0o600))
	_, err = ParseFile(txt)
	assert.ErrorContains(t, err, "unsupported")
}

func TestParseForm(t *testing.T) {
	values := url.Values{
		"solar_percent":               {"20"},
		"materials.1.name":            {"Epoxy"},
		"materials.1.quantity":        {"1"},
		"materials.0.name":            {"PET"},
		"materials.0.quantity":        {"2"},
		"materials.0.emission_factor": {""},
		"transport.0.shares.road":     {"100"},
		"transport.0.shares.sea":      {""},
		"transport.0.payload_kg":      {"5"},
		"csrf":                        {"ignored"},
	}

	doc, err := ParseForm(values)
	require.NoError(t, err)

	require.Len(t, doc.Materials, 2)
	assert.Equal(t, "PET", doc.Materials[0].Name)
	assert.Equal(t, "Epoxy", doc.Materials[1].Name)
	require.Len(t, doc.Transport, 1)
	assert.Equal(t, map[string]Number{"road": "100", "sea": ""}, doc.Transport[0].Shares)
}

func TestValuesRoundTrip(t *testing.T) {
	defaults := model.LoadDefaults()
	doc := Encode(model.Baseline(defaults))

	parsed, err := ParseForm(doc.Values())
	require.NoError(t, err)
	if diff := cmp.Diff(doc, parsed); diff != "" {
		t.Errorf("form round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve(t *testing.T) {
	defaults := model.LoadDefaults()
	doc := Document{
		Materials: []Material{
			{Name: "PET", Quantity: "2", EmissionFactor: "3.468"},
			{Name: "Epoxy", Quantity: "abc"},
			{Name: "Fiberglass", Quantity: "-1", EmissionFactor: "x"},
		},
		Processes: []Process{{Name: "Glassing", Hours: "3", KWhPerHour: ""}},
		Transport: []Leg{{
			Name:          "ship",
			DistanceMiles: "100",
			PayloadKg:     "5",
			Shares:        map[string]Number{"road": "60", "sea": "40", "teleport": "1"},
			Factors:       map[string]Number{"sea": "oops"},
		}},
	}

	req, warnings := Resolve(doc, defaults)

	require.Len(t, req.Materials, 3)
	assert.Equal(t, 2.0, req.Materials[0].Quantity)
	assert.Equal(t, 0.0, req.Materials[1].Quantity)
	assert.Equal(t, 6.55, req.Materials[1].EmissionFactor)
	assert.Equal(t, 0.0, req.Materials[2].Quantity)
	assert.Equal(t, 2.63, req.Materials[2].EmissionFactor)

	assert.Equal(t, float64(model.BaselineSolarPercent), req.Mix.SolarPercent)
	assert.Equal(t, 0.0, req.Processes[0].KWhPerHour)

	require.Len(t, req.Legs, 1)
	assert.Equal(t, map[model.Mode]float64{model.ModeRoad: 60, model.ModeSea: 40}, req.Legs[0].Shares)
	assert.Equal(t, map[model.Mode]float64{model.ModeSea: 0.0000257}, req.Legs[0].Factors)

	fields := make([]string, 0, len(warnings))
	for _, w := range warnings {
		fields = append(fields, w.Field)
	}
	assert.Equal(t, []string{
		"materials[1].quantity",
		"materials[2].quantity",
		"materials[2].emission_factor",
		"transport[0].shares.teleport",
		"transport[0].factors.sea",
	}, fields)

	assert.ErrorIs(t, warnings[0].Err, surfboardgwp.ErrNotANumber)
	assert.ErrorIs(t, warnings[1].Err, surfboardgwp.ErrNegative)
	assert.ErrorIs(t, warnings[3].Err, surfboardgwp.ErrUnknownMode)
	assert.Equal(t, 2.63, warnings[2].Substitute)
}

func TestResolveSolarPercent(t *testing.T) {
	defaults := model.LoadDefaults()

	req, warnings := Resolve(Document{SolarPercent: "45"}, defaults)
	assert.Equal(t, 45.0, req.Mix.SolarPercent)
	assert.Empty(t, warnings)

	req, warnings = Resolve(Document{SolarPercent: "140"}, defaults)
	assert.Equal(t, float64(model.BaselineSolarPercent), req.Mix.SolarPercent)
	require.Len(t, warnings, 1)
	assert.ErrorIs(t, warnings[0].Err, surfboardgwp.ErrOutOfRange)
}

func TestResolveMalformedQuantityKeepsEvaluating(t *testing.T) {
	defaults := model.LoadDefaults()
	doc := Document{Materials: []Material{
		{Name: "PET", Quantity: "abc", EmissionFactor: "3.468"},
		{Name: "Epoxy", Quantity: "1", EmissionFactor: "6.55"},
	}}

	req, warnings := Resolve(doc, defaults)
	assessment := model.NewEvaluator(defaults).Evaluate(req, warnings)

	materials, _ := assessment.Stage(surfboardgwp.StageMaterials)
	require.Len(t, materials.Items, 2)
	assert.Equal(t, 0.0, materials.Items[0].TotalGWP())
	assert.Equal(t, 6.55, materials.Total.Rounded())
	require.Len(t, assessment.Warnings, 1)
	assert.Equal(t, `materials[0].quantity: "abc" not a finite number, using 0`, assessment.Warnings[0].Message())
}

func TestResolveOverflowingProduct(t *testing.T) {
	defaults := model.LoadDefaults()
	doc := Document{Materials: []Material{
		{Name: "PET", Quantity: "1e200", EmissionFactor: "1e200"},
		{Name: "Epoxy", Quantity: "1", EmissionFactor: "6.55"},
	}}

	req, warnings := Resolve(doc, defaults)
	assert.Empty(t, warnings)

	assessment := model.NewEvaluator(defaults).Evaluate(req, warnings)
	materials, _ := assessment.Stage(surfboardgwp.StageMaterials)
	require.True(t, materials.Valid)
	assert.Equal(t, 0.0, materials.Items[0].TotalGWP())
	assert.Equal(t, 6.55, materials.Total.Rounded())
	assert.Equal(t, 6.55, assessment.GrandTotal.Rounded())
	require.Len(t, assessment.Warnings, 1)
	assert.ErrorIs(t, assessment.Warnings[0].Err, surfboardgwp.ErrOverflow)
	assert.Equal(t, `materials[0]: "+Inf" contribution is not a finite number, using 0`, assessment.Warnings[0].Message())
}

func TestResolveDuplicateMode(t *testing.T) {
	doc := Document{Transport: []Leg{{
		DistanceMiles: "100",
		PayloadKg:     "5",
		Shares:        map[string]Number{"Road": "60", "road": "40", "sea": "40"},
		Factors:       map[string]Number{"SEA": "0.1", "sea": "0.2"},
	}}}

	req, warnings := Resolve(doc, model.LoadDefaults())
	require.Len(t, req.Legs, 1)
	assert.Equal(t, map[model.Mode]float64{model.ModeRoad: 60, model.ModeSea: 40}, req.Legs[0].Shares)
	assert.Equal(t, map[model.Mode]float64{model.ModeSea: 0.1}, req.Legs[0].Factors)

	require.Len(t, warnings, 2)
	assert.Equal(t, "transport[0].shares.road", warnings[0].Field)
	assert.ErrorIs(t, warnings[0].Err, surfboardgwp.ErrDuplicateMode)
	assert.Equal(t, "transport[0].factors.sea", warnings[1].Field)
	assert.ErrorIs(t, warnings[1].Err, surfboardgwp.ErrDuplicateMode)
}

func TestCompact(t *testing.T) {
	doc := Document{
		SolarPercent: "20",
		Materials: []Material{
			{Name: "PET", Quantity: "2"},
			{Name: " ", Quantity: "", EmissionFactor: ""},
		},
		Processes: []Process{{}},
		Transport: []Leg{
			{Shares: map[string]Number{"road": "", "sea": ""}},
			{Shares: map[string]Number{"road": "100"}},
		},
	}

	compacted := doc.Compact()
	assert.Equal(t, Number("20"), compacted.SolarPercent)
	assert.Equal(t, []Material{{Name: "PET", Quantity: "2"}}, compacted.Materials)
	assert.Empty(t, compacted.Processes)
	require.Len(t, compacted.Transport, 1)
	assert.Equal(t, Number("100"), compacted.Transport[0].Shares["road"])
}
