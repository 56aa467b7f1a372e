package model

import (
	surfboardgwp "github.com/swellcycle/surfboard-gwp"
)

// Field is one numeric or text input of a stage row.
type Field struct {
	// Key is the input document key of the field
	Key     string
	Label   string
	Numeric bool
}

// StageDefinition describes the rows a stage is entered with.
type StageDefinition struct {
	Stage surfboardgwp.Stage
	// Section is the input document key holding the stage rows
	Section string
	Unit    string
	Fields  []Field
}

// StageDefinitions is the declarative table every input surface is built from.
var StageDefinitions = []StageDefinition{
	{
		Stage:   surfboardgwp.StageMaterials,
		Section: "materials",
		Unit:    "kg",
		Fields: []Field{
			{Key: "name", Label: "Material"},
			{Key: "quantity", Label: "Quantity (kg)", Numeric: true},
			{Key: "emission_factor", Label: "Emission factor (kg CO₂ eq/kg)", Numeric: true},
		},
	},
	{
		Stage:   surfboardgwp.StageProcessEnergy,
		Section: "processes",
		Unit:    "kWh",
		Fields: []Field{
			{Key: "name", Label: "Process"},
			{Key: "hours", Label: "Duration (h)", Numeric: true},
			{Key: "kwh_per_hour", Label: "Power (kWh/h)", Numeric: true},
		},
	},
	{
		Stage:   surfboardgwp.StageTransportation,
		Section: "transport",
		Unit:    "kg·mile",
		Fields: []Field{
			{Key: "name", Label: "Leg"},
			{Key: "distance_miles", Label: "Distance (miles)", Numeric: true},
			{Key: "payload_kg", Label: "Payload (kg)", Numeric: true},
			{Key: "shares.road", Label: "Road (%)", Numeric: true},
			{Key: "shares.sea", Label: "Sea (%)", Numeric: true},
			{Key: "shares.air", Label: "Air (%)", Numeric: true},
			{Key: "shares.rail", Label: "Rail (%)", Numeric: true},
		},
	},
}
