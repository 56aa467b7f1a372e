package model

import (
	"fmt"
	"log/slog"
	"strconv"

	surfboardgwp "github.com/swellcycle/surfboard-gwp"
)

// Material is a raw material entering the board.
type Material struct {
	Name string
	// Quantity in kg
	Quantity float64
	// EmissionFactor in kgCO2eq/kg
	EmissionFactor float64
}

// LineItem converts the material into an aggregator line item.
func (m Material) LineItem() surfboardgwp.LineItem {
	return surfboardgwp.LineItem{
		Name:           m.Name,
		Quantity:       m.Quantity,
		Unit:           "kg",
		EmissionFactor: m.EmissionFactor,
	}
}

// Request is a fully resolved assessment input: every number has already
// been parsed or substituted by its default.
type Request struct {
	Materials []Material
	Mix       EnergyMix
	Processes []Process
	Legs      []Leg
}

// Evaluator turns requests into assessments.
type Evaluator struct {
	Defaults       Defaults
	ShareTolerance float64
	SumRounded     bool
}

// NewEvaluator returns an evaluator with the default share tolerance.
func NewEvaluator(defaults Defaults) *Evaluator {
	return &Evaluator{
		Defaults:       defaults,
		ShareTolerance: DefaultShareTolerance,
	}
}

// Evaluate expands the request into the line items of every stage and
// aggregates them. Warnings collected while decoding the request are carried
// over to the assessment next to the ones raised here.
func (e *Evaluator) Evaluate(req Request, warnings []surfboardgwp.Warning) surfboardgwp.Assessment {
	materials := make([]surfboardgwp.LineItem, 0, len(req.Materials))
	for _, m := range req.Materials {
		materials = append(materials, m.LineItem())
	}

	processes := make([]surfboardgwp.LineItem, 0, 2*len(req.Processes))
	for _, p := range req.Processes {
		processes = append(processes, p.LineItems(req.Mix)...)
	}

	transport := surfboardgwp.StageInput{Stage: surfboardgwp.StageTransportation}
	for i, leg := range req.Legs {
		if err := ValidateShares(leg.Shares, e.ShareTolerance); err != nil {
			slog.Debug("rejecting transport leg", "leg", leg.Name, "err", err.Error())
			warnings = append(warnings, surfboardgwp.NewWarning(
				fmt.Sprintf("transport[%d].shares", i),
				sharesString(leg.Shares),
				0,
				err,
			))
			transport.Invalid = true
			continue
		}
		transport.Items = append(transport.Items, leg.LineItems(e.Defaults.Transport)...)
	}
	if transport.Invalid {
		transport.Items = nil
	}

	return surfboardgwp.Assess([]surfboardgwp.StageInput{
		{Stage: surfboardgwp.StageMaterials, Items: materials},
		{Stage: surfboardgwp.StageProcessEnergy, Items: processes},
		transport,
	}, warnings, surfboardgwp.WithRoundedSum(e.SumRounded))
}

func sharesString(shares map[Mode]float64) string {
	s := ""
	for _, mode := range Modes {
		share, found := shares[mode]
		if !found {
			continue
		}
		if s != "" {
			s += " "
		}
		s += string(mode) + "=" + strconv.FormatFloat(share, 'g', -1, 64)
	}
	return s
}
