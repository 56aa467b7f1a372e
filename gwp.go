package surfboardgwp

import (
	"fmt"
	"slices"
	"strconv"
)

// Stage is a lifecycle grouping of line items.
type Stage string

const (
	StageMaterials      Stage = "materials"
	StageProcessEnergy  Stage = "process_energy"
	StageTransportation Stage = "transportation"
)

// Stages lists every lifecycle stage in display order.
var Stages = []Stage{StageMaterials, StageProcessEnergy, StageTransportation}

// Component returns the name used for the stage in exported summaries.
func (s Stage) Component() string {
	switch s {
	case StageMaterials:
		return "Materials"
	case StageProcessEnergy:
		return "Processes"
	case StageTransportation:
		return "Transportation"
	}
	return string(s)
}

// Title returns the human readable stage name.
func (s Stage) Title() string {
	if s == StageProcessEnergy {
		return "Process Energy"
	}
	return s.Component()
}

// LineItem is one material, process or transport leg contribution.
type LineItem struct {
	// Name is a free-form label, it may be empty
	Name string
	// Quantity in kg, kWh or kg·mile depending on the stage
	Quantity float64
	// Unit of the quantity, informative only
	Unit string
	// EmissionFactor in kgCO2eq per unit
	EmissionFactor float64
}

// Emissions returns the exact contribution of the item.
func (item LineItem) Emissions() Emissions {
	return Emissions(item.Quantity * item.EmissionFactor)
}

// TotalGWP returns the item contribution rounded for display.
func (item LineItem) TotalGWP() float64 {
	return item.Emissions().Rounded()
}

// ItemTotal is a line item with its computed contribution.
type ItemTotal struct {
	LineItem
	Total Emissions
}

// TotalGWP returns the aggregated contribution rounded for display.
func (item ItemTotal) TotalGWP() float64 {
	return item.Total.Rounded()
}

type aggregateOptions struct {
	sumRounded bool
}

type AggregateOption func(o *aggregateOptions)

// WithRoundedSum makes stage totals the sum of the displayed (rounded) item
// totals instead of the exact ones.
func WithRoundedSum(enabled bool) AggregateOption {
	return func(o *aggregateOptions) {
		o.sumRounded = enabled
	}
}

// Aggregate computes the contribution of every item and their stage total.
// A contribution that is not finite counts as zero.
func Aggregate(items []LineItem, opts ...AggregateOption) ([]ItemTotal, Emissions) {
	options := new(aggregateOptions)
	for _, opt := range opts {
		opt(options)
	}

	totals := make([]ItemTotal, len(items))
	contributions := make([]Emissions, len(items))
	for i, item := range items {
		total := item.Emissions()
		if !total.Finite() {
			total = 0
		}
		if options.sumRounded {
			total = Emissions(total.Rounded())
		}
		totals[i] = ItemTotal{LineItem: item, Total: total}
		contributions[i] = total
	}

	return totals, SumEmissions(contributions...)
}

// StageInput holds the line items of one stage before aggregation.
type StageInput struct {
	Stage Stage
	Items []LineItem
	// Invalid marks a stage whose input could not produce a total
	Invalid bool
}

// StageTotal is the aggregated result of one stage.
type StageTotal struct {
	Stage Stage
	Items []ItemTotal
	Total Emissions
	// Valid is false when the stage input was rejected, Total is then zero
	Valid bool
}

// Assessment is the result of one full evaluation pass.
type Assessment struct {
	Stages     []StageTotal
	GrandTotal Emissions
	Warnings   []Warning
}

// Assess aggregates every stage and the grand total. Invalid stages produce
// no total and do not contribute to the grand total.
func Assess(inputs []StageInput, warnings []Warning, opts ...AggregateOption) Assessment {
	assessment := Assessment{
		Stages:   make([]StageTotal, 0, len(inputs)),
		Warnings: slices.Clone(warnings),
	}

	stageTotals := make([]Emissions, 0, len(inputs))
	for _, input := range inputs {
		if input.Invalid {
			assessment.Stages = append(assessment.Stages, StageTotal{
				Stage: input.Stage,
				Items: []ItemTotal{},
				Valid: false,
			})
			continue
		}

		for i, item := range input.Items {
			if e := item.Emissions(); !e.Finite() {
				assessment.Warnings = append(assessment.Warnings, NewWarning(
					fmt.Sprintf("%s[%d]", input.Stage, i),
					strconv.FormatFloat(float64(e), 'g', -1, 64),
					0,
					ErrOverflow,
				))
			}
		}

		items, total := Aggregate(input.Items, opts...)
		if !total.Finite() {
			assessment.Warnings = append(assessment.Warnings, NewWarning(
				string(input.Stage),
				strconv.FormatFloat(float64(total), 'g', -1, 64),
				0,
				ErrOverflow,
			))
			assessment.Stages = append(assessment.Stages, StageTotal{
				Stage: input.Stage,
				Items: []ItemTotal{},
				Valid: false,
			})
			continue
		}
		assessment.Stages = append(assessment.Stages, StageTotal{
			Stage: input.Stage,
			Items: items,
			Total: total,
			Valid: true,
		})
		stageTotals = append(stageTotals, total)
	}

	assessment.GrandTotal = SumEmissions(stageTotals...)
	for !assessment.GrandTotal.Finite() {
		assessment.dropLargestStage()
	}
	return assessment
}

// dropLargestStage invalidates the valid stage with the largest total and
// recomputes the grand total without it.
func (a *Assessment) dropLargestStage() {
	largest := -1
	for i, s := range a.Stages {
		if s.Valid && (largest < 0 || s.Total > a.Stages[largest].Total) {
			largest = i
		}
	}
	if largest < 0 {
		a.GrandTotal = 0
		return
	}

	dropped := a.Stages[largest]
	a.Warnings = append(a.Warnings, NewWarning(
		string(dropped.Stage),
		strconv.FormatFloat(float64(dropped.Total), 'g', -1, 64),
		0,
		ErrOverflow,
	))
	a.Stages[largest] = StageTotal{Stage: dropped.Stage, Items: []ItemTotal{}, Valid: false}

	totals := make([]Emissions, 0, len(a.Stages))
	for _, s := range a.Stages {
		if s.Valid {
			totals = append(totals, s.Total)
		}
	}
	a.GrandTotal = SumEmissions(totals...)
}

// Stage returns the total of the given stage.
func (a Assessment) Stage(stage Stage) (StageTotal, bool) {
	for _, s := range a.Stages {
		if s.Stage == stage {
			return s, true
		}
	}
	return StageTotal{}, false
}

// Valid reports whether every stage produced a total.
func (a Assessment) Valid() bool {
	for _, s := range a.Stages {
		if !s.Valid {
			return false
		}
	}
	return true
}

// Share returns the part of the grand total held by the stage, in percent.
func (a Assessment) Share(stage Stage) float64 {
	s, found := a.Stage(stage)
	if !found || a.GrandTotal == 0 {
		return 0
	}
	return float64(s.Total) / float64(a.GrandTotal) * 100
}
