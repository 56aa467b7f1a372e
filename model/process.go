package model

import (
	"fmt"

	surfboardgwp "github.com/swellcycle/surfboard-gwp"
)

// Energy sources of the process defaults table.
const (
	SourceSolar = "solar"
	SourceGrid  = "grid"
)

// EnergyMix describes how process energy is sourced.
type EnergyMix struct {
	// SolarPercent is the part of the energy coming from solar, in [0, 100]
	SolarPercent float64
	// SolarFactor in kgCO2eq/kWh
	SolarFactor float64
	// GridFactor in kgCO2eq/kWh
	GridFactor float64
}

// DefaultEnergyMix returns a mix using the default solar and grid factors.
func DefaultEnergyMix(defaults Defaults, solarPercent float64) EnergyMix {
	return EnergyMix{
		SolarPercent: solarPercent,
		SolarFactor:  defaults.Processes.Get(SourceSolar),
		GridFactor:   defaults.Processes.Get(SourceGrid),
	}
}

// Process is a manufacturing step consuming electricity.
type Process struct {
	Name       string
	Hours      float64
	KWhPerHour float64
}

// Energy returns the electricity used by the process.
func (p Process) Energy() surfboardgwp.Energy {
	return surfboardgwp.Energy(p.Hours * p.KWhPerHour)
}

// LineItems splits the process energy between solar and grid sources.
// Sources with no energy are skipped.
func (p Process) LineItems(mix EnergyMix) []surfboardgwp.LineItem {
	solar, grid := p.Energy().Split(mix.SolarPercent)

	items := make([]surfboardgwp.LineItem, 0, 2)
	if solar > 0 {
		items = append(items, surfboardgwp.LineItem{
			Name:           fmt.Sprintf("%s (%s)", p.Name, SourceSolar),
			Quantity:       float64(solar),
			Unit:           "kWh",
			EmissionFactor: mix.SolarFactor,
		})
	}
	if grid > 0 {
		items = append(items, surfboardgwp.LineItem{
			Name:           fmt.Sprintf("%s (%s)", p.Name, SourceGrid),
			Quantity:       float64(grid),
			Unit:           "kWh",
			EmissionFactor: mix.GridFactor,
		})
	}
	return items
}
