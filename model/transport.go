package model

import (
	"fmt"
	"math"
	"slices"

	surfboardgwp "github.com/swellcycle/surfboard-gwp"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

// DefaultShareTolerance is the accepted gap between the sum of mode shares and 100.
const DefaultShareTolerance = 1e-6

// Mode is a transportation mode.
type Mode string

const (
	ModeRoad Mode = "road"
	ModeSea  Mode = "sea"
	ModeAir  Mode = "air"
	ModeRail Mode = "rail"
)

// Modes lists the supported modes in display order.
var Modes = []Mode{ModeRoad, ModeSea, ModeAir, ModeRail}

// ParseMode returns the mode named s.
func ParseMode(s string) (Mode, error) {
	mode := Mode(NormalizeKey(s))
	if !slices.Contains(Modes, mode) {
		return "", fmt.Errorf("%w: %q", surfboardgwp.ErrUnknownMode, s)
	}
	return mode, nil
}

// Leg is one shipment split between transportation modes.
type Leg struct {
	Name          string
	DistanceMiles float64
	PayloadKg     float64
	// Shares of the leg carried by each mode, in percent
	Shares map[Mode]float64
	// Factors overrides the default factor of a mode, in kgCO2eq/(kg·mile)
	Factors map[Mode]float64
}

// Work returns the transport work of the leg in kg·mile.
func (leg Leg) Work() float64 {
	return leg.DistanceMiles * leg.PayloadKg
}

// ValidateShares checks that every share is a percentage of a known mode
// and that shares sum to 100 within tolerance.
func ValidateShares(shares map[Mode]float64, tolerance float64) error {
	values := make([]float64, 0, len(shares))
	for mode, share := range shares {
		if !slices.Contains(Modes, mode) {
			return fmt.Errorf("%w: %q", surfboardgwp.ErrUnknownMode, mode)
		}
		if math.IsNaN(share) || share < 0 || share > 100 {
			return fmt.Errorf("%w: %s share is %g", surfboardgwp.ErrInvalidShares, mode, share)
		}
		values = append(values, share)
	}

	sum := floats.Sum(values)
	if !scalar.EqualWithinAbs(sum, 100, tolerance) {
		return fmt.Errorf("%w: got %g", surfboardgwp.ErrInvalidShares, sum)
	}
	return nil
}

// Factor returns the emission factor used for mode on this leg.
func (leg Leg) Factor(mode Mode, defaults FactorTable) float64 {
	if f, found := leg.Factors[mode]; found {
		return f
	}
	return defaults.Get(string(mode))
}

// LineItems returns one item per mode carrying a part of the leg. Shares
// must have been validated first.
func (leg Leg) LineItems(defaults FactorTable) []surfboardgwp.LineItem {
	items := make([]surfboardgwp.LineItem, 0, len(leg.Shares))
	for _, mode := range Modes {
		share := leg.Shares[mode]
		if share == 0 {
			continue
		}
		items = append(items, surfboardgwp.LineItem{
			Name:           fmt.Sprintf("%s (%s)", leg.Name, mode),
			Quantity:       leg.Work() * share / 100,
			Unit:           "kg·mile",
			EmissionFactor: leg.Factor(mode, defaults),
		})
	}
	return items
}
