package surfboardgwp

import (
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

// DisplayPrecision is the number of decimals kept when emissions are shown.
const DisplayPrecision = 3

// Emissions in kgCO2eq
type Emissions float64

func (e Emissions) KgCO2eq() float64 {
	return float64(e)
}

func (e Emissions) TCO2eq() float64 {
	return e.KgCO2eq() / 1000
}

// Finite reports whether e is neither infinite nor NaN.
func (e Emissions) Finite() bool {
	return !math.IsInf(float64(e), 0) && !math.IsNaN(float64(e))
}

// Rounded returns the emissions rounded to DisplayPrecision decimals.
func (e Emissions) Rounded() float64 {
	return Round(float64(e))
}

func (e Emissions) String() string {
	return strconv.FormatFloat(e.Rounded(), 'f', DisplayPrecision, 64)
}

// Round rounds v half away from zero to DisplayPrecision decimals.
func Round(v float64) float64 {
	return scalar.Round(v, DisplayPrecision)
}

// SumEmissions adds emissions with compensated summation so the result does
// not depend on the order of the values.
func SumEmissions(values ...Emissions) Emissions {
	raw := make([]float64, len(values))
	for i, v := range values {
		raw[i] = float64(v)
	}
	return Emissions(floats.SumCompensated(raw))
}

// Energy in kWh
type Energy float64

// Split returns the part of the energy matching percent and the remainder.
func (e Energy) Split(percent float64) (share Energy, rest Energy) {
	share = e * Energy(percent/100)
	return share, e - share
}
