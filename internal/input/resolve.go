package input

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	surfboardgwp "github.com/swellcycle/surfboard-gwp"
	"github.com/swellcycle/surfboard-gwp/model"
)

// resolver converts raw numbers and records a warning for every substitution.
type resolver struct {
	defaults model.Defaults
	warnings []surfboardgwp.Warning
}

// Resolve turns a document into an evaluation request. Missing numbers take
// their default silently, malformed ones take their default and raise a warning.
func Resolve(doc Document, defaults model.Defaults) (model.Request, []surfboardgwp.Warning) {
	r := &resolver{defaults: defaults}

	req := model.Request{
		Materials: make([]model.Material, 0, len(doc.Materials)),
		Processes: make([]model.Process, 0, len(doc.Processes)),
		Legs:      make([]model.Leg, 0, len(doc.Transport)),
	}

	solarPercent := r.percent("solar_percent", doc.SolarPercent, model.BaselineSolarPercent)
	req.Mix = model.DefaultEnergyMix(defaults, solarPercent)

	for i, m := range doc.Materials {
		field := fmt.Sprintf("materials[%d].", i)
		_, suggested := defaults.Materials.Lookup(m.Name)
		req.Materials = append(req.Materials, model.Material{
			Name:           strings.TrimSpace(m.Name),
			Quantity:       r.quantity(field+"quantity", m.Quantity),
			EmissionFactor: r.factor(field+"emission_factor", m.EmissionFactor, suggested),
		})
	}

	for i, p := range doc.Processes {
		field := fmt.Sprintf("processes[%d].", i)
		req.Processes = append(req.Processes, model.Process{
			Name:       strings.TrimSpace(p.Name),
			Hours:      r.quantity(field+"hours", p.Hours),
			KWhPerHour: r.quantity(field+"kwh_per_hour", p.KWhPerHour),
		})
	}

	for i, leg := range doc.Transport {
		field := fmt.Sprintf("transport[%d].", i)
		resolved := model.Leg{
			Name:          strings.TrimSpace(leg.Name),
			DistanceMiles: r.quantity(field+"distance_miles", leg.DistanceMiles),
			PayloadKg:     r.quantity(field+"payload_kg", leg.PayloadKg),
			Shares:        make(map[model.Mode]float64, len(leg.Shares)),
		}

		for _, name := range slices.Sorted(maps.Keys(leg.Shares)) {
			mode, ok := r.mode(field+"shares."+name, name, leg.Shares[name])
			if !ok {
				continue
			}
			if _, seen := resolved.Shares[mode]; seen {
				r.warn(field+"shares."+name, leg.Shares[name], resolved.Shares[mode], surfboardgwp.ErrDuplicateMode)
				continue
			}
			resolved.Shares[mode] = r.quantity(field+"shares."+name, leg.Shares[name])
		}

		for _, name := range slices.Sorted(maps.Keys(leg.Factors)) {
			mode, ok := r.mode(field+"factors."+name, name, leg.Factors[name])
			if !ok || leg.Factors[name] == "" {
				continue
			}
			if _, seen := resolved.Factors[mode]; seen {
				r.warn(field+"factors."+name, leg.Factors[name], resolved.Factors[mode], surfboardgwp.ErrDuplicateMode)
				continue
			}
			if resolved.Factors == nil {
				resolved.Factors = make(map[model.Mode]float64)
			}
			resolved.Factors[mode] = r.factor(field+"factors."+name, leg.Factors[name], defaults.Transport.Get(string(mode)))
		}

		req.Legs = append(req.Legs, resolved)
	}

	return req, r.warnings
}

func (r *resolver) warn(field string, raw Number, substitute float64, err error) float64 {
	r.warnings = append(r.warnings, surfboardgwp.NewWarning(field, string(raw), substitute, err))
	return substitute
}

// parse reads a finite number. ok is false when raw is empty.
func (r *resolver) parse(raw Number) (v float64, ok bool, err error) {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return 0, false, nil
	}
	v, err = strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, true, surfboardgwp.ErrNotANumber
	}
	return v, true, nil
}

// quantity resolves a non negative quantity defaulting to zero.
func (r *resolver) quantity(field string, raw Number) float64 {
	v, ok, err := r.parse(raw)
	switch {
	case !ok:
		return 0
	case err != nil:
		return r.warn(field, raw, 0, err)
	case v < 0:
		return r.warn(field, raw, 0, surfboardgwp.ErrNegative)
	}
	return v
}

// factor resolves an emission factor defaulting to the suggested one.
func (r *resolver) factor(field string, raw Number, suggested float64) float64 {
	v, ok, err := r.parse(raw)
	switch {
	case !ok:
		return suggested
	case err != nil:
		return r.warn(field, raw, suggested, err)
	case v < 0:
		return r.warn(field, raw, suggested, surfboardgwp.ErrNegative)
	}
	return v
}

func (r *resolver) percent(field string, raw Number, suggested float64) float64 {
	v, ok, err := r.parse(raw)
	switch {
	case !ok:
		return suggested
	case err != nil:
		return r.warn(field, raw, suggested, err)
	case v < 0 || v > 100:
		return r.warn(field, raw, suggested, surfboardgwp.ErrOutOfRange)
	}
	return v
}

func (r *resolver) mode(field, name string, raw Number) (model.Mode, bool) {
	mode, err := model.ParseMode(name)
	if err != nil {
		r.warn(field, raw, 0, surfboardgwp.ErrUnknownMode)
		return "", false
	}
	return mode, true
}

// Encode returns the document describing req, used to prefill input forms.
func Encode(req model.Request) Document {
	doc := Document{
		SolarPercent: Num(req.Mix.SolarPercent),
		Materials:    make([]Material, 0, len(req.Materials)),
		Processes:    make([]Process, 0, len(req.Processes)),
		Transport:    make([]Leg, 0, len(req.Legs)),
	}

	for _, m := range req.Materials {
		doc.Materials = append(doc.Materials, Material{
			Name:           m.Name,
			Quantity:       Num(m.Quantity),
			EmissionFactor: Num(m.EmissionFactor),
		})
	}
	for _, p := range req.Processes {
		doc.Processes = append(doc.Processes, Process{
			Name:       p.Name,
			Hours:      Num(p.Hours),
			KWhPerHour: Num(p.KWhPerHour),
		})
	}
	for _, leg := range req.Legs {
		encoded := Leg{
			Name:          leg.Name,
			DistanceMiles: Num(leg.DistanceMiles),
			PayloadKg:     Num(leg.PayloadKg),
			Shares:        make(map[string]Number, len(leg.Shares)),
		}
		for mode, share := range leg.Shares {
			encoded.Shares[string(mode)] = Num(share)
		}
		for mode, factor := range leg.Factors {
			if encoded.Factors == nil {
				encoded.Factors = make(map[string]Number)
			}
			encoded.Factors[string(mode)] = Num(factor)
		}
		doc.Transport = append(doc.Transport, encoded)
	}
	return doc
}
