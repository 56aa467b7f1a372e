package model

// BaselineSolarPercent is the solar share of the baseline energy mix.
const BaselineSolarPercent = 20

// Baseline returns the reference shortboard used to prefill the input form
// and exposed on the metrics endpoint.
func Baseline(defaults Defaults) Request {
	material := func(name, key string, kg float64) Material {
		return Material{Name: name, Quantity: kg, EmissionFactor: defaults.Materials.Get(key)}
	}

	return Request{
		Materials: []Material{
			material("PET foam core", "pet_foam", 2),
			material("Epoxy resin", "epoxy", 1),
			material("Fiberglass cloth", "fiberglass", 1.5),
		},
		Mix: DefaultEnergyMix(defaults, BaselineSolarPercent),
		Processes: []Process{
			{Name: "3D printing", Hours: 10, KWhPerHour: 1.2},
			{Name: "Testing", Hours: 2, KWhPerHour: 0.5},
			{Name: "Glassing", Hours: 3, KWhPerHour: 0.8},
		},
		Legs: []Leg{
			{
				Name:          "Factory to shop",
				DistanceMiles: 500,
				PayloadKg:     5,
				Shares:        map[Mode]float64{ModeRoad: 60, ModeSea: 40},
			},
		},
	}
}
