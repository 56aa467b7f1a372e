package model

import (
	"embed"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/swellcycle/surfboard-gwp/internal/must"
	"gopkg.in/yaml.v3"
)

//go:embed data/emission_factors.csv
var factorsData embed.FS

// Defaults holds the suggested emission factors of every stage.
type Defaults struct {
	// Materials factors in kgCO2eq/kg
	Materials FactorTable `yaml:"material_defaults"`
	// Processes factors in kgCO2eq/kWh, keyed by energy source
	Processes FactorTable `yaml:"process_defaults"`
	// Transport factors in kgCO2eq/(kg·mile), keyed by mode
	Transport FactorTable `yaml:"transport_defaults"`
}

// LoadDefaults parses the emission factors embedded in the binary.
func LoadDefaults() Defaults {
	f, err := factorsData.Open("data/emission_factors.csv")
	must.NoError(err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	must.NoError(err)

	defaults := Defaults{
		Materials: make(FactorTable),
		Processes: make(FactorTable),
		Transport: make(FactorTable),
	}

	for line, record := range records {
		// skip csv header
		if line == 0 {
			continue
		}
		must.Assert(len(record) == 4, "csv line must be 4 fields length")
		table := defaults.table(record[0])
		must.Assert(table != nil, "unknown emission factor table "+record[0])

		table[record[1]] = must.CastFloat64(record[2])
	}

	must.NoError(defaults.Validate())
	return defaults
}

// LoadFactorsFile reads a YAML factors file and merges it over the embedded
// defaults. Tables or keys absent from the file keep their embedded value.
func LoadFactorsFile(path string) (Defaults, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Defaults{}, fmt.Errorf("failed to read factors file: %w", err)
	}

	override := Defaults{}
	if err := yaml.Unmarshal(content, &override); err != nil {
		return Defaults{}, fmt.Errorf("failed to parse factors file %s: %w", path, err)
	}

	defaults := LoadDefaults()
	defaults.Materials = defaults.Materials.Merge(override.Materials)
	defaults.Processes = defaults.Processes.Merge(override.Processes)
	defaults.Transport = defaults.Transport.Merge(override.Transport)

	if err := defaults.Validate(); err != nil {
		return Defaults{}, fmt.Errorf("invalid factors file %s: %w", path, err)
	}
	return defaults, nil
}

// Validate checks every table has a default entry and no negative factor.
func (d Defaults) Validate() error {
	for name, table := range map[string]FactorTable{
		"material":  d.Materials,
		"process":   d.Processes,
		"transport": d.Transport,
	} {
		if _, found := table[DefaultKey]; !found {
			return fmt.Errorf("%s table has no %s factor", name, DefaultKey)
		}
		for key, factor := range table {
			if factor < 0 {
				return fmt.Errorf("%s factor %s is negative: %g", name, key, factor)
			}
		}
	}
	for _, source := range []string{SourceSolar, SourceGrid} {
		if _, found := d.Processes[source]; !found {
			return fmt.Errorf("process table has no %s factor", source)
		}
	}
	return nil
}

func (d Defaults) table(name string) FactorTable {
	switch name {
	case "material":
		return d.Materials
	case "process":
		return d.Processes
	case "transport":
		return d.Transport
	}
	return nil
}
