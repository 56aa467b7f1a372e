package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactorTable(t *testing.T) {
	testTable := FactorTable{
		"default":  2,
		"pet_foam": 3.468,
		"pet_film": 2.5,
		"epoxy":    6.55,
	}

	assert.Equal(t, 2.0, testTable.Get("default"))
	assert.Equal(t, 3.468, testTable.Get("PET foam"))
	assert.Equal(t, 3.468, testTable.Get("pet_foam_dense"))
	assert.Equal(t, 2.0, testTable.Get("balsa"))
	assert.Equal(t, []string{"epoxy", "pet_film", "pet_foam"}, testTable.Keys())
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "recycled_pet_foam", NormalizeKey("  Recycled PET-foam "))
	assert.Equal(t, "", NormalizeKey("   "))
}

func TestLookup(t *testing.T) {
	materials := LoadDefaults().Materials

	tests := []struct {
		name   string
		key    string
		factor float64
	}{
		{name: "epoxy", key: "epoxy", factor: 6.55},
		{name: "PET", key: "pet_foam", factor: 3.468},
		{name: "Epoxy Resin", key: "epoxy", factor: 6.55},
		{name: "unobtainium", key: DefaultKey, factor: 3.468},
		{name: "", key: DefaultKey, factor: 3.468},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, factor := materials.Lookup(tt.name)
			assert.Equal(t, tt.key, key)
			assert.Equal(t, tt.factor, factor)
		})
	}
}

func TestSubmatches(t *testing.T) {
	assert.Equal(t, []string{"foo", "foo bar", "foo bar baz", "bar", "baz"}, submatches("foo bar baz"))
	assert.Nil(t, submatches(""))
}

func TestLoadDefaults(t *testing.T) {
	defaults := LoadDefaults()

	assert.Equal(t, 3.468, defaults.Materials.Get("pet_foam"))
	assert.Equal(t, 6.55, defaults.Materials.Get("epoxy"))
	assert.Equal(t, 0.05, defaults.Processes.Get(SourceSolar))
	assert.Equal(t, 0.198, defaults.Processes.Get(SourceGrid))
	assert.Equal(t, 0.000161, defaults.Transport.Get(string(ModeRoad)))
	require.NoError(t, defaults.Validate())
}

func TestLoadFactorsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "factors.yaml")
	err := os.WriteFile(path, []byte(`
material_defaults:
  Balsa Wood: 0.3
  epoxy: 5.9
transport_defaults:
  sea: 0.00002
`), 0o600)
	require.NoError(t, err)

	defaults, err := LoadFactorsFile(path)
	require.NoError(t, err)

	assert.Equal(t, 0.3, defaults.Materials.Get("balsa_wood"))
	assert.Equal(t, 5.9, defaults.Materials.Get("epoxy"))
	assert.Equal(t, 3.468, defaults.Materials.Get("pet_foam"))
	assert.Equal(t, 0.00002, defaults.Transport.Get("sea"))
	assert.Equal(t, 0.198, defaults.Processes.Get(SourceGrid))
}

func TestLoadFactorsFileRejectsNegative(t *testing.T) {
	path := filepath.Join(t.TempDir(), "factors.yaml")
	require.NoError(t, os.WriteFile(path, []byte("process_defaults:\n  grid: -1\n"), 0o600))

	_, err := LoadFactorsFile(path)
	assert.ErrorContains(t, err, "negative")
}

func TestLoadFactorsFileMissing(t *testing.T) {
	_, err := LoadFactorsFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
