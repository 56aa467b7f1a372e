package surfboardgwp_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	surfboardgwp "github.com/swellcycle/surfboard-gwp"
)

func TestAggregateMaterials(t *testing.T) {
	items, total := surfboardgwp.Aggregate([]surfboardgwp.LineItem{
		{Name: "PET", Quantity: 2, Unit: "kg", EmissionFactor: 3.468},
		{Name: "Epoxy", Quantity: 1, Unit: "kg", EmissionFactor: 6.55},
	})

	require.Len(t, items, 2)
	assert.Equal(t, 6.936, items[0].TotalGWP())
	assert.Equal(t, 6.55, items[1].TotalGWP())
	assert.Equal(t, 13.486, total.Rounded())
}

func TestAggregateProcessEnergyKeepsExactSum(t *testing.T) {
	items := []surfboardgwp.LineItem{
		{Name: "3D printing (solar)", Quantity: 2.4, Unit: "kWh", EmissionFactor: 0.05},
		{Name: "3D printing (grid)", Quantity: 9.6, Unit: "kWh", EmissionFactor: 0.198},
	}

	totals, exact := surfboardgwp.Aggregate(items)
	assert.Equal(t, 0.12, totals[0].TotalGWP())
	assert.Equal(t, 1.901, totals[1].TotalGWP())
	assert.InDelta(t, 2.0208, float64(exact), 1e-9)

	_, rounded := surfboardgwp.Aggregate(items, surfboardgwp.WithRoundedSum(true))
	assert.InDelta(t, 2.021, float64(rounded), 1e-9)
}

func TestAggregateEmpty(t *testing.T) {
	items, total := surfboardgwp.Aggregate(nil)
	assert.Empty(t, items)
	assert.Equal(t, surfboardgwp.Emissions(0), total)
}

func TestAssess(t *testing.T) {
	warning := surfboardgwp.NewWarning("transport[0].shares", "90", 0, surfboardgwp.ErrInvalidShares)
	assessment := surfboardgwp.Assess([]surfboardgwp.StageInput{
		{Stage: surfboardgwp.StageMaterials, Items: []surfboardgwp.LineItem{{Name: "PET", Quantity: 2, EmissionFactor: 3.468}}},
		{Stage: surfboardgwp.StageProcessEnergy, Items: []surfboardgwp.LineItem{{Name: "glassing", Quantity: 10, EmissionFactor: 0.2}}},
		{Stage: surfboardgwp.StageTransportation, Invalid: true},
	}, []surfboardgwp.Warning{warning})

	assert.InDelta(t, 8.936, float64(assessment.GrandTotal), 1e-9)
	assert.False(t, assessment.Valid())
	require.Len(t, assessment.Warnings, 1)
	assert.True(t, errors.Is(assessment.Warnings[0].Err, surfboardgwp.ErrInvalidShares))

	transport, found := assessment.Stage(surfboardgwp.StageTransportation)
	require.True(t, found)
	assert.False(t, transport.Valid)
	assert.Equal(t, surfboardgwp.Emissions(0), transport.Total)

	assert.InDelta(t, 2.0/8.936*100, assessment.Share(surfboardgwp.StageProcessEnergy), 1e-9)
	assert.Equal(t, 0.0, assessment.Share(surfboardgwp.StageTransportation))
}

func TestStageNames(t *testing.T) {
	assert.Equal(t, "Materials", surfboardgwp.StageMaterials.Component())
	assert.Equal(t, "Processes", surfboardgwp.StageProcessEnergy.Component())
	assert.Equal(t, "Process Energy", surfboardgwp.StageProcessEnergy.Title())
	assert.Equal(t, "Transportation", surfboardgwp.StageTransportation.Title())
}

func TestAssessOverflow(t *testing.T) {
	huge := surfboardgwp.LineItem{Name: "huge", Quantity: 1e154, EmissionFactor: 1e154}
	pet := surfboardgwp.LineItem{Name: "PET", Quantity: 2, EmissionFactor: 3.468}

	t.Run("item", func(t *testing.T) {
		assessment := surfboardgwp.Assess([]surfboardgwp.StageInput{
			{Stage: surfboardgwp.StageMaterials, Items: []surfboardgwp.LineItem{
				{Name: "foam", Quantity: 1e200, EmissionFactor: 1e200},
				pet,
			}},
		}, nil)

		materials, _ := assessment.Stage(surfboardgwp.StageMaterials)
		assert.True(t, materials.Valid)
		assert.Equal(t, surfboardgwp.Emissions(0), materials.Items[0].Total)
		assert.Equal(t, 6.936, assessment.GrandTotal.Rounded())
		require.Len(t, assessment.Warnings, 1)
		assert.Equal(t, "materials[0]", assessment.Warnings[0].Field)
		assert.ErrorIs(t, assessment.Warnings[0].Err, surfboardgwp.ErrOverflow)
	})

	t.Run("stage", func(t *testing.T) {
		assessment := surfboardgwp.Assess([]surfboardgwp.StageInput{
			{Stage: surfboardgwp.StageMaterials, Items: []surfboardgwp.LineItem{huge, huge}},
			{Stage: surfboardgwp.StageProcessEnergy, Items: []surfboardgwp.LineItem{pet}},
		}, nil)

		materials, _ := assessment.Stage(surfboardgwp.StageMaterials)
		assert.False(t, materials.Valid)
		assert.Equal(t, 6.936, assessment.GrandTotal.Rounded())
		require.Len(t, assessment.Warnings, 1)
		assert.Equal(t, "materials", assessment.Warnings[0].Field)
	})

	t.Run("grand total", func(t *testing.T) {
		assessment := surfboardgwp.Assess([]surfboardgwp.StageInput{
			{Stage: surfboardgwp.StageMaterials, Items: []surfboardgwp.LineItem{huge}},
			{Stage: surfboardgwp.StageProcessEnergy, Items: []surfboardgwp.LineItem{huge}},
			{Stage: surfboardgwp.StageTransportation, Items: []surfboardgwp.LineItem{pet}},
		}, nil)

		assert.True(t, assessment.GrandTotal.Finite())
		materials, _ := assessment.Stage(surfboardgwp.StageMaterials)
		assert.False(t, materials.Valid)
		processes, _ := assessment.Stage(surfboardgwp.StageProcessEnergy)
		assert.True(t, processes.Valid)
		require.Len(t, assessment.Warnings, 1)
		assert.ErrorIs(t, assessment.Warnings[0].Err, surfboardgwp.ErrOverflow)
	})
}

func TestWarningMessage(t *testing.T) {
	w := surfboardgwp.NewWarning("materials[0].quantity", "abc", 0, surfboardgwp.ErrNotANumber)
	assert.Equal(t, `materials[0].quantity: "abc" not a finite number, using 0`, w.Message())

	var inputErr *surfboardgwp.InputErr
	require.ErrorAs(t, w.Err, &inputErr)
	assert.Equal(t, "abc", inputErr.Raw)
	assert.ErrorIs(t, w.Err, surfboardgwp.ErrNotANumber)
}
