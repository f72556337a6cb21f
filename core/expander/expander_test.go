package expander

import (
	"testing"

	"cad-exporter/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strVal(s string) models.ConfigValue {
	return models.ConfigValue{String: s}
}

func numVal(n float64) models.ConfigValue {
	return models.ConfigValue{Number: n, IsNumber: true}
}

func TestExpandEmpty(t *testing.T) {
	combos := Expand(nil)
	require.Len(t, combos, 1)
	assert.True(t, combos[0].Empty())
	assert.Equal(t, "", combos[0].Tag())
}

func TestExpandSingleParameter(t *testing.T) {
	combos := Expand([]models.ConfigParameter{
		{ID: "p1", DisplayName: "Width", Unit: "mm", Values: []models.ConfigValue{numVal(50), numVal(60)}},
	})
	require.Len(t, combos, 2)
	assert.Equal(t, "Width = 50", combos[0].Tag())
	assert.Equal(t, "Width = 60", combos[1].Tag())
}

func TestExpandCartesianProduct(t *testing.T) {
	params := []models.ConfigParameter{
		{ID: "p1", DisplayName: "Width", Unit: "mm", Values: []models.ConfigValue{numVal(50), numVal(60), numVal(70)}},
		{ID: "p2", DisplayName: "Material", Values: []models.ConfigValue{strVal("Steel"), strVal("Brass")}},
		{ID: "p3", DisplayName: "Holes", Values: []models.ConfigValue{numVal(2), numVal(4)}},
	}
	combos := Expand(params)
	require.Len(t, combos, 3*2*2)

	// Every combination is a distinct tuple.
	seen := make(map[string]bool)
	for _, c := range combos {
		require.Len(t, c, 3)
		tag := c.Tag()
		assert.False(t, seen[tag], "duplicate combination %q", tag)
		seen[tag] = true
	}

	// Full coverage: every value of every parameter appears.
	counts := make(map[string]int)
	for _, c := range combos {
		for _, choice := range c {
			counts[choice.ParameterID+"="+choice.Value.Display()]++
		}
	}
	assert.Equal(t, 4, counts["p1=50"])
	assert.Equal(t, 4, counts["p1=60"])
	assert.Equal(t, 4, counts["p1=70"])
	assert.Equal(t, 6, counts["p2=Steel"])
	assert.Equal(t, 6, counts["p3=4"])
}

func TestExpandRowMajorOrder(t *testing.T) {
	params := []models.ConfigParameter{
		{ID: "a", DisplayName: "A", Values: []models.ConfigValue{strVal("1"), strVal("2")}},
		{ID: "b", DisplayName: "B", Values: []models.ConfigValue{strVal("x"), strVal("y")}},
	}
	combos := Expand(params)
	require.Len(t, combos, 4)
	assert.Equal(t, "A = 1 | B = x", combos[0].Tag())
	assert.Equal(t, "A = 1 | B = y", combos[1].Tag())
	assert.Equal(t, "A = 2 | B = x", combos[2].Tag())
	assert.Equal(t, "A = 2 | B = y", combos[3].Tag())
}

func TestRecordsCarryUnitSuffix(t *testing.T) {
	combos := Expand([]models.ConfigParameter{
		{ID: "p1", DisplayName: "Width", Unit: "mm", Values: []models.ConfigValue{numVal(50)}},
		{ID: "p2", DisplayName: "Material", Values: []models.ConfigValue{strVal("Steel")}},
	})
	require.Len(t, combos, 1)
	records := combos[0].Records()
	require.Len(t, records, 2)
	assert.Equal(t, models.ParameterRecord{ParameterID: "p1", ParameterValue: "50 mm"}, records[0])
	assert.Equal(t, models.ParameterRecord{ParameterID: "p2", ParameterValue: "Steel"}, records[1])
}
