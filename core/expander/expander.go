// Package expander turns a list of configuration parameters into the full
// cartesian product of value combinations.
package expander

import "cad-exporter/core/models"

// Expand produces one combination per element of the cartesian product of
// the parameters' candidate values, in row-major order: the first parameter
// varies slowest. An empty parameter list yields a single empty combination.
func Expand(params []models.ConfigParameter) []models.ConfigCombination {
	if len(params) == 0 {
		return []models.ConfigCombination{{}}
	}

	total := 1
	for _, p := range params {
		total *= len(p.Values)
	}
	if total == 0 {
		return nil
	}

	combinations := make([]models.ConfigCombination, 0, total)
	indices := make([]int, len(params))
	for {
		combo := make(models.ConfigCombination, len(params))
		for i, p := range params {
			combo[i] = models.ConfigChoice{
				ParameterID: p.ID,
				DisplayName: p.DisplayName,
				Unit:        p.Unit,
				Value:       p.Values[indices[i]],
			}
		}
		combinations = append(combinations, combo)

		// Advance the last index first so the first parameter varies slowest.
		i := len(params) - 1
		for i >= 0 {
			indices[i]++
			if indices[i] < len(params[i].Values) {
				break
			}
			indices[i] = 0
			i--
		}
		if i < 0 {
			return combinations
		}
	}
}
