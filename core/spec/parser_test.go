package spec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExportSpec(t *testing.T) {
	yamlStr := `
export:
  document: doc1
  element: el1
  studio_name: Frame
  part_name: Bracket
  formats: [STL, STEP]
  combine: false
  configuration:
    - id: List_abc
      name: Width
      unit: mm
      values: [50, 60]
    - id: List_def
      name: Material
      values: [Steel, Brass]
  quality:
    min_facet_width: "0.01"
`
	req, err := ParseExportSpec(yamlStr)
	require.NoError(t, err)

	assert.Equal(t, "doc1", req.DocumentID)
	assert.Equal(t, "el1", req.ElementID)
	assert.Equal(t, "Frame", req.StudioName)
	assert.Equal(t, "Bracket", req.PartName)
	assert.Equal(t, []string{"STL", "STEP"}, req.Formats)
	assert.False(t, req.Combine)
	assert.Equal(t, "0.01", req.Quality.MinFacetWidth)

	require.Len(t, req.Configuration, 2)
	width := req.Configuration[0]
	assert.Equal(t, "List_abc", width.ID)
	assert.Equal(t, "Width", width.DisplayName)
	assert.Equal(t, "mm", width.Unit)
	require.Len(t, width.Values, 2)
	assert.True(t, width.Values[0].IsNumber)
	assert.Equal(t, "50", width.Values[0].Display())

	material := req.Configuration[1]
	assert.False(t, material.Values[0].IsNumber)
	assert.Equal(t, "Steel", material.Values[0].Display())
}

func TestParseExportSpecMissingFields(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing document", "export:\n  element: el1\n  studio_name: Frame\n  formats: [STL]\n"},
		{"missing element", "export:\n  document: doc1\n  studio_name: Frame\n  formats: [STL]\n"},
		{"missing studio name", "export:\n  document: doc1\n  element: el1\n  formats: [STL]\n"},
		{"no formats", "export:\n  document: doc1\n  element: el1\n  studio_name: Frame\n"},
		{"invalid yaml", "export: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseExportSpec(tt.yaml)
			assert.Error(t, err)
		})
	}
}
