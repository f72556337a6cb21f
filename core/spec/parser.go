package spec

import (
	"fmt"

	"cad-exporter/core/models"

	"gopkg.in/yaml.v3"
)

// ExportSpec represents the YAML export specification
type ExportSpec struct {
	Export ExportSpecExport `yaml:"export"`
}

// ExportSpecExport represents the export section of the file
type ExportSpecExport struct {
	Document      string                   `yaml:"document"`
	Element       string                   `yaml:"element"`
	StudioName    string                   `yaml:"studio_name"`
	PartID        string                   `yaml:"part_id,omitempty"`
	PartName      string                   `yaml:"part_name,omitempty"`
	Formats       []string                 `yaml:"formats"`
	Combine       bool                     `yaml:"combine,omitempty"`
	Configuration []models.ConfigParameter `yaml:"configuration,omitempty"`
	Quality       models.MeshQuality       `yaml:"quality,omitempty"`
}

// ParseExportSpec parses a YAML export spec into an export request
func ParseExportSpec(yamlStr string) (*models.ExportRequest, error) {
	var parsed ExportSpec
	if err := yaml.Unmarshal([]byte(yamlStr), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	s := parsed.Export
	if s.Document == "" {
		return nil, fmt.Errorf("export.document is required")
	}
	if s.Element == "" {
		return nil, fmt.Errorf("export.element is required")
	}
	if s.StudioName == "" {
		return nil, fmt.Errorf("export.studio_name is required")
	}
	if len(s.Formats) == 0 {
		return nil, fmt.Errorf("export.formats must list at least one format")
	}

	return &models.ExportRequest{
		DocumentID:    s.Document,
		ElementID:     s.Element,
		StudioName:    s.StudioName,
		PartID:        s.PartID,
		PartName:      s.PartName,
		Formats:       s.Formats,
		Configuration: s.Configuration,
		Combine:       s.Combine,
		Quality:       s.Quality,
	}, nil
}
