package exporter

import (
	"strings"

	"cad-exporter/core/models"
)

// matchConfiguredPart picks the part to export out of a configured part
// listing. Identifiers are not stable across configurations, so the name
// is the primary key: exact match first, then normalized substring, then a
// substring match against the original identifier, and finally the first
// listed part when a name was supplied at all.
func matchConfiguredPart(parts []models.Part, partName, partID string) (models.Part, bool) {
	if len(parts) == 0 {
		return models.Part{}, false
	}

	if partName != "" {
		for _, p := range parts {
			if strings.EqualFold(p.Name, partName) {
				return p, true
			}
		}
		target := normalizeName(partName)
		for _, p := range parts {
			candidate := normalizeName(p.Name)
			if target != "" && (strings.Contains(candidate, target) || strings.Contains(target, candidate)) {
				return p, true
			}
		}
	}

	if partID != "" {
		for _, p := range parts {
			if p.PartID == partID {
				return p, true
			}
		}
		for _, p := range parts {
			if strings.Contains(p.PartID, partID) || strings.Contains(partID, p.PartID) {
				return p, true
			}
		}
	}

	if partName != "" {
		return parts[0], true
	}
	return models.Part{}, false
}

// normalizeName lowercases and strips non-alphanumerics before fuzzy
// comparisons.
func normalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
