// Package extractor inspects export payloads and pulls the requested file
// out of container payloads. The provider sometimes bundles the result of a
// translation as a zip holding several files; only one of them is the file
// the caller asked for.
package extractor

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"

	"cad-exporter/core/models"
)

// Selection is the file chosen out of a container payload.
type Selection struct {
	EntryName string
	Bytes     []byte
}

// IsContainer reports whether a payload is itself a zip container, by
// declared content type or by the leading PK magic bytes.
func IsContainer(contentType string, data []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "zip") {
		return true
	}
	return len(data) >= 2 && data[0] == 'P' && data[1] == 'K'
}

// Select picks the single entry of a container payload that matches the
// requested format and part. It refuses to guess when nothing matches.
func Select(data []byte, format, studioName, partName string) (*Selection, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open result container: %w", err)
	}

	var entries []*zip.File
	for _, f := range reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		entries = append(entries, f)
	}

	names := make([]string, len(entries))
	for i, f := range entries {
		names[i] = f.Name
	}

	idx, ok := pickEntry(names, format, studioName, partName)
	if !ok {
		return nil, fmt.Errorf("container has no entry matching format %s for %q", format, partName)
	}
	return readEntry(entries[idx])
}

// pickEntry implements the disambiguation order over entry names. Pure so
// the heuristics stay testable without building zip fixtures.
func pickEntry(names []string, format, studioName, partName string) (int, bool) {
	var candidates []int
	for i, name := range names {
		if hasFormatExtension(name, format) {
			candidates = append(candidates, i)
		}
	}

	switch len(candidates) {
	case 1:
		return candidates[0], true
	case 0:
		// The provider bundled a single differently-named file.
		if len(names) == 1 {
			return 0, true
		}
		return 0, false
	}

	prefix := normalizeName(studioName + " - " + partName)
	part := normalizeName(partName)
	studio := normalizeName(studioName)
	for _, i := range candidates {
		if prefix != "" && strings.HasPrefix(normalizeName(names[i]), prefix) {
			return i, true
		}
	}
	for _, i := range candidates {
		if part != "" && strings.Contains(normalizeName(names[i]), part) {
			return i, true
		}
	}
	for _, i := range candidates {
		if studio != "" && strings.Contains(normalizeName(names[i]), studio) {
			return i, true
		}
	}
	return candidates[0], true
}

func hasFormatExtension(name, format string) bool {
	lower := strings.ToLower(name)
	for _, ext := range models.FormatExtensions(format) {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// normalizeName lowercases and strips everything but letters and digits so
// provider-side renaming (spacing, separators) does not break matching.
func normalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func readEntry(f *zip.File) (*Selection, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open container entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read container entry %s: %w", f.Name, err)
	}
	return &Selection{EntryName: f.Name, Bytes: data}, nil
}
