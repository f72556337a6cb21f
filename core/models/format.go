package models

import "strings"

// MeshFormat is the only format served by the synchronous export protocol.
// Every other format goes through the asynchronous translation pipeline.
const MeshFormat = "STL"

// formatExtensions maps a format to the file extensions its exported files
// may carry. The first entry is the canonical one used for archive naming.
var formatExtensions = map[string][]string{
	"STL":        {".stl"},
	"STEP":       {".step", ".stp"},
	"IGES":       {".iges", ".igs"},
	"SOLIDWORKS": {".sldprt"},
	"PARASOLID":  {".x_t"},
	"ACIS":       {".sat"},
	"COLLADA":    {".dae"},
}

// NormalizeFormat canonicalizes a caller-supplied format name.
func NormalizeFormat(format string) string {
	return strings.ToUpper(strings.TrimSpace(format))
}

// IsMeshFormat reports whether a format uses the synchronous mesh protocol.
func IsMeshFormat(format string) bool {
	return NormalizeFormat(format) == MeshFormat
}

// FormatExtensions returns the accepted file extensions for a format.
// Unknown formats fall back to their lowercased name.
func FormatExtensions(format string) []string {
	if exts, ok := formatExtensions[NormalizeFormat(format)]; ok {
		return exts
	}
	return []string{"." + strings.ToLower(NormalizeFormat(format))}
}

// FormatExtension returns the canonical extension (without dot) used when
// naming archive entries for a format.
func FormatExtension(format string) string {
	return strings.TrimPrefix(FormatExtensions(format)[0], ".")
}
