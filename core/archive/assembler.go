// Package archive accumulates export results into a single zip archive.
// One assembler is shared by every concurrently running export unit of a
// request, so all mutation is serialized behind a mutex.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"sync"
)

// Assembler is a thread-safe zip sink with deterministic entry naming.
type Assembler struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	zw     *zip.Writer
	names  map[string]struct{}
	closed bool
}

// NewAssembler creates a new in-memory archive assembler
func NewAssembler() *Assembler {
	a := &Assembler{names: make(map[string]struct{})}
	a.zw = zip.NewWriter(&a.buf)
	return a
}

// Add writes one entry. Entry names derive from distinct unit tuples so
// collisions indicate a bug upstream; a duplicate name is rejected rather
// than silently overwritten.
func (a *Assembler) Add(name string, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return fmt.Errorf("archive already finalized")
	}
	if _, exists := a.names[name]; exists {
		return fmt.Errorf("duplicate archive entry name %q", name)
	}

	w, err := a.zw.Create(name)
	if err != nil {
		return fmt.Errorf("create archive entry %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write archive entry %s: %w", name, err)
	}
	a.names[name] = struct{}{}
	return nil
}

// Len returns the number of entries written so far.
func (a *Assembler) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.names)
}

// Close finalizes the archive and returns its bytes. An archive with zero
// entries is still a valid (empty) zip.
func (a *Assembler) Close() ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.closed {
		if err := a.zw.Close(); err != nil {
			return nil, fmt.Errorf("finalize archive: %w", err)
		}
		a.closed = true
	}
	return a.buf.Bytes(), nil
}

// EntryName builds the deterministic archive entry name for one unit:
// "{studio} - {part|Combined}[ - {config tag}].{ext}".
func EntryName(studioName, partLabel, configTag, extension string) string {
	name := studioName + " - " + partLabel
	if configTag != "" {
		name += " - " + configTag
	}
	return name + "." + extension
}
