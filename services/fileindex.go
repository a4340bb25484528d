package services

import (
	"os"
	"strings"
)

// FileIndex bildet kleingeschriebene Dateinamen auf den tatsächlichen Namen auf der Platte ab.
type FileIndex map[string]string

// BuildFileIndex listet die regulären Dateien direkt in dir (nicht rekursiv).
// os.ReadDir liefert nach Namen sortiert; kollidieren zwei Namen unter
// Kleinschreibung, gewinnt der lexikografisch letzte.
func BuildFileIndex(dir string) (FileIndex, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, newFilesystemError("readdir", dir, err)
	}
	idx := make(FileIndex, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		idx[strings.ToLower(e.Name())] = e.Name()
	}
	return idx, nil
}

// Lookup sucht name ohne Beachtung der Groß-/Kleinschreibung.
func (idx FileIndex) Lookup(name string) (string, bool) {
	actual, ok := idx[strings.ToLower(name)]
	return actual, ok
}

// Remove entfernt name nach einem erfolgreichen Verschieben aus dem Index.
func (idx FileIndex) Remove(name string) {
	delete(idx, strings.ToLower(name))
}
