package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/OlsenSM91/arrange-it/models"
)

// Kanonische Spaltennamen des Manifests.
const (
	ColumnGroup   = "group"
	ColumnFileRef = "fileRef"
)

// headerSynonyms bildet getrimmte, kleingeschriebene Header auf kanonische Namen ab.
// Unbekannte Header werden unverändert durchgereicht.
var headerSynonyms = map[string]string{
	"team":    ColumnGroup,
	"group":   ColumnGroup,
	"photo":   ColumnFileRef,
	"photos":  ColumnFileRef,
	"fileref": ColumnFileRef,
}

// Manifest ist das geparste Manifest: kanonischer Header plus Zeilen in Dateireihenfolge.
type Manifest struct {
	Header       []string
	GroupIndex   int
	FileRefIndex int
	Rows         []models.ManifestRow
}

// canonicalHeader bildet eine Header-Zelle über die Synonymtabelle ab. Unbekannte
// Header bleiben bis auf Trimmen unverändert.
func canonicalHeader(cell string) string {
	cell = strings.TrimSpace(cell)
	if canonical, ok := headerSynonyms[strings.ToLower(cell)]; ok {
		return canonical
	}
	return cell
}

// detectDelimiter wählt anhand der Header-Zeile zwischen Komma, Semikolon und Tab.
// Gezählt wird nur außerhalb von Anführungszeichen.
func detectDelimiter(data []byte) rune {
	counts := map[byte]int{}
	inQuotes := false
	for _, c := range data {
		if c == '"' {
			inQuotes = !inQuotes
			continue
		}
		if inQuotes {
			continue
		}
		if c == '\n' {
			break
		}
		switch c {
		case ',', ';', '\t':
			counts[c]++
		}
	}
	best := byte(',')
	for _, d := range []byte{';', '\t'} {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return rune(best)
}

// ParseManifest liest ein CSV-Manifest. Die erste Zeile ist der Header; fehlt
// eine der Spalten group/fileRef, gibt es einen *MissingColumnError. Zeilen mit
// abweichender Spaltenzahl brechen das ganze Manifest mit *MalformedRowError ab.
func ParseManifest(data []byte) (*Manifest, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = detectDelimiter(data)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, &MissingColumnError{Columns: []string{ColumnGroup, ColumnFileRef}}
	}
	if err != nil {
		return nil, malformed(err)
	}

	m := &Manifest{GroupIndex: -1, FileRefIndex: -1}
	for i, cell := range header {
		name := canonicalHeader(cell)
		m.Header = append(m.Header, name)
		// bei doppelten Spalten gilt die erste
		switch {
		case name == ColumnGroup && m.GroupIndex < 0:
			m.GroupIndex = i
		case name == ColumnFileRef && m.FileRefIndex < 0:
			m.FileRefIndex = i
		}
	}

	var missing []string
	if m.GroupIndex < 0 {
		missing = append(missing, ColumnGroup)
	}
	if m.FileRefIndex < 0 {
		missing = append(missing, ColumnFileRef)
	}
	if len(missing) > 0 {
		return nil, &MissingColumnError{Columns: missing}
	}

	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, malformed(err)
		}
		line, _ := r.FieldPos(0)
		if len(record) != len(header) {
			return nil, &MalformedRowError{Line: line, Got: len(record), Want: len(header)}
		}
		m.Rows = append(m.Rows, models.ManifestRow{
			Line:    line,
			Group:   record[m.GroupIndex],
			FileRef: record[m.FileRefIndex],
		})
	}
	return m, nil
}

func malformed(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &MalformedRowError{Line: pe.Line, Err: pe.Err}
	}
	return &MalformedRowError{Err: err}
}
