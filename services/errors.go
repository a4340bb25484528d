package services

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/OlsenSM91/arrange-it/storage"
)

var (
	// ErrInvalidTransition wird geliefert, wenn ein Batch nicht im erwarteten Zustand ist.
	ErrInvalidTransition = errors.New("invalid batch state transition")
	// ErrBatchNotFound ist der Fehler der Registry für unbekannte Batch-IDs.
	ErrBatchNotFound = storage.ErrBatchNotFound
	// ErrInvalidUploadName wird für Upload-Namen ohne verwertbaren Dateinamen geliefert.
	ErrInvalidUploadName = errors.New("invalid upload file name")
)

// MissingColumnError: Pflichtspalte fehlt nach Header-Normalisierung.
type MissingColumnError struct {
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("manifest is missing required column(s): %s", strings.Join(e.Columns, ", "))
}

// MalformedRowError: eine Datenzeile passt nicht zur Form des Headers.
type MalformedRowError struct {
	Line int
	Got  int
	Want int
	Err  error
}

func (e *MalformedRowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("manifest line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("manifest line %d: got %d columns, want %d", e.Line, e.Got, e.Want)
}

func (e *MalformedRowError) Unwrap() error { return e.Err }

// FilesystemError kapselt OS-Fehler beim Anlegen, Lesen oder Verschieben.
// Bereits verschobene Dateien bleiben verschoben, es gibt kein Rollback.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

// newFilesystemError übernimmt vom OS-Fehler nur die Ursache, wenn dieser schon
// denselben Pfad nennt, damit Operation und Pfad nicht doppelt erscheinen.
func newFilesystemError(op, path string, err error) *FilesystemError {
	var pe *fs.PathError
	var le *os.LinkError
	switch {
	case errors.As(err, &pe) && pe.Path == path:
		err = pe.Err
	case errors.As(err, &le) && (le.New == path || le.Old == path):
		err = le.Err
	}
	return &FilesystemError{Op: op, Path: path, Err: err}
}
