package models

import (
	"time"
)

// BatchState ist der Lebenszyklus-Zustand eines Batches.
type BatchState string

const (
	BatchCreated   BatchState = "created"   // Arbeitsverzeichnis angelegt, leer
	BatchPopulated BatchState = "populated" // Manifest und Dateien geschrieben
	BatchOrganized BatchState = "organized" // Organizer gelaufen, Report vorhanden
	BatchArchived  BatchState = "archived"  // Archiv erzeugt (Endzustand)
)

// Next liefert den einzig erlaubten Folgezustand.
func (s BatchState) Next() (BatchState, bool) {
	switch s {
	case BatchCreated:
		return BatchPopulated, true
	case BatchPopulated:
		return BatchOrganized, true
	case BatchOrganized:
		return BatchArchived, true
	}
	return "", false
}

// Batch ist eine Upload-und-Sortier-Einheit mit eigenem Arbeitsverzeichnis.
type Batch struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`

	State BatchState `json:"state" gorm:"size:16;index"`
	Dir   string     `json:"-"`

	ManifestName string `json:"manifest_name,omitempty"`
	FileCount    int    `json:"file_count"`

	MovedCount      int    `json:"moved"`
	UnresolvedCount int    `json:"unresolved_count"`
	Report          []byte `json:"-" gorm:"type:jsonb"`

	ArchivePath string `json:"-"`
	ArchiveName string `json:"archive_name,omitempty"`
	S3Link      string `json:"s3_link,omitempty"`

	LastError string `json:"last_error,omitempty" gorm:"type:text"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Batch) TableName() string {
	return "batches"
}
