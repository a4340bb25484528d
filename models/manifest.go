package models

// ManifestRow ist eine Datenzeile des Manifests in Rohform (noch nicht normalisiert).
type ManifestRow struct {
	Line    int    `json:"line"`
	Group   string `json:"group"`
	FileRef string `json:"file_ref"`
}

// Gründe für nicht zugeordnete Zeilen.
const (
	ReasonFileNotFound    = "file not found"
	ReasonInvalidGroup    = "invalid group name"
	ReasonInvalidFileName = "invalid file name"
)

// UnresolvedRow ist eine Zeile, deren Datei nicht verschoben wurde (FileNotFoundWarning).
type UnresolvedRow struct {
	Line    int    `json:"line"`
	Group   string `json:"group"`
	FileRef string `json:"file_ref"`
	Reason  string `json:"reason"`
}

// OrganizeReport fasst einen Organizer-Lauf zusammen.
type OrganizeReport struct {
	MovedCount  int             `json:"moved"`
	Overwritten int             `json:"overwritten"`
	Groups      []string        `json:"groups"`
	Unresolved  []UnresolvedRow `json:"unresolved"`
}
