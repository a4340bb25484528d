package services

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/OlsenSM91/arrange-it/models"
)

// Organizer sortiert die Dateien eines Arbeitsverzeichnisses anhand eines Manifests
// in je ein Unterverzeichnis pro Gruppe.
type Organizer struct {
	logger *zap.Logger
}

func NewOrganizer(logger *zap.Logger) *Organizer {
	return &Organizer{logger: logger}
}

// Organize verarbeitet die Zeilen in Manifest-Reihenfolge. Nicht gefundene Dateien
// landen im Report, die Verarbeitung läuft weiter. Ein *FilesystemError bricht ab;
// bis dahin verschobene Dateien bleiben verschoben. Existiert das Ziel bereits, wird
// es überschrieben, die spätere Zeile gewinnt also.
func (o *Organizer) Organize(ctx context.Context, m *Manifest, dir string) (*models.OrganizeReport, error) {
	idx, err := BuildFileIndex(dir)
	if err != nil {
		return nil, err
	}

	report := &models.OrganizeReport{Groups: []string{}, Unresolved: []models.UnresolvedRow{}}
	seenGroups := make(map[string]bool)

	for _, row := range m.Rows {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		group := NormalizeField(row.Group)
		ref := NormalizeField(row.FileRef)
		log := o.logger.With(zap.Int("line", row.Line), zap.String("group", group), zap.String("file_ref", ref))

		unresolved := func(reason string) {
			log.Warn("Manifest row not resolved", zap.String("reason", reason))
			report.Unresolved = append(report.Unresolved, models.UnresolvedRow{
				Line: row.Line, Group: group, FileRef: ref, Reason: reason,
			})
		}

		if !validPathSegment(group) {
			unresolved(models.ReasonInvalidGroup)
			continue
		}
		if !validPathSegment(ref) {
			unresolved(models.ReasonInvalidFileName)
			continue
		}
		source, ok := idx.Lookup(ref)
		if !ok {
			unresolved(models.ReasonFileNotFound)
			continue
		}

		groupDir := filepath.Join(dir, group)
		if err := os.MkdirAll(groupDir, 0o755); err != nil {
			return report, newFilesystemError("mkdir", groupDir, err)
		}
		if !seenGroups[group] {
			seenGroups[group] = true
			report.Groups = append(report.Groups, group)
		}

		dest := filepath.Join(groupDir, ref)
		if _, err := os.Lstat(dest); err == nil {
			log.Warn("Destination exists, overwriting", zap.String("destination", dest))
			report.Overwritten++
		} else if !errors.Is(err, fs.ErrNotExist) {
			return report, newFilesystemError("stat", dest, err)
		}

		if err := os.Rename(filepath.Join(dir, source), dest); err != nil {
			return report, newFilesystemError("move", dest, err)
		}
		idx.Remove(ref)
		report.MovedCount++
		log.Debug("File moved", zap.String("source", source))
	}

	o.logger.Info("Organize completed",
		zap.String("dir", dir),
		zap.Int("rows", len(m.Rows)),
		zap.Int("moved", report.MovedCount),
		zap.Int("unresolved", len(report.Unresolved)))
	return report, nil
}

// validPathSegment verhindert leere Namen sowie "." und "..", die sonst aus dem
// Arbeitsverzeichnis heraus oder auf es selbst zeigen würden. Schrägstriche
// kann die Normalisierung nicht durchlassen.
func validPathSegment(name string) bool {
	return name != "" && name != "." && name != ".."
}
