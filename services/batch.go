package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/OlsenSM91/arrange-it/models"
)

// BatchStore ist die Registry der Batches.
type BatchStore interface {
	Save(ctx context.Context, b *models.Batch) error
	Get(ctx context.Context, id string) (*models.Batch, error)
	Delete(ctx context.Context, id string) error
	ListCreatedBefore(ctx context.Context, cutoff time.Time) ([]models.Batch, error)
}

// Archiver packt ein organisiertes Verzeichnis und liefert Pfad und Anzeigenamen des Archivs.
type Archiver interface {
	Archive(ctx context.Context, dir string) (path string, name string, err error)
}

// Mirror lädt fertige Archive zusätzlich hoch (z.B. S3).
type Mirror interface {
	Upload(ctx context.Context, key, path string) (string, error)
}

// Upload ist eine hochgeladene Datei: Name wie vom Client geliefert plus Inhalt.
type Upload struct {
	Name   string
	Reader io.Reader
}

// BatchService steuert den Lebenszyklus created → populated → organized → archived.
// Aufrufe auf denselben Batch müssen vom Aufrufer serialisiert werden.
type BatchService struct {
	root      string
	store     BatchStore
	archiver  Archiver
	mirror    Mirror
	organizer *Organizer
	Logger    *zap.Logger

	newID func() string
	now   func() time.Time
}

// NewBatchService erstellt den Service; mirror darf nil sein.
func NewBatchService(root string, store BatchStore, archiver Archiver, mirror Mirror, logger *zap.Logger) *BatchService {
	return &BatchService{
		root:      root,
		store:     store,
		archiver:  archiver,
		mirror:    mirror,
		organizer: NewOrganizer(logger),
		Logger:    logger,
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// Create legt einen neuen, leeren Batch samt Arbeitsverzeichnis an.
func (s *BatchService) Create(ctx context.Context) (*models.Batch, error) {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return nil, newFilesystemError("mkdir", s.root, err)
	}
	id := s.newID()
	dir := filepath.Join(s.root, id)
	// Mkdir statt MkdirAll: eine ID-Kollision soll auffallen
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, newFilesystemError("mkdir", dir, err)
	}

	b := &models.Batch{ID: id, CreatedAt: s.now(), State: models.BatchCreated, Dir: dir}
	if err := s.store.Save(ctx, b); err != nil {
		return nil, fmt.Errorf("save batch: %w", err)
	}
	s.Logger.Info("Batch created", zap.String("batch_id", id))
	return b, nil
}

// Populate schreibt Manifest und Dateien flach ins Arbeitsverzeichnis.
// Gleichnamige Uploads überschreiben sich, der letzte gewinnt.
func (s *BatchService) Populate(ctx context.Context, id string, manifest Upload, files []Upload) (*models.Batch, error) {
	b, err := s.load(ctx, id, models.BatchCreated)
	if err != nil {
		return nil, err
	}

	manifestName, err := s.writeUpload(b.Dir, manifest)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if _, err := s.writeUpload(b.Dir, f); err != nil {
			return nil, err
		}
	}

	b.ManifestName = manifestName
	b.FileCount = len(files)
	return b, s.advance(ctx, b)
}

// Organize parst das Manifest und sortiert die Dateien. Strukturelle Fehler lassen
// den Batch in populated und werden in LastError festgehalten.
func (s *BatchService) Organize(ctx context.Context, id string) (*models.Batch, *models.OrganizeReport, error) {
	b, err := s.load(ctx, id, models.BatchPopulated)
	if err != nil {
		return nil, nil, err
	}
	log := s.Logger.With(zap.String("batch_id", id))

	manifestPath := filepath.Join(b.Dir, b.ManifestName)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return b, nil, s.fail(ctx, b, newFilesystemError("read", manifestPath, err))
	}
	m, err := ParseManifest(data)
	if err != nil {
		log.Error("Manifest parse failed", zap.Error(err))
		return b, nil, s.fail(ctx, b, err)
	}
	report, err := s.organizer.Organize(ctx, m, b.Dir)
	if err != nil {
		log.Error("Organize failed, moved files are not rolled back", zap.Error(err))
		return b, report, s.fail(ctx, b, err)
	}

	raw, err := json.Marshal(report)
	if err != nil {
		return b, report, err
	}
	b.MovedCount = report.MovedCount
	b.UnresolvedCount = len(report.Unresolved)
	b.Report = raw
	b.LastError = ""
	return b, report, s.advance(ctx, b)
}

// Archive erzeugt das Archiv neben dem Arbeitsverzeichnis. Ein Fehler beim
// Spiegeln wird nur geloggt, das lokale Archiv bleibt maßgeblich.
func (s *BatchService) Archive(ctx context.Context, id string) (*models.Batch, error) {
	b, err := s.load(ctx, id, models.BatchOrganized)
	if err != nil {
		return nil, err
	}
	archivePath, name, err := s.archiver.Archive(ctx, b.Dir)
	if err != nil {
		return b, s.fail(ctx, b, newFilesystemError("archive", b.Dir, err))
	}
	b.ArchivePath = archivePath
	b.ArchiveName = name

	if s.mirror != nil {
		link, err := s.mirror.Upload(ctx, name, archivePath)
		if err != nil {
			s.Logger.Warn("Archive mirror upload failed", zap.String("batch_id", id), zap.Error(err))
		} else {
			b.S3Link = link
		}
	}
	return b, s.advance(ctx, b)
}

// Process führt den kompletten Ablauf eines Uploads aus.
func (s *BatchService) Process(ctx context.Context, manifest Upload, files []Upload) (*models.Batch, *models.OrganizeReport, error) {
	b, err := s.Create(ctx)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.Populate(ctx, b.ID, manifest, files); err != nil {
		return b, nil, err
	}
	b, report, err := s.Organize(ctx, b.ID)
	if err != nil {
		return b, report, err
	}
	b, err = s.Archive(ctx, b.ID)
	return b, report, err
}

// Get liefert einen Batch aus der Registry.
func (s *BatchService) Get(ctx context.Context, id string) (*models.Batch, error) {
	return s.store.Get(ctx, id)
}

// Report dekodiert den gespeicherten Organizer-Report eines Batches.
func (s *BatchService) Report(ctx context.Context, id string) (*models.OrganizeReport, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(b.Report) == 0 {
		return nil, fmt.Errorf("batch %s has no report in state %s: %w", id, b.State, ErrInvalidTransition)
	}
	var report models.OrganizeReport
	if err := json.Unmarshal(b.Report, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Delete ist der explizite Aufräumschritt: Verzeichnis, Archiv und Registry-Eintrag.
func (s *BatchService) Delete(ctx context.Context, id string) error {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.removeFiles(b); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.Logger.Info("Batch deleted", zap.String("batch_id", id))
	return nil
}

// Reap löscht Batches, die älter als maxAge sind, sowie verwaiste Einträge unter
// root, die die Registry nicht (mehr) kennt, z.B. nach einem Neustart ohne DB.
func (s *BatchService) Reap(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := s.now().Add(-maxAge)
	batches, err := s.store.ListCreatedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	removed := 0
	for i := range batches {
		if err := s.Delete(ctx, batches[i].ID); err != nil {
			s.Logger.Error("Failed to reap batch", zap.String("batch_id", batches[i].ID), zap.Error(err))
			continue
		}
		removed++
	}

	orphans, err := s.reapOrphans(ctx, cutoff)
	if err != nil {
		return removed, err
	}
	return removed + orphans, nil
}

func (s *BatchService) reapOrphans(ctx context.Context, cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(s.root)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, newFilesystemError("readdir", s.root, err)
	}

	removed := 0
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".zip")
		if _, err := uuid.Parse(id); err != nil {
			continue
		}
		if _, err := s.store.Get(ctx, id); !errors.Is(err, ErrBatchNotFound) {
			continue
		}
		p := filepath.Join(s.root, e.Name())
		if err := os.RemoveAll(p); err != nil {
			s.Logger.Error("Failed to remove orphaned batch data", zap.String("path", p), zap.Error(err))
			continue
		}
		s.Logger.Info("Removed orphaned batch data", zap.String("path", p))
		removed++
	}
	return removed, nil
}

func (s *BatchService) removeFiles(b *models.Batch) error {
	if err := os.RemoveAll(b.Dir); err != nil {
		return newFilesystemError("remove", b.Dir, err)
	}
	if b.ArchivePath != "" {
		if err := os.Remove(b.ArchivePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return newFilesystemError("remove", b.ArchivePath, err)
		}
	}
	return nil
}

// load holt den Batch und prüft, dass er im Zustand want ist.
func (s *BatchService) load(ctx context.Context, id string, want models.BatchState) (*models.Batch, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.State != want {
		return nil, fmt.Errorf("batch %s is %s, expected %s: %w", id, b.State, want, ErrInvalidTransition)
	}
	return b, nil
}

func (s *BatchService) advance(ctx context.Context, b *models.Batch) error {
	next, ok := b.State.Next()
	if !ok {
		return fmt.Errorf("batch %s is %s: %w", b.ID, b.State, ErrInvalidTransition)
	}
	prev := b.State
	b.State = next
	if err := s.store.Save(ctx, b); err != nil {
		b.State = prev
		return fmt.Errorf("save batch: %w", err)
	}
	s.Logger.Info("Batch state changed",
		zap.String("batch_id", b.ID),
		zap.String("from", string(prev)),
		zap.String("to", string(next)))
	return nil
}

// fail hält den Fehler am Batch fest und gibt ihn unverändert zurück.
func (s *BatchService) fail(ctx context.Context, b *models.Batch, cause error) error {
	b.LastError = cause.Error()
	if err := s.store.Save(ctx, b); err != nil {
		s.Logger.Error("Failed to record batch error", zap.String("batch_id", b.ID), zap.Error(err))
	}
	return cause
}

// writeUpload speichert u unter seinem Basisnamen; Pfadanteile des Clients werden verworfen.
func (s *BatchService) writeUpload(dir string, u Upload) (string, error) {
	name := uploadBaseName(u.Name)
	if name == "" {
		return "", fmt.Errorf("%q: %w", u.Name, ErrInvalidUploadName)
	}
	p := filepath.Join(dir, name)
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", newFilesystemError("create", p, err)
	}
	if _, err := io.Copy(f, u.Reader); err != nil {
		f.Close()
		return "", newFilesystemError("write", p, err)
	}
	if err := f.Close(); err != nil {
		return "", newFilesystemError("write", p, err)
	}
	return name, nil
}

func uploadBaseName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := path.Base(path.Clean("/" + name))
	if base == "/" || base == "." || base == ".." {
		return ""
	}
	return base
}
