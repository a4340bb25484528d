package storage

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/OlsenSM91/arrange-it/models"
)

// ErrBatchNotFound wird für unbekannte Batch-IDs geliefert.
var ErrBatchNotFound = errors.New("batch not found")

// GormBatchStore hält die Batch-Registry in Postgres.
type GormBatchStore struct {
	db *gorm.DB
}

func NewGormBatchStore(db *gorm.DB) *GormBatchStore {
	return &GormBatchStore{db: db}
}

// Migrate legt die Tabelle batches an bzw. aktualisiert sie.
func (s *GormBatchStore) Migrate() error {
	return s.db.AutoMigrate(&models.Batch{})
}

func (s *GormBatchStore) Save(ctx context.Context, b *models.Batch) error {
	return s.db.WithContext(ctx).Save(b).Error
}

func (s *GormBatchStore) Get(ctx context.Context, id string) (*models.Batch, error) {
	var b models.Batch
	if err := s.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (s *GormBatchStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Batch{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrBatchNotFound
	}
	return nil
}

func (s *GormBatchStore) ListCreatedBefore(ctx context.Context, cutoff time.Time) ([]models.Batch, error) {
	var batches []models.Batch
	err := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Order("created_at asc").Find(&batches).Error
	return batches, err
}

// MemoryBatchStore ist die Registry ohne Datenbank; Einträge gehen beim Neustart verloren.
type MemoryBatchStore struct {
	mu      sync.Mutex
	batches map[string]models.Batch
}

func NewMemoryBatchStore() *MemoryBatchStore {
	return &MemoryBatchStore{batches: make(map[string]models.Batch)}
}

func (s *MemoryBatchStore) Save(_ context.Context, b *models.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.UpdatedAt = time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = b.UpdatedAt
	}
	s.batches[b.ID] = *b
	return nil
}

func (s *MemoryBatchStore) Get(_ context.Context, id string) (*models.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.batches[id]
	if !ok {
		return nil, ErrBatchNotFound
	}
	return &b, nil
}

func (s *MemoryBatchStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.batches[id]; !ok {
		return ErrBatchNotFound
	}
	delete(s.batches, id)
	return nil
}

func (s *MemoryBatchStore) ListCreatedBefore(_ context.Context, cutoff time.Time) ([]models.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Batch
	for _, b := range s.batches {
		if b.CreatedAt.Before(cutoff) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
