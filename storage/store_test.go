package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OlsenSM91/arrange-it/models"
)

func TestMemoryBatchStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryBatchStore()
	now := time.Now()

	require.NoError(t, s.Save(ctx, &models.Batch{ID: "old", CreatedAt: now.Add(-2 * time.Hour), State: models.BatchArchived}))
	require.NoError(t, s.Save(ctx, &models.Batch{ID: "older", CreatedAt: now.Add(-3 * time.Hour), State: models.BatchCreated}))
	fresh := &models.Batch{ID: "fresh", State: models.BatchCreated}
	require.NoError(t, s.Save(ctx, fresh))
	assert.False(t, fresh.CreatedAt.IsZero())

	b, err := s.Get(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, models.BatchArchived, b.State)

	// Get liefert eine Kopie
	b.State = models.BatchCreated
	again, _ := s.Get(ctx, "old")
	assert.Equal(t, models.BatchArchived, again.State)

	list, err := s.ListCreatedBefore(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "older", list[0].ID)
	assert.Equal(t, "old", list[1].ID)

	require.NoError(t, s.Delete(ctx, "old"))
	_, err = s.Get(ctx, "old")
	assert.ErrorIs(t, err, ErrBatchNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "old"), ErrBatchNotFound)
}

func TestBatchStateNext(t *testing.T) {
	next, ok := models.BatchCreated.Next()
	assert.True(t, ok)
	assert.Equal(t, models.BatchPopulated, next)

	next, _ = models.BatchPopulated.Next()
	assert.Equal(t, models.BatchOrganized, next)
	next, _ = models.BatchOrganized.Next()
	assert.Equal(t, models.BatchArchived, next)

	_, ok = models.BatchArchived.Next()
	assert.False(t, ok)
}
