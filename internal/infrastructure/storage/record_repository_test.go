package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vision-chat/internal/domain/entity"
	"vision-chat/internal/domain/port"
)

// jpegHeader достаточно для определения типа по содержимому.
var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

func repositories(t *testing.T) map[string]port.RecordRepository {
	t.Helper()

	memMedia, err := NewMediaStore(filepath.Join(t.TempDir(), "media"))
	require.NoError(t, err)

	sqlMedia, err := NewMediaStore(filepath.Join(t.TempDir(), "media"))
	require.NoError(t, err)
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return map[string]port.RecordRepository{
		"memory": NewMemoryRecordRepository(memMedia),
		"sqlite": NewSQLiteRecordRepository(db, sqlMedia),
	}
}

func TestRecordRepository_RoundTripKeepsOrder(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			before := time.Now().UTC().Add(-time.Second)

			id, err := repo.Create(ctx, jpegHeader)
			require.NoError(t, err)
			require.NotEmpty(t, id)

			rec, err := repo.Get(ctx, id)
			require.NoError(t, err)
			require.False(t, rec.Processed())
			require.Empty(t, rec.Detections)
			require.True(t, filepath.IsAbs(rec.OriginalImage))
			require.Equal(t, ".jpg", filepath.Ext(rec.OriginalImage))
			require.True(t, rec.CreatedAt.After(before))

			stored, err := os.ReadFile(rec.OriginalImage)
			require.NoError(t, err)
			require.Equal(t, jpegHeader, stored)

			dets := []entity.Detection{
				entity.NewDetection("person", 0.91, 10, 20, 30, 40),
				entity.NewDetection("dog", 0.87, 100, 100, 300, 300),
				entity.NewDetection("person", 0.42, 5, 5, 6, 6),
			}
			require.NoError(t, repo.Update(ctx, id, []byte("annotated"), dets))

			rec, err = repo.Get(ctx, id)
			require.NoError(t, err)
			require.True(t, rec.Processed())
			require.Equal(t, dets, rec.Detections)
			require.Equal(t, "annotated_"+id+".jpg", filepath.Base(rec.AnnotatedImage))

			annotated, err := os.ReadFile(rec.AnnotatedImage)
			require.NoError(t, err)
			require.Equal(t, []byte("annotated"), annotated)
		})
	}
}

func TestRecordRepository_UpdateOnlyOnce(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			id, err := repo.Create(ctx, jpegHeader)
			require.NoError(t, err)

			require.NoError(t, repo.Update(ctx, id, []byte("a"), nil))
			err = repo.Update(ctx, id, []byte("b"), []entity.Detection{entity.NewDetection("cat", 0.5, 0, 0, 1, 1)})
			require.ErrorIs(t, err, entity.ErrAlreadyProcessed)

			rec, err := repo.Get(ctx, id)
			require.NoError(t, err)
			require.Empty(t, rec.Detections)
		})
	}
}

func TestRecordRepository_NotFound(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := repo.Get(ctx, "missing")
			require.ErrorIs(t, err, entity.ErrNotFound)

			err = repo.Update(ctx, "missing", []byte("a"), nil)
			require.ErrorIs(t, err, entity.ErrNotFound)
		})
	}
}

func TestMemoryRecordRepository_GetReturnsCopy(t *testing.T) {
	media, err := NewMediaStore(t.TempDir())
	require.NoError(t, err)
	repo := NewMemoryRecordRepository(media)
	ctx := context.Background()

	id, err := repo.Create(ctx, jpegHeader)
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, id, []byte("a"), []entity.Detection{entity.NewDetection("cat", 0.5, 0, 0, 1, 1)}))

	rec, err := repo.Get(ctx, id)
	require.NoError(t, err)
	rec.Detections[0].ClassName = "changed"

	again, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "cat", again.Detections[0].ClassName)
}

func TestMediaStore_UnknownContentGetsBinExtension(t *testing.T) {
	media, err := NewMediaStore(t.TempDir())
	require.NoError(t, err)

	path, err := media.SaveOriginal("abc", []byte{0x00, 0x01, 0x02, 0x03})
	require.NoError(t, err)
	require.Equal(t, "abc.bin", filepath.Base(path))

	media.Remove(path)
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}
