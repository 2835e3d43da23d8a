package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"vision-chat/internal/domain/entity"
	"vision-chat/internal/domain/port"
)

// MemoryRecordRepository хранит записи анализа в памяти, файлы — в MediaStore.
type MemoryRecordRepository struct {
	mu      sync.RWMutex
	media   *MediaStore
	records map[string]*entity.AnalysisRecord
	now     func() time.Time
}

// NewMemoryRecordRepository создаёт in-memory хранилище записей
func NewMemoryRecordRepository(media *MediaStore) *MemoryRecordRepository {
	return &MemoryRecordRepository{
		media:   media,
		records: make(map[string]*entity.AnalysisRecord),
		now:     time.Now,
	}
}

// Create сохраняет оригинал и заводит необработанную запись.
func (r *MemoryRecordRepository) Create(ctx context.Context, original []byte) (string, error) {
	id := uuid.NewString()
	path, err := r.media.SaveOriginal(id, original)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.records[id] = &entity.AnalysisRecord{
		ID:            id,
		OriginalImage: path,
		CreatedAt:     r.now().UTC(),
	}
	r.mu.Unlock()

	return id, nil
}

// Update записывает размеченное изображение и детекции; допускается один раз.
func (r *MemoryRecordRepository) Update(ctx context.Context, id string, annotated []byte, detections []entity.Detection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return fmt.Errorf("%w: %s", entity.ErrNotFound, id)
	}
	if rec.Processed() {
		return fmt.Errorf("%w: %s", entity.ErrAlreadyProcessed, id)
	}

	path, err := r.media.SaveAnnotated(id, annotated)
	if err != nil {
		return err
	}
	rec.AnnotatedImage = path
	rec.Detections = append([]entity.Detection(nil), detections...)
	return nil
}

// Get возвращает копию записи.
func (r *MemoryRecordRepository) Get(ctx context.Context, id string) (*entity.AnalysisRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrNotFound, id)
	}
	cp := *rec
	cp.Detections = append([]entity.Detection(nil), rec.Detections...)
	return &cp, nil
}

var _ port.RecordRepository = (*MemoryRecordRepository)(nil)
