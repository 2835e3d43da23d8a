package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"vision-chat/internal/domain/entity"
	"vision-chat/internal/domain/port"
)

// SQLiteRecordRepository хранит записи анализа в SQLite, файлы — в MediaStore.
type SQLiteRecordRepository struct {
	db    *DB
	media *MediaStore
	now   func() time.Time
}

// NewSQLiteRecordRepository создаёт репозиторий поверх открытой базы.
func NewSQLiteRecordRepository(db *DB, media *MediaStore) *SQLiteRecordRepository {
	return &SQLiteRecordRepository{db: db, media: media, now: time.Now}
}

// Create сохраняет оригинал и заводит необработанную запись.
func (r *SQLiteRecordRepository) Create(ctx context.Context, original []byte) (string, error) {
	id := uuid.NewString()
	path, err := r.media.SaveOriginal(id, original)
	if err != nil {
		return "", err
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	_, err = r.db.conn.ExecContext(ctx, `
		INSERT INTO analysis_records (id, original_image, created_at)
		VALUES (?, ?, ?)
	`, id, path, r.now().UTC())
	if err != nil {
		r.media.Remove(path)
		return "", fmt.Errorf("failed to insert record: %w", err)
	}
	return id, nil
}

// Update записывает размеченное изображение и детекции одной транзакцией; допускается один раз.
func (r *SQLiteRecordRepository) Update(ctx context.Context, id string, annotated []byte, detections []entity.Detection) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var current string
	err := r.db.conn.QueryRowContext(ctx, `SELECT annotated_image FROM analysis_records WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", entity.ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to get record: %w", err)
	}
	if current != "" {
		return fmt.Errorf("%w: %s", entity.ErrAlreadyProcessed, id)
	}

	path, err := r.media.SaveAnnotated(id, annotated)
	if err != nil {
		return err
	}

	if err := r.writeDetections(ctx, id, path, detections); err != nil {
		r.media.Remove(path)
		return err
	}
	return nil
}

func (r *SQLiteRecordRepository) writeDetections(ctx context.Context, id, annotatedPath string, detections []entity.Detection) error {
	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO detections (record_id, position, class_name, confidence, x1, y1, x2, y2)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, d := range detections {
		if _, err := stmt.ExecContext(ctx, id, i, d.ClassName, d.Confidence, d.Box[0], d.Box[1], d.Box[2], d.Box[3]); err != nil {
			return fmt.Errorf("failed to insert detection: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE analysis_records SET annotated_image = ? WHERE id = ?`, annotatedPath, id); err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	return tx.Commit()
}

// Get возвращает запись с детекциями в исходном порядке.
func (r *SQLiteRecordRepository) Get(ctx context.Context, id string) (*entity.AnalysisRecord, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	rec := &entity.AnalysisRecord{ID: id}
	err := r.db.conn.QueryRowContext(ctx, `
		SELECT original_image, annotated_image, created_at
		FROM analysis_records WHERE id = ?
	`, id).Scan(&rec.OriginalImage, &rec.AnnotatedImage, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", entity.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT class_name, confidence, x1, y1, x2, y2
		FROM detections WHERE record_id = ? ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query detections: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d entity.Detection
		if err := rows.Scan(&d.ClassName, &d.Confidence, &d.Box[0], &d.Box[1], &d.Box[2], &d.Box[3]); err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		rec.Detections = append(rec.Detections, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read detections: %w", err)
	}
	return rec, nil
}

var _ port.RecordRepository = (*SQLiteRecordRepository)(nil)
