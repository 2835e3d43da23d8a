package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// MediaStore хранит байты изображений в локальном каталоге и отдаёт стабильные абсолютные пути.
type MediaStore struct {
	dir string
}

// NewMediaStore создаёт каталог при необходимости.
func NewMediaStore(dir string) (*MediaStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve media dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &MediaStore{dir: abs}, nil
}

// Dir возвращает абсолютный путь каталога.
func (m *MediaStore) Dir() string {
	return m.dir
}

// SaveOriginal записывает оригинал как <id><ext>, расширение определяется по содержимому.
func (m *MediaStore) SaveOriginal(id string, data []byte) (string, error) {
	ext := mimetype.Detect(data).Extension()
	if ext == "" {
		ext = ".bin"
	}
	return m.write(id+ext, data)
}

// SaveAnnotated записывает размеченную копию как annotated_<id>.jpg.
func (m *MediaStore) SaveAnnotated(id string, data []byte) (string, error) {
	return m.write("annotated_"+id+".jpg", data)
}

func (m *MediaStore) write(name string, data []byte) (string, error) {
	path := filepath.Join(m.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}

// Remove удаляет файл, созданный этим хранилищем; используется для отката при ошибке записи.
func (m *MediaStore) Remove(path string) {
	if path == "" {
		return
	}
	if rel, err := filepath.Rel(m.dir, path); err == nil && filepath.Dir(rel) == "." {
		os.Remove(path)
	}
}
