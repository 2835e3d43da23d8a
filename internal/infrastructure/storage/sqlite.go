package storage

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// DB оборачивает соединение SQLite с потокобезопасным доступом.
type DB struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// OpenSQLite открывает базу и создаёт схему при необходимости.
func OpenSQLite(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analysis_records (
		id TEXT PRIMARY KEY,
		original_image TEXT NOT NULL,
		annotated_image TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS detections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		record_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		class_name TEXT NOT NULL,
		confidence REAL NOT NULL,
		x1 INTEGER NOT NULL,
		y1 INTEGER NOT NULL,
		x2 INTEGER NOT NULL,
		y2 INTEGER NOT NULL,
		FOREIGN KEY (record_id) REFERENCES analysis_records(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_detections_record_id ON detections(record_id, position);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Close закрывает соединение.
func (db *DB) Close() error {
	return db.conn.Close()
}
