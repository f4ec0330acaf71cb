// Package sqlstore persists state blobs in a SQLite table through gorm.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/goliatone/go-formbuilder/pkg/storage"
)

// Entry is the row a blob is stored in.
type Entry struct {
	StorageKey string `gorm:"primaryKey;column:storage_key"`
	Data       []byte `gorm:"column:data"`
	UpdatedAt  time.Time
}

func (Entry) TableName() string {
	return "form_builder_state"
}

// Store is a Persister backed by a gorm connection.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

var _ storage.Persister = (*Store)(nil)

// Open opens (or creates) the SQLite database at dsn and migrates the entry
// table. An empty dsn opens a private in-memory database.
func Open(dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "file::memory:"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", dsn, err)
	}
	return New(db)
}

// New wraps an existing connection and migrates the entry table.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("sqlstore: nil db")
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("sqlstore: auto migrating: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Load returns the blob stored under key.
func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	var entry Entry
	err := s.db.WithContext(ctx).
		Where("storage_key = ?", key).
		First(&entry).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, &storage.OpError{Op: "sqlstore.load", Key: key, Err: err}
	}
	return entry.Data, nil
}

// Save inserts or replaces the blob stored under key.
func (s *Store) Save(ctx context.Context, key string, data []byte) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Entry
		err := tx.Where("storage_key = ?", key).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			entry := Entry{StorageKey: key, Data: append([]byte(nil), data...), UpdatedAt: s.now()}
			if err := tx.Create(&entry).Error; err != nil {
				return &storage.OpError{Op: "sqlstore.create", Key: key, Err: err}
			}
			return nil
		}
		if err != nil {
			return &storage.OpError{Op: "sqlstore.lookup", Key: key, Err: err}
		}

		existing.Data = append([]byte(nil), data...)
		existing.UpdatedAt = s.now()
		if err := tx.Save(&existing).Error; err != nil {
			return &storage.OpError{Op: "sqlstore.update", Key: key, Err: err}
		}
		return nil
	})
}
