package recordstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mateusmacedo/go-seatbooking/pkg/application"
)

// recordDocument is one collection document stored as a row.
type recordDocument struct {
	Name      string `gorm:"primaryKey"`
	Body      []byte
	UpdatedAt time.Time
}

func (recordDocument) TableName() string {
	return "record_documents"
}

// OpenPostgres opens a gorm connection for GormStore.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open postgres: %v", ErrStorageIO, err)
	}
	return db, nil
}

// GormStore keeps each collection document as a row of record_documents,
// keyed by name.
type GormStore[T any] struct {
	db     *gorm.DB
	name   string
	logger application.AppLogger
}

func NewGormStore[T any](db *gorm.DB, name string, logger application.AppLogger) (*GormStore[T], error) {
	if err := db.AutoMigrate(&recordDocument{}); err != nil {
		return nil, fmt.Errorf("%w: migrate record_documents: %v", ErrStorageIO, err)
	}

	return &GormStore[T]{
		db:     db,
		name:   name,
		logger: logger,
	}, nil
}

func (s *GormStore[T]) Load(ctx context.Context) ([]T, error) {
	var doc recordDocument
	err := s.db.WithContext(ctx).Where("name = ?", s.name).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		application.LogInfo(ctx, s.logger, "record document not found, starting empty", map[string]interface{}{
			"name": s.name,
		})
		return []T{}, nil
	}
	if err != nil {
		application.LogError(ctx, s.logger, "failed to read record document", err, map[string]interface{}{
			"name": s.name,
		})
		return nil, fmt.Errorf("%w: select %s: %v", ErrStorageIO, s.name, err)
	}

	records, err := decodeCollection[T](doc.Body)
	if err != nil {
		application.LogError(ctx, s.logger, "record document is corrupted", err, map[string]interface{}{
			"name": s.name,
		})
		return nil, fmt.Errorf("load %s: %w", s.name, err)
	}
	return records, nil
}

func (s *GormStore[T]) Save(ctx context.Context, records []T) error {
	data, err := encodeCollection(records)
	if err != nil {
		return err
	}

	doc := recordDocument{Name: s.name, Body: data, UpdatedAt: time.Now().UTC()}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&doc).Error
	if err != nil {
		application.LogError(ctx, s.logger, "failed to write record document", err, map[string]interface{}{
			"name": s.name,
		})
		return fmt.Errorf("%w: upsert %s: %v", ErrStorageIO, s.name, err)
	}

	application.LogDebug(ctx, s.logger, "record document saved", map[string]interface{}{
		"name":    s.name,
		"records": len(records),
	})
	return nil
}
