package recordstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mateusmacedo/go-seatbooking/pkg/application"
)

type FileOption func(*fileOptions)

type fileOptions struct {
	atomicWrites bool
}

// WithAtomicWrites makes Save write a temporary file, fsync it and rename it
// over the document. Off by default: a crash during a plain Save can leave a
// truncated document, which the next Load reports as ErrDataCorruption.
func WithAtomicWrites(enabled bool) FileOption {
	return func(o *fileOptions) {
		o.atomicWrites = enabled
	}
}

// FileStore keeps the collection as a JSON array in a single file.
type FileStore[T any] struct {
	path   string
	opts   fileOptions
	logger application.AppLogger
}

func NewFileStore[T any](path string, logger application.AppLogger, options ...FileOption) *FileStore[T] {
	store := &FileStore[T]{path: path, logger: logger}
	for _, option := range options {
		option(&store.opts)
	}
	return store
}

func (s *FileStore[T]) Load(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		application.LogInfo(ctx, s.logger, "record document not found, starting empty", map[string]interface{}{
			"path": s.path,
		})
		return []T{}, nil
	}
	if err != nil {
		application.LogError(ctx, s.logger, "failed to read record document", err, map[string]interface{}{
			"path": s.path,
		})
		return nil, fmt.Errorf("%w: read %s: %v", ErrStorageIO, s.path, err)
	}

	records, err := decodeCollection[T](data)
	if err != nil {
		application.LogError(ctx, s.logger, "record document is corrupted", err, map[string]interface{}{
			"path": s.path,
		})
		return nil, fmt.Errorf("load %s: %w", s.path, err)
	}

	application.LogDebug(ctx, s.logger, "record document loaded", map[string]interface{}{
		"path":    s.path,
		"records": len(records),
	})
	return records, nil
}

func (s *FileStore[T]) Save(ctx context.Context, records []T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodeCollection(records)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			application.LogError(ctx, s.logger, "failed to create record directory", err, map[string]interface{}{
				"path": s.path,
			})
			return fmt.Errorf("%w: mkdir %s: %v", ErrStorageIO, dir, err)
		}
	}

	if s.opts.atomicWrites {
		err = writeFileAtomic(s.path, data)
	} else {
		err = os.WriteFile(s.path, data, 0o644)
	}
	if err != nil {
		application.LogError(ctx, s.logger, "failed to write record document", err, map[string]interface{}{
			"path": s.path,
		})
		return fmt.Errorf("%w: write %s: %v", ErrStorageIO, s.path, err)
	}

	application.LogDebug(ctx, s.logger, "record document saved", map[string]interface{}{
		"path":    s.path,
		"records": len(records),
		"atomic":  s.opts.atomicWrites,
	})
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	temporaryPath := path + ".tmp"

	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return err
	}

	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return err
	}
	return nil
}
