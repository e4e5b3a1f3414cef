package recordstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mateusmacedo/go-seatbooking/pkg/application"
)

// RedisStore keeps the collection document under a single redis key.
type RedisStore[T any] struct {
	client redis.UniversalClient
	key    string
	logger application.AppLogger
}

func NewRedisStore[T any](client redis.UniversalClient, key string, logger application.AppLogger) *RedisStore[T] {
	return &RedisStore[T]{client: client, key: key, logger: logger}
}

func (s *RedisStore[T]) Load(ctx context.Context) ([]T, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		application.LogInfo(ctx, s.logger, "record document not found, starting empty", map[string]interface{}{
			"key": s.key,
		})
		return []T{}, nil
	}
	if err != nil {
		application.LogError(ctx, s.logger, "failed to read record document", err, map[string]interface{}{
			"key": s.key,
		})
		return nil, fmt.Errorf("%w: get %s: %v", ErrStorageIO, s.key, err)
	}

	records, err := decodeCollection[T](data)
	if err != nil {
		application.LogError(ctx, s.logger, "record document is corrupted", err, map[string]interface{}{
			"key": s.key,
		})
		return nil, fmt.Errorf("load %s: %w", s.key, err)
	}
	return records, nil
}

func (s *RedisStore[T]) Save(ctx context.Context, records []T) error {
	data, err := encodeCollection(records)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		application.LogError(ctx, s.logger, "failed to write record document", err, map[string]interface{}{
			"key": s.key,
		})
		return fmt.Errorf("%w: set %s: %v", ErrStorageIO, s.key, err)
	}

	application.LogDebug(ctx, s.logger, "record document saved", map[string]interface{}{
		"key":     s.key,
		"records": len(records),
	})
	return nil
}
