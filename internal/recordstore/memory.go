package recordstore

import (
	"context"
	"sync"
)

// MemoryStore keeps the encoded document in memory. Records go through the
// same JSON codec as the durable backends, so loads never alias saved values.
type MemoryStore[T any] struct {
	mu      sync.RWMutex
	data    []byte
	present bool
}

func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{}
}

func (s *MemoryStore[T]) Load(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.present {
		return []T{}, nil
	}
	return decodeCollection[T](s.data)
}

func (s *MemoryStore[T]) Save(ctx context.Context, records []T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodeCollection(records)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	s.present = true
	return nil
}

// Raw returns a copy of the stored document and whether one exists.
func (s *MemoryStore[T]) Raw() ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]byte(nil), s.data...), s.present
}

// SetRaw replaces the stored document with data as-is.
func (s *MemoryStore[T]) SetRaw(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
	s.present = true
}
