// Package recordstore persists a whole collection as a single document.
//
// Every backend honors the same contract: Load on an absent document yields an
// empty collection, Load on an unreadable document fails with
// ErrDataCorruption, and Save replaces the full document.
package recordstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrDataCorruption = errors.New("record document is malformed")
	ErrStorageIO      = errors.New("record storage i/o failure")
)

// Store loads and saves one collection document.
type Store[T any] interface {
	Load(ctx context.Context) ([]T, error)
	Save(ctx context.Context, records []T) error
}

func encodeCollection[T any](records []T) ([]byte, error) {
	if records == nil {
		records = []T{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: encode: %v", ErrDataCorruption, err)
	}
	return append(data, '\n'), nil
}

func decodeCollection[T any](data []byte) ([]T, error) {
	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataCorruption, err)
	}
	if records == nil {
		// A literal "null" document is not a collection.
		return nil, fmt.Errorf("%w: document is not an array", ErrDataCorruption)
	}
	return records, nil
}
