package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type StopsKind int

const (
	FromSequence StopsKind = iota
	FromMapping
)

func (k StopsKind) String() string {
	if k == FromMapping {
		return "mapping"
	}
	return "sequence"
}

// StopsInput is a decoded `stops` field. Stops is the route in order; Times is
// only populated when the field was a mapping of stop name to time.
type StopsInput struct {
	Kind  StopsKind
	Stops []string
	Times map[string]string
}

// ParseStops accepts the `stops` field either as an array of stop names or as
// an object whose keys, in document order, are the stops and whose values are
// their scheduled times.
func ParseStops(raw json.RawMessage) (StopsInput, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return StopsInput{Kind: FromSequence}, nil
	}

	switch trimmed[0] {
	case '[':
		var stops []string
		if err := json.Unmarshal(trimmed, &stops); err != nil {
			return StopsInput{}, fmt.Errorf("stops sequence: %w", err)
		}
		return StopsInput{Kind: FromSequence, Stops: stops}, nil
	case '{':
		stops, times, err := decodeOrderedStringMap(trimmed)
		if err != nil {
			return StopsInput{}, fmt.Errorf("stops mapping: %w", err)
		}
		return StopsInput{Kind: FromMapping, Stops: stops, Times: times}, nil
	default:
		return StopsInput{}, fmt.Errorf("stops must be an array or an object, got %s", trimmed)
	}
}

// decodeOrderedStringMap walks the object token by token because Go maps do
// not keep key order.
func decodeOrderedStringMap(data []byte) ([]string, map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}

	keys := []string{}
	values := make(map[string]string)
	for dec.More() {
		token, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := token.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected key %v", token)
		}

		var value string
		if err := dec.Decode(&value); err != nil {
			return nil, nil, fmt.Errorf("stop %q: %w", key, err)
		}

		if _, seen := values[key]; !seen {
			keys = append(keys, key)
		}
		values[key] = value
	}

	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return keys, values, nil
}
