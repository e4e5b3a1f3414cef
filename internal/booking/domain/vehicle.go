package domain

import (
	"encoding/json"
	"fmt"
)

// Vehicle is a scheduled vehicle with its route and seat grid. Source and
// Destination hold the stops of the most recent booking, not the route ends.
type Vehicle struct {
	ID          string            `json:"id"`
	Number      string            `json:"number"`
	Source      string            `json:"source"`
	Destination string            `json:"destination"`
	Seats       SeatGrid          `json:"seats"`
	StopTimes   map[string]string `json:"stop_times"`
	Stops       []string          `json:"stops"`
}

type vehicleDocument struct {
	ID          string            `json:"id"`
	Number      string            `json:"number"`
	Source      string            `json:"source"`
	Destination string            `json:"destination"`
	Seats       SeatGrid          `json:"seats"`
	StopTimes   map[string]string `json:"stop_times"`
	Stops       json.RawMessage   `json:"stops"`
}

func (v *Vehicle) UnmarshalJSON(data []byte) error {
	var doc vehicleDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	stops, err := ParseStops(doc.Stops)
	if err != nil {
		return fmt.Errorf("vehicle %s: %w", doc.ID, err)
	}

	*v = Vehicle{
		ID:          doc.ID,
		Number:      doc.Number,
		Source:      doc.Source,
		Destination: doc.Destination,
		Seats:       doc.Seats,
		StopTimes:   doc.StopTimes,
		Stops:       stops.Stops,
	}
	if stops.Kind == FromMapping && v.StopTimes == nil {
		v.StopTimes = stops.Times
	}
	return nil
}

// StopIndex returns the first position of stop in the route, or -1.
func (v Vehicle) StopIndex(stop string) int {
	for i, s := range v.Stops {
		if s == stop {
			return i
		}
	}
	return -1
}

// Serves reports whether the route visits source strictly before destination.
func (v Vehicle) Serves(source, destination string) bool {
	from := v.StopIndex(source)
	to := v.StopIndex(destination)
	return from >= 0 && to >= 0 && from < to
}

// SeatMap returns a copy of the seat grid.
func (v Vehicle) SeatMap() SeatGrid {
	return v.Seats.Clone()
}

func (v Vehicle) Clone() Vehicle {
	out := v
	out.Seats = v.Seats.Clone()
	if v.Stops != nil {
		out.Stops = append([]string(nil), v.Stops...)
	}
	if v.StopTimes != nil {
		out.StopTimes = make(map[string]string, len(v.StopTimes))
		for k, t := range v.StopTimes {
			out.StopTimes[k] = t
		}
	}
	return out
}

func (v Vehicle) Info() string {
	return fmt.Sprintf("Vehicle ID: %s Vehicle No: %s", v.ID, v.Number)
}
