package application

import (
	"context"

	"github.com/mateusmacedo/go-seatbooking/internal/booking/domain"
	pkgApp "github.com/mateusmacedo/go-seatbooking/pkg/application"
)

type SearchIndex struct {
	vehicles domain.VehicleRepository
	logger   pkgApp.AppLogger
}

func NewSearchIndex(vehicles domain.VehicleRepository, logger pkgApp.AppLogger) *SearchIndex {
	return &SearchIndex{vehicles: vehicles, logger: logger}
}

// SearchByStops returns, in repository order, every vehicle whose route
// reaches source before destination.
func (s *SearchIndex) SearchByStops(ctx context.Context, source, destination string) []domain.Vehicle {
	matches := []domain.Vehicle{}
	for _, v := range s.vehicles.All(ctx) {
		if v.Serves(source, destination) {
			matches = append(matches, v)
		}
	}

	pkgApp.LogDebug(ctx, s.logger, "vehicles searched", map[string]interface{}{
		"source":      source,
		"destination": destination,
		"matches":     len(matches),
	})
	return matches
}
