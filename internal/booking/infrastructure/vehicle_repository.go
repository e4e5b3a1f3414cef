package infrastructure

import (
	"context"
	"fmt"
	"sync"

	"github.com/mateusmacedo/go-seatbooking/internal/booking/domain"
	"github.com/mateusmacedo/go-seatbooking/internal/recordstore"
	"github.com/mateusmacedo/go-seatbooking/pkg/application"
)

type vehicleRepository struct {
	mu       sync.RWMutex
	vehicles []domain.Vehicle
	// persistMu orders snapshots and saves so a stale snapshot never
	// overwrites a newer one.
	persistMu sync.Mutex
	store     recordstore.Store[domain.Vehicle]
	logger    application.AppLogger
}

func NewVehicleRepository(ctx context.Context, store recordstore.Store[domain.Vehicle], logger application.AppLogger) (domain.VehicleRepository, error) {
	repo := &vehicleRepository{
		store:  store,
		logger: logger,
	}
	if err := repo.Load(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *vehicleRepository) Load(ctx context.Context) error {
	vehicles, err := r.store.Load(ctx)
	if err != nil {
		application.LogError(ctx, r.logger, "failed to load vehicles", err, nil)
		return err
	}

	r.mu.Lock()
	r.vehicles = vehicles
	r.mu.Unlock()

	application.LogDebug(ctx, r.logger, "vehicles loaded", map[string]interface{}{"count": len(vehicles)})
	return nil
}

// Stored returns the persisted document. It waits for an in-flight Persist so
// it never reads a half-written save.
func (r *vehicleRepository) Stored(ctx context.Context) ([]domain.Vehicle, error) {
	r.persistMu.Lock()
	defer r.persistMu.Unlock()

	vehicles, err := r.store.Load(ctx)
	if err != nil {
		application.LogError(ctx, r.logger, "failed to read stored vehicles", err, nil)
		return nil, err
	}
	return vehicles, nil
}

func (r *vehicleRepository) All(_ context.Context) []domain.Vehicle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Vehicle, len(r.vehicles))
	for i, v := range r.vehicles {
		out[i] = v.Clone()
	}
	return out
}

func (r *vehicleRepository) FindByID(_ context.Context, id string) (domain.Vehicle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, v := range r.vehicles {
		if v.ID == id {
			return v.Clone(), true
		}
	}
	return domain.Vehicle{}, false
}

func (r *vehicleRepository) Append(ctx context.Context, vehicle domain.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, v := range r.vehicles {
		if v.ID == vehicle.ID {
			application.LogError(ctx, r.logger, "vehicle already exists", nil, map[string]interface{}{"vehicle_id": vehicle.ID})
			return fmt.Errorf("vehicle %s already exists", vehicle.ID)
		}
	}
	r.vehicles = append(r.vehicles, vehicle.Clone())
	return nil
}

// Update replaces the vehicle with the same id.
func (r *vehicleRepository) Update(ctx context.Context, vehicle domain.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, v := range r.vehicles {
		if v.ID == vehicle.ID {
			r.vehicles[i] = vehicle.Clone()
			return nil
		}
	}

	application.LogError(ctx, r.logger, "vehicle not found", nil, map[string]interface{}{"vehicle_id": vehicle.ID})
	return fmt.Errorf("vehicle %s: %w", vehicle.ID, domain.ErrNotFound)
}

func (r *vehicleRepository) Persist(ctx context.Context) error {
	r.persistMu.Lock()
	defer r.persistMu.Unlock()

	r.mu.RLock()
	snapshot := make([]domain.Vehicle, len(r.vehicles))
	copy(snapshot, r.vehicles)
	r.mu.RUnlock()

	if err := r.store.Save(ctx, snapshot); err != nil {
		application.LogError(ctx, r.logger, "failed to persist vehicles", err, map[string]interface{}{"count": len(snapshot)})
		return err
	}

	application.LogInfo(ctx, r.logger, "vehicles persisted", map[string]interface{}{"count": len(snapshot)})
	return nil
}
