package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/mateusmacedo/go-seatbooking/internal/booking"
	"github.com/mateusmacedo/go-seatbooking/internal/booking/application"
	"github.com/mateusmacedo/go-seatbooking/internal/booking/domain"
	"github.com/mateusmacedo/go-seatbooking/internal/booking/infrastructure"
	"github.com/mateusmacedo/go-seatbooking/internal/config"
	"github.com/mateusmacedo/go-seatbooking/internal/recordstore"
	pkgApp "github.com/mateusmacedo/go-seatbooking/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-seatbooking/pkg/domain"
	pkgInfra "github.com/mateusmacedo/go-seatbooking/pkg/infrastructure"
	redisAdapter "github.com/mateusmacedo/go-seatbooking/pkg/infrastructure/redis/adapter"
	watermillAdapter "github.com/mateusmacedo/go-seatbooking/pkg/infrastructure/watermill/adapter"
	zapAdapter "github.com/mateusmacedo/go-seatbooking/pkg/infrastructure/zaplogger/adapter"
)

// runtime holds everything one CLI invocation needs.
type runtime struct {
	slice    *booking.BookingSlice
	vehicles domain.VehicleRepository
	logger   pkgApp.AppLogger
	closers  []func() error
}

func newRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	// Criação do logger
	logger, err := zapAdapter.NewZapAppLogger(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	rt := &runtime{logger: logger}
	ok := false
	defer func() {
		if !ok {
			_ = rt.Close()
		}
	}()

	// Configuração do Redis, compartilhado entre store e eventos
	var redisClient redis.UniversalClient
	if cfg.UsesRedis() {
		redisClient, err = redisAdapter.NewRedisClient(ctx, redisAdapter.ClientConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, redisClient.Close)
	}

	// Configuração dos repositórios
	userStore, vehicleStore, err := rt.openStores(cfg, redisClient)
	if err != nil {
		return nil, err
	}

	users, err := infrastructure.NewUserRepository(ctx, userStore, logger)
	if err != nil {
		return nil, err
	}
	vehicles, err := infrastructure.NewVehicleRepository(ctx, vehicleStore, logger)
	if err != nil {
		return nil, err
	}
	rt.vehicles = vehicles

	// Configuração do publisher de eventos
	publisher, err := watermillAdapter.NewPublisher(watermillAdapter.PublisherConfig{
		Driver:       cfg.Events.Driver,
		KafkaBrokers: cfg.Kafka.Brokers,
		KafkaClient:  cfg.Kafka.ClientID,
	}, redisClient, watermillAdapter.NewWatermillLoggerAdapter(logger))
	if err != nil {
		return nil, fmt.Errorf("build event publisher: %w", err)
	}
	eventBus := newEventBus(publisher, logger)
	rt.closers = append(rt.closers, eventBus.Close)

	// Criação do slice de reservas
	rt.slice = booking.NewBookingSlice(booking.Dependencies{
		Users:       users,
		Vehicles:    vehicles,
		Hasher:      infrastructure.NewBcryptHasher(cfg.Booking.BcryptCost),
		IDGenerator: pkgInfra.NewUUIDGenerator(), // ids de usuário e de passagem
		EventBus:    eventBus,
		Logger:      logger,
	}, application.WithReleaseSeatOnCancel(cfg.Booking.ReleaseSeatOnCancel))

	ok = true
	return rt, nil
}

func newEventBus(publisher message.Publisher, logger pkgApp.AppLogger) *watermillAdapter.WatermillEventBus[pkgDomain.Event[application.BookingEventData], application.BookingEventData] {
	return watermillAdapter.NewWatermillEventBus[pkgDomain.Event[application.BookingEventData], application.BookingEventData](publisher, logger)
}

func (rt *runtime) openStores(cfg *config.Config, redisClient redis.UniversalClient) (recordstore.Store[domain.User], recordstore.Store[domain.Vehicle], error) {
	switch cfg.Store.Driver {
	case config.StoreDriverRedis:
		return recordstore.NewRedisStore[domain.User](redisClient, cfg.Store.UsersKey, rt.logger),
			recordstore.NewRedisStore[domain.Vehicle](redisClient, cfg.Store.VehiclesKey, rt.logger),
			nil

	case config.StoreDriverPostgres:
		db, err := recordstore.OpenPostgres(cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		rt.closers = append(rt.closers, closeGorm(db))

		users, err := recordstore.NewGormStore[domain.User](db, cfg.Store.UsersKey, rt.logger)
		if err != nil {
			return nil, nil, err
		}
		vehicles, err := recordstore.NewGormStore[domain.Vehicle](db, cfg.Store.VehiclesKey, rt.logger)
		if err != nil {
			return nil, nil, err
		}
		return users, vehicles, nil

	default:
		return recordstore.NewFileStore[domain.User](cfg.Store.UsersPath, rt.logger, recordstore.WithAtomicWrites(cfg.Store.AtomicWrites)),
			recordstore.NewFileStore[domain.Vehicle](cfg.Store.VehiclesPath, rt.logger, recordstore.WithAtomicWrites(cfg.Store.AtomicWrites)),
			nil
	}
}

func closeGorm(db *gorm.DB) func() error {
	return func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
}

// Close releases resources in reverse order of acquisition.
func (rt *runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}

// importVehicles merges a vehicles document into the repository: known ids are
// replaced, new ids appended in document order.
func (rt *runtime) importVehicles(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}

	var incoming []domain.Vehicle
	if err := json.Unmarshal(data, &incoming); err != nil {
		return 0, fmt.Errorf("%s: %w: %v", path, recordstore.ErrDataCorruption, err)
	}

	for _, v := range incoming {
		if _, exists := rt.vehicles.FindByID(ctx, v.ID); exists {
			err = rt.vehicles.Update(ctx, v)
		} else {
			err = rt.vehicles.Append(ctx, v)
		}
		if err != nil {
			return 0, err
		}
	}
	if err := rt.vehicles.Persist(ctx); err != nil {
		return 0, err
	}

	pkgApp.LogInfo(ctx, rt.logger, "vehicles imported", map[string]interface{}{"path": path, "count": len(incoming)})
	return len(incoming), nil
}
