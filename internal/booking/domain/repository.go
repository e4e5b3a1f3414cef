package domain

import "context"

// UserRepository is the typed view over the users document. Mutations stay
// in memory until Persist. Stored reads the persisted document and leaves the
// in-memory collection alone.
type UserRepository interface {
	Load(ctx context.Context) error
	Stored(ctx context.Context) ([]User, error)
	All(ctx context.Context) []User
	FindByName(ctx context.Context, name string) (User, bool)
	FindByID(ctx context.Context, id string) (User, bool)
	Append(ctx context.Context, user User) error
	Update(ctx context.Context, user User) error
	Persist(ctx context.Context) error
}

// VehicleRepository is the typed view over the vehicles document.
type VehicleRepository interface {
	Load(ctx context.Context) error
	Stored(ctx context.Context) ([]Vehicle, error)
	All(ctx context.Context) []Vehicle
	FindByID(ctx context.Context, id string) (Vehicle, bool)
	Append(ctx context.Context, vehicle Vehicle) error
	Update(ctx context.Context, vehicle Vehicle) error
	Persist(ctx context.Context) error
}

// PasswordHasher computes and checks password digests.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}
