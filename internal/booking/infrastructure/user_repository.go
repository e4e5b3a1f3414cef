package infrastructure

import (
	"context"
	"fmt"
	"sync"

	"github.com/mateusmacedo/go-seatbooking/internal/booking/domain"
	"github.com/mateusmacedo/go-seatbooking/internal/recordstore"
	"github.com/mateusmacedo/go-seatbooking/pkg/application"
)

type userRepository struct {
	mu    sync.RWMutex
	users []domain.User
	// persistMu orders snapshots and saves so a stale snapshot never
	// overwrites a newer one.
	persistMu sync.Mutex
	store     recordstore.Store[domain.User]
	logger    application.AppLogger
}

// NewUserRepository loads the users document once and serves it from memory.
func NewUserRepository(ctx context.Context, store recordstore.Store[domain.User], logger application.AppLogger) (domain.UserRepository, error) {
	repo := &userRepository{
		store:  store,
		logger: logger,
	}
	if err := repo.Load(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

// Load replaces the in-memory collection with the stored document. On error
// the current collection is kept.
func (r *userRepository) Load(ctx context.Context) error {
	users, err := r.store.Load(ctx)
	if err != nil {
		application.LogError(ctx, r.logger, "failed to load users", err, nil)
		return err
	}

	r.mu.Lock()
	r.users = users
	r.mu.Unlock()

	application.LogDebug(ctx, r.logger, "users loaded", map[string]interface{}{"count": len(users)})
	return nil
}

// Stored returns the persisted document. It waits for an in-flight Persist so
// it never reads a half-written save.
func (r *userRepository) Stored(ctx context.Context) ([]domain.User, error) {
	r.persistMu.Lock()
	defer r.persistMu.Unlock()

	users, err := r.store.Load(ctx)
	if err != nil {
		application.LogError(ctx, r.logger, "failed to read stored users", err, nil)
		return nil, err
	}
	return users, nil
}

func (r *userRepository) All(_ context.Context) []domain.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.User, len(r.users))
	for i, u := range r.users {
		out[i] = u.Clone()
	}
	return out
}

// FindByName returns the first user with name in insertion order.
func (r *userRepository) FindByName(_ context.Context, name string) (domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Name == name {
			return u.Clone(), true
		}
	}
	return domain.User{}, false
}

func (r *userRepository) FindByID(_ context.Context, id string) (domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.ID == id {
			return u.Clone(), true
		}
	}
	return domain.User{}, false
}

func (r *userRepository) Append(ctx context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.ID == user.ID {
			application.LogError(ctx, r.logger, "user already exists", nil, map[string]interface{}{"user_id": user.ID})
			return fmt.Errorf("user %s already exists", user.ID)
		}
	}
	r.users = append(r.users, user.Clone())
	return nil
}

func (r *userRepository) Update(ctx context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, u := range r.users {
		if u.ID == user.ID {
			r.users[i] = user.Clone()
			return nil
		}
	}

	application.LogError(ctx, r.logger, "user not found", nil, map[string]interface{}{"user_id": user.ID})
	return fmt.Errorf("user %s: %w", user.ID, domain.ErrNotFound)
}

func (r *userRepository) Persist(ctx context.Context) error {
	r.persistMu.Lock()
	defer r.persistMu.Unlock()

	r.mu.RLock()
	snapshot := make([]domain.User, len(r.users))
	copy(snapshot, r.users)
	r.mu.RUnlock()

	if err := r.store.Save(ctx, snapshot); err != nil {
		application.LogError(ctx, r.logger, "failed to persist users", err, map[string]interface{}{"count": len(snapshot)})
		return err
	}

	application.LogInfo(ctx, r.logger, "users persisted", map[string]interface{}{"count": len(snapshot)})
	return nil
}
